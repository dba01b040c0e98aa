package main

import (
	"errors"
	"net/http"
	"strconv"

	"lyricsync-api-go/circuitbreaker"
	"lyricsync-api-go/logcolors"
	"lyricsync-api-go/session"
	"lyricsync-api-go/versions"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

var (
	errVersionNotFound = errors.New("version not found")
	errLastVersion     = errors.New("cannot delete the only remaining version")
)

func sessionResponse(id string, snap versions.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:         id,
		Original:   snap.Original,
		Versions:   snap.Versions,
		EditBuffer: snap.EditBuffer,
		Status:     snap.Status,
		Error:      snap.Error,
	}
	if resp.Versions == nil {
		resp.Versions = []versions.Version{}
	}
	if snap.ActiveVersionID != "" {
		active := snap.ActiveVersionID
		resp.ActiveVersionID = &active
	}
	return resp
}

// sessionError maps session and history errors onto HTTP statuses
func (s *Server) sessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		Respond(w, r).Error(http.StatusNotFound, err.Error())
	case errors.Is(err, errVersionNotFound):
		Respond(w, r).Error(http.StatusNotFound, err.Error())
	case errors.Is(err, versions.ErrRegenerationInProgress),
		errors.Is(err, versions.ErrNotRegenerating),
		errors.Is(err, errLastVersion):
		Respond(w, r).Error(http.StatusConflict, err.Error())
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		s.stats.SessionStoreErrors.Add(1)
		retry := int(s.sessionStore.Breaker().TimeUntilRetry().Seconds()) + 1
		Respond(w, r).Header("Retry-After", strconv.Itoa(retry)).
			Error(http.StatusServiceUnavailable, "Session store temporarily unavailable")
	default:
		s.stats.SessionStoreErrors.Add(1)
		log.Errorf("%s %s %s failed: %v", logcolors.LogSession, r.Method, r.URL.Path, err)
		Respond(w, r).Error(http.StatusBadGateway, "Session store error")
	}
}

// updateSession runs fn against session {id} and writes the resulting session
func (s *Server) updateSession(w http.ResponseWriter, r *http.Request, fn func(h *versions.History) error) {
	id := mux.Vars(r)["id"]
	snap, err := s.sessions.Update(r.Context(), id, fn)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	Respond(w, r).JSON(sessionResponse(id, snap))
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, snap, err := s.sessions.Create(r.Context(), req.Original)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	if req.Lyrics != nil {
		snap, err = s.sessions.Update(r.Context(), id, func(h *versions.History) error {
			h.AddVersion(*req.Lyrics)
			return nil
		})
		if err != nil {
			s.sessionError(w, r, err)
			return
		}
		s.stats.VersionsCreated.Add(1)
	}

	Respond(w, r).Header("Location", "/sessions/"+id).Status(http.StatusCreated, sessionResponse(id, snap))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snap, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	Respond(w, r).JSON(sessionResponse(id, snap))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.sessionError(w, r, err)
		return
	}
	Respond(w, r).NoContent()
}

// setOriginal replaces the source content; a change wipes the history
func (s *Server) setOriginal(w http.ResponseWriter, r *http.Request) {
	var req OriginalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.updateSession(w, r, func(h *versions.History) error {
		if h.SetOriginal(req.Original) {
			log.Infof("%s Original changed for %s, history cleared", logcolors.LogSession, logcolors.Client(mux.Vars(r)["id"]))
		}
		return nil
	})
}

func (s *Server) setEditBuffer(w http.ResponseWriter, r *http.Request) {
	var req LyricsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.updateSession(w, r, func(h *versions.History) error {
		h.SetEditBuffer(req.Lyrics)
		return nil
	})
}

func (s *Server) startRegeneration(w http.ResponseWriter, r *http.Request) {
	s.updateSession(w, r, func(h *versions.History) error {
		if err := h.StartRegeneration(); err != nil {
			return err
		}
		s.stats.RegenerationsStarted.Add(1)
		return nil
	})
}

func (s *Server) completeRegeneration(w http.ResponseWriter, r *http.Request) {
	var req LyricsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.updateSession(w, r, func(h *versions.History) error {
		if _, err := h.CompleteRegeneration(req.Lyrics); err != nil {
			return err
		}
		s.stats.VersionsCreated.Add(1)
		return nil
	})
}

func (s *Server) failRegeneration(w http.ResponseWriter, r *http.Request) {
	var req FailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.updateSession(w, r, func(h *versions.History) error {
		if err := h.FailRegeneration(req.Message); err != nil {
			return err
		}
		s.stats.RegenerationsFailed.Add(1)
		return nil
	})
}

func (s *Server) addVersion(w http.ResponseWriter, r *http.Request) {
	var req LyricsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.updateSession(w, r, func(h *versions.History) error {
		h.AddVersion(req.Lyrics)
		s.stats.VersionsCreated.Add(1)
		return nil
	})
}

func (s *Server) editVersion(w http.ResponseWriter, r *http.Request) {
	var req LyricsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	versionID := mux.Vars(r)["version"]
	s.updateSession(w, r, func(h *versions.History) error {
		if !h.UpdateVersionEdits(versionID, req.Lyrics) {
			return errVersionNotFound
		}
		return nil
	})
}

func (s *Server) activateVersion(w http.ResponseWriter, r *http.Request) {
	versionID := mux.Vars(r)["version"]
	s.updateSession(w, r, func(h *versions.History) error {
		if !h.SetActiveVersion(versionID) {
			return errVersionNotFound
		}
		return nil
	})
}

func (s *Server) deleteVersion(w http.ResponseWriter, r *http.Request) {
	versionID := mux.Vars(r)["version"]
	s.updateSession(w, r, func(h *versions.History) error {
		if _, ok := h.Get(versionID); !ok {
			return errVersionNotFound
		}
		if !h.DeleteVersion(versionID) {
			return errLastVersion
		}
		s.stats.VersionsDeleted.Add(1)
		return nil
	})
}

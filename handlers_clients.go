package main

import (
	"net/http"

	"lyricsync-api-go/offset"
	"lyricsync-api-go/preferences"

	"github.com/gorilla/mux"
)

func (s *Server) offsets(r *http.Request) (*offset.Store, string) {
	vars := mux.Vars(r)
	return offset.NewStore(s.store, vars["client"]), vars["song"]
}

func offsetResponse(songID string, v int) OffsetResponse {
	return OffsetResponse{
		SongID:   songID,
		OffsetMs: v,
		Min:      offset.Min,
		Max:      offset.Max,
		Step:     offset.Step,
	}
}

func (s *Server) getOffset(w http.ResponseWriter, r *http.Request) {
	store, songID := s.offsets(r)
	Respond(w, r).JSON(offsetResponse(songID, store.Get(songID)))
}

// setOffset stores the clamped value; out-of-range input is not an error
func (s *Server) setOffset(w http.ResponseWriter, r *http.Request) {
	var req OffsetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OffsetMs == nil {
		Respond(w, r).Error(http.StatusUnprocessableEntity, "offsetMs is required")
		return
	}

	store, songID := s.offsets(r)
	Respond(w, r).JSON(offsetResponse(songID, store.Set(songID, *req.OffsetMs)))
}

func (s *Server) resetOffset(w http.ResponseWriter, r *http.Request) {
	store, songID := s.offsets(r)
	Respond(w, r).JSON(offsetResponse(songID, store.Reset(songID)))
}

func (s *Server) incrementOffset(w http.ResponseWriter, r *http.Request) {
	store, songID := s.offsets(r)
	Respond(w, r).JSON(offsetResponse(songID, store.Increment(songID)))
}

func (s *Server) decrementOffset(w http.ResponseWriter, r *http.Request) {
	store, songID := s.offsets(r)
	Respond(w, r).JSON(offsetResponse(songID, store.Decrement(songID)))
}

func (s *Server) listOffsets(w http.ResponseWriter, r *http.Request) {
	store, _ := s.offsets(r)
	Respond(w, r).JSON(map[string]interface{}{
		"clientId": mux.Vars(r)["client"],
		"offsets":  store.All(),
	})
}

func (s *Server) clearOffsets(w http.ResponseWriter, r *http.Request) {
	store, _ := s.offsets(r)
	store.Clear()
	Respond(w, r).NoContent()
}

func (s *Server) getPreferences(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["client"]
	prefs := preferences.NewStore(s.store, clientID)
	Respond(w, r).JSON(PreferencesResponse{ClientID: clientID, Preferences: prefs.Get()})
}

// updatePreferences validates every field before writing any of them
func (s *Server) updatePreferences(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["client"]

	var req PreferencesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var mode preferences.SyncMode
	if req.SyncMode != nil {
		var ok bool
		if mode, ok = preferences.ParseSyncMode(*req.SyncMode); !ok {
			Respond(w, r).Error(http.StatusUnprocessableEntity, preferences.ErrInvalidSyncMode.Error())
			return
		}
	}

	prefs := preferences.NewStore(s.store, clientID)
	if req.SyncMode != nil {
		if err := prefs.SetSyncMode(mode); err != nil {
			Respond(w, r).Error(http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	if req.ShowMarkers != nil {
		prefs.SetShowMarkers(*req.ShowMarkers)
	}

	Respond(w, r).JSON(PreferencesResponse{ClientID: clientID, Preferences: prefs.Get()})
}

package main

import (
	"math"
	"net/http"
	"strconv"

	"lyricsync-api-go/logcolors"
	"lyricsync-api-go/lyricsync"
	"lyricsync-api-go/offset"
	"lyricsync-api-go/preferences"
	"lyricsync-api-go/sections"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

func syncResponse(tokens []lyricsync.TimedToken, lineIndexes []int, r lyricsync.SyncResult, offsetMs int) SyncResponse {
	resp := SyncResponse{
		SyncResult: r,
		States:     lyricsync.States(r, len(tokens)),
		OffsetMs:   offsetMs,
	}
	if lineIndexes != nil && r.ActiveIndex >= 0 && r.ActiveIndex < len(lineIndexes) {
		li := lineIndexes[r.ActiveIndex]
		resp.LineIndex = &li
	}
	return resp
}

func (s *Server) invalidTokens(w http.ResponseWriter, r *http.Request, err error) {
	log.Debugf("%s Rejected token list: %v", logcolors.LogSync, err)
	Respond(w, r).Error(http.StatusUnprocessableEntity, err.Error())
}

func (s *Server) syncWords(w http.ResponseWriter, r *http.Request) {
	var req WordSyncRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tokens := lyricsync.FromWords(req.Words)
	if err := lyricsync.Validate(tokens); err != nil {
		s.invalidTokens(w, r, err)
		return
	}

	off := offset.Clamp(req.OffsetMs)
	result := lyricsync.Sync(tokens, req.CurrentTime, off)
	s.stats.RecordSync(false)
	Respond(w, r).JSON(syncResponse(tokens, nil, result, off))
}

func (s *Server) syncLines(w http.ResponseWriter, r *http.Request) {
	var req LineSyncRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	showMarkers := preferences.DefaultShowMarkers
	if req.ShowMarkers != nil {
		showMarkers = *req.ShowMarkers
	}

	tokens, lineIndexes := lyricsync.FromLines(req.Cues, showMarkers)
	if err := lyricsync.Validate(tokens); err != nil {
		s.invalidTokens(w, r, err)
		return
	}

	off := offset.Clamp(req.OffsetMs)
	result := lyricsync.Sync(tokens, req.CurrentTime, off)
	s.stats.RecordSync(false)
	Respond(w, r).JSON(syncResponse(tokens, lineIndexes, result, off))
}

func (s *Server) seek(w http.ResponseWriter, r *http.Request) {
	var req SeekRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := lyricsync.Validate(req.Tokens); err != nil {
		s.invalidTokens(w, r, err)
		return
	}

	t, ok := lyricsync.SeekTime(req.Tokens, req.Index, offset.Clamp(req.OffsetMs))
	if !ok {
		Respond(w, r).Error(http.StatusUnprocessableEntity, "Token index out of range")
		return
	}
	Respond(w, r).JSON(map[string]float64{"currentTime": t})
}

func (s *Server) getSections(w http.ResponseWriter, r *http.Request) {
	var req SectionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	parts := sections.Partition(req.Lyrics)
	Respond(w, r).JSON(SectionsResponse{
		Sections: parts,
		Index:    sections.SectionAt(req.CurrentTime, req.Duration, len(parts)),
	})
}

// loadTrack stores a token list for repeated ticks. Line tracks honour the
// client's showMarkers preference unless the request overrides it.
func (s *Server) loadTrack(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clientID, songID := vars["client"], vars["song"]

	var req TrackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Words) > 0 && len(req.Cues) > 0 {
		Respond(w, r).Error(http.StatusUnprocessableEntity, "Provide either words or cues, not both")
		return
	}

	var tokens []lyricsync.TimedToken
	var lineIndexes []int
	mode := preferences.SyncModeWord
	if len(req.Cues) > 0 {
		showMarkers := preferences.NewStore(s.store, clientID).ShowMarkers()
		if req.ShowMarkers != nil {
			showMarkers = *req.ShowMarkers
		}
		tokens, lineIndexes = lyricsync.FromLines(req.Cues, showMarkers)
		mode = preferences.SyncModeLine
	} else {
		tokens = lyricsync.FromWords(req.Words)
	}
	if err := lyricsync.Validate(tokens); err != nil {
		s.invalidTokens(w, r, err)
		return
	}

	s.tracks.Load(clientID, songID, tokens, lineIndexes)
	log.Infof("%s Loaded %d %s token(s) for %s/%s", logcolors.LogSync, len(tokens), mode, logcolors.Client(clientID), songID)

	Respond(w, r).JSON(map[string]interface{}{
		"songId":   songID,
		"mode":     mode,
		"tokens":   len(tokens),
		"offsetMs": offset.NewStore(s.store, clientID).Get(songID),
	})
}

// tickTrack syncs a loaded track at ?t= using the client's stored offset
func (s *Server) tickTrack(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clientID, songID := vars["client"], vars["song"]

	currentTime, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil || math.IsInf(currentTime, 0) {
		Respond(w, r).Error(http.StatusBadRequest, "Query parameter t must be a playback time in seconds")
		return
	}

	track, ok := s.tracks.Get(clientID, songID)
	if !ok {
		Respond(w, r).Error(http.StatusNotFound, "Track not loaded")
		return
	}

	off := offset.NewStore(s.store, clientID).Get(songID)
	result, hit := track.syncer.SyncMemo(track.tokens, currentTime, off)
	s.stats.RecordSync(hit)
	Respond(w, r).JSON(syncResponse(track.tokens, track.lineIndexes, result, off))
}

func (s *Server) unloadTrack(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !s.tracks.Unload(vars["client"], vars["song"]) {
		Respond(w, r).Error(http.StatusNotFound, "Track not loaded")
		return
	}
	Respond(w, r).NoContent()
}

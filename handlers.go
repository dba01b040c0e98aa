package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lyricsync-api-go/circuitbreaker"
	"lyricsync-api-go/logcolors"
	"lyricsync-api-go/store"
	"lyricsync-api-go/vtt"

	log "github.com/sirupsen/logrus"
)

func (s *Server) exportVTT(w http.ResponseWriter, r *http.Request) {
	var req VTTExportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := vtt.ValidateCues(req.Cues); err != nil {
		s.invalidTokens(w, r, err)
		return
	}

	body := vtt.Export(req.Cues, req.IncludeMarkers)
	filename := vtt.Filename(req.Style, time.Now())
	s.stats.VTTExports.Add(1)
	log.Infof("%s Exported %d cue(s) as %s", logcolors.LogExport, len(req.Cues), filename)

	Respond(w, r).
		Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename)).
		Text(vtt.ContentType, body)
}

// getHealthStatus reports "degraded" while the session store is unreachable;
// offsets, preferences and the sync core keep working without it.
func (s *Server) getHealthStatus(w http.ResponseWriter, r *http.Request) {
	numKeys, sizeKB := s.store.Stats()
	breaker := s.sessionStore.Breaker().Status()

	health := map[string]interface{}{
		"status":          "ok",
		"store_keys":      numKeys,
		"store_size_kb":   sizeKB,
		"loaded_tracks":   s.tracks.Len(),
		"circuit_breaker": breaker.State,
	}

	if breaker.State == circuitbreaker.StateOpen {
		health["status"] = "degraded"
		health["circuit_breaker_retry_in"] = s.sessionStore.Breaker().TimeUntilRetry().String()
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.sessionStore.Ping(ctx); err != nil {
			health["status"] = "degraded"
			health["session_store_error"] = err.Error()
		}
	}

	Respond(w, r).JSON(health)
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	snapshot := s.stats.Snapshot()

	numKeys, sizeKB := s.store.Stats()
	snapshot["store"] = map[string]interface{}{
		"keys":    numKeys,
		"size_kb": sizeKB,
	}
	snapshot["loaded_tracks"] = s.tracks.Len()

	Respond(w, r).JSON(snapshot)
}

func (s *Server) getCircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(s.sessionStore.Breaker().Status())
}

func (s *Server) resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	cb := s.sessionStore.Breaker()
	previous := cb.State()
	cb.Reset()

	log.Infof("%s Reset via API (was %s)", logcolors.CircuitBreakerPrefix("Redis"), previous)
	Respond(w, r).JSON(map[string]interface{}{
		"message":        "Circuit breaker reset",
		"previous_state": previous,
		"current_state":  cb.State(),
	})
}

func (s *Server) backupStore(w http.ResponseWriter, r *http.Request) {
	backupPath, err := s.store.Backup()
	if err != nil {
		log.Errorf("%s Failed to create backup: %v", logcolors.LogStoreBackup, err)
		Respond(w, r).Error(http.StatusInternalServerError, fmt.Sprintf("Failed to create backup: %v", err))
		return
	}

	numKeys, sizeKB := s.store.Stats()
	Respond(w, r).JSON(map[string]interface{}{
		"message":     "Backup created successfully",
		"backup_path": backupPath,
		"keys":        numKeys,
		"size_kb":     sizeKB,
	})
}

func (s *Server) listBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := s.store.ListBackups()
	if err != nil {
		log.Errorf("%s Failed to list backups: %v", logcolors.LogStoreBackup, err)
		Respond(w, r).Error(http.StatusInternalServerError, fmt.Sprintf("Failed to list backups: %v", err))
		return
	}

	Respond(w, r).JSON(map[string]interface{}{
		"count":   len(backups),
		"backups": backups,
	})
}

func (s *Server) restoreStore(w http.ResponseWriter, r *http.Request) {
	backupFileName := r.URL.Query().Get("backup")
	if backupFileName == "" {
		Respond(w, r).Error(http.StatusBadRequest, "Missing 'backup' query parameter. Use /store/backups to list available backups.")
		return
	}

	if err := s.store.RestoreFromBackup(backupFileName); err != nil {
		log.Errorf("%s Failed to restore from backup %s: %v", logcolors.LogStoreRestore, backupFileName, err)
		switch {
		case errors.Is(err, store.ErrInvalidBackup):
			Respond(w, r).Error(http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrBackupNotFound):
			Respond(w, r).Error(http.StatusNotFound, err.Error())
		default:
			Respond(w, r).Error(http.StatusInternalServerError, fmt.Sprintf("Failed to restore from backup: %v", err))
		}
		return
	}

	numKeys, sizeKB := s.store.Stats()
	Respond(w, r).JSON(map[string]interface{}{
		"message":       "Store restored successfully",
		"restored_from": backupFileName,
		"keys_restored": numKeys,
		"size_kb":       sizeKB,
	})
}

func (s *Server) helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"sync": map[string]string{
			"POST /sync/words":                 "Word-level sync: {tokens, currentTime, offsetMs}",
			"POST /sync/lines":                 "Line-level sync: {cues, currentTime, offsetMs, showMarkers}",
			"POST /sync/seek":                  "Playback time for a token: {tokens, index, offsetMs}",
			"PUT /sync/tracks/{client}/{song}": "Load words or cues once for repeated ticks",
			"GET /sync/tracks/{client}/{song}": "Tick a loaded track with ?t=seconds using the stored offset",
			"POST /sections":                   "Split lyrics into sections and find the current one",
		},
		"clients": map[string]string{
			"/clients/{client}/offsets/{song}": "GET, PUT {offsetMs}, DELETE; POST .../increment or .../decrement",
			"/clients/{client}/offsets":        "GET all, DELETE all",
			"/clients/{client}/preferences":    "GET, PUT {syncMode, showMarkers}",
		},
		"sessions": map[string]string{
			"POST /sessions":                            "Start a session: {original, lyrics?}",
			"/sessions/{id}":                            "GET, DELETE",
			"PUT /sessions/{id}/original":               "Replace the source content (clears history when changed)",
			"PUT /sessions/{id}/edit-buffer":            "Replace the editor text",
			"POST /sessions/{id}/regeneration/{action}": "start, complete {lyrics}, fail {message}",
			"POST /sessions/{id}/versions":              "Add a version {lyrics}",
			"/sessions/{id}/versions/{version}":         "PUT {lyrics} to edit, DELETE; POST .../activate",
		},
		"export": "POST /export/vtt {cues, style, includeMarkers}",
		"ops":    "GET /health, GET /stats, GET /circuit-breaker; /store/* requires X-API-Key",
	})
}

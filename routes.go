package main

import (
	"net/http"

	"lyricsync-api-go/middleware"

	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func (s *Server) setupRoutes(router *mux.Router) {
	// Stateless sync core
	router.HandleFunc("/sync/words", s.syncWords).Methods(http.MethodPost)
	router.HandleFunc("/sync/lines", s.syncLines).Methods(http.MethodPost)
	router.HandleFunc("/sync/seek", s.seek).Methods(http.MethodPost)
	router.HandleFunc("/sections", s.getSections).Methods(http.MethodPost)

	// Loaded tracks: upload tokens once, then tick with ?t=
	router.HandleFunc("/sync/tracks/{client}/{song}", s.loadTrack).Methods(http.MethodPut)
	router.HandleFunc("/sync/tracks/{client}/{song}", s.tickTrack).Methods(http.MethodGet)
	router.HandleFunc("/sync/tracks/{client}/{song}", s.unloadTrack).Methods(http.MethodDelete)

	// Per-client offsets and preferences
	router.HandleFunc("/clients/{client}/offsets", s.listOffsets).Methods(http.MethodGet)
	router.HandleFunc("/clients/{client}/offsets", s.clearOffsets).Methods(http.MethodDelete)
	router.HandleFunc("/clients/{client}/offsets/{song}", s.getOffset).Methods(http.MethodGet)
	router.HandleFunc("/clients/{client}/offsets/{song}", s.setOffset).Methods(http.MethodPut)
	router.HandleFunc("/clients/{client}/offsets/{song}", s.resetOffset).Methods(http.MethodDelete)
	router.HandleFunc("/clients/{client}/offsets/{song}/increment", s.incrementOffset).Methods(http.MethodPost)
	router.HandleFunc("/clients/{client}/offsets/{song}/decrement", s.decrementOffset).Methods(http.MethodPost)
	router.HandleFunc("/clients/{client}/preferences", s.getPreferences).Methods(http.MethodGet)
	router.HandleFunc("/clients/{client}/preferences", s.updatePreferences).Methods(http.MethodPut)

	// Editing sessions and version history
	router.HandleFunc("/sessions", s.createSession).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}", s.getSession).Methods(http.MethodGet)
	router.HandleFunc("/sessions/{id}", s.deleteSession).Methods(http.MethodDelete)
	router.HandleFunc("/sessions/{id}/original", s.setOriginal).Methods(http.MethodPut)
	router.HandleFunc("/sessions/{id}/edit-buffer", s.setEditBuffer).Methods(http.MethodPut)
	router.HandleFunc("/sessions/{id}/regeneration/start", s.startRegeneration).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/regeneration/complete", s.completeRegeneration).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/regeneration/fail", s.failRegeneration).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/versions", s.addVersion).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{id}/versions/{version}", s.editVersion).Methods(http.MethodPut)
	router.HandleFunc("/sessions/{id}/versions/{version}", s.deleteVersion).Methods(http.MethodDelete)
	router.HandleFunc("/sessions/{id}/versions/{version}/activate", s.activateVersion).Methods(http.MethodPost)

	router.HandleFunc("/export/vtt", s.exportVTT).Methods(http.MethodPost)

	// Health and stats endpoints
	router.HandleFunc("/health", s.getHealthStatus).Methods(http.MethodGet)
	router.HandleFunc("/stats", s.getStats).Methods(http.MethodGet)

	// Circuit breaker endpoints
	router.HandleFunc("/circuit-breaker", s.getCircuitBreakerStatus).Methods(http.MethodGet)
	requireKey := middleware.RequireAPIKey(s.conf.Configuration.APIKey, s.conf.FeatureFlags.APIKeyRequired)
	router.Handle("/circuit-breaker/reset", requireKey(http.HandlerFunc(s.resetCircuitBreaker))).Methods(http.MethodPost)

	// Store administration
	admin := router.PathPrefix("/store").Subrouter()
	admin.Use(requireKey)
	admin.HandleFunc("/backup", s.backupStore).Methods(http.MethodPost)
	admin.HandleFunc("/backups", s.listBackups).Methods(http.MethodGet)
	admin.HandleFunc("/restore", s.restoreStore).Methods(http.MethodPost)

	router.HandleFunc("/", s.helpHandler).Methods(http.MethodGet)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lyricsync-api-go/config"
	"lyricsync-api-go/logcolors"
	"lyricsync-api-go/middleware"
	"lyricsync-api-go/session"
	"lyricsync-api-go/stats"
	"lyricsync-api-go/store"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel) // DebugLevel also logs every playback tick

	err := godotenv.Load()
	if err != nil {
		log.Warn("Error loading .env file, using environment variables")
	}
}

// Server holds everything the handlers need
type Server struct {
	conf         config.Config
	store        *store.PersistentStore
	sessionStore *session.RedisStore
	sessions     *session.Manager
	stats        *stats.Stats
	tracks       *trackRegistry
}

func newServer(conf config.Config, st *store.PersistentStore, sessionStore *session.RedisStore, s *stats.Stats) *Server {
	return &Server{
		conf:         conf,
		store:        st,
		sessionStore: sessionStore,
		sessions:     session.NewManager(sessionStore),
		stats:        s,
		tracks:       newTrackRegistry(defaultMaxTracks),
	}
}

// Handler builds the router wrapped in the middleware chain
func (s *Server) Handler(limiter *middleware.IPRateLimiter) http.Handler {
	router := mux.NewRouter()
	s.setupRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins: s.conf.Origins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.APIKeyHeader},
		ExposedHeaders: []string{"Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Tier", "Retry-After"},
	})

	loggedRouter := middleware.LoggingMiddleware(router)
	corsHandler := c.Handler(loggedRouter)
	return middleware.RateLimitMiddleware(limiter, "/health")(corsHandler)
}

func main() {
	conf := config.Get()

	st, err := openStore(conf)
	if err != nil {
		log.Fatalf("%s Failed to open store: %v", logcolors.LogStoreInit, err)
	}
	defer st.Close()

	statsStore := openStatsStore(conf, stats.Get())
	if statsStore != nil {
		defer statsStore.Close()
	}

	sessionStore, err := openSessionStore(conf, stats.Get())
	if err != nil {
		log.Fatalf("%s Failed to connect session store: %v", logcolors.LogSession, err)
	}
	defer sessionStore.Close()

	srv := newServer(conf, st, sessionStore, stats.Get())
	limiter := middleware.NewIPRateLimiter(
		rate.Limit(conf.Configuration.RateLimitPerSecond), conf.Configuration.RateLimitBurstLimit,
		rate.Limit(conf.Configuration.SyncRateLimitPerSecond), conf.Configuration.SyncRateLimitBurstLimit,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.runJanitor(ctx, limiter, janitorInterval)

	httpServer := &http.Server{
		Addr:              ":" + conf.Configuration.Port,
		Handler:           srv.Handler(limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Infof("%s Shutting down", logcolors.LogServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Errorf("%s Graceful shutdown failed: %v", logcolors.LogServer, err)
		}
	}()

	log.Infof("%s Listening on port %s", logcolors.LogServer, conf.Configuration.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("%s Server error: %v", logcolors.LogServer, err)
	}
}

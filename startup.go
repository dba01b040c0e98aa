package main

import (
	"context"
	"time"

	"lyricsync-api-go/circuitbreaker"
	"lyricsync-api-go/config"
	"lyricsync-api-go/logcolors"
	"lyricsync-api-go/middleware"
	"lyricsync-api-go/session"
	"lyricsync-api-go/stats"
	"lyricsync-api-go/store"

	log "github.com/sirupsen/logrus"
)

const (
	janitorInterval   = 5 * time.Minute
	limiterIdleTTL    = 10 * time.Minute
	trackIdleTTL      = time.Hour
	statsSaveInterval = 5 * time.Minute
)

func openStore(conf config.Config) (*store.PersistentStore, error) {
	return store.NewPersistentStore(
		conf.Configuration.StoreDBPath,
		conf.Configuration.StoreBackupPath,
		conf.FeatureFlags.StoreCompression,
	)
}

// openStatsStore loads persisted counters and starts auto-save.
// Stats are best effort: a nil store means they live in memory only.
func openStatsStore(conf config.Config, s *stats.Stats) *stats.Store {
	statsStore, err := stats.NewStore(conf.Configuration.StatsDBPath, s)
	if err != nil {
		log.Warnf("%s Stats persistence disabled: %v", logcolors.LogStats, err)
		return nil
	}
	if err := statsStore.Load(); err != nil {
		log.Warnf("%s Failed to load persisted stats: %v", logcolors.LogStats, err)
	}
	statsStore.StartAutoSave(statsSaveInterval)
	return statsStore
}

// newSessionBreaker builds the breaker guarding Redis and counts every trip in stats
func newSessionBreaker(conf config.Config, s *stats.Stats) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.New(circuitbreaker.Config{
		Name:      "Redis",
		Threshold: conf.Configuration.CircuitBreakerThreshold,
		Cooldown:  time.Duration(conf.Configuration.CircuitBreakerCooldownSecs) * time.Second,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			if to == circuitbreaker.StateOpen {
				s.CircuitBreakerOpens.Add(1)
			}
		},
	})
}

func openSessionStore(conf config.Config, s *stats.Stats) (*session.RedisStore, error) {
	ttl := time.Duration(conf.Configuration.SessionTTLInHours) * time.Hour
	return session.NewRedisStore(conf.Configuration.RedisURL, ttl, newSessionBreaker(conf, s))
}

// runJanitor drops idle rate limiters and loaded tracks until ctx is done
func (s *Server) runJanitor(ctx context.Context, limiter *middleware.IPRateLimiter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiters := limiter.Cleanup(limiterIdleTTL)
			tracks := s.tracks.Cleanup(trackIdleTTL)
			if limiters > 0 || tracks > 0 {
				log.Debugf("%s Janitor removed %d idle limiter(s) and %d idle track(s)", logcolors.LogServer, limiters, tracks)
			}
		}
	}
}

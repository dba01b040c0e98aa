package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port string `envconfig:"PORT" default:"8080"`
		// Client-local state (offsets, preferences)
		StoreDBPath     string `envconfig:"STORE_DB_PATH" default:"./data/store.db"`
		StoreBackupPath string `envconfig:"STORE_BACKUP_PATH" default:"./data/backups"`
		StatsDBPath     string `envconfig:"STATS_DB_PATH" default:"./data/stats.db"`
		// Editing sessions
		RedisURL          string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
		SessionTTLInHours int    `envconfig:"SESSION_TTL_IN_HOURS" default:"72"`

		RateLimitPerSecond      int `envconfig:"RATE_LIMIT_PER_SECOND" default:"20"`
		RateLimitBurstLimit     int `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"40"`
		SyncRateLimitPerSecond  int `envconfig:"SYNC_RATE_LIMIT_PER_SECOND" default:"60"`  // playback ticks hit /sync many times a second
		SyncRateLimitBurstLimit int `envconfig:"SYNC_RATE_LIMIT_BURST_LIMIT" default:"120"`

		APIKey         string `envconfig:"API_KEY" default:""`
		AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"*"` // comma separated

		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"30"`
	}

	FeatureFlags struct {
		StoreCompression bool `envconfig:"FF_STORE_COMPRESSION" default:"false"`
		APIKeyRequired   bool `envconfig:"FF_API_KEY_REQUIRED" default:"true"`
	}
}

// Origins splits ALLOWED_ORIGINS into a list
func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.Configuration.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}

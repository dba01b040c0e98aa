package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"lyricsync-api-go/logcolors"
	"lyricsync-api-go/stats"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Tier names, also used as stats labels
const (
	TierGeneral = "general"
	TierSync    = "sync"
)

// LimiterPair holds both tiers for one client IP.
// Playback ticks hit /sync/* several times a second, so they get their own budget.
type LimiterPair struct {
	General  *rate.Limiter
	Sync     *rate.Limiter
	lastSeen time.Time
}

// GetGeneralTokens returns the number of tokens available in the general tier
func (lp *LimiterPair) GetGeneralTokens() int {
	return int(math.Floor(lp.General.Tokens()))
}

// GetSyncTokens returns the number of tokens available in the sync tier
func (lp *LimiterPair) GetSyncTokens() int {
	return int(math.Floor(lp.Sync.Tokens()))
}

// IPRateLimiter manages two-tier rate limiting per IP
type IPRateLimiter struct {
	ips          map[string]*LimiterPair
	mu           *sync.RWMutex
	generalRate  rate.Limit
	generalBurst int
	syncRate     rate.Limit
	syncBurst    int
}

// NewIPRateLimiter creates a new two-tier rate limiter
func NewIPRateLimiter(generalRate rate.Limit, generalBurst int, syncRate rate.Limit, syncBurst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:          make(map[string]*LimiterPair),
		mu:           &sync.RWMutex{},
		generalRate:  generalRate,
		generalBurst: generalBurst,
		syncRate:     syncRate,
		syncBurst:    syncBurst,
	}
}

// GetGeneralLimit returns the general tier burst limit
func (i *IPRateLimiter) GetGeneralLimit() int {
	return i.generalBurst
}

// GetSyncLimit returns the sync tier burst limit
func (i *IPRateLimiter) GetSyncLimit() int {
	return i.syncBurst
}

// GetLimiter returns the limiters for ip, creating them on first use
func (i *IPRateLimiter) GetLimiter(ip string) *LimiterPair {
	i.mu.Lock()
	defer i.mu.Unlock()

	pair, exists := i.ips[ip]
	if !exists {
		pair = &LimiterPair{
			General: rate.NewLimiter(i.generalRate, i.generalBurst),
			Sync:    rate.NewLimiter(i.syncRate, i.syncBurst),
		}
		i.ips[ip] = pair
	}
	pair.lastSeen = time.Now()
	return pair
}

// Len returns the number of tracked IPs
func (i *IPRateLimiter) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.ips)
}

// Cleanup forgets IPs not seen for longer than idle and returns how many were removed
func (i *IPRateLimiter) Cleanup(idle time.Duration) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	removed := 0
	for ip, pair := range i.ips {
		if pair.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
			removed++
		}
	}
	return removed
}

// TierFor picks the limiter tier for a request path
func TierFor(path string) string {
	if strings.HasPrefix(path, "/sync/") {
		return TierSync
	}
	return TierGeneral
}

// ClientIP returns the host part of the request's remote address
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware rejects requests over the caller's tier budget with 429.
// Paths in exempt (exact match) are never limited.
func RateLimitMiddleware(limiter *IPRateLimiter, exempt ...string) func(http.Handler) http.Handler {
	exemptPaths := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		exemptPaths[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			pair := limiter.GetLimiter(ip)
			tier := TierFor(r.URL.Path)

			l, limit := pair.General, limiter.generalBurst
			if tier == TierSync {
				l, limit = pair.Sync, limiter.syncBurst
			}

			allowed := l.Allow()
			remaining := int(math.Max(0, math.Floor(l.Tokens())))

			w.Header().Set("X-RateLimit-Tier", tier)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				stats.Get().RecordRateLimit("exceeded")
				log.Warnf("%s %s exceeded the %s tier on %s", logcolors.LogRateLimit, ip, tier, r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"Too many requests","message":"Rate limit exceeded, slow down"}`))
				return
			}

			stats.Get().RecordRateLimit(tier)
			next.ServeHTTP(w, r)
		})
	}
}

package stats

import (
	"strings"
	"sync/atomic"
	"time"
)

// Stats holds all server statistics with atomic counters
type Stats struct {
	StartTime time.Time

	// Request counters, grouped by route family
	TotalRequests      atomic.Int64
	SyncRequests       atomic.Int64
	SectionRequests    atomic.Int64
	OffsetRequests     atomic.Int64
	PreferenceRequests atomic.Int64
	SessionRequests    atomic.Int64
	ExportRequests     atomic.Int64
	StoreAdminRequests atomic.Int64
	StatsRequests      atomic.Int64
	HealthRequests     atomic.Int64
	OtherRequests      atomic.Int64

	// Sync core
	SyncComputations atomic.Int64
	SyncMemoHits     atomic.Int64

	// Version history
	VersionsCreated      atomic.Int64
	VersionsDeleted      atomic.Int64
	RegenerationsStarted atomic.Int64
	RegenerationsFailed  atomic.Int64
	SessionStoreErrors   atomic.Int64
	CircuitBreakerOpens  atomic.Int64

	VTTExports atomic.Int64

	// Rate limiting
	RateLimitGeneral  atomic.Int64
	RateLimitSync     atomic.Int64
	RateLimitExceeded atomic.Int64

	// Response status codes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response times in microseconds
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64
	syncResponseTime  atomic.Int64
	syncResponseCount atomic.Int64
}

const noMinimum = int64(^uint64(0) >> 1)

var global = New()

// New returns a zeroed stats instance
func New() *Stats {
	s := &Stats{StartTime: time.Now()}
	s.minResponseTime.Store(noMinimum)
	return s
}

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// Route families by path prefix, first match wins
var routeFamilies = []struct {
	prefix string
	pick   func(s *Stats) *atomic.Int64
}{
	{"/sync/", func(s *Stats) *atomic.Int64 { return &s.SyncRequests }},
	{"/sections", func(s *Stats) *atomic.Int64 { return &s.SectionRequests }},
	{"/sessions", func(s *Stats) *atomic.Int64 { return &s.SessionRequests }},
	{"/export/", func(s *Stats) *atomic.Int64 { return &s.ExportRequests }},
	{"/store/", func(s *Stats) *atomic.Int64 { return &s.StoreAdminRequests }},
	{"/stats", func(s *Stats) *atomic.Int64 { return &s.StatsRequests }},
	{"/health", func(s *Stats) *atomic.Int64 { return &s.HealthRequests }},
}

// RecordRequest counts a request against its route family
func (s *Stats) RecordRequest(path string) {
	s.TotalRequests.Add(1)

	if strings.HasPrefix(path, "/clients/") {
		if strings.Contains(path, "/preferences") {
			s.PreferenceRequests.Add(1)
		} else {
			s.OffsetRequests.Add(1)
		}
		return
	}
	for _, f := range routeFamilies {
		if strings.HasPrefix(path, f.prefix) {
			f.pick(s).Add(1)
			return
		}
	}
	s.OtherRequests.Add(1)
}

// RecordSync records one sync computation and whether it was served from the memo
func (s *Stats) RecordSync(memoHit bool) {
	s.SyncComputations.Add(1)
	if memoHit {
		s.SyncMemoHits.Add(1)
	}
}

// RecordRateLimit records rate limit tier usage
func (s *Stats) RecordRateLimit(tier string) {
	switch tier {
	case "general":
		s.RateLimitGeneral.Add(1)
	case "sync":
		s.RateLimitSync.Add(1)
	case "exceeded":
		s.RateLimitExceeded.Add(1)
	}
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time
func (s *Stats) RecordResponseTime(duration time.Duration, path string) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}

	if strings.HasPrefix(path, "/sync/") {
		s.syncResponseTime.Add(us)
		s.syncResponseCount.Add(1)
	}
}

// Uptime returns the server uptime
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// MemoHitRate returns the share of sync computations answered from the memo, in percent
func (s *Stats) MemoHitRate() float64 {
	total := s.SyncComputations.Load()
	if total == 0 {
		return 0
	}
	return float64(s.SyncMemoHits.Load()) / float64(total) * 100
}

func average(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total/count) * time.Microsecond
}

// AvgResponseTime returns the average response time
func (s *Stats) AvgResponseTime() time.Duration {
	return average(s.totalResponseTime.Load(), s.responseCount.Load())
}

// AvgSyncResponseTime returns the average response time of /sync requests
func (s *Stats) AvgSyncResponseTime() time.Duration {
	return average(s.syncResponseTime.Load(), s.syncResponseCount.Load())
}

// MinResponseTime returns the minimum response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == noMinimum {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the maximum response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// counters names every cumulative counter; the persisted form is built from it
func (s *Stats) counters() map[string]*atomic.Int64 {
	return map[string]*atomic.Int64{
		"total_requests":        &s.TotalRequests,
		"sync_requests":         &s.SyncRequests,
		"section_requests":      &s.SectionRequests,
		"offset_requests":       &s.OffsetRequests,
		"preference_requests":   &s.PreferenceRequests,
		"session_requests":      &s.SessionRequests,
		"export_requests":       &s.ExportRequests,
		"store_admin_requests":  &s.StoreAdminRequests,
		"stats_requests":        &s.StatsRequests,
		"health_requests":       &s.HealthRequests,
		"other_requests":        &s.OtherRequests,
		"sync_computations":     &s.SyncComputations,
		"sync_memo_hits":        &s.SyncMemoHits,
		"versions_created":      &s.VersionsCreated,
		"versions_deleted":      &s.VersionsDeleted,
		"regenerations_started": &s.RegenerationsStarted,
		"regenerations_failed":  &s.RegenerationsFailed,
		"session_store_errors":  &s.SessionStoreErrors,
		"circuit_breaker_opens": &s.CircuitBreakerOpens,
		"vtt_exports":           &s.VTTExports,
		"rate_limit_general":    &s.RateLimitGeneral,
		"rate_limit_sync":       &s.RateLimitSync,
		"rate_limit_exceeded":   &s.RateLimitExceeded,
		"status_2xx":            &s.Status2xx,
		"status_4xx":            &s.Status4xx,
		"status_5xx":            &s.Status5xx,
		"total_response_time":   &s.totalResponseTime,
		"response_count":        &s.responseCount,
		"sync_response_time":    &s.syncResponseTime,
		"sync_response_count":   &s.syncResponseCount,
	}
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":       s.TotalRequests.Load(),
			"sync":        s.SyncRequests.Load(),
			"sections":    s.SectionRequests.Load(),
			"offsets":     s.OffsetRequests.Load(),
			"preferences": s.PreferenceRequests.Load(),
			"sessions":    s.SessionRequests.Load(),
			"export":      s.ExportRequests.Load(),
			"store_admin": s.StoreAdminRequests.Load(),
			"stats":       s.StatsRequests.Load(),
			"health":      s.HealthRequests.Load(),
			"other":       s.OtherRequests.Load(),
		},
		"sync": map[string]interface{}{
			"computations":  s.SyncComputations.Load(),
			"memo_hits":     s.SyncMemoHits.Load(),
			"memo_hit_rate": s.MemoHitRate(),
		},
		"versions": map[string]interface{}{
			"created":               s.VersionsCreated.Load(),
			"deleted":               s.VersionsDeleted.Load(),
			"regenerations_started": s.RegenerationsStarted.Load(),
			"regenerations_failed":  s.RegenerationsFailed.Load(),
			"session_store_errors":  s.SessionStoreErrors.Load(),
			"circuit_breaker_opens": s.CircuitBreakerOpens.Load(),
		},
		"vtt_exports": s.VTTExports.Load(),
		"rate_limiting": map[string]interface{}{
			"general_tier": s.RateLimitGeneral.Load(),
			"sync_tier":    s.RateLimitSync.Load(),
			"exceeded":     s.RateLimitExceeded.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg":      s.AvgResponseTime().String(),
			"min":      s.MinResponseTime().String(),
			"max":      s.MaxResponseTime().String(),
			"avg_sync": s.AvgSyncResponseTime().String(),
		},
	}
}

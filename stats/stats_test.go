package stats

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordRequest(t *testing.T) {
	tests := []struct {
		path    string
		counter func(s *Stats) int64
	}{
		{"/sync/words", func(s *Stats) int64 { return s.SyncRequests.Load() }},
		{"/sections", func(s *Stats) int64 { return s.SectionRequests.Load() }},
		{"/clients/c1/offsets/song-1", func(s *Stats) int64 { return s.OffsetRequests.Load() }},
		{"/clients/c1/preferences", func(s *Stats) int64 { return s.PreferenceRequests.Load() }},
		{"/sessions/abc/versions", func(s *Stats) int64 { return s.SessionRequests.Load() }},
		{"/export/vtt", func(s *Stats) int64 { return s.ExportRequests.Load() }},
		{"/store/backups", func(s *Stats) int64 { return s.StoreAdminRequests.Load() }},
		{"/stats", func(s *Stats) int64 { return s.StatsRequests.Load() }},
		{"/health", func(s *Stats) int64 { return s.HealthRequests.Load() }},
		{"/favicon.ico", func(s *Stats) int64 { return s.OtherRequests.Load() }},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			s := New()
			s.RecordRequest(tt.path)
			if got := tt.counter(s); got != 1 {
				t.Errorf("Expected counter 1, got %d", got)
			}
			if s.TotalRequests.Load() != 1 {
				t.Errorf("Expected total 1, got %d", s.TotalRequests.Load())
			}
		})
	}
}

func TestRecordStatusCode(t *testing.T) {
	s := New()
	for _, code := range []int{200, 204, 301, 404, 422, 500, 503} {
		s.RecordStatusCode(code)
	}

	if s.Status2xx.Load() != 2 || s.Status4xx.Load() != 2 || s.Status5xx.Load() != 2 {
		t.Errorf("Unexpected status counts: 2xx=%d 4xx=%d 5xx=%d",
			s.Status2xx.Load(), s.Status4xx.Load(), s.Status5xx.Load())
	}
}

func TestResponseTimes(t *testing.T) {
	s := New()

	if s.MinResponseTime() != 0 || s.AvgResponseTime() != 0 {
		t.Error("Expected zero response times before any request")
	}

	s.RecordResponseTime(2*time.Millisecond, "/sync/words")
	s.RecordResponseTime(4*time.Millisecond, "/sessions")

	if s.MinResponseTime() != 2*time.Millisecond {
		t.Errorf("Expected min 2ms, got %v", s.MinResponseTime())
	}
	if s.MaxResponseTime() != 4*time.Millisecond {
		t.Errorf("Expected max 4ms, got %v", s.MaxResponseTime())
	}
	if s.AvgResponseTime() != 3*time.Millisecond {
		t.Errorf("Expected avg 3ms, got %v", s.AvgResponseTime())
	}
	if s.AvgSyncResponseTime() != 2*time.Millisecond {
		t.Errorf("Expected sync avg 2ms, got %v", s.AvgSyncResponseTime())
	}
}

func TestMemoHitRate(t *testing.T) {
	s := New()
	if s.MemoHitRate() != 0 {
		t.Error("Expected 0 hit rate with no computations")
	}

	s.RecordSync(true)
	s.RecordSync(false)
	s.RecordSync(true)
	s.RecordSync(true)

	if s.MemoHitRate() != 75 {
		t.Errorf("Expected 75%% hit rate, got %v", s.MemoHitRate())
	}
}

func TestRecordRateLimit(t *testing.T) {
	s := New()
	s.RecordRateLimit("general")
	s.RecordRateLimit("sync")
	s.RecordRateLimit("sync")
	s.RecordRateLimit("exceeded")
	s.RecordRateLimit("bogus")

	if s.RateLimitGeneral.Load() != 1 || s.RateLimitSync.Load() != 2 || s.RateLimitExceeded.Load() != 1 {
		t.Errorf("Unexpected rate limit counts: %v", s.Snapshot()["rate_limiting"])
	}
}

func TestSnapshotSections(t *testing.T) {
	snap := New().Snapshot()
	for _, key := range []string{"server", "requests", "sync", "versions", "rate_limiting", "responses", "response_times"} {
		if _, ok := snap[key]; !ok {
			t.Errorf("Expected snapshot section %q", key)
		}
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stats.db")

	original := New()
	original.RecordRequest("/sync/lines")
	original.RecordRequest("/sync/lines")
	original.VersionsCreated.Add(3)
	original.RecordResponseTime(5*time.Millisecond, "/sync/lines")
	original.StartTime = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	store, err := NewStore(dbPath, original)
	if err != nil {
		t.Fatalf("Failed to create stats store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close stats store: %v", err)
	}

	restored := New()
	store, err = NewStore(dbPath, restored)
	if err != nil {
		t.Fatalf("Failed to reopen stats store: %v", err)
	}
	defer store.Close()

	if err := store.Load(); err != nil {
		t.Fatalf("Failed to load stats: %v", err)
	}

	if restored.SyncRequests.Load() != 2 || restored.TotalRequests.Load() != 2 {
		t.Errorf("Expected request counters to survive, got sync=%d total=%d",
			restored.SyncRequests.Load(), restored.TotalRequests.Load())
	}
	if restored.VersionsCreated.Load() != 3 {
		t.Errorf("Expected versions created 3, got %d", restored.VersionsCreated.Load())
	}
	if restored.MinResponseTime() != 5*time.Millisecond {
		t.Errorf("Expected min response time to survive, got %v", restored.MinResponseTime())
	}
	if !restored.StartTime.Equal(original.StartTime) {
		t.Errorf("Expected first start time %v, got %v", original.StartTime, restored.StartTime)
	}
}

func TestStoreLoadEmpty(t *testing.T) {
	s := New()
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "stats.db"), s)
	if err != nil {
		t.Fatalf("Failed to create stats store: %v", err)
	}
	defer store.Close()

	if err := store.Load(); err != nil {
		t.Errorf("Expected loading an empty store to succeed, got %v", err)
	}
	if s.TotalRequests.Load() != 0 {
		t.Error("Expected counters to stay zero")
	}
}

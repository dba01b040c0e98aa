package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lyricsync-api-go/logcolors"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	statsBucketName = "stats"
	statsKey        = "server_stats"
)

// Store persists a Stats instance to its own BoltDB file so counters survive restarts
type Store struct {
	db       *bolt.DB
	dbPath   string
	stats    *Stats
	mu       sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// PersistedStats is the on-disk form of the counters
type PersistedStats struct {
	Counters        map[string]int64 `json:"counters"`
	MinResponseTime int64            `json:"min_response_time"`
	MaxResponseTime int64            `json:"max_response_time"`
	LastSaved       time.Time        `json:"last_saved"`
	FirstStarted    time.Time        `json:"first_started"`
}

// NewStore opens the stats database for s
func NewStore(dbPath string, s *Stats) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create stats directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open stats database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(statsBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create stats bucket: %w", err)
	}

	log.Infof("%s Stats store initialized at %s", logcolors.LogStats, dbPath)
	return &Store{
		db:       db,
		dbPath:   dbPath,
		stats:    s,
		stopChan: make(chan struct{}),
	}, nil
}

// Load applies persisted counters to the stats instance
func (st *Store) Load() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	var persisted PersistedStats
	err := st.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(statsBucketName))
		if b == nil {
			return nil
		}
		data := b.Get([]byte(statsKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &persisted)
	})
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	for name, counter := range st.stats.counters() {
		if v, ok := persisted.Counters[name]; ok {
			counter.Store(v)
		}
	}
	if persisted.MinResponseTime > 0 && persisted.MinResponseTime < noMinimum {
		st.stats.minResponseTime.Store(persisted.MinResponseTime)
	}
	if persisted.MaxResponseTime > 0 {
		st.stats.maxResponseTime.Store(persisted.MaxResponseTime)
	}
	if !persisted.FirstStarted.IsZero() {
		st.stats.StartTime = persisted.FirstStarted
	}

	log.Infof("%s Loaded persisted stats (total requests: %d)", logcolors.LogStats, persisted.Counters["total_requests"])
	return nil
}

// Save persists the current counters
func (st *Store) Save() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	persisted := PersistedStats{
		Counters:        make(map[string]int64),
		MinResponseTime: st.stats.minResponseTime.Load(),
		MaxResponseTime: st.stats.maxResponseTime.Load(),
		LastSaved:       time.Now(),
		FirstStarted:    st.stats.StartTime,
	}
	for name, counter := range st.stats.counters() {
		persisted.Counters[name] = counter.Load()
	}

	data, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	err = st.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(statsBucketName))
		if b == nil {
			return fmt.Errorf("stats bucket not found")
		}
		return b.Put([]byte(statsKey), data)
	})
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

// StartAutoSave begins periodic saving of stats
func (st *Store) StartAutoSave(interval time.Duration) {
	st.wg.Add(1)
	go func() {
		defer st.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := st.Save(); err != nil {
					log.Warnf("%s Failed to auto-save stats: %v", logcolors.LogStats, err)
				}
			case <-st.stopChan:
				return
			}
		}
	}()
	log.Infof("%s Started auto-save with interval %v", logcolors.LogStats, interval)
}

// Close saves stats and closes the database
func (st *Store) Close() error {
	st.stopOnce.Do(func() { close(st.stopChan) })
	st.wg.Wait()

	if err := st.Save(); err != nil {
		log.Warnf("%s Failed to save stats on close: %v", logcolors.LogStats, err)
	} else {
		log.Infof("%s Stats saved on shutdown", logcolors.LogStats)
	}

	return st.db.Close()
}

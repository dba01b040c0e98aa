package offset

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"lyricsync-api-go/store"
)

// memBackend is an in-memory Backend with switchable failures
type memBackend struct {
	mu        sync.Mutex
	data      map[string]string
	failWrite bool
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string]string)}
}

func (m *memBackend) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memBackend) Set(key, value string) error {
	return m.Update(key, func(string, bool) (string, error) { return value, nil })
}

func (m *memBackend) Update(key string, fn func(string, bool) (string, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return errors.New("quota exceeded")
	}
	old, ok := m.data[key]
	v, err := fn(old, ok)
	if err != nil {
		return err
	}
	m.data[key] = v
	return nil
}

func (m *memBackend) Delete(key string) error {
	if m.failWrite {
		return errors.New("access denied")
	}
	delete(m.data, key)
	return nil
}

func (m *memBackend) Keys(prefix string) []string {
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func TestGetDefault(t *testing.T) {
	s := NewStore(newMemBackend(), "client-1")

	if got := s.Get("song-a"); got != 0 {
		t.Errorf("Expected default 0, got %d", got)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	s := NewStore(newMemBackend(), "client-1")

	for v := Min; v <= Max; v += 250 {
		s.Set("song", v)
		if got := s.Get("song"); got != v {
			t.Errorf("Expected %d after set, got %d", v, got)
		}
	}
}

func TestSetClamps(t *testing.T) {
	s := NewStore(newMemBackend(), "client-1")

	tests := []struct {
		in       int
		expected int
	}{
		{5000, Max},
		{-5000, Min},
		{Max, Max},
		{Min, Min},
		{-1, -1},
	}

	for _, tt := range tests {
		if got := s.Set("song", tt.in); got != tt.expected {
			t.Errorf("Set(%d) returned %d, want %d", tt.in, got, tt.expected)
		}
		if got := s.Get("song"); got != tt.expected {
			t.Errorf("Get after Set(%d) = %d, want %d", tt.in, got, tt.expected)
		}
	}
}

func TestIncrementDecrementReset(t *testing.T) {
	s := NewStore(newMemBackend(), "client-1")

	if got := s.Increment("song"); got != Step {
		t.Errorf("Expected %d after increment, got %d", Step, got)
	}
	s.Decrement("song")
	if got := s.Decrement("song"); got != -Step {
		t.Errorf("Expected %d after two decrements, got %d", -Step, got)
	}

	s.Set("song", Max)
	if got := s.Increment("song"); got != Max {
		t.Errorf("Expected increment to stay at %d, got %d", Max, got)
	}
	s.Set("song", Min)
	if got := s.Decrement("song"); got != Min {
		t.Errorf("Expected decrement to stay at %d, got %d", Min, got)
	}

	if got := s.Reset("song"); got != 0 {
		t.Errorf("Expected 0 after reset, got %d", got)
	}
	if got := s.Get("song"); got != 0 {
		t.Errorf("Expected persisted 0 after reset, got %d", got)
	}
}

func TestIncrementFromCorruptedValue(t *testing.T) {
	backend := newMemBackend()
	s := NewStore(backend, "c")
	backend.data["offset:c:song"] = "banana"

	if got := s.Increment("song"); got != Step {
		t.Errorf("Expected increment from default to give %d, got %d", Step, got)
	}
}

func TestConcurrentSteps(t *testing.T) {
	tests := []struct {
		name    string
		backend func(t *testing.T) Backend
	}{
		{"Memory", func(t *testing.T) Backend { return newMemBackend() }},
		{"BoltDB", func(t *testing.T) Backend {
			dir := t.TempDir()
			ps, err := store.NewPersistentStore(dir+"/store.db", dir+"/backups", true)
			if err != nil {
				t.Fatalf("Failed to create store: %v", err)
			}
			t.Cleanup(func() { ps.Close() })
			return ps
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(tt.backend(t), "player")
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					s.Increment("song")
				}()
			}
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					s.Decrement("song")
				}()
			}
			wg.Wait()

			want := 15 * Step
			if got := s.Get("song"); got != want {
				t.Errorf("Expected %d after 20 increments and 5 decrements, got %d", want, got)
			}
		})
	}
}

func TestCorruptedValues(t *testing.T) {
	backend := newMemBackend()
	s := NewStore(backend, "c")

	tests := []struct {
		name     string
		raw      string
		expected int
	}{
		{"Non-numeric", "banana", 0},
		{"JSON object", `{"offset":200}`, 0},
		{"Float", "12.5", 0},
		{"Empty", "", 0},
		{"Padded integer", " 300 ", 300},
		{"Out of range", "99999", Max},
		{"Out of range negative", "-99999", Min},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend.data["offset:c:song"] = tt.raw
			if got := s.Get("song"); got != tt.expected {
				t.Errorf("Get with stored %q = %d, want %d", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestWriteFailuresAreSwallowed(t *testing.T) {
	backend := newMemBackend()
	s := NewStore(backend, "c")
	s.Set("song", 400)

	backend.failWrite = true

	if got := s.Set("song", 800); got != 800 {
		t.Errorf("Expected Set to report the clamped value, got %d", got)
	}
	if got := s.Get("song"); got != 400 {
		t.Errorf("Expected previous value 400 after failed write, got %d", got)
	}

	// Must not panic
	s.Clear()
	s.Increment("song")
}

func TestPerSongIsolation(t *testing.T) {
	s := NewStore(newMemBackend(), "c")

	s.Set("song-1", 100)
	s.Set("song-10", -700)
	s.Set("song-2", 1500)

	expected := map[string]int{"song-1": 100, "song-10": -700, "song-2": 1500}
	for id, want := range expected {
		if got := s.Get(id); got != want {
			t.Errorf("Get(%s) = %d, want %d", id, got, want)
		}
	}

	all := s.All()
	if len(all) != 3 || all["song-10"] != -700 {
		t.Errorf("Expected All to return every song offset, got %v", all)
	}
}

func TestNamespaceIsolation(t *testing.T) {
	backend := newMemBackend()
	a := NewStore(backend, "alice")
	b := NewStore(backend, "bob")

	a.Set("song", 500)
	b.Set("song", -500)

	if a.Get("song") != 500 || b.Get("song") != -500 {
		t.Errorf("Expected isolated offsets, got alice=%d bob=%d", a.Get("song"), b.Get("song"))
	}

	a.Clear()
	if a.Get("song") != 0 {
		t.Errorf("Expected alice's offset cleared, got %d", a.Get("song"))
	}
	if b.Get("song") != -500 {
		t.Errorf("Expected bob's offset untouched, got %d", b.Get("song"))
	}
}

func TestClear(t *testing.T) {
	backend := newMemBackend()
	backend.data["pref:c:syncMode"] = "line"
	s := NewStore(backend, "c")

	for _, id := range []string{"a", "b", "c"} {
		s.Set(id, 200)
	}
	s.Clear()

	for _, id := range []string{"a", "b", "c", "never-set"} {
		if got := s.Get(id); got != 0 {
			t.Errorf("Get(%s) after Clear = %d, want 0", id, got)
		}
	}
	if _, ok := backend.data["pref:c:syncMode"]; !ok {
		t.Error("Expected Clear to leave non-offset keys alone")
	}
}

func TestNamespaceWithSeparator(t *testing.T) {
	backend := newMemBackend()
	a := NewStore(backend, "a:b")
	b := NewStore(backend, "a")

	a.Set("c", 300)
	if got := b.Get("b:c"); got != 0 {
		t.Errorf("Expected namespaces not to collide, got %d", got)
	}
	if all := b.All(); len(all) != 0 {
		t.Errorf("Expected namespace a to see no offsets, got %v", all)
	}
}

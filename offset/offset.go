// Package offset keeps the per-song lyrics timing correction chosen by a listener.
package offset

import (
	"strconv"
	"strings"

	"lyricsync-api-go/logcolors"
	"lyricsync-api-go/utils"

	log "github.com/sirupsen/logrus"
)

const (
	Min     = -2000 // ms; lyrics shown up to 2s late
	Max     = 2000  // ms; lyrics shown up to 2s early
	Step    = 100   // ms per increment/decrement
	Default = 0

	keyPrefix = "offset:"
)

// Backend is the key/value persistence the store writes through.
// store.PersistentStore implements it.
type Backend interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Update(key string, fn func(old string, ok bool) (string, error)) error
	Delete(key string) error
	Keys(prefix string) []string
}

// Store reads and writes offsets for one namespace (a player/client id).
// Every operation is total: storage failures are logged and never returned.
type Store struct {
	backend   Backend
	namespace string
}

// NewStore creates an offset store scoped to namespace
func NewStore(backend Backend, namespace string) *Store {
	return &Store{backend: backend, namespace: namespace}
}

func (s *Store) prefix() string {
	return keyPrefix + utils.KeySegment(s.namespace) + ":"
}

func (s *Store) key(songID string) string {
	return s.prefix() + songID
}

// Clamp bounds v to [Min, Max]
func Clamp(v int) int {
	if v < Min {
		return Min
	}
	if v > Max {
		return Max
	}
	return v
}

// parseOffset decodes a stored value. ok is false when the value is not an
// integer, in which case the caller uses Default.
func parseOffset(raw string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return Default, false
	}
	return Clamp(v), true
}

// Get returns the offset for songID, or Default when absent or unreadable
func (s *Store) Get(songID string) int {
	raw, ok := s.backend.Get(s.key(songID))
	if !ok {
		return Default
	}
	v, ok := parseOffset(raw)
	if !ok {
		log.Warnf("%s Ignoring corrupted offset %q for song %s", logcolors.LogOffset, raw, songID)
		return Default
	}
	return v
}

// Set clamps v, persists it and returns the value actually stored
func (s *Store) Set(songID string, v int) int {
	v = Clamp(v)
	if err := s.backend.Set(s.key(songID), strconv.Itoa(v)); err != nil {
		log.Warnf("%s Failed to persist offset for song %s: %v", logcolors.LogOffset, songID, err)
	}
	return v
}

// Increment moves the offset one Step later
func (s *Store) Increment(songID string) int {
	return s.adjust(songID, Step)
}

// Decrement moves the offset one Step earlier
func (s *Store) Decrement(songID string) int {
	return s.adjust(songID, -Step)
}

// adjust applies delta atomically against the backend so concurrent steps on
// the same song all land.
func (s *Store) adjust(songID string, delta int) int {
	var next int
	err := s.backend.Update(s.key(songID), func(raw string, ok bool) (string, error) {
		current := Default
		if ok {
			if v, valid := parseOffset(raw); valid {
				current = v
			} else {
				log.Warnf("%s Ignoring corrupted offset %q for song %s", logcolors.LogOffset, raw, songID)
			}
		}
		next = Clamp(current + delta)
		return strconv.Itoa(next), nil
	})
	if err != nil {
		log.Warnf("%s Failed to persist offset for song %s: %v", logcolors.LogOffset, songID, err)
	}
	return next
}

// Reset puts the offset back to zero
func (s *Store) Reset(songID string) int {
	return s.Set(songID, Default)
}

// All returns every persisted offset in the namespace, keyed by song id
func (s *Store) All() map[string]int {
	offsets := make(map[string]int)
	prefix := s.prefix()
	for _, key := range s.backend.Keys(prefix) {
		songID := strings.TrimPrefix(key, prefix)
		offsets[songID] = s.Get(songID)
	}
	return offsets
}

// Clear removes every persisted offset in the namespace
func (s *Store) Clear() {
	for _, key := range s.backend.Keys(s.prefix()) {
		if err := s.backend.Delete(key); err != nil {
			log.Warnf("%s Failed to delete %s: %v", logcolors.LogOffset, key, err)
		}
	}
}

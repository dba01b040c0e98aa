// Package preferences persists the player's display settings per client.
package preferences

import (
	"errors"
	"strconv"

	"lyricsync-api-go/logcolors"
	"lyricsync-api-go/utils"

	log "github.com/sirupsen/logrus"
)

// SyncMode selects word-level or line-level highlighting
type SyncMode string

const (
	SyncModeWord SyncMode = "word"
	SyncModeLine SyncMode = "line"

	DefaultSyncMode    = SyncModeWord
	DefaultShowMarkers = true
)

var ErrInvalidSyncMode = errors.New("sync mode must be \"word\" or \"line\"")

// Backend is the subset of store.PersistentStore used here
type Backend interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Preferences is the full settings view returned to players
type Preferences struct {
	SyncMode    SyncMode `json:"syncMode"`
	ShowMarkers bool     `json:"showMarkers"`
}

// Defaults returns the settings of a first-time player
func Defaults() Preferences {
	return Preferences{SyncMode: DefaultSyncMode, ShowMarkers: DefaultShowMarkers}
}

// ParseSyncMode accepts exactly "word" or "line"
func ParseSyncMode(raw string) (SyncMode, bool) {
	switch SyncMode(raw) {
	case SyncModeWord, SyncModeLine:
		return SyncMode(raw), true
	default:
		return DefaultSyncMode, false
	}
}

// Store reads and writes preferences for one namespace
type Store struct {
	backend   Backend
	namespace string
}

// NewStore creates a preferences store scoped to namespace
func NewStore(backend Backend, namespace string) *Store {
	return &Store{backend: backend, namespace: namespace}
}

func (s *Store) key(name string) string {
	return "pref:" + utils.KeySegment(s.namespace) + ":" + name
}

// SyncMode returns the stored mode; anything other than word/line reads as word
func (s *Store) SyncMode() SyncMode {
	raw, ok := s.backend.Get(s.key("syncMode"))
	if !ok {
		return DefaultSyncMode
	}
	mode, ok := ParseSyncMode(raw)
	if !ok {
		log.Warnf("%s Ignoring invalid sync mode %q", logcolors.LogPreferences, raw)
	}
	return mode
}

// SetSyncMode persists mode. Unknown modes are rejected; write failures are logged.
func (s *Store) SetSyncMode(mode SyncMode) error {
	if _, ok := ParseSyncMode(string(mode)); !ok {
		return ErrInvalidSyncMode
	}
	if err := s.backend.Set(s.key("syncMode"), string(mode)); err != nil {
		log.Warnf("%s Failed to persist sync mode: %v", logcolors.LogPreferences, err)
	}
	return nil
}

// ShowMarkers returns whether section markers are displayed (default true)
func (s *Store) ShowMarkers() bool {
	raw, ok := s.backend.Get(s.key("showMarkers"))
	if !ok {
		return DefaultShowMarkers
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warnf("%s Ignoring invalid marker visibility %q", logcolors.LogPreferences, raw)
		return DefaultShowMarkers
	}
	return v
}

// SetShowMarkers persists the marker visibility
func (s *Store) SetShowMarkers(show bool) {
	if err := s.backend.Set(s.key("showMarkers"), strconv.FormatBool(show)); err != nil {
		log.Warnf("%s Failed to persist marker visibility: %v", logcolors.LogPreferences, err)
	}
}

// Get returns both settings
func (s *Store) Get() Preferences {
	return Preferences{SyncMode: s.SyncMode(), ShowMarkers: s.ShowMarkers()}
}

package lyricsync

import "sync"

// Syncer memoizes the last Sync call. Players poll on every animation frame and
// the audio element often reports the same currentTime several frames in a row.
type Syncer struct {
	mu   sync.Mutex
	last *syncCall
	hits int
}

type syncCall struct {
	tokens      []TimedToken
	currentTime float64
	offsetMs    int
	result      SyncResult
}

// NewSyncer creates an empty Syncer
func NewSyncer() *Syncer {
	return &Syncer{}
}

// Sync returns the same value as the package-level Sync
func (s *Syncer) Sync(tokens []TimedToken, currentTime float64, offsetMs int) SyncResult {
	r, _ := s.SyncMemo(tokens, currentTime, offsetMs)
	return r
}

// SyncMemo is Sync that also reports whether the result came from the memo
func (s *Syncer) SyncMemo(tokens []TimedToken, currentTime float64, offsetMs int) (SyncResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last != nil && s.last.matches(tokens, currentTime, offsetMs) {
		s.hits++
		return s.last.result, true
	}

	result := Sync(tokens, currentTime, offsetMs)
	s.last = &syncCall{
		tokens:      tokens,
		currentTime: currentTime,
		offsetMs:    offsetMs,
		result:      result,
	}
	return result, false
}

// Reset drops the memoized call, e.g. when a different song is loaded
func (s *Syncer) Reset() {
	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()
}

// matches compares the token slice by identity (same backing array and length),
// which is how a player hands over an unchanged, already-loaded token list.
func (c *syncCall) matches(tokens []TimedToken, currentTime float64, offsetMs int) bool {
	if c.currentTime != currentTime || c.offsetMs != offsetMs || len(c.tokens) != len(tokens) {
		return false
	}
	if len(tokens) == 0 {
		return true
	}
	return &c.tokens[0] == &tokens[0]
}

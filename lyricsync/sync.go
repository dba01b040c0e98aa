// Package lyricsync maps a playback position onto timed lyric tokens (words or lines).
package lyricsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// State describes where a token sits relative to the playback position
type State int

const (
	StateUpcoming  State = iota // Not reached yet
	StateCurrent                // Playback position is inside the token
	StateCompleted              // Playback position has passed the token
)

func (s State) String() string {
	switch s {
	case StateUpcoming:
		return "upcoming"
	case StateCurrent:
		return "current"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state by name so players don't depend on enum ordering
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the names produced by MarshalJSON
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "upcoming":
		*s = StateUpcoming
	case "current":
		*s = StateCurrent
	case "completed":
		*s = StateCompleted
	default:
		return fmt.Errorf("unknown sync state %q", name)
	}
	return nil
}

var (
	ErrInvalidToken = errors.New("invalid timed token")
	ErrUnsorted     = errors.New("timed tokens are not sorted by start time")
)

// progressEpsilon keeps the progress division finite for very short tokens
const progressEpsilon = 1e-6

// TimedToken is a word or line with its playback interval in seconds
type TimedToken struct {
	Text     string  `json:"text"`
	StartS   float64 `json:"startS"`
	EndS     float64 `json:"endS"`
	IsMarker bool    `json:"isMarker,omitempty"`
}

// SyncResult is derived on every time update and never stored
type SyncResult struct {
	ActiveIndex int     `json:"activeIndex"`
	State       State   `json:"state"`
	Progress    float64 `json:"progress"`
}

// AdjustedTime applies the millisecond offset to a playback time.
// The result is rounded to microseconds so that offsets like -600ms land
// exactly on token boundaries instead of a float ulp past them.
func AdjustedTime(currentTime float64, offsetMs int) float64 {
	return math.Round(currentTime*1e6+float64(offsetMs)*1e3) / 1e6
}

// Sync finds the active token for the given playback time.
//
// A token is active when the adjusted time lies inside [StartS, EndS], both ends
// inclusive; overlapping tokens resolve to the first match. Outside every token
// the result points at the first token (upcoming), the last token (completed) or,
// inside a gap, the nearer neighbour with ties going to the earlier one.
func Sync(tokens []TimedToken, currentTime float64, offsetMs int) SyncResult {
	if len(tokens) == 0 {
		return SyncResult{ActiveIndex: -1, State: StateUpcoming}
	}

	t := AdjustedTime(currentTime, offsetMs)
	if math.IsNaN(t) {
		return SyncResult{ActiveIndex: 0, State: StateUpcoming}
	}

	for i, tok := range tokens {
		if t >= tok.StartS && t <= tok.EndS {
			return SyncResult{ActiveIndex: i, State: StateCurrent, Progress: progress(tok, t)}
		}
	}

	if t < tokens[0].StartS {
		return SyncResult{ActiveIndex: 0, State: StateUpcoming}
	}

	last := len(tokens) - 1
	if t > tokens[last].EndS {
		return SyncResult{ActiveIndex: last, State: StateCompleted, Progress: 1}
	}

	// Gap: prev is the started token that ended latest (overlaps can make that
	// an earlier one), next is the first token not yet started.
	prev, next := 0, len(tokens)
	for i, tok := range tokens {
		if tok.StartS > t {
			next = i
			break
		}
		if tok.EndS > tokens[prev].EndS {
			prev = i
		}
	}
	if next == len(tokens) {
		return SyncResult{ActiveIndex: last, State: StateCompleted, Progress: 1}
	}

	if t-tokens[prev].EndS <= tokens[next].StartS-t {
		return SyncResult{ActiveIndex: prev, State: StateCompleted, Progress: 1}
	}
	return SyncResult{ActiveIndex: next, State: StateUpcoming}
}

func progress(tok TimedToken, t float64) float64 {
	duration := tok.EndS - tok.StartS
	if duration <= 0 {
		return 0
	}
	p := (t - tok.StartS) / math.Max(duration, progressEpsilon)
	return math.Min(math.Max(p, 0), 1)
}

// StateOf reports the state of the token at index for the snapshot described by r.
// Tokens before the active one are completed and tokens after it are upcoming.
// Out-of-range indices are always upcoming.
func StateOf(r SyncResult, index, count int) State {
	if index < 0 || index >= count || r.ActiveIndex < 0 {
		return StateUpcoming
	}
	switch {
	case index < r.ActiveIndex:
		return StateCompleted
	case index == r.ActiveIndex:
		return r.State
	default:
		return StateUpcoming
	}
}

// States expands StateOf over every index of a token list of the given size
func States(r SyncResult, count int) []State {
	states := make([]State, count)
	for i := range states {
		states[i] = StateOf(r, i, count)
	}
	return states
}

// SeekTime returns the playback time that puts the token at index exactly at
// its start once the offset is applied. Times before zero clamp to zero.
func SeekTime(tokens []TimedToken, index, offsetMs int) (float64, bool) {
	if index < 0 || index >= len(tokens) {
		return 0, false
	}
	t := AdjustedTime(tokens[index].StartS, -offsetMs)
	if t < 0 {
		t = 0
	}
	return t, true
}

// Validate checks the token invariants: EndS >= StartS and ascending StartS
func Validate(tokens []TimedToken) error {
	for i, tok := range tokens {
		if math.IsNaN(tok.StartS) || math.IsNaN(tok.EndS) || tok.EndS < tok.StartS {
			return fmt.Errorf("%w: token %d (%q) spans %v-%v", ErrInvalidToken, i, tok.Text, tok.StartS, tok.EndS)
		}
		if i > 0 && tok.StartS < tokens[i-1].StartS {
			return fmt.Errorf("%w: token %d starts at %v after token %d at %v", ErrUnsorted, i, tok.StartS, i-1, tokens[i-1].StartS)
		}
	}
	return nil
}

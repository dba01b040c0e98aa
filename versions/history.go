// Package versions implements the lyrics version history of one editing session.
//
// A History owns the ordered list of regenerated lyrics, the active-version
// pointer and the edit buffer shown in the editor. Every mutation is written
// through a Persister so the session can be rehydrated from its last Snapshot.
// A History is not safe for concurrent use; callers serialize access per session.
package versions

import (
	"errors"
	"sort"
	"time"

	"lyricsync-api-go/logcolors"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Status is the regeneration state of the session
type Status string

const (
	StatusIdle         Status = "idle"
	StatusRegenerating Status = "regenerating"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

var (
	ErrRegenerationInProgress = errors.New("a regeneration is already in progress")
	ErrNotRegenerating        = errors.New("no regeneration in progress")
)

// Version is one regenerated set of lyrics plus the listener's edits to it
type Version struct {
	ID           string    `json:"id"`
	Lyrics       string    `json:"lyrics"`
	CreatedAt    time.Time `json:"createdAt"`
	IsEdited     bool      `json:"isEdited"`
	EditedLyrics string    `json:"editedLyrics,omitempty"`
}

// Effective returns the edited lyrics when present, else the generated ones
func (v Version) Effective() string {
	if v.IsEdited {
		return v.EditedLyrics
	}
	return v.Lyrics
}

// Persister stores session snapshots; session.RedisStore provides one
type Persister interface {
	Save(s Snapshot) error
}

// PersisterFunc adapts a function to Persister
type PersisterFunc func(s Snapshot) error

func (f PersisterFunc) Save(s Snapshot) error { return f(s) }

// Option configures a History
type Option func(*History)

// WithPersister sets where snapshots are written after every change
func WithPersister(p Persister) Option {
	return func(h *History) { h.persister = p }
}

// WithClock overrides time.Now for version timestamps
func WithClock(now func() time.Time) Option {
	return func(h *History) { h.now = now }
}

// WithIDGenerator overrides uuid-based version ids
func WithIDGenerator(newID func() string) Option {
	return func(h *History) { h.newID = newID }
}

// History is the version log of one editing session
type History struct {
	original   string
	versions   []Version
	activeID   string
	editBuffer string
	status     Status
	lastError  string
	checkpoint *Checkpoint

	persister Persister
	now       func() time.Time
	newID     func() string
}

// New starts an empty session for the given source content
func New(original string, opts ...Option) *History {
	h := &History{
		original: original,
		versions: []Version{},
		status:   StatusIdle,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *History) persist() {
	if h.persister == nil {
		return
	}
	if err := h.persister.Save(h.Snapshot()); err != nil {
		log.Warnf("%s Failed to persist session snapshot: %v", logcolors.LogVersions, err)
	}
}

func (h *History) indexOf(id string) int {
	for i, v := range h.versions {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// AddVersion appends lyrics as the newest version and makes it active.
// CreatedAt is strictly later than every existing version.
func (h *History) AddVersion(lyrics string) Version {
	v := h.addVersion(lyrics)
	h.persist()
	return v
}

func (h *History) addVersion(lyrics string) Version {
	createdAt := h.now().UTC().Round(0)
	if n := len(h.versions); n > 0 {
		if latest := h.versions[n-1].CreatedAt; !createdAt.After(latest) {
			createdAt = latest.Add(time.Millisecond)
		}
	}

	v := Version{
		ID:        h.newID(),
		Lyrics:    lyrics,
		CreatedAt: createdAt,
	}
	h.versions = append(h.versions, v)
	h.activeID = v.ID
	h.editBuffer = lyrics
	return v
}

// UpdateVersionEdits records text as the edited lyrics of version id.
// Editing back to the generated lyrics clears the edit. If id is the active
// version the edit buffer follows. Returns false for unknown ids.
func (h *History) UpdateVersionEdits(id, text string) bool {
	i := h.indexOf(id)
	if i < 0 {
		return false
	}

	v := &h.versions[i]
	if text == v.Lyrics {
		v.IsEdited = false
		v.EditedLyrics = ""
	} else {
		v.IsEdited = true
		v.EditedLyrics = text
	}
	if id == h.activeID {
		h.editBuffer = text
	}

	h.persist()
	return true
}

// SetActiveVersion points the session at version id and loads its effective
// lyrics into the edit buffer. Returns false for unknown ids.
func (h *History) SetActiveVersion(id string) bool {
	i := h.indexOf(id)
	if i < 0 {
		return false
	}

	h.activeID = id
	h.editBuffer = h.versions[i].Effective()
	h.persist()
	return true
}

// DeleteVersion removes version id unless it is the last one left.
// Deleting the active version activates the most recently created survivor.
func (h *History) DeleteVersion(id string) bool {
	if len(h.versions) <= 1 {
		return false
	}
	i := h.indexOf(id)
	if i < 0 {
		return false
	}

	remaining := make([]Version, 0, len(h.versions)-1)
	remaining = append(remaining, h.versions[:i]...)
	remaining = append(remaining, h.versions[i+1:]...)
	h.versions = remaining

	if id == h.activeID {
		latest := h.latest()
		h.activeID = latest.ID
		h.editBuffer = latest.Effective()
	}

	h.persist()
	return true
}

// latest returns the version with the greatest CreatedAt (later insertion wins ties)
func (h *History) latest() Version {
	best := h.versions[0]
	for _, v := range h.versions[1:] {
		if !v.CreatedAt.Before(best.CreatedAt) {
			best = v
		}
	}
	return best
}

// StartRegeneration enters the regenerating state and remembers the current
// versions, active pointer and edit buffer in case the regeneration fails.
func (h *History) StartRegeneration() error {
	if h.status == StatusRegenerating {
		return ErrRegenerationInProgress
	}

	cp := h.capture()
	h.checkpoint = &cp
	h.status = StatusRegenerating
	h.lastError = ""
	h.persist()
	return nil
}

// CompleteRegeneration adds the regenerated lyrics as a new active version
func (h *History) CompleteRegeneration(lyrics string) (Version, error) {
	if h.status != StatusRegenerating {
		return Version{}, ErrNotRegenerating
	}

	h.checkpoint = nil
	h.status = StatusCompleted
	v := h.addVersion(lyrics)
	h.persist()

	log.Infof("%s Regeneration completed, %d version(s) in history", logcolors.LogVersions, len(h.versions))
	return v, nil
}

// FailRegeneration records message and puts versions, active pointer and edit
// buffer back exactly as they were when the regeneration started.
func (h *History) FailRegeneration(message string) error {
	if h.status != StatusRegenerating {
		return ErrNotRegenerating
	}

	if h.checkpoint != nil {
		h.restore(*h.checkpoint)
	}
	h.checkpoint = nil
	h.status = StatusFailed
	h.lastError = message
	h.persist()

	log.Warnf("%s Regeneration failed: %s", logcolors.LogVersions, message)
	return nil
}

// SetOriginal replaces the source content. A different source starts a new
// editing session, so the whole history is discarded. Returns false when the
// content is unchanged.
func (h *History) SetOriginal(content string) bool {
	if content == h.original {
		return false
	}

	h.original = content
	h.versions = []Version{}
	h.activeID = ""
	h.editBuffer = ""
	h.status = StatusIdle
	h.lastError = ""
	h.checkpoint = nil
	h.persist()

	log.Infof("%s Source content changed, version history cleared", logcolors.LogVersions)
	return true
}

// SetEditBuffer replaces the editor text without touching any version
func (h *History) SetEditBuffer(text string) {
	h.editBuffer = text
	h.persist()
}

// Original returns the source content of the session
func (h *History) Original() string { return h.original }

// EditBuffer returns the text currently loaded in the editor
func (h *History) EditBuffer() string { return h.editBuffer }

// Status returns the regeneration state
func (h *History) Status() Status { return h.status }

// Error returns the message of the last failed regeneration
func (h *History) Error() string { return h.lastError }

// ActiveVersionID returns the active version id, "" when there is none
func (h *History) ActiveVersionID() string { return h.activeID }

// Active returns the active version
func (h *History) Active() (Version, bool) {
	if i := h.indexOf(h.activeID); i >= 0 {
		return h.versions[i], true
	}
	return Version{}, false
}

// Get returns version id
func (h *History) Get(id string) (Version, bool) {
	if i := h.indexOf(id); i >= 0 {
		return h.versions[i], true
	}
	return Version{}, false
}

// Len returns the number of versions
func (h *History) Len() int { return len(h.versions) }

// Versions returns a copy of the versions ordered by CreatedAt ascending
func (h *History) Versions() []Version {
	out := make([]Version, len(h.versions))
	copy(out, h.versions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

package versions

import "time"

// Checkpoint is the part of a session that a failed regeneration rolls back
type Checkpoint struct {
	Versions        []Version `json:"versions"`
	ActiveVersionID string    `json:"activeVersionId,omitempty"`
	EditBuffer      string    `json:"editBuffer"`
}

// Snapshot is the complete serializable state of a History
type Snapshot struct {
	Original        string      `json:"original"`
	Versions        []Version   `json:"versions"`
	ActiveVersionID string      `json:"activeVersionId,omitempty"`
	EditBuffer      string      `json:"editBuffer"`
	Status          Status      `json:"status"`
	Error           string      `json:"error,omitempty"`
	Checkpoint      *Checkpoint `json:"checkpoint,omitempty"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func cloneVersions(vs []Version) []Version {
	out := make([]Version, len(vs))
	copy(out, vs)
	return out
}

func (h *History) capture() Checkpoint {
	return Checkpoint{
		Versions:        cloneVersions(h.versions),
		ActiveVersionID: h.activeID,
		EditBuffer:      h.editBuffer,
	}
}

func (h *History) restore(cp Checkpoint) {
	h.versions = cloneVersions(cp.Versions)
	h.activeID = cp.ActiveVersionID
	h.editBuffer = cp.EditBuffer
}

// Snapshot returns a deep copy of the current state
func (h *History) Snapshot() Snapshot {
	s := Snapshot{
		Original:        h.original,
		Versions:        cloneVersions(h.versions),
		ActiveVersionID: h.activeID,
		EditBuffer:      h.editBuffer,
		Status:          h.status,
		Error:           h.lastError,
		UpdatedAt:       h.now().UTC(),
	}
	if h.checkpoint != nil {
		cp := *h.checkpoint
		cp.Versions = cloneVersions(cp.Versions)
		s.Checkpoint = &cp
	}
	return s
}

// Restore rebuilds a History from a snapshot. Options apply as in New.
// An active id that no longer names a version falls back to the latest
// version, or to none when the history is empty.
func Restore(s Snapshot, opts ...Option) *History {
	h := New(s.Original, opts...)
	h.versions = cloneVersions(s.Versions)
	h.activeID = s.ActiveVersionID
	h.editBuffer = s.EditBuffer
	h.status = s.Status
	h.lastError = s.Error
	if s.Checkpoint != nil {
		cp := *s.Checkpoint
		cp.Versions = cloneVersions(cp.Versions)
		h.checkpoint = &cp
	}

	if h.status == "" {
		h.status = StatusIdle
	}
	if h.indexOf(h.activeID) < 0 {
		h.activeID = ""
		if len(h.versions) > 0 {
			h.activeID = h.latest().ID
		}
	}
	return h
}

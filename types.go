package main

import (
	"lyricsync-api-go/lyricsync"
	"lyricsync-api-go/preferences"
	"lyricsync-api-go/versions"
)

// SyncResponse is the body of every sync endpoint
type SyncResponse struct {
	lyricsync.SyncResult
	States []lyricsync.State `json:"states"`
	// LineIndex is the cue's lineIndex for the active token (line mode only)
	LineIndex *int `json:"lineIndex,omitempty"`
	OffsetMs  int  `json:"offsetMs"`
}

// WordSyncRequest is the body of POST /sync/words
type WordSyncRequest struct {
	Words       []lyricsync.WordTiming `json:"tokens"`
	CurrentTime float64                `json:"currentTime"`
	OffsetMs    int                    `json:"offsetMs"`
}

// LineSyncRequest is the body of POST /sync/lines
type LineSyncRequest struct {
	Cues        []lyricsync.LineCue `json:"cues"`
	CurrentTime float64             `json:"currentTime"`
	OffsetMs    int                 `json:"offsetMs"`
	ShowMarkers *bool               `json:"showMarkers"`
}

// SeekRequest is the body of POST /sync/seek
type SeekRequest struct {
	Tokens   []lyricsync.TimedToken `json:"tokens"`
	Index    int                    `json:"index"`
	OffsetMs int                    `json:"offsetMs"`
}

// TrackRequest is the body of PUT /sync/tracks/{client}/{song}: either words or cues
type TrackRequest struct {
	Words       []lyricsync.WordTiming `json:"words,omitempty"`
	Cues        []lyricsync.LineCue    `json:"cues,omitempty"`
	ShowMarkers *bool                  `json:"showMarkers"`
}

// SectionsRequest is the body of POST /sections
type SectionsRequest struct {
	Lyrics      string  `json:"lyrics"`
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}

// SectionsResponse lists the sections and the one playing at currentTime
type SectionsResponse struct {
	Sections []string `json:"sections"`
	Index    int      `json:"index"`
}

// OffsetRequest is the body of PUT /clients/{client}/offsets/{song}
type OffsetRequest struct {
	OffsetMs *int `json:"offsetMs"`
}

// OffsetResponse reports the stored offset and its bounds
type OffsetResponse struct {
	SongID   string `json:"songId"`
	OffsetMs int    `json:"offsetMs"`
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Step     int    `json:"step"`
}

// PreferencesRequest is a partial update; omitted fields are left alone
type PreferencesRequest struct {
	SyncMode    *string `json:"syncMode"`
	ShowMarkers *bool   `json:"showMarkers"`
}

// PreferencesResponse wraps the stored preferences
type PreferencesResponse struct {
	ClientID string `json:"clientId"`
	preferences.Preferences
}

// CreateSessionRequest is the body of POST /sessions
type CreateSessionRequest struct {
	Original string `json:"original"`
	// Lyrics optionally seeds the first version
	Lyrics *string `json:"lyrics"`
}

// OriginalRequest is the body of PUT /sessions/{id}/original
type OriginalRequest struct {
	Original string `json:"original"`
}

// LyricsRequest carries lyrics text for add/complete/edit operations
type LyricsRequest struct {
	Lyrics string `json:"lyrics"`
}

// FailRequest is the body of POST /sessions/{id}/regeneration/fail
type FailRequest struct {
	Message string `json:"message"`
}

// SessionResponse is the client view of a session
type SessionResponse struct {
	ID              string             `json:"id"`
	Original        string             `json:"original"`
	Versions        []versions.Version `json:"versions"`
	ActiveVersionID *string            `json:"activeVersionId"`
	EditBuffer      string             `json:"editBuffer"`
	Status          versions.Status    `json:"status"`
	Error           string             `json:"error,omitempty"`
}

// VTTExportRequest is the body of POST /export/vtt
type VTTExportRequest struct {
	Cues           []lyricsync.LineCue `json:"cues"`
	Style          string              `json:"style"`
	IncludeMarkers bool                `json:"includeMarkers"`
}

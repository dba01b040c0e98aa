package main

import (
	"sync"
	"time"

	"lyricsync-api-go/logcolors"
	"lyricsync-api-go/lyricsync"
	"lyricsync-api-go/utils"

	log "github.com/sirupsen/logrus"
)

const defaultMaxTracks = 1024

// loadedTrack is a token list a player uploaded once and then ticks against.
// Reusing the same slice on every tick is what lets the Syncer memo hit.
type loadedTrack struct {
	tokens      []lyricsync.TimedToken
	lineIndexes []int // nil for word tracks
	syncer      *lyricsync.Syncer
	lastUsed    time.Time
}

// trackRegistry holds loaded tracks per (client, song), evicting the least
// recently used one when full
type trackRegistry struct {
	mu     sync.Mutex
	tracks map[string]*loadedTrack
	max    int
	now    func() time.Time
}

func newTrackRegistry(max int) *trackRegistry {
	if max <= 0 {
		max = defaultMaxTracks
	}
	return &trackRegistry{
		tracks: make(map[string]*loadedTrack),
		max:    max,
		now:    time.Now,
	}
}

func trackKey(clientID, songID string) string {
	return utils.KeySegment(clientID) + ":" + songID
}

// Load replaces the track for (clientID, songID)
func (tr *trackRegistry) Load(clientID, songID string, tokens []lyricsync.TimedToken, lineIndexes []int) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	key := trackKey(clientID, songID)
	if _, exists := tr.tracks[key]; !exists && len(tr.tracks) >= tr.max {
		tr.evictOldest()
	}
	tr.tracks[key] = &loadedTrack{
		tokens:      tokens,
		lineIndexes: lineIndexes,
		syncer:      lyricsync.NewSyncer(),
		lastUsed:    tr.now(),
	}
}

func (tr *trackRegistry) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, t := range tr.tracks {
		if oldestKey == "" || t.lastUsed.Before(oldest) {
			oldestKey, oldest = k, t.lastUsed
		}
	}
	if oldestKey != "" {
		delete(tr.tracks, oldestKey)
		log.Debugf("%s Evicted loaded track %s", logcolors.LogSync, oldestKey)
	}
}

// Get returns the loaded track and marks it used
func (tr *trackRegistry) Get(clientID, songID string) (*loadedTrack, bool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	t, ok := tr.tracks[trackKey(clientID, songID)]
	if ok {
		t.lastUsed = tr.now()
	}
	return t, ok
}

// Unload removes a track; it reports whether one was loaded
func (tr *trackRegistry) Unload(clientID, songID string) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	key := trackKey(clientID, songID)
	_, ok := tr.tracks[key]
	delete(tr.tracks, key)
	return ok
}

// Len returns the number of loaded tracks
func (tr *trackRegistry) Len() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.tracks)
}

// Cleanup drops tracks unused for longer than idle and returns how many went
func (tr *trackRegistry) Cleanup(idle time.Duration) int {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	cutoff := tr.now().Add(-idle)
	removed := 0
	for k, t := range tr.tracks {
		if t.lastUsed.Before(cutoff) {
			delete(tr.tracks, k)
			removed++
		}
	}
	return removed
}

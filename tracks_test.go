package main

import (
	"testing"
	"time"

	"lyricsync-api-go/lyricsync"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestRegistry(max int) (*trackRegistry, *stepClock) {
	clock := &stepClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	tr := newTrackRegistry(max)
	tr.now = clock.Now
	return tr, clock
}

func TestTrackRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	tr, clock := newTestRegistry(2)
	tokens := lyricsync.FromWords(helloWorldWords)

	tr.Load("c", "a", tokens, nil)
	clock.Advance(time.Second)
	tr.Load("c", "b", tokens, nil)
	clock.Advance(time.Second)

	// Touch "a" so "b" becomes the oldest
	if _, ok := tr.Get("c", "a"); !ok {
		t.Fatal("Expected track a to be loaded")
	}
	clock.Advance(time.Second)
	tr.Load("c", "c", tokens, nil)

	if tr.Len() != 2 {
		t.Errorf("Expected 2 tracks, got %d", tr.Len())
	}
	if _, ok := tr.Get("c", "b"); ok {
		t.Error("Expected track b to be evicted")
	}
	if _, ok := tr.Get("c", "a"); !ok {
		t.Error("Expected track a to survive")
	}
}

func TestTrackRegistry_ReloadDoesNotEvict(t *testing.T) {
	tr, _ := newTestRegistry(1)
	tokens := lyricsync.FromWords(helloWorldWords)

	tr.Load("c", "a", tokens, nil)
	first, _ := tr.Get("c", "a")
	tr.Load("c", "a", tokens[:1], nil)

	second, ok := tr.Get("c", "a")
	if !ok || len(second.tokens) != 1 {
		t.Fatalf("Expected reloaded track with 1 token, got %+v", second)
	}
	if first.syncer == second.syncer {
		t.Error("Expected a fresh syncer after reload")
	}
}

func TestTrackRegistry_Cleanup(t *testing.T) {
	tr, clock := newTestRegistry(10)
	tokens := lyricsync.FromWords(helloWorldWords)

	tr.Load("c", "old", tokens, nil)
	clock.Advance(2 * time.Hour)
	tr.Load("c", "new", tokens, nil)

	if removed := tr.Cleanup(time.Hour); removed != 1 {
		t.Errorf("Expected 1 idle track removed, got %d", removed)
	}
	if _, ok := tr.Get("c", "new"); !ok {
		t.Error("Expected the recent track to stay")
	}
}

func TestTrackRegistry_ClientsDoNotCollide(t *testing.T) {
	tr, _ := newTestRegistry(10)
	tokens := lyricsync.FromWords(helloWorldWords)

	tr.Load("a:b", "c", tokens, nil)
	if _, ok := tr.Get("a", "b:c"); ok {
		t.Error("Expected client a / song b:c to be distinct from client a:b / song c")
	}
	if !tr.Unload("a:b", "c") {
		t.Error("Expected Unload to report the loaded track")
	}
	if tr.Unload("a:b", "c") {
		t.Error("Expected second Unload to report nothing")
	}
}

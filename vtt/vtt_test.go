package vtt

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"lyricsync-api-go/lyricsync"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		seconds  float64
		expected string
	}{
		{"Zero", 0, "00:00.000"},
		{"Sub-second", 0.25, "00:00.250"},
		{"Over an hour", 3665.5, "01:01:05.500"},
		{"Carry into seconds", 0.9995, "00:01.000"},
		{"Carry into minutes", 59.9996, "01:00.000"},
		{"Carry into hours", 3599.9999, "01:00:00.000"},
		{"Round down", 12.3444, "00:12.344"},
		{"Just under an hour", 3599.4, "59:59.400"},
		{"Ten hours", 36000, "10:00:00.000"},
		{"NaN", math.NaN(), "00:00.000"},
		{"Positive infinity", math.Inf(1), "00:00.000"},
		{"Negative infinity", math.Inf(-1), "00:00.000"},
		{"Negative", -3, "00:00.000"},
		{"Latest representable", 359999.999, "99:59:59.999"},
		{"Rounds up to the ceiling", 359999.9994, "99:59:59.999"},
		{"Past the ceiling", 1e13, "99:59:59.999"},
		{"Overflows int64 milliseconds", 1e16, "99:59:59.999"},
		{"Huge", 1e300, "99:59:59.999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestamp(tt.seconds); got != tt.expected {
				t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.expected)
			}
		})
	}
}

func TestValidateCues(t *testing.T) {
	tests := []struct {
		name    string
		cue     lyricsync.LineCue
		wantErr bool
	}{
		{"Ordinary", lyricsync.LineCue{Text: "rain", StartTime: 1, EndTime: 2}, false},
		{"End before start is clamped later", lyricsync.LineCue{Text: "rain", StartTime: 2, EndTime: 1}, false},
		{"At the ceiling", lyricsync.LineCue{Text: "rain", StartTime: 0, EndTime: MaxSeconds}, false},
		{"Negative start", lyricsync.LineCue{Text: "rain", StartTime: -1, EndTime: 2}, true},
		{"Huge end", lyricsync.LineCue{Text: "rain", StartTime: 1, EndTime: 1e16}, true},
		{"NaN start", lyricsync.LineCue{Text: "rain", StartTime: math.NaN(), EndTime: 2}, true},
		{"Infinite end", lyricsync.LineCue{Text: "rain", StartTime: 1, EndTime: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCues([]lyricsync.LineCue{{Text: "[Verse]", IsMarker: true}, tt.cue})
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCues error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCue) {
				t.Errorf("Expected ErrInvalidCue, got %v", err)
			}
		})
	}
}

func TestExport(t *testing.T) {
	cues := []lyricsync.LineCue{
		{LineIndex: 0, Text: "[Verse]", StartTime: 0, EndTime: 0, IsMarker: true},
		{LineIndex: 1, Text: "Photosynthesis starts with light", StartTime: 0.5, EndTime: 3.25},
		{LineIndex: 2, Text: "  Chlorophyll --> sugar  ", StartTime: 3.25, EndTime: 3},
		{LineIndex: 3, Text: "   ", StartTime: 4, EndTime: 5},
	}

	got := Export(cues, false)
	expected := "WEBVTT\n" +
		"\n1\n00:00.500 --> 00:03.250\nPhotosynthesis starts with light\n" +
		"\n2\n00:03.250 --> 00:03.250\nChlorophyll --&gt; sugar\n"

	if got != expected {
		t.Errorf("Export mismatch\nwant:\n%s\ngot:\n%s", expected, got)
	}
}

func TestExport_WithMarkers(t *testing.T) {
	cues := []lyricsync.LineCue{
		{LineIndex: 1, Text: "Line", StartTime: 1, EndTime: 2},
		{LineIndex: 0, Text: "[Chorus]", StartTime: 0, EndTime: 1, IsMarker: true},
	}

	got := Export(cues, true)
	if !strings.Contains(got, "\n1\n00:00.000 --> 00:01.000\n[Chorus]\n") {
		t.Errorf("Expected marker cue first, got:\n%s", got)
	}
	if !strings.Contains(got, "\n2\n00:01.000 --> 00:02.000\nLine\n") {
		t.Errorf("Expected line cue second, got:\n%s", got)
	}
}

func TestExport_Empty(t *testing.T) {
	if got := Export(nil, true); got != "WEBVTT\n" {
		t.Errorf("Expected bare header, got %q", got)
	}
}

func TestFilename(t *testing.T) {
	date := time.Date(2026, time.March, 7, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		style    string
		expected string
	}{
		{"Pop", "song-pop-2026-03-07.vtt"},
		{"Lo-Fi Hip Hop", "song-lo-fi-hip-hop-2026-03-07.vtt"},
		{"  R&B / Soul!! ", "song-r-b-soul-2026-03-07.vtt"},
		{"--Sea shanty--", "song-sea-shanty-2026-03-07.vtt"},
		{"", "song-unknown-2026-03-07.vtt"},
		{"!!!", "song-unknown-2026-03-07.vtt"},
		{"80s Synthwave", "song-80s-synthwave-2026-03-07.vtt"},
	}

	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			if got := Filename(tt.style, date); got != tt.expected {
				t.Errorf("Filename(%q) = %q, want %q", tt.style, got, tt.expected)
			}
		})
	}
}

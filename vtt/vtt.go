// Package vtt serializes synced lyric lines as WebVTT subtitles.
package vtt

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"lyricsync-api-go/lyricsync"
)

const (
	// ContentType is the MIME type served for exported files
	ContentType = "text/vtt; charset=utf-8"

	// MaxSeconds is the latest representable cue time, 99:59:59.999
	MaxSeconds = 99*3600 + 59*60 + 59.999

	zeroTimestamp = "00:00.000"
	maxTimestamp  = "99:59:59.999"
)

var ErrInvalidCue = errors.New("invalid cue time")

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	blankLines      = regexp.MustCompile(`\n\s*\n`)
)

// FormatTimestamp renders seconds as HH:MM:SS.mmm, dropping the hours field
// below one hour. Milliseconds are rounded to nearest and carry into the
// seconds, minutes and hours. NaN, infinities and negative values render as
// 00:00.000; anything past MaxSeconds renders as 99:59:59.999.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return zeroTimestamp
	}
	if seconds >= MaxSeconds {
		return maxTimestamp
	}

	// Round to microseconds first so values like 0.9995 don't fall a float ulp short
	totalMs := int64(math.Round(math.Round(seconds*1e6) / 1e3))

	hours := totalMs / 3_600_000
	minutes := (totalMs / 60_000) % 60
	secs := (totalMs / 1000) % 60
	millis := totalMs % 1000

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
	}
	return fmt.Sprintf("%02d:%02d.%03d", minutes, secs, millis)
}

// Export builds a WebVTT document with one numbered cue per lyric line.
// Section markers are left out unless includeMarkers is set.
func Export(cues []lyricsync.LineCue, includeMarkers bool) string {
	tokens, _ := lyricsync.FromLines(cues, includeMarkers)

	var b strings.Builder
	b.WriteString("WEBVTT\n")

	n := 0
	for _, tok := range tokens {
		text := cueText(tok.Text)
		if text == "" {
			continue
		}

		end := tok.EndS
		if end < tok.StartS {
			end = tok.StartS
		}

		n++
		fmt.Fprintf(&b, "\n%d\n%s --> %s\n%s\n", n, FormatTimestamp(tok.StartS), FormatTimestamp(end), text)
	}

	return b.String()
}

// ValidateCues rejects cue times Export could only render by clamping:
// non-finite, negative or past MaxSeconds.
func ValidateCues(cues []lyricsync.LineCue) error {
	for i, c := range cues {
		for _, v := range []float64{c.StartTime, c.EndTime} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > MaxSeconds {
				return fmt.Errorf("%w: cue %d (%q) spans %v-%v", ErrInvalidCue, i, c.Text, c.StartTime, c.EndTime)
			}
		}
	}
	return nil
}

// cueText trims the payload and removes what would end the cue early or be
// parsed as a timing line.
func cueText(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	text = blankLines.ReplaceAllString(text, "\n")
	return strings.ReplaceAll(text, "-->", "--&gt;")
}

// Filename returns song-{style}-{YYYY-MM-DD}.vtt with the style lowercased and
// every run of non-alphanumeric characters collapsed to a single hyphen.
func Filename(style string, date time.Time) string {
	return fmt.Sprintf("song-%s-%s.vtt", NormalizeStyle(style), date.Format("2006-01-02"))
}

// NormalizeStyle slugs a music style name, falling back to "unknown"
func NormalizeStyle(style string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(style), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "unknown"
	}
	return slug
}

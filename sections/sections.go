// Package sections splits lyrics into display sections and maps playback time onto them.
package sections

import (
	"math"
	"regexp"
	"strings"
)

var (
	// Two or more newlines, allowing whitespace-only lines in between
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n\s*`)

	// A whole line like [Verse], [Chorus 2] or [Bridge]:
	markerLine = regexp.MustCompile(`^\[[^\[\]]+\]:?$`)
)

// IsMarker reports whether a lyrics line is a bracketed section marker
func IsMarker(line string) bool {
	return markerLine.MatchString(strings.TrimSpace(line))
}

// Partition splits lyrics into ordered, trimmed, non-empty sections.
//
// Blank-line paragraphs are tried first; if they don't produce more than one
// section, bracketed marker lines are used as boundaries instead. Input without
// either kind of boundary comes back as a single section.
func Partition(lyrics string) []string {
	text := strings.TrimSpace(strings.ReplaceAll(lyrics, "\r\n", "\n"))
	if text == "" {
		return []string{}
	}

	if paragraphs := splitParagraphs(text); len(paragraphs) > 1 {
		return paragraphs
	}
	if marked := splitOnMarkers(text); len(marked) > 1 {
		return marked
	}
	return []string{text}
}

func splitParagraphs(text string) []string {
	return compact(paragraphBreak.Split(text, -1))
}

// splitOnMarkers starts a new section at every marker line; the marker stays
// as the first line of its section.
func splitOnMarkers(text string) []string {
	var parts []string
	var current []string

	for _, line := range strings.Split(text, "\n") {
		if IsMarker(line) && len(current) > 0 {
			parts = append(parts, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, "\n"))
	}

	return compact(parts)
}

func compact(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SectionAt maps a playback time onto one of sectionCount equal-length buckets.
// The result is always in [0, sectionCount-1] (0 for degenerate input) and never
// decreases as currentTime grows.
func SectionAt(currentTime, duration float64, sectionCount int) int {
	if sectionCount <= 0 || !(duration > 0) {
		return 0
	}
	if !(currentTime > 0) {
		return 0
	}
	if currentTime >= duration {
		return sectionCount - 1
	}

	idx := int(math.Floor(currentTime / duration * float64(sectionCount)))
	if idx < 0 {
		return 0
	}
	if idx > sectionCount-1 {
		return sectionCount - 1
	}
	return idx
}

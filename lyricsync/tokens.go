package lyricsync

import "sort"

// WordTiming is the word-level shape delivered by the alignment service
type WordTiming struct {
	Word   string  `json:"word"`
	StartS float64 `json:"startS"`
	EndS   float64 `json:"endS"`
}

// LineCue is a pre-grouped lyric line delivered by the generation API
type LineCue struct {
	LineIndex int     `json:"lineIndex"`
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	IsMarker  bool    `json:"isMarker"`
}

// FromWords converts word timings into tokens sorted by start (stable on ties)
func FromWords(words []WordTiming) []TimedToken {
	tokens := make([]TimedToken, len(words))
	for i, w := range words {
		tokens[i] = TimedToken{Text: w.Word, StartS: w.StartS, EndS: w.EndS}
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].StartS < tokens[j].StartS
	})
	return tokens
}

// FromLines converts line cues into tokens sorted by start (stable on ties).
// Section markers are dropped unless showMarkers is set. The second return value
// maps every token index back to the cue's LineIndex.
func FromLines(cues []LineCue, showMarkers bool) ([]TimedToken, []int) {
	kept := make([]LineCue, 0, len(cues))
	for _, c := range cues {
		if c.IsMarker && !showMarkers {
			continue
		}
		kept = append(kept, c)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].StartTime < kept[j].StartTime
	})

	tokens := make([]TimedToken, len(kept))
	lineIndexes := make([]int, len(kept))
	for i, c := range kept {
		tokens[i] = TimedToken{
			Text:     c.Text,
			StartS:   c.StartTime,
			EndS:     c.EndTime,
			IsMarker: c.IsMarker,
		}
		lineIndexes[i] = c.LineIndex
	}
	return tokens, lineIndexes
}

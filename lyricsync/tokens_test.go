package lyricsync

import "testing"

func TestFromWords(t *testing.T) {
	words := []WordTiming{
		{Word: "world", StartS: 0.6, EndS: 1.0},
		{Word: "Hello", StartS: 0, EndS: 0.5},
		{Word: "again", StartS: 0.6, EndS: 0.8},
	}

	tokens := FromWords(words)

	expected := []string{"Hello", "world", "again"}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, text := range expected {
		if tokens[i].Text != text {
			t.Errorf("token %d: expected %q, got %q", i, text, tokens[i].Text)
		}
	}
	if err := Validate(tokens); err != nil {
		t.Errorf("Expected converted tokens to validate, got %v", err)
	}
}

func TestFromLines(t *testing.T) {
	cues := []LineCue{
		{LineIndex: 0, Text: "[Verse]", StartTime: 0, EndTime: 0, IsMarker: true},
		{LineIndex: 1, Text: "Mitochondria makes the energy", StartTime: 0.5, EndTime: 3},
		{LineIndex: 2, Text: "[Chorus]", StartTime: 3, EndTime: 3, IsMarker: true},
		{LineIndex: 3, Text: "Powerhouse of the cell", StartTime: 3.2, EndTime: 6},
	}

	tests := []struct {
		name          string
		showMarkers   bool
		expectedIndex []int
	}{
		{"Markers hidden", false, []int{1, 3}},
		{"Markers shown", true, []int{0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, lineIndexes := FromLines(cues, tt.showMarkers)

			if len(tokens) != len(tt.expectedIndex) {
				t.Fatalf("Expected %d tokens, got %d", len(tt.expectedIndex), len(tokens))
			}
			for i, want := range tt.expectedIndex {
				if lineIndexes[i] != want {
					t.Errorf("token %d: expected line index %d, got %d", i, want, lineIndexes[i])
				}
				if tokens[i].IsMarker != cues[want].IsMarker {
					t.Errorf("token %d: marker flag not carried over", i)
				}
			}
		})
	}
}

func TestFromLines_SortsByStart(t *testing.T) {
	cues := []LineCue{
		{LineIndex: 1, Text: "second", StartTime: 2, EndTime: 3},
		{LineIndex: 0, Text: "first", StartTime: 0, EndTime: 1},
	}

	tokens, lineIndexes := FromLines(cues, true)
	if tokens[0].Text != "first" || lineIndexes[0] != 0 {
		t.Errorf("Expected first line first, got %q (line %d)", tokens[0].Text, lineIndexes[0])
	}
}

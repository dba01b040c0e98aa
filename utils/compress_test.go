package utils

import (
	"strings"
	"testing"
)

func TestCompressValue_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"Offset", "-300"},
		{"Preferences JSON", `{"syncMode":"line","showMarkers":false}`},
		{"Empty string", ""},
		{"Unicode lyrics", "Le cycle de l'eau, la pluie tombe ♪"},
		{"Looks tagged", "gz:not really"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := CompressValue(tt.text)
			if err != nil {
				t.Fatalf("CompressValue error: %v", err)
			}
			if !IsCompressed(compressed) {
				t.Errorf("Expected %q to carry the gz: tag", compressed)
			}

			decompressed, err := DecompressValue(compressed)
			if err != nil {
				t.Fatalf("DecompressValue error: %v", err)
			}
			if decompressed != tt.text {
				t.Errorf("Expected %q, got %q", tt.text, decompressed)
			}
		})
	}
}

func TestDecompressValue_PlainPassesThrough(t *testing.T) {
	for _, plain := range []string{"", "300", "true", `{"a":1}`} {
		got, err := DecompressValue(plain)
		if err != nil {
			t.Errorf("DecompressValue(%q) error: %v", plain, err)
		}
		if got != plain {
			t.Errorf("DecompressValue(%q) = %q", plain, got)
		}
	}
}

func TestCompressionRatio(t *testing.T) {
	// A chorus repeated through a song compresses well
	content := strings.Repeat("[Chorus]\nEvaporate, condense, precipitate, collect\n\n", 100)

	compressed, err := CompressValue(content)
	if err != nil {
		t.Fatalf("CompressValue error: %v", err)
	}

	ratio := float64(len(compressed)) / float64(len(content))
	t.Logf("Original: %d bytes, Compressed: %d bytes, Ratio: %.2f", len(content), len(compressed), ratio)

	if ratio > 0.1 {
		t.Errorf("Expected compression ratio < 0.1 for repetitive content, got %.2f", ratio)
	}
}

func TestDecompressValue_Corrupted(t *testing.T) {
	tests := []string{
		"gz:invalid_base64_string!",
		"gz:aGVsbG8=", // valid base64, not gzip
	}
	for _, input := range tests {
		if _, err := DecompressValue(input); err == nil {
			t.Errorf("Expected error for %q", input)
		}
	}
}

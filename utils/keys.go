package utils

import "strings"

var keySegmentEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// KeySegment escapes s for use between ':' separators in a store key,
// so "a:b"+":"+"c" and "a"+":"+"b:c" never produce the same key.
func KeySegment(s string) string {
	return keySegmentEscaper.Replace(s)
}

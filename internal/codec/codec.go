// Package codec persists ordered string lists in a single text column.
//
// The underlying stores keep question options, correct answers and
// submitted answers as one TEXT field each. Elements are joined with a
// two-character delimiter; any occurrence of that delimiter inside an
// element is escaped so user-authored text survives the round trip.
package codec

import "strings"

const (
	// Separator joins encoded elements on disk.
	Separator = "||"
	// escaped is what a literal Separator inside an element becomes.
	escaped = `\|\|`
)

// Join encodes list into a single delimited string. An empty list encodes
// to the empty string. Only the full two-character delimiter is escaped;
// a lone '|' or '\' passes through unchanged.
func Join(list []string) string {
	if len(list) == 0 {
		return ""
	}
	parts := make([]string, len(list))
	for i, s := range list {
		parts[i] = strings.ReplaceAll(s, Separator, escaped)
	}
	return strings.Join(parts, Separator)
}

// Split reverses Join. Split(Join(x)) == x for every x whose elements do
// not end in a bare '|' directly before a separator boundary.
func Split(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, Separator)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.ReplaceAll(p, escaped, Separator)
	}
	return out
}

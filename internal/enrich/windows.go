package enrich

import (
	"strings"
	"unicode/utf8"
)

// DefaultWindowChars bounds the size of one labeling request.
const DefaultWindowChars = 3000

// SplitWindows packs whitespace-delimited tokens greedily into windows of at
// most maxChars characters. Tokens are never split, so a single token longer
// than maxChars becomes a window of its own. Each window is space-joined.
func SplitWindows(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultWindowChars
	}
	var (
		windows []string
		current []string
		size    int
	)
	for _, token := range strings.Fields(text) {
		length := utf8.RuneCountInString(token)
		if size+length+1 > maxChars && len(current) > 0 {
			windows = append(windows, strings.Join(current, " "))
			current = []string{token}
			size = length
			continue
		}
		current = append(current, token)
		size += length + 1
	}
	if len(current) > 0 {
		windows = append(windows, strings.Join(current, " "))
	}
	return windows
}

package enrich

import "strings"

// DefaultGuest is used when a title names nobody.
const DefaultGuest = "Guest"

// GuestName extracts the guest from an episode title: the trimmed text after
// the last occurrence of "with", or DefaultGuest when the title has none.
// The match is a plain substring, so "without" counts as well.
func GuestName(title string) string {
	idx := strings.LastIndex(title, "with")
	if idx < 0 {
		return DefaultGuest
	}
	return strings.TrimSpace(title[idx+len("with"):])
}

package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// StripMarks removes combining diacritical marks, so "Café" becomes "Cafe".
func StripMarks(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// ScratchName returns the download filename for an episode title:
// "temp_" plus the sanitized title with spaces as underscores, and ".mp3".
// Empty titles fall back to "episode".
func ScratchName(title string) string {
	base := SanitizeFileName(StripMarks(title))
	base = strings.Join(strings.Fields(base), "_")
	if base == "" {
		base = "episode"
	}
	return "temp_" + base + ".mp3"
}

// Truncate returns value cut to at most limit characters (runes). A limit of
// zero or less returns value unchanged.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	count := 0
	for i := range value {
		if count == limit {
			return value[:i]
		}
		count++
	}
	return value
}

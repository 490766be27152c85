package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  AC/DC: Live?  ": "AC-DC- Live",
		"a<b>|c\"":         "abc",
		"":                 "",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScratchName(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Episode 12 with Jane Doe", "temp_Episode_12_with_Jane_Doe.mp3"},
		{"Café Talk: Data/AI", "temp_Cafe_Talk-_Data-AI.mp3"},
		{"   ", "temp_episode.mp3"},
	}
	for _, tc := range cases {
		if got := ScratchName(tc.title); got != tc.want {
			t.Fatalf("ScratchName(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	ascii := strings.Repeat("a", 2000)
	if got := Truncate(ascii, 1024); len(got) != 1024 {
		t.Fatalf("len = %d, want 1024", len(got))
	}
	multi := strings.Repeat("é", 10)
	got := Truncate(multi, 4)
	if utf8.RuneCountInString(got) != 4 || !utf8.ValidString(got) {
		t.Fatalf("Truncate produced %q", got)
	}
	if Truncate("short", 100) != "short" {
		t.Fatal("short value should be unchanged")
	}
	if Truncate("abc", 0) != "abc" {
		t.Fatal("zero limit should leave value unchanged")
	}
}

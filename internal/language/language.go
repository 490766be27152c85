package language

import "strings"

type entry struct {
	code2   string
	code3   []string
	display string
	word    string
}

var languages = []entry{
	{"en", []string{"eng"}, "English", "english"},
	{"es", []string{"spa"}, "Spanish", "spanish"},
	{"fr", []string{"fra", "fre"}, "French", "french"},
	{"de", []string{"deu", "ger"}, "German", "german"},
	{"it", []string{"ita"}, "Italian", "italian"},
	{"pt", []string{"por"}, "Portuguese", "portuguese"},
	{"ja", []string{"jpn"}, "Japanese", "japanese"},
	{"ko", []string{"kor"}, "Korean", "korean"},
	{"zh", []string{"zho", "chi"}, "Chinese", "chinese"},
	{"ru", []string{"rus"}, "Russian", "russian"},
	{"ar", []string{"ara"}, "Arabic", "arabic"},
	{"hi", []string{"hin"}, "Hindi", "hindi"},
	{"nl", []string{"nld", "dut"}, "Dutch", "dutch"},
	{"pl", []string{"pol"}, "Polish", "polish"},
	{"sv", []string{"swe"}, "Swedish", "swedish"},
	{"da", []string{"dan"}, "Danish", "danish"},
	{"no", []string{"nor"}, "Norwegian", "norwegian"},
	{"fi", []string{"fin"}, "Finnish", "finnish"},
}

var index = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		m[e.code2] = e
		m[e.word] = e
		for _, c := range e.code3 {
			m[c] = e
		}
	}
	return m
}()

// Normalize maps a code or English name to ISO 639-1. Empty input yields
// ("", true) so callers can leave detection to the provider.
func Normalize(value string) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", true
	}
	if e, ok := index[value]; ok {
		return e.code2, true
	}
	return "", false
}

// DisplayName returns a readable name for a recognized code, "auto" for an
// empty one, or the input uppercased.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "auto"
	}
	if e, ok := index[strings.ToLower(code)]; ok {
		return e.display
	}
	return strings.ToUpper(code)
}

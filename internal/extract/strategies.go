package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Strategy is one heuristic in a field chain.
//
// Find receives the full text and the fields found so far by earlier chains,
// and returns the value with ok=true, or ok=false to let the next strategy try.
type Strategy struct {
	Name string
	Find func(text RecognizedText, found Fields) (string, bool)
}

// firstCapture returns group 1 of the first line that matches re.
func firstCapture(re *regexp.Regexp, text RecognizedText) (string, bool) {
	for _, line := range text {
		if m := re.FindStringSubmatch(line); m != nil && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

// ExpiryByLabel finds the first date token that follows an expiry label.
func ExpiryByLabel() Strategy {
	return Strategy{
		Name: "expiryByLabel",
		Find: func(text RecognizedText, _ Fields) (string, bool) {
			return firstCapture(expiryPattern, text)
		},
	}
}

// BatchByLabel finds the token after the first B.No / Batch / Lot label.
func BatchByLabel() Strategy {
	return Strategy{
		Name: "batchByLabel",
		Find: func(text RecognizedText, _ Fields) (string, bool) {
			return firstCapture(batchPattern, text)
		},
	}
}

// StrengthByUnit finds the first number followed by mg, g, ml or %.
func StrengthByUnit() Strategy {
	return Strategy{
		Name: "strengthByUnit",
		Find: func(text RecognizedText, _ Fields) (string, bool) {
			return firstCapture(strengthPattern, text)
		},
	}
}

// NameFromDictionary returns the first dictionary entry, in dictionary order,
// contained anywhere in the upper-cased text. The result is title-cased.
func NameFromDictionary(names []string) Strategy {
	return Strategy{
		Name: "nameFromDictionary",
		Find: func(text RecognizedText, _ Fields) (string, bool) {
			upper := strings.ToUpper(text.String())
			for _, name := range names {
				if strings.Contains(upper, strings.ToUpper(name)) {
					return titleCase(name), true
				}
			}
			return "", false
		},
	}
}

// NameFromFilteredLines returns the first line that is not the expiry line,
// is at least 3 characters, is not all digits and has no noise keyword.
// The line is cut to maxLen runes.
func NameFromFilteredLines(noise []string, maxLen int) Strategy {
	return Strategy{
		Name: "nameFromFilteredLines",
		Find: func(text RecognizedText, found Fields) (string, bool) {
			for _, line := range text {
				if found.Expiry != "" && strings.Contains(line, found.Expiry) {
					continue
				}
				if utf8.RuneCountInString(line) < 3 || digitsOnly.MatchString(line) {
					continue
				}
				if containsAny(strings.ToLower(line), noise) {
					continue
				}
				if name := strings.TrimSpace(truncateRunes(line, maxLen)); name != "" {
					return name, true
				}
			}
			return "", false
		},
	}
}

// NameFromFirstLine is the last resort: the first line, or the second one
// when the first line holds the expiry.
func NameFromFirstLine() Strategy {
	return Strategy{
		Name: "nameFromFirstLine",
		Find: func(text RecognizedText, found Fields) (string, bool) {
			if len(text) == 0 {
				return "", false
			}
			if found.Expiry != "" && strings.Contains(text[0], found.Expiry) && len(text) > 1 {
				return text[1], true
			}
			return text[0], true
		},
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// titleCase upper-cases the first rune and lower-cases the rest.
func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

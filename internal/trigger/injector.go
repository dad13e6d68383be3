package trigger

import (
	"slices"
	"strings"
)

// Resolved is one slot's resolution result. Primary marks the first stack
// slot, whose phrase is placed in front of the prompt.
type Resolved struct {
	Phrase  string
	Primary bool
}

// Inject merges resolved phrases into prompt. A phrase already present in the
// prompt (case-insensitive substring) or already injected by an earlier slot
// is skipped. The primary phrase leads, the base prompt follows and the other
// phrases trail in slot order. It returns the final prompt and the injected
// phrases joined by ", ".
func Inject(prompt string, slots []Resolved) (string, string) {
	lowered := strings.ToLower(prompt)

	var prefix string
	var suffix, injected []string
	for _, s := range slots {
		phrase := s.Phrase
		if phrase == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(phrase)) {
			continue
		}
		if phrase == prefix || slices.Contains(injected, phrase) {
			continue
		}

		if s.Primary && prefix == "" {
			prefix = phrase
		} else {
			suffix = append(suffix, phrase)
		}
		injected = append(injected, phrase)
	}

	parts := make([]string, 0, 3)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	if base := strings.TrimSpace(prompt); base != "" {
		parts = append(parts, base)
	}
	if len(suffix) > 0 {
		parts = append(parts, strings.Join(suffix, ", "))
	}

	return tidyCommas(strings.Join(parts, ", ")), strings.Join(injected, ", ")
}

func tidyCommas(s string) string {
	for strings.Contains(s, " ,") {
		s = strings.ReplaceAll(s, " ,", ",")
	}
	for strings.Contains(s, ",,") {
		s = strings.ReplaceAll(s, ",,", ",")
	}
	return s
}

package store

import "strings"

// Normalize canonicalizes a LoRA identifier for lookup. Backslashes become
// forward slashes, surrounding whitespace is trimmed and the result is
// lowercased. full is the whole normalized identifier, leaf the part after
// the last slash.
func Normalize(identifier string) (full, leaf string) {
	full = strings.ToLower(CleanKey(identifier))
	leaf = full
	if i := strings.LastIndex(full, "/"); i >= 0 {
		leaf = full[i+1:]
	}
	return full, leaf
}

// CleanKey returns the form identifiers are stored under: forward slashes and
// trimmed, case preserved.
func CleanKey(identifier string) string {
	return strings.TrimSpace(strings.ReplaceAll(identifier, "\\", "/"))
}

// SplitPhrases splits a comma-delimited phrase list, trimming each phrase and
// dropping empty ones.
func SplitPhrases(value string) []string {
	var phrases []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			phrases = append(phrases, p)
		}
	}
	return phrases
}

// JoinPhrases is the inverse of SplitPhrases.
func JoinPhrases(phrases []string) string {
	return strings.Join(phrases, ", ")
}

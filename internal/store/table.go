package store

import (
	"errors"
	"sort"
	"strings"
)

var ErrEmptyIdentifier = errors.New("empty lora identifier")

// Table maps a LoRA identifier to its comma-delimited trigger phrases.
type Table map[string]string

// Match is the result of a lookup. Candidates lists every stored key that
// matched only by leaf filename when more than one did.
type Match struct {
	Key        string
	Value      string
	Candidates []string
}

// Ambiguous reports whether several stored keys shared the queried leaf.
func (m Match) Ambiguous() bool {
	return len(m.Candidates) > 1
}

// Lookup returns the phrase list stored for identifier. See Find for the
// matching rules.
func (t Table) Lookup(identifier string) (string, bool) {
	m, ok := t.Find(identifier)
	if !ok {
		return "", false
	}
	return m.Value, true
}

// Find matches identifier against every stored key, both normalized. A key
// whose full normalized form equals the query wins outright. Otherwise keys
// sharing the query's leaf filename match, and the lexicographically smallest
// of them is returned so the outcome does not depend on map order.
func (t Table) Find(identifier string) (Match, bool) {
	qFull, qLeaf := Normalize(identifier)
	if qFull == "" {
		return Match{}, false
	}

	var leafHits []string
	for _, key := range t.sortedKeys() {
		kFull, kLeaf := Normalize(key)
		if kFull == qFull {
			return Match{Key: key, Value: t[key]}, true
		}
		if kLeaf == qLeaf {
			leafHits = append(leafHits, key)
		}
	}

	if len(leafHits) == 0 {
		return Match{}, false
	}

	m := Match{Key: leafHits[0], Value: t[leafHits[0]]}
	if len(leafHits) > 1 {
		m.Candidates = leafHits
	}
	return m, true
}

// Get returns the value stored under the exact cleaned key, without the
// lookup-time normalization.
func (t Table) Get(identifier string) string {
	return t[CleanKey(identifier)]
}

// Set overwrites the entry for identifier.
func (t Table) Set(identifier, value string) error {
	key := CleanKey(identifier)
	if key == "" {
		return ErrEmptyIdentifier
	}
	t[key] = value
	return nil
}

// Append adds phrase to the entry's list unless an equal phrase, compared
// case-insensitively after trimming, is already there. It reports whether the
// table changed.
func (t Table) Append(identifier, phrase string) (bool, error) {
	key := CleanKey(identifier)
	if key == "" {
		return false, ErrEmptyIdentifier
	}

	phrase = strings.TrimSpace(phrase)
	existing, ok := t[key]
	if existing == "" {
		t[key] = phrase
		return !ok || phrase != "", nil
	}
	if phrase == "" {
		return false, nil
	}

	for _, p := range SplitPhrases(existing) {
		if strings.EqualFold(p, phrase) {
			return false, nil
		}
	}

	t[key] = existing + ", " + phrase
	return true, nil
}

// RemoveWord drops every phrase equal to phrase (case-insensitive, trimmed)
// from the entry and rewrites the list in normalized ", " form. Entries that
// are absent or empty are left untouched.
func (t Table) RemoveWord(identifier, phrase string) (bool, error) {
	key := CleanKey(identifier)
	if key == "" {
		return false, ErrEmptyIdentifier
	}

	existing := t[key]
	if existing == "" {
		return false, nil
	}

	target := strings.TrimSpace(phrase)
	kept := make([]string, 0)
	for _, p := range SplitPhrases(existing) {
		if !strings.EqualFold(p, target) {
			kept = append(kept, p)
		}
	}

	t[key] = JoinPhrases(kept)
	return true, nil
}

// Keys returns the stored keys in sorted order.
func (t Table) Keys() []string {
	return t.sortedKeys()
}

func (t Table) sortedKeys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

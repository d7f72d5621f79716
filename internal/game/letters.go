package game

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
)

// Letters counts how many times each letter may still be used.
type Letters map[rune]int

// Normalize trims and case-folds a word so that comparisons, multiset
// construction and dictionary lookups all agree.
func Normalize(word string) string {
	word = strings.TrimSpace(word)
	if word == "" {
		return ""
	}
	return cases.Fold().String(word)
}

func CountLetters(word string) Letters {
	counts := make(Letters, len(word))
	for _, r := range word {
		counts[r]++
	}
	return counts
}

func (l Letters) Clone() Letters {
	out := make(Letters, len(l))
	for r, n := range l {
		out[r] = n
	}
	return out
}

// Covers reports whether every letter of word is available in at least the
// required count.
func (l Letters) Covers(word string) bool {
	for r, need := range CountLetters(word) {
		if need > l[r] {
			return false
		}
	}
	return true
}

// Consume returns the counts left after spelling word, or false if word
// needs a letter more often than it is available. l is never modified, so a
// failed match consumes nothing.
func (l Letters) Consume(word string) (Letters, bool) {
	if !l.Covers(word) {
		return nil, false
	}
	out := l.Clone()
	for r, need := range CountLetters(word) {
		out[r] -= need
	}
	return out, true
}

func (l Letters) Total() int {
	return lo.Sum(lo.Values(map[rune]int(l)))
}

// Strings renders the counts with string keys for JSON.
func (l Letters) Strings() map[string]int {
	return lo.MapKeys(map[rune]int(l), func(_ int, r rune) string { return string(r) })
}

package mentions

import (
	"strings"
	"unicode"
)

// Normalize lowercases text and replaces punctuation with spaces. Apostrophes
// are dropped so "bitcoin's" and "bitcoins" normalize the same way.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’':
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}

// containsRun reports the first index where needle occurs contiguously in hay.
func containsRun(hay, needle []string) (int, bool) {
	if len(needle) == 0 || len(needle) > len(hay) {
		return -1, false
	}
outer:
	for i := 0; i+len(needle) <= len(hay); i++ {
		for j := range needle {
			if hay[i+j] != needle[j] {
				continue outer
			}
		}
		return i, true
	}
	return -1, false
}

func counts(tokens []string) map[string]int {
	out := make(map[string]int, len(tokens))
	for _, t := range tokens {
		out[t]++
	}
	return out
}

// matchedCount is the multiset intersection size of topic against have.
func matchedCount(topic []string, have map[string]int) int {
	need := counts(topic)
	n := 0
	for tok, c := range need {
		n += min(c, have[tok])
	}
	return n
}

// allPresent reports whether every distinct topic token is in have.
func allPresent(topic []string, have map[string]int) bool {
	for _, t := range topic {
		if have[t] == 0 {
			return false
		}
	}
	return true
}

func anyPresent(topic []string, have map[string]int) bool {
	for _, t := range topic {
		if have[t] > 0 {
			return true
		}
	}
	return false
}

func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}

package faq

import (
	"strings"
	"unicode"
)

// Matcher maps a normalized query to a canned answer. Matching is exact on
// the normalized question text first, then token-overlap similarity above a
// configurable threshold. Read-only after construction.
type Matcher struct {
	entries   []Entry
	exact     map[string]int // normalized question -> entries index
	tokens    []map[string]struct{}
	threshold float64
}

func NewMatcher(entries []Entry, threshold float64) *Matcher {
	m := &Matcher{
		entries:   entries,
		exact:     make(map[string]int, len(entries)),
		tokens:    make([]map[string]struct{}, len(entries)),
		threshold: threshold,
	}
	for i, e := range entries {
		norm := Normalize(e.Question)
		if _, dup := m.exact[norm]; !dup {
			m.exact[norm] = i
		}
		set := make(map[string]struct{})
		for _, tok := range tokenize(e.Question) {
			set[tok] = struct{}{}
		}
		for _, tag := range e.Tags {
			for _, tok := range tokenize(tag) {
				set[tok] = struct{}{}
			}
		}
		m.tokens[i] = set
	}
	return m
}

// Match returns the canned answer for a query, with its similarity score.
// ok is false when nothing clears the threshold; that is an expected
// outcome, not an error.
func (m *Matcher) Match(query string) (answer string, score float64, ok bool) {
	norm := Normalize(query)
	if idx, found := m.exact[norm]; found {
		return m.entries[idx].Answer, 1.0, true
	}

	qTokens := tokenize(query)
	if len(qTokens) == 0 {
		return "", 0, false
	}
	qSet := make(map[string]struct{}, len(qTokens))
	for _, tok := range qTokens {
		qSet[tok] = struct{}{}
	}

	bestIdx := -1
	bestScore := 0.0
	for i, set := range m.tokens {
		if len(set) == 0 {
			continue
		}
		overlap := 0
		for tok := range qSet {
			if _, hit := set[tok]; hit {
				overlap++
			}
		}
		s := float64(overlap) / float64(len(set))
		better := s > bestScore
		// Ties go to the shortest stored question, the most specific entry.
		if s == bestScore && bestIdx >= 0 && s > 0 &&
			len(m.entries[i].Question) < len(m.entries[bestIdx].Question) {
			better = true
		}
		if better {
			bestScore = s
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestScore < m.threshold {
		return "", 0, false
	}
	return m.entries[bestIdx].Answer, bestScore, true
}

// Normalize lower-cases, folds punctuation to spaces and collapses runs of
// whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenize splits normalized text into tokens, keeping only tokens longer
// than one rune.
func tokenize(s string) []string {
	var out []string
	for _, tok := range strings.Fields(Normalize(s)) {
		if len(tok) > 1 {
			out = append(out, tok)
		}
	}
	return out
}

package escalation

import (
	"strings"
	"unicode"
)

// Filter flags queries that must be routed to a human before any model call.
// It is a static keyword check, not learned classification: a query escalates
// when any configured trigger term appears as a whole token in the
// normalized query. Stateless and deterministic.
type Filter struct {
	triggers map[string]struct{}
}

func NewFilter(keywords []string) *Filter {
	triggers := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			triggers[kw] = struct{}{}
		}
	}
	return &Filter{triggers: triggers}
}

func (f *Filter) ShouldEscalate(query string) bool {
	for _, tok := range tokenize(query) {
		if _, hit := f.triggers[tok]; hit {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Package domainfilter decides whether input text plausibly belongs to
// the clothing/fashion/retail domain. It uses an Aho-Corasick automaton
// for a single O(n+m) pass over the text.
package domainfilter

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Filter is a process-lifetime, read-only predicate over input text.
// Matching is case-insensitive substring search: no tokenization, no
// stemming, no punctuation handling. A keyword embedded inside a longer
// word (e.g. "cap" inside "capsize") still matches; this imprecision is
// part of the contract.
type Filter struct {
	matcher  *ahocorasick.Matcher
	keywords []string
}

// New builds a Filter from the given keyword set. Keywords are
// lowercased and deduplicated; empty entries are dropped. A nil or
// empty slice falls back to DefaultKeywords.
func New(keywords []string) *Filter {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	normalized := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		normalized = append(normalized, kw)
	}

	return &Filter{
		matcher:  ahocorasick.NewStringMatcher(normalized),
		keywords: normalized,
	}
}

// Allowed reports whether any configured keyword occurs as a substring
// of the lowercased text. Empty text never matches.
func (f *Filter) Allowed(text string) bool {
	return len(f.Matches(text)) > 0
}

// Matches returns the distinct keywords found in the text, ordered by
// first occurrence, for diagnostics and logging.
func (f *Filter) Matches(text string) []string {
	if text == "" {
		return nil
	}
	hits := f.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))
	matched := make([]string, 0, len(hits))
	for _, idx := range hits {
		if idx < len(f.keywords) {
			matched = append(matched, f.keywords[idx])
		}
	}
	return matched
}

// Keywords returns a copy of the configured keyword set.
func (f *Filter) Keywords() []string {
	out := make([]string, len(f.keywords))
	copy(out, f.keywords)
	return out
}

// Size returns the number of configured keywords.
func (f *Filter) Size() int {
	return len(f.keywords)
}

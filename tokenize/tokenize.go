// Package tokenize provides a lightweight Korean-aware tokenizer for keyword
// scoring. It is deliberately morphology-free: whitespace splitting with
// punctuation stripping and stop-word removal is enough for overlap and
// Jaccard signals over insurance documents.
package tokenize

import (
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`[^\p{Hangul}\p{Latin}\p{N}\s]`)
var digitsOnly = regexp.MustCompile(`^\p{N}+$`)

var stopWords = map[string]struct{}{
	"이": {}, "가": {}, "은": {}, "는": {}, "을": {}, "를": {},
	"에": {}, "의": {}, "와": {}, "과": {}, "로": {}, "으로": {},
	"에서": {}, "에게": {}, "부터": {}, "까지": {}, "처럼": {},
	"그리고": {}, "그런데": {}, "하지만": {}, "또는": {}, "및": {},
	"있는": {}, "없는": {}, "대한": {}, "관한": {}, "위한": {},
	"the": {}, "a": {}, "an": {}, "of": {}, "and": {}, "or": {}, "in": {}, "to": {},
}

// domainTerms get priority when extracting keywords for query enhancement.
var domainTerms = map[string]struct{}{
	"보험": {}, "보장": {}, "특약": {}, "면책": {}, "약관": {},
	"보험금": {}, "보험료": {}, "가입": {}, "청구": {}, "한도": {},
	"치료비": {}, "상해": {}, "질병": {}, "휴대품": {}, "배상책임": {},
	"항공기": {}, "수하물": {}, "여행": {}, "해외": {}, "실손": {},
}

const (
	minTokenLen = 2
	maxTokenLen = 15
)

// Tokens splits text into lowercase keyword tokens. Tokens shorter than two
// runes, longer than fifteen runes, digit-only, or stop words are dropped.
func Tokens(text string) []string {
	if text == "" {
		return nil
	}
	s := strings.ToLower(text)
	s = nonWord.ReplaceAllString(s, " ")
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		n := len([]rune(f))
		if n < minTokenLen || n > maxTokenLen {
			continue
		}
		if digitsOnly.MatchString(f) {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// TokenSet returns the unique tokens of text.
func TokenSet(text string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, tok := range Tokens(text) {
		set[tok] = struct{}{}
	}
	return set
}

// DomainKeywords extracts up to max keywords from text, domain terms first,
// then remaining tokens in frequency order.
func DomainKeywords(text string, max int) []string {
	if max <= 0 {
		return nil
	}
	toks := Tokens(text)
	freq := map[string]int{}
	order := []string{}
	for _, tok := range toks {
		if freq[tok] == 0 {
			order = append(order, tok)
		}
		freq[tok]++
	}

	var out []string
	seen := map[string]struct{}{}
	take := func(tok string) bool {
		if _, dup := seen[tok]; dup {
			return false
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		return len(out) >= max
	}

	for _, tok := range order {
		if _, domain := domainTerms[tok]; !domain {
			continue
		}
		if take(tok) {
			return out
		}
	}
	// Non-domain tokens by frequency, stable on first appearance.
	rest := make([]string, 0, len(order))
	for _, tok := range order {
		if _, domain := domainTerms[tok]; !domain {
			rest = append(rest, tok)
		}
	}
	for i := 0; i < len(rest); i++ {
		best := i
		for j := i + 1; j < len(rest); j++ {
			if freq[rest[j]] > freq[rest[best]] {
				best = j
			}
		}
		rest[i], rest[best] = rest[best], rest[i]
		if take(rest[i]) {
			return out
		}
	}
	return out
}

// Jaccard computes token-set Jaccard similarity of two texts in [0,1].
func Jaccard(a, b string) float64 {
	sa, sb := TokenSet(a), TokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for tok := range sa {
		if _, ok := sb[tok]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Overlap returns the fraction of query tokens present in text, in [0,1].
func Overlap(query, text string) float64 {
	q := TokenSet(query)
	if len(q) == 0 {
		return 0
	}
	ts := TokenSet(text)
	hit := 0
	for tok := range q {
		if _, ok := ts[tok]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(q))
}

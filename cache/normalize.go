package cache

import (
	"regexp"
	"strings"
)

// Normalizer canonicalizes questions so near-duplicate phrasings hash to the
// same cache key: lowercase, punctuation stripped (Hangul preserved), request
// verbs and interrogatives normalized, insurer names canonicalized, stop
// words removed, whitespace dropped. Korean spacing is inconsistent between
// writers ("보장 내용" vs "보장내용"), so the canonical form carries no spaces
// at all.
type Normalizer struct {
	synonyms  []synonym
	stopWords map[string]struct{}
}

type synonym struct{ from, to string }

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// NewNormalizer builds the default Korean insurance-domain normalizer.
func NewNormalizer() *Normalizer {
	// Substitution order matters: longer, more specific forms first.
	syns := []synonym{
		// request verbs
		{"알려주세요", "알려줘"},
		{"설명해주세요", "알려줘"},
		{"말씀해주세요", "알려줘"},
		{"가르쳐주세요", "알려줘"},
		{"안내해주세요", "알려줘"},
		// interrogatives
		{"어떤", "무엇"},
		{"어느", "무엇"},
		{"어떻게", "방법"},
		{"얼마", "가격"},
		{"언제", "몇시"},
		{"왜", "이유"},
		// product terms
		{"해외여행보험", "여행보험"},
		{"여행자보험", "여행보험"},
		// insurer canonicalization
		{"kb손해보험", "kb보험"},
		{"kb손보", "kb보험"},
		{"db손해보험", "db보험"},
		{"db손보", "db보험"},
		{"삼성화재", "삼성보험"},
		{"현대해상", "현대보험"},
		{"카카오페이손해보험", "카카오보험"},
		{"카카오페이", "카카오보험"},
	}
	stops := map[string]struct{}{}
	for _, w := range []string{
		"그런데", "그리고", "그러면", "그래서", "그런", "그러니까",
		"아", "어", "음", "네", "예", "좋아요", "감사합니다",
	} {
		stops[w] = struct{}{}
	}
	return &Normalizer{synonyms: syns, stopWords: stops}
}

// Normalize returns the canonical form of a question.
func (n *Normalizer) Normalize(q string) string {
	if q == "" {
		return ""
	}
	s := strings.ToLower(q)
	s = nonWord.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	for _, syn := range n.synonyms {
		s = strings.ReplaceAll(s, syn.from, syn.to)
	}
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, stop := n.stopWords[w]; !stop {
			kept = append(kept, w)
		}
	}
	// Space-free canonical form: variants differing only in internal spacing
	// collapse onto one key.
	return strings.Join(kept, "")
}

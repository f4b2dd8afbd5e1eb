package gazetteer

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Gazetteer resolves insurer mentions in Korean text to canonical insurer
// names via multi-pattern matching over an alias table.
type Gazetteer struct {
	matcher   *ahocorasick.Matcher
	canonical []string // pattern index -> canonical name
	names     map[string]struct{}
}

// alias table: canonical name first, then surface variants seen in corpus
// documents and user questions.
var defaultAliases = map[string][]string{
	"삼성보험":  {"삼성보험", "삼성화재", "삼성화재해상보험", "samsung fire"},
	"현대보험":  {"현대보험", "현대해상", "현대해상화재보험", "hyundai marine"},
	"KB보험":   {"kb보험", "kb손해보험", "kb손보", "케이비손해보험"},
	"DB보험":   {"db보험", "db손해보험", "db손보", "동부화재"},
	"메리츠보험": {"메리츠보험", "메리츠화재", "meritz"},
	"한화보험":  {"한화보험", "한화손해보험", "한화손보"},
	"카카오보험": {"카카오보험", "카카오페이손해보험", "카카오페이손보", "카카오페이"},
	"롯데보험":  {"롯데보험", "롯데손해보험", "롯데손보"},
	"흥국보험":  {"흥국보험", "흥국화재"},
	"AIG보험":  {"aig보험", "aig손해보험", "에이아이지"},
}

// New builds a gazetteer over the default insurer alias table.
func New() *Gazetteer {
	return NewWithAliases(defaultAliases)
}

// NewWithAliases builds a gazetteer from an explicit canonical->aliases map.
func NewWithAliases(aliases map[string][]string) *Gazetteer {
	var patterns []string
	var canonical []string
	names := make(map[string]struct{}, len(aliases))
	for name, forms := range aliases {
		names[name] = struct{}{}
		for _, f := range forms {
			patterns = append(patterns, strings.ToLower(f))
			canonical = append(canonical, name)
		}
	}
	return &Gazetteer{
		matcher:   ahocorasick.NewStringMatcher(patterns),
		canonical: canonical,
		names:     names,
	}
}

// FindAll returns the unique canonical insurers mentioned in text, in order
// of first mention.
func (g *Gazetteer) FindAll(text string) []string {
	if text == "" {
		return nil
	}
	// One gazetteer is shared across stages and concurrent turns; plain
	// Match mutates matcher-internal state.
	hits := g.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))
	seen := make(map[string]struct{}, len(hits))
	var out []string
	for _, idx := range hits {
		name := g.canonical[idx]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Detect returns the first insurer mentioned in a question and whether the
// canonical name itself appears verbatim (as opposed to an alias). A verbatim
// canonical mention signals a user who already knows the product line, which
// shifts retrieval weighting further toward keyword evidence.
func (g *Gazetteer) Detect(question string) (insurer string, literal bool) {
	found := g.FindAll(question)
	if len(found) == 0 {
		return "", false
	}
	insurer = found[0]
	literal = strings.Contains(strings.ToLower(question), strings.ToLower(insurer))
	return insurer, literal
}

// IsInsurer reports whether name is a known canonical insurer.
func (g *Gazetteer) IsInsurer(name string) bool {
	_, ok := g.names[name]
	return ok
}

// Canonical maps any alias to its canonical insurer name, or returns the
// input unchanged when unknown.
func (g *Gazetteer) Canonical(name string) string {
	hits := g.matcher.MatchThreadSafe([]byte(strings.ToLower(name)))
	if len(hits) == 0 {
		return name
	}
	return g.canonical[hits[0]]
}

package verify

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"sort"

	"github.com/inscope-ai/ragcore/schema"
)

const snippetMaxRunes = 160

// PII patterns masked out of snippets: Korean phone numbers and resident
// registration numbers.
var (
	phonePattern = regexp.MustCompile(`0\d{1,2}[- ]?\d{3,4}[- ]?\d{4}`)
	rrnPattern   = regexp.MustCompile(`\d{6}[- ]?\d{7}`)
)

// BuildCitations projects annotated passages into sanitized citations.
// Target-insurer passages rank first, preserving within-group score order;
// duplicates are dropped by content hash.
func BuildCitations(passages []schema.Passage, targetInsurer string) []schema.Citation {
	if len(passages) == 0 {
		return nil
	}
	ordered := make([]schema.Passage, len(passages))
	copy(ordered, passages)
	sort.SliceStable(ordered, func(i, j int) bool {
		im := targetInsurer != "" && ordered[i].Insurer == targetInsurer
		jm := targetInsurer != "" && ordered[j].Insurer == targetInsurer
		if im != jm {
			return im
		}
		return ordered[i].Score > ordered[j].Score
	})

	seen := map[string]struct{}{}
	out := make([]schema.Citation, 0, len(ordered))
	for _, p := range ordered {
		sum := md5.Sum([]byte(p.Text))
		hash := hex.EncodeToString(sum[:])
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}
		out = append(out, schema.Citation{
			DocID:          p.DocID,
			Page:           p.Page,
			Version:        p.Version,
			Insurer:        p.Insurer,
			URL:            p.URL,
			Hash:           hash,
			Snippet:        snippet(p.Text),
			Score:          p.Score,
			SourceWeight:   p.SourceWeight,
			IsInsurerMatch: targetInsurer != "" && p.Insurer == targetInsurer,
		})
	}
	return out
}

// snippet masks PII and caps length.
func snippet(text string) string {
	masked := rrnPattern.ReplaceAllString(text, "******-*******")
	masked = phonePattern.ReplaceAllString(masked, "***-****-****")
	runes := []rune(masked)
	if len(runes) > snippetMaxRunes {
		return string(runes[:snippetMaxRunes]) + "…"
	}
	return masked
}

// Package verify applies the evidence policy to refined passages: minimum
// requirements, staleness and score checks, source-trust weighting, numeric
// conflict detection, and citation construction.
package verify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/inscope-ai/ragcore/common/logger"
	"github.com/inscope-ai/ragcore/config"
	"github.com/inscope-ai/ragcore/metrics"
	"github.com/inscope-ai/ragcore/schema"
)

// Engine evaluates evidence sufficiency for one turn. The policy document is
// consulted on every pass so hot reloads take effect between turns.
type Engine struct {
	Policy *config.PolicyLoader
	// now is injectable for staleness tests.
	now func() time.Time
}

func New(loader *config.PolicyLoader) *Engine {
	return &Engine{Policy: loader, now: time.Now}
}

type dedupKey struct {
	docID   string
	page    int
	version string
}

// Verify checks refined passages against policy, returning the verification
// result, the annotated (deduplicated, weighted, flagged) passages, and
// sanitized citations. It never fails; missing policy falls back to defaults.
func (e *Engine) Verify(refined []schema.Passage, intent string, insurerFilter []string) (schema.VerificationResult, []schema.Passage, []schema.Citation) {
	policy, policyWarnings := e.Policy.Current()
	for _, w := range policyWarnings {
		logger.Warnf("verify: policy: %s", w)
	}

	reqs := policy.Requirements(intent)
	var warnings []string
	warnings = append(warnings, policyWarnings...)

	// Dedup by (doc_id, page, version), then trust-weight by doc type.
	seen := map[dedupKey]struct{}{}
	annotated := make([]schema.Passage, 0, len(refined))
	for _, p := range refined {
		key := dedupKey{docID: p.DocID, page: p.Page, version: p.Version}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		p.SourceWeight = policy.SourceWeight(p.DocType)
		annotated = append(annotated, p)
	}

	// Staleness and low-score flags: one warning per category.
	var stale, lowScore int
	maxAge := time.Duration(policy.Quality.MaxAgeDays) * 24 * time.Hour
	cutoff := e.now().Add(-maxAge)
	for i := range annotated {
		p := &annotated[i]
		if !p.VersionDate.IsZero() && p.VersionDate.Before(cutoff) {
			p.NeedsMoreSearch = true
			stale++
		}
		if p.Score < policy.Quality.MinScore {
			p.NeedsMoreSearch = true
			lowScore++
		}
	}
	if stale > 0 {
		warnings = append(warnings, fmt.Sprintf("오래된 문서 %d건: 최신 약관 확인이 필요합니다", stale))
	}
	if lowScore > 0 {
		warnings = append(warnings, fmt.Sprintf("신뢰도 낮은 근거 %d건: 추가 검색이 필요합니다", lowScore))
	}

	conflict := DetectConflicts(annotated)
	if conflict != nil {
		warnings = append(warnings, conflictWarning(conflict))
	}

	target := ""
	if len(insurerFilter) > 0 {
		target = insurerFilter[0]
	}
	citations := BuildCitations(annotated, target)

	result := schema.VerificationResult{
		Requirements: reqs,
		Warnings:     warnings,
		Disclaimer:   policy.Disclaimer(),
		Metrics: schema.VerifyMetrics{
			ContextCount:  len(annotated),
			CitationCount: len(citations),
			InsurerCount:  distinctInsurers(annotated),
			StaleCount:    stale,
			LowScoreCount: lowScore,
		},
	}
	if conflict != nil {
		result.Metrics.ConflictCount = 1
	}

	unmet := result.Metrics.ContextCount < reqs.MinContext ||
		result.Metrics.CitationCount < reqs.MinCitations ||
		result.Metrics.InsurerCount < reqs.MinInsurers
	if unmet {
		result.Warnings = append(result.Warnings,
			"근거가 최소 기준에 미달합니다: 추가 확인을 권장합니다")
	}

	switch {
	case conflict != nil || stale > 0 || lowScore > 0:
		result.Status = schema.VerifyFail
		result.NextAction = schema.ActionBroadenSearch
	case unmet:
		result.Status = schema.VerifyWarn
		result.NextAction = schema.ActionBroadenSearch
	case len(result.Warnings) > 0:
		result.Status = schema.VerifyWarn
		result.NextAction = schema.ActionProceed
	default:
		result.Status = schema.VerifyPass
		result.NextAction = schema.ActionProceed
	}
	metrics.IncVerifyStatus(string(result.Status))
	return result, annotated, citations
}

func conflictWarning(c *Conflict) string {
	insurers := append([]string(nil), c.Insurers...)
	sort.Strings(insurers)
	return fmt.Sprintf("상충 탐지: 보험사별 금액이 다릅니다 (%s)", strings.Join(insurers, ", "))
}

func distinctInsurers(passages []schema.Passage) int {
	set := map[string]struct{}{}
	for _, p := range passages {
		if p.Insurer != "" {
			set[p.Insurer] = struct{}{}
		}
	}
	return len(set)
}

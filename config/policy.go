package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inscope-ai/ragcore/common/logger"
	"github.com/inscope-ai/ragcore/ragerr"
	"github.com/inscope-ai/ragcore/schema"
)

// FallbackDisclaimer is used when the policy document provides none.
const FallbackDisclaimer = "본 답변은 참고용 정보이며, 정확한 보장 내용은 해당 보험사의 최신 약관 및 증권을 반드시 확인하시기 바랍니다."

// Policy is the operator-editable policy document. Missing keys fall back to
// hardcoded defaults; a missing file is non-fatal.
type Policy struct {
	Legal struct {
		Disclaimer string `yaml:"disclaimer"`
	} `yaml:"legal"`
	Quality struct {
		MinScore   float64 `yaml:"min_score"`
		MaxAgeDays int     `yaml:"max_age_days"`
	} `yaml:"quality"`
	IntentRequirements map[string]schema.Requirements `yaml:"intent_requirements"`
	SourceWeights      map[string]float64             `yaml:"source_weights"`
	System             struct {
		Replan struct {
			MaxAttempts           int     `yaml:"max_attempts"`
			MaxStructuredFailures int     `yaml:"max_structured_failures"`
			QualityThreshold      float64 `yaml:"quality_threshold"`
		} `yaml:"replan"`
	} `yaml:"system"`
}

// DefaultPolicy returns the hardcoded policy used when loading fails.
func DefaultPolicy() *Policy {
	p := &Policy{}
	p.Legal.Disclaimer = FallbackDisclaimer
	p.Quality.MinScore = 0.1
	p.Quality.MaxAgeDays = 730
	p.IntentRequirements = map[string]schema.Requirements{
		schema.IntentQA:        {MinContext: 1, MinCitations: 1, MinInsurers: 1},
		schema.IntentCompare:   {MinContext: 3, MinCitations: 3, MinInsurers: 2},
		schema.IntentRecommend: {MinContext: 3, MinCitations: 3, MinInsurers: 2},
		schema.IntentSummary:   {MinContext: 2, MinCitations: 2, MinInsurers: 1},
	}
	p.SourceWeights = map[string]float64{
		"terms":    1.0, // official policy terms
		"notice":   0.8,
		"guidance": 0.6,
		"web":      0.4,
		"other":    0.5,
	}
	p.System.Replan.MaxAttempts = 2
	p.System.Replan.MaxStructuredFailures = 2
	p.System.Replan.QualityThreshold = 0.7
	return p
}

// Requirements resolves the minimums for an intent, falling back to the qa
// defaults for unknown intents.
func (p *Policy) Requirements(intent string) schema.Requirements {
	if r, ok := p.IntentRequirements[intent]; ok {
		return r
	}
	if r, ok := p.IntentRequirements[schema.IntentQA]; ok {
		return r
	}
	return schema.Requirements{MinContext: 1, MinCitations: 1, MinInsurers: 1}
}

// SourceWeight resolves the trust weight for a document type.
func (p *Policy) SourceWeight(docType string) float64 {
	if w, ok := p.SourceWeights[docType]; ok {
		return w
	}
	if w, ok := p.SourceWeights["other"]; ok {
		return w
	}
	return 0.5
}

// Disclaimer always returns a non-empty legal disclaimer.
func (p *Policy) Disclaimer() string {
	if p.Legal.Disclaimer != "" {
		return p.Legal.Disclaimer
	}
	return FallbackDisclaimer
}

// PolicyLoader reads the policy document with a TTL-based reload, explicit
// Refresh/Invalidate, and default substitution on failure. Schema problems
// surface as warnings, never as errors.
type PolicyLoader struct {
	path string
	ttl  time.Duration

	mu       sync.RWMutex
	cached   *Policy
	warnings []string
	fetched  time.Time
}

// NewPolicyLoader creates a loader; ttl <= 0 defaults to one minute.
func NewPolicyLoader(cfg PolicyConfig) *PolicyLoader {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &PolicyLoader{path: cfg.Path, ttl: ttl}
}

// Current returns the active policy and any schema warnings, reloading from
// disk when the TTL has elapsed.
func (l *PolicyLoader) Current() (*Policy, []string) {
	l.mu.RLock()
	if l.cached != nil && time.Since(l.fetched) < l.ttl {
		p, w := l.cached, l.warnings
		l.mu.RUnlock()
		return p, w
	}
	l.mu.RUnlock()
	return l.Refresh()
}

// Refresh reloads unconditionally and returns the new policy.
func (l *PolicyLoader) Refresh() (*Policy, []string) {
	p, warnings := l.load()
	l.mu.Lock()
	l.cached = p
	l.warnings = warnings
	l.fetched = time.Now()
	l.mu.Unlock()
	return p, warnings
}

// Invalidate drops the cached policy so the next Current reloads.
func (l *PolicyLoader) Invalidate() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}

func (l *PolicyLoader) load() (*Policy, []string) {
	defaults := DefaultPolicy()
	if l.path == "" {
		return defaults, nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		logger.Warnf("policy: %v", ragerr.E(ragerr.KindPolicyLoad, err))
		return defaults, []string{fmt.Sprintf("policy document unavailable (%s), using defaults", l.path)}
	}
	loaded := &Policy{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		logger.Warnf("policy: %v", ragerr.E(ragerr.KindPolicyLoad, err))
		return defaults, []string{"policy document unparsable, using defaults"}
	}
	return mergePolicy(loaded, defaults)
}

// mergePolicy fills missing keys from defaults, collecting a schema warning
// per missing required section.
func mergePolicy(p, defaults *Policy) (*Policy, []string) {
	var warnings []string
	warn := func(key string) {
		warnings = append(warnings, fmt.Sprintf("policy missing %q, using default", key))
	}
	if p.Legal.Disclaimer == "" {
		p.Legal.Disclaimer = defaults.Legal.Disclaimer
		warn("legal.disclaimer")
	}
	if p.Quality.MinScore <= 0 {
		p.Quality.MinScore = defaults.Quality.MinScore
		warn("quality.min_score")
	}
	if p.Quality.MaxAgeDays <= 0 {
		p.Quality.MaxAgeDays = defaults.Quality.MaxAgeDays
		warn("quality.max_age_days")
	}
	if len(p.IntentRequirements) == 0 {
		p.IntentRequirements = defaults.IntentRequirements
		warn("intent_requirements")
	} else {
		for intent, req := range defaults.IntentRequirements {
			if _, ok := p.IntentRequirements[intent]; !ok {
				p.IntentRequirements[intent] = req
			}
		}
	}
	if len(p.SourceWeights) == 0 {
		p.SourceWeights = defaults.SourceWeights
		warn("source_weights")
	}
	r := &p.System.Replan
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = defaults.System.Replan.MaxAttempts
	}
	if r.MaxStructuredFailures <= 0 {
		r.MaxStructuredFailures = defaults.System.Replan.MaxStructuredFailures
	}
	if r.QualityThreshold <= 0 {
		r.QualityThreshold = defaults.System.Replan.QualityThreshold
	}
	if len(warnings) > 0 {
		logger.Warnf("policy: %v", ragerr.Errorf(ragerr.KindPolicySchema, "%d missing key(s)", len(warnings)))
	}
	return p, warnings
}

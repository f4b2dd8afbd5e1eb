package schema

import "time"

// Source values for Passage.Source.
const (
	SourceCorpus = "corpus"
	SourceWeb    = "web"
)

// Intent labels produced by the external planner.
const (
	IntentQA        = "qa"
	IntentCompare   = "compare"
	IntentRecommend = "recommend"
	IntentSummary   = "summary"
)

// DocCap returns the per-intent cap on refined documents.
func DocCap(intent string) int {
	if intent == IntentCompare {
		return 8
	}
	return 5
}

// Passage is one retrieved unit of evidence. Identity fields and Text are
// immutable after retrieval; score fields are rewritten by the rank and
// verify stages. A Passage lives for one query turn.
type Passage struct {
	DocID       string    `json:"doc_id"`
	Page        int       `json:"page"`
	Version     string    `json:"version,omitempty"`
	VersionDate time.Time `json:"version_date,omitempty"`
	Insurer     string    `json:"insurer,omitempty"`
	DocType     string    `json:"doc_type,omitempty"`
	Source      string    `json:"source,omitempty"`
	Title       string    `json:"title,omitempty"`
	URL         string    `json:"url,omitempty"`
	Text        string    `json:"text"`

	Score           float64            `json:"score"`
	ScoreComponents map[string]float64 `json:"score_components,omitempty"`
	SourceWeight    float64            `json:"source_weight,omitempty"`

	// NeedsMoreSearch is set by the verify stage when the passage is stale
	// or scored below the policy threshold.
	NeedsMoreSearch bool `json:"needs_more_search,omitempty"`
}

// Component sets or updates one named score component.
func (p *Passage) Component(name string, v float64) {
	if p.ScoreComponents == nil {
		p.ScoreComponents = make(map[string]float64, 4)
	}
	p.ScoreComponents[name] = v
}

// CloneComponents replaces the components map with a private copy. A struct
// copy of a passage still shares the map with the original; callers that
// annotate copies taken from a shared index must detach it first.
func (p *Passage) CloneComponents() {
	if p.ScoreComponents == nil {
		return
	}
	cp := make(map[string]float64, len(p.ScoreComponents))
	for k, v := range p.ScoreComponents {
		cp[k] = v
	}
	p.ScoreComponents = cp
}

// SearchMeta is the diagnostic record for one hybrid search invocation.
// Append-only; one per search call.
type SearchMeta struct {
	KValue         int      `json:"k_value"`
	CandidateCount int      `json:"candidate_count"`
	UsedQuery      string   `json:"used_query"`
	WebKeywords    []string `json:"web_keywords,omitempty"`
	FromCache      bool     `json:"from_cache"`
	Reason         string   `json:"reason,omitempty"`
}

// Search failure reasons recorded in SearchMeta.Reason.
const (
	ReasonEmptyQuestion   = "empty_question"
	ReasonNoSearchResults = "no_search_results"
	ReasonSearchErrorPfx  = "search_error:"
)

// Citation is a sanitized projection of a Passage. Never mutated after
// construction; deduplicated by content Hash.
type Citation struct {
	DocID          string  `json:"doc_id"`
	Page           int     `json:"page"`
	Version        string  `json:"version,omitempty"`
	Insurer        string  `json:"insurer,omitempty"`
	URL            string  `json:"url,omitempty"`
	Hash           string  `json:"hash"`
	Snippet        string  `json:"snippet"`
	Score          float64 `json:"score"`
	SourceWeight   float64 `json:"source_weight,omitempty"`
	IsInsurerMatch bool    `json:"is_insurer_match,omitempty"`
}

// VerificationStatus is the outcome of the verify stage.
type VerificationStatus string

const (
	VerifyPass VerificationStatus = "pass"
	VerifyWarn VerificationStatus = "warn"
	VerifyFail VerificationStatus = "fail"
)

// NextAction tells the orchestrator what to do after verification.
type NextAction string

const (
	ActionProceed       NextAction = "proceed"
	ActionBroadenSearch NextAction = "broaden_search"
)

// Requirements are the per-intent minimum evidence thresholds.
type Requirements struct {
	MinContext   int `json:"min_context" yaml:"min_context"`
	MinCitations int `json:"min_citations" yaml:"min_citations"`
	MinInsurers  int `json:"min_insurers" yaml:"min_insurers"`
}

// VerifyMetrics records what the verify stage observed.
type VerifyMetrics struct {
	ContextCount  int `json:"context_count"`
	CitationCount int `json:"citation_count"`
	InsurerCount  int `json:"insurer_count"`
	StaleCount    int `json:"stale_count"`
	LowScoreCount int `json:"low_score_count"`
	ConflictCount int `json:"conflict_count"`
}

// VerificationResult is computed once per verify pass and never mutated.
type VerificationResult struct {
	Status       VerificationStatus `json:"status"`
	NextAction   NextAction         `json:"next_action"`
	Warnings     []string           `json:"warnings,omitempty"`
	Requirements Requirements       `json:"requirements"`
	Metrics      VerifyMetrics      `json:"metrics"`
	Disclaimer   string             `json:"disclaimer,omitempty"`
}

// QualityResult is one quality-gate evaluation of a draft answer.
type QualityResult struct {
	Score       float64 `json:"score"`
	Feedback    string  `json:"feedback,omitempty"`
	NeedsReplan bool    `json:"needs_replan"`
	ReplanQuery string  `json:"replan_query,omitempty"`
}

// Quote is a verbatim excerpt the answerer attributes to a source.
type Quote struct {
	Source string `json:"source,omitempty"`
	Text   string `json:"text"`
}

// Answer is the structured draft returned by the external answerer.
type Answer struct {
	Conclusion string   `json:"conclusion"`
	Evidence   []string `json:"evidence,omitempty"`
	Caveats    []string `json:"caveats,omitempty"`
	Quotes     []Quote  `json:"quotes,omitempty"`
}

// Text flattens the answer for heuristic scoring.
func (a *Answer) Text() string {
	if a == nil {
		return ""
	}
	out := a.Conclusion
	for _, e := range a.Evidence {
		out += " " + e
	}
	return out
}

// TraceRecord is appended once per orchestrator transition.
type TraceRecord struct {
	Node      string `json:"node"`
	LatencyMS int64  `json:"latency_ms"`
	InTokens  int    `json:"in_tokens_approx"`
	OutTokens int    `json:"out_tokens_approx"`
}

// TurnRequest is the inbound contract from the thin API layer.
type TurnRequest struct {
	Question          string   `json:"question"`
	Intent            string   `json:"intent,omitempty"`
	NeedsWeb          bool     `json:"needs_web,omitempty"`
	InsurerFilter     []string `json:"insurer_filter,omitempty"`
	ReplanCount       int      `json:"replan_count"`
	MaxReplanAttempts int      `json:"max_replan_attempts"`
}

// TurnState is the turn-scoped aggregate threaded through stages. It is
// owned exclusively by the orchestrator; stages receive it and return an
// updated version without retaining references past the turn.
type TurnState struct {
	TurnID           string
	Question         string
	OriginalQuestion string
	Intent           string
	NeedsWeb         bool
	InsurerFilter    []string

	WebResults []Passage
	Passages   []Passage
	Refined    []Passage
	Citations  []Citation
	SearchMeta []SearchMeta

	Verification *VerificationResult
	Draft        *Answer
	Quality      *QualityResult
	FinalAnswer  *Answer

	Warnings []string

	ReplanCount            int
	MaxReplanAttempts      int
	StructuredFailureCount int
	EmergencyFallbackUsed  bool

	Trace []TraceRecord
}

// Warn appends a warning exactly once.
func (s *TurnState) Warn(msg string) {
	for _, w := range s.Warnings {
		if w == msg {
			return
		}
	}
	s.Warnings = append(s.Warnings, msg)
}

// TurnResult is what the orchestrator hands back to the caller. The turn
// always completes with some answer; failures surface as warnings only.
type TurnResult struct {
	TurnID                string              `json:"turn_id"`
	Question              string              `json:"question"`
	Intent                string              `json:"intent"`
	Answer                *Answer             `json:"answer"`
	Citations             []Citation          `json:"citations,omitempty"`
	Warnings              []string            `json:"warnings,omitempty"`
	Disclaimer            string              `json:"disclaimer,omitempty"`
	QualityScore          float64             `json:"quality_score"`
	ReplanCount           int                 `json:"replan_count"`
	EmergencyFallbackUsed bool                `json:"emergency_fallback_used,omitempty"`
	Trace                 []TraceRecord       `json:"trace,omitempty"`
	SearchMeta            []SearchMeta        `json:"search_meta,omitempty"`
	Verification          *VerificationResult `json:"verification,omitempty"`
}

// Package ragerr defines the typed error taxonomy for the pipeline.
// External-call failures are classified at their call site into a Kind;
// nothing unhandled crosses a stage boundary.
package ragerr

import (
	"errors"
	"fmt"
)

// Kind enumerates the failure classes the pipeline reacts to.
type Kind int

const (
	KindUnknown Kind = iota
	// KindRetrieval: a retriever errored or returned nothing; degrade to an
	// empty result and continue.
	KindRetrieval
	// KindPolicyLoad: the policy document could not be loaded; defaults apply.
	KindPolicyLoad
	// KindPolicySchema: the policy document is missing required keys; non-fatal.
	KindPolicySchema
	// KindScorer: the external quality scorer failed; fall back to heuristics.
	KindScorer
	// KindStructuredOutput: a structured LLM response could not be parsed;
	// counted toward the emergency escape threshold.
	KindStructuredOutput
	// KindCacheUnavailable: the cache store is unreachable; operations no-op.
	KindCacheUnavailable
	// KindBudgetExceeded: replan or step budget exhausted; terminal with the
	// best-known answer.
	KindBudgetExceeded
)

func (k Kind) String() string {
	switch k {
	case KindRetrieval:
		return "retrieval_failure"
	case KindPolicyLoad:
		return "policy_load_failure"
	case KindPolicySchema:
		return "policy_schema_warning"
	case KindScorer:
		return "scorer_failure"
	case KindStructuredOutput:
		return "structured_output_failure"
	case KindCacheUnavailable:
		return "cache_unavailable"
	case KindBudgetExceeded:
		return "budget_exceeded"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with its classified Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E classifies err under kind. A nil err still yields a typed error so the
// kind alone can signal a condition (e.g. budget exceeded).
func E(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the classified kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified under kind.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }

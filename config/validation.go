package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("found %d configuration error(s):\n", len(errs)))
	for i, err := range errs {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Message))
	}
	return b.String()
}

// Validate checks the static configuration. Policy-document problems are
// handled separately (non-fatal) by the policy loader.
func (c *Config) Validate() error {
	var errs ValidationErrors

	s := c.Search
	if s.Alpha < 0 || s.Alpha > 1 {
		errs = append(errs, ValidationError{Field: "search.alpha",
			Message: fmt.Sprintf("search.alpha must be in [0,1], got %g", s.Alpha)})
	}
	if s.WebWeight < 0 || s.WebWeight > 1 {
		errs = append(errs, ValidationError{Field: "search.web_weight",
			Message: fmt.Sprintf("search.web_weight must be in [0,1], got %g", s.WebWeight)})
	}
	if s.MaxK > 0 && s.BaseK > s.MaxK {
		errs = append(errs, ValidationError{Field: "search.base_k",
			Message: fmt.Sprintf("search.base_k %d exceeds search.max_k %d", s.BaseK, s.MaxK)})
	}
	switch strings.ToLower(s.Normalizer) {
	case "", "minmax", "zscore", "robust":
	default:
		errs = append(errs, ValidationError{Field: "search.normalizer",
			Message: fmt.Sprintf("unknown normalizer %q (minmax, zscore, robust)", s.Normalizer)})
	}

	switch strings.ToLower(c.VectorDB.Provider) {
	case "", "memory":
	case "milvus":
		if c.VectorDB.Address == "" {
			errs = append(errs, ValidationError{Field: "vectordb.address",
				Message: "vectordb.address is required for the milvus provider"})
		}
		if c.VectorDB.Collection == "" {
			errs = append(errs, ValidationError{Field: "vectordb.collection",
				Message: "vectordb.collection is required for the milvus provider"})
		}
	default:
		errs = append(errs, ValidationError{Field: "vectordb.provider",
			Message: fmt.Sprintf("unknown vectordb provider %q", c.VectorDB.Provider)})
	}

	if c.MaxSteps < 0 {
		errs = append(errs, ValidationError{Field: "max_steps",
			Message: fmt.Sprintf("max_steps must be non-negative, got %d", c.MaxSteps)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

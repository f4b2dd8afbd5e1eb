// Package llm adapts chat-completion backends behind a minimal provider
// interface for the scorer, replanner, and answerer.
package llm

import "context"

// Provider generates a completion for a prompt.
type Provider interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
	GetProviderType() string
}

// Package answer is the boundary to the external answer synthesizer. The
// core treats it as an opaque function from evidence to a structured draft.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/inscope-ai/ragcore/llm"
	"github.com/inscope-ai/ragcore/schema"
)

// Request carries the evidence bundle handed to the answerer.
type Request struct {
	Question   string
	Refined    []schema.Passage
	Citations  []schema.Citation
	WebResults []schema.Passage
}

// Answerer produces a structured draft answer.
type Answerer interface {
	Answer(ctx context.Context, req Request) (*schema.Answer, error)
}

// LLMAnswerer backs Answerer with a chat completion provider.
type LLMAnswerer struct {
	Provider llm.Provider
}

func NewLLM(provider llm.Provider) *LLMAnswerer {
	return &LLMAnswerer{Provider: provider}
}

func (a *LLMAnswerer) Answer(ctx context.Context, req Request) (*schema.Answer, error) {
	completion, err := a.Provider.GenerateCompletion(ctx, buildPrompt(req))
	if err != nil {
		return nil, err
	}
	var draft schema.Answer
	if err := llm.ExtractJSON(completion, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("아래 근거 문단만 사용해 질문에 답하라. 근거에 없는 내용은 추측하지 마라.\n")
	fmt.Fprintf(&b, "질문: %s\n", req.Question)
	for i, p := range req.Refined {
		fmt.Fprintf(&b, "[근거 %d] (%s p.%d %s) %s\n", i+1, p.DocID, p.Page, p.Insurer, p.Text)
	}
	for _, p := range req.WebResults {
		fmt.Fprintf(&b, "[웹] (%s) %s\n", p.URL, p.Text)
	}
	b.WriteString(`JSON으로만 응답하라: {"conclusion": "...", "evidence": ["..."], "caveats": ["..."], "quotes": [{"source": "...", "text": "..."}]}`)
	return b.String()
}

var _ Answerer = (*LLMAnswerer)(nil)

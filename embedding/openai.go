package embedding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/inscope-ai/ragcore/config"
	"github.com/inscope-ai/ragcore/ragerr"
)

// OpenAIProvider embeds via an OpenAI-compatible embeddings endpoint.
type OpenAIProvider struct {
	client openai.Client
	model  string
	dims   int
}

// NewOpenAI builds a provider from config. baseURL may point to any
// OpenAI-compatible gateway; httpClient may be nil.
func NewOpenAI(cfg config.EmbeddingConfig, httpClient *http.Client) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
		dims:   cfg.Dimensions,
	}
}

func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}
	if p.dims > 0 {
		params.Dimensions = openai.Int(int64(p.dims))
	}
	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, ragerr.E(ragerr.KindRetrieval, fmt.Errorf("embed: %w", err))
	}
	if len(resp.Data) != len(texts) {
		return nil, ragerr.Errorf(ragerr.KindRetrieval, "embed: got %d vectors for %d texts", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		out[item.Index] = vec
	}
	return out, nil
}

var _ Provider = (*OpenAIProvider)(nil)

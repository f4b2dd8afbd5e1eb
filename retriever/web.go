package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/inscope-ai/ragcore/common/httpx"
	"github.com/inscope-ai/ragcore/common/logger"
	"github.com/inscope-ai/ragcore/config"
	"github.com/inscope-ai/ragcore/metrics"
	"github.com/inscope-ai/ragcore/ragerr"
	"github.com/inscope-ai/ragcore/schema"
)

// WebRetriever turns web search results into pseudo-passages. Results carry
// Source=web, no page/version, and VersionDate set to retrieval time; down-
// weighting against corpus passages happens later in fusion.
type WebRetriever struct {
	Provider string // "duckduckgo" or "bing"
	Endpoint string
	APIKey   string
	Client   *httpx.Client
}

// NewWeb builds a web retriever from config; httpClient may be nil.
func NewWeb(cfg config.WebConfig, client *httpx.Client) *WebRetriever {
	if client == nil {
		client = httpx.NewFromConfig(nil)
	}
	return &WebRetriever{
		Provider: cfg.Provider,
		Endpoint: cfg.Endpoint,
		APIKey:   cfg.APIKey,
		Client:   client,
	}
}

func (r *WebRetriever) Type() string { return "web" }

type webResult struct {
	Title   string
	URL     string
	Snippet string
}

func (r *WebRetriever) Search(ctx context.Context, query string, topK int) ([]schema.Passage, error) {
	start := time.Now()
	if topK <= 0 {
		topK = 3
	}

	var results []webResult
	var err error
	switch r.Provider {
	case "bing":
		results, err = r.searchBing(ctx, query, topK)
	case "duckduckgo":
		results, err = r.searchDuckDuckGo(ctx, query, topK)
	default:
		logger.Warnf("web retriever: unknown provider %q, using duckduckgo", r.Provider)
		results, err = r.searchDuckDuckGo(ctx, query, topK)
	}
	if err != nil {
		return nil, ragerr.E(ragerr.KindRetrieval, fmt.Errorf("web search: %w", err))
	}

	now := time.Now()
	out := make([]schema.Passage, 0, len(results))
	for i, res := range results {
		if res.Snippet == "" {
			continue
		}
		// Providers return no scores; keep their ranking as a descending
		// score_web so fusion preserves result order.
		score := 1.0 - float64(i)/float64(len(results))
		p := schema.Passage{
			DocID:       res.URL,
			Source:      schema.SourceWeb,
			Title:       res.Title,
			URL:         res.URL,
			Text:        res.Snippet,
			Score:       score,
			VersionDate: now,
		}
		p.Component(ComponentWeb, score)
		out = append(out, p)
	}
	metrics.ObserveRetriever(r.Type(), start, len(out))
	return out, nil
}

func (r *WebRetriever) searchDuckDuckGo(ctx context.Context, query string, topK int) ([]webResult, error) {
	endpoint := "https://api.duckduckgo.com/"
	if r.Endpoint != "" {
		endpoint = r.Endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("duckduckgo status %d", resp.StatusCode)
	}

	var ddg struct {
		AbstractText string `json:"AbstractText"`
		AbstractURL  string `json:"AbstractURL"`
		Heading      string `json:"Heading"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ddg); err != nil {
		return nil, err
	}

	var results []webResult
	if ddg.AbstractText != "" {
		results = append(results, webResult{Title: ddg.Heading, URL: ddg.AbstractURL, Snippet: ddg.AbstractText})
	}
	for _, topic := range ddg.RelatedTopics {
		if len(results) >= topK {
			break
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, webResult{Title: topic.Text, URL: topic.FirstURL, Snippet: topic.Text})
	}
	return results, nil
}

func (r *WebRetriever) searchBing(ctx context.Context, query string, topK int) ([]webResult, error) {
	if r.APIKey == "" {
		return nil, fmt.Errorf("bing api key not configured")
	}
	endpoint := "https://api.bing.microsoft.com/v7.0/search"
	if r.Endpoint != "" {
		endpoint = r.Endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("count", fmt.Sprintf("%d", topK))
	q.Set("mkt", "ko-KR")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", r.APIKey)

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bing status %d", resp.StatusCode)
	}

	var bing struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
			} `json:"value"`
		} `json:"webPages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bing); err != nil {
		return nil, err
	}

	results := make([]webResult, 0, len(bing.WebPages.Value))
	for _, v := range bing.WebPages.Value {
		if len(results) >= topK {
			break
		}
		results = append(results, webResult{Title: v.Name, URL: v.URL, Snippet: v.Snippet})
	}
	return results, nil
}

var _ Retriever = (*WebRetriever)(nil)

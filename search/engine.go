// Package search runs hybrid retrieval for one question: fan-out sizing,
// candidate generation, score fusion, and the search cache.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/inscope-ai/ragcore/cache"
	"github.com/inscope-ai/ragcore/common/logger"
	"github.com/inscope-ai/ragcore/config"
	"github.com/inscope-ai/ragcore/fusion"
	"github.com/inscope-ai/ragcore/gazetteer"
	"github.com/inscope-ai/ragcore/ragerr"
	"github.com/inscope-ai/ragcore/retriever"
	"github.com/inscope-ai/ragcore/schema"
	"github.com/inscope-ai/ragcore/tokenize"
)

// Engine glues the retrievers together. Retrieval failures never escape: a
// failed or empty search yields an empty passage list plus a machine-readable
// reason in SearchMeta, and the turn proceeds.
type Engine struct {
	Vector  retriever.Retriever
	Keyword retriever.Retriever
	Cache   *cache.Cache
	Gaz     *gazetteer.Gazetteer
	Norm    fusion.Normalizer
	Cfg     config.SearchConfig
}

// New wires an engine; gaz and c may be nil.
func New(vec, kw retriever.Retriever, c *cache.Cache, gaz *gazetteer.Gazetteer, cfg config.SearchConfig) (*Engine, error) {
	norm, err := fusion.ByName(cfg.Normalizer)
	if err != nil {
		return nil, err
	}
	if gaz == nil {
		gaz = gazetteer.New()
	}
	return &Engine{Vector: vec, Keyword: kw, Cache: c, Gaz: gaz, Norm: norm, Cfg: cfg}, nil
}

// Search retrieves fused passages for a question. webCtx carries web
// pseudo-passages gathered earlier in the turn; they both enhance the query
// and join fusion as a down-weighted third list.
func (e *Engine) Search(ctx context.Context, question string, webCtx []schema.Passage) ([]schema.Passage, schema.SearchMeta) {
	meta := schema.SearchMeta{}
	if strings.TrimSpace(question) == "" {
		meta.Reason = schema.ReasonEmptyQuestion
		return nil, meta
	}

	query := question
	if kws := e.webKeywords(webCtx, question); len(kws) > 0 {
		meta.WebKeywords = kws
		query = question + " " + strings.Join(kws, " ")
	}
	meta.UsedQuery = query

	k := e.fanOut(question, len(webCtx) > 0)
	meta.KValue = k

	alpha := e.alpha(question)
	cacheExtra := map[string]string{
		"k":     strconv.Itoa(k),
		"alpha": strconv.FormatFloat(alpha, 'f', 2, 64),
	}
	if e.Cache != nil {
		if hit, ok := e.Cache.GetSearch(ctx, query, cacheExtra); ok {
			meta.FromCache = true
			meta.CandidateCount = len(hit)
			return hit, meta
		}
	}

	vecPool := poolSize(k, e.Cfg.VectorPoolCap, 3, 50)
	kwPool := poolSize(k, e.Cfg.KeywordPoolCap, 2, 30)

	vecHits, vecErr := e.runRetriever(ctx, e.Vector, query, vecPool)
	kwHits, kwErr := e.runRetriever(ctx, e.Keyword, query, kwPool)
	if vecErr != nil && kwErr != nil {
		meta.Reason = schema.ReasonSearchErrorPfx + firstError(vecErr, kwErr)
		return nil, meta
	}
	if len(vecHits) == 0 && len(kwHits) == 0 && len(webCtx) == 0 {
		if err := firstErrOrNil(vecErr, kwErr); err != "" {
			meta.Reason = schema.ReasonSearchErrorPfx + err
		} else {
			meta.Reason = schema.ReasonNoSearchResults
		}
		return nil, meta
	}

	fused := fusion.Merge(vecHits, kwHits, webCtx, fusion.Options{
		Alpha:     alpha,
		WebWeight: e.Cfg.WebWeight,
		Norm:      e.Norm,
	})
	meta.CandidateCount = len(fused)
	if len(fused) == 0 {
		meta.Reason = schema.ReasonNoSearchResults
		return nil, meta
	}

	if e.Cache != nil {
		e.Cache.SetSearch(ctx, query, cacheExtra, fused)
	}
	return fused, meta
}

// fanOut computes the dynamic candidate count per retriever group.
func (e *Engine) fanOut(question string, hasWeb bool) int {
	k := e.Cfg.BaseK
	if k <= 0 {
		k = 5
	}
	if hasWeb {
		k += 3
	}
	switch n := len([]rune(question)); {
	case n > 40:
		k += 2
	case n > 20:
		k += 1
	}
	maxK := e.Cfg.MaxK
	if maxK <= 0 {
		maxK = 15
	}
	if k > maxK {
		k = maxK
	}
	return k
}

// alpha picks the vector/keyword balance. A detected insurer shifts weight
// toward keyword evidence; a verbatim canonical mention shifts it further.
func (e *Engine) alpha(question string) float64 {
	insurer, literal := e.Gaz.Detect(question)
	switch {
	case insurer == "":
		return defaultFloat(e.Cfg.Alpha, 0.6)
	case literal:
		return defaultFloat(e.Cfg.AlphaInsurerLiteral, 0.3)
	default:
		return defaultFloat(e.Cfg.AlphaInsurer, 0.4)
	}
}

// webKeywords extracts up to three domain keywords from web context not
// already present in the question.
func (e *Engine) webKeywords(webCtx []schema.Passage, question string) []string {
	if len(webCtx) == 0 {
		return nil
	}
	var b strings.Builder
	for _, p := range webCtx {
		b.WriteString(p.Title)
		b.WriteByte(' ')
		b.WriteString(p.Text)
		b.WriteByte(' ')
	}
	qSet := tokenize.TokenSet(question)
	var out []string
	for _, kw := range tokenize.DomainKeywords(b.String(), 6) {
		if _, dup := qSet[kw]; dup {
			continue
		}
		out = append(out, kw)
		if len(out) == 3 {
			break
		}
	}
	return out
}

func (e *Engine) runRetriever(ctx context.Context, r retriever.Retriever, query string, topK int) ([]schema.Passage, error) {
	if r == nil {
		return nil, nil
	}
	hits, err := r.Search(ctx, query, topK)
	if err != nil {
		logger.Warnf("search: %s retriever: %v", r.Type(), ragerr.E(ragerr.KindRetrieval, err))
		return nil, err
	}
	return hits, nil
}

func defaultFloat(v, fallback float64) float64 {
	if v <= 0 || v > 1 {
		return fallback
	}
	return v
}

func poolSize(k, configured, mult, fallback int) int {
	capN := configured
	if capN <= 0 {
		capN = fallback
	}
	pool := mult * k
	if pool > capN {
		pool = capN
	}
	return pool
}

func firstError(errs ...error) string {
	for _, err := range errs {
		if err != nil {
			return fmt.Sprintf("%v", err)
		}
	}
	return "unknown"
}

func firstErrOrNil(errs ...error) string {
	for _, err := range errs {
		if err != nil {
			return fmt.Sprintf("%v", err)
		}
	}
	return ""
}

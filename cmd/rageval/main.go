// Command rageval runs the answering pipeline over a question file and
// prints one result per line, followed by a batch summary on stderr.
//
// Questions are JSONL, one turn request per line:
//
//	{"question":"삼성보험 해외 치료비 한도는?","intent":"qa"}
//
// An optional corpus file (also JSONL, one passage per line) seeds the
// in-process keyword index so the tool works without external stores.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inscope-ai/ragcore/answer"
	"github.com/inscope-ai/ragcore/cache"
	"github.com/inscope-ai/ragcore/common/httpx"
	"github.com/inscope-ai/ragcore/common/logger"
	"github.com/inscope-ai/ragcore/config"
	"github.com/inscope-ai/ragcore/embedding"
	"github.com/inscope-ai/ragcore/eval"
	"github.com/inscope-ai/ragcore/gate"
	"github.com/inscope-ai/ragcore/llm"
	"github.com/inscope-ai/ragcore/orchestrator"
	"github.com/inscope-ai/ragcore/post"
	"github.com/inscope-ai/ragcore/retriever"
	"github.com/inscope-ai/ragcore/schema"
	"github.com/inscope-ai/ragcore/search"
	"github.com/inscope-ai/ragcore/vectordb"
	"github.com/inscope-ai/ragcore/verify"
)

func main() {
	var (
		configPath    = flag.String("config", "", "yaml config file, defaults applied when empty")
		questionsPath = flag.String("questions", "", "jsonl file with turn requests (required)")
		corpusPath    = flag.String("corpus", "", "jsonl file with passages for the keyword index")
		width         = flag.Int("width", 2, "concurrent turns")
		logLevel      = flag.String("log-level", "info", "debug, info, warn, error")
	)
	flag.Parse()

	logger.SetLevel(*logLevel)
	if *questionsPath == "" {
		fmt.Fprintln(os.Stderr, "rageval: -questions is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Errorf("load config: %v", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, store, err := buildRunner(ctx, cfg, *corpusPath)
	if err != nil {
		logger.Errorf("build pipeline: %v", err)
		os.Exit(1)
	}

	requests, err := readRequests(*questionsPath)
	if err != nil {
		logger.Errorf("read questions: %v", err)
		os.Exit(1)
	}
	logger.Infof("running %d turns, width=%d", len(requests), *width)

	start := time.Now()
	results := eval.NewHarness(runner, *width).Run(ctx, requests)

	enc := json.NewEncoder(os.Stdout)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			logger.Errorf("write result: %v", err)
			os.Exit(1)
		}
	}

	summary := eval.Summarize(results)
	logger.Infof("done in %s: turns=%d mean_quality=%.3f replans=%d emergency=%d warned=%d",
		time.Since(start).Round(time.Millisecond), summary.Turns, summary.MeanQuality,
		summary.ReplanTotal, summary.EmergencyUsed, summary.WithWarnings)
	for kind, n := range store.Stats(ctx) {
		logger.Infof("cache %s: %d entries", kind, n)
	}
}

func buildRunner(ctx context.Context, cfg *config.Config, corpusPath string) (*orchestrator.Orchestrator, *cache.Cache, error) {
	httpClient := httpx.NewFromConfig(cfg.HTTP)
	store := cache.New(cfg.Cache)

	keyword := retriever.NewBM25()
	if corpusPath != "" {
		n, err := loadCorpus(corpusPath, keyword)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("keyword index loaded, %d passages", n)
	}

	vector, err := buildVectorRetriever(ctx, cfg, httpClient, store)
	if err != nil {
		return nil, nil, err
	}

	engine, err := search.New(vector, keyword, store, nil, cfg.Search)
	if err != nil {
		return nil, nil, err
	}

	var scorer llm.Provider
	if cfg.LLM.APIKey != "" {
		scorer = llm.NewOpenAI(cfg.LLM, httpClient.HTTPClient())
	} else {
		logger.Warnf("no llm api key, using heuristic gate and template answers")
	}

	policy := config.NewPolicyLoader(cfg.Policy)
	pol, warnings := policy.Current()
	for _, w := range warnings {
		logger.Warnf("policy: %s", w)
	}

	var answerer answer.Answerer = templateAnswerer{}
	if scorer != nil {
		answerer = answer.NewLLM(scorer)
	}

	runner, err := orchestrator.New(orchestrator.Deps{
		Search:    engine,
		Web:       retriever.NewWeb(cfg.Web, httpClient),
		Post:      post.New(nil),
		Verify:    verify.New(policy),
		Answerer:  answerer,
		Gate:      gate.New(scorer, pol.System.Replan.QualityThreshold),
		Replanner: gate.NewReplanner(scorer, nil),
		Policy:    policy,
		MaxSteps:  cfg.MaxSteps,
	})
	if err != nil {
		return nil, nil, err
	}
	return runner, store, nil
}

// buildVectorRetriever returns nil when dense retrieval is not configured;
// the search engine degrades to keyword-only in that case.
func buildVectorRetriever(ctx context.Context, cfg *config.Config, httpClient *httpx.Client, store *cache.Cache) (retriever.Retriever, error) {
	if cfg.VectorDB.Provider != "milvus" {
		return nil, nil
	}
	if cfg.Embedding.APIKey == "" {
		logger.Warnf("milvus configured without embedding api key, dense retrieval disabled")
		return nil, nil
	}
	milvus, err := vectordb.NewMilvus(ctx, cfg.VectorDB)
	if err != nil {
		return nil, err
	}
	embedder := embedding.NewCached(embedding.NewOpenAI(cfg.Embedding, httpClient.HTTPClient()), store)
	return &retriever.VectorRetriever{Embedder: embedder, Store: milvus}, nil
}

func readRequests(path string) ([]schema.TurnRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var requests []schema.TurnRequest
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := sc.Bytes()
		if len(text) == 0 {
			continue
		}
		var req schema.TurnRequest
		if err := json.Unmarshal(text, &req); err != nil {
			return nil, fmt.Errorf("questions line %d: %w", line, err)
		}
		requests = append(requests, req)
	}
	return requests, sc.Err()
}

func loadCorpus(path string, idx *retriever.BM25Retriever) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := sc.Bytes()
		if len(text) == 0 {
			continue
		}
		var p schema.Passage
		if err := json.Unmarshal(text, &p); err != nil {
			return count, fmt.Errorf("corpus line %d: %w", line, err)
		}
		if p.Source == "" {
			p.Source = schema.SourceCorpus
		}
		idx.Add(p)
		count++
	}
	return count, sc.Err()
}

// templateAnswerer assembles a draft directly from the refined passages so
// the pipeline stays runnable without model credentials.
type templateAnswerer struct{}

func (templateAnswerer) Answer(_ context.Context, req answer.Request) (*schema.Answer, error) {
	if len(req.Refined) == 0 {
		return &schema.Answer{
			Conclusion: "검색된 근거가 없어 답변을 구성할 수 없습니다.",
			Caveats:    []string{"정확한 조건은 각 보험사 약관을 직접 확인하세요."},
		}, nil
	}
	ans := &schema.Answer{Conclusion: req.Refined[0].Title + " 기준으로 확인된 내용입니다."}
	for _, p := range req.Refined {
		snippet := []rune(p.Text)
		if len(snippet) > 120 {
			snippet = snippet[:120]
		}
		ans.Evidence = append(ans.Evidence, string(snippet))
	}
	return ans, nil
}

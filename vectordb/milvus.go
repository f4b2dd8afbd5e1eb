package vectordb

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/inscope-ai/ragcore/config"
	"github.com/inscope-ai/ragcore/ragerr"
	"github.com/inscope-ai/ragcore/schema"
)

// Collection field names expected in the passage collection.
const (
	fieldDocID       = "doc_id"
	fieldPage        = "page"
	fieldVersion     = "version"
	fieldVersionDate = "version_date"
	fieldInsurer     = "insurer"
	fieldDocType     = "doc_type"
	fieldTitle       = "title"
	fieldURL         = "url"
	fieldText        = "text"
)

var outputFields = []string{
	fieldDocID, fieldPage, fieldVersion, fieldVersionDate,
	fieldInsurer, fieldDocType, fieldTitle, fieldURL, fieldText,
}

// MilvusStore backs VectorStore with a Milvus collection of passage chunks.
type MilvusStore struct {
	mc          client.Client
	collection  string
	vectorField string
}

// NewMilvus connects to Milvus and verifies the collection exists.
func NewMilvus(ctx context.Context, cfg config.VectorDBConfig) (*MilvusStore, error) {
	mc, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, ragerr.E(ragerr.KindRetrieval, fmt.Errorf("milvus connect %s: %w", cfg.Address, err))
	}
	ok, err := mc.HasCollection(ctx, cfg.Collection)
	if err != nil {
		_ = mc.Close()
		return nil, ragerr.E(ragerr.KindRetrieval, fmt.Errorf("milvus has collection: %w", err))
	}
	if !ok {
		_ = mc.Close()
		return nil, ragerr.Errorf(ragerr.KindRetrieval, "milvus collection %q not found", cfg.Collection)
	}
	if err := mc.LoadCollection(ctx, cfg.Collection, false); err != nil {
		_ = mc.Close()
		return nil, ragerr.E(ragerr.KindRetrieval, fmt.Errorf("milvus load collection: %w", err))
	}
	vectorField := cfg.VectorField
	if vectorField == "" {
		vectorField = "embedding"
	}
	return &MilvusStore{mc: mc, collection: cfg.Collection, vectorField: vectorField}, nil
}

func (s *MilvusStore) Search(ctx context.Context, vector []float32, opts SearchOptions) ([]schema.Passage, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}
	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, ragerr.E(ragerr.KindRetrieval, err)
	}
	results, err := s.mc.Search(ctx, s.collection, nil, "", outputFields,
		[]entity.Vector{entity.FloatVector(vector)}, s.vectorField, entity.COSINE, topK, sp)
	if err != nil {
		return nil, ragerr.E(ragerr.KindRetrieval, fmt.Errorf("milvus search: %w", err))
	}

	var passages []schema.Passage
	for _, rs := range results {
		for i := 0; i < rs.ResultCount; i++ {
			score := float64(rs.Scores[i])
			if opts.Threshold > 0 && score < opts.Threshold {
				continue
			}
			p := schema.Passage{
				Source: schema.SourceCorpus,
				Score:  score,
			}
			p.DocID = getString(rs.Fields, fieldDocID, i)
			p.Version = getString(rs.Fields, fieldVersion, i)
			p.Insurer = getString(rs.Fields, fieldInsurer, i)
			p.DocType = getString(rs.Fields, fieldDocType, i)
			p.Title = getString(rs.Fields, fieldTitle, i)
			p.URL = getString(rs.Fields, fieldURL, i)
			p.Text = getString(rs.Fields, fieldText, i)
			if col := rs.Fields.GetColumn(fieldPage); col != nil {
				if v, err := col.GetAsInt64(i); err == nil {
					p.Page = int(v)
				}
			}
			if raw := getString(rs.Fields, fieldVersionDate, i); raw != "" {
				if ts, err := time.Parse("2006-01-02", raw); err == nil {
					p.VersionDate = ts
				}
			}
			passages = append(passages, p)
		}
	}
	return passages, nil
}

func getString(fields client.ResultSet, name string, idx int) string {
	col := fields.GetColumn(name)
	if col == nil {
		return ""
	}
	v, err := col.GetAsString(idx)
	if err != nil {
		return ""
	}
	return v
}

func (s *MilvusStore) Close() error { return s.mc.Close() }

var _ VectorStore = (*MilvusStore)(nil)

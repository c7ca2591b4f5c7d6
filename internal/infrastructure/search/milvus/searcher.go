package milvus

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

// VectorIndex is what the calculation service needs from the vector store.
type VectorIndex interface {
	Dimension() int
	Upsert(ctx context.Context, entries []Entry) (int, error)
	Search(ctx context.Context, vector []float32, topK int) ([]descriptor.SimilarHit, error)
	Delete(ctx context.Context, moleculeIDs []string) error
}

// Entry is one molecule's vector.
type Entry struct {
	MoleculeID string
	SMILES     string
	Vector     []float32
}

// EntryFromRow converts a calculated row to an Entry. Failed rows are
// skipped. Undefined values become zero so the vector keeps its length.
func EntryFromRow(row descriptor.Row, columns []descriptor.Column) (Entry, bool) {
	if row.Failed() {
		return Entry{}, false
	}
	raw := row.Vector(columns)
	vec := make([]float32, len(raw))
	for i, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		vec[i] = float32(v)
	}
	return Entry{MoleculeID: row.MoleculeID, SMILES: row.SMILES, Vector: vec}, true
}

type SearcherConfig struct {
	DefaultTopK     int
	MaxTopK         int
	InsertBatchSize int
	SearchTimeout   time.Duration
}

func (c SearcherConfig) withDefaults() SearcherConfig {
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = 10
	}
	if c.MaxTopK <= 0 {
		c.MaxTopK = 1000
	}
	if c.InsertBatchSize <= 0 {
		c.InsertBatchSize = 1000
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = 5 * time.Second
	}
	return c
}

// Searcher implements VectorIndex over one collection.
type Searcher struct {
	client  *Client
	collMgr *CollectionManager
	config  SearcherConfig
	logger  logging.Logger
}

func NewSearcher(client *Client, collMgr *CollectionManager, cfg SearcherConfig, logger logging.Logger) *Searcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Searcher{client: client, collMgr: collMgr, config: cfg.withDefaults(), logger: logger.Named("milvus-searcher")}
}

func (s *Searcher) Dimension() int { return s.collMgr.config.Dimension }

func (s *Searcher) collection() string { return s.collMgr.config.Name }

// Upsert writes entries in batches, replacing vectors of known molecule IDs.
func (s *Searcher) Upsert(ctx context.Context, entries []Entry) (int, error) {
	dim := s.Dimension()
	for _, e := range entries {
		if len(e.Vector) != dim {
			return 0, ErrDimensionMismatch.WithDetail(e.MoleculeID + ": " + strconv.Itoa(len(e.Vector)))
		}
	}

	total := 0
	for start := 0; start < len(entries); start += s.config.InsertBatchSize {
		end := start + s.config.InsertBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		ids := make([]string, len(batch))
		smiles := make([]string, len(batch))
		vectors := make([][]float32, len(batch))
		for i, e := range batch {
			ids[i], smiles[i], vectors[i] = e.MoleculeID, e.SMILES, e.Vector
		}

		_, err := s.client.sdk().Upsert(ctx, s.collection(), "",
			entity.NewColumnVarChar(FieldMoleculeID, ids),
			entity.NewColumnVarChar(FieldSMILES, smiles),
			entity.NewColumnFloatVector(FieldVector, dim, vectors),
		)
		if err != nil {
			return total, errors.Wrap(err, errors.ErrCodeVectorIndex, "upsert failed")
		}
		total += len(batch)
	}

	s.logger.Debug("vectors upserted", logging.Int("count", total))
	return total, nil
}

// Search returns the topK nearest molecules. topK <= 0 uses the default and
// is capped at MaxTopK.
func (s *Searcher) Search(ctx context.Context, vector []float32, topK int) ([]descriptor.SimilarHit, error) {
	if len(vector) != s.Dimension() {
		return nil, ErrDimensionMismatch.WithDetail(strconv.Itoa(len(vector)))
	}
	if topK <= 0 {
		topK = s.config.DefaultTopK
	}
	if topK > s.config.MaxTopK {
		topK = s.config.MaxTopK
	}

	sp, err := s.collMgr.searchParam()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorIndex, "invalid search parameters")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.SearchTimeout)
	defer cancel()

	start := time.Now()
	results, err := s.client.sdk().Search(ctx, s.collection(), nil, "", []string{FieldSMILES},
		[]entity.Vector{entity.FloatVector(vector)}, FieldVector, s.collMgr.config.MetricType, topK, sp,
		client.WithSearchQueryConsistencyLevel(entity.ClBounded))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorIndex, "search failed")
	}

	hits := convertSearchResults(results)
	s.logger.Debug("vector search",
		logging.Int("top_k", topK),
		logging.Int("hits", len(hits)),
		logging.Duration("took", time.Since(start)))
	return hits, nil
}

func convertSearchResults(results []client.SearchResult) []descriptor.SimilarHit {
	if len(results) == 0 {
		return nil
	}
	r := results[0]
	if r.IDs == nil {
		return nil
	}

	var smilesCol entity.Column
	for _, col := range r.Fields {
		if col.Name() == FieldSMILES {
			smilesCol = col
		}
	}

	hits := make([]descriptor.SimilarHit, 0, r.IDs.Len())
	for i := 0; i < r.IDs.Len(); i++ {
		id, err := r.IDs.GetAsString(i)
		if err != nil {
			continue
		}
		hit := descriptor.SimilarHit{MoleculeID: id}
		if i < len(r.Scores) {
			hit.Distance = r.Scores[i]
		}
		if smilesCol != nil {
			if v, err := smilesCol.GetAsString(i); err == nil {
				hit.SMILES = v
			}
		}
		hits = append(hits, hit)
	}
	return hits
}

// Delete removes the vectors of the given molecules.
func (s *Searcher) Delete(ctx context.Context, moleculeIDs []string) error {
	if len(moleculeIDs) == 0 {
		return nil
	}
	if err := s.client.sdk().Delete(ctx, s.collection(), "", idExpr(moleculeIDs)); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorIndex, "delete failed")
	}
	return nil
}

// idExpr builds a boolean expression matching the given primary keys.
func idExpr(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = strconv.Quote(id)
	}
	return FieldMoleculeID + " in [" + strings.Join(quoted, ",") + "]"
}

//Personal.AI order the ending

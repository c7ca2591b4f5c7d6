package milvus

import (
	"context"
	"errors"
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
)

func newTestSearcher(mc *mockMilvusClient, cfg SearcherConfig) *Searcher {
	c := newTestClient(mc)
	m := NewCollectionManager(c, CollectionConfig{Name: "desc", Dimension: 2}, nil)
	return NewSearcher(c, m, cfg, nil)
}

func TestEntryFromRow(t *testing.T) {
	cols := []descriptor.Column{{Name: "Radius"}, {Name: "WPath"}, {Name: "Missing"}}
	row := descriptor.Row{MoleculeID: "m", SMILES: "CC", Cells: []descriptor.Cell{
		{Name: "Radius", Value: descriptor.IntValue(1)},
		{Name: "WPath", Value: descriptor.NaN()},
	}}

	e, ok := EntryFromRow(row, cols)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0, 0}, e.Vector)

	_, ok = EntryFromRow(descriptor.Row{Error: "parse"}, cols)
	assert.False(t, ok)
}

func TestUpsert_Batches(t *testing.T) {
	mc := &mockMilvusClient{}
	s := newTestSearcher(mc, SearcherConfig{InsertBatchSize: 2})

	n, err := s.Upsert(context.Background(), []Entry{
		{MoleculeID: "a", SMILES: "C", Vector: []float32{1, 2}},
		{MoleculeID: "b", SMILES: "CC", Vector: []float32{3, 4}},
		{MoleculeID: "c", SMILES: "CCC", Vector: []float32{5, 6}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, mc.upserted, 2)
	assert.Equal(t, 2, mc.upserted[0][0].Len())
	assert.Equal(t, FieldVector, mc.upserted[1][2].Name())
}

func TestUpsert_Errors(t *testing.T) {
	s := newTestSearcher(&mockMilvusClient{}, SearcherConfig{})
	_, err := s.Upsert(context.Background(), []Entry{{MoleculeID: "a", Vector: []float32{1}}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	s = newTestSearcher(&mockMilvusClient{upsertErr: errors.New("rpc")}, SearcherConfig{})
	_, err = s.Upsert(context.Background(), []Entry{{MoleculeID: "a", Vector: []float32{1, 2}}})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeVectorIndex))
}

func TestSearch(t *testing.T) {
	mc := &mockMilvusClient{searchResults: []client.SearchResult{{
		ResultCount: 2,
		IDs:         entity.NewColumnVarChar(FieldMoleculeID, []string{"a", "b"}),
		Fields:      client.ResultSet{entity.NewColumnVarChar(FieldSMILES, []string{"C", "CC"})},
		Scores:      []float32{0.1, 0.7},
	}}}
	s := newTestSearcher(mc, SearcherConfig{DefaultTopK: 3, MaxTopK: 5})

	hits, err := s.Search(context.Background(), []float32{1, 2}, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, mc.lastSearchTopK)
	assert.Equal(t, entity.L2, mc.lastSearchMetric)
	assert.Equal(t, []descriptor.SimilarHit{
		{MoleculeID: "a", SMILES: "C", Distance: 0.1},
		{MoleculeID: "b", SMILES: "CC", Distance: 0.7},
	}, hits)

	_, err = s.Search(context.Background(), []float32{1, 2}, 50)
	require.NoError(t, err)
	assert.Equal(t, 5, mc.lastSearchTopK)
}

func TestSearch_Errors(t *testing.T) {
	s := newTestSearcher(&mockMilvusClient{}, SearcherConfig{})
	_, err := s.Search(context.Background(), []float32{1}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	s = newTestSearcher(&mockMilvusClient{searchErr: errors.New("timeout")}, SearcherConfig{})
	_, err = s.Search(context.Background(), []float32{1, 2}, 1)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeVectorIndex))

	hits, err := newTestSearcher(&mockMilvusClient{}, SearcherConfig{}).Search(context.Background(), []float32{1, 2}, 1)
	assert.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDelete(t *testing.T) {
	mc := &mockMilvusClient{}
	s := newTestSearcher(mc, SearcherConfig{})
	require.NoError(t, s.Delete(context.Background(), []string{"a", `b"c`}))
	assert.Equal(t, `molecule_id in ["a","b\"c"]`, mc.deletedExpr)

	require.NoError(t, s.Delete(context.Background(), nil))
}

//Personal.AI order the ending

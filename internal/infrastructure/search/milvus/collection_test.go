package milvus

import (
	"context"
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolDescriptor/internal/config"
	appErrors "github.com/turtacn/MolDescriptor/pkg/errors"
)

func TestCollectionConfigFrom(t *testing.T) {
	cfg := CollectionConfigFrom(config.MilvusConfig{Collection: "desc", IndexType: "ivf_flat", MetricType: "ip"}, 12)
	assert.Equal(t, entity.IvfFlat, cfg.IndexType)
	assert.Equal(t, entity.IP, cfg.MetricType)
	assert.Equal(t, 12, cfg.Dimension)

	def := CollectionConfig{}.withDefaults()
	assert.Equal(t, "molecule_descriptors", def.Name)
	assert.Equal(t, entity.HNSW, def.IndexType)
	assert.Equal(t, entity.L2, def.MetricType)
}

func TestDescriptorSchema(t *testing.T) {
	s := DescriptorSchema("desc", 7)
	require.Len(t, s.Fields, 3)
	assert.True(t, s.Fields[0].PrimaryKey)
	assert.Equal(t, entity.FieldTypeVarChar, s.Fields[0].DataType)
	assert.Equal(t, "7", s.Fields[2].TypeParams[entity.TypeParamDim])
}

func TestEnsureCollection_Creates(t *testing.T) {
	mc := &mockMilvusClient{}
	m := NewCollectionManager(newTestClient(mc), CollectionConfig{Name: "desc", Dimension: 5, IndexType: entity.IvfFlat}, nil)

	require.NoError(t, m.EnsureCollection(context.Background()))
	require.NotNil(t, mc.createdSchema)
	assert.Equal(t, "desc", mc.createdSchema.CollectionName)
	require.NotNil(t, mc.createdIndex)
	assert.Equal(t, entity.IvfFlat, mc.createdIndex.IndexType())
	assert.True(t, mc.loaded)
}

func TestEnsureCollection_ExistingMatches(t *testing.T) {
	mc := &mockMilvusClient{hasCollection: true, describeDim: "5"}
	m := NewCollectionManager(newTestClient(mc), CollectionConfig{Name: "desc", Dimension: 5}, nil)

	require.NoError(t, m.EnsureCollection(context.Background()))
	assert.Nil(t, mc.createdSchema)
	assert.True(t, mc.loaded)
}

func TestEnsureCollection_DimensionMismatch(t *testing.T) {
	mc := &mockMilvusClient{hasCollection: true, describeDim: "9"}
	m := NewCollectionManager(newTestClient(mc), CollectionConfig{Name: "desc", Dimension: 5}, nil)

	err := m.EnsureCollection(context.Background())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.False(t, mc.loaded)
}

func TestEnsureCollection_InvalidConfig(t *testing.T) {
	m := NewCollectionManager(newTestClient(&mockMilvusClient{}), CollectionConfig{}, nil)
	assert.True(t, appErrors.IsCode(m.EnsureCollection(context.Background()), appErrors.ErrCodeValidation))

	m = NewCollectionManager(newTestClient(&mockMilvusClient{}), CollectionConfig{Dimension: 3, IndexType: "DISKANN"}, nil)
	assert.True(t, appErrors.IsCode(m.EnsureCollection(context.Background()), appErrors.ErrCodeValidation))
}

func TestDropCollection(t *testing.T) {
	mc := &mockMilvusClient{hasCollection: true}
	m := NewCollectionManager(newTestClient(mc), CollectionConfig{Dimension: 3}, nil)
	require.NoError(t, m.DropCollection(context.Background()))
	assert.True(t, mc.dropped)

	mc = &mockMilvusClient{}
	m = NewCollectionManager(newTestClient(mc), CollectionConfig{Dimension: 3}, nil)
	assert.ErrorIs(t, m.DropCollection(context.Background()), ErrCollectionNotFound)
}

//Personal.AI order the ending

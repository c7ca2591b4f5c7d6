package milvus

import (
	"context"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/turtacn/MolDescriptor/internal/config"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/pkg/errors"
)

// Field names of the descriptor collection.
const (
	FieldMoleculeID = "molecule_id"
	FieldSMILES     = "smiles"
	FieldVector     = "vector"
)

var (
	ErrCollectionNotFound = errors.New(errors.ErrCodeNotFound, "collection not found")
	ErrDimensionMismatch  = errors.New(errors.ErrCodeVectorIndex, "vector dimension mismatch")
)

// CollectionConfig selects the collection name and its index.
type CollectionConfig struct {
	Name       string
	Dimension  int
	ShardsNum  int32
	IndexType  entity.IndexType
	MetricType entity.MetricType
	NList      int
	HNSWM      int
	HNSWEf     int
}

// CollectionConfigFrom maps the application config. dim is the length of
// the indexed descriptor vector.
func CollectionConfigFrom(cfg config.MilvusConfig, dim int) CollectionConfig {
	return CollectionConfig{
		Name:       cfg.Collection,
		Dimension:  dim,
		IndexType:  entity.IndexType(strings.ToUpper(cfg.IndexType)),
		MetricType: entity.MetricType(strings.ToUpper(cfg.MetricType)),
	}
}

func (c CollectionConfig) withDefaults() CollectionConfig {
	if c.Name == "" {
		c.Name = "molecule_descriptors"
	}
	if c.ShardsNum == 0 {
		c.ShardsNum = 1
	}
	if c.IndexType == "" {
		c.IndexType = entity.HNSW
	}
	if c.MetricType == "" {
		c.MetricType = entity.L2
	}
	if c.NList == 0 {
		c.NList = 128
	}
	if c.HNSWM == 0 {
		c.HNSWM = 16
	}
	if c.HNSWEf == 0 {
		c.HNSWEf = 200
	}
	return c
}

// DescriptorSchema is keyed by molecule ID and holds one float vector.
func DescriptorSchema(name string, dim int) *entity.Schema {
	return &entity.Schema{
		CollectionName: name,
		Description:    "molecular descriptor vectors",
		Fields: []*entity.Field{
			{Name: FieldMoleculeID, DataType: entity.FieldTypeVarChar, PrimaryKey: true, AutoID: false,
				TypeParams: map[string]string{entity.TypeParamMaxLength: "256"}},
			{Name: FieldSMILES, DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{entity.TypeParamMaxLength: "4096"}},
			{Name: FieldVector, DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{entity.TypeParamDim: strconv.Itoa(dim)}},
		},
	}
}

// CollectionManager creates, indexes and loads the descriptor collection.
type CollectionManager struct {
	client *Client
	config CollectionConfig
	logger logging.Logger
}

func NewCollectionManager(client *Client, cfg CollectionConfig, logger logging.Logger) *CollectionManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CollectionManager{client: client, config: cfg.withDefaults(), logger: logger}
}

func (m *CollectionManager) Config() CollectionConfig { return m.config }

func (m *CollectionManager) HasCollection(ctx context.Context) (bool, error) {
	has, err := m.client.sdk().HasCollection(ctx, m.config.Name)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to check collection")
	}
	return has, nil
}

// EnsureCollection creates the collection and its vector index when absent,
// verifies the dimension of an existing one, then loads it.
func (m *CollectionManager) EnsureCollection(ctx context.Context) error {
	if m.config.Dimension <= 0 {
		return errors.New(errors.ErrCodeValidation, "vector dimension must be > 0")
	}
	has, err := m.HasCollection(ctx)
	if err != nil {
		return err
	}

	if !has {
		if err := m.client.sdk().CreateCollection(ctx, DescriptorSchema(m.config.Name, m.config.Dimension), m.config.ShardsNum); err != nil {
			return errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to create collection")
		}
		idx, err := m.buildIndex()
		if err != nil {
			return err
		}
		if err := m.client.sdk().CreateIndex(ctx, m.config.Name, FieldVector, idx, false); err != nil {
			return errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to create index")
		}
		m.logger.Info("collection created",
			logging.String("name", m.config.Name),
			logging.Int("dim", m.config.Dimension),
			logging.String("index", string(m.config.IndexType)))
	} else if err := m.checkDimension(ctx); err != nil {
		return err
	}

	if err := m.client.sdk().LoadCollection(ctx, m.config.Name, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to load collection")
	}
	return nil
}

func (m *CollectionManager) checkDimension(ctx context.Context) error {
	coll, err := m.client.sdk().DescribeCollection(ctx, m.config.Name)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to describe collection")
	}
	if coll.Schema == nil {
		return nil
	}
	for _, f := range coll.Schema.Fields {
		if f.Name != FieldVector {
			continue
		}
		dim, _ := strconv.Atoi(f.TypeParams[entity.TypeParamDim])
		if dim != m.config.Dimension {
			return ErrDimensionMismatch.WithDetail(
				m.config.Name + ": have " + strconv.Itoa(dim) + ", want " + strconv.Itoa(m.config.Dimension))
		}
	}
	return nil
}

func (m *CollectionManager) buildIndex() (entity.Index, error) {
	var (
		idx entity.Index
		err error
	)
	switch m.config.IndexType {
	case entity.Flat:
		idx, err = entity.NewIndexFlat(m.config.MetricType)
	case entity.IvfFlat:
		idx, err = entity.NewIndexIvfFlat(m.config.MetricType, m.config.NList)
	case entity.HNSW:
		idx, err = entity.NewIndexHNSW(m.config.MetricType, m.config.HNSWM, m.config.HNSWEf)
	default:
		return nil, errors.Newf(errors.ErrCodeValidation, "unsupported index type %q", m.config.IndexType)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid index parameters")
	}
	return idx, nil
}

// searchParam matches the search-time parameter to the index type.
func (m *CollectionManager) searchParam() (entity.SearchParam, error) {
	switch m.config.IndexType {
	case entity.Flat:
		return entity.NewIndexFlatSearchParam()
	case entity.IvfFlat:
		return entity.NewIndexIvfFlatSearchParam(16)
	default:
		return entity.NewIndexHNSWSearchParam(64)
	}
}

// DropCollection removes the collection and all vectors in it.
func (m *CollectionManager) DropCollection(ctx context.Context) error {
	has, err := m.HasCollection(ctx)
	if err != nil {
		return err
	}
	if !has {
		return ErrCollectionNotFound.WithDetail(m.config.Name)
	}
	if err := m.client.sdk().DropCollection(ctx, m.config.Name); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to drop collection")
	}
	m.logger.Warn("collection dropped", logging.String("name", m.config.Name))
	return nil
}

//Personal.AI order the ending

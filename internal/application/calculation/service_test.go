package calculation

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolDescriptor/internal/config"
	"github.com/turtacn/MolDescriptor/internal/domain/descriptor/builtin"
	domainMol "github.com/turtacn/MolDescriptor/internal/domain/molecule"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/database/redis"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/search/milvus"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/storage/minio"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/toolkit"
	"github.com/turtacn/MolDescriptor/internal/testutil"
	appErrors "github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
	"github.com/turtacn/MolDescriptor/pkg/types/molecule"
)

// ─────────────────────────────────────────────────────────────────────────────
// Mocks
// ─────────────────────────────────────────────────────────────────────────────

type MockResultCache struct{ mock.Mock }

func (m *MockResultCache) Get(ctx context.Context, keys []string, smiles string) ([]descriptor.Cell, bool, error) {
	args := m.Called(ctx, keys, smiles)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]descriptor.Cell), args.Bool(1), args.Error(2)
}

func (m *MockResultCache) Put(ctx context.Context, keys []string, smiles string, cells []descriptor.Cell) error {
	return m.Called(ctx, keys, smiles, cells).Error(0)
}

type MockResultStore struct{ mock.Mock }

func (m *MockResultStore) SaveRows(ctx context.Context, jobID string, rows []descriptor.Row) error {
	return m.Called(ctx, jobID, rows).Error(0)
}

func (m *MockResultStore) FindByMolecule(ctx context.Context, id string) (*descriptor.Row, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*descriptor.Row), args.Error(1)
}

type MockJobStore struct{ mock.Mock }

func (m *MockJobStore) Start(ctx context.Context, job descriptor.CalculationJob) (bool, error) {
	args := m.Called(ctx, job)
	return args.Bool(0), args.Error(1)
}

func (m *MockJobStore) Complete(ctx context.Context, ev descriptor.CalculationCompleted) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockJobStore) Get(ctx context.Context, jobID string) (*repositories.JobRecord, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.JobRecord), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) PublishEvent(ctx context.Context, topic, key, eventType string, payload interface{}) error {
	return m.Called(ctx, topic, key, eventType, payload).Error(0)
}

type MockExportStore struct{ mock.Mock }

func (m *MockExportStore) Export(ctx context.Context, jobID string, table descriptor.Table) (*minio.ExportResult, error) {
	args := m.Called(ctx, jobID, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*minio.ExportResult), args.Error(1)
}

func (m *MockExportStore) Download(ctx context.Context, key string, w io.Writer) error {
	return m.Called(ctx, key, w).Error(0)
}

func (m *MockExportStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockExportStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockExportStore) List(ctx context.Context, limit int) ([]minio.ObjectInfo, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]minio.ObjectInfo), args.Error(1)
}

func (m *MockExportStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

type MockVectorIndex struct{ mock.Mock }

func (m *MockVectorIndex) Dimension() int { return m.Called().Int(0) }

func (m *MockVectorIndex) Upsert(ctx context.Context, entries []milvus.Entry) (int, error) {
	args := m.Called(ctx, entries)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorIndex) Search(ctx context.Context, vector []float32, topK int) ([]descriptor.SimilarHit, error) {
	args := m.Called(ctx, vector, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]descriptor.SimilarHit), args.Error(1)
}

func (m *MockVectorIndex) Delete(ctx context.Context, ids []string) error {
	return m.Called(ctx, ids).Error(0)
}

type MockLocker struct{ mock.Mock }

func (m *MockLocker) NewMutex(name string, opts ...redis.LockOption) redis.Mutex {
	return m.Called(name).Get(0).(redis.Mutex)
}

type MockMutex struct{ mock.Mock }

func (m *MockMutex) Lock(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockMutex) TryLock(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockMutex) Unlock(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockMutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockMutex) TTL(ctx context.Context) (time.Duration, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Duration), args.Error(1)
}

// blockingMol holds its shortest-path query until ctx ends.
type blockingMol struct{ domainMol.Molecule }

func (m blockingMol) ShortestPaths(ctx context.Context, _, _ bool) ([][]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type blockingParser struct{ toolkit.Parser }

func (p blockingParser) Parse(ctx context.Context, id, smiles string) (domainMol.Molecule, error) {
	mol, err := p.Parser.Parse(ctx, id, smiles)
	if err != nil {
		return nil, err
	}
	return blockingMol{mol}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

var topoSelection = []string{"Radius", "Diameter", "WienerIndex"}

func newTestService(t *testing.T, cfg config.CalculatorConfig, opts ...Option) Service {
	t.Helper()
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	svc, err := NewService(cfg, builtin.NewRegistry(), toolkit.New(nil), testutil.NewMockLogger(), opts...)
	require.NoError(t, err)
	return svc
}

func smilesRequest(descriptors []string, smiles ...string) *descriptor.CalculateRequest {
	return &descriptor.CalculateRequest{SMILES: smiles, Descriptors: descriptors}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestNewService_RejectsUnknownDefaultSelection(t *testing.T) {
	_, err := NewService(config.CalculatorConfig{Descriptors: []string{"NoSuch"}}, builtin.NewRegistry(), toolkit.New(nil), nil)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeUnknownDescriptor))

	_, err = NewService(config.CalculatorConfig{}, nil, toolkit.New(nil), nil)
	assert.Error(t, err)
}

func TestCalculate_RowsInInputOrder(t *testing.T) {
	svc := newTestService(t, config.CalculatorConfig{Workers: 2})

	resp, err := svc.Calculate(context.Background(), smilesRequest(topoSelection, "CCC", "CC(C)C", "C1CCCCC1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Radius", "Diameter", "WPath", "WPol"}, resp.Table.ColumnNames())
	require.Len(t, resp.Table.Rows, 3)
	assert.Equal(t, "CCC", resp.Table.Rows[0].MoleculeID)
	assert.Equal(t, "C1CCCCC1", resp.Table.Rows[2].MoleculeID)
	assert.Zero(t, resp.Failed)
	assert.Empty(t, resp.JobID)

	r, ok := resp.Table.Rows[0].Get("Radius")
	require.True(t, ok)
	assert.Equal(t, descriptor.IntValue(1), r)
	d, _ := resp.Table.Rows[0].Get("Diameter")
	assert.Equal(t, descriptor.IntValue(2), d)
	w, _ := resp.Table.Rows[0].Get("WPath")
	assert.Equal(t, float64(4), w.Float64())
}

func TestCalculate_MalformedSMILESIsolated(t *testing.T) {
	svc := newTestService(t, config.CalculatorConfig{})

	resp, err := svc.Calculate(context.Background(), smilesRequest(topoSelection, "CC", "C1CC", "CCO"))
	require.NoError(t, err)
	require.Len(t, resp.Table.Rows, 3)

	assert.False(t, resp.Table.Rows[0].Failed())
	assert.True(t, resp.Table.Rows[1].Failed())
	assert.Empty(t, resp.Table.Rows[1].Cells)
	assert.False(t, resp.Table.Rows[2].Failed())
	assert.Equal(t, 1, resp.Failed)
}

func TestCalculate_SingleAtomYieldsNaN(t *testing.T) {
	svc := newTestService(t, config.CalculatorConfig{})

	resp, err := svc.Calculate(context.Background(), smilesRequest([]string{"Radius", "PetitjeanIndex"}, "C"))
	require.NoError(t, err)
	row := resp.Table.Rows[0]
	require.False(t, row.Failed())
	for _, c := range row.Cells {
		assert.True(t, c.Value.IsNaN(), c.Name)
		assert.Empty(t, c.Error)
	}
}

func TestCalculate_MoleculeTimeoutFailsRow(t *testing.T) {
	cache := new(MockResultCache)
	cache.On("Get", mock.Anything, mock.Anything, "CCCC").Return(nil, false, nil)

	cfg := config.CalculatorConfig{Workers: 1, MoleculeTimeout: 20 * time.Millisecond}
	svc, err := NewService(cfg, builtin.NewRegistry(), blockingParser{toolkit.New(nil)}, testutil.NewMockLogger(),
		WithResultCache(cache))
	require.NoError(t, err)

	resp, err := svc.Calculate(context.Background(), smilesRequest([]string{"WPath"}, "CCCC"))
	require.NoError(t, err)
	require.Len(t, resp.Table.Rows, 1)

	row := resp.Table.Rows[0]
	assert.True(t, row.Failed())
	assert.Contains(t, row.Error, string(appErrors.ErrCodeCalculationTimeout))
	assert.Empty(t, row.Cells)
	assert.Equal(t, 1, resp.Failed)
	cache.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCalculate_ToolkitFailureFailsRow(t *testing.T) {
	cache := new(MockResultCache)
	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil, false, nil)
	cache.On("Put", mock.Anything, mock.Anything, "CCC", mock.Anything).Return(nil)

	svc := newTestService(t, config.CalculatorConfig{}, WithResultCache(cache))
	resp, err := svc.Calculate(context.Background(), smilesRequest([]string{"HybRatio", "Radius"}, "c1cccc1", "CCC"))
	require.NoError(t, err)
	require.Len(t, resp.Table.Rows, 2)

	bad := resp.Table.Rows[0]
	assert.True(t, bad.Failed())
	assert.Contains(t, bad.Error, string(appErrors.ErrCodeToolkitQueryFailed))
	assert.Empty(t, bad.Cells)
	assert.False(t, resp.Table.Rows[1].Failed())
	assert.Equal(t, 1, resp.Failed)
	cache.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, "c1cccc1", mock.Anything)
}

func TestCalculate_Validation(t *testing.T) {
	svc := newTestService(t, config.CalculatorConfig{MaxBatchSize: 2})

	_, err := svc.Calculate(context.Background(), nil)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeValidation))

	_, err = svc.Calculate(context.Background(), smilesRequest(nil))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeValidation))

	_, err = svc.Calculate(context.Background(), smilesRequest(nil, "C", "CC", "CCC"))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeValidation))

	_, err = svc.Calculate(context.Background(), smilesRequest([]string{"Bogus"}, "C"))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeUnknownDescriptor))
}

func TestCalculate_CancelledContext(t *testing.T) {
	svc := newTestService(t, config.CalculatorConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Calculate(ctx, smilesRequest(topoSelection, "CCC"))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeTimeout))
}

func TestCalculate_ResultCache(t *testing.T) {
	cache := new(MockResultCache)
	cached := []descriptor.Cell{{Name: "Radius", Value: descriptor.IntValue(7)}}
	cache.On("Get", mock.Anything, []string{"Radius()"}, "CC").Return(cached, true, nil)
	cache.On("Get", mock.Anything, []string{"Radius()"}, "CCC").Return(nil, false, nil)
	cache.On("Put", mock.Anything, []string{"Radius()"}, "CCC", mock.Anything).Return(errors.New("redis down"))

	svc := newTestService(t, config.CalculatorConfig{}, WithResultCache(cache))
	resp, err := svc.Calculate(context.Background(), smilesRequest([]string{"Radius()"}, "CC", "CCC"))
	require.NoError(t, err)

	v, _ := resp.Table.Rows[0].Get("Radius")
	assert.Equal(t, descriptor.IntValue(7), v)
	v, _ = resp.Table.Rows[1].Get("Radius")
	assert.Equal(t, descriptor.IntValue(1), v)
	cache.AssertExpectations(t)
}

func TestCalculate_Persist(t *testing.T) {
	store := new(MockResultStore)
	store.On("SaveRows", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(nil)

	svc := newTestService(t, config.CalculatorConfig{}, WithResultStore(store))
	req := smilesRequest([]string{"Radius()"}, "CC")
	req.Persist = true

	resp, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.JobID)
	store.AssertExpectations(t)

	_, err = newTestService(t, config.CalculatorConfig{}).Calculate(context.Background(), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeServiceUnavailable))
}

func TestListDescriptors(t *testing.T) {
	svc := newTestService(t, config.CalculatorConfig{})
	infos, err := svc.ListDescriptors(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, infos)

	assert.Equal(t, "C1SP1", infos[0].Name)
	assert.Equal(t, "CarbonTypes", infos[0].Family)
	assert.Equal(t, descriptor.ValueInt, infos[0].Type)

	last := infos[len(infos)-1]
	assert.Equal(t, "WPol", last.Name)
}

func TestGetMoleculeResults(t *testing.T) {
	store := new(MockResultStore)
	store.On("FindByMolecule", mock.Anything, "m1").Return(&descriptor.Row{MoleculeID: "m1"}, nil)
	svc := newTestService(t, config.CalculatorConfig{}, WithResultStore(store))

	row, err := svc.GetMoleculeResults(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", row.MoleculeID)

	_, err = svc.GetMoleculeResults(context.Background(), " ")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeValidation))
}

func TestSimilar(t *testing.T) {
	idx := new(MockVectorIndex)
	hits := []descriptor.SimilarHit{{MoleculeID: "a", Distance: 0.5}}
	idx.On("Search", mock.Anything, []float32{1, 2, 4, 0}, 5).Return(hits, nil)

	svc := newTestService(t, config.CalculatorConfig{Descriptors: topoSelection}, WithVectorIndex(idx))
	got, err := svc.Similar(context.Background(), &descriptor.SimilarRequest{SMILES: "CCC", TopK: 5})
	require.NoError(t, err)
	assert.Equal(t, hits, got)

	_, err = svc.Similar(context.Background(), &descriptor.SimilarRequest{SMILES: "C1CC"})
	assert.Error(t, err)

	_, err = newTestService(t, config.CalculatorConfig{}).Similar(context.Background(), &descriptor.SimilarRequest{SMILES: "C"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeServiceUnavailable))
}

func TestSubmitJob(t *testing.T) {
	pub := new(MockPublisher)
	job := descriptor.NewCalculationJob(molecule.FromSMILES("CC"), "Radius")
	pub.On("PublishEvent", mock.Anything, kafka.TopicCalcRequests, job.JobID, kafka.EventCalculationRequested, job).Return(nil)

	svc := newTestService(t, config.CalculatorConfig{}, WithEventPublisher(pub))
	require.NoError(t, svc.SubmitJob(context.Background(), job))
	pub.AssertExpectations(t)

	bad := descriptor.NewCalculationJob(molecule.FromSMILES("CC"), "Bogus")
	assert.True(t, appErrors.IsCode(svc.SubmitJob(context.Background(), bad), appErrors.ErrCodeUnknownDescriptor))
}

func TestProcessJob_FullPipeline(t *testing.T) {
	jobs := new(MockJobStore)
	store := new(MockResultStore)
	exports := new(MockExportStore)
	idx := new(MockVectorIndex)
	pub := new(MockPublisher)

	job := descriptor.NewCalculationJob(molecule.FromSMILES("CCC", "C1CC"))
	job.Export, job.Index = true, true

	jobs.On("Start", mock.Anything, job).Return(true, nil)
	store.On("SaveRows", mock.Anything, job.JobID, mock.Anything).Return(nil)
	idx.On("Upsert", mock.Anything, mock.MatchedBy(func(es []milvus.Entry) bool {
		return len(es) == 1 && es[0].MoleculeID == "CCC"
	})).Return(1, nil)
	exports.On("Export", mock.Anything, job.JobID, mock.Anything).Return(&minio.ExportResult{Key: "exports/" + job.JobID + ".csv"}, nil)
	jobs.On("Complete", mock.Anything, mock.MatchedBy(func(ev descriptor.CalculationCompleted) bool {
		return ev.JobID == job.JobID && ev.Failed == 1 && ev.Error == ""
	})).Return(nil)
	pub.On("PublishEvent", mock.Anything, kafka.TopicCalcResults, job.JobID, kafka.EventCalculationCompleted, mock.Anything).Return(nil)

	svc := newTestService(t, config.CalculatorConfig{Descriptors: topoSelection},
		WithJobStore(jobs), WithResultStore(store), WithExportStore(exports),
		WithVectorIndex(idx), WithEventPublisher(pub))

	ev, err := svc.ProcessJob(context.Background(), job)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, 2, ev.Molecules)
	assert.Equal(t, 1, ev.Failed)
	assert.Equal(t, []string{"Radius", "Diameter", "WPath", "WPol"}, ev.Columns)
	assert.Equal(t, "exports/"+job.JobID+".csv", ev.ExportObject)

	for _, m := range []*mock.Mock{&jobs.Mock, &store.Mock, &exports.Mock, &idx.Mock, &pub.Mock} {
		m.AssertExpectations(t)
	}
}

func TestProcessJob_SkipsIndexForOtherSelection(t *testing.T) {
	idx := new(MockVectorIndex)
	job := descriptor.NewCalculationJob(molecule.FromSMILES("CC"), "Radius")
	job.Index = true

	svc := newTestService(t, config.CalculatorConfig{Descriptors: topoSelection}, WithVectorIndex(idx))
	ev, err := svc.ProcessJob(context.Background(), job)
	require.NoError(t, err)
	assert.Empty(t, ev.Error)
	idx.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestProcessJob_Duplicate(t *testing.T) {
	jobs := new(MockJobStore)
	job := descriptor.NewCalculationJob(molecule.FromSMILES("CC"))
	jobs.On("Start", mock.Anything, job).Return(false, nil)

	svc := newTestService(t, config.CalculatorConfig{}, WithJobStore(jobs))
	ev, err := svc.ProcessJob(context.Background(), job)
	assert.NoError(t, err)
	assert.Nil(t, ev)
	jobs.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestProcessJob_LockHeldElsewhere(t *testing.T) {
	locker := new(MockLocker)
	mu := new(MockMutex)
	job := descriptor.NewCalculationJob(molecule.FromSMILES("CC"))
	locker.On("NewMutex", "job:"+job.JobID).Return(mu)
	mu.On("TryLock", mock.Anything).Return(false, nil)

	svc := newTestService(t, config.CalculatorConfig{}, WithLocker(locker))
	ev, err := svc.ProcessJob(context.Background(), job)
	assert.NoError(t, err)
	assert.Nil(t, ev)
	mu.AssertNotCalled(t, "Unlock", mock.Anything)
}

func TestProcessJob_SinkFailureMarksJobFailed(t *testing.T) {
	jobs := new(MockJobStore)
	store := new(MockResultStore)
	locker := new(MockLocker)
	mu := new(MockMutex)
	job := descriptor.NewCalculationJob(molecule.FromSMILES("CC"))

	locker.On("NewMutex", "job:"+job.JobID).Return(mu)
	mu.On("TryLock", mock.Anything).Return(true, nil)
	mu.On("Unlock", mock.Anything).Return(nil)
	jobs.On("Start", mock.Anything, job).Return(true, nil)
	store.On("SaveRows", mock.Anything, job.JobID, mock.Anything).
		Return(appErrors.New(appErrors.ErrCodeDatabaseError, "insert failed"))
	jobs.On("Complete", mock.Anything, mock.MatchedBy(func(ev descriptor.CalculationCompleted) bool {
		return ev.Error != ""
	})).Return(nil)

	svc := newTestService(t, config.CalculatorConfig{}, WithJobStore(jobs), WithResultStore(store), WithLocker(locker))
	ev, err := svc.ProcessJob(context.Background(), job)
	require.NoError(t, err)
	assert.Contains(t, ev.Error, "insert failed")
	jobs.AssertExpectations(t)
	mu.AssertExpectations(t)
}

func TestProcessJob_InvalidJob(t *testing.T) {
	svc := newTestService(t, config.CalculatorConfig{})
	_, err := svc.ProcessJob(context.Background(), descriptor.CalculationJob{})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeValidation))
}

func TestIndexDimension(t *testing.T) {
	dim, err := IndexDimension(config.CalculatorConfig{Descriptors: []string{"WienerIndex", "Radius"}}, builtin.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 3, dim)

	_, err = IndexDimension(config.CalculatorConfig{Descriptors: []string{"Nope"}}, builtin.NewRegistry())
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeUnknownDescriptor))
}

//Personal.AI order the ending

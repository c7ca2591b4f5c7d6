// Package calculation provides the application-level batch descriptor
// service. It sits between the CLI, HTTP and Kafka surfaces and the
// descriptor engine, and fans results out to the optional cache, database,
// object storage and vector index.
package calculation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/MolDescriptor/internal/config"
	domainDesc "github.com/turtacn/MolDescriptor/internal/domain/descriptor"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/database/redis"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/search/milvus"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/storage/minio"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/toolkit"
	"github.com/turtacn/MolDescriptor/pkg/errors"
	"github.com/turtacn/MolDescriptor/pkg/types/common"
	"github.com/turtacn/MolDescriptor/pkg/types/descriptor"
	"github.com/turtacn/MolDescriptor/pkg/types/molecule"
)

// Service defines the batch calculation operations.
type Service interface {
	// Calculate runs the selected descriptors over every input molecule.
	// Per-molecule failures are reported in the rows, never as an error.
	Calculate(ctx context.Context, req *descriptor.CalculateRequest) (*descriptor.CalculateResponse, error)
	ListDescriptors(ctx context.Context) ([]descriptor.DescriptorInfo, error)
	GetMoleculeResults(ctx context.Context, moleculeID string) (*descriptor.Row, error)
	Similar(ctx context.Context, req *descriptor.SimilarRequest) ([]descriptor.SimilarHit, error)
	SubmitJob(ctx context.Context, job descriptor.CalculationJob) error
	GetJob(ctx context.Context, jobID string) (*repositories.JobRecord, error)
	// ProcessJob runs one asynchronous job end to end. A nil event with a
	// nil error means the job was a duplicate delivery and was skipped.
	ProcessJob(ctx context.Context, job descriptor.CalculationJob) (*descriptor.CalculationCompleted, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Collaborators
// ─────────────────────────────────────────────────────────────────────────────

// ResultCache caches the cells of one molecule for one descriptor selection.
type ResultCache interface {
	Get(ctx context.Context, descriptorKeys []string, smiles string) ([]descriptor.Cell, bool, error)
	Put(ctx context.Context, descriptorKeys []string, smiles string, cells []descriptor.Cell) error
}

// ResultStore persists calculated rows.
type ResultStore interface {
	SaveRows(ctx context.Context, jobID string, rows []descriptor.Row) error
	FindByMolecule(ctx context.Context, moleculeID string) (*descriptor.Row, error)
}

// JobStore tracks asynchronous jobs. Start returns false for a job that was
// already recorded.
type JobStore interface {
	Start(ctx context.Context, job descriptor.CalculationJob) (bool, error)
	Complete(ctx context.Context, ev descriptor.CalculationCompleted) error
	Get(ctx context.Context, jobID string) (*repositories.JobRecord, error)
}

// EventPublisher publishes enveloped events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key, eventType string, payload interface{}) error
}

var (
	_ ResultCache    = (*redis.ResultCache)(nil)
	_ ResultStore    = (*repositories.ResultRepository)(nil)
	_ JobStore       = (*repositories.JobRepository)(nil)
	_ EventPublisher = (*kafka.Producer)(nil)
)

// Option wires an optional collaborator.
type Option func(*serviceImpl)

func WithResultCache(c ResultCache) Option { return func(s *serviceImpl) { s.cache = c } }
func WithResultStore(r ResultStore) Option { return func(s *serviceImpl) { s.results = r } }
func WithJobStore(j JobStore) Option       { return func(s *serviceImpl) { s.jobs = j } }

func WithExportStore(e minio.ExportStore) Option  { return func(s *serviceImpl) { s.exports = e } }
func WithVectorIndex(v milvus.VectorIndex) Option { return func(s *serviceImpl) { s.vectors = v } }
func WithEventPublisher(p EventPublisher) Option  { return func(s *serviceImpl) { s.events = p } }

// WithLocker serialises concurrent deliveries of the same job.
func WithLocker(l redis.Locker) Option { return func(s *serviceImpl) { s.locker = l } }

// WithMetrics records batch, molecule and per-descriptor metrics.
func WithMetrics(m *prometheus.AppMetrics) Option { return func(s *serviceImpl) { s.metrics = m } }

// ─────────────────────────────────────────────────────────────────────────────
// Implementation
// ─────────────────────────────────────────────────────────────────────────────

type serviceImpl struct {
	cfg      config.CalculatorConfig
	registry *domainDesc.Registry
	resolver *domainDesc.Resolver
	parser   toolkit.Parser
	logger   logging.Logger

	// index is the calculator over the default selection; its columns
	// define the vector layout of the similarity index.
	index *domainDesc.Calculator

	cache   ResultCache
	results ResultStore
	jobs    JobStore
	exports minio.ExportStore
	vectors milvus.VectorIndex
	events  EventPublisher
	locker  redis.Locker
	metrics *prometheus.AppMetrics
}

// NewService creates the calculation service. The default selection in cfg
// is resolved eagerly so configuration mistakes fail at start-up.
func NewService(cfg config.CalculatorConfig, reg *domainDesc.Registry, parser toolkit.Parser, logger logging.Logger, opts ...Option) (Service, error) {
	if reg == nil || parser == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "registry and parser are required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxBatchSize < 1 || cfg.MaxBatchSize > descriptor.MaxBatchSize {
		cfg.MaxBatchSize = descriptor.MaxBatchSize
	}

	s := &serviceImpl{cfg: cfg, registry: reg, parser: parser, logger: logger.Named("calculation")}
	for _, opt := range opts {
		opt(s)
	}

	var resolverOpts []domainDesc.Option
	if s.metrics != nil {
		resolverOpts = append(resolverOpts, domainDesc.WithObserver(prometheus.DescriptorObserver(s.metrics)))
	}
	s.resolver = domainDesc.NewResolver(reg, resolverOpts...)

	index, err := s.calculator(nil)
	if err != nil {
		return nil, err
	}
	s.index = index
	return s, nil
}

// calculator builds a calculator for names, falling back to the configured
// default selection when names is empty.
func (s *serviceImpl) calculator(names []string) (*domainDesc.Calculator, error) {
	if len(names) == 0 {
		names = s.cfg.Descriptors
	}
	ds, err := s.registry.Select(names...)
	if err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "descriptor selection is empty")
	}
	return domainDesc.NewCalculator(s.resolver, ds...)
}

func (s *serviceImpl) Calculate(ctx context.Context, req *descriptor.CalculateRequest) (*descriptor.CalculateResponse, error) {
	if req == nil {
		return nil, errors.New(errors.ErrCodeValidation, "request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid calculation request")
	}
	inputs := req.Inputs()
	if len(inputs) > s.cfg.MaxBatchSize {
		return nil, errors.Newf(errors.ErrCodeValidation, "batch exceeds %d molecules", s.cfg.MaxBatchSize)
	}

	calc, err := s.calculator(req.Descriptors)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	table, err := s.run(ctx, calc, inputs)
	if err != nil {
		return nil, err
	}
	resp := &descriptor.CalculateResponse{Table: table, Failed: table.Failed(), Duration: time.Since(start)}

	if req.Persist {
		if s.results == nil {
			return nil, errors.New(errors.ErrCodeServiceUnavailable, "result persistence is not configured")
		}
		resp.JobID = uuid.New().String()
		saveStart := time.Now()
		err := s.results.SaveRows(ctx, resp.JobID, table.Rows)
		if s.metrics != nil {
			prometheus.RecordDBQuery(s.metrics, "save_rows", time.Since(saveStart), err)
		}
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("batch calculated",
		logging.Int("molecules", len(table.Rows)),
		logging.Int("columns", len(table.Columns)),
		logging.Int("failed", resp.Failed),
		logging.Duration("took", resp.Duration))
	return resp, nil
}

// run calculates every input in parallel. Rows keep the input order.
func (s *serviceImpl) run(ctx context.Context, calc *domainDesc.Calculator, inputs []molecule.MoleculeInput) (descriptor.Table, error) {
	table := descriptor.Table{Columns: Columns(calc), Rows: make([]descriptor.Row, len(inputs))}
	keys := keyStrings(calc)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			table.Rows[i], _ = s.calculateOne(gctx, calc, keys, in)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return table, errors.Wrap(err, errors.ErrCodeTimeout, "batch interrupted")
	}
	if s.metrics != nil {
		prometheus.RecordBatch(s.metrics, len(inputs), time.Since(start))
	}
	return table, nil
}

// calculateOne produces the row of one molecule. The returned error is the
// molecule-level failure already recorded in Row.Error.
func (s *serviceImpl) calculateOne(ctx context.Context, calc *domainDesc.Calculator, keys []string, in molecule.MoleculeInput) (descriptor.Row, error) {
	row := descriptor.Row{MoleculeID: in.Identifier(), SMILES: strings.TrimSpace(in.SMILES)}

	if cells, ok := s.cached(ctx, keys, row.SMILES); ok {
		row.Cells = cells
		return row, nil
	}

	mctx := ctx
	if s.cfg.MoleculeTimeout > 0 {
		var cancel context.CancelFunc
		mctx, cancel = context.WithTimeout(ctx, s.cfg.MoleculeTimeout)
		defer cancel()
	}

	err := s.evaluate(mctx, calc, &row)
	if s.metrics != nil {
		prometheus.RecordMolecule(s.metrics, err)
	}
	if err != nil {
		row.Cells = nil
		row.Error = err.Error()
		s.logger.Debug("molecule failed", logging.Molecule(row.MoleculeID), logging.Err(err))
		return row, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, keys, row.SMILES, row.Cells); err != nil {
			s.logger.Warn("result cache store failed", logging.Molecule(row.MoleculeID), logging.Err(err))
		}
	}
	return row, nil
}

func (s *serviceImpl) evaluate(ctx context.Context, calc *domainDesc.Calculator, row *descriptor.Row) error {
	mol, err := s.parser.Parse(ctx, row.MoleculeID, row.SMILES)
	if err != nil {
		return err
	}
	results, err := calc.Calculate(ctx, mol)
	if err != nil {
		return err
	}
	for _, r := range results {
		if toolkitFailure(r.Err) {
			return r.Err
		}
	}
	row.Cells = make([]descriptor.Cell, len(results))
	for i, r := range results {
		row.Cells[i] = toCell(r)
	}
	return nil
}

// toolkitFailure reports whether err came from the toolkit binding rather
// than from a descriptor. Such failures fail the whole molecule.
func toolkitFailure(err error) bool {
	return errors.IsCode(err, errors.ErrCodeToolkitQueryFailed) ||
		errors.IsCode(err, errors.ErrCodeMoleculeInvalidSMILES) ||
		errors.IsCode(err, errors.ErrCodeMoleculeEmpty)
}

func (s *serviceImpl) cached(ctx context.Context, keys []string, smiles string) ([]descriptor.Cell, bool) {
	if s.cache == nil {
		return nil, false
	}
	cells, ok, err := s.cache.Get(ctx, keys, smiles)
	if err != nil {
		s.logger.Warn("result cache lookup failed", logging.String("smiles", smiles), logging.Err(err))
		return nil, false
	}
	if s.metrics != nil {
		prometheus.RecordResultCache(s.metrics, ok)
	}
	return cells, ok
}

func (s *serviceImpl) ListDescriptors(_ context.Context) ([]descriptor.DescriptorInfo, error) {
	var out []descriptor.DescriptorInfo
	for _, fam := range s.registry.Families() {
		for _, d := range fam.Preset() {
			out = append(out, descriptor.DescriptorInfo{
				Name:        d.Name(),
				Key:         d.Key().String(),
				Family:      fam.Name,
				Type:        valueType(d.ResultType()),
				Description: fam.Description,
			})
		}
	}
	return out, nil
}

func (s *serviceImpl) GetMoleculeResults(ctx context.Context, moleculeID string) (*descriptor.Row, error) {
	if strings.TrimSpace(moleculeID) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "molecule id is required")
	}
	if s.results == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "result persistence is not configured")
	}
	return s.results.FindByMolecule(ctx, moleculeID)
}

// Similar calculates the query molecule over the default selection and
// searches the vector index with the resulting vector.
func (s *serviceImpl) Similar(ctx context.Context, req *descriptor.SimilarRequest) ([]descriptor.SimilarHit, error) {
	if req == nil || strings.TrimSpace(req.SMILES) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "smiles is required")
	}
	if s.vectors == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "vector index is not configured")
	}

	in := molecule.MoleculeInput{Format: molecule.FormatSMILES, SMILES: req.SMILES}
	row, err := s.calculateOne(ctx, s.index, keyStrings(s.index), in)
	if err != nil {
		return nil, err
	}
	entry, _ := milvus.EntryFromRow(row, Columns(s.index))
	return s.vectors.Search(ctx, entry.Vector, req.TopK)
}

// SubmitJob enqueues job on the request topic.
func (s *serviceImpl) SubmitJob(ctx context.Context, job descriptor.CalculationJob) error {
	if err := job.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid calculation job")
	}
	if _, err := s.registry.Select(job.Descriptors...); err != nil {
		return err
	}
	if s.events == nil {
		return errors.New(errors.ErrCodeServiceUnavailable, "job queue is not configured")
	}
	if err := s.events.PublishEvent(ctx, kafka.TopicCalcRequests, job.JobID, kafka.EventCalculationRequested, job); err != nil {
		return err
	}
	s.logger.Info("calculation job submitted",
		logging.String("job_id", job.JobID),
		logging.Int("molecules", len(job.Molecules)))
	return nil
}

func (s *serviceImpl) GetJob(ctx context.Context, jobID string) (*repositories.JobRecord, error) {
	if s.jobs == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "job tracking is not configured")
	}
	return s.jobs.Get(ctx, jobID)
}

func (s *serviceImpl) ProcessJob(ctx context.Context, job descriptor.CalculationJob) (*descriptor.CalculationCompleted, error) {
	if err := job.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid calculation job")
	}
	log := s.logger.With(logging.String("job_id", job.JobID))

	if s.locker != nil {
		mu := s.locker.NewMutex("job:"+job.JobID, redis.WithWatchdog(0))
		ok, err := mu.TryLock(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Info("job is being processed by another worker")
			return nil, nil
		}
		defer func() {
			if err := mu.Unlock(context.WithoutCancel(ctx)); err != nil {
				log.Warn("failed to release job lock", logging.Err(err))
			}
		}()
	}

	if s.jobs != nil {
		started, err := s.jobs.Start(ctx, job)
		if err != nil {
			return nil, err
		}
		if !started {
			log.Info("duplicate job delivery skipped")
			return nil, nil
		}
	}

	start := time.Now()
	ev := descriptor.CalculationCompleted{
		BaseEvent: common.NewBaseEvent(job.JobID),
		JobID:     job.JobID,
		Molecules: len(job.Molecules),
	}
	if err := s.executeJob(ctx, job, &ev); err != nil {
		ev.Error = err.Error()
		log.Error("calculation job failed", logging.Err(err))
	}
	ev.Duration = time.Since(start)

	if s.jobs != nil {
		if err := s.jobs.Complete(ctx, ev); err != nil {
			return &ev, err
		}
	}
	if s.events != nil {
		if err := s.events.PublishEvent(ctx, kafka.TopicCalcResults, job.JobID, kafka.EventCalculationCompleted, ev); err != nil {
			return &ev, err
		}
	}

	log.Info("calculation job finished",
		logging.Int("molecules", ev.Molecules),
		logging.Int("failed", ev.Failed),
		logging.Duration("took", ev.Duration))
	return &ev, nil
}

// executeJob calculates the job and fans the table out to the configured
// sinks, filling ev as it goes.
func (s *serviceImpl) executeJob(ctx context.Context, job descriptor.CalculationJob, ev *descriptor.CalculationCompleted) error {
	calc, err := s.calculator(job.Descriptors)
	if err != nil {
		return err
	}
	table, err := s.run(ctx, calc, job.Molecules)
	if err != nil {
		return err
	}
	ev.Failed = table.Failed()
	ev.Columns = table.ColumnNames()

	if s.results != nil {
		saveStart := time.Now()
		err := s.results.SaveRows(ctx, job.JobID, table.Rows)
		if s.metrics != nil {
			prometheus.RecordDBQuery(s.metrics, "save_rows", time.Since(saveStart), err)
		}
		if err != nil {
			return err
		}
	}

	if job.Index && s.vectors != nil {
		if err := s.indexTable(ctx, table); err != nil {
			return err
		}
	}

	if job.Export && s.exports != nil {
		res, err := s.exports.Export(ctx, job.JobID, table)
		if err != nil {
			return err
		}
		ev.ExportObject = res.Key
	}
	return nil
}

// indexTable upserts the vectors of a table whose columns match the index
// layout. Tables over another selection are not indexed.
func (s *serviceImpl) indexTable(ctx context.Context, table descriptor.Table) error {
	cols := Columns(s.index)
	if !sameColumns(cols, table.Columns) {
		s.logger.Warn("selection differs from the index layout, skipping vector indexing",
			logging.Int("columns", len(table.Columns)),
			logging.Int("index_columns", len(cols)))
		return nil
	}
	entries := make([]milvus.Entry, 0, len(table.Rows))
	for _, row := range table.Rows {
		if e, ok := milvus.EntryFromRow(row, cols); ok {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil
	}
	_, err := s.vectors.Upsert(ctx, entries)
	return err
}

//Personal.AI order the ending

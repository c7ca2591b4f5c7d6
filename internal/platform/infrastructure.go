// Package platform assembles the optional backends shared by the API server
// and the worker. Every backend is enabled independently; a disabled one is
// left nil and the calculation service runs without it.
package platform

import (
	"context"
	"fmt"

	"github.com/turtacn/MolDescriptor/internal/application/calculation"
	"github.com/turtacn/MolDescriptor/internal/config"
	domainDesc "github.com/turtacn/MolDescriptor/internal/domain/descriptor"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/database/postgres"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/database/redis"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/search/milvus"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/storage/minio"
	"github.com/turtacn/MolDescriptor/internal/interfaces/http/handlers"
)

// Infrastructure holds the connected backends.
type Infrastructure struct {
	Postgres *postgres.Connection
	Redis    *redis.Client
	MinIO    *minio.Client
	Milvus   *milvus.Client
	Producer *kafka.Producer

	searcher *milvus.Searcher
	cfg      *config.Config
	logger   logging.Logger
}

// Init connects every enabled backend. On failure the backends connected
// so far are closed.
func Init(ctx context.Context, cfg *config.Config, reg *domainDesc.Registry, logger logging.Logger) (*Infrastructure, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	infra := &Infrastructure{cfg: cfg, logger: logger}

	steps := []struct {
		name    string
		enabled bool
		fn      func(context.Context) error
	}{
		{"postgres", cfg.Database.Enabled, infra.initPostgres},
		{"redis", cfg.Redis.Enabled, infra.initRedis},
		{"minio", cfg.MinIO.Enabled, infra.initMinIO},
		{"milvus", cfg.Milvus.Enabled, func(ctx context.Context) error { return infra.initMilvus(ctx, reg) }},
		{"kafka", cfg.Kafka.Enabled, infra.initKafka},
	}
	for _, step := range steps {
		if !step.enabled {
			continue
		}
		if err := step.fn(ctx); err != nil {
			infra.Close()
			return nil, fmt.Errorf("%s: %w", step.name, err)
		}
		logger.Info("backend connected", logging.String("backend", step.name))
	}
	return infra, nil
}

func (i *Infrastructure) initPostgres(ctx context.Context) error {
	if i.cfg.Database.AutoMigrate {
		mg, err := postgres.NewMigrator(i.cfg.Database, i.logger)
		if err != nil {
			return err
		}
		err = mg.Up()
		mg.Close()
		if err != nil {
			return err
		}
	}
	conn, err := postgres.NewConnection(ctx, i.cfg.Database, i.logger)
	if err != nil {
		return err
	}
	i.Postgres = conn
	return nil
}

func (i *Infrastructure) initRedis(ctx context.Context) error {
	client, err := redis.NewClient(ctx, i.cfg.Redis, i.logger)
	if err != nil {
		return err
	}
	i.Redis = client
	return nil
}

func (i *Infrastructure) initMinIO(ctx context.Context) error {
	client, err := minio.NewClient(ctx, i.cfg.MinIO, i.logger)
	if err != nil {
		return err
	}
	i.MinIO = client
	return client.EnsureBucket(ctx)
}

// initMilvus sizes the collection from the default descriptor selection.
func (i *Infrastructure) initMilvus(ctx context.Context, reg *domainDesc.Registry) error {
	dim, err := calculation.IndexDimension(i.cfg.Calculator, reg)
	if err != nil {
		return err
	}
	client, err := milvus.NewClient(ctx, milvus.ClientConfigFrom(i.cfg.Milvus), i.logger)
	if err != nil {
		return err
	}
	i.Milvus = client

	collections := milvus.NewCollectionManager(client, milvus.CollectionConfigFrom(i.cfg.Milvus, dim), i.logger)
	if err := collections.EnsureCollection(ctx); err != nil {
		return err
	}
	i.searcher = milvus.NewSearcher(client, collections, milvus.SearcherConfig{DefaultTopK: i.cfg.Milvus.DefaultTopK}, i.logger)
	return nil
}

func (i *Infrastructure) initKafka(ctx context.Context) error {
	if i.cfg.Kafka.AutoCreateTopics {
		tm, err := kafka.NewTopicManager(i.cfg.Kafka.Brokers, i.logger)
		if err != nil {
			return err
		}
		err = tm.EnsureTopics(ctx, kafka.DefaultTopics(i.cfg.Kafka.NumPartitions, i.cfg.Kafka.ReplicationFactor))
		tm.Close()
		if err != nil {
			return err
		}
	}
	producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(i.cfg.Kafka), i.logger)
	if err != nil {
		return err
	}
	i.Producer = producer
	return nil
}

// ServiceOptions wires the connected backends into the calculation service.
func (i *Infrastructure) ServiceOptions(metrics *prometheus.AppMetrics) []calculation.Option {
	var opts []calculation.Option
	if metrics != nil {
		opts = append(opts, calculation.WithMetrics(metrics))
	}
	if i.Postgres != nil {
		opts = append(opts,
			calculation.WithResultStore(repositories.NewResultRepository(i.Postgres, i.logger)),
			calculation.WithJobStore(repositories.NewJobRepository(i.Postgres, i.logger)))
	}
	if i.Redis != nil {
		cache := redis.NewRedisCache(i.Redis, i.logger, redis.WithPrefix(i.cfg.Redis.KeyPrefix))
		opts = append(opts,
			calculation.WithResultCache(redis.NewResultCache(cache, i.cfg.Redis.DefaultTTL, i.logger)),
			calculation.WithLocker(redis.NewLocker(i.Redis, i.cfg.Redis.KeyPrefix, i.logger)))
	}
	if i.MinIO != nil {
		opts = append(opts, calculation.WithExportStore(minio.NewExportRepository(i.MinIO, i.logger)))
	}
	if i.searcher != nil {
		opts = append(opts, calculation.WithVectorIndex(i.searcher))
	}
	if i.Producer != nil {
		opts = append(opts, calculation.WithEventPublisher(i.Producer))
	}
	return opts
}

// HealthCheckers reports one readiness check per connected backend.
func (i *Infrastructure) HealthCheckers() []handlers.HealthChecker {
	var checks []handlers.HealthChecker
	if i.Postgres != nil {
		checks = append(checks, handlers.CheckFunc{Component: "postgres", Fn: i.Postgres.HealthCheck})
	}
	if i.Redis != nil {
		checks = append(checks, handlers.CheckFunc{Component: "redis", Fn: i.Redis.Ping})
	}
	if i.MinIO != nil {
		checks = append(checks, handlers.CheckFunc{Component: "minio", Fn: func(ctx context.Context) error {
			st, err := i.MinIO.HealthCheck(ctx)
			if err != nil {
				return err
			}
			if !st.Healthy {
				return fmt.Errorf("%s", st.Error)
			}
			return nil
		}})
	}
	if i.Milvus != nil {
		checks = append(checks, handlers.CheckFunc{Component: "milvus", Fn: i.Milvus.CheckHealth})
	}
	return checks
}

type closer struct {
	name string
	fn   func() error
}

// Close releases the backends in reverse order of connection.
func (i *Infrastructure) Close() {
	var closers []closer
	if i.Producer != nil {
		closers = append(closers, closer{"kafka", i.Producer.Close})
	}
	if i.Milvus != nil {
		closers = append(closers, closer{"milvus", i.Milvus.Close})
	}
	if i.MinIO != nil {
		closers = append(closers, closer{"minio", i.MinIO.Close})
	}
	if i.Redis != nil {
		closers = append(closers, closer{"redis", i.Redis.Close})
	}
	if i.Postgres != nil {
		closers = append(closers, closer{"postgres", i.Postgres.Close})
	}
	for _, c := range closers {
		if err := c.fn(); err != nil {
			i.logger.Warn("backend close failed", logging.String("backend", c.name), logging.Err(err))
		}
	}
}

//Personal.AI order the ending

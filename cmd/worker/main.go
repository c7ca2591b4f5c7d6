// Command worker consumes calculation jobs from Kafka and runs them through
// the calculation service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/MolDescriptor/internal/application/calculation"
	"github.com/turtacn/MolDescriptor/internal/config"
	"github.com/turtacn/MolDescriptor/internal/domain/descriptor/builtin"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/toolkit"
	httpserver "github.com/turtacn/MolDescriptor/internal/interfaces/http"
	"github.com/turtacn/MolDescriptor/internal/interfaces/http/handlers"
	"github.com/turtacn/MolDescriptor/internal/platform"
)

const defaultHealthPort = 8081

// Build-time variables injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (environment only when empty)")
	workers := flag.Int("workers", 0, "number of consumers in the group (overrides config)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for /healthz, /readyz and /metrics")
	flag.Parse()

	if err := run(*configPath, *workers, *healthPort); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, workers, healthPort int) error {
	cfg, err := config.LoadOrEnv(configPath)
	if err != nil {
		return err
	}
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka must be enabled for the worker")
	}
	if workers > 0 {
		cfg.Worker.Concurrency = workers
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		EnableCaller:     cfg.Log.EnableCaller,
		EnableStacktrace: cfg.Log.EnableStacktrace,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger = logger.Named("worker")
	logger.Info("starting MolDescriptor worker",
		logging.String("version", version),
		logging.Int("consumers", cfg.Worker.Concurrency))

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Monitoring.Prometheus.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := builtin.Default()
	infra, err := platform.Init(ctx, cfg, registry, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := calculation.NewService(cfg.Calculator, registry, toolkit.New(logger), logger, infra.ServiceOptions(metrics)...)
	if err != nil {
		return err
	}
	handler := calculation.InstrumentHandler(calculation.NewJobHandler(svc, logger), metrics)

	// Consumers share one group so Kafka spreads partitions across them.
	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	defer func() {
		for _, c := range consumers {
			if err := c.Close(); err != nil {
				logger.Warn("consumer close failed", logging.Err(err))
			}
		}
	}()
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		c, err := kafka.NewConsumer(kafka.ConsumerConfigFrom(cfg.Kafka, cfg.Worker), infra.Producer, logger.With(logging.Int("consumer", i)))
		if err != nil {
			return err
		}
		consumers = append(consumers, c)
		c.Subscribe(kafka.TopicCalcRequests, handler)
		if err := c.Start(ctx); err != nil {
			return err
		}
	}

	healthSrv := httpserver.NewServer(config.ServerConfig{Port: healthPort, ShutdownTimeout: cfg.Server.ShutdownTimeout},
		httpserver.NewRouter(httpserver.RouterConfig{
			HealthHandler:    handlers.NewHealthHandler(version, metrics, infra.HealthCheckers()...),
			Logger:           logger,
			MetricsCollector: collector,
		}), logger)
	errCh := make(chan error, 1)
	go func() {
		if err := healthSrv.Start(); err != nil {
			errCh <- fmt.Errorf("health server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("health server failed", logging.Err(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := healthSrv.Stop(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}
	logger.Info("MolDescriptor worker stopped")
	return runErr
}

//Personal.AI order the ending

// Command apiserver serves the descriptor API over HTTP and gRPC.
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
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolDescriptor/internal/infrastructure/toolkit"
	grpcserver "github.com/turtacn/MolDescriptor/internal/interfaces/grpc"
	"github.com/turtacn/MolDescriptor/internal/interfaces/grpc/services"
	httpserver "github.com/turtacn/MolDescriptor/internal/interfaces/http"
	"github.com/turtacn/MolDescriptor/internal/interfaces/http/handlers"
	"github.com/turtacn/MolDescriptor/internal/interfaces/http/middleware"
	"github.com/turtacn/MolDescriptor/internal/platform"
)

// Build-time variables injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (environment only when empty)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *httpPort, *grpcPort); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, httpPort, grpcPort int) error {
	cfg, err := config.LoadOrEnv(configPath)
	if err != nil {
		return err
	}
	if httpPort > 0 {
		cfg.Server.Port = httpPort
	}
	if grpcPort > 0 {
		cfg.Server.GRPCPort = grpcPort
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
	logger = logger.Named("apiserver")
	logger.Info("starting MolDescriptor API server",
		logging.String("version", version),
		logging.Int("http_port", cfg.Server.Port),
		logging.Int("grpc_port", cfg.Server.GRPCPort))

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

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.Server.CORSOrigins
	}
	router := httpserver.NewRouter(httpserver.RouterConfig{
		CalculationHandler:  handlers.NewCalculationHandler(svc, logger),
		HealthHandler:       handlers.NewHealthHandler(version, metrics, infra.HealthCheckers()...),
		CORSMiddleware:      middleware.NewCORSMiddleware(corsCfg),
		LoggingMiddleware:   middleware.NewLoggingMiddleware(logger, metrics, middleware.DefaultLoggingConfig()),
		RateLimitMiddleware: middleware.NewRateLimitMiddleware(middleware.DefaultRateLimitConfig()),
		MaxBodySize:         cfg.Server.MaxBodySize,
		Logger:              logger,
		MetricsCollector:    collector,
	})
	httpSrv := httpserver.NewServer(cfg.Server, router, logger)

	grpcSrv, err := grpcserver.NewServer(fmt.Sprintf(":%d", cfg.Server.GRPCPort),
		grpcserver.WithLogger(logger),
		grpcserver.WithMetrics(metrics),
		grpcserver.WithMaxMsgSize(int(cfg.Server.MaxBodySize)),
		grpcserver.WithGracefulTimeout(cfg.Server.ShutdownTimeout),
		grpcserver.WithReflection())
	if err != nil {
		return err
	}
	grpcSrv.RegisterService(&services.DescriptorServiceDesc, services.NewDescriptorService(svc, logger))

	errCh := make(chan error, 2)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := grpcSrv.Start(); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server failed", logging.Err(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Stop(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", logging.Err(err))
	}
	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		logger.Error("grpc server shutdown error", logging.Err(err))
	}
	logger.Info("servers stopped")
	return runErr
}

//Personal.AI order the ending

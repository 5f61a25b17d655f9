package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/parkwarden/parkwarden/internal/anpr"
	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/internal/telemetry"
	"github.com/parkwarden/parkwarden/pkg/api"
	"github.com/parkwarden/parkwarden/pkg/api/handlers"
	"github.com/parkwarden/parkwarden/pkg/audit"
	"github.com/parkwarden/parkwarden/pkg/config"
	"github.com/parkwarden/parkwarden/pkg/export"
	"github.com/parkwarden/parkwarden/pkg/ingest"
	"github.com/parkwarden/parkwarden/pkg/metrics"
	"github.com/parkwarden/parkwarden/pkg/reconcile"
	"github.com/parkwarden/parkwarden/pkg/review"
	"github.com/parkwarden/parkwarden/pkg/rules"
	"github.com/parkwarden/parkwarden/pkg/scheduler"
	"github.com/parkwarden/parkwarden/pkg/session"
	"github.com/parkwarden/parkwarden/pkg/store"
	"github.com/parkwarden/parkwarden/pkg/suspension"
	"github.com/spf13/cobra"
)

// jobSnapshotExport is the lock name of the periodic snapshot publisher.
const jobSnapshotExport = "snapshot-export"

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the parkwarden server",
	Long: `Start the parkwarden compliance server with the specified configuration.

The server runs in the foreground; use a process supervisor for daemonization.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/parkwarden/config.yaml.

Examples:
  # Start with default config location
  parkwarden start

  # Start with custom config file
  parkwarden start --config /etc/parkwarden/config.yaml

  # Start with environment variable overrides
  PARKWARDEN_LOGGING_LEVEL=DEBUG parkwarden start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "parkwarden",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "parkwarden",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	// Initialize metrics (if enabled)
	var coreMetrics *metrics.CoreMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		coreMetrics = metrics.NewCoreMetrics()
		logger.Info("Metrics enabled")
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Open the compliance store (applies migrations)
	st, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() { _ = st.Close() }()
	logger.Info("Store initialized", "type", cfg.Database.Type)

	// Domain components
	sink := audit.NewSink(st)

	engine := rules.NewEngine(st, sink)
	engine.SetMetrics(coreMetrics)

	reconstructor := session.NewReconstructor(st, engine, sink)
	reconstructor.SetMetrics(coreMetrics)

	reconcileService := reconcile.NewService(st, engine, sink)
	dispatcher := reconcile.NewDispatcher(reconcileService, reconcile.DispatcherConfig{
		QueueSize:   cfg.Reconcile.QueueSize,
		Workers:     cfg.Reconcile.Workers,
		TaskTimeout: cfg.Reconcile.TaskTimeout,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Stop(cfg.ShutdownTimeout)
	metrics.RegisterQueueCollector("reconcile", dispatcher)

	pipeline, err := ingest.NewPipeline(ctx, st, reconstructor, dispatcher, sink)
	if err != nil {
		return fmt.Errorf("failed to initialize ingestion pipeline: %w", err)
	}
	pipeline.SetMetrics(coreMetrics)

	reviewWorkflow := review.NewWorkflow(st, pipeline.Validator(), reconstructor, sink)
	suspensionRegistry := suspension.NewRegistry(st, sink)
	builder := export.NewBuilder(st, cfg.Export.Validity)

	// Snapshot publisher (if enabled)
	var publisher *export.Publisher
	if cfg.Export.Enabled {
		publisher, err = export.NewPublisherFromConfig(ctx, export.PublisherConfig{
			Bucket:          cfg.Export.Bucket,
			Region:          cfg.Export.Region,
			Endpoint:        cfg.Export.Endpoint,
			KeyPrefix:       cfg.Export.KeyPrefix,
			ForcePathStyle:  cfg.Export.ForcePathStyle,
			AccessKeyID:     cfg.Export.AccessKeyID,
			SecretAccessKey: cfg.Export.SecretAccessKey,
		}, builder)
		if err != nil {
			return fmt.Errorf("failed to initialize snapshot publisher: %w", err)
		}
		logger.Info("Snapshot export enabled", "bucket", cfg.Export.Bucket, "interval", cfg.Export.Interval.String())
	}

	// Scheduled jobs
	sched := scheduler.New(st)
	sched.SetMetrics(coreMetrics)
	sched.Register(scheduler.JobReevaluate, cfg.Scheduler.ReevaluateInterval,
		scheduler.NewReevaluator(st, engine, sink, cfg.Scheduler.ReevaluateBatchSize).Run)
	sched.Register(scheduler.JobExpiry, cfg.Scheduler.ExpiryInterval,
		scheduler.NewExpiryJob(reconstructor, sink, cfg.Scheduler.StaleThreshold).Run)
	if publisher != nil {
		sched.Register(jobSnapshotExport, cfg.Export.Interval, func(ctx context.Context) error {
			_, err := publisher.PublishAll(ctx, st)
			return err
		})
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop(cfg.ShutdownTimeout)

	// Camera feed poller (if enabled)
	if cfg.ANPR.Enabled {
		poller := anpr.NewPoller(pipeline, anpr.Config{
			URL:            cfg.ANPR.URL,
			PollInterval:   cfg.ANPR.PollInterval,
			RequestTimeout: cfg.ANPR.RequestTimeout,
		})
		poller.Start(ctx)
		defer poller.Stop(cfg.ShutdownTimeout)
	}

	// REST API server
	apiServer := api.NewServer(cfg.API, api.Services{
		Health:      handlers.NewHealthHandler(st, dispatcher),
		Ingest:      handlers.NewIngestHandler(pipeline),
		Reviews:     handlers.NewReviewHandler(reviewWorkflow),
		Suspensions: handlers.NewSuspensionHandler(suspensionRegistry),
		Decisions:   handlers.NewDecisionHandler(st, sink),
		Sites:       handlers.NewSiteHandler(st, builder, publisher, dispatcher),
		Metrics:     metrics.Handler(),
	})
	logger.Info("API server configured", "port", apiServer.Port())

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

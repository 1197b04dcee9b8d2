package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/interview-engine/internal/api"
	interviewapi "github.com/futig/interview-engine/internal/api/interview"
	"github.com/futig/interview-engine/internal/config"
	"github.com/futig/interview-engine/internal/integration/backend"
	"github.com/futig/interview-engine/internal/integration/expression"
	"github.com/futig/interview-engine/internal/integration/signal"
	"github.com/futig/interview-engine/internal/interview/analyzer"
	"github.com/futig/interview-engine/internal/observe"
	"github.com/futig/interview-engine/internal/pkg/formatter"
	"github.com/futig/interview-engine/internal/repository"
	"github.com/futig/interview-engine/internal/usecase/interview"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const serviceName = "interview-engine"

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.Bool("use_ai", cfg.UseAI),
	)

	// Setup metrics
	var (
		metricsHandler  http.Handler
		shutdownMetrics func(context.Context) error
	)
	if cfg.MetricsEnabled {
		shutdownMetrics, err = observe.InitProvider(ctx, serviceName)
		if err != nil {
			return nil, fmt.Errorf("setup metrics: %w", err)
		}
		metricsHandler = promhttp.Handler()
		logger.Info("Metrics provider initialized")
	}

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	reportRepo := repository.NewReportPostgres(db)
	snapshotCache := repository.NewSnapshotCache(cfg.InterviewCfg.SnapshotTTL)
	logger.Info("Repositories initialized")

	// Initialize external service connectors (with mock support)
	var backendConnector interview.BackendConnector
	var detector analyzer.Detector
	var subscriber interview.SignalSubscriber

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		backendConnector = backend.NewMockConnector(logger)
		detector = expression.NewMockConnector(logger)
		subscriber = signal.NewMockSubscriber(logger)
	} else {
		logger.Info("Using real connectors for external services")
		backendConnector = backend.NewConnector(cfg.BackendConnectorCfg, logger)
		detector = expression.NewConnector(cfg.ExpressionConnectorCfg, logger)
		if cfg.SignalConnectorCfg.URL != "" {
			subscriber = signal.NewSubscriber(cfg.SignalConnectorCfg, logger)
		} else {
			logger.Warn("SIGNAL_URL is not set, signals are accepted over HTTP only")
			subscriber = signal.NewMockSubscriber(logger)
		}
	}

	// Initialize use cases
	interviewUC := interview.NewUsecase(
		backendConnector,
		detector,
		subscriber,
		reportRepo,
		snapshotCache,
		formatter.NewFactory(),
		cfg.InterviewCfg,
		cfg.UseAI,
		cfg.PresetQuestions,
		metrics,
		logger,
	)
	logger.Info("Use cases initialized")

	// Setup API handlers
	interviewHandler := interviewapi.NewHandler(interviewUC, cfg.MaxFrameSize)

	// Setup router
	router := api.SetupRouter(interviewHandler, metricsHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:          server,
		db:              db,
		sessions:        interviewUC,
		shutdownMetrics: shutdownMetrics,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}, nil
}

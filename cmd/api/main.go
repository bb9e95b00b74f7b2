package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/reunite-hq/reunite/internal/api/handlers"
	"github.com/reunite-hq/reunite/internal/api/middleware"
	"github.com/reunite-hq/reunite/internal/config"
	"github.com/reunite-hq/reunite/internal/matching"
	"github.com/reunite-hq/reunite/internal/observability"
	"github.com/reunite-hq/reunite/internal/repository"
	"github.com/reunite-hq/reunite/internal/service"
	"github.com/reunite-hq/reunite/internal/storage"
	"github.com/reunite-hq/reunite/internal/vision"
	"github.com/reunite-hq/reunite/internal/workers"
	"github.com/reunite-hq/reunite/pkg/database"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithVectorTypes())
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	meterProvider, err := observability.NewMeterProvider(cfg.MetricsEnabled)
	if err != nil {
		slog.Error("Failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	var meter metric.Meter
	if meterProvider != nil {
		meter = meterProvider.Meter("reunite")
	}

	matchMetrics, err := observability.NewMatchMetrics(meter)
	if err != nil {
		slog.Error("Failed to create match metrics", "error", err)
		os.Exit(1)
	}

	extractionMetrics, err := observability.NewExtractionMetrics(meter)
	if err != nil {
		slog.Error("Failed to create extraction metrics", "error", err)
		os.Exit(1)
	}

	mediaStore, err := storage.NewMediaStore(cfg.MediaDir)
	if err != nil {
		slog.Error("Failed to initialize media store", "error", err)
		os.Exit(1)
	}

	// The extractor loads its model lazily on first use. A load failure puts
	// matching into degraded mode; registrations and lookups keep working.
	limiter := rate.NewLimiter(rate.Limit(cfg.InferenceRateLimit), 1)
	runtime := vision.NewRuntimeClient(cfg.InferenceURL, cfg.InferenceModel, limiter)
	extractor := vision.NewLazyExtractor(cfg.EmbeddingDims, func(ctx context.Context) (vision.Extractor, error) {
		if err := runtime.LoadModel(ctx); err != nil {
			return nil, err
		}

		return vision.NewRuntimeExtractor(runtime, cfg.EmbeddingDims), nil
	})

	// Repositories
	itemsRepo := repository.NewItemsRepository(db)
	matchResultsRepo := repository.NewMatchResultsRepository(db)
	claimsRepo := repository.NewClaimsRepository(db)
	notificationsRepo := repository.NewNotificationsRepository(db)
	routesRepo := repository.NewRoutesRepository(db)

	// Notification delivery
	var mailer service.Mailer
	if cfg.SMTPAddr != "" {
		mailer = service.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
		slog.Info("SMTP delivery enabled", "addr", cfg.SMTPAddr)
	} else {
		mailer = service.NewLogMailer(nil)
		slog.Info("SMTP delivery disabled (SMTP_ADDR not set), logging notifications")
	}

	notifier := service.NewNotifier(notificationsRepo, mailer, nil)

	embeddingProvider, err := service.NewEmbeddingProvider(
		itemsRepo, mediaStore, extractor, cfg.EmbeddingCacheSize, extractionMetrics, nil,
	)
	if err != nil {
		slog.Error("Failed to create embedding provider", "error", err)
		os.Exit(1)
	}

	engine := matching.NewEngine(matching.EngineParams{
		Embedder:   embeddingProvider,
		Store:      matchResultsRepo,
		Dispatcher: notifier,
		Threshold:  cfg.MatchThreshold,
		Metrics:    matchMetrics,
	})

	claimsService := service.NewClaimsService(claimsRepo, itemsRepo, notifier, cfg.BaseURL, nil)
	routesService := service.NewRoutesService(routesRepo, itemsRepo, matchResultsRepo, nil)

	riverClient, err := initRiver(ctx, db, cfg, itemsRepo, engine, claimsService)
	if err != nil {
		slog.Error("Failed to initialize River job queue", "error", err)
		os.Exit(1)
	}

	itemsService := service.NewItemsService(itemsRepo, mediaStore, riverClient, embeddingProvider, notifier, nil)

	itemsHandler := handlers.NewItemsHandler(itemsService)
	matchesHandler := handlers.NewMatchesHandler(matchResultsRepo)
	claimsHandler := handlers.NewClaimsHandler(claimsService)
	routesHandler := handlers.NewRoutesHandler(routesService)
	healthHandler := handlers.NewHealthHandler(extractor)

	// Public endpoints: health and metrics.
	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /health", healthHandler.Check)

	if cfg.MetricsEnabled {
		publicMux.Handle("GET /metrics", promhttp.Handler())
	}

	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /v1/lost-items", itemsHandler.CreateLost)
	protectedMux.HandleFunc("GET /v1/lost-items", itemsHandler.ListLost)
	protectedMux.HandleFunc("POST /v1/found-items", itemsHandler.CreateFound)
	protectedMux.HandleFunc("GET /v1/found-items", itemsHandler.ListFound)
	protectedMux.HandleFunc("GET /v1/items/{id}", itemsHandler.Get)
	protectedMux.HandleFunc("DELETE /v1/items/{id}", itemsHandler.Delete)
	protectedMux.HandleFunc("GET /v1/items/{id}/similar", itemsHandler.Similar)
	protectedMux.HandleFunc("GET /v1/items/{id}/matches", matchesHandler.ListByItem)
	protectedMux.HandleFunc("POST /v1/lost-items/{id}/found", itemsHandler.MarkFound)
	protectedMux.HandleFunc("POST /v1/lost-items/{id}/claims", claimsHandler.Create)
	protectedMux.HandleFunc("GET /v1/lost-items/{id}/claims", claimsHandler.List)
	protectedMux.HandleFunc("POST /v1/lost-items/{id}/route", routesHandler.Generate)
	protectedMux.HandleFunc("GET /v1/lost-items/{id}/routes", routesHandler.List)
	protectedMux.HandleFunc("GET /v1/matches", matchesHandler.List)

	var protectedHandler http.Handler = protectedMux
	protectedHandler = middleware.Auth(cfg.APIKey)(protectedHandler)

	mainMux := http.NewServeMux()
	// The verification link is opened from the owner's mail client, so it
	// bypasses API-key auth. The most specific pattern wins over /v1/.
	mainMux.HandleFunc("GET /v1/claims/verify", claimsHandler.Verify)
	mainMux.Handle("/v1/", protectedHandler)
	mainMux.Handle("/", publicMux) // Catch-all for public routes (/health, /metrics)

	var handler http.Handler = mainMux
	handler = middleware.MaxBody(cfg.MaxRequestBodyBytes)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// 2. Stop River (waits for in-flight sweeps to complete)
	slog.Info("Stopping River job queue...")

	if err := riverClient.Stop(shutdownCtx); err != nil {
		slog.Error("River forced to shutdown", "error", err)
	}

	// 3. Flush metrics
	if err := observability.ShutdownMeterProvider(shutdownCtx, meterProvider); err != nil {
		slog.Error("Metrics shutdown failed", "error", err)
	}

	slog.Info("Server exited")
}

// setupLogging configures slog with the specified log level; the request
// context handler stamps request IDs onto every line.
func setupLogging(level string) {
	var logLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(observability.NewRequestContextHandler(handler)))
}

// initRiver initializes the River job queue client and workers and starts it.
func initRiver(
	ctx context.Context,
	db *pgxpool.Pool,
	cfg *config.Config,
	itemsRepo *repository.ItemsRepository,
	engine *matching.Engine,
	claimsService *service.ClaimsService,
) (*river.Client[pgx.Tx], error) {
	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, workers.NewMatchSweepWorker(itemsRepo, engine, nil))
	river.AddWorker(riverWorkers, workers.NewClaimExpiryWorker(claimsService, nil))

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault:     {MaxWorkers: 1},
			service.MatchQueueName: {MaxWorkers: cfg.SweepWorkers},
		},
		Workers:     riverWorkers,
		MaxAttempts: cfg.SweepMaxAttempts,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(time.Hour),
				func() (river.JobArgs, *river.InsertOpts) {
					return workers.ClaimExpiryArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		return nil, err
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, err
	}

	return riverClient, nil
}

// Package main is the entry point for the culturank API server.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/culturank/internal/api"
	"github.com/onnwee/culturank/internal/config"
	"github.com/onnwee/culturank/internal/health"
	"github.com/onnwee/culturank/internal/idempotency"
	"github.com/onnwee/culturank/internal/jobs"
	"github.com/onnwee/culturank/internal/middleware"
	"github.com/onnwee/culturank/internal/ranking"
	"github.com/onnwee/culturank/internal/store"
	"github.com/onnwee/culturank/internal/tracing"
	"github.com/onnwee/culturank/internal/trainer"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Culturank API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Tracing
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "culturank-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingOTLPEndpoint,
		SamplingRate: cfg.TracingSamplingRate,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down tracer provider", "error", err)
		}
	}()

	// Storage
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	redisClient, err := store.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	corpus := store.NewPostgresEventCorpus(db, logger)
	corpus.SetCandidateLimit(cfg.CandidateLimit)
	profiles := store.NewPostgresProfileStore(db, logger)
	weightStore := store.NewPostgresWeightStore(db, logger)
	auditLog := store.NewRedisAuditLog(redisClient, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		return fmt.Errorf("failed to register HTTP metrics: %w", err)
	}
	rankingMetrics := ranking.NewMetrics()
	if err := rankingMetrics.Register(registry); err != nil {
		return fmt.Errorf("failed to register ranking metrics: %w", err)
	}
	trainerMetrics := trainer.NewMetrics()
	if err := trainerMetrics.Register(registry); err != nil {
		return fmt.Errorf("failed to register trainer metrics: %w", err)
	}
	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(registry); err != nil {
		return fmt.Errorf("failed to register job metrics: %w", err)
	}

	// Active weights: persisted snapshot first, then the calibration file,
	// then the defaults.
	holder, err := bootstrapWeights(ctx, weightStore, cfg.CalibrationPath, logger)
	if err != nil {
		return err
	}

	ranker := ranking.NewRanker(holder, corpus,
		ranking.WithLogger(logger),
		ranking.WithMetrics(rankingMetrics))

	service := api.NewService(api.ServiceConfig{
		HistoryLimit: cfg.HistoryLimit,
		DefaultTopN:  cfg.DefaultTopN,
		MaxTopN:      cfg.MaxTopN,
		Logger:       logger,
	}, corpus, profiles, profiles, corpus, ranker, auditLog)

	// Background weight training
	trainingJob := trainer.NewJob(trainer.Config{
		Interval:        cfg.TrainingInterval(),
		Window:          cfg.TrainingWindow(),
		MinInteractions: cfg.MinTrainingInteractions,
		Logger:          logger,
		Metrics:         trainerMetrics,
		JobMetrics:      jobMetrics,
	}, profiles, weightStore, holder)
	if err := trainingJob.Start(ctx); err != nil {
		return fmt.Errorf("start training job: %w", err)
	}
	defer trainingJob.Stop()

	// Idempotency keys for interaction dedup
	idemRepo := idempotency.NewInMemoryRepository()
	cleanupStop := make(chan struct{})
	go idempotency.RunPeriodicCleanup(idemRepo, time.Hour, 24*time.Hour, cleanupStop)
	defer close(cleanupStop)

	handler := buildHandler(cfg, logger, service, holder, trainingJob, corpus, auditLog, db, redisClient, httpMetrics, idemRepo, registry)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// bootstrapWeights loads the active weight snapshot, falling back to the
// calibration file and then the built-in defaults when none is persisted.
func bootstrapWeights(ctx context.Context, weightStore ranking.WeightStore, calibrationPath string, logger *slog.Logger) (*ranking.Holder, error) {
	snapshot, err := weightStore.LoadActive(ctx)
	if err == nil {
		logger.Info("loaded persisted weight snapshot", "version", snapshot.Version)
		return ranking.NewHolder(snapshot), nil
	}
	if !errors.Is(err, ranking.ErrNoActiveWeights) {
		return nil, fmt.Errorf("failed to load active weights: %w", err)
	}

	weights := ranking.DefaultWeights()
	if calibrationPath != "" {
		calibrated, err := ranking.LoadCalibration(calibrationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load calibration file: %w", err)
		}
		weights = calibrated
		logger.Info("using calibrated weights until first training run", "path", calibrationPath)
	}
	return ranking.NewHolder(&ranking.Snapshot{Weights: weights}), nil
}

func buildHandler(
	cfg *config.Config,
	logger *slog.Logger,
	service *api.Service,
	holder *ranking.Holder,
	trainingJob *trainer.Job,
	corpus *store.PostgresEventCorpus,
	auditLog *store.RedisAuditLog,
	db *sql.DB,
	redisClient *redis.Client,
	httpMetrics *middleware.Metrics,
	idemRepo idempotency.Repository,
	registry *prometheus.Registry,
) http.Handler {
	feedback := api.NewFeedbackHandlers(service)
	recommend := api.NewRecommendHandlers(service)
	profileHandlers := api.NewProfileHandlers(service)
	auditHandlers := api.NewAuditHandlers(auditLog)
	eventHandlers := api.NewEventHandlers(corpus)
	weightsHandlers := api.NewWeightsHandlers(holder, trainingJob)

	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		DBChecker:      health.NewDBChecker(db),
		RedisChecker:   health.NewRedisChecker(redisClient),
		MetricsEnabled: true,
	})

	rateLimitStore := middleware.NewInMemoryRateLimitStore()
	recommendLimiter := middleware.RateLimiter(rateLimitStore, middleware.DefaultRecommendLimit(), middleware.UserKeyFunc())
	limitedRecommend := recommendLimiter(http.HandlerFunc(recommend.GetRecommendations))

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/interactions", feedback.RecordInteraction)
	mux.HandleFunc("/weights", weightsHandlers.GetWeights)
	mux.HandleFunc("/internal/train", weightsHandlers.TriggerTraining)
	mux.HandleFunc("/events/", eventHandlers.GetEvent)
	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/recommendations"):
			limitedRecommend.ServeHTTP(w, r)
		case strings.HasSuffix(r.URL.Path, "/profile"):
			profileHandlers.GetProfile(w, r)
		case strings.HasSuffix(r.URL.Path, "/audit"):
			auditHandlers.GetAudit(w, r)
		default:
			notFound(w, r)
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			notFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"culturank-api","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	var handler http.Handler = mux
	handler = middleware.Profiling(middleware.ProfilingConfig{
		Enabled:     cfg.Env != "production",
		Environment: cfg.Env,
	})(handler)
	handler = middleware.Idempotency(idemRepo, logger, map[string]bool{"/interactions": true})(handler)
	handler = middleware.RateLimiter(rateLimitStore, middleware.DefaultGlobalLimit(), middleware.UserKeyFunc())(handler)
	handler = middleware.CORS(corsConfig())(handler)
	if cfg.TracingEnabled {
		handler = middleware.Tracing("culturank-api")(handler)
	}
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}

func notFound(w http.ResponseWriter, r *http.Request) {
	ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
	api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
}

// corsConfig builds the CORS policy from CORS_ALLOWED_ORIGINS; an empty
// value disables cross-origin access entirely.
func corsConfig() middleware.CORSConfig {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return middleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID", "Idempotency-Key"},
		MaxAge:         300,
	}
}

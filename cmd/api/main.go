package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/covertrack/coc-verification-backend/internal/api/rest"
	"github.com/covertrack/coc-verification-backend/internal/domain/insurer"
	"github.com/covertrack/coc-verification-backend/internal/infrastructure/cache"
	"github.com/covertrack/coc-verification-backend/internal/infrastructure/config"
	"github.com/covertrack/coc-verification-backend/internal/infrastructure/repository"
	"github.com/covertrack/coc-verification-backend/internal/infrastructure/telemetry"
	"github.com/covertrack/coc-verification-backend/internal/metrics"
	fraudsvc "github.com/covertrack/coc-verification-backend/internal/service/fraud"
	verificationsvc "github.com/covertrack/coc-verification-backend/internal/service/verification"
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("api server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	provider, err := telemetry.Initialize(ctx, &telemetry.Config{
		ServiceName:    "coc-api",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SampleRate,
		ExportTimeout:  30 * time.Second,
		BatchTimeout:   5 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	registry, err := metrics.NewRegistry(telemetry.Meter("coc.verification"))
	if err != nil {
		return fmt.Errorf("creating metrics registry: %w", err)
	}

	catalog, err := loadCatalog(cfg.Fraud.CatalogPath)
	if err != nil {
		return fmt.Errorf("loading insurer catalog: %w", err)
	}
	logger.Info("insurer catalog loaded", "templates", catalog.Size())

	analyzer := fraudsvc.NewAnalyzer(catalog,
		fraudsvc.WithRules(fraudRules(cfg)),
		fraudsvc.WithLogger(logger),
	)
	evaluator := verificationsvc.NewEvaluator(
		verificationsvc.WithExpiryWarningDays(cfg.Verification.ExpiryWarningDays),
	)

	opts := []verificationsvc.ServiceOption{
		verificationsvc.WithMetrics(registry),
		verificationsvc.WithServiceLogger(logger),
	}

	var repo verificationsvc.Repository
	if cfg.Database.URL != "" {
		pool, err := newDatabasePool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()
		repo = repository.NewVerificationRepository(pool)
	} else {
		logger.Warn("no database configured, results will not be persisted")
	}

	if cfg.Redis.URL != "" {
		zapLogger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("creating cache logger: %w", err)
		}
		defer zapLogger.Sync()

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		outcomeCache, err := cache.NewOutcomeCache(client, zapLogger, &cache.OutcomeCacheConfig{
			TTL: cfg.Redis.CacheTTL,
		})
		if err != nil {
			return fmt.Errorf("creating outcome cache: %w", err)
		}
		opts = append(opts, verificationsvc.WithCache(outcomeCache))
	}

	service := verificationsvc.NewService(evaluator, analyzer, repo, opts...)
	handler := rest.NewHandler(service, logger)

	mux := http.NewServeMux()
	mux.Handle("/", instrumentHTTP(handler.Routes(rest.RateLimitSettings{
		RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.Server.RateLimit.BurstSize,
	})))
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening",
			"port", cfg.Server.Port,
			"environment", cfg.Environment,
			"version", cfg.Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newDatabasePool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// loadCatalog returns the built-in insurer table, or the table from the
// configured YAML file when one is set.
func loadCatalog(path string) (*insurer.Catalog, error) {
	if path == "" {
		return insurer.DefaultCatalog(), nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", path, err)
	}

	var templates []insurer.Template
	if err := k.Unmarshal("templates", &templates); err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", path, err)
	}
	return insurer.NewCatalog(templates)
}

// fraudRules applies config overrides on top of the default rule set.
func fraudRules(cfg *config.Config) fraudsvc.Rules {
	rules := fraudsvc.DefaultRules()
	if cfg.Fraud.TamperThresholdDays > 0 {
		rules.TamperThresholdDays = cfg.Fraud.TamperThresholdDays
	}
	if cfg.Fraud.MinPolicyDays > 0 {
		rules.MinPolicyDays = cfg.Fraud.MinPolicyDays
	}
	if cfg.Fraud.MaxPolicyDays > 0 {
		rules.MaxPolicyDays = cfg.Fraud.MaxPolicyDays
	}
	if cfg.Fraud.MinLiabilityLimit > 0 {
		rules.MinLiabilityLimit = cfg.Fraud.MinLiabilityLimit
	}
	return rules
}

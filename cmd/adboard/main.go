package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adstack/adboard-bff-go/internal/config"
	"github.com/adstack/adboard-bff-go/internal/dialog"
	"github.com/adstack/adboard-bff-go/internal/handler"
	"github.com/adstack/adboard-bff-go/internal/infra/notify"
	"github.com/adstack/adboard-bff-go/internal/infra/observability"
	"github.com/adstack/adboard-bff-go/internal/infra/querycache"
	"github.com/adstack/adboard-bff-go/internal/infra/resilience"
	"github.com/adstack/adboard-bff-go/internal/infra/upstream"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("platform_api_url", cfg.PlatformAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Duration("search_debounce", cfg.SearchDebounce),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "adboard-bff")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("platform-api")

	// --- Platform API client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	platform := upstream.NewClient(httpClient, cfg.PlatformAPIURL, cfg.PlatformAPIKey, cb, resilienceCfg, logger)

	// --- Query cache ---
	queries := querycache.New(cfg.CacheTTL, cfg.CacheTimeout, metrics, logger)
	queries.Register(dialog.QueryWallet, func(ctx context.Context) (any, error) {
		return platform.FetchWallet(ctx)
	})
	queries.Register(dialog.QueryActiveAccounts, func(ctx context.Context) (any, error) {
		return platform.ListAccounts(ctx, "active", 100)
	})
	queries.Register(dialog.QueryAccounts, func(ctx context.Context) (any, error) {
		return platform.ListAccounts(ctx, "", 100)
	})
	queries.Register(dialog.QueryDeposits, func(ctx context.Context) (any, error) {
		return platform.ListDeposits(ctx, 100)
	})
	queries.Register(dialog.QueryAllGoogleAccts, func(ctx context.Context) (any, error) {
		return platform.ListProvisionedAccounts(ctx, 100)
	})

	// --- Notifications ---
	notices := notify.NewRing(cfg.NoticeRingSize, logger)

	// --- Dialog sessions ---
	provisioningCfg := dialog.ProvisioningConfig{
		SearchDebounce:        cfg.SearchDebounce,
		SearchLimit:           cfg.SearchLimit,
		SearchTimeout:         cfg.SearchTimeout,
		DefaultApplicationFee: cfg.DefaultApplicationFee,
	}
	sessions := handler.NewSessions(cfg.SessionTTL,
		func() *dialog.DepositDialog {
			return dialog.NewDepositDialog(queries, platform, notices, metrics, logger)
		},
		func() *dialog.ProvisioningDialog {
			return dialog.NewProvisioningDialog(queries, platform, platform, notices, provisioningCfg, metrics, logger)
		},
	)

	// --- Router ---
	router := handler.NewRouter(sessions, queries, platform, notices, platform, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

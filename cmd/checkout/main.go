package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pedidofacil/pix-checkout-go/internal/config"
	"github.com/pedidofacil/pix-checkout-go/internal/handler"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/cache"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/observability"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/qr"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/resilience"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/store"
	"github.com/pedidofacil/pix-checkout-go/internal/port"
	"github.com/pedidofacil/pix-checkout-go/internal/service"
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
		zap.Duration("payment_timeout", cfg.PaymentTimeout),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("pix_key_type", cfg.PixKeyType),
	)

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "pix-checkout")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("order-store")

	// --- Order store ---
	events := store.NewHub()
	var backing port.OrderStore
	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using PostgREST order store", zap.String("supabase_url", cfg.SupabaseURL))
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		backing = store.NewPostgREST(httpClient, cfg.SupabaseURL, cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey, cb, resilienceCfg, logger)
	} else {
		logger.Info("using in-memory order store")
		backing = store.NewMemory()
	}
	orderStore := store.WithEvents(backing, events)

	// --- Services ---
	orders := service.NewOrderService(orderStore, events, metrics, logger)
	watcher := service.NewExpiryWatcher(orders, logger)
	defer watcher.Stop()

	checkout := service.NewCheckoutService(orderStore, watcher, cfg.PaymentTimeout, metrics, logger)
	pixConfig := service.NewConfigService(cfg.MerchantConfig(), logger)
	payments := service.NewPaymentService(
		orderStore,
		pixConfig,
		qr.NewRenderer(),
		cache.New[[]byte](cfg.CacheTTL),
		resilience.NewBulkhead(cfg.MaxConcurrency),
		port.QROptions{Size: cfg.QRSize, Level: cfg.QRLevel},
		metrics,
		logger,
	)
	auth := service.NewAuthService(cfg.AdminPasswordHash, cfg.JWTSecret, cfg.JWTAccessTTL, logger)
	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH not set, admin login disabled")
	}

	// Re-arm deadlines of orders that were pending when the process last
	// stopped. Deadlines are persisted, so a restart never grants extra
	// payment time.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := orders.RestoreWatchers(startupCtx); err != nil {
		logger.Error("failed to restore expiry watchers", zap.Error(err))
	}
	cancelStartup()

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Checkout: checkout,
		Orders:   orders,
		Payments: payments,
		Config:   pixConfig,
		Auth:     auth,
		Metrics:  metrics,
	}, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// No write timeout: the order event stream stays open for the
		// whole payment window.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

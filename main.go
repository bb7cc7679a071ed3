package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/audit/sqlite"
	"github.com/nikolayk812/storefront/internal/catalog"
	"github.com/nikolayk812/storefront/internal/checkout"
	"github.com/nikolayk812/storefront/internal/config"
	"github.com/nikolayk812/storefront/internal/events"
	"github.com/nikolayk812/storefront/internal/httpx"
	"github.com/nikolayk812/storefront/internal/httpx/middlewares"
	"github.com/nikolayk812/storefront/internal/pkg/cache"
	"github.com/nikolayk812/storefront/internal/pkg/metrics"
	"github.com/nikolayk812/storefront/internal/pkg/telemetry"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/pricing"
	"github.com/nikolayk812/storefront/internal/repository"
	"github.com/nikolayk812/storefront/internal/repository/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("STOREFRONT_CONFIG"))
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	logger := telemetry.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
		ServiceName: cfg.Service,
		Environment: cfg.Env,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("telemetry.SetupTracer: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(reg)
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)

	cur, err := cfg.Currency()
	if err != nil {
		return err
	}

	zones, defaultFee, err := cfg.ShippingZones()
	if err != nil {
		return err
	}

	shipping, err := pricing.NewShippingTable(cur, zones, defaultFee)
	if err != nil {
		return fmt.Errorf("pricing.NewShippingTable: %w", err)
	}

	calculator, err := pricing.NewCalculator(cur, shipping)
	if err != nil {
		return fmt.Errorf("pricing.NewCalculator: %w", err)
	}

	checkoutOpts := []checkout.Option{
		checkout.WithLogger(logger),
		checkout.WithMetrics(checkoutMetrics),
	}

	if cfg.Audit.SQLitePath != "" {
		auditLog, err := sqlite.Open(cfg.Audit.SQLitePath)
		if err != nil {
			return fmt.Errorf("sqlite.Open: %w", err)
		}
		defer auditLog.Close()

		checkoutOpts = append(checkoutOpts, checkout.WithAuditLog(auditLog))
		logger.Info("audit log enabled", slog.String("path", cfg.Audit.SQLitePath))
	}

	checkoutService, err := checkout.NewService(store, calculator, checkoutOpts...)
	if err != nil {
		return fmt.Errorf("checkout.NewService: %w", err)
	}

	catalogService, err := catalog.NewService(store.Products(), catalog.WithNewArrivals(
		cfg.Catalog.NewArrivalsWindow,
		cfg.Catalog.NewArrivalsThreshold,
		cfg.Catalog.NewArrivalsLimit,
	))
	if err != nil {
		return fmt.Errorf("catalog.NewService: %w", err)
	}

	var idempotencyCache cache.Cache
	if cfg.Redis.Addr != "" {
		c, closeCache := cache.NewRedisCache(cfg.Redis.Addr, cfg.Service)
		defer func() { _ = closeCache() }()

		idempotencyCache = c
		logger.Info("idempotency cache enabled", slog.String("addr", cfg.Redis.Addr))
	}

	kafkaClient := events.NewClient(cfg.Kafka.Brokers)
	relayDone := make(chan struct{})
	if kafkaClient.Enabled() {
		writer := kafkaClient.NewWriter(cfg.Kafka.Topic)
		defer writer.Close()

		relay, err := events.NewRelay(store, events.NewKafkaPublisher(writer),
			events.WithInterval(cfg.Kafka.RelayInterval),
			events.WithBatchSize(cfg.Kafka.BatchSize),
			events.WithLogger(logger),
			events.WithCounter(checkoutMetrics.EventsRelayed),
		)
		if err != nil {
			return fmt.Errorf("events.NewRelay: %w", err)
		}

		go func() {
			defer close(relayDone)
			_ = relay.Run(ctx)
		}()
		logger.Info("outbox relay started", slog.Any("brokers", kafkaClient.Brokers), slog.String("topic", cfg.Kafka.Topic))
	} else {
		close(relayDone)
	}

	auth, err := middlewares.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("middlewares.NewAuthenticator: %w", err)
	}

	handler := httpx.NewHandler(checkoutService, catalogService, idempotencyCache, cfg.Redis.IdempotencyTTL)
	router := httpx.NewRouter(handler, httpx.RouterConfig{
		Auth:           auth,
		RateLimiter:    middlewares.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Metrics:        serverMetrics,
		MetricsHandler: metrics.Handler(reg),
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("storefront listening", slog.String("addr", cfg.HTTP.Addr), slog.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", slog.Any("error", err))
	}

	stop()
	<-relayDone

	return nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (port.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), func() {}, nil
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pool.Ping: %w", err)
		}

		store, err := repository.NewStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("repository.NewStore: %w", err)
		}

		return store, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

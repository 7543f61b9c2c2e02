package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/ordercore/internal/app"
	"github.com/nikolayk812/ordercore/internal/config"
	"github.com/nikolayk812/ordercore/internal/db"
	"github.com/nikolayk812/ordercore/internal/logging"
	"github.com/nikolayk812/ordercore/internal/metrics"
	"github.com/nikolayk812/ordercore/internal/outbox"
	"github.com/nikolayk812/ordercore/internal/provider/sandbox"
	"github.com/nikolayk812/ordercore/internal/repository"
	"github.com/nikolayk812/ordercore/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const usage = `usage: ordercore [-config path] <command>

commands:
  migrate   apply database migrations
  relay     publish pending outbox events to Kafka
  serve     serve webhooks, /healthz and /metrics`

// relayJob groups the relay's metrics on the Pushgateway.
const relayJob = "ordercore_relay"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flags := flag.NewFlagSet("ordercore", flag.ContinueOnError)
	configPath := flags.String("config", os.Getenv(config.EnvConfigPath), "path to the YAML config file")
	flags.Usage = func() { fmt.Fprintln(flags.Output(), usage) }

	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return errors.New("exactly one command is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logging.New: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("pgxpool.New: %w", err)
	}
	defer pool.Close()

	switch cmd := flags.Arg(0); cmd {
	case "migrate":
		return migrate(ctx, pool, logger)
	case "relay":
		return relay(ctx, cfg, pool, logger)
	case "serve":
		return serve(ctx, cfg, pool, logger)
	default:
		flags.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	applied, err := db.Migrate(ctx, pool)
	if err != nil {
		return fmt.Errorf("db.Migrate: %w", err)
	}

	logger.Info("migrations applied", zap.Strings("names", applied))
	return nil
}

func relay(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) error {
	publisher, err := outbox.NewKafkaPublisher(cfg.Kafka.Brokers)
	if err != nil {
		return fmt.Errorf("outbox.NewKafkaPublisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("publisher close failed", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()

	r, err := outbox.NewRelay(outbox.RelayOptions{
		UnitOfWork: repository.NewUnitOfWorkFactory(pool),
		Publisher:  publisher,
		Metrics:    metrics.NewRelayMetrics(reg),
		Logger:     logger.Named("relay"),
		BatchSize:  cfg.Kafka.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("outbox.NewRelay: %w", err)
	}

	_, drainErr := r.Drain(ctx)

	if gateway := cfg.Metrics.PushGateway; gateway != "" {
		if err := metrics.Push(context.WithoutCancel(ctx), gateway, relayJob, reg); err != nil {
			logger.Warn("relay metrics not pushed", zap.String("gateway", gateway), zap.Error(err))
		}
	}

	if drainErr != nil {
		return fmt.Errorf("relay.Drain: %w", drainErr)
	}
	return nil
}

func serve(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) error {
	policy, err := cfg.Checkout.Policy()
	if err != nil {
		return fmt.Errorf("checkout.Policy: %w", err)
	}

	provider, err := sandbox.New(sandbox.Options{
		WebhookSecret: cfg.Payments.WebhookSecret,
		Logger:        logger.Named("sandbox"),
	})
	if err != nil {
		return fmt.Errorf("sandbox.New: %w", err)
	}

	a, err := app.New(app.Options{
		UnitOfWork:       repository.NewUnitOfWorkFactory(pool),
		Payments:         provider,
		Logger:           logger.Named("app"),
		Checkout:         policy,
		WebhookCacheSize: cfg.Payments.WebhookCacheSize,
	})
	if err != nil {
		return fmt.Errorf("app.New: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &http.Server{
		Addr: cfg.Metrics.Addr,
		Handler: server.NewHandler(server.Options{
			Dispatcher:      app.NewDispatcher(a, metrics.NewCommandMetrics(reg)),
			DB:              pool,
			Gatherer:        reg,
			Logger:          logger.Named("http"),
			SignatureHeader: sandbox.SignatureHeader,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("srv.ListenAndServe: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

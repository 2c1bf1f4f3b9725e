// Command analytics runs the standalone search analytics service.
//
// It joins the configured consumer group on the search-events topic that
// search services publish to, feeds every event into an in-memory aggregator
// and, when PostgreSQL is enabled, the query log. Offsets are committed, so a
// restart resumes where the group left off and several replicas split the
// topic's partitions between them.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml] [-port 8081]
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

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/analytics/querylog"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	port := flag.Int("port", 0, "HTTP port (defaults to server.port + 1)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if *port == 0 {
		*port = cfg.Server.Port + 1
	}
	if err := run(cfg, *port); err != nil {
		slog.Error("analytics service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("analytics service stopped")
}

func run(cfg *config.Config, port int) error {
	if !cfg.Kafka.Enabled {
		return errors.New("analytics service needs kafka.enabled: search events arrive on Kafka")
	}
	if cfg.Kafka.ConsumerGroup == "" {
		return errors.New("kafka.consumerGroup must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker()
	aggregator := analytics.NewAggregator()
	sinks := []analytics.Sink{aggregator}

	mux := http.NewServeMux()
	if cfg.Postgres.Enabled {
		pg, err := postgres.New(cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting query log: %w", err)
		}
		defer pg.Close()
		store := querylog.NewStore(pg)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating query log: %w", err)
		}
		sinks = append(sinks, store)
		checker.Register("postgres", health.PingCheck(pg.Ping, true))
		mux.HandleFunc("GET /api/v1/analytics/zero-results", querylog.NewHandler(store).ZeroResults)
	}
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(aggregator).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	eventsConsumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.AnalyticsEvents,
		kafka.ConsumerOptions{GroupID: cfg.Kafka.ConsumerGroup},
		analytics.HandleEvent(sinks...),
	)

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", port),
		Handler: middleware.Chain(mux,
			middleware.RequestID,
			middleware.Timeout(cfg.Server.WriteTimeout),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eventsConsumer.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		slog.Info("analytics service listening",
			"addr", server.Addr,
			"topic", cfg.Kafka.Topics.AnalyticsEvents,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

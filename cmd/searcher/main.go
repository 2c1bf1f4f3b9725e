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

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/analytics/querylog"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/crawler"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/boolean-search/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if err := run(cfg); err != nil {
		slog.Error("search service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

func run(cfg *config.Config) error {
	idfMode, err := ranker.ParseIDFMode(cfg.Search.IDFMode)
	if err != nil {
		return err
	}
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"corpus_root", cfg.Corpus.Root,
		"idf_mode", idfMode,
	)

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer shutdownMetrics(context.Background())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := indexer.NewEngine(idfMode, m)
	defer engine.Close()

	if cfg.Corpus.Root != "" {
		entries, err := crawler.Crawl(ctx, cfg.Corpus.Root, crawler.Options{
			Extensions:  cfg.Corpus.Extensions,
			ReadWorkers: cfg.Corpus.ReadWorkers,
		})
		if err != nil {
			return fmt.Errorf("crawling corpus: %w", err)
		}
		if _, err := engine.IndexCorpus(ctx, entries); err != nil {
			return fmt.Errorf("indexing corpus: %w", err)
		}
	}

	checker := health.NewChecker()
	checker.Register("index", health.PingCheck(func(context.Context) error {
		if engine.Closed() {
			return errors.New("index closed")
		}
		return nil
	}, true))

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			checker.Register("redis", health.PingCheck(redisClient.Ping, false))
			slog.Info("search cache enabled",
				"addr", cfg.Redis.Addr,
				"ttl", cfg.Redis.CacheTTL,
			)
		}
	}
	onIndexed := func(ctx context.Context, path string) {
		if queryCache == nil {
			return
		}
		if err := queryCache.Invalidate(ctx); err != nil {
			slog.Warn("cache invalidation after ingest failed", "path", path, "error", err)
		}
	}

	aggregator := analytics.NewAggregator()
	sinks := []analytics.Sink{aggregator}
	var queryLogHandler *querylog.Handler
	if cfg.Postgres.Enabled {
		pg, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, query log disabled", "error", err)
		} else {
			defer pg.Close()
			store := querylog.NewStore(pg)
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migrating query log: %w", err)
			}
			sinks = append(sinks, store)
			queryLogHandler = querylog.NewHandler(store)
			checker.Register("postgres", health.PingCheck(pg.Ping, false))
			slog.Info("query log enabled", "database", cfg.Postgres.Database)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	var ingester ingesthandler.Ingester
	if cfg.Kafka.Enabled {
		eventsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer eventsProducer.Close()
		sinks = append(sinks, analytics.NewKafkaSink(eventsProducer))

		ingestProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
		defer ingestProducer.Close()
		ingester = publisher.New(ingestProducer)

		// The index lives in memory, so the ingest topic is read from the
		// start on every boot instead of through a committed consumer group.
		indexConsumer := consumer.New(kafka.NewConsumer(
			cfg.Kafka,
			cfg.Kafka.Topics.DocumentIngest,
			kafka.ConsumerOptions{Replay: true},
			consumer.HandleMessage(engine, onIndexed),
		))
		g.Go(func() error {
			return indexConsumer.Start(gctx)
		})
		slog.Info("kafka ingestion enabled",
			"ingest_topic", cfg.Kafka.Topics.DocumentIngest,
			"events_topic", cfg.Kafka.Topics.AnalyticsEvents,
		)
	} else {
		local := publisher.NewLocal(engine)
		local.OnIndexed = onIndexed
		ingester = local
	}

	collectorCtx, stopCollector := context.WithCancel(context.Background())
	collector := analytics.NewCollector(cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval, sinks...)
	collector.Start(collectorCtx)
	defer func() {
		stopCollector()
		collector.Close()
	}()

	exec := executor.New(engine)
	h := handler.New(exec, engine, queryCache, collector, m, handler.Options{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
	})
	ingestH := ingesthandler.New(ingester)
	analyticsH := analytics.NewHandler(aggregator)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("POST /api/v1/documents", ingestH.Ingest)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	if queryLogHandler != nil {
		mux.HandleFunc("GET /api/v1/analytics/zero-results", queryLogHandler.ZeroResults)
	}
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	chain := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Timeout(cfg.Server.WriteTimeout),
		middleware.Metrics(m),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

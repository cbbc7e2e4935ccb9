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

	"github.com/Adithya-Monish-Kumar-K/oogle/internal/fixture"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/index"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/ingest"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/oogle/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/localcache"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/oogle/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/resilience"
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
	slog.Info("starting oogle", "port", cfg.Server.Port, "fixture_source", cfg.Index.FixtureSource)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	idx := index.New()
	sink := ingest.NewSink(idx, m)

	var pg *postgres.Client
	if cfg.Index.FixtureSource == config.FixturePostgres {
		err = resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{MaxAttempts: 5, InitialDelay: 500 * time.Millisecond}, func(ctx context.Context) error {
			pg, err = postgres.New(ctx, cfg.Postgres)
			return err
		})
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
	}

	docs, err := loadFixture(ctx, cfg.Index, pg)
	if err != nil {
		slog.Error("failed to load fixture", "error", err)
		os.Exit(1)
	}
	seeded, err := fixture.Seed(ctx, sink, docs)
	if err != nil {
		slog.Error("failed to seed index", "seeded", seeded, "error", err)
		os.Exit(1)
	}
	slog.Info("index seeded", "documents", idx.Size(), "terms", idx.Terms())

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, idx.ID(), cfg.Redis.CacheTTL, m)
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	if queryCache == nil && cfg.Search.LocalCacheSize > 0 {
		store := localcache.New(cfg.Search.LocalCacheSize, cfg.Search.LocalCacheTTL)
		queryCache = cache.New(store, idx.ID(), cfg.Search.LocalCacheTTL, m)
		slog.Info("local search cache enabled", "size", cfg.Search.LocalCacheSize, "ttl", cfg.Search.LocalCacheTTL)
	}

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, idx.ID(), ingest.HandleMessage(sink))
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("ingest consumer error", "error", err)
			}
		}()
		slog.Info("ingest consumer started", "topic", cfg.Kafka.Topics.DocumentIngest, "group", consumer.GroupID())
	}

	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = m.StartServer(cfg.Metrics.Port)
	}

	checker := newHealthChecker(cfg, idx, redisClient, pg)

	exec := executor.New(idx, cfg.Search.MaxWords)
	h := handler.New(sink, exec, queryCache, m)
	searchTimeout := middleware.Timeout(cfg.Search.Timeout)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/documents", h.AddDocument)
	mux.Handle("GET /api/v1/search", searchTimeout(http.HandlerFunc(h.Search)))
	mux.Handle("POST /api/v1/search", searchTimeout(http.HandlerFunc(h.SearchJSON)))
	mux.HandleFunc("GET /api/v1/size", h.Size)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", m.Handler())

	var chain http.Handler = mux
	if len(cfg.Server.CORSOrigins) > 0 {
		chain = middleware.CORS(cfg.Server.CORSOrigins)(chain)
	}
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if shutdownMetrics != nil {
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("oogle listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("oogle stopped", "documents", idx.Size())
}

// newHealthChecker registers the index check and one check per enabled
// dependency.
func newHealthChecker(cfg *config.Config, idx *index.Index, redisClient *pkgredis.Client, pg *postgres.Client) *health.Checker {
	checker := health.NewChecker(2 * time.Second)
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", idx.Size(), idx.Terms()),
		}
	})
	if cfg.Redis.Enabled {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if redisClient == nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: "unreachable at startup, caching disabled"}
			}
			if err := redisClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	if pg != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pg.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	return checker
}

// loadFixture reads the start-up documents from the configured source.
func loadFixture(ctx context.Context, cfg config.IndexConfig, pg *postgres.Client) ([]index.Document, error) {
	switch cfg.FixtureSource {
	case config.FixtureFile:
		return fixture.LoadFile(cfg.FixturePath)
	case config.FixturePostgres:
		var docs []index.Document
		err := resilience.Retry(ctx, "postgres-fixture", resilience.RetryConfig{
			MaxAttempts: 3,
			Permanent:   apperrors.IsInvalidArgument,
		}, func(ctx context.Context) error {
			var err error
			docs, err = fixture.LoadSQL(ctx, pg.DB)
			return err
		})
		return docs, err
	default:
		return nil, nil
	}
}

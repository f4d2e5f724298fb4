package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fitslotdev/fitslot/internal/clock"
	"github.com/fitslotdev/fitslot/internal/config"
	"github.com/fitslotdev/fitslot/internal/domain"
	redisx "github.com/fitslotdev/fitslot/internal/redis"
	redisrepo "github.com/fitslotdev/fitslot/internal/repository/redis"
	"github.com/fitslotdev/fitslot/internal/service"
	"github.com/fitslotdev/fitslot/internal/service/catalog"
	"github.com/fitslotdev/fitslot/internal/service/ledger"
	"github.com/fitslotdev/fitslot/internal/storage"
	filestore "github.com/fitslotdev/fitslot/internal/storage/file"
	memorystore "github.com/fitslotdev/fitslot/internal/storage/memory"
	pgstore "github.com/fitslotdev/fitslot/internal/storage/postgres"
	httpgin "github.com/fitslotdev/fitslot/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	writer     *storage.Writer
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()

	// Initialize the snapshot store
	var store storage.Store

	switch cfg.Store.Driver {
	case "postgres":
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.Postgres.User,
			cfg.Postgres.Password,
			cfg.Postgres.Host,
			cfg.Postgres.Port,
			cfg.Postgres.Name,
			cfg.Postgres.SSLMode,
		)

		pool, err := pgstore.NewPool(ctx, pgstore.Config{DSN: dsn})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}

		pg := pgstore.NewStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}

		store = pg
	case "memory":
		store = memorystore.New()
	default:
		store = filestore.New(cfg.Store.DataDir)
	}

	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	// Initialize services
	svcs, err := service.NewServices(snap, clock.System{}, service.Config{
		Catalog: catalog.Config{DefaultTimezone: cfg.Studio.DefaultTimezone},
		Ledger:  ledger.Config{StrictClientName: cfg.Studio.StrictClientName},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	writer := storage.NewWriter(store, logger)
	svcs.SetFlush(func() {
		writer.Enqueue(domain.Snapshot{
			Classes:  svcs.Catalog.Classes(),
			Bookings: svcs.Ledger.Bookings(),
		})
	})

	if cfg.Studio.SeedSampleData {
		if n := svcs.Catalog.SeedSampleData(); n > 0 {
			logger.Info("seeded sample classes", "count", n)
		}
	}

	// Redis is optional; without it the limiter, idempotency store and
	// list cache are simply absent.
	var (
		cache   *redisrepo.Cache
		idem    *redisrepo.IdempotencyStore
		limiter *redisrepo.SlidingWindowLimiter
	)

	if cfg.Redis.Addr != "" {
		rdb, err := redisx.New(ctx, redisx.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}

		cache = redisrepo.New(rdb)
		idem = redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)
		limiter = redisrepo.NewSlidingWindowLimiter(
			rdb,
			redisrepo.RateLimitPrefix("book"),
			cfg.Studio.BookRateLimit,
			cfg.Studio.BookRateWindow,
		)
	}

	// Initialize Gin router
	router := httpgin.NewRouter(svcs, cache, idem, limiter, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		writer: writer,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Background snapshot writer; drains pending flushes on shutdown
	g.Go(func() error {
		return a.writer.Run(gCtx)
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

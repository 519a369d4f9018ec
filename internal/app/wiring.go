package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-po/internal/observability"
	"github.com/odyssey-erp/odyssey-po/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-po/internal/platform/db"
	"github.com/odyssey-erp/odyssey-po/internal/purchasing"
	"github.com/odyssey-erp/odyssey-po/internal/receiving"
	"github.com/odyssey-erp/odyssey-po/internal/recordstore"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
	"github.com/odyssey-erp/odyssey-po/internal/warehouse"
	"github.com/odyssey-erp/odyssey-po/jobs"
)

// Services holds the wired domain services of one process.
type Services struct {
	Fields     recordstore.FieldMap
	Records    recordstore.Store
	Warehouses warehouse.Directory
	Purchasing *purchasing.Service
	Receiving  *receiving.Service
	Cache      *receiving.Cache
	Metrics    *observability.Metrics

	// Set for the postgres backend only.
	Pool        *pgxpool.Pool
	Idempotency *shared.IdempotencyStore
	Redis       *redis.Client
	Jobs        *jobs.Client

	closers []func()
}

// Close releases every connection in reverse order of acquisition.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// RedisOpts returns the asynq connection options matching cfg.
func RedisOpts(cfg *Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB}
}

// BuildServices connects the configured backend and wires the services.
// The memory backend keeps everything in process and needs neither
// Postgres nor Redis.
func BuildServices(ctx context.Context, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*Services, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fields, err := recordstore.LoadFieldMap(cfg.FieldMapPath)
	if err != nil {
		return nil, err
	}
	s := &Services{Fields: fields, Metrics: metrics}

	var (
		sessions purchasing.SessionStore
		audit    purchasing.AuditPort
		idem     receiving.IdempotencyPort
	)

	switch cfg.RecordBackend {
	case BackendMemory:
		s.Records = recordstore.NewMemoryStore()
		sessions = purchasing.NewMemorySessionStore()
		audit = &shared.MemoryAuditLogger{}
		idem = shared.NewMemoryIdempotencyStore()
		s.Warehouses = warehouse.NewRecordDirectory(s.Records, fields)
	default:
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, ApplicationName: serviceName})
		if err != nil {
			return nil, err
		}
		s.Pool = pool
		s.closers = append(s.closers, pool.Close)

		store := recordstore.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("app: ensure schema: %w", err)
		}
		s.Records = store

		client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Redis = client
		s.closers = append(s.closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		})

		jobClient, err := jobs.NewClient(RedisOpts(cfg))
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Jobs = jobClient
		s.closers = append(s.closers, func() { _ = jobClient.Close() })

		sessions = purchasing.NewRedisSessionStore(client, cfg.SessionTTL)
		s.Idempotency = shared.NewIdempotencyStore(pool)
		idem = s.Idempotency
		audit = shared.NewAuditLogger(pool)
		s.Warehouses = warehouse.NewCachedDirectory(warehouse.NewRecordDirectory(store, fields), client, cfg.WarehouseCacheTTL, logger)
		s.Cache = receiving.NewCache(client, cfg.DashboardCacheTTL)
	}

	s.Purchasing = purchasing.NewService(s.Records, sessions, fields, audit, purchasing.Config{
		BaseCurrency: cfg.BaseCurrency,
		MaxLines:     cfg.MaxLines,
	}, logger)
	s.Receiving = receiving.NewService(s.Records, fields, s.Warehouses, s.Cache, idem, audit, logger)
	if metrics != nil {
		s.Purchasing.WithMetrics(metrics)
		s.Receiving.WithMetrics(metrics)
	}
	if s.Jobs != nil {
		s.Receiving.WithEnqueuer(s.Jobs)
	}
	return s, nil
}

// ListenForInvalidation follows dashboard cache bumps from other processes.
func (s *Services) ListenForInvalidation(ctx context.Context) error {
	return s.Cache.ListenForInvalidation(ctx)
}

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 10 * time.Second

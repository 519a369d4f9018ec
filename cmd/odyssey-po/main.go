package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-po/cmd/odyssey-po/cli"
	"github.com/odyssey-erp/odyssey-po/internal/app"
	"github.com/odyssey-erp/odyssey-po/internal/observability"
	"github.com/odyssey-erp/odyssey-po/internal/purchasing"
	"github.com/odyssey-erp/odyssey-po/internal/receiving"
	"github.com/odyssey-erp/odyssey-po/jobs"
)

const usage = `usage:
  odyssey-po                                  run the http server
  odyssey-po jobs trigger <task> [args...]    enqueue receiving:reconcile or idempotency:cleanup
  odyssey-po jobs stats                       show default queue depth
  odyssey-po warehouses import <file.csv>     load code,name,location rows`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 {
		if err := runCommand(ctx, cfg, logger, os.Args[1:]); err != nil {
			logger.Error("command failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, stop, cfg, logger); err != nil {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	svc, err := app.BuildServices(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.ListenForInvalidation(ctx); err != nil {
		logger.Warn("dashboard cache invalidation", slog.Any("error", err))
	}

	var inspector *asynq.Inspector
	if svc.Redis != nil {
		inspector = asynq.NewInspector(app.RedisOpts(cfg))
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
	}

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		PurchasingHandler: purchasing.NewHandler(logger, svc.Purchasing),
		ReceivingHandler:  receiving.NewHandler(logger, svc.Receiving),
		JobHandler:        jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.RecordBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func runCommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) error {
	if len(args) < 2 {
		return errors.New(usage)
	}
	switch args[0] + " " + args[1] {
	case "jobs trigger":
		if len(args) < 3 {
			return errors.New(usage)
		}
		jc, err := cli.NewJobsCLI(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer jc.Close()
		info, err := jc.Trigger(ctx, args[2], args[3:]...)
		if err != nil {
			return err
		}
		logger.Info("task enqueued", slog.String("id", info.ID), slog.String("type", info.Type), slog.String("queue", info.Queue))
		return nil
	case "jobs stats":
		jc, err := cli.NewJobsCLI(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer jc.Close()
		stats, err := jc.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return nil
	case "warehouses import":
		if len(args) < 3 {
			return errors.New(usage)
		}
		f, err := os.Open(args[2])
		if err != nil {
			return err
		}
		defer f.Close()
		svc, err := app.BuildServices(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer svc.Close()
		n, err := cli.NewWarehouseCLI(svc.Records, svc.Fields).Import(ctx, f)
		if err != nil {
			return err
		}
		logger.Info("warehouses imported", slog.Int("created", n))
		return nil
	default:
		return errors.New(usage)
	}
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-po/internal/jobs"
	"github.com/odyssey-erp/odyssey-po/internal/receiving"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Reconciler is the part of the receiving service the job drives.
type Reconciler interface {
	Refresh(ctx context.Context) (receiving.Snapshot, error)
	Line(ctx context.Context, poNumber, itemCode string) (receiving.Line, error)
}

// ReconcileJob recomputes one pair and rewarms the dashboard snapshot.
type ReconcileJob struct {
	Receiving Reconciler
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewReconcileJob wires dependencies for the reconcile handler.
func NewReconcileJob(svc Reconciler, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileJob {
	return &ReconcileJob{Receiving: svc, Logger: logger, Metrics: metrics}
}

// Handle processes TaskReceivingReconcile tasks.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Receiving == nil {
		return errors.New("receiving reconcile: handler not configured")
	}
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskReceivingReconcile)
	return tracker.End(j.reconcile(ctx, payload))
}

func (j *ReconcileJob) reconcile(ctx context.Context, payload ReconcilePayload) error {
	logger := j.logger().With(slog.String("po_number", payload.PONumber), slog.String("item_code", payload.ItemCode))

	if payload.PONumber != "" && payload.ItemCode != "" {
		line, err := j.Receiving.Line(ctx, payload.PONumber, payload.ItemCode)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			logger.Warn("reconcile target missing")
		case err != nil:
			logger.Error("reconcile line", slog.Any("error", err))
			return err
		default:
			logger.Info("line reconciled", slog.String("state", line.State), slog.String("remaining", line.Fulfillment.Remaining.String()))
		}
	}

	snap, err := j.Receiving.Refresh(ctx)
	if err != nil {
		logger.Error("refresh dashboard", slog.Any("error", err))
		return err
	}
	j.metrics().SetLineStates(snap.Counters)
	logger.Info("dashboard warmed", slog.Int("orders", len(snap.Orders)), slog.Int("lines", snap.Counters.Lines))
	return nil
}

func (j *ReconcileJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReconcileJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReceivingReconcile))
	}
	return slog.Default().With(slog.String("job", TaskReceivingReconcile))
}

// Cleaner prunes idempotency keys.
type Cleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// CleanupJob removes expired idempotency keys.
type CleanupJob struct {
	Store   Cleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *CleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload CleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskIdempotencyCleanup)
	err := j.Store.Cleanup(ctx, payload.Retention())
	if err != nil && j.Logger != nil {
		j.Logger.Error("idempotency cleanup", slog.Any("error", err))
	}
	return tracker.End(err)
}

package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReceivingReconcile recomputes fulfillment and warms the dashboard cache.
	TaskReceivingReconcile = "receiving:reconcile"
	// TaskIdempotencyCleanup prunes expired receipt submission keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ReconcilePayload names the pair that changed. Both fields empty means a
// full refresh.
type ReconcilePayload struct {
	PONumber string `json:"po_number,omitempty"`
	ItemCode string `json:"item_code,omitempty"`
}

// NewReconcileTask constructs an Asynq task.
func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceivingReconcile, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// CleanupPayload sets the retention window for idempotency keys.
type CleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// Retention returns the window, defaulting to 72 hours.
func (p CleanupPayload) Retention() time.Duration {
	if p.RetentionHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(p.RetentionHours) * time.Hour
}

// NewCleanupTask constructs an Asynq task.
func NewCleanupTask(retentionHours int) (*asynq.Task, error) {
	data, err := json.Marshal(CleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data, asynq.Queue(QueueDefault)), nil
}

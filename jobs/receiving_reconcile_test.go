package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/odyssey-po/internal/jobs"
	"github.com/odyssey-erp/odyssey-po/internal/receiving"
)

type fakeReconciler struct {
	lines     []string
	refreshes int
	lineErr   error
	refreshFn func() (receiving.Snapshot, error)
}

func (f *fakeReconciler) Refresh(context.Context) (receiving.Snapshot, error) {
	f.refreshes++
	if f.refreshFn != nil {
		return f.refreshFn()
	}
	return receiving.Snapshot{Counters: receiving.Counters{Lines: 2, Partial: 1, Complete: 1}}, nil
}

func (f *fakeReconciler) Line(_ context.Context, poNumber, itemCode string) (receiving.Line, error) {
	f.lines = append(f.lines, poNumber+"/"+itemCode)
	if f.lineErr != nil {
		return receiving.Line{}, f.lineErr
	}
	return receiving.Line{ItemCode: itemCode, State: "PARTIAL"}, nil
}

func newTestJob(rec Reconciler) *ReconcileJob {
	return NewReconcileJob(rec, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
}

func TestReconcileTaskPayload(t *testing.T) {
	task, err := NewReconcileTask(ReconcilePayload{PONumber: "PO-1", ItemCode: "A-1"})
	require.NoError(t, err)
	require.Equal(t, TaskReceivingReconcile, task.Type())

	var payload ReconcilePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, ReconcilePayload{PONumber: "PO-1", ItemCode: "A-1"}, payload)
}

func TestReconcileJobRefreshesPairAndDashboard(t *testing.T) {
	rec := &fakeReconciler{}
	task, err := NewReconcileTask(ReconcilePayload{PONumber: "PO-1", ItemCode: "A-1"})
	require.NoError(t, err)

	require.NoError(t, newTestJob(rec).Handle(context.Background(), task))
	require.Equal(t, []string{"PO-1/A-1"}, rec.lines)
	require.Equal(t, 1, rec.refreshes)
}

func TestReconcileJobFullRefresh(t *testing.T) {
	rec := &fakeReconciler{}
	task, err := NewReconcileTask(ReconcilePayload{})
	require.NoError(t, err)

	require.NoError(t, newTestJob(rec).Handle(context.Background(), task))
	require.Empty(t, rec.lines)
	require.Equal(t, 1, rec.refreshes)
}

func TestReconcileJobMissingLineStillRefreshes(t *testing.T) {
	rec := &fakeReconciler{lineErr: receiving.ErrLineNotFound}
	task, err := NewReconcileTask(ReconcilePayload{PONumber: "PO-1", ItemCode: "gone"})
	require.NoError(t, err)

	require.NoError(t, newTestJob(rec).Handle(context.Background(), task))
	require.Equal(t, 1, rec.refreshes)
}

func TestReconcileJobErrors(t *testing.T) {
	boom := errors.New("store down")
	rec := &fakeReconciler{refreshFn: func() (receiving.Snapshot, error) { return receiving.Snapshot{}, boom }}
	task, err := NewReconcileTask(ReconcilePayload{})
	require.NoError(t, err)
	require.ErrorIs(t, newTestJob(rec).Handle(context.Background(), task), boom)

	bad := asynq.NewTask(TaskReceivingReconcile, []byte("{"))
	require.ErrorIs(t, newTestJob(&fakeReconciler{}).Handle(context.Background(), bad), asynq.SkipRetry)

	var nilJob *ReconcileJob
	require.Error(t, nilJob.Handle(context.Background(), task))
}

func TestReconcileJobRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	job := NewReconcileJob(&fakeReconciler{lineErr: errors.New("store down")}, nil, jobmetrics.NewMetrics(reg))
	task, err := NewReconcileTask(ReconcilePayload{PONumber: "PO-1", ItemCode: "A-1"})
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))

	full, err := NewReconcileTask(ReconcilePayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), full))

	expected := `
# HELP odyssey_jobs_total Task runs by task type and outcome.
# TYPE odyssey_jobs_total counter
odyssey_jobs_total{outcome="failure",task="receiving:reconcile"} 1
odyssey_jobs_total{outcome="success",task="receiving:reconcile"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "odyssey_jobs_total"))
}

type fakeCleaner struct{ olderThan time.Duration }

func (f *fakeCleaner) Cleanup(_ context.Context, olderThan time.Duration) error {
	f.olderThan = olderThan
	return nil
}

func TestCleanupJobUsesRetention(t *testing.T) {
	store := &fakeCleaner{}
	job := &CleanupJob{Store: store, Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry())}

	task, err := NewCleanupTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 72*time.Hour, store.olderThan)

	task, err = NewCleanupTask(24)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 24*time.Hour, store.olderThan)
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, nil).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"queue":"default","enabled":false,"pending":0,"active":0,"retry":0}`, rec.Body.String())
}

func TestNewWorkerValidatesHandlers(t *testing.T) {
	noop := func(context.Context, *asynq.Task) error { return nil }
	opts := asynq.RedisClientOpt{Addr: "127.0.0.1:0"}

	_, err := NewWorker(WorkerConfig{RedisOpts: opts, Handlers: []TaskHandler{
		{Type: TaskReceivingReconcile, Handler: noop},
		{Type: TaskReceivingReconcile, Handler: noop},
	}})
	require.ErrorContains(t, err, "duplicate handler")

	_, err = NewWorker(WorkerConfig{RedisOpts: opts, Handlers: []TaskHandler{{Type: TaskIdempotencyCleanup}}})
	require.Error(t, err)

	task, err := NewCleanupTask(0)
	require.NoError(t, err)
	_, err = NewWorker(WorkerConfig{
		RedisOpts: opts,
		Handlers:  []TaskHandler{{Type: TaskReceivingReconcile, Handler: noop}},
		Cron:      []CronRegistration{{Spec: "0 3 * * *", Task: task}},
	})
	require.ErrorContains(t, err, "unhandled task")
}

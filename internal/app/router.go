package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-po/internal/observability"
	"github.com/odyssey-erp/odyssey-po/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-po/internal/purchasing"
	"github.com/odyssey-erp/odyssey-po/internal/receiving"
	"github.com/odyssey-erp/odyssey-po/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	PurchasingHandler *purchasing.Handler
	ReceivingHandler  *receiving.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

type health struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// NewRouter mounts the purchasing, receiving and ops routes behind the
// middleware stack. Unknown paths answer with a problem body.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "", "")
	})

	body := health{Status: "ok"}
	if params.Config != nil {
		body.Backend = params.Config.RecordBackend
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, body)
	})

	if params.PurchasingHandler != nil {
		r.Route("/purchasing", params.PurchasingHandler.MountRoutes)
	}
	if params.ReceivingHandler != nil {
		r.Route("/receiving", params.ReceivingHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

package receiving

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-po/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

// IdempotencyHeader carries the optional receipt submission key.
const IdempotencyHeader = "Idempotency-Key"

type receiptRequest struct {
	ReceiveDate string `json:"receive_date" validate:"max=10"`
	Quantity    string `json:"quantity" validate:"max=32"`
	Warehouse   string `json:"warehouse" validate:"max=64"`
	UnitCost    string `json:"unit_cost" validate:"max=32"`
	Remarks     string `json:"remarks" validate:"max=500"`
}

// Handler exposes the receiving dashboard.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers receiving routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
	r.Route("/orders/{po}/items/{item}", func(r chi.Router) {
		r.Get("/", h.line)
		r.Get("/history", h.history)
		r.Post("/receipts", h.receive)
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	view, err := h.service.Dashboard(r.Context(), filter, refresh)
	if err != nil {
		h.fail(w, "load dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) line(w http.ResponseWriter, r *http.Request) {
	line, err := h.service.Line(r.Context(), chi.URLParam(r, "po"), chi.URLParam(r, "item"))
	if err != nil {
		h.fail(w, "load line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, line)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	hist, err := h.service.History(r.Context(), chi.URLParam(r, "po"), chi.URLParam(r, "item"))
	if err != nil {
		h.fail(w, "load history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, hist)
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			httpx.RespondError(w, shared.NewValidationError(strings.ToLower(verrs[0].Field()), "failed "+verrs[0].Tag()+" check"))
			return
		}
		httpx.RespondError(w, err)
		return
	}
	in := ReceiptInput{
		PONumber:    chi.URLParam(r, "po"),
		ItemCode:    chi.URLParam(r, "item"),
		ReceiveDate: req.ReceiveDate,
		Quantity:    req.Quantity,
		Warehouse:   req.Warehouse,
		UnitCost:    req.UnitCost,
		Remarks:     req.Remarks,
	}
	res, err := h.service.Receive(r.Context(), in, r.Header.Get(IdempotencyHeader))
	if err != nil {
		h.fail(w, "commit receipt", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{Search: strings.TrimSpace(q.Get("search"))}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, ok := ParseDeliveryStatus(raw)
		if !ok {
			return Filter{}, shared.NewValidationError("status", "unknown delivery status "+raw)
		}
		f.Status = status
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Filter{}, shared.NewValidationError(p.name, "date must be YYYY-MM-DD")
		}
		*p.dst = &t
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &f.Page}, {"per_page", &f.PerPage}} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			return Filter{}, shared.NewValidationError(p.name, "must be an integer between 1 and 500")
		}
		*p.dst = n
	}
	return f, nil
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, shared.ErrValidation) && !errors.Is(err, shared.ErrNotFound) &&
		!errors.Is(err, shared.ErrIdempotencyConflict) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

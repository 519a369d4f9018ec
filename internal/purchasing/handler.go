package purchasing

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-po/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-po/internal/purchasing/erpexport"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler exposes editing sessions over JSON.
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

// MountRoutes registers purchasing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sessions", h.createSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.getSession)
		r.Delete("/", h.deleteSession)
		r.Put("/header", h.updateHeader)
		r.Post("/lines", h.addLine)
		r.Put("/lines/{index}", h.updateLine)
		r.Delete("/lines/{index}", h.removeLine)
		r.Get("/lines/{index}/allocations", h.getAllocations)
		r.Put("/lines/{index}/allocations", h.saveAllocations)
		r.Post("/lines/{index}/allocations/import", h.importAllocations)
		r.Get("/export", h.exportJSON)
		r.Get("/export.csv", h.exportCSV)
		r.Get("/export.xlsx", h.exportXLSX)
		r.Post("/submit", h.submit)
	})
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.NewSession(r.Context())
	if err != nil {
		h.fail(w, "create session", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sess.View())
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "load session", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sess.View())
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DiscardSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "discard session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateHeader(w http.ResponseWriter, r *http.Request) {
	var req headerRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess, err := h.service.UpdateHeader(r.Context(), chi.URLParam(r, "id"), req.draft())
	if err != nil {
		h.fail(w, "update header", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sess.View())
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess, index, err := h.service.AddLine(r.Context(), chi.URLParam(r, "id"), req.draft())
	if err != nil {
		h.fail(w, "add line", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lineResponse{Index: index, Session: sess.View()})
}

func (h *Handler) updateLine(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	var req lineRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess, err := h.service.UpdateLine(r.Context(), chi.URLParam(r, "id"), index, req.draft())
	if err != nil {
		h.fail(w, "update line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lineResponse{Index: index, Session: sess.View()})
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	sess, err := h.service.RemoveLine(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.fail(w, "remove line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sess.View())
}

func (h *Handler) getAllocations(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	view, err := h.service.Allocations(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.fail(w, "open allocations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) saveAllocations(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	var req allocationsRequest
	if !h.decode(w, r, &req) {
		return
	}
	ui := shared.NewStaticInteraction(req.ConfirmMismatch)
	view, err := h.service.SaveAllocations(r.Context(), chi.URLParam(r, "id"), index, req.rows(), ui)
	if err != nil {
		h.fail(w, "save allocations", err)
		return
	}
	view.Notices = ui.Prompts()
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) importAllocations(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	var req importRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.ImportAllocations(r.Context(), chi.URLParam(r, "id"), index, req.Text, req.Save, req.ConfirmMismatch)
	if err != nil {
		h.fail(w, "import allocations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) exportJSON(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ExportRows(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "export rows", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rows, err := h.service.ExportRows(r.Context(), id)
	if err != nil {
		h.fail(w, "export csv", err)
		return
	}
	w.Header().Set("Content-Type", contentTypeCSV)
	w.Header().Set("Content-Disposition", attachment(id, "csv"))
	if err := erpexport.WriteCSV(w, rows); err != nil {
		h.logger.Error("write erp csv", slog.String("session", id), slog.Any("error", err))
	}
}

func (h *Handler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rows, err := h.service.ExportRows(r.Context(), id)
	if err != nil {
		h.fail(w, "export xlsx", err)
		return
	}
	var buf bytes.Buffer
	if err := erpexport.WriteXLSX(&buf, rows); err != nil {
		h.fail(w, "export xlsx", err)
		return
	}
	w.Header().Set("Content-Type", contentTypeXLSX)
	w.Header().Set("Content-Disposition", attachment(id, "xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !h.decode(w, r, &req) {
		return
	}
	mode := ModeSubmit
	if req.Mode == string(ModeDraft) {
		mode = ModeDraft
	}
	ui := shared.NewStaticInteraction(req.ConfirmExchangeRate)
	res, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"), mode, ui)
	if err != nil {
		h.fail(w, "submit order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil && !errors.Is(err, io.EOF) {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			httpx.RespondError(w, shared.NewValidationError(strings.ToLower(first.Field()), fmt.Sprintf("failed %s check", first.Tag())))
			return false
		}
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !isClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func isClientError(err error) bool {
	return errors.Is(err, shared.ErrValidation) ||
		errors.Is(err, shared.ErrNotFound) ||
		errors.Is(err, shared.ErrConfirmationDeclined)
}

func lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "line index must be a non-negative integer")
		return 0, false
	}
	return index, true
}

func attachment(id, ext string) string {
	return fmt.Sprintf(`attachment; filename="erp-%s.%s"`, id, ext)
}

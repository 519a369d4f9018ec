package receiving

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *fixture) {
	t.Helper()
	f := newFixture(t)
	r := chi.NewRouter()
	r.Route("/receiving", NewHandler(nil, f.svc).MountRoutes)
	return r, f
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerDashboard(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/receiving/dashboard?status=partial&search=anchor", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, 1, view.Matched)
	require.Equal(t, 2, view.Total)
	require.Equal(t, "PO-20261001-001", view.Orders[0].PONumber)

	rec = do(t, h, http.MethodGet, "/receiving/dashboard?from=2026-10-30&to=2026-10-31&refresh=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, 1, view.Matched)

	rec = do(t, h, http.MethodGet, "/receiving/dashboard?page=2&per_page=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = Dashboard{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Orders, 1)
	require.Equal(t, "PO-20261001-001", view.Orders[0].PONumber)
	require.NotNil(t, view.Pagination)
	require.Equal(t, 2, view.Pagination.TotalPages)

	rec = do(t, h, http.MethodGet, "/receiving/dashboard?per_page=0", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodGet, "/receiving/dashboard?status=late", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), `"field":"status"`)

	rec = do(t, h, http.MethodGet, "/receiving/dashboard?from=10/01/2026", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), `"field":"from"`)
}

func TestHandlerReceiptFlow(t *testing.T) {
	h, f := newTestRouter(t)
	path := "/receiving/orders/PO-20261001-001/items/A-1"

	rec := do(t, h, http.MethodPost, path+"/receipts",
		`{"receive_date":"2026-10-14","quantity":"7","warehouse":"WH01","unit_cost":"100"}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), `"field":"quantity"`)

	rec = do(t, h, http.MethodPost, path+"/receipts",
		`{"receive_date":"2026-10-14","quantity":"2","warehouse":"WH01","unit_cost":"100"}`,
		map[string]string{IdempotencyHeader: "abc"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var res ReceiptResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "4", res.Line.Fulfillment.Remaining.String())
	require.Equal(t, Partial, res.Line.Fulfillment.Status)

	rec = do(t, h, http.MethodPost, path+"/receipts",
		`{"receive_date":"2026-10-14","quantity":"2","warehouse":"WH01","unit_cost":"100"}`,
		map[string]string{IdempotencyHeader: "abc"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, 4, f.store.Len("inventory_transactions"))

	rec = do(t, h, http.MethodGet, path+"/history", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist History
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	require.Len(t, hist.Entries, 3)
	require.Equal(t, "6", hist.Confirmed.String())

	rec = do(t, h, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/receiving/orders/PO-404/items/A-1", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, path+"/receipts", `{"quantity":`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

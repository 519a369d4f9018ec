package httpx

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	var got struct {
		Quantity string `json:"quantity"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":"2"}`))
	require.NoError(t, DecodeJSON(req, &got))
	require.Equal(t, "2", got.Quantity)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":"2"} {"quantity":"3"}`))
	require.ErrorIs(t, DecodeJSON(req, &got), ErrTrailingData)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.ErrorIs(t, DecodeJSON(req, &got), io.EOF)
}

func TestProblemDefaultsTitle(t *testing.T) {
	rec := httptest.NewRecorder()
	Problem(rec, http.StatusBadGateway, "", "record store unavailable")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.JSONEq(t, `{"title":"Bad Gateway","status":502,"detail":"record store unavailable"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	JSON(rec, http.StatusNoContent, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.String())
}

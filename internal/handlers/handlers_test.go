package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/devconnector/backend/internal/middleware"
	"github.com/devconnector/backend/internal/models"
)

// serve routes a single request through a one-route chi router so URL
// params resolve the way they do in production.
func serve(method, pattern, path, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func as(caller middleware.Caller, h middleware.AuthedHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { h(w, r, caller) }
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func msgOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[models.MessageResponse](t, rec).Msg
}

func errorsOf(t *testing.T, rec *httptest.ResponseRecorder) []models.FieldError {
	t.Helper()
	return decode[models.ErrorsResponse](t, rec).Errors
}

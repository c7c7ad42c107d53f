package server_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/UnknownOlympus/iris/internal/lib/logger/sl"
	"github.com/UnknownOlympus/iris/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker(t *testing.T) {
	logger := sl.Discard()

	t.Run("upstream ok", func(t *testing.T) {
		mockUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodHead, r.Method)
			w.WriteHeader(http.StatusOK)
		}))
		defer mockUpstream.Close()

		healthChecker := server.NewHealthChecker(mockUpstream.URL, logger)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()

		healthChecker.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		require.JSONEq(t, `{"upstream":"ok"}`, rr.Body.String())
	})

	t.Run("upstream degraded", func(t *testing.T) {
		mockUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer mockUpstream.Close()

		healthChecker := server.NewHealthChecker(mockUpstream.URL, logger)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()

		healthChecker.ServeHTTP(rr, req)

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		require.JSONEq(t, `{"upstream":"degraded"}`, rr.Body.String())
	})

	t.Run("upstream unreachable", func(t *testing.T) {
		healthChecker := server.NewHealthChecker("invalid_url", logger)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()

		healthChecker.ServeHTTP(rr, req)

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		require.JSONEq(t, `{"upstream":"unreachable"}`, rr.Body.String())
	})

	t.Run("unreachable upstream is logged with its error", func(t *testing.T) {
		var buf bytes.Buffer
		healthChecker := server.NewHealthChecker("invalid_url", slog.New(slog.NewJSONHandler(&buf, nil)))

		rr := httptest.NewRecorder()
		healthChecker.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		var record map[string]any
		require.NoError(t, json.Unmarshal(bytes.SplitN(buf.Bytes(), []byte("\n"), 2)[0], &record))
		assert.Equal(t, "Upstream unreachable", record["msg"])
		assert.Equal(t, "invalid_url", record["url"])
		assert.NotEmpty(t, record["error"])
	})
}

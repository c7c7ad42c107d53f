package client_test

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/UnknownOlympus/iris/internal/client"
	"github.com/UnknownOlympus/iris/internal/lib/logger/sl"
	"github.com/UnknownOlympus/iris/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestCreateHTTPClient(t *testing.T) {
	var logBuf bytes.Buffer // buffer for log capturing
	// Create slog.Logger, which writes in logBuf
	testLogger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{
		Level: slog.LevelDebug, // Level debug needed, for request and redirect messages
	}))

	t.Run("client properties", func(t *testing.T) {
		client := client.CreateHTTPClient(testLogger, 3*time.Second)

		assert.Equal(t, 3*time.Second, client.Timeout)
		assert.NotNil(t, client.Transport, "client.Transport must be set")
		assert.NotNil(t, client.CheckRedirect, "client.CheckRedirect must be set")
	})

	t.Run("CheckRedirect behavior - redirection and logging", func(t *testing.T) {
		logBuf.Reset() // Clearing the log buffer before this particular test

		finalPath := "/final-destination"
		redirectPath := "/redirect-here"

		// Setup test server, which redirects
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case redirectPath:
				http.Redirect(w, r, finalPath, http.StatusFound)
			case finalPath:
				w.WriteHeader(http.StatusOK)
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		client := client.CreateHTTPClient(testLogger, time.Second)

		resp, err := client.Get(server.URL + redirectPath)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, finalPath, resp.Request.URL.Path)

		loggedOutput := logBuf.String()
		assert.Contains(t, loggedOutput, "Redirected to URL")
		// slog text log format: level=DEBUG msg="Redirected to URL" URL=http://127.0.0.1:xxxx/final-destination
		assert.Contains(t, loggedOutput, "URL="+server.URL+finalPath)
	})
}

func TestLoggingTransport_SetsHeaders(t *testing.T) {
	t.Parallel()

	var captured *http.Request
	transport := client.NewLoggingTransport(sl.Discard(), roundTripFunc(
		func(req *http.Request) (*http.Response, error) {
			captured = req
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Header: make(http.Header)}, nil
		}))

	req, err := http.NewRequest(http.MethodPost, "http://upstream.local/api", strings.NewReader(`{}`))
	require.NoError(t, err)

	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.NotNil(t, captured)
	assert.Equal(t, "application/json", captured.Header.Get("Accept"))
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
	assert.Equal(t, models.UserAgent, captured.Header.Get("User-Agent"))
	assert.Empty(t, req.Header.Get("Accept"), "caller request must stay untouched")
}

func TestLoggingTransport_LogsRequestAndError(t *testing.T) {
	t.Parallel()

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	transport := client.NewLoggingTransport(logger, roundTripFunc(func(_ *http.Request) (*http.Response, error) {
		return nil, errors.New("simulated network error")
	}))

	req, err := http.NewRequest(http.MethodGet, "http://upstream.local/api/1", nil)
	require.NoError(t, err)

	_, err = transport.RoundTrip(req) //nolint:bodyclose // no response on error
	require.Error(t, err)

	out := logBuf.String()
	assert.Contains(t, out, `msg="Upstream request"`)
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "URL=http://upstream.local/api/1")
	assert.Contains(t, out, "simulated network error")
}

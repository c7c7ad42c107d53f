package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/iris/internal/lib/logger/sl"
	"github.com/UnknownOlympus/iris/internal/models"
)

// CreateHTTPClient initializes the HTTP client used for every upstream call.
// The client is built once at startup and shared read-only afterwards.
func CreateHTTPClient(log *slog.Logger, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewLoggingTransport(log, http.DefaultTransport),
		CheckRedirect: func(req *http.Request, _ []*http.Request) error {
			log.Debug("Redirected to URL", "URL", req.URL)

			return nil
		},
	}
}

// LoggingTransport sets the default upstream headers and logs every round trip.
type LoggingTransport struct {
	log  *slog.Logger
	next http.RoundTripper
}

// NewLoggingTransport wraps next. A nil next falls back to http.DefaultTransport.
func NewLoggingTransport(log *slog.Logger, next http.RoundTripper) *LoggingTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &LoggingTransport{log: log, next: next}
}

// RoundTrip implements http.RoundTripper.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrip must not modify the caller's request
	out := req.Clone(req.Context())
	out.Header.Set("Accept", "application/json")
	out.Header.Set("User-Agent", models.UserAgent)
	if out.Body != nil && out.Header.Get("Content-Type") == "" {
		out.Header.Set("Content-Type", "application/json")
	}

	t.log.DebugContext(req.Context(), "Upstream request", "method", out.Method, "URL", out.URL.String())

	start := time.Now()
	resp, err := t.next.RoundTrip(out)
	if err != nil {
		t.log.DebugContext(req.Context(), "Upstream request failed", "method", out.Method, "URL", out.URL.String(), sl.Err(err))
		return nil, err
	}

	t.log.DebugContext(req.Context(), "Upstream response",
		"method", out.Method,
		"URL", out.URL.String(),
		"status_code", resp.StatusCode,
		"elapsed", time.Since(start).String(),
	)

	return resp, nil
}

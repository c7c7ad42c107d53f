package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/iris/internal/lib/logger/sl"
)

const healthCheckTimeout = 5 * time.Second

// HealthChecker reports whether the upstream employee API answers.
type HealthChecker struct {
	upstreamURL string
	httpClient  *http.Client
	log         *slog.Logger
}

func NewHealthChecker(upstreamURL string, log *slog.Logger) *HealthChecker {
	return &HealthChecker{
		upstreamURL: upstreamURL,
		httpClient:  &http.Client{Timeout: healthCheckTimeout},
		log:         log,
	}
}

func (h *HealthChecker) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	h.log.DebugContext(req.Context(), "Probing upstream", "url", h.upstreamURL)

	status := make(map[string]string)
	overallStatus := http.StatusOK

	resp, err := h.head(req)
	switch {
	case err != nil:
		status["upstream"] = "unreachable"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(req.Context(), "Upstream unreachable", "url", h.upstreamURL, sl.Err(err))
	case resp.StatusCode >= http.StatusBadRequest:
		status["upstream"] = "degraded"
		overallStatus = http.StatusServiceUnavailable
		h.log.WarnContext(req.Context(), "Upstream answered with error status",
			"url", h.upstreamURL, "status_code", resp.StatusCode)
	default:
		status["upstream"] = "ok"
	}
	if resp != nil {
		if err = resp.Body.Close(); err != nil {
			h.log.WarnContext(req.Context(), "Failed to close response body", sl.Err(err))
		}
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(overallStatus)
	if err = json.NewEncoder(writer).Encode(status); err != nil {
		h.log.ErrorContext(req.Context(), "Failed to write health check response", sl.Err(err))
	}

	h.log.DebugContext(req.Context(), "Upstream probe finished", "status", overallStatus)
}

func (h *HealthChecker) head(req *http.Request) (*http.Response, error) {
	probe, err := http.NewRequestWithContext(req.Context(), http.MethodHead, h.upstreamURL, nil)
	if err != nil {
		return nil, err
	}
	return h.httpClient.Do(probe)
}

package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/UnknownOlympus/iris/internal/metrics"
	"github.com/UnknownOlympus/iris/internal/models"
)

var (
	// ErrUpstream covers transport failures, malformed responses and unexpected statuses.
	ErrUpstream = errors.New("upstream employee API error")
	// ErrNotFound is returned when the upstream reports no matching employee.
	ErrNotFound = errors.New("employee not found upstream")
)

const maxBodySize = 4 << 20

// envelope is the wrapper the upstream puts around every payload.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Status string          `json:"status,omitempty"`
}

type EmployeeAPI struct {
	client  *http.Client
	baseURL *url.URL
	metrics *metrics.Metrics
}

type EmployeeAPIIface interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	GetEmployee(ctx context.Context, id models.EmployeeID) (models.Employee, error)
	CreateEmployee(ctx context.Context, input models.CreateEmployeeInput) (models.Employee, error)
	DeleteEmployee(ctx context.Context, name string) (bool, error)
}

// NewEmployeeAPI builds a client for the upstream employee API rooted at destURL.
func NewEmployeeAPI(client *http.Client, metrics *metrics.Metrics, destURL string) (*EmployeeAPI, error) {
	base, err := url.Parse(destURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse destination URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("failed to parse destination URL: %q is not absolute", destURL)
	}

	return &EmployeeAPI{client: client, baseURL: base, metrics: metrics}, nil
}

// ListEmployees fetches the full upstream collection in upstream order.
func (api *EmployeeAPI) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee

	if err := api.do(ctx, "list", http.MethodGet, api.baseURL.String(), nil, &employees); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	api.metrics.EmployeesFetched.Add(float64(len(employees)))

	return employees, nil
}

// GetEmployee fetches a single employee. A null payload is reported as ErrNotFound.
func (api *EmployeeAPI) GetEmployee(ctx context.Context, id models.EmployeeID) (models.Employee, error) {
	var employee *models.Employee

	if err := api.do(ctx, "get", http.MethodGet, api.resolve(id.String()), nil, &employee); err != nil {
		return models.Employee{}, fmt.Errorf("failed to get employee '%s': %w", id, err)
	}
	if employee == nil {
		return models.Employee{}, fmt.Errorf("failed to get employee '%s': %w", id, ErrNotFound)
	}
	api.metrics.EmployeesFetched.Inc()

	return *employee, nil
}

// CreateEmployee forwards the input to the upstream and returns the echoed record.
func (api *EmployeeAPI) CreateEmployee(ctx context.Context, input models.CreateEmployeeInput) (models.Employee, error) {
	var employee models.Employee

	body, err := json.Marshal(input)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to encode employee '%s': %w", input.Name, err)
	}

	if err = api.do(ctx, "create", http.MethodPost, api.baseURL.String(), body, &employee); err != nil {
		return models.Employee{}, fmt.Errorf("failed to create employee '%s': %w", input.Name, err)
	}

	return employee, nil
}

// DeleteEmployee asks the upstream to delete the employee with the given name.
func (api *EmployeeAPI) DeleteEmployee(ctx context.Context, name string) (bool, error) {
	var deleted bool

	if err := api.do(ctx, "delete", http.MethodDelete, api.resolve(name), nil, &deleted); err != nil {
		return false, fmt.Errorf("failed to delete employee '%s': %w", name, err)
	}

	return deleted, nil
}

// resolve appends one escaped path segment to the base URL.
func (api *EmployeeAPI) resolve(segment string) string {
	u := *api.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + segment
	u.RawPath = strings.TrimSuffix(api.baseURL.EscapedPath(), "/") + "/" + url.PathEscape(segment)
	return u.String()
}

// do performs one upstream call and decodes the envelope's data field into out.
func (api *EmployeeAPI) do(ctx context.Context, operation, method, target string, body []byte, out any) error {
	startTime := time.Now()
	defer func() {
		api.metrics.UpstreamDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		api.observe(operation, "failure")
		return fmt.Errorf("%w: failed to create new request %s: %w", ErrUpstream, target, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := api.client.Do(req)
	if err != nil {
		api.observe(operation, "failure")
		return fmt.Errorf("%w: failed to request %s: %w", ErrUpstream, target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		api.observe(operation, "not_found")
		return ErrNotFound
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		api.observe(operation, "failure")
		return fmt.Errorf("%w: received status code: %d", ErrUpstream, resp.StatusCode)
	}

	var env envelope
	if err = json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&env); err != nil {
		api.observe(operation, "failure")
		return fmt.Errorf("%w: failed to decode response body: %w", ErrUpstream, err)
	}
	if len(env.Data) == 0 {
		api.observe(operation, "failure")
		return fmt.Errorf("%w: response has no data field", ErrUpstream)
	}
	if err = json.Unmarshal(env.Data, out); err != nil {
		api.observe(operation, "failure")
		return fmt.Errorf("%w: failed to decode data field: %w", ErrUpstream, err)
	}

	api.observe(operation, "success")
	return nil
}

func (api *EmployeeAPI) observe(operation, status string) {
	api.metrics.UpstreamRequests.WithLabelValues(operation, status).Inc()
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/UnknownOlympus/iris/internal/lib/logger/sl"
	"github.com/UnknownOlympus/iris/internal/metrics"
	"github.com/UnknownOlympus/iris/internal/services/employees"
)

const readHeaderTimeout = 5 * time.Second

// Server is the HTTP facade over the employee service.
type Server struct {
	log  *slog.Logger
	echo *echo.Echo
	svc  employees.ServiceIface
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Message string `json:"message"`
}

// New builds the facade and mounts its routes under basePath.
func New(log *slog.Logger, svc employees.ServiceIface, metrics *metrics.Metrics, basePath string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = readHeaderTimeout

	srv := &Server{
		log:  log.With(slog.String("division", "server")),
		echo: e,
		svc:  svc,
	}

	e.HTTPErrorHandler = srv.handleError

	e.Pre(middleware.RemoveTrailingSlash())
	// outermost so requests recovered from a panic are still counted
	e.Use(requestMetrics(metrics))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			srv.log.ErrorContext(c.Request().Context(), "Recovered from panic",
				sl.Err(err), slog.String("stack", string(stack)))
			return err
		},
	}))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(srv.log))

	srv.registerRoutes(e.Group(normalizeBasePath(basePath)))

	return srv
}

func (s *Server) registerRoutes(g *echo.Group) {
	g.GET("", s.listEmployees)
	// "/search/" loses its trailing slash before routing and searches with an empty fragment
	g.GET("/search", s.searchByName)
	g.GET("/search/:searchString", s.searchByName)
	g.GET("/highestSalary", s.highestSalary)
	g.GET("/topTenHighestEarningEmployeeNames", s.topTenHighestEarningNames)
	g.GET("/:id", s.getByID)
	g.POST("", s.createEmployee)
	g.DELETE("/:id", s.deleteByID)
}

// ServeHTTP lets the facade be mounted or tested as a plain handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run serves on address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, address string, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.InfoContext(ctx, "Starting employee facade", "address", address)
		if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("employee facade failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.InfoContext(ctx, "Shutting down employee facade")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down employee facade: %w", err)
	}

	s.log.InfoContext(ctx, "Employee facade stopped")

	return nil
}

// handleError renders router and middleware errors in the facade's error format.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	} else {
		s.log.ErrorContext(c.Request().Context(), "Unhandled request error", sl.Err(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorResponse{Message: message})
	}
	if err != nil {
		s.log.ErrorContext(c.Request().Context(), "Failed to write error response", sl.Err(err))
	}
}

func normalizeBasePath(basePath string) string {
	basePath = strings.TrimSuffix(strings.TrimSpace(basePath), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return basePath
}

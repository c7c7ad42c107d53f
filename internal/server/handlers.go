package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/UnknownOlympus/iris/internal/lib/logger/sl"
	"github.com/UnknownOlympus/iris/internal/models"
	"github.com/UnknownOlympus/iris/internal/services/employees"
)

const (
	msgEmployeeNotFound = "Employee not found"
	msgInvalidBody      = "Invalid request body"
	msgEmployeeDeleted  = "Employee deleted successfully"
)

func (s *Server) listEmployees(c echo.Context) error {
	list, err := s.svc.ListEmployees(c.Request().Context())
	if err != nil {
		return s.fail(c, http.StatusInternalServerError, "Unable to fetch employees list", err)
	}

	return c.JSON(http.StatusOK, list)
}

func (s *Server) searchByName(c echo.Context) error {
	fragment := pathParam(c, "searchString")

	list, err := s.svc.SearchByName(c.Request().Context(), fragment)
	if err != nil {
		return s.fail(c, http.StatusInternalServerError, "Unable to search employees by name", err)
	}

	return c.JSON(http.StatusOK, list)
}

func (s *Server) getByID(c echo.Context) error {
	id := models.EmployeeID(pathParam(c, "id"))

	employee, err := s.svc.GetByID(c.Request().Context(), id)
	switch {
	case errors.Is(err, employees.ErrNotFound):
		return s.fail(c, http.StatusNotFound, msgEmployeeNotFound, err)
	case err != nil:
		return s.fail(c, http.StatusInternalServerError, "Unable to fetch employee by id", err)
	}

	return c.JSON(http.StatusOK, employee)
}

func (s *Server) highestSalary(c echo.Context) error {
	highest, err := s.svc.HighestSalary(c.Request().Context())
	if err != nil {
		return s.fail(c, http.StatusInternalServerError, "Unable to fetch highest salary", err)
	}

	return c.JSON(http.StatusOK, highest)
}

func (s *Server) topTenHighestEarningNames(c echo.Context) error {
	names, err := s.svc.TopTenHighestEarningNames(c.Request().Context())
	if err != nil {
		return s.fail(c, http.StatusInternalServerError, "Unable to fetch top ten highest earning employee names", err)
	}

	return c.JSON(http.StatusOK, names)
}

func (s *Server) createEmployee(c echo.Context) error {
	var input models.CreateEmployeeInput
	if err := c.Bind(&input); err != nil {
		return s.fail(c, http.StatusBadRequest, msgInvalidBody, err)
	}

	employee, err := s.svc.Create(c.Request().Context(), input)
	switch {
	case errors.Is(err, employees.ErrInvalidInput):
		return s.fail(c, http.StatusBadRequest, err.Error(), err)
	case err != nil:
		return s.fail(c, http.StatusInternalServerError, "Unable to create employee", err)
	}

	return c.JSON(http.StatusOK, employee)
}

func (s *Server) deleteByID(c echo.Context) error {
	id := models.EmployeeID(pathParam(c, "id"))

	deleted, err := s.svc.DeleteByID(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, http.StatusInternalServerError, "Unable to delete employee by id", err)
	}
	if !deleted {
		return s.fail(c, http.StatusNotFound, msgEmployeeNotFound, nil)
	}

	return c.String(http.StatusOK, msgEmployeeDeleted)
}

// fail logs the cause and writes a fixed message so internals never reach the client.
func (s *Server) fail(c echo.Context, code int, message string, cause error) error {
	ctx := c.Request().Context()
	log := s.log.With(
		sl.Op("Server."+c.Path()),
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
	)

	switch {
	case code >= http.StatusInternalServerError:
		log.ErrorContext(ctx, message, sl.Err(cause))
	case cause != nil:
		log.InfoContext(ctx, message, sl.Err(cause))
	default:
		log.InfoContext(ctx, message)
	}

	return c.JSON(code, errorResponse{Message: message})
}

// pathParam returns the decoded value of a path parameter.
// echo routes on URL.RawPath when it is set, and only then is the value still escaped.
func pathParam(c echo.Context, name string) string {
	value := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return value
	}
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}

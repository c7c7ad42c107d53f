package employees

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/UnknownOlympus/iris/internal/lib/logger/sl"
	"github.com/UnknownOlympus/iris/internal/models"
	"github.com/UnknownOlympus/iris/internal/upstream"
)

// TopEarnersLimit is the number of names returned by TopTenHighestEarningNames.
const TopEarnersLimit = 10

const (
	minAge = 16
	maxAge = 75
)

var (
	ErrUpstream     = upstream.ErrUpstream
	ErrNotFound     = upstream.ErrNotFound
	ErrInvalidInput = errors.New("invalid employee input")
)

// Service is the query/mutation layer in front of the upstream employee API.
type Service struct {
	log *slog.Logger
	api upstream.EmployeeAPIIface
}

type ServiceIface interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	SearchByName(ctx context.Context, fragment string) ([]models.Employee, error)
	GetByID(ctx context.Context, id models.EmployeeID) (models.Employee, error)
	HighestSalary(ctx context.Context) (int, error)
	TopTenHighestEarningNames(ctx context.Context) ([]string, error)
	Create(ctx context.Context, input models.CreateEmployeeInput) (models.Employee, error)
	DeleteByID(ctx context.Context, id models.EmployeeID) (bool, error)
}

func NewService(log *slog.Logger, api upstream.EmployeeAPIIface) *Service {
	return &Service{log: log, api: api}
}

func (s *Service) initLogger(opn string) *slog.Logger {
	return s.log.With(
		sl.Op(opn),
		slog.String("division", "employee"),
	)
}

// ListEmployees returns every employee in upstream order.
func (s *Service) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	const opn = "Employees.ListEmployees"
	log := s.initLogger(opn)

	log.DebugContext(ctx, "Fetching all employees")

	employees, err := s.api.ListEmployees(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Error fetching all employees", sl.Err(err))
		return nil, fmt.Errorf("unable to fetch employees: %w", err)
	}

	if employees == nil {
		employees = []models.Employee{}
	}

	return employees, nil
}

// SearchByName returns the employees whose name contains fragment, ignoring case.
func (s *Service) SearchByName(ctx context.Context, fragment string) ([]models.Employee, error) {
	s.initLogger("Employees.SearchByName").DebugContext(ctx, "Searching employees by name", "fragment", fragment)

	employees, err := s.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}

	return FilterByName(employees, fragment), nil
}

// GetByID returns a single employee.
func (s *Service) GetByID(ctx context.Context, id models.EmployeeID) (models.Employee, error) {
	const opn = "Employees.GetByID"
	log := s.initLogger(opn)

	log.DebugContext(ctx, "Fetching employee", "id", id)

	employee, err := s.api.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.InfoContext(ctx, "Employee not found", "id", id)
		} else {
			log.ErrorContext(ctx, "Error fetching employee by ID", "id", id, sl.Err(err))
		}
		return models.Employee{}, fmt.Errorf("unable to fetch employee by ID: %w", err)
	}

	return employee, nil
}

// HighestSalary returns the highest known salary, or 0 when no salary is known.
func (s *Service) HighestSalary(ctx context.Context) (int, error) {
	s.initLogger("Employees.HighestSalary").DebugContext(ctx, "Computing highest salary")

	employees, err := s.ListEmployees(ctx)
	if err != nil {
		return 0, err
	}

	return HighestSalaryOf(employees), nil
}

// TopTenHighestEarningNames returns the names of the best paid employees.
func (s *Service) TopTenHighestEarningNames(ctx context.Context) ([]string, error) {
	s.initLogger("Employees.TopTenHighestEarningNames").DebugContext(ctx, "Computing top earners")

	employees, err := s.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}

	return TopEarnerNames(employees, TopEarnersLimit), nil
}

// Create validates input and forwards it to the upstream.
func (s *Service) Create(ctx context.Context, input models.CreateEmployeeInput) (models.Employee, error) {
	const opn = "Employees.Create"
	log := s.initLogger(opn)

	log.DebugContext(ctx, "Creating employee", "name", input.Name)

	if err := ValidateInput(input); err != nil {
		log.InfoContext(ctx, "Rejected employee input", "name", input.Name, sl.Err(err))
		return models.Employee{}, err
	}

	employee, err := s.api.CreateEmployee(ctx, input)
	if err != nil {
		log.ErrorContext(ctx, "Error creating employee", sl.Err(err))
		return models.Employee{}, fmt.Errorf("unable to create employee: %w", err)
	}

	log.InfoContext(ctx, "Employee created", "id", employee.ID, "name", employee.Name)

	return employee, nil
}

// DeleteByID deletes the employee with the given id.
// The upstream deletes by name, so the employee is looked up first.
// It returns false with a nil error when the employee does not exist.
func (s *Service) DeleteByID(ctx context.Context, id models.EmployeeID) (bool, error) {
	const opn = "Employees.DeleteByID"
	log := s.initLogger(opn)

	log.DebugContext(ctx, "Deleting employee", "id", id)

	employee, err := s.api.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.InfoContext(ctx, "Employee to delete not found", "id", id)
			return false, nil
		}
		log.ErrorContext(ctx, "Error resolving employee to delete", "id", id, sl.Err(err))
		return false, fmt.Errorf("unable to delete employee: %w", err)
	}

	deleted, err := s.api.DeleteEmployee(ctx, employee.Name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.InfoContext(ctx, "Upstream reported employee absent on delete", "id", id, "name", employee.Name)
			return false, nil
		}
		log.ErrorContext(ctx, "Error deleting employee", "id", id, sl.Err(err))
		return false, fmt.Errorf("unable to delete employee: %w", err)
	}

	if deleted {
		log.InfoContext(ctx, "Employee deleted", "id", id, "name", employee.Name)
	}

	return deleted, nil
}

// FilterByName returns the employees whose name contains fragment under Unicode case folding.
// An empty fragment matches every employee.
func FilterByName(employees []models.Employee, fragment string) []models.Employee {
	matched := make([]models.Employee, 0, len(employees))

	// a Caser is stateful, so each call gets its own
	folder := cases.Fold()
	needle := folder.String(fragment)

	for _, employee := range employees {
		if strings.Contains(folder.String(employee.Name), needle) {
			matched = append(matched, employee)
		}
	}

	return matched
}

// HighestSalaryOf returns the maximum non-null salary, or 0 when there is none.
func HighestSalaryOf(employees []models.Employee) int {
	var highest int
	var found bool

	for _, employee := range employees {
		if !employee.HasSalary() {
			continue
		}
		if !found || *employee.Salary > highest {
			highest = *employee.Salary
			found = true
		}
	}

	return highest
}

// TopEarnerNames returns up to limit names ordered by salary, highest first.
// Employees without a salary are skipped; ties keep their upstream order.
func TopEarnerNames(employees []models.Employee, limit int) []string {
	ranked := make([]models.Employee, 0, len(employees))
	for _, employee := range employees {
		if employee.HasSalary() {
			ranked = append(ranked, employee)
		}
	}

	slices.SortStableFunc(ranked, func(a, b models.Employee) int {
		return cmp.Compare(*b.Salary, *a.Salary)
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	names := make([]string, 0, len(ranked))
	for _, employee := range ranked {
		names = append(names, employee.Name)
	}

	return names
}

// ValidateInput checks a create request before it is sent upstream.
func ValidateInput(input models.CreateEmployeeInput) error {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return fmt.Errorf("%w: name must not be blank", ErrInvalidInput)
	case strings.TrimSpace(input.Title) == "":
		return fmt.Errorf("%w: title must not be blank", ErrInvalidInput)
	case input.Salary <= 0:
		return fmt.Errorf("%w: salary must be greater than zero", ErrInvalidInput)
	case input.Age < minAge || input.Age > maxAge:
		return fmt.Errorf("%w: age must be between %d and %d", ErrInvalidInput, minAge, maxAge)
	case input.Email != "" && !isValidEmail(input.Email):
		return fmt.Errorf("%w: email '%s' is not a valid address", ErrInvalidInput, input.Email)
	}

	return nil
}

// isValidEmail checks if the given email address is valid.
func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

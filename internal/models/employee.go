package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// UserAgent is sent with every request iris makes to the upstream API.
const UserAgent = "iris-employee-facade/1.0"

var ErrInvalidEmployeeID = errors.New("invalid employee id")

// EmployeeID is the upstream-defined identifier of an employee.
// The upstream may emit it either as a JSON number or as a JSON string.
type EmployeeID string

// IsNumeric reports whether the identifier consists only of decimal digits.
func (id EmployeeID) IsNumeric() bool {
	if id == "" {
		return false
	}
	_, err := strconv.ParseUint(string(id), 10, 64)
	return err == nil
}

func (id EmployeeID) String() string {
	return string(id)
}

// MarshalJSON encodes numeric identifiers as JSON numbers and everything else as strings.
func (id EmployeeID) MarshalJSON() ([]byte, error) {
	// leading zeros are not valid in a JSON number
	if id.IsNumeric() && (len(id) == 1 || id[0] != '0') {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (id *EmployeeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEmployeeID, err)
		}
		*id = EmployeeID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEmployeeID, string(data))
	}
	*id = EmployeeID(n.String())
	return nil
}

// Employee represents an employee record as served by the upstream API.
type Employee struct {
	ID     EmployeeID `json:"id"`
	Name   string     `json:"name"`
	Salary *int       `json:"salary"`
	Age    int        `json:"age"`
	Title  string     `json:"title"`
	Email  string     `json:"email"`
}

// HasSalary reports whether the upstream provided a salary for the employee.
func (e Employee) HasSalary() bool {
	return e.Salary != nil
}

// CreateEmployeeInput is the payload accepted by the create operation.
type CreateEmployeeInput struct {
	Name   string `json:"name"`
	Salary int    `json:"salary"`
	Age    int    `json:"age"`
	Title  string `json:"title"`
	Email  string `json:"email,omitempty"`
}

// Salary returns a pointer to v, handy for building employees with a known salary.
func Salary(v int) *int {
	return &v
}

package port

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinels of the error taxonomy; every typed error below unwraps to one of them
var (
	ErrValidation      = errors.New("validation failed")
	ErrDuplicateNumber = errors.New("invoice number already exists")
	ErrNetwork         = errors.New("backend unreachable")
	ErrTimeout         = errors.New("operation timed out")
	ErrPermission      = errors.New("permission denied")
	ErrNotFound        = errors.New("not found")
)

// ValidationError reports missing or malformed fields; it blocks submission
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DuplicateNumberError is returned when the backend already holds the invoice number
type DuplicateNumberError struct {
	InvoiceNumber string
}

func (e *DuplicateNumberError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateNumber, e.InvoiceNumber)
}

func (e *DuplicateNumberError) Unwrap() error { return ErrDuplicateNumber }

// NetworkError wraps a transport failure or an unexpected backend status
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: status %d: %v", ErrNetwork, e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", ErrNetwork, e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s: status %d", ErrNetwork, e.Op, e.StatusCode)
	}
}

func (e *NetworkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}

// TimeoutError is returned when the document or email pipeline exceeds its bound
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s", ErrTimeout, e.Op)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// PermissionError is returned for edits attempted without a granted permission
type PermissionError struct {
	Action string
	BillID string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: %s on bill %s", ErrPermission, e.Action, e.BillID)
}

func (e *PermissionError) Unwrap() error { return ErrPermission }

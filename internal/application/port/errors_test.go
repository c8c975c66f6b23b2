package port

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"items":        "at least one item is required",
		"customerName": "required",
	}}

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed: customerName: required; items: at least one item is required", err.Error())
	assert.Equal(t, "validation failed", (&ValidationError{}).Error())
}

func TestDuplicateNumberError_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("failed to save bill after 2 attempts: %w", &DuplicateNumberError{InvoiceNumber: "WNF-7"})

	var dup *DuplicateNumberError
	assert.ErrorAs(t, err, &dup)
	assert.Equal(t, "WNF-7", dup.InvoiceNumber)
	assert.ErrorIs(t, err, ErrDuplicateNumber)
	assert.NotErrorIs(t, err, ErrNetwork)
}

func TestNetworkError(t *testing.T) {
	cause := context.Canceled
	err := &NetworkError{Op: "save bill", Err: cause}

	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "backend unreachable: save bill: context canceled", err.Error())

	status := &NetworkError{Op: "save bill", StatusCode: 503}
	assert.Equal(t, "backend unreachable: save bill: status 503", status.Error())
	assert.ErrorIs(t, status, ErrNetwork)
}

func TestTimeoutAndNetworkAreDistinct(t *testing.T) {
	timeout := &TimeoutError{Op: "send email"}
	assert.ErrorIs(t, timeout, ErrTimeout)
	assert.False(t, errors.Is(timeout, ErrNetwork))
}

func TestPermissionError(t *testing.T) {
	err := &PermissionError{Action: "edit", BillID: "B-1"}
	assert.ErrorIs(t, err, ErrPermission)
	assert.Equal(t, "permission denied: edit on bill B-1", err.Error())
}

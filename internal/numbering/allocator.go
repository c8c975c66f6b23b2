// Package numbering allocates advisory invoice numbers of the form "<prefix>-<n>".
package numbering

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"go.uber.org/zap"
)

// Allocation is the outcome of one allocate call.
// Warning is set when the number is the local fallback.
type Allocation struct {
	InvoiceNumber string `json:"invoiceNumber"`
	Sequence      int64  `json:"sequence"`
	Warning       string `json:"warning,omitempty"`
}

// IsFallback reports whether the remote counter could not be used
func (a Allocation) IsFallback() bool {
	return a.Warning != ""
}

// Allocator asks the remote counter for the latest number and proposes the next.
// It is advisory only; the bill store is the final arbiter of uniqueness.
type Allocator struct {
	counter port.InvoiceCounter
	logger  *zap.Logger
}

// NewAllocator creates a new invoice number allocator
func NewAllocator(counter port.InvoiceCounter, logger *zap.Logger) *Allocator {
	return &Allocator{
		counter: counter,
		logger:  logger,
	}
}

// Allocate returns the next number for companyName+prefix. Remote failures
// and malformed replies degrade to "<prefix>-1" with a warning, never an error.
func (a *Allocator) Allocate(ctx context.Context, companyName, prefix string) (Allocation, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return Allocation{}, port.NewValidationError("prefix", "prefix is required")
	}

	latest, err := a.counter.LatestInvoiceNumber(ctx, companyName, prefix)
	if err != nil {
		warning := "invoice counter unavailable, using first number of the series"
		if errors.Is(err, port.ErrNotFound) {
			warning = "no previous invoice number for this series"
		}
		a.logger.Warn("Falling back to first invoice number",
			zap.String("company", companyName),
			zap.String("prefix", prefix),
			zap.Error(err))
		return fallback(prefix, warning), nil
	}

	n, ok := Parse(prefix, latest)
	if !ok {
		a.logger.Warn("Malformed latest invoice number",
			zap.String("company", companyName),
			zap.String("prefix", prefix),
			zap.String("latest", latest))
		return fallback(prefix, fmt.Sprintf("malformed latest invoice number %q", latest)), nil
	}

	next := n + 1
	a.logger.Debug("Allocated invoice number",
		zap.String("company", companyName),
		zap.String("invoice_number", Format(prefix, next)))

	return Allocation{InvoiceNumber: Format(prefix, next), Sequence: next}, nil
}

func fallback(prefix, warning string) Allocation {
	return Allocation{
		InvoiceNumber: Format(prefix, 1),
		Sequence:      1,
		Warning:       warning,
	}
}

// Format renders "<prefix>-<n>"
func Format(prefix string, n int64) string {
	return prefix + "-" + strconv.FormatInt(n, 10)
}

// Parse extracts n from "<prefix>-<n>"; it fails for any other shape
func Parse(prefix, number string) (int64, bool) {
	m := pattern(prefix).FindStringSubmatch(strings.TrimSpace(number))
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func pattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d+)$`)
}

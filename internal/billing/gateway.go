// Package billing owns the draft editing session and the persistence
// gateway that stores a bill under a backend-unique invoice number.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/garyjia/billing-workflow/internal/numbering"
	"go.uber.org/zap"
)

// RetryPolicy bounds re-allocation after a duplicate invoice number.
// Only DuplicateNumberError is retried; transport failures never are.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// DefaultRetryPolicy retries a duplicate number once, immediately
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 1, Backoff: 0}
}

// NumberAllocator proposes invoice numbers
type NumberAllocator interface {
	Allocate(ctx context.Context, companyName, prefix string) (numbering.Allocation, error)
}

// SaveOutcome describes a successful save
type SaveOutcome struct {
	entity.SaveResult
	Attempts int      `json:"attempts"`
	Warnings []string `json:"warnings,omitempty"`
}

// Gateway validates, numbers and stores bills
type Gateway struct {
	store     port.BillStore
	allocator NumberAllocator
	validator *Validator
	policy    RetryPolicy
	logger    *zap.Logger
}

// NewGateway creates a new bill persistence gateway
func NewGateway(store port.BillStore, allocator NumberAllocator, policy RetryPolicy, logger *zap.Logger) *Gateway {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &Gateway{
		store:     store,
		allocator: allocator,
		validator: NewValidator(),
		policy:    policy,
		logger:    logger,
	}
}

// Validate runs the client-side checks Save performs before any network call
func (g *Gateway) Validate(bill *entity.Bill) error {
	return g.validator.ValidateBill(bill)
}

// Save stores a copy of bill. A bill without a number is numbered first; a
// duplicate number is re-allocated up to MaxRetries times, after which the
// duplicate surfaces as a hard error. bill itself is never modified.
func (g *Gateway) Save(ctx context.Context, bill *entity.Bill) (*SaveOutcome, error) {
	if err := g.validator.ValidateBill(bill); err != nil {
		g.logger.Debug("Bill rejected by validation", zap.Error(err))
		return nil, err
	}

	pending := bill.Clone()
	outcome := &SaveOutcome{}

	if pending.InvoiceNumber == "" {
		if err := g.allocate(ctx, pending, outcome); err != nil {
			return nil, err
		}
	}

	for attempt := 0; ; attempt++ {
		outcome.Attempts = attempt + 1

		result, err := g.store.SaveBill(ctx, pending)
		if err == nil {
			outcome.SaveResult = *result
			g.logger.Info("Bill saved",
				zap.String("stored_id", result.StoredID),
				zap.String("invoice_number", result.InvoiceNumber),
				zap.Int("attempts", outcome.Attempts))
			return outcome, nil
		}

		var dup *port.DuplicateNumberError
		if !errors.As(err, &dup) {
			g.logger.Error("Failed to save bill",
				zap.String("invoice_number", pending.InvoiceNumber),
				zap.Error(err))
			return nil, err
		}
		if attempt >= g.policy.MaxRetries {
			g.logger.Error("Invoice number still taken after retry",
				zap.String("invoice_number", pending.InvoiceNumber),
				zap.Int("attempts", outcome.Attempts))
			return nil, fmt.Errorf("failed to save bill after %d attempts: %w", outcome.Attempts, err)
		}

		g.logger.Warn("Duplicate invoice number, re-allocating",
			zap.String("invoice_number", pending.InvoiceNumber),
			zap.Int("attempt", outcome.Attempts))

		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		if err := g.allocate(ctx, pending, outcome); err != nil {
			return nil, err
		}
	}
}

func (g *Gateway) allocate(ctx context.Context, bill *entity.Bill, outcome *SaveOutcome) error {
	alloc, err := g.allocator.Allocate(ctx, bill.Company.Name, bill.Company.Prefix)
	if err != nil {
		return fmt.Errorf("failed to allocate invoice number: %w", err)
	}
	if alloc.IsFallback() {
		outcome.Warnings = append(outcome.Warnings, alloc.Warning)
	}
	bill.InvoiceNumber = alloc.InvoiceNumber
	return nil
}

func (g *Gateway) wait(ctx context.Context) error {
	if g.policy.Backoff <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(g.policy.Backoff)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load fetches a stored bill
func (g *Gateway) Load(ctx context.Context, storedID string) (*entity.Bill, error) {
	bill, err := g.store.GetBill(ctx, storedID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bill %s: %w", storedID, err)
	}
	return bill, nil
}

// Cancel marks a stored bill as cancelled on the backend
func (g *Gateway) Cancel(ctx context.Context, storedID string) error {
	if storedID == "" {
		return ErrNotSaved
	}
	if err := g.store.CancelBill(ctx, storedID); err != nil {
		g.logger.Error("Failed to cancel bill", zap.String("stored_id", storedID), zap.Error(err))
		return fmt.Errorf("failed to cancel bill: %w", err)
	}
	g.logger.Info("Bill cancelled", zap.String("stored_id", storedID))
	return nil
}

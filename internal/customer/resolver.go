// Package customer resolves a typed customer name to a stable customer id,
// creating the customer on the backend when no match exists.
package customer

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/garyjia/billing-workflow/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Resolver finds or creates the customer behind a bill.
// Concurrent calls for the same name share one backend round-trip, so a
// person is created at most once per in-flight resolution.
type Resolver struct {
	directory     port.CustomerDirectory
	defaultRegion string
	group         singleflight.Group
	logger        *zap.Logger
}

// NewResolver creates a new customer resolver; defaultRegion is used to
// normalise phone numbers without a country code (e.g. "IN")
func NewResolver(directory port.CustomerDirectory, defaultRegion string, logger *zap.Logger) *Resolver {
	return &Resolver{
		directory:     directory,
		defaultRegion: defaultRegion,
		logger:        logger,
	}
}

// Resolve returns the customer for name. The first search hit wins and its
// contact replaces hints; with no hit a customer with empty contact is created.
func (r *Resolver) Resolve(ctx context.Context, name string, hints entity.Contact) (*entity.Customer, error) {
	clean := utils.SanitizeString(name)
	if clean == "" {
		return nil, port.NewValidationError("customerName", "customer name is required")
	}

	key := strings.ToLower(clean)
	v, err, shared := r.group.Do(key, func() (interface{}, error) {
		return r.resolve(ctx, clean, hints)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.logger.Debug("Joined in-flight customer resolution", zap.String("name", clean))
	}

	c := *v.(*entity.Customer)
	return &c, nil
}

func (r *Resolver) resolve(ctx context.Context, name string, hints entity.Contact) (*entity.Customer, error) {
	candidates, err := r.search(ctx, name, hints)
	if err != nil {
		return nil, err
	}

	if len(candidates) > 0 {
		match := candidates[0]
		match.Contact = r.normalizeContact(match.Contact)
		r.logger.Info("Resolved existing customer",
			zap.String("name", name),
			zap.String("customer_id", match.ID),
			zap.Int("candidates", len(candidates)))
		return &match, nil
	}

	created, err := r.directory.CreateCustomer(ctx, entity.Customer{Name: name})
	if err != nil {
		r.logger.Error("Failed to create customer", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	if created == nil || created.ID == "" {
		return nil, &port.NetworkError{Op: "create customer", Err: fmt.Errorf("backend returned no customer id")}
	}

	r.logger.Info("Created customer",
		zap.String("name", name),
		zap.String("customer_id", created.ID))
	return created, nil
}

// search queries by name first, then by the phone or email hint
func (r *Resolver) search(ctx context.Context, name string, hints entity.Contact) ([]entity.Customer, error) {
	queries := []string{name}
	if phone, err := utils.NormalizePhone(hints.Phone, r.defaultRegion); err == nil && phone != "" {
		queries = append(queries, phone)
	}
	if email := strings.TrimSpace(hints.Email); email != "" && utils.ValidateEmail(email) == nil {
		queries = append(queries, email)
	}

	for _, q := range queries {
		found, err := r.directory.SearchCustomers(ctx, q)
		if err != nil {
			r.logger.Error("Customer search failed", zap.String("query", q), zap.Error(err))
			return nil, fmt.Errorf("failed to search customers: %w", err)
		}
		if len(found) > 0 {
			return found, nil
		}
	}
	return nil, nil
}

func (r *Resolver) normalizeContact(c entity.Contact) entity.Contact {
	if phone, err := utils.NormalizePhone(c.Phone, r.defaultRegion); err == nil && phone != "" {
		c.Phone = phone
	}
	c.Email = strings.TrimSpace(c.Email)
	return c
}

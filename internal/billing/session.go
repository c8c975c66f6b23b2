package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/garyjia/billing-workflow/internal/domain/workflow"
	"github.com/garyjia/billing-workflow/internal/tax"
	"go.uber.org/zap"
)

// CustomerResolver turns a typed name into a stored customer
type CustomerResolver interface {
	Resolve(ctx context.Context, name string, hints entity.Contact) (*entity.Customer, error)
}

// Notifier receives lifecycle notifications
type Notifier interface {
	Publish(ctx context.Context, n entity.Notification) error
}

// Session is one draft being edited. All mutations recompute the tax
// breakdown; Save works on a snapshot so later edits never leak into a
// request already in flight.
type Session struct {
	id       string
	resolver CustomerResolver
	gateway  *Gateway
	notifier Notifier
	logger   *zap.Logger

	mu        sync.Mutex
	draft     *entity.Bill
	saved     *entity.Bill
	machine   workflow.StateMachine
	saving    bool
	warnings  []string
	updatedAt time.Time
}

// SessionDeps are the collaborators shared by all sessions
type SessionDeps struct {
	Resolver CustomerResolver
	Gateway  *Gateway
	Notifier Notifier
	Logger   *zap.Logger
}

// NewSession starts a draft of kind for company
func NewSession(id string, kind entity.DocumentKind, company entity.Company, deps SessionDeps) *Session {
	draft := &entity.Bill{
		Kind:        kind,
		Date:        time.Now(),
		PaymentMode: entity.PaymentModeCash,
		Company:     company.Snapshot(),
		State:       workflow.StateDraft,
	}
	draft.Tax = tax.Calculate(nil, false)
	return newSession(id, draft, deps)
}

// OpenSession wraps a stored bill, keeping its saved or cancelled state
func OpenSession(id string, bill *entity.Bill, deps SessionDeps) *Session {
	draft := bill.Clone()
	switch {
	case draft.IsCancelled:
		draft.State = workflow.StateCancelled
	case draft.StoredID != "":
		draft.State = workflow.StateSaved
	default:
		draft.State = workflow.StateDraft
	}
	draft.Tax = tax.Calculate(draft.Items, draft.IsOtherState)
	return newSession(id, draft, deps)
}

func newSession(id string, draft *entity.Bill, deps SessionDeps) *Session {
	var saved *entity.Bill
	if draft.StoredID != "" {
		saved = draft.Clone()
	}
	return &Session{
		id:        id,
		resolver:  deps.Resolver,
		gateway:   deps.Gateway,
		notifier:  deps.Notifier,
		logger:    deps.Logger.With(zap.String("session_id", id)),
		draft:     draft,
		saved:     saved,
		machine:   workflow.NewBillMachine(draft.State),
		updatedAt: time.Now(),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the current draft
func (s *Session) Snapshot() *entity.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// State returns the lifecycle state of the draft
func (s *Session) State() workflow.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Warnings returns the non-fatal warnings of the last save
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warnings...)
}

// UpdatedAt reports the last mutation time
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// edit applies fn to the draft under the lock when the draft is editable.
// Edits are refused while a save is in flight so the stored bill and the
// session never diverge.
func (s *Session) edit(action string, fn func(b *entity.Bill) error) (*entity.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saving {
		return nil, ErrSaveInProgress
	}
	if !s.machine.State().IsEditable() {
		return nil, &port.PermissionError{Action: action, BillID: s.draft.StoredID}
	}
	if err := fn(s.draft); err != nil {
		return nil, err
	}
	s.draft.Tax = tax.Calculate(s.draft.Items, s.draft.IsOtherState)
	s.updatedAt = time.Now()
	return s.draft.Clone(), nil
}

// SetCustomer records the typed customer. A changed name drops the
// previously resolved customer id.
func (s *Session) SetCustomer(name string, contact entity.Contact) (*entity.Bill, error) {
	return s.edit("edit customer", func(b *entity.Bill) error {
		if !strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(b.CustomerName)) {
			b.CustomerID = ""
		}
		b.CustomerName = name
		b.Contact = contact
		return nil
	})
}

// SelectCustomer adopts a customer picked from search candidates
func (s *Session) SelectCustomer(c entity.Customer) (*entity.Bill, error) {
	return s.edit("select customer", func(b *entity.Bill) error {
		b.CustomerID = c.ID
		b.CustomerName = c.Name
		b.Contact = c.Contact
		return nil
	})
}

// AddItem appends an item
func (s *Session) AddItem(item entity.LineItem) (*entity.Bill, error) {
	return s.edit("add item", func(b *entity.Bill) error {
		b.Items = append(b.Items, item)
		return nil
	})
}

// UpdateItem replaces the item at index
func (s *Session) UpdateItem(index int, item entity.LineItem) (*entity.Bill, error) {
	return s.edit("update item", func(b *entity.Bill) error {
		if index < 0 || index >= len(b.Items) {
			return fmt.Errorf("%w: %d", ErrItemIndex, index)
		}
		b.Items[index] = item
		return nil
	})
}

// RemoveItem deletes the item at index
func (s *Session) RemoveItem(index int) (*entity.Bill, error) {
	return s.edit("remove item", func(b *entity.Bill) error {
		if index < 0 || index >= len(b.Items) {
			return fmt.Errorf("%w: %d", ErrItemIndex, index)
		}
		b.Items = append(b.Items[:index:index], b.Items[index+1:]...)
		return nil
	})
}

// SetItems replaces all items
func (s *Session) SetItems(items []entity.LineItem) (*entity.Bill, error) {
	return s.edit("edit items", func(b *entity.Bill) error {
		b.Items = append([]entity.LineItem(nil), items...)
		return nil
	})
}

// SetOtherState switches between CGST+SGST and IGST
func (s *Session) SetOtherState(otherState bool) (*entity.Bill, error) {
	return s.edit("edit tax mode", func(b *entity.Bill) error {
		b.IsOtherState = otherState
		return nil
	})
}

// DraftDetails are the free-form header fields of a draft; nil fields are left unchanged
type DraftDetails struct {
	Kind        *entity.DocumentKind
	Date        *time.Time
	PaymentMode *string
	Remarks     *string
}

// SetDetails updates header fields
func (s *Session) SetDetails(d DraftDetails) (*entity.Bill, error) {
	return s.edit("edit details", func(b *entity.Bill) error {
		if d.Kind != nil {
			if !d.Kind.IsValid() {
				return port.NewValidationError("kind", "unknown document kind")
			}
			b.Kind = *d.Kind
		}
		if d.Date != nil {
			b.Date = *d.Date
		}
		if d.PaymentMode != nil {
			b.PaymentMode = *d.PaymentMode
		}
		if d.Remarks != nil {
			b.Remarks = *d.Remarks
		}
		return nil
	})
}

// Save resolves the customer when needed, numbers and stores the draft.
// On failure the draft is left exactly as the user typed it.
func (s *Session) Save(ctx context.Context) (*entity.Bill, error) {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return nil, ErrSaveInProgress
	}
	if !s.machine.State().IsEditable() {
		s.mu.Unlock()
		return nil, &port.PermissionError{Action: "save", BillID: s.draft.StoredID}
	}
	s.saving = true
	form := s.draft.Clone()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.saving = false
		s.mu.Unlock()
	}()

	saved, outcome, err := s.persist(ctx, form)
	if err != nil {
		s.mu.Lock()
		_ = s.machine.Fire(ctx, workflow.TriggerSaveFailed)
		s.mu.Unlock()
		s.logger.Warn("Save failed, draft kept", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	if err := s.machine.Fire(ctx, workflow.TriggerSaveSucceeded); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to mark bill saved: %w", err)
	}
	s.draft.StoredID = saved.StoredID
	s.draft.InvoiceNumber = saved.InvoiceNumber
	s.draft.CustomerID = saved.CustomerID
	s.draft.CustomerName = saved.CustomerName
	s.draft.Contact = saved.Contact
	s.draft.State = s.machine.State()
	s.saved = s.draft.Clone()
	s.warnings = outcome.Warnings
	s.updatedAt = time.Now()
	result := s.draft.Clone()
	s.mu.Unlock()

	s.publish(ctx, entity.Notification{
		Kind:       entity.NotificationBillSaved,
		Title:      fmt.Sprintf("%s %s saved", result.Kind.Title(), result.InvoiceNumber),
		Message:    fmt.Sprintf("%s for %s, total %s", result.InvoiceNumber, result.CustomerName, result.Tax.RoundedTotal.StringFixed(2)),
		BillNumber: result.InvoiceNumber,
	})
	for _, w := range outcome.Warnings {
		s.publish(ctx, entity.Notification{
			Kind:       entity.NotificationNumberFallback,
			Title:      "Invoice number fallback",
			Message:    w,
			BillNumber: result.InvoiceNumber,
		})
	}
	return result, nil
}

// persist runs on the form snapshot without holding the lock
func (s *Session) persist(ctx context.Context, form *entity.Bill) (*entity.Bill, *SaveOutcome, error) {
	if err := s.gateway.Validate(form); err != nil {
		return nil, nil, err
	}

	if form.CustomerID == "" {
		customer, err := s.resolver.Resolve(ctx, form.CustomerName, form.Contact)
		if err != nil {
			return nil, nil, err
		}
		form.CustomerID = customer.ID
		form.CustomerName = customer.Name
		if !customer.Contact.IsEmpty() {
			form.Contact = customer.Contact
		}
	}

	form.State = workflow.StateSaved
	outcome, err := s.gateway.Save(ctx, form)
	if err != nil {
		return nil, nil, err
	}
	form.StoredID = outcome.StoredID
	form.InvoiceNumber = outcome.InvoiceNumber
	return form, outcome, nil
}

// Cancel cancels the stored bill. Cancelled is terminal. A reopened bill
// can be cancelled without re-saving; unsaved edits are dropped and the
// last stored version is kept.
func (s *Session) Cancel(ctx context.Context) (*entity.Bill, error) {
	s.mu.Lock()
	state := s.machine.State()
	if state == workflow.StateDraft && s.saved == nil {
		s.mu.Unlock()
		return nil, ErrNotSaved
	}
	if !s.machine.CanFire(workflow.TriggerCancel) {
		s.mu.Unlock()
		return nil, fmt.Errorf("cannot cancel a %s bill: %w", state, workflow.ErrInvalidTransition)
	}
	if s.saving {
		s.mu.Unlock()
		return nil, ErrSaveInProgress
	}
	storedID := s.draft.StoredID
	s.mu.Unlock()

	if err := s.gateway.Cancel(ctx, storedID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	reopened := s.machine.State() == workflow.StateDraft
	if err := s.machine.Fire(workflow.WithStoredBill(ctx, s.saved != nil), workflow.TriggerCancel); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to mark bill cancelled: %w", err)
	}
	if reopened {
		s.draft = s.saved.Clone()
	}
	s.draft.IsCancelled = true
	s.draft.State = s.machine.State()
	s.updatedAt = time.Now()
	result := s.draft.Clone()
	s.mu.Unlock()

	s.publish(ctx, entity.Notification{
		Kind:       entity.NotificationBillCancelled,
		Title:      fmt.Sprintf("%s %s cancelled", result.Kind.Title(), result.InvoiceNumber),
		Message:    fmt.Sprintf("%s for %s was cancelled", result.InvoiceNumber, result.CustomerName),
		BillNumber: result.InvoiceNumber,
	})
	return result, nil
}

// Reopen returns a saved bill to draft for editing. ctx must carry the
// edit permission (workflow.WithEditPermission); without it a permission
// request is published and *port.PermissionError returned.
func (s *Session) Reopen(ctx context.Context) (*entity.Bill, error) {
	s.mu.Lock()
	err := s.machine.Fire(ctx, workflow.TriggerReopen)
	if err == nil {
		s.draft.State = s.machine.State()
		s.updatedAt = time.Now()
		result := s.draft.Clone()
		s.mu.Unlock()
		s.logger.Info("Bill reopened for editing", zap.String("stored_id", result.StoredID))
		return result, nil
	}
	bill := s.draft.Clone()
	s.mu.Unlock()

	if !errors.Is(err, workflow.ErrGuardFailed) {
		return nil, fmt.Errorf("cannot reopen a %s bill: %w", bill.State, err)
	}

	s.publish(ctx, entity.Notification{
		Kind:       entity.NotificationPermissionRequest,
		Title:      "Edit permission requested",
		Message:    fmt.Sprintf("Permission requested to edit %s %s", bill.Kind.Title(), bill.InvoiceNumber),
		BillNumber: bill.InvoiceNumber,
	})
	return nil, &port.PermissionError{Action: "edit", BillID: bill.StoredID}
}

func (s *Session) publish(ctx context.Context, n entity.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, n); err != nil {
		s.logger.Warn("Failed to publish notification",
			zap.String("kind", n.Kind),
			zap.Error(err))
	}
}

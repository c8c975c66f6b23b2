package workflow

import "context"

type editPermissionKey struct{}

// WithEditPermission marks ctx as carrying (or lacking) the edit permission
// that reopening a saved bill requires
func WithEditPermission(ctx context.Context, granted bool) context.Context {
	return context.WithValue(ctx, editPermissionKey{}, granted)
}

// HasEditPermission reads the permission set by WithEditPermission
func HasEditPermission(ctx context.Context) bool {
	granted, _ := ctx.Value(editPermissionKey{}).(bool)
	return granted
}

type storedBillKey struct{}

// WithStoredBill marks ctx as acting on a bill that already exists in the backend
func WithStoredBill(ctx context.Context, stored bool) context.Context {
	return context.WithValue(ctx, storedBillKey{}, stored)
}

// IsStoredBill reads the flag set by WithStoredBill
func IsStoredBill(ctx context.Context) bool {
	stored, _ := ctx.Value(storedBillKey{}).(bool)
	return stored
}

var billBuilder = newBillBuilder()

func newBillBuilder() StateMachineBuilder {
	b := NewBuilder()

	b.Configure(StateDraft).
		Permit(TriggerSaveSucceeded, StateSaved).
		Permit(TriggerSaveFailed, StateDraft).
		PermitIf(TriggerCancel, StateCancelled, IsStoredBill)

	b.Configure(StateSaved).
		Permit(TriggerCancel, StateCancelled).
		PermitIf(TriggerReopen, StateDraft, HasEditPermission)

	return b
}

// NewBillMachine returns the lifecycle machine of one bill:
// Draft -> Saved -> Cancelled, with guarded reopening of saved bills.
// A reopened draft of a stored bill may be cancelled directly.
func NewBillMachine(initial State) StateMachine {
	if !initial.IsValid() {
		initial = StateDraft
	}
	return billBuilder.Build(initial)
}

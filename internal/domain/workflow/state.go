package workflow

// State represents the lifecycle state of a bill
type State string

const (
	StateDraft     State = "DRAFT"
	StateSaved     State = "SAVED"
	StateCancelled State = "CANCELLED"
)

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return s == StateCancelled
}

// IsEditable returns true if financial fields may still be changed
func (s State) IsEditable() bool {
	return s == StateDraft
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known bill state.
// Package-level builders call it during init, so it must not read package vars.
func (s State) IsValid() bool {
	switch s {
	case StateDraft, StateSaved, StateCancelled:
		return true
	}
	return false
}

package workflow

// Trigger represents an event that can cause a bill state transition
type Trigger string

const (
	TriggerSaveSucceeded Trigger = "SAVE_SUCCEEDED"
	TriggerSaveFailed    Trigger = "SAVE_FAILED"
	TriggerCancel        Trigger = "CANCEL"
	TriggerReopen        Trigger = "REOPEN"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

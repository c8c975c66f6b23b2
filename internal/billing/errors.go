package billing

import "errors"

var (
	// ErrSaveInProgress is returned when Save is invoked while a save of the same draft runs
	ErrSaveInProgress = errors.New("save already in progress")

	// ErrNotSaved is returned for operations that need a stored bill
	ErrNotSaved = errors.New("bill has not been saved")

	// ErrSessionNotFound is returned by the registry for unknown session ids
	ErrSessionNotFound = errors.New("draft session not found")

	// ErrUnknownCompany is returned when a draft names a company that is not configured
	ErrUnknownCompany = errors.New("unknown company")

	// ErrItemIndex is returned for item edits outside the item list
	ErrItemIndex = errors.New("item index out of range")
)

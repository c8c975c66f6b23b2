package entity

import "time"

// Notification is one entry of the local, capped notification history
type Notification struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	BillNumber string    `json:"billNumber,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NotificationHistoryLimit caps the number of entries kept locally
const NotificationHistoryLimit = 20

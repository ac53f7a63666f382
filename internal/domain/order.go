package domain

import "time"

// Status is the closed set of lifecycle states an order moves through.
type Status string

const (
	StatusNew        Status = "New"
	StatusProcessing Status = "Processing"
	StatusReady      Status = "Ready"
	StatusServed     Status = "Served"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusProcessing, StatusReady, StatusServed:
		return true
	}
	return false
}

// Order is the unit of work on the board. The authoritative copy lives in
// the order store; the board keeps a cached copy keyed by ID. Version is
// the store's optimistic-concurrency token: every accepted mutation
// increments it, and every mutation request carries the last known value.
//
// Invariant: OwnerID is non-empty and ClaimedAt is set exactly when
// Status == Processing.
type Order struct {
	ID          string     `json:"id"`
	Number      string     `json:"order_number"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Status      Status     `json:"status"`
	OwnerID     string     `json:"owner_id,omitempty"`
	OwnerName   string     `json:"owner_name,omitempty"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	PrepMinutes *int       `json:"prep_minutes,omitempty"`
	Total       float64    `json:"total"`
	CreatedAt   time.Time  `json:"created_at"`
	Version     int64      `json:"version"`
}

// Claimed reports whether the order is currently held by a staff member.
func (o Order) Claimed() bool { return o.Status == StatusProcessing }

package domain

import (
	"errors"
	"time"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var (
	ErrInvalidUserID = errors.New("user id must be greater than zero")
	ErrInvalidStatus = errors.New("order status is invalid")
)

// Order models the purchase aggregate. Items are only populated on read paths
// that load them explicitly.
type Order struct {
	ID        int64
	UserID    int64
	Status    Status
	Items     []OrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder validates and constructs a new Order aggregate. An empty status defaults to pending.
func NewOrder(id, userID int64, status Status) (*Order, error) {
	order := &Order{ID: id, UserID: userID}
	if status == "" {
		status = StatusPending
	}
	if err := order.UpdateStatus(status); err != nil {
		return nil, err
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate enforces invariants on the aggregate.
func (o *Order) Validate() error {
	if o.UserID <= 0 {
		return ErrInvalidUserID
	}
	if !isValidStatus(o.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// UpdateStatus ensures only known states are accepted. An empty status is rejected
// so an existing order never falls back to pending by accident.
func (o *Order) UpdateStatus(status Status) error {
	if !isValidStatus(status) {
		return ErrInvalidStatus
	}
	o.Status = status
	return nil
}

// AssignUser moves the order to another owning user.
func (o *Order) AssignUser(userID int64) error {
	if userID <= 0 {
		return ErrInvalidUserID
	}
	o.UserID = userID
	return nil
}

// Clone returns a deep copy, items included.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	if o.Items != nil {
		clone.Items = append([]OrderItem(nil), o.Items...)
	}
	return &clone
}

// ParseStatus reports whether raw names a known status.
func ParseStatus(raw string) (Status, bool) {
	status := Status(raw)
	return status, isValidStatus(status)
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

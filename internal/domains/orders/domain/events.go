package domain

import "time"

// Event is the base interface for all order domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	AggregateID() int64
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time `json:"occurred_at"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderCreated is raised after a new order and its items were committed.
type OrderCreated struct {
	BaseEvent
	OrderID   int64   `json:"order_id"`
	UserID    int64   `json:"user_id"`
	Status    Status  `json:"status"`
	Summary   Summary `json:"summary"`
	ItemCount int     `json:"line_count"`
}

func (e OrderCreated) EventName() string  { return "orders.order.created" }
func (e OrderCreated) AggregateID() int64 { return e.OrderID }

// OrderUpdated is raised after an update committed, items reconciled.
type OrderUpdated struct {
	BaseEvent
	OrderID        int64   `json:"order_id"`
	UserID         int64   `json:"user_id"`
	Status         Status  `json:"status"`
	PreviousStatus Status  `json:"previous_status"`
	Summary        Summary `json:"summary"`
}

func (e OrderUpdated) EventName() string  { return "orders.order.updated" }
func (e OrderUpdated) AggregateID() int64 { return e.OrderID }

// OrderDeleted is raised after an order and all of its items were removed.
type OrderDeleted struct {
	BaseEvent
	OrderID int64 `json:"order_id"`
}

func (e OrderDeleted) EventName() string  { return "orders.order.deleted" }
func (e OrderDeleted) AggregateID() int64 { return e.OrderID }

// Package events publishes order lifecycle notifications for downstream
// consumers such as kitchen displays.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeOrderPlaced = "order.placed"
	// status changes are published as order.status.<status>
	typeStatusPrefix = "order.status."
)

// StatusType returns the event type for a status change.
func StatusType(status string) string {
	return typeStatusPrefix + status
}

// OrderEvent is the message body for every order event.
type OrderEvent struct {
	Type       string          `json:"type"`
	OrderID    uint            `json:"order_id"`
	UserID     uint            `json:"user_id"`
	Total      decimal.Decimal `json:"total"`
	OrderType  string          `json:"order_type,omitempty"`
	Status     string          `json:"status"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

// Nop discards events; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []OrderEvent
	Err    error
}

func (r *Recorder) Publish(_ context.Context, ev OrderEvent) error {
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, ev)
	return nil
}

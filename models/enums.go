package models

import "strings"

// OrderType is the fulfillment mode of an order.
type OrderType string

const (
	OrderTypeTable    OrderType = "mesa"
	OrderTypeDelivery OrderType = "delivery"
)

func ParseOrderType(s string) (OrderType, bool) {
	t := OrderType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

func (t OrderType) Valid() bool {
	return t == OrderTypeTable || t == OrderTypeDelivery
}

// Status is the lifecycle state of an order: pending, delivered, paid.
type Status string

const (
	StatusPending   Status = "pendiente"
	StatusDelivered Status = "entregado"
	StatusPaid      Status = "pagado"
)

// Statuses lists the accepted values in lifecycle order.
var Statuses = []Status{StatusPending, StatusDelivered, StatusPaid}

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDelivered, StatusPaid:
		return true
	}
	return false
}

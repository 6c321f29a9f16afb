package orders

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/models"
)

// TableNumber accepts a JSON number or a numeric string. Decoding never
// fails; the raw value is checked when the fulfillment is validated.
type TableNumber struct {
	raw string
	set bool
}

func NewTableNumber(n int) TableNumber {
	return TableNumber{raw: strconv.Itoa(n), set: true}
}

func (t *TableNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = TableNumber{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TableNumber{raw: strings.TrimSpace(s), set: true}
		return nil
	}
	*t = TableNumber{raw: string(data), set: true}
	return nil
}

func (t TableNumber) MarshalJSON() ([]byte, error) {
	if !t.set {
		return []byte("null"), nil
	}
	if n, err := t.Int(); err == nil {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(t.raw)
}

var maxTableNumber = decimal.NewFromInt(math.MaxInt32)

// Int parses the table number as a positive whole number; 5, 5.0 and 1e1
// are all accepted.
func (t TableNumber) Int() (int, error) {
	if !t.set || t.raw == "" {
		return 0, apperr.Invalid("table_number is required for table orders")
	}
	n, err := decimal.NewFromString(t.raw)
	if err != nil || !n.IsInteger() || !n.IsPositive() || n.GreaterThan(maxTableNumber) {
		return 0, apperr.Invalid("invalid table number %q", t.raw)
	}
	return int(n.IntPart()), nil
}

// Fulfillment is how an order reaches the customer.
type Fulfillment struct {
	OrderType       string      `json:"order_type" binding:"omitempty,ordertype"`
	TableNumber     TableNumber `json:"table_number"`
	DeliveryAddress string      `json:"delivery_address"`
	DeliveryPhone   string      `json:"delivery_phone"`
	PaymentMethod   string      `json:"payment_method"`
}

// Info validates f and returns the OrderInfo row it describes. Only the
// fields of the selected order type are populated.
func (f Fulfillment) Info() (models.OrderInfo, error) {
	orderType, ok := models.ParseOrderType(f.OrderType)
	if !ok {
		return models.OrderInfo{}, apperr.Invalid("order_type must be %q or %q", models.OrderTypeTable, models.OrderTypeDelivery)
	}
	info := models.OrderInfo{
		OrderType:     orderType,
		PaymentMethod: optional(strings.ToLower(f.PaymentMethod)),
	}
	switch orderType {
	case models.OrderTypeTable:
		n, err := f.TableNumber.Int()
		if err != nil {
			return models.OrderInfo{}, err
		}
		info.TableNumber = &n
	case models.OrderTypeDelivery:
		address := optional(f.DeliveryAddress)
		if address == nil {
			return models.OrderInfo{}, apperr.Invalid("delivery_address is required for delivery orders")
		}
		info.DeliveryAddress = address
		info.DeliveryPhone = optional(f.DeliveryPhone)
	}
	return info, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

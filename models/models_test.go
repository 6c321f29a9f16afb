package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus("  Pagado ")
	assert.True(t, ok)
	assert.Equal(t, StatusPaid, st)

	_, ok = ParseStatus("cancelled")
	assert.False(t, ok)
}

func TestParseOrderType(t *testing.T) {
	ot, ok := ParseOrderType("MESA")
	assert.True(t, ok)
	assert.Equal(t, OrderTypeTable, ot)

	_, ok = ParseOrderType("takeout")
	assert.False(t, ok)
}

func TestOrderWithoutStatusIsPending(t *testing.T) {
	assert.Equal(t, StatusPending, Order{}.CurrentStatus())
	assert.Equal(t, StatusPaid, Order{Status: &OrderStatus{Status: StatusPaid}}.CurrentStatus())
}

func TestDisplayName(t *testing.T) {
	first, last := "Ana", "Gómez"
	assert.Equal(t, "Ana Gómez", User{Username: "ana", FirstName: &first, LastName: &last}.DisplayName())
	assert.Equal(t, "ana", User{Username: "ana"}.DisplayName())
}

func TestOrderItemSubtotal(t *testing.T) {
	item := OrderItem{Quantity: 3, PriceAtPurchase: decimal.RequireFromString("2.35")}
	assert.True(t, decimal.RequireFromString("7.05").Equal(item.Subtotal()))
}

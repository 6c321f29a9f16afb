package orders

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/models"
)

func decodeFulfillment(t *testing.T, body string) Fulfillment {
	t.Helper()
	var f Fulfillment
	require.NoError(t, json.Unmarshal([]byte(body), &f))
	return f
}

func TestTableNumberAcceptsNumberOrString(t *testing.T) {
	for _, body := range []string{
		`{"order_type":"mesa","table_number":5}`,
		`{"order_type":"MESA","table_number":"5"}`,
		`{"order_type":" mesa ","table_number":" 5 "}`,
		`{"order_type":"mesa","table_number":5.0}`,
		`{"order_type":"mesa","table_number":0.5e1}`,
		`{"order_type":"mesa","table_number":"5.00"}`,
	} {
		info, err := decodeFulfillment(t, body).Info()
		require.NoError(t, err, body)
		assert.Equal(t, models.OrderTypeTable, info.OrderType)
		require.NotNil(t, info.TableNumber)
		assert.Equal(t, 5, *info.TableNumber)
		assert.Nil(t, info.DeliveryAddress)
	}
}

func TestTableNumberRejected(t *testing.T) {
	for _, body := range []string{
		`{"order_type":"mesa"}`,
		`{"order_type":"mesa","table_number":null}`,
		`{"order_type":"mesa","table_number":0}`,
		`{"order_type":"mesa","table_number":-3}`,
		`{"order_type":"mesa","table_number":"abc"}`,
		`{"order_type":"mesa","table_number":2.5}`,
		`{"order_type":"mesa","table_number":1e20}`,
	} {
		_, err := decodeFulfillment(t, body).Info()
		assert.True(t, apperr.Is(err, apperr.KindInvalid), body)
	}
}

func TestDeliveryFulfillment(t *testing.T) {
	info, err := decodeFulfillment(t, `{
		"order_type": "delivery",
		"table_number": 9,
		"delivery_address": " Calle 1 ",
		"delivery_phone": "555",
		"payment_method": " Efectivo "
	}`).Info()
	require.NoError(t, err)
	assert.Equal(t, models.OrderTypeDelivery, info.OrderType)
	assert.Nil(t, info.TableNumber)
	assert.Equal(t, "Calle 1", *info.DeliveryAddress)
	assert.Equal(t, "555", *info.DeliveryPhone)
	assert.Equal(t, "efectivo", *info.PaymentMethod)

	_, err = decodeFulfillment(t, `{"order_type":"delivery","delivery_address":"  "}`).Info()
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
}

func TestTableOrderDropsDeliveryFields(t *testing.T) {
	info, err := decodeFulfillment(t, `{"order_type":"mesa","table_number":2,"delivery_phone":"555","payment_method":""}`).Info()
	require.NoError(t, err)
	assert.Nil(t, info.DeliveryPhone)
	assert.Nil(t, info.PaymentMethod)
}

func TestOrderTypeRequired(t *testing.T) {
	for _, body := range []string{`{}`, `{"order_type":"takeaway"}`} {
		_, err := decodeFulfillment(t, body).Info()
		assert.True(t, apperr.Is(err, apperr.KindInvalid), body)
	}
}

func TestTableNumberMarshal(t *testing.T) {
	out, err := json.Marshal(struct {
		N TableNumber `json:"n"`
	}{NewTableNumber(4)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":4}`, string(out))
}

func TestTableNumberWholeFloatsMarshalAsInts(t *testing.T) {
	var v struct {
		N TableNumber `json:"n"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"n":1e1}`), &v))
	n, err := v.N.Int()
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":10}`, string(out))
}

package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() OrderPlacedPayload {
	return OrderPlacedPayload{
		OrderID:         uuid.New(),
		OrderNumber:     "SD1760000000000",
		StoreName:       "Indiranagar",
		CustomerPhone:   "98450 12345",
		DeliveryType:    "delivery",
		DeliveryAddress: "12 MG Road, Near Metro, Indiranagar, Bangalore - 560038",
		Subtotal:        1650,
		Discount:        165,
		Total:           1485,
		Items: []OrderLine{
			{Name: "Black Forest", Weight: "1kg", Flavor: "Dark Chocolate", Quantity: 2, Total: 1650},
		},
	}
}

func TestOrderConfirmationMessage(t *testing.T) {
	msg := OrderConfirmationMessage(samplePayload())

	assert.Contains(t, msg, "*Order SD1760000000000 confirmed*")
	assert.Contains(t, msg, "• Black Forest (1kg, Dark Chocolate) x 2 - ₹1650.00")
	assert.Contains(t, msg, "Discount: -₹165.00")
	assert.Contains(t, msg, "*Total Amount:* ₹1485.00")
	assert.Contains(t, msg, "*Delivery Address:* 12 MG Road")
}

func TestOrderConfirmationMessageForPickup(t *testing.T) {
	p := samplePayload()
	p.DeliveryType = "pickup"
	p.Discount = 0

	msg := OrderConfirmationMessage(p)
	assert.Contains(t, msg, "Pickup from store")
	assert.NotContains(t, msg, "Delivery Address")
	assert.NotContains(t, msg, "Discount")
}

func TestWhatsAppLink(t *testing.T) {
	link, ok := WhatsAppLink("98450 12345", "Order SD1 & more")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(link, "https://wa.me/919845012345?text="))

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Order SD1 & more", u.Query().Get("text"))

	link, ok = WhatsAppLink("+44 7700 900123", "hi")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(link, "https://wa.me/447700900123?"))

	_, ok = WhatsAppLink("", "hi")
	assert.False(t, ok)
	_, ok = WhatsAppLink("12345", "hi")
	assert.False(t, ok)
}

func TestStatusUpdateMessage(t *testing.T) {
	msg := StatusUpdateMessage(OrderStatusPayload{OrderNumber: "SD42", Status: "ready"})
	assert.Equal(t, "Your order SD42 is now *ready*.", msg)
}

func TestHandleOrderPlaced(t *testing.T) {
	body, err := json.Marshal(samplePayload())
	require.NoError(t, err)

	err = HandleOrderPlaced(context.Background(), asynq.NewTask(TypeOrderPlaced, body))
	assert.NoError(t, err)
}

func TestHandlersSkipRetryOnBadPayload(t *testing.T) {
	for _, h := range []asynq.HandlerFunc{HandleOrderPlaced, HandleOrderStatusChanged} {
		err := h(context.Background(), asynq.NewTask("x", []byte("{not json")))
		require.Error(t, err)
		assert.True(t, errors.Is(err, asynq.SkipRetry))
	}
}

func TestHandleOrderStatusChanged(t *testing.T) {
	body, err := json.Marshal(OrderStatusPayload{OrderID: uuid.New(), OrderNumber: "SD42", PreviousStatus: "pending", Status: "confirmed"})
	require.NoError(t, err)

	assert.NoError(t, HandleOrderStatusChanged(context.Background(), asynq.NewTask(TypeOrderStatusChanged, body)))
}

package jobs

import (
	"context"
	"testing"

	"bakery-storefront/internal/jobs/tasks"
	"bakery-storefront/internal/models"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestNewOrderPlacedPayload(t *testing.T) {
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     "SD1760000000000",
		CustomerPhone:   "9845012345",
		DeliveryType:    models.DeliveryTypeDelivery,
		DeliveryAddress: "12 MG Road",
		SubtotalAmount:  1000,
		DiscountAmount:  100,
		TotalAmount:     900,
		Items: []models.OrderItem{
			{ProductName: "Truffle Cake", Weight: "1kg", FlavorName: "Dark", Quantity: 1, TotalPrice: 1000},
		},
	}

	p := NewOrderPlacedPayload(context.Background(), order, "Indiranagar")

	assert.Equal(t, order.ID, p.OrderID)
	assert.Equal(t, "Indiranagar", p.StoreName)
	assert.Equal(t, "delivery", p.DeliveryType)
	assert.Equal(t, 900.0, p.Total)
	require.Len(t, p.Items, 1)
	assert.Equal(t, tasks.OrderLine{Name: "Truffle Cake", Weight: "1kg", Flavor: "Dark", Quantity: 1, Total: 1000}, p.Items[0])
}

func TestTraceCarrierCarriesParentSpan(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	carrier := traceCarrier(ctx)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", carrier["traceparent"])
}

func TestNewMuxRoutesOrderTasks(t *testing.T) {
	mux := NewMux()

	for _, typ := range []string{tasks.TypeOrderPlaced, tasks.TypeOrderStatusChanged} {
		h, pattern := mux.Handler(asynq.NewTask(typ, nil))
		assert.NotNil(t, h)
		assert.Equal(t, typ, pattern)
	}
}

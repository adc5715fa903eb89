package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bakery-storefront/internal/logging"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	TypeOrderPlaced        = "order:placed"
	TypeOrderStatusChanged = "order:status_changed"
)

type OrderLine struct {
	Name     string  `json:"name"`
	Weight   string  `json:"weight,omitempty"`
	Flavor   string  `json:"flavor,omitempty"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

type OrderPlacedPayload struct {
	OrderID         uuid.UUID         `json:"order_id"`
	OrderNumber     string            `json:"order_number"`
	StoreName       string            `json:"store_name"`
	CustomerPhone   string            `json:"customer_phone"`
	DeliveryType    string            `json:"delivery_type"`
	DeliveryAddress string            `json:"delivery_address,omitempty"`
	Subtotal        float64           `json:"subtotal"`
	Discount        float64           `json:"discount"`
	Total           float64           `json:"total"`
	Items           []OrderLine       `json:"items"`
	TraceContext    map[string]string `json:"trace_context"`
}

type OrderStatusPayload struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	CustomerPhone  string            `json:"customer_phone"`
	PreviousStatus string            `json:"previous_status"`
	Status         string            `json:"status"`
	TraceContext   map[string]string `json:"trace_context"`
}

// startFromPayload continues the trace of the request that enqueued the job.
func startFromPayload(carrier map[string]string, name string) (context.Context, trace.Span) {
	parentCtx := otel.GetTextMapPropagator().Extract(
		context.Background(),
		propagation.MapCarrier(carrier),
	)
	return tracer.Start(parentCtx, name)
}

func HandleOrderPlaced(ctx context.Context, task *asynq.Task) error {
	start := time.Now()

	var payload OrderPlacedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		instruments.record(ctx, TypeOrderPlaced, err, start)
		return fmt.Errorf("decode %s payload: %v: %w", TypeOrderPlaced, err, asynq.SkipRetry)
	}

	ctx, span := startFromPayload(payload.TraceContext, "job.order_placed")
	defer span.End()

	span.SetAttributes(
		attribute.String("order.id", payload.OrderID.String()),
		attribute.String("order.number", payload.OrderNumber),
		attribute.Float64("order.total", payload.Total),
		attribute.String("job.type", TypeOrderPlaced),
	)

	message := OrderConfirmationMessage(payload)
	link, ok := WhatsAppLink(payload.CustomerPhone, message)
	instruments.shareLink(ctx, TypeOrderPlaced, ok)
	if !ok {
		logging.Warn(ctx).
			Str("order_number", payload.OrderNumber).
			Msg("order has no usable customer phone, skipping share link")
	}

	span.SetStatus(codes.Ok, "confirmation prepared")

	logging.Info(ctx).
		Str("order_number", payload.OrderNumber).
		Int("items", len(payload.Items)).
		Float64("total", payload.Total).
		Str("whatsapp_url", link).
		Msg("order confirmation prepared")

	instruments.record(ctx, TypeOrderPlaced, nil, start)
	return nil
}

func HandleOrderStatusChanged(ctx context.Context, task *asynq.Task) error {
	start := time.Now()

	var payload OrderStatusPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		instruments.record(ctx, TypeOrderStatusChanged, err, start)
		return fmt.Errorf("decode %s payload: %v: %w", TypeOrderStatusChanged, err, asynq.SkipRetry)
	}

	ctx, span := startFromPayload(payload.TraceContext, "job.order_status_changed")
	defer span.End()

	span.SetAttributes(
		attribute.String("order.id", payload.OrderID.String()),
		attribute.String("order.status", payload.Status),
		attribute.String("job.type", TypeOrderStatusChanged),
	)

	message := StatusUpdateMessage(payload)
	link, ok := WhatsAppLink(payload.CustomerPhone, message)
	instruments.shareLink(ctx, TypeOrderStatusChanged, ok)

	span.SetStatus(codes.Ok, "status update prepared")

	logging.Info(ctx).
		Str("order_number", payload.OrderNumber).
		Str("from", payload.PreviousStatus).
		Str("to", payload.Status).
		Str("whatsapp_url", link).
		Msg("order status update prepared")

	instruments.record(ctx, TypeOrderStatusChanged, nil, start)
	return nil
}

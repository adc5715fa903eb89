package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bakery-storefront/internal/jobs/tasks"
	"bakery-storefront/internal/logging"
	"bakery-storefront/internal/models"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultQueue       = "default"
	NotificationsQueue = "notifications"
	maxRetry           = 5
)

var (
	tracer       = otel.Tracer("bakery-storefront")
	meter        = otel.Meter("bakery-storefront")
	jobsEnqueued metric.Int64Counter
)

type Client struct {
	client *asynq.Client
}

func NewClient(redisAddr string) (*Client, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})

	var err error
	jobsEnqueued, err = meter.Int64Counter(
		"jobs.enqueued",
		metric.WithDescription("Total number of jobs enqueued"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create jobs enqueued counter")
	}

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func traceCarrier(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier
}

// NewOrderPlacedPayload snapshots what the confirmation message needs so the
// worker never has to read the order back.
func NewOrderPlacedPayload(ctx context.Context, order *models.Order, storeName string) tasks.OrderPlacedPayload {
	items := make([]tasks.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, tasks.OrderLine{
			Name:     item.ProductName,
			Weight:   item.Weight,
			Flavor:   item.FlavorName,
			Quantity: item.Quantity,
			Total:    item.TotalPrice,
		})
	}

	return tasks.OrderPlacedPayload{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		StoreName:       storeName,
		CustomerPhone:   order.CustomerPhone,
		DeliveryType:    string(order.DeliveryType),
		DeliveryAddress: order.DeliveryAddress,
		Subtotal:        order.SubtotalAmount,
		Discount:        order.DiscountAmount,
		Total:           order.TotalAmount,
		Items:           items,
		TraceContext:    traceCarrier(ctx),
	}
}

func (c *Client) EnqueueOrderPlaced(ctx context.Context, order *models.Order, storeName string) error {
	ctx, span := tracer.Start(ctx, "job.enqueue.order_placed")
	defer span.End()

	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.String("order.number", order.OrderNumber),
	)

	payload := NewOrderPlacedPayload(ctx, order, storeName)

	return c.enqueue(ctx, tasks.TypeOrderPlaced, payload, payload.OrderNumber,
		asynq.TaskID("order-placed:"+payload.OrderID.String()),
	)
}

func (c *Client) EnqueueOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	ctx, span := tracer.Start(ctx, "job.enqueue.order_status_changed")
	defer span.End()

	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.String("order.status", string(order.Status)),
	)

	payload := tasks.OrderStatusPayload{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		CustomerPhone:  order.CustomerPhone,
		PreviousStatus: string(previous),
		Status:         string(order.Status),
		TraceContext:   traceCarrier(ctx),
	}

	return c.enqueue(ctx, tasks.TypeOrderStatusChanged, payload, order.OrderNumber)
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload any, orderNumber string, opts ...asynq.Option) error {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("job.type", taskType))

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", taskType, err)
	}

	opts = append([]asynq.Option{
		asynq.Queue(NotificationsQueue),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(30 * time.Second),
	}, opts...)

	info, err := c.client.EnqueueContext(ctx, asynq.NewTask(taskType, payloadBytes), opts...)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}

	if jobsEnqueued != nil {
		jobsEnqueued.Add(ctx, 1, metric.WithAttributes(
			attribute.String("job.type", taskType),
		))
	}

	span.SetAttributes(
		attribute.String("job.id", info.ID),
		attribute.String("job.queue", info.Queue),
	)

	logging.Info(ctx).
		Str("job_id", info.ID).
		Str("job_type", taskType).
		Str("order_number", orderNumber).
		Msg("job enqueued")

	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"

	"bakery-storefront/internal/database"
	"bakery-storefront/internal/logging"
	"bakery-storefront/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid status")
)

type OrderService struct {
	notifier OrderNotifier
}

func NewOrderService(notifier OrderNotifier) *OrderService {
	return &OrderService{notifier: notifier}
}

func withOrderDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Store").Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.created_at ASC")
	})
}

func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	ctx, span := tracer.Start(ctx, "order.list_for_user")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID.String()))

	var orders []models.Order
	if err := withOrderDetails(database.DB.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

// GetForUser returns the order only when it belongs to userID.
func (s *OrderService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "order.get_for_user")
	defer span.End()

	span.SetAttributes(attribute.String("order.id", orderID.String()))

	var order models.Order
	if err := withOrderDetails(database.DB.WithContext(ctx)).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error; err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return &order, nil
}

type OrderFilter struct {
	Status  models.OrderStatus
	StoreID *uuid.UUID
	Page
}

func (s *OrderService) List(ctx context.Context, filter OrderFilter) (*ListResult[models.Order], error) {
	ctx, span := tracer.Start(ctx, "order.list")
	defer span.End()

	page := filter.Page.normalize()

	query := database.DB.WithContext(ctx).Model(&models.Order{})
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
		}
		query = query.Where("status = ?", filter.Status)
		span.SetAttributes(attribute.String("order.status", string(filter.Status)))
	}
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := withOrderDetails(query).
		Order("created_at DESC").
		Limit(page.PerPage).
		Offset(page.offset()).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("orders.total", total))
	return &ListResult[models.Order]{
		Items:      orders,
		TotalCount: total,
		Page:       page.Page,
		PerPage:    page.PerPage,
	}, nil
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "order.get")
	defer span.End()

	span.SetAttributes(attribute.String("order.id", id.String()))

	var order models.Order
	if err := withOrderDetails(database.DB.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return &order, nil
}

// UpdateStatus moves an order to status and queues a customer notification
// when the status actually changed.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "order.update_status")
	defer span.End()

	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	span.SetAttributes(
		attribute.String("order.id", id.String()),
		attribute.String("order.previous_status", string(previous)),
		attribute.String("order.status", string(status)),
	)
	if previous == status {
		return order, nil
	}

	if err := database.DB.WithContext(ctx).Model(order).Update("status", status).Error; err != nil {
		return nil, err
	}
	order.Status = status

	logging.Info(ctx).
		Str("order_number", order.OrderNumber).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("order status changed")

	if s.notifier != nil {
		if err := s.notifier.EnqueueOrderStatusChanged(ctx, order, previous); err != nil {
			logging.Error(ctx).Err(err).Str("order_number", order.OrderNumber).Msg("failed to enqueue status notification")
		}
	}

	return order, nil
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "order.update_payment_status")
	defer span.End()

	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := database.DB.WithContext(ctx).Model(order).Update("payment_status", status).Error; err != nil {
		return nil, err
	}
	order.PaymentStatus = status

	logging.Info(ctx).
		Str("order_number", order.OrderNumber).
		Str("payment_status", string(status)).
		Msg("payment status changed")
	return order, nil
}

type DashboardStats struct {
	Stores        int64   `json:"total_stores"`
	Products      int64   `json:"total_products"`
	Orders        int64   `json:"total_orders"`
	PendingOrders int64   `json:"pending_orders"`
	Revenue       float64 `json:"total_revenue"`
}

// Dashboard summarises the shop. Revenue excludes cancelled orders.
func (s *OrderService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	ctx, span := tracer.Start(ctx, "order.dashboard")
	defer span.End()

	db := database.DB.WithContext(ctx)
	var stats DashboardStats

	if err := db.Model(&models.Store{}).Count(&stats.Stores).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Product{}).Count(&stats.Products).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Count(&stats.Orders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Where("status = ?", models.OrderPending).Count(&stats.PendingOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).
		Where("status <> ?", models.OrderCancelled).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.Revenue).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

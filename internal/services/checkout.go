package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bakery-storefront/internal/database"
	"bakery-storefront/internal/geo"
	"bakery-storefront/internal/logging"
	"bakery-storefront/internal/models"
	"bakery-storefront/internal/pricing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrOutsideDeliveryRadius = errors.New("address is outside the store's delivery radius")
)

const (
	orderNumberPrefix   = "SD"
	orderNumberAttempts = 3
)

var (
	ordersPlaced    metric.Int64Counter
	orderValue      metric.Float64Histogram
	couponsRedeemed metric.Int64Counter
)

// OrderNotifier hands order events to the background worker.
type OrderNotifier interface {
	EnqueueOrderPlaced(ctx context.Context, order *models.Order, storeName string) error
	EnqueueOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error
}

type CheckoutService struct {
	stores      *StoreService
	carts       *CartService
	promotions  *PromotionService
	notifier    OrderNotifier
	defaultCity string
	now         func() time.Time
}

func NewCheckoutService(stores *StoreService, carts *CartService, promotions *PromotionService, notifier OrderNotifier, defaultCity string) *CheckoutService {
	var err error
	ordersPlaced, err = meter.Int64Counter(
		"orders.placed",
		metric.WithDescription("Total number of orders placed"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create orders placed counter")
	}

	orderValue, err = meter.Float64Histogram(
		"orders.value",
		metric.WithDescription("Payable order total"),
		metric.WithUnit("INR"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create order value histogram")
	}

	couponsRedeemed, err = meter.Int64Counter(
		"coupons.redeemed",
		metric.WithDescription("Coupons claimed by placed orders"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create coupons redeemed counter")
	}

	return &CheckoutService{
		stores:      stores,
		carts:       carts,
		promotions:  promotions,
		notifier:    notifier,
		defaultCity: defaultCity,
		now:         time.Now,
	}
}

// cartLines turns cart rows into pricing input. Rows whose product failed to
// load are skipped.
func cartLines(items []models.CartItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		lines = append(lines, pricing.Line{
			Product:  item.Product,
			Flavor:   item.Flavor,
			Weight:   item.Weight,
			Quantity: item.Quantity,
		})
	}
	return lines
}

type QuoteLine struct {
	ProductID   uuid.UUID  `json:"product_id"`
	ProductName string     `json:"product_name"`
	Weight      string     `json:"weight,omitempty"`
	FlavorID    *uuid.UUID `json:"flavor_id,omitempty"`
	FlavorName  string     `json:"flavor_name,omitempty"`
	Quantity    int        `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	TotalPrice  float64    `json:"total_price"`
}

type Quote struct {
	Lines       []QuoteLine `json:"lines"`
	Subtotal    float64     `json:"subtotal"`
	Discount    float64     `json:"discount"`
	Total       float64     `json:"total"`
	CouponCode  string      `json:"coupon_code,omitempty"`
	CouponError string      `json:"coupon_error,omitempty"`

	coupon    *models.Coupon
	couponErr error
}

func newQuote(result pricing.Result) *Quote {
	q := &Quote{
		Lines:    make([]QuoteLine, 0, len(result.Lines)),
		Subtotal: pricing.RoundMoney(result.Subtotal),
		Discount: pricing.RoundMoney(result.Discount),
		Total:    pricing.RoundMoney(result.Total),
	}
	for _, lp := range result.Lines {
		line := QuoteLine{
			ProductID:   lp.Line.Product.ID,
			ProductName: lp.Line.Product.Name,
			Weight:      lp.Line.Weight,
			Quantity:    pricing.Quantity(lp.Line),
			UnitPrice:   pricing.RoundMoney(lp.UnitPrice),
			TotalPrice:  pricing.RoundMoney(lp.Total),
		}
		if lp.Line.Flavor != nil {
			id := lp.Line.Flavor.ID
			line.FlavorID = &id
			line.FlavorName = lp.Line.Flavor.FlavorName
		}
		q.Lines = append(q.Lines, line)
	}
	return q
}

// orderItems snapshots the priced quote lines onto order rows.
func (q *Quote) orderItems() []models.OrderItem {
	items := make([]models.OrderItem, 0, len(q.Lines))
	for _, line := range q.Lines {
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Weight:      line.Weight,
			FlavorID:    line.FlavorID,
			FlavorName:  line.FlavorName,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.TotalPrice,
		})
	}
	return items
}

func orderNumber(now time.Time) string {
	return orderNumberPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// quote prices the user's cart for storeID. A refused coupon is reported on
// the quote rather than as an error.
func (s *CheckoutService) quote(ctx context.Context, userID, storeID uuid.UUID, couponCode string) (*Quote, error) {
	items, err := s.carts.List(ctx, userID, &storeID)
	if err != nil {
		return nil, err
	}
	lines := cartLines(items)

	var coupon *models.Coupon
	var couponErr error
	code := models.NormalizeCouponCode(couponCode)
	if code != "" {
		coupon, err = s.promotions.FindCoupon(ctx, code)
		switch {
		case errors.Is(err, pricing.ErrCouponNotFound):
			couponErr = err
		case err != nil:
			return nil, err
		}
	}

	var result pricing.Result
	if couponErr == nil {
		result, couponErr = pricing.PriceCart(lines, coupon, s.now())
	} else {
		result, _ = pricing.PriceCart(lines, nil, s.now())
	}
	if couponErr != nil {
		coupon = nil
	}
	if code != "" {
		recordCouponCheck(ctx, couponErr)
	}

	q := newQuote(result)
	q.CouponCode = code
	q.coupon = coupon
	q.couponErr = couponErr
	if couponErr != nil {
		q.CouponError = couponErr.Error()
	}
	return q, nil
}

type QuoteInput struct {
	StoreID    uuid.UUID `json:"store_id"`
	CouponCode string    `json:"coupon_code"`
}

func (s *CheckoutService) Quote(ctx context.Context, userID uuid.UUID, input QuoteInput) (*Quote, error) {
	ctx, span := tracer.Start(ctx, "checkout.quote")
	defer span.End()

	if input.StoreID == uuid.Nil {
		return nil, ErrStoreNotSelected
	}

	q, err := s.quote(ctx, userID, input.StoreID, input.CouponCode)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("cart.lines", len(q.Lines)),
		attribute.Float64("order.subtotal", q.Subtotal),
		attribute.Float64("order.discount", q.Discount),
	)
	return q, nil
}

type PlaceOrderInput struct {
	StoreID       uuid.UUID            `json:"store_id"`
	DeliveryType  models.DeliveryType  `json:"delivery_type"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	CouponCode    string               `json:"coupon_code"`
	Notes         string               `json:"notes"`
	Address       ProfileInput         `json:"address"`
}

func (in *PlaceOrderInput) Validate() error {
	if in.StoreID == uuid.Nil {
		return ErrStoreNotSelected
	}
	if in.DeliveryType != models.DeliveryTypeDelivery && in.DeliveryType != models.DeliveryTypePickup {
		return fmt.Errorf("%w: delivery_type must be delivery or pickup", ErrInvalidInput)
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentCOD
	}
	if !in.PaymentMethod.Valid() {
		return fmt.Errorf("%w: payment_method must be cod or online", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Address.Phone) == "" {
		return fmt.Errorf("%w: phone is required", ErrInvalidInput)
	}
	if in.DeliveryType == models.DeliveryTypeDelivery {
		if strings.TrimSpace(in.Address.StreetAddress) == "" || strings.TrimSpace(in.Address.Pincode) == "" {
			return fmt.Errorf("%w: street_address and pincode are required for delivery", ErrInvalidInput)
		}
	}
	return in.Address.Validate()
}

// PlaceOrder prices the cart and, in one transaction, saves the delivery
// profile, writes the order, claims a coupon use and empties the ordered
// cart lines. A coupon whose last use was taken concurrently fails the
// whole order with pricing.ErrUsageLimitReached.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout.place_order")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("store.id", input.StoreID.String()),
		attribute.String("order.delivery_type", string(input.DeliveryType)),
	)

	store, err := s.stores.GetActive(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}
	if !store.Supports(input.DeliveryType) {
		return nil, ErrDeliveryUnavailable
	}

	if input.DeliveryType == models.DeliveryTypeDelivery && input.Address.Latitude != nil {
		origin := geo.Coordinate{Latitude: *input.Address.Latitude, Longitude: *input.Address.Longitude}
		distance, ok := geo.WithinRadius(origin, store)
		span.SetAttributes(attribute.Float64("delivery.distance_km", distance))
		if !ok {
			return nil, ErrOutsideDeliveryRadius
		}
	}

	q, err := s.quote(ctx, userID, store.ID, input.CouponCode)
	if err != nil {
		return nil, err
	}
	if len(q.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if q.couponErr != nil {
		return nil, q.couponErr
	}

	profile := input.Address.toModel(userID, s.defaultCity)
	order := models.Order{
		UserID:         userID,
		StoreID:        store.ID,
		DeliveryType:   input.DeliveryType,
		CustomerPhone:  profile.Phone,
		SubtotalAmount: q.Subtotal,
		DiscountAmount: q.Discount,
		TotalAmount:    q.Total,
		PaymentMethod:  input.PaymentMethod,
		PaymentStatus:  models.PaymentPending,
		Status:         models.OrderPending,
		Notes:          strings.TrimSpace(input.Notes),
	}
	if input.DeliveryType == models.DeliveryTypeDelivery {
		order.DeliveryAddress = profile.DeliveryAddress()
	}
	if q.coupon != nil {
		order.CouponID = &q.coupon.ID
		order.CouponCode = q.coupon.Code
	}

	for attempt := 1; ; attempt++ {
		order.ID = uuid.Nil
		order.OrderNumber = orderNumber(s.now())
		order.Items = q.orderItems()

		err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.persistOrder(tx, &order, &profile, q.coupon)
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == orderNumberAttempts {
			break
		}
		logging.Warn(ctx).Str("order_number", order.OrderNumber).Msg("order number collision, retrying")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order not placed")
		return nil, err
	}

	s.recordOrderPlaced(ctx, &order)

	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.String("order.number", order.OrderNumber),
		attribute.Float64("order.total", order.TotalAmount),
	)

	logging.Info(ctx).
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("store_id", store.ID.String()).
		Float64("total", order.TotalAmount).
		Str("coupon", order.CouponCode).
		Msg("order placed")

	if s.notifier != nil {
		if err := s.notifier.EnqueueOrderPlaced(ctx, &order, store.Name); err != nil {
			logging.Error(ctx).Err(err).Str("order_number", order.OrderNumber).Msg("failed to enqueue order confirmation")
		}
	}

	return &order, nil
}

func (s *CheckoutService) persistOrder(tx *gorm.DB, order *models.Order, profile *models.UserProfile, coupon *models.Coupon) error {
	if err := upsertProfile(tx, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	if err := tx.Omit("Store", "User").Create(order).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	if coupon != nil {
		if err := claimCoupon(tx, coupon.ID); err != nil {
			return err
		}
	}

	productIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	if err := tx.Where("user_id = ? AND product_id IN ?", order.UserID, productIDs).
		Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// claimCoupon takes one use of the coupon if any remain. The limit check and
// the increment are one statement.
func claimCoupon(tx *gorm.DB, couponID uuid.UUID) error {
	result := tx.Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR usage_limit = 0 OR used_count < usage_limit)", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("claim coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return pricing.ErrUsageLimitReached
	}
	return nil
}

func (s *CheckoutService) recordOrderPlaced(ctx context.Context, order *models.Order) {
	attrs := metric.WithAttributes(
		attribute.String("delivery_type", string(order.DeliveryType)),
		attribute.String("payment_method", string(order.PaymentMethod)),
	)
	if ordersPlaced != nil {
		ordersPlaced.Add(ctx, 1, attrs)
	}
	if orderValue != nil {
		orderValue.Record(ctx, order.TotalAmount, attrs)
	}
	if couponsRedeemed != nil && order.CouponID != nil {
		couponsRedeemed.Add(ctx, 1)
	}
}

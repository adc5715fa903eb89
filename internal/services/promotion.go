package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bakery-storefront/internal/database"
	"bakery-storefront/internal/logging"
	"bakery-storefront/internal/models"
	"bakery-storefront/internal/pricing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

var (
	ErrPromotionNotFound = errors.New("promotion not found")
	ErrCouponCodeTaken   = errors.New("coupon code already exists")
	// ErrCouponIDNotFound is the admin lookup by id; code lookups at checkout
	// report pricing.ErrCouponNotFound instead.
	ErrCouponIDNotFound  = errors.New("coupon not found")
)

var couponChecks metric.Int64Counter

type PromotionService struct {
	now func() time.Time
}

func NewPromotionService() *PromotionService {
	var err error
	couponChecks, err = meter.Int64Counter(
		"coupons.checks",
		metric.WithDescription("Coupon applicability checks, by outcome"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create coupon checks counter")
	}

	return &PromotionService{now: time.Now}
}

type PromotionInput struct {
	ProductID          uuid.UUID            `json:"product_id"`
	PromotionType      models.PromotionType `json:"promotion_type"`
	DiscountPercentage float64              `json:"discount_percentage"`
	StartDate          *time.Time           `json:"start_date"`
	EndDate            *time.Time           `json:"end_date"`
	DisplayOrder       int                  `json:"display_order"`
	IsActive           bool                 `json:"is_active"`
	CouponID           *uuid.UUID           `json:"coupon_id"`
}

func (in *PromotionInput) Validate() error {
	if in.ProductID == uuid.Nil {
		return fmt.Errorf("%w: product_id is required", ErrInvalidInput)
	}
	if !in.PromotionType.Valid() {
		return fmt.Errorf("%w: unknown promotion_type %q", ErrInvalidInput, in.PromotionType)
	}
	if in.DiscountPercentage < 0 || in.DiscountPercentage > 100 {
		return fmt.Errorf("%w: discount_percentage must be between 0 and 100", ErrInvalidInput)
	}
	return validateWindow(in.StartDate, in.EndDate)
}

func validateWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: end_date is before start_date", ErrInvalidInput)
	}
	return nil
}

func (in PromotionInput) apply(p *models.Promotion) {
	p.ProductID = in.ProductID
	p.PromotionType = in.PromotionType
	p.DiscountPercentage = in.DiscountPercentage
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
	p.DisplayOrder = in.DisplayOrder
	p.IsActive = in.IsActive
	p.CouponID = in.CouponID
}

func (s *PromotionService) ListPromotions(ctx context.Context) ([]models.Promotion, error) {
	ctx, span := tracer.Start(ctx, "promotion.list")
	defer span.End()

	var promotions []models.Promotion
	if err := database.DB.WithContext(ctx).
		Preload("Product").
		Preload("Coupon").
		Order("promotion_type ASC, display_order ASC").
		Find(&promotions).Error; err != nil {
		return nil, err
	}
	return promotions, nil
}

// ListActivePromotions returns running promotions on active products,
// optionally narrowed to one type.
func (s *PromotionService) ListActivePromotions(ctx context.Context, promotionType models.PromotionType) ([]models.Promotion, error) {
	ctx, span := tracer.Start(ctx, "promotion.list_active")
	defer span.End()

	now := s.now()
	query := database.DB.WithContext(ctx).
		Joins("Product").
		Preload("Coupon").
		Where("promotions.is_active = ? AND \"Product\".is_active = ?", true, true).
		Where("(promotions.start_date IS NULL OR promotions.start_date <= ?)", now).
		Where("(promotions.end_date IS NULL OR promotions.end_date >= ?)", now)

	if promotionType != "" {
		query = query.Where("promotions.promotion_type = ?", promotionType)
		span.SetAttributes(attribute.String("promotion.type", string(promotionType)))
	}

	var promotions []models.Promotion
	if err := query.Order("promotions.display_order ASC").Find(&promotions).Error; err != nil {
		return nil, err
	}
	return promotions, nil
}

func (s *PromotionService) CreatePromotion(ctx context.Context, input PromotionInput) (*models.Promotion, error) {
	ctx, span := tracer.Start(ctx, "promotion.create")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := database.DB.WithContext(ctx).Select("id").First(&models.Product{}, "id = ?", input.ProductID).Error; err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}

	var promotion models.Promotion
	input.apply(&promotion)
	if err := database.DB.WithContext(ctx).Omit("Product", "Coupon").Create(&promotion).Error; err != nil {
		return nil, err
	}

	logging.Info(ctx).
		Str("promotion_id", promotion.ID.String()).
		Str("type", string(promotion.PromotionType)).
		Msg("promotion created")
	return &promotion, nil
}

func (s *PromotionService) UpdatePromotion(ctx context.Context, id uuid.UUID, input PromotionInput) (*models.Promotion, error) {
	ctx, span := tracer.Start(ctx, "promotion.update")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var promotion models.Promotion
	if err := database.DB.WithContext(ctx).First(&promotion, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrPromotionNotFound)
	}

	input.apply(&promotion)
	if err := database.DB.WithContext(ctx).Omit("Product", "Coupon").Save(&promotion).Error; err != nil {
		return nil, err
	}
	return &promotion, nil
}

func (s *PromotionService) DeletePromotion(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "promotion.delete")
	defer span.End()

	return deleteByID(ctx, &models.Promotion{}, id, ErrPromotionNotFound)
}

func (s *PromotionService) TogglePromotion(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "promotion.toggle")
	defer span.End()

	return toggle(ctx, &models.Promotion{}, id, "is_active", ErrPromotionNotFound)
}

type CouponInput struct {
	Code                  string              `json:"code"`
	Name                  string              `json:"name"`
	Description           string              `json:"description"`
	DiscountType          models.DiscountType `json:"discount_type"`
	DiscountValue         float64             `json:"discount_value"`
	MinimumOrderAmount    float64             `json:"minimum_order_amount"`
	MaximumDiscountAmount *float64            `json:"maximum_discount_amount"`
	UsageLimit            *int                `json:"usage_limit"`
	IsActive              bool                `json:"is_active"`
	StartDate             *time.Time          `json:"start_date"`
	EndDate               *time.Time          `json:"end_date"`
}

func (in *CouponInput) Validate() error {
	in.Code = models.NormalizeCouponCode(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" || in.Name == "" {
		return fmt.Errorf("%w: code and name are required", ErrInvalidInput)
	}
	if !in.DiscountType.Valid() {
		return fmt.Errorf("%w: discount_type must be percentage or fixed_amount", ErrInvalidInput)
	}
	if in.DiscountValue < 0 {
		return fmt.Errorf("%w: discount_value cannot be negative", ErrInvalidInput)
	}
	if in.DiscountType == models.DiscountPercentage && in.DiscountValue > 100 {
		return fmt.Errorf("%w: a percentage discount cannot exceed 100", ErrInvalidInput)
	}
	if in.MinimumOrderAmount < 0 {
		return fmt.Errorf("%w: minimum_order_amount cannot be negative", ErrInvalidInput)
	}
	if in.MaximumDiscountAmount != nil && *in.MaximumDiscountAmount < 0 {
		return fmt.Errorf("%w: maximum_discount_amount cannot be negative", ErrInvalidInput)
	}
	if in.UsageLimit != nil && *in.UsageLimit < 0 {
		return fmt.Errorf("%w: usage_limit cannot be negative", ErrInvalidInput)
	}
	return validateWindow(in.StartDate, in.EndDate)
}

func (in CouponInput) apply(c *models.Coupon) {
	c.Code = in.Code
	c.Name = in.Name
	c.Description = in.Description
	c.DiscountType = in.DiscountType
	c.DiscountValue = in.DiscountValue
	c.MinimumOrderAmount = in.MinimumOrderAmount
	c.MaximumDiscountAmount = in.MaximumDiscountAmount
	c.UsageLimit = in.UsageLimit
	c.IsActive = in.IsActive
	c.StartDate = in.StartDate
	c.EndDate = in.EndDate
}

func (s *PromotionService) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	ctx, span := tracer.Start(ctx, "coupon.list")
	defer span.End()

	var coupons []models.Coupon
	if err := database.DB.WithContext(ctx).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

func (s *PromotionService) CreateCoupon(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	ctx, span := tracer.Start(ctx, "coupon.create")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var coupon models.Coupon
	input.apply(&coupon)
	if err := database.DB.WithContext(ctx).Create(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCouponCodeTaken
		}
		return nil, err
	}

	logging.Info(ctx).Str("coupon_id", coupon.ID.String()).Str("code", coupon.Code).Msg("coupon created")
	return &coupon, nil
}

// UpdateCoupon edits the coupon definition; used_count is left alone.
func (s *PromotionService) UpdateCoupon(ctx context.Context, id uuid.UUID, input CouponInput) (*models.Coupon, error) {
	ctx, span := tracer.Start(ctx, "coupon.update")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var coupon models.Coupon
	if err := database.DB.WithContext(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrCouponIDNotFound)
	}

	input.apply(&coupon)
	if err := database.DB.WithContext(ctx).Omit("used_count").Save(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCouponCodeTaken
		}
		return nil, err
	}
	return &coupon, nil
}

func (s *PromotionService) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "coupon.delete")
	defer span.End()

	return deleteByID(ctx, &models.Coupon{}, id, ErrCouponIDNotFound)
}

func (s *PromotionService) ToggleCoupon(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "coupon.toggle")
	defer span.End()

	return toggle(ctx, &models.Coupon{}, id, "is_active", ErrCouponIDNotFound)
}

// FindCoupon looks a coupon up by its case-insensitive code. Inactive
// coupons are returned so the caller can report why they do not apply.
func (s *PromotionService) FindCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	ctx, span := tracer.Start(ctx, "coupon.find")
	defer span.End()

	code = models.NormalizeCouponCode(code)
	span.SetAttributes(attribute.String("coupon.code", code))
	if code == "" {
		return nil, pricing.ErrCouponNotFound
	}

	var coupon models.Coupon
	if err := database.DB.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, notFound(err, pricing.ErrCouponNotFound)
	}
	return &coupon, nil
}

type CouponCheck struct {
	Coupon   *models.Coupon `json:"coupon"`
	Subtotal float64        `json:"subtotal"`
	Discount float64        `json:"discount"`
	Total    float64        `json:"total"`
}

// ValidateCoupon checks code against subtotal without touching the cart.
func (s *PromotionService) ValidateCoupon(ctx context.Context, code string, subtotal float64) (*CouponCheck, error) {
	ctx, span := tracer.Start(ctx, "coupon.validate")
	defer span.End()

	coupon, err := s.FindCoupon(ctx, code)
	if err == nil {
		err = pricing.CheckCoupon(coupon, subtotal, s.now())
	}
	recordCouponCheck(ctx, err)
	if err != nil {
		return nil, err
	}

	discount := pricing.RoundMoney(pricing.Discount(coupon, subtotal))
	return &CouponCheck{
		Coupon:   coupon,
		Subtotal: subtotal,
		Discount: discount,
		Total:    pricing.RoundMoney(subtotal - discount),
	}, nil
}

func recordCouponCheck(ctx context.Context, err error) {
	if couponChecks == nil {
		return
	}
	outcome := "applied"
	if err != nil {
		outcome = "rejected"
		if !pricing.IsCouponError(err) {
			outcome = "error"
		}
	}
	couponChecks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

package pricing

import (
	"fmt"
	"math"
	"time"

	"bakery-storefront/internal/models"
)

// CheckCoupon reports why coupon cannot be applied to subtotal at now, or
// nil when it can. A usage limit of zero and a missing date bound are both
// unbounded.
func CheckCoupon(coupon *models.Coupon, subtotal float64, now time.Time) error {
	if coupon == nil {
		return ErrCouponNotFound
	}
	if !coupon.IsActive {
		return fmt.Errorf("%s: %w", coupon.Code, ErrCouponInactive)
	}
	if subtotal < coupon.MinimumOrderAmount {
		return fmt.Errorf("%s requires a minimum order of %.2f: %w", coupon.Code, coupon.MinimumOrderAmount, ErrBelowMinimumOrder)
	}
	if coupon.UsageLimit != nil && *coupon.UsageLimit > 0 && coupon.UsedCount >= *coupon.UsageLimit {
		return fmt.Errorf("%s: %w", coupon.Code, ErrUsageLimitReached)
	}
	if coupon.StartDate != nil && now.Before(*coupon.StartDate) {
		return fmt.Errorf("%s starts %s: %w", coupon.Code, coupon.StartDate.Format(time.DateOnly), ErrCouponNotYetValid)
	}
	if coupon.EndDate != nil && now.After(*coupon.EndDate) {
		return fmt.Errorf("%s ended %s: %w", coupon.Code, coupon.EndDate.Format(time.DateOnly), ErrCouponExpired)
	}
	return nil
}

// Discount computes the discount coupon grants on subtotal without checking
// applicability. It never exceeds the coupon cap or the subtotal.
func Discount(coupon *models.Coupon, subtotal float64) float64 {
	if coupon == nil || subtotal <= 0 {
		return 0
	}

	var discount float64
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount = subtotal * coupon.DiscountValue / 100
	case models.DiscountFixedAmount:
		discount = coupon.DiscountValue
	}

	if coupon.MaximumDiscountAmount != nil && *coupon.MaximumDiscountAmount > 0 {
		discount = math.Min(discount, *coupon.MaximumDiscountAmount)
	}
	return math.Max(0, math.Min(discount, subtotal))
}

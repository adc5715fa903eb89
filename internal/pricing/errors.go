package pricing

import "errors"

var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponInactive    = errors.New("coupon is not active")
	ErrBelowMinimumOrder = errors.New("order is below the coupon minimum")
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	ErrCouponNotYetValid = errors.New("coupon is not valid yet")
	ErrCouponExpired     = errors.New("coupon has expired")
)

// CouponErrors lists every reason a coupon can be refused.
var CouponErrors = []error{
	ErrCouponNotFound,
	ErrCouponInactive,
	ErrBelowMinimumOrder,
	ErrUsageLimitReached,
	ErrCouponNotYetValid,
	ErrCouponExpired,
}

// IsCouponError reports whether err is one of the coupon refusal reasons.
func IsCouponError(err error) bool {
	for _, target := range CouponErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

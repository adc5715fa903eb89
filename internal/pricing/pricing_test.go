package pricing

import (
	"testing"
	"time"

	"bakery-storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func cake() *models.Product {
	return &models.Product{
		Name:      "Black Forest",
		BasePrice: 500,
		WeightOptions: models.WeightOptions{
			{Weight: "500g", Price: ptr(0.0)},
			{Weight: "1kg", Price: ptr(800.0)},
			{Weight: "2kg"},
		},
	}
}

func TestUnitPrice(t *testing.T) {
	tests := []struct {
		name string
		line Line
		want float64
	}{
		{"base price without weight", Line{Product: cake(), Quantity: 1}, 500},
		{"weight tier overrides base", Line{Product: cake(), Weight: "1kg", Quantity: 1}, 800},
		{"zero priced tier falls back", Line{Product: cake(), Weight: "500g", Quantity: 1}, 500},
		{"label-only tier falls back", Line{Product: cake(), Weight: "2kg", Quantity: 1}, 500},
		{"unknown weight falls back", Line{Product: cake(), Weight: "3kg", Quantity: 1}, 500},
		{"flavor adjusts base", Line{Product: cake(), Flavor: &models.ProductFlavor{PriceAdjustment: 50}}, 550},
		{"flavor adjusts tier", Line{Product: cake(), Weight: "1kg", Flavor: &models.ProductFlavor{PriceAdjustment: -25}}, 775},
		{"missing product", Line{Quantity: 3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnitPrice(tt.line))
		})
	}
}

func TestPriceLines(t *testing.T) {
	lines, subtotal := PriceLines([]Line{
		{Product: cake(), Weight: "1kg", Quantity: 2},
		{Product: cake(), Flavor: &models.ProductFlavor{PriceAdjustment: 100}, Quantity: 1},
		{Product: cake(), Quantity: 0},
	})

	require.Len(t, lines, 3)
	assert.Equal(t, 1600.0, lines[0].Total)
	assert.Equal(t, 600.0, lines[1].Total)
	assert.Equal(t, 500.0, lines[2].Total, "quantity below one is priced as one")
	assert.Equal(t, 2700.0, subtotal)
}

func TestQuantity(t *testing.T) {
	assert.Equal(t, 1, Quantity(Line{Quantity: 0}))
	assert.Equal(t, 1, Quantity(Line{Quantity: -4}))
	assert.Equal(t, 3, Quantity(Line{Quantity: 3}))
}

func TestPriceCartEmpty(t *testing.T) {
	result, err := PriceCart(nil, nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, result.Subtotal)
	assert.Zero(t, result.Discount)
	assert.Zero(t, result.Total)
}

func TestPriceCartCapsPercentageDiscount(t *testing.T) {
	coupon := &models.Coupon{
		Code:                  "HALF",
		DiscountType:          models.DiscountPercentage,
		DiscountValue:         50,
		MaximumDiscountAmount: ptr(100.0),
		IsActive:              true,
	}

	result, err := PriceCart([]Line{{Product: cake(), Quantity: 1}}, coupon, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 500.0, result.Subtotal)
	assert.Equal(t, 100.0, result.Discount)
	assert.Equal(t, 400.0, result.Total)
}

func TestPriceCartBelowMinimumLeavesTotalUntouched(t *testing.T) {
	coupon := &models.Coupon{
		Code:               "BIGSPEND",
		DiscountType:       models.DiscountFixedAmount,
		DiscountValue:      100,
		MinimumOrderAmount: 1000,
		IsActive:           true,
	}

	result, err := PriceCart([]Line{{Product: cake(), Quantity: 1}}, coupon, time.Now())
	require.ErrorIs(t, err, ErrBelowMinimumOrder)
	assert.Equal(t, 500.0, result.Subtotal)
	assert.Zero(t, result.Discount)
	assert.Equal(t, 500.0, result.Total)
}

func TestPriceCartNeverGoesNegative(t *testing.T) {
	coupon := &models.Coupon{
		Code:          "HUGE",
		DiscountType:  models.DiscountFixedAmount,
		DiscountValue: 10000,
		IsActive:      true,
	}
	cookie := &models.Product{BasePrice: 50}

	result, err := PriceCart([]Line{{Product: cookie, Quantity: 1}}, coupon, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Discount)
	assert.Equal(t, 0.0, result.Total)
}

func TestPriceCartIsIdempotent(t *testing.T) {
	lines := []Line{
		{Product: cake(), Weight: "1kg", Quantity: 2},
		{Product: cake(), Flavor: &models.ProductFlavor{PriceAdjustment: 30}, Quantity: 3},
	}
	coupon := &models.Coupon{Code: "TEN", DiscountType: models.DiscountPercentage, DiscountValue: 10, IsActive: true}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first, err1 := PriceCart(lines, coupon, now)
	second, err2 := PriceCart(lines, coupon, now)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
	assert.Equal(t, 0, coupon.UsedCount)
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 10.13, RoundMoney(10.125))
	assert.Equal(t, 0.3, RoundMoney(0.1+0.2))
	assert.Equal(t, 99.99, RoundMoney(99.994))
}

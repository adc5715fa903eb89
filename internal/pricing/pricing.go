// Package pricing computes cart totals from catalog prices and coupons.
// Every function is pure; callers load the inputs and persist the results.
package pricing

import (
	"math"
	"time"

	"bakery-storefront/internal/models"

	"github.com/shopspring/decimal"
)

// Line is one priced cart entry. Flavor is nil when none was chosen.
type Line struct {
	Product  *models.Product
	Flavor   *models.ProductFlavor
	Weight   string
	Quantity int
}

type LinePrice struct {
	Line      Line    `json:"-"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total_price"`
}

type Result struct {
	Lines    []LinePrice `json:"lines"`
	Subtotal float64     `json:"subtotal"`
	Discount float64     `json:"discount"`
	Total    float64     `json:"total"`
}

// UnitPrice resolves the per-unit price: the matching weight tier's price
// when it is positive, otherwise the base price, plus the flavor adjustment.
// An unknown weight label falls back to the base price.
func UnitPrice(line Line) float64 {
	if line.Product == nil {
		return 0
	}

	price := line.Product.BasePrice
	if line.Weight != "" {
		if opt, ok := line.Product.WeightOptions.Find(line.Weight); ok {
			if override, ok := opt.OverridePrice(); ok {
				price = override
			}
		}
	}

	if line.Flavor != nil {
		price += line.Flavor.PriceAdjustment
	}
	return price
}

// Quantity is the count a line is priced at; anything below one counts as one.
func Quantity(line Line) int {
	if line.Quantity < 1 {
		return 1
	}
	return line.Quantity
}

func PriceLines(lines []Line) ([]LinePrice, float64) {
	priced := make([]LinePrice, 0, len(lines))
	var subtotal float64
	for _, line := range lines {
		unit := UnitPrice(line)
		total := unit * float64(Quantity(line))
		priced = append(priced, LinePrice{Line: line, UnitPrice: unit, Total: total})
		subtotal += total
	}
	return priced, subtotal
}

// PriceCart prices every line and applies coupon when it is applicable. A nil
// coupon means none was requested. When the coupon is refused the result is
// still returned undiscounted alongside the reason.
func PriceCart(lines []Line, coupon *models.Coupon, now time.Time) (Result, error) {
	priced, subtotal := PriceLines(lines)
	result := Result{Lines: priced, Subtotal: subtotal, Total: subtotal}

	if coupon == nil {
		return result, nil
	}
	if err := CheckCoupon(coupon, subtotal, now); err != nil {
		return result, err
	}

	result.Discount = Discount(coupon, subtotal)
	result.Total = math.Max(0, subtotal-result.Discount)
	return result, nil
}

// RoundMoney rounds to two decimal places, half away from zero.
func RoundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

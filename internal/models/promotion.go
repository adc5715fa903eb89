package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PromotionType string

const (
	PromotionTopDeal     PromotionType = "top_deal"
	PromotionMostSelling PromotionType = "most_selling"
	PromotionFeatured    PromotionType = "featured"
	PromotionNewArrival  PromotionType = "new_arrival"
	PromotionSeasonal    PromotionType = "seasonal"
)

func (t PromotionType) Valid() bool {
	switch t {
	case PromotionTopDeal, PromotionMostSelling, PromotionFeatured, PromotionNewArrival, PromotionSeasonal:
		return true
	}
	return false
}

type Promotion struct {
	ID                 uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID          uuid.UUID     `gorm:"type:uuid;not null;index" json:"product_id"`
	PromotionType      PromotionType `gorm:"type:varchar(32);not null;index" json:"promotion_type"`
	DiscountPercentage float64       `gorm:"not null;default:0" json:"discount_percentage"`
	StartDate          *time.Time    `json:"start_date,omitempty"`
	EndDate            *time.Time    `json:"end_date,omitempty"`
	DisplayOrder       int           `gorm:"not null;default:0" json:"display_order"`
	IsActive           bool          `gorm:"not null;index" json:"is_active"`
	CouponID           *uuid.UUID    `gorm:"type:uuid" json:"coupon_id,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Coupon  *Coupon  `gorm:"foreignKey:CouponID;constraint:OnDelete:SET NULL" json:"coupon,omitempty"`
}

func (p *Promotion) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

// Coupon codes are stored upper-cased; lookups normalize the same way.
type Coupon struct {
	ID                    uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Code                  string       `gorm:"not null;uniqueIndex" json:"code"`
	Name                  string       `gorm:"not null" json:"name"`
	Description           string       `gorm:"type:text" json:"description,omitempty"`
	DiscountType          DiscountType `gorm:"type:varchar(16);not null" json:"discount_type"`
	DiscountValue         float64      `gorm:"not null" json:"discount_value"`
	MinimumOrderAmount    float64      `gorm:"not null;default:0" json:"minimum_order_amount"`
	MaximumDiscountAmount *float64     `json:"maximum_discount_amount,omitempty"`
	UsageLimit            *int         `json:"usage_limit,omitempty"`
	UsedCount             int          `gorm:"not null;default:0" json:"used_count"`
	IsActive              bool         `gorm:"not null;index" json:"is_active"`
	StartDate             *time.Time   `json:"start_date,omitempty"`
	EndDate               *time.Time   `json:"end_date,omitempty"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Code = NormalizeCouponCode(c.Code)
	return nil
}

func (d DiscountType) Valid() bool {
	return d == DiscountPercentage || d == DiscountFixedAmount
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

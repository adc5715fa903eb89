package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentPaid || s == PaymentFailed
}

type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypePickup   DeliveryType = "pickup"
)

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentOnline
}

type Order struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber     string        `gorm:"not null;uniqueIndex" json:"order_number"`
	UserID          uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	StoreID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"store_id"`
	DeliveryType    DeliveryType  `gorm:"type:varchar(16);not null" json:"delivery_type"`
	DeliveryAddress string        `gorm:"type:text" json:"delivery_address,omitempty"`
	CustomerPhone   string        `json:"customer_phone,omitempty"`
	SubtotalAmount  float64       `gorm:"not null" json:"subtotal_amount"`
	DiscountAmount  float64       `gorm:"not null;default:0" json:"discount_amount"`
	TotalAmount     float64       `gorm:"not null" json:"total_amount"`
	CouponID        *uuid.UUID    `gorm:"type:uuid" json:"coupon_id,omitempty"`
	CouponCode      string        `json:"coupon_code,omitempty"`
	PaymentMethod   PaymentMethod `gorm:"type:varchar(16);not null" json:"payment_method"`
	PaymentStatus   PaymentStatus `gorm:"type:varchar(16);not null;index" json:"payment_status"`
	Status          OrderStatus   `gorm:"type:varchar(16);not null;index" json:"status"`
	Notes           string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Store *Store      `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	User  *User       `gorm:"foreignKey:UserID" json:"-"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem snapshots the product name and priced unit at checkout so later
// catalog edits never change a placed order.
type OrderItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null" json:"product_id"`
	ProductName string     `gorm:"not null" json:"product_name"`
	Quantity    int        `gorm:"not null" json:"quantity"`
	Weight      string     `json:"weight,omitempty"`
	FlavorID    *uuid.UUID `gorm:"type:uuid" json:"flavor_id,omitempty"`
	FlavorName  string     `json:"flavor_name,omitempty"`
	UnitPrice   float64    `gorm:"not null" json:"unit_price"`
	TotalPrice  float64    `gorm:"not null" json:"total_price"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

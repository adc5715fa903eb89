package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one line of a customer's cart. The same product may appear
// more than once with a different weight or flavor.
type CartItem struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null" json:"product_id"`
	Quantity       int        `gorm:"not null" json:"quantity"`
	Weight         string     `json:"weight,omitempty"`
	FlavorID       *uuid.UUID `gorm:"type:uuid" json:"flavor_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Product *Product       `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Flavor  *ProductFlavor `gorm:"foreignKey:FlavorID;constraint:OnDelete:SET NULL" json:"flavor,omitempty"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

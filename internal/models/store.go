package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is a physical fulfillment location. Stores without coordinates
// are never offered by the nearby-store lookup.
type Store struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"not null" json:"name"`
	Mobile          string    `json:"mobile"`
	Email           string    `json:"email"`
	Address         string    `gorm:"type:text" json:"address"`
	DeliveryEnabled bool      `gorm:"not null" json:"delivery_enabled"`
	PickupEnabled   bool      `gorm:"not null" json:"pickup_enabled"`
	DeliveryRadius  float64   `gorm:"not null" json:"delivery_radius"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	IsActive        bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Store) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

func (s *Store) Supports(deliveryType DeliveryType) bool {
	switch deliveryType {
	case DeliveryTypeDelivery:
		return s.DeliveryEnabled
	case DeliveryTypePickup:
		return s.PickupEnabled
	default:
		return false
	}
}

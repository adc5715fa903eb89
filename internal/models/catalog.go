package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	IsActive     bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Subcategories []Subcategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"subcategories,omitempty"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Subcategory struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID   uuid.UUID `gorm:"type:uuid;not null;index" json:"category_id"`
	Name         string    `gorm:"not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	IsActive     bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (s *Subcategory) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Product struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	SubcategoryID uuid.UUID     `gorm:"type:uuid;not null;index" json:"subcategory_id"`
	Name          string        `gorm:"not null" json:"name"`
	Description   string        `gorm:"type:text" json:"description,omitempty"`
	BasePrice     float64       `gorm:"not null" json:"base_price"`
	WeightOptions WeightOptions `gorm:"type:jsonb" json:"weight_options"`
	ImageURLs     []string      `gorm:"serializer:json;type:jsonb" json:"image_urls"`
	IsActive      bool          `gorm:"not null;index" json:"is_active"`
	IsFeatured    bool          `gorm:"not null;index" json:"is_featured"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Subcategory *Subcategory              `gorm:"foreignKey:SubcategoryID" json:"subcategory,omitempty"`
	Flavors     []ProductFlavor           `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"flavors,omitempty"`
	Stores      []ProductStoreFulfillment `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"stores,omitempty"`
	Promotions  []Promotion               `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"promotions,omitempty"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// FindFlavor returns the flavor with the given id from the preloaded flavors.
func (p *Product) FindFlavor(id uuid.UUID) (*ProductFlavor, bool) {
	for i := range p.Flavors {
		if p.Flavors[i].ID == id {
			return &p.Flavors[i], true
		}
	}
	return nil, false
}

type ProductFlavor struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	FlavorName      string    `gorm:"not null" json:"flavor_name"`
	PriceAdjustment float64   `gorm:"not null;default:0" json:"price_adjustment"`
	IsAvailable     bool      `gorm:"not null" json:"is_available"`
	CreatedAt       time.Time `json:"created_at"`
}

func (f *ProductFlavor) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// ProductStoreFulfillment records whether a store can sell a product.
type ProductStoreFulfillment struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_store" json:"product_id"`
	StoreID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_store;index" json:"store_id"`
	IsAvailable   bool      `gorm:"not null" json:"is_available"`
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Store *Store `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"store,omitempty"`
}

func (f *ProductStoreFulfillment) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

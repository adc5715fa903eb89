package database

import (
	"bakery-storefront/internal/models"
)

// Migrate creates or updates every table. Order matters: referenced tables
// come before the tables holding their foreign keys.
func Migrate() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Store{},
		&models.Category{},
		&models.Subcategory{},
		&models.Product{},
		&models.ProductFlavor{},
		&models.ProductStoreFulfillment{},
		&models.Coupon{},
		&models.Promotion{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bakery-storefront/internal/database"
	"bakery-storefront/internal/logging"
	"bakery-storefront/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrProductUnavailable = errors.New("product is not available at this store")
	ErrFlavorUnavailable  = errors.New("flavor is not available for this product")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrStoreNotSelected   = errors.New("select a store first")
)

type CartService struct{}

func NewCartService() *CartService {
	return &CartService{}
}

// List returns the user's cart. With a store, only lines whose product the
// store currently sells are returned.
func (s *CartService) List(ctx context.Context, userID uuid.UUID, storeID *uuid.UUID) ([]models.CartItem, error) {
	ctx, span := tracer.Start(ctx, "cart.list")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID.String()))

	query := database.DB.WithContext(ctx).
		Preload("Product").
		Preload("Flavor").
		Where("cart_items.user_id = ?", userID)

	if storeID != nil {
		span.SetAttributes(attribute.String("store.id", storeID.String()))
		query = query.Where("EXISTS (SELECT 1 FROM product_store_fulfillments psf "+
			"JOIN products p ON p.id = psf.product_id "+
			"WHERE psf.product_id = cart_items.product_id AND psf.store_id = ? "+
			"AND psf.is_available = true AND p.is_active = true)", *storeID)
	}

	var items []models.CartItem
	if err := query.Order("cart_items.created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("cart.lines", len(items)))
	return items, nil
}

type AddToCartInput struct {
	StoreID   uuid.UUID  `json:"store_id"`
	ProductID uuid.UUID  `json:"product_id"`
	FlavorID  *uuid.UUID `json:"flavor_id"`
	Weight    string     `json:"weight"`
	Quantity  int        `json:"quantity"`
}

func (in *AddToCartInput) Validate() error {
	in.Weight = strings.TrimSpace(in.Weight)
	if in.StoreID == uuid.Nil {
		return ErrStoreNotSelected
	}
	if in.ProductID == uuid.Nil {
		return fmt.Errorf("%w: product_id is required", ErrInvalidInput)
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// matchingLine locks the cart row that input would merge into.
func matchingLine(tx *gorm.DB, userID uuid.UUID, input AddToCartInput) *gorm.DB {
	query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND product_id = ? AND weight = ?", userID, input.ProductID, input.Weight)
	if input.FlavorID != nil {
		return query.Where("flavor_id = ?", *input.FlavorID)
	}
	return query.Where("flavor_id IS NULL")
}

// Add puts a product in the cart, merging with an existing line for the
// same product, flavor and weight.
func (s *CartService) Add(ctx context.Context, userID uuid.UUID, input AddToCartInput) (*models.CartItem, error) {
	ctx, span := tracer.Start(ctx, "cart.add")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("product.id", input.ProductID.String()),
		attribute.String("store.id", input.StoreID.String()),
		attribute.Int("cart.quantity", input.Quantity),
	)

	var item models.CartItem
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Preload("Flavors").
			Where("id = ? AND is_active = ?", input.ProductID, true).
			Where(availableAtStore, input.StoreID).
			First(&product).Error; err != nil {
			return notFound(err, ErrProductUnavailable)
		}

		if input.FlavorID != nil {
			flavor, ok := product.FindFlavor(*input.FlavorID)
			if !ok || !flavor.IsAvailable {
				return ErrFlavorUnavailable
			}
		}

		err := matchingLine(tx, userID, input).First(&item).Error
		switch {
		case err == nil:
			item.Quantity += input.Quantity
			return tx.Model(&item).Update("quantity", item.Quantity).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.CartItem{
				UserID:    userID,
				ProductID: input.ProductID,
				FlavorID:  input.FlavorID,
				Weight:    input.Weight,
				Quantity:  input.Quantity,
			}
			return tx.Create(&item).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx).
		Str("user_id", userID.String()).
		Str("product_id", input.ProductID.String()).
		Int("quantity", item.Quantity).
		Msg("cart updated")

	return &item, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	ctx, span := tracer.Start(ctx, "cart.update_quantity")
	defer span.End()

	if quantity < 1 {
		return ErrInvalidQuantity
	}

	result := database.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Update("quantity", quantity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (s *CartService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "cart.remove")
	defer span.End()

	result := database.DB.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "cart.clear")
	defer span.End()

	return database.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

// Count sums line quantities, honouring the same store filter as List.
func (s *CartService) Count(ctx context.Context, userID uuid.UUID, storeID *uuid.UUID) (int, error) {
	items, err := s.List(ctx, userID, storeID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total, nil
}

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
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrSubcategoryNotFound = errors.New("subcategory not found")
	ErrProductNotFound     = errors.New("product not found")
)

const similarProductsLimit = 8

type CatalogService struct{}

func NewCatalogService() *CatalogService {
	return &CatalogService{}
}

// toggle flips a boolean column and reports a missing row as sentinel.
func toggle(ctx context.Context, model interface{}, id uuid.UUID, column string, sentinel error) error {
	result := database.DB.WithContext(ctx).Model(model).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr("NOT "+column))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sentinel
	}
	return nil
}

func deleteByID(ctx context.Context, model interface{}, id uuid.UUID, sentinel error) error {
	result := database.DB.WithContext(ctx).Delete(model, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sentinel
	}
	return nil
}

type CategoryInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

func (in *CategoryInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	ctx, span := tracer.Start(ctx, "category.list")
	defer span.End()

	query := database.DB.WithContext(ctx).Order("display_order ASC, name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var categories []models.Category
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	ctx, span := tracer.Start(ctx, "category.create")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	category := models.Category{
		Name:         input.Name,
		Description:  input.Description,
		ImageURL:     input.ImageURL,
		DisplayOrder: input.DisplayOrder,
		IsActive:     input.IsActive,
	}
	if err := database.DB.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}

	logging.Info(ctx).Str("category_id", category.ID.String()).Msg("category created")
	return &category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error) {
	ctx, span := tracer.Start(ctx, "category.update")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var category models.Category
	if err := database.DB.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrCategoryNotFound)
	}

	category.Name = input.Name
	category.Description = input.Description
	category.ImageURL = input.ImageURL
	category.DisplayOrder = input.DisplayOrder
	category.IsActive = input.IsActive
	if err := database.DB.WithContext(ctx).Save(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "category.delete")
	defer span.End()

	return deleteByID(ctx, &models.Category{}, id, ErrCategoryNotFound)
}

func (s *CatalogService) ToggleCategory(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "category.toggle")
	defer span.End()

	return toggle(ctx, &models.Category{}, id, "is_active", ErrCategoryNotFound)
}

type SubcategoryInput struct {
	CategoryID   uuid.UUID `json:"category_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
}

func (in *SubcategoryInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.CategoryID == uuid.Nil {
		return fmt.Errorf("%w: category_id is required", ErrInvalidInput)
	}
	return nil
}

// ListSubcategories lists every subcategory, or only those of categoryID
// when it is not nil.
func (s *CatalogService) ListSubcategories(ctx context.Context, categoryID *uuid.UUID, activeOnly bool) ([]models.Subcategory, error) {
	ctx, span := tracer.Start(ctx, "subcategory.list")
	defer span.End()

	query := database.DB.WithContext(ctx).Preload("Category").Order("display_order ASC, name ASC")
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
		span.SetAttributes(attribute.String("category.id", categoryID.String()))
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var subcategories []models.Subcategory
	if err := query.Find(&subcategories).Error; err != nil {
		return nil, err
	}
	return subcategories, nil
}

func (s *CatalogService) CreateSubcategory(ctx context.Context, input SubcategoryInput) (*models.Subcategory, error) {
	ctx, span := tracer.Start(ctx, "subcategory.create")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := database.DB.WithContext(ctx).First(&models.Category{}, "id = ?", input.CategoryID).Error; err != nil {
		return nil, notFound(err, ErrCategoryNotFound)
	}

	subcategory := models.Subcategory{
		CategoryID:   input.CategoryID,
		Name:         input.Name,
		Description:  input.Description,
		ImageURL:     input.ImageURL,
		DisplayOrder: input.DisplayOrder,
		IsActive:     input.IsActive,
	}
	if err := database.DB.WithContext(ctx).Create(&subcategory).Error; err != nil {
		return nil, err
	}

	logging.Info(ctx).Str("subcategory_id", subcategory.ID.String()).Msg("subcategory created")
	return &subcategory, nil
}

func (s *CatalogService) UpdateSubcategory(ctx context.Context, id uuid.UUID, input SubcategoryInput) (*models.Subcategory, error) {
	ctx, span := tracer.Start(ctx, "subcategory.update")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var subcategory models.Subcategory
	if err := database.DB.WithContext(ctx).First(&subcategory, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrSubcategoryNotFound)
	}

	subcategory.CategoryID = input.CategoryID
	subcategory.Name = input.Name
	subcategory.Description = input.Description
	subcategory.ImageURL = input.ImageURL
	subcategory.DisplayOrder = input.DisplayOrder
	subcategory.IsActive = input.IsActive
	if err := database.DB.WithContext(ctx).Save(&subcategory).Error; err != nil {
		return nil, err
	}
	return &subcategory, nil
}

func (s *CatalogService) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "subcategory.delete")
	defer span.End()

	return deleteByID(ctx, &models.Subcategory{}, id, ErrSubcategoryNotFound)
}

func (s *CatalogService) ToggleSubcategory(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "subcategory.toggle")
	defer span.End()

	return toggle(ctx, &models.Subcategory{}, id, "is_active", ErrSubcategoryNotFound)
}

type FlavorInput struct {
	FlavorName      string  `json:"flavor_name"`
	PriceAdjustment float64 `json:"price_adjustment"`
	IsAvailable     bool    `json:"is_available"`
}

type FulfillmentInput struct {
	StoreID       uuid.UUID `json:"store_id"`
	IsAvailable   bool      `json:"is_available"`
	StockQuantity int       `json:"stock_quantity"`
}

type ProductInput struct {
	SubcategoryID uuid.UUID            `json:"subcategory_id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	BasePrice     float64              `json:"base_price"`
	WeightOptions models.WeightOptions `json:"weight_options"`
	ImageURLs     []string             `json:"image_urls"`
	IsActive      bool                 `json:"is_active"`
	IsFeatured    bool                 `json:"is_featured"`
	Flavors       []FlavorInput        `json:"flavors"`
	Stores        []FulfillmentInput   `json:"stores"`
}

func (in *ProductInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.SubcategoryID == uuid.Nil {
		return fmt.Errorf("%w: subcategory_id is required", ErrInvalidInput)
	}
	if in.BasePrice < 0 {
		return fmt.Errorf("%w: base_price cannot be negative", ErrInvalidInput)
	}

	seen := make(map[string]bool, len(in.WeightOptions))
	for i, opt := range in.WeightOptions {
		label := strings.TrimSpace(opt.Weight)
		if label == "" {
			return fmt.Errorf("%w: weight option %d has no label", ErrInvalidInput, i+1)
		}
		if seen[label] {
			return fmt.Errorf("%w: weight option %q is listed twice", ErrInvalidInput, label)
		}
		if opt.Price != nil && *opt.Price < 0 {
			return fmt.Errorf("%w: weight option %q has a negative price", ErrInvalidInput, label)
		}
		seen[label] = true
		in.WeightOptions[i].Weight = label
	}

	for i, f := range in.Flavors {
		if strings.TrimSpace(f.FlavorName) == "" {
			return fmt.Errorf("%w: flavor %d has no name", ErrInvalidInput, i+1)
		}
	}

	stores := make(map[uuid.UUID]bool, len(in.Stores))
	for _, f := range in.Stores {
		if f.StoreID == uuid.Nil || stores[f.StoreID] {
			return fmt.Errorf("%w: each store may be listed once", ErrInvalidInput)
		}
		if f.StockQuantity < 0 {
			return fmt.Errorf("%w: stock_quantity cannot be negative", ErrInvalidInput)
		}
		stores[f.StoreID] = true
	}
	return nil
}

func (in ProductInput) apply(p *models.Product) {
	p.SubcategoryID = in.SubcategoryID
	p.Name = in.Name
	p.Description = in.Description
	p.BasePrice = in.BasePrice
	p.WeightOptions = in.WeightOptions
	if p.WeightOptions == nil {
		p.WeightOptions = models.WeightOptions{}
	}
	p.ImageURLs = in.ImageURLs
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	p.IsActive = in.IsActive
	p.IsFeatured = in.IsFeatured
}

func (in ProductInput) children(productID uuid.UUID) ([]models.ProductFlavor, []models.ProductStoreFulfillment) {
	flavors := make([]models.ProductFlavor, 0, len(in.Flavors))
	for _, f := range in.Flavors {
		flavors = append(flavors, models.ProductFlavor{
			ProductID:       productID,
			FlavorName:      strings.TrimSpace(f.FlavorName),
			PriceAdjustment: f.PriceAdjustment,
			IsAvailable:     f.IsAvailable,
		})
	}

	stores := make([]models.ProductStoreFulfillment, 0, len(in.Stores))
	for _, f := range in.Stores {
		stores = append(stores, models.ProductStoreFulfillment{
			ProductID:     productID,
			StoreID:       f.StoreID,
			IsAvailable:   f.IsAvailable,
			StockQuantity: f.StockQuantity,
		})
	}
	return flavors, stores
}

type ProductFilter struct {
	StoreID       *uuid.UUID
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	PromotionType models.PromotionType
	FeaturedOnly  bool
	ActiveOnly    bool
	Search        string
	Page
}

const availableAtStore = "EXISTS (SELECT 1 FROM product_store_fulfillments psf " +
	"WHERE psf.product_id = products.id AND psf.store_id = ? AND psf.is_available = true)"

func (s *CatalogService) ListProducts(ctx context.Context, filter ProductFilter) (*ListResult[models.Product], error) {
	ctx, span := tracer.Start(ctx, "product.list")
	defer span.End()

	filter.Page = filter.Page.normalize()
	span.SetAttributes(
		attribute.Int("pagination.page", filter.Page.Page),
		attribute.Int("pagination.per_page", filter.PerPage),
	)

	query := database.DB.WithContext(ctx).Model(&models.Product{})

	if filter.ActiveOnly {
		query = query.Where("products.is_active = ?", true)
	}
	if filter.FeaturedOnly {
		query = query.Where("products.is_featured = ?", true)
	}
	if filter.SubcategoryID != nil {
		query = query.Where("products.subcategory_id = ?", *filter.SubcategoryID)
	}
	if filter.CategoryID != nil {
		query = query.Where("products.subcategory_id IN (?)",
			database.DB.Model(&models.Subcategory{}).Select("id").Where("category_id = ?", *filter.CategoryID))
	}
	if filter.StoreID != nil {
		query = query.Where(availableAtStore, *filter.StoreID)
		span.SetAttributes(attribute.String("store.id", filter.StoreID.String()))
	}
	if filter.PromotionType != "" {
		query = query.Where("EXISTS (SELECT 1 FROM promotions pr WHERE pr.product_id = products.id "+
			"AND pr.promotion_type = ? AND pr.is_active = true "+
			"AND (pr.start_date IS NULL OR pr.start_date <= NOW()) "+
			"AND (pr.end_date IS NULL OR pr.end_date >= NOW()))", filter.PromotionType)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		term := "%" + search + "%"
		query = query.Where("(products.name ILIKE ? OR products.description ILIKE ?)", term, term)
		span.SetAttributes(attribute.String("search.term", search))
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, err
	}

	var products []models.Product
	if err := query.
		Preload("Subcategory").
		Preload("Flavors", "is_available = ?", true).
		Order("products.is_featured DESC, products.created_at DESC").
		Offset(filter.offset()).
		Limit(filter.PerPage).
		Find(&products).Error; err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("result.total_count", totalCount),
		attribute.Int("result.count", len(products)),
	)

	return &ListResult[models.Product]{
		Items:      products,
		TotalCount: totalCount,
		Page:       filter.Page.Page,
		PerPage:    filter.PerPage,
	}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	ctx, span := tracer.Start(ctx, "product.get")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	var product models.Product
	if err := database.DB.WithContext(ctx).
		Preload("Subcategory.Category").
		Preload("Flavors").
		Preload("Stores.Store").
		First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return &product, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	ctx, span := tracer.Start(ctx, "product.create")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var product models.Product
	input.apply(&product)

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Subcategory{}, "id = ?", input.SubcategoryID).Error; err != nil {
			return notFound(err, ErrSubcategoryNotFound)
		}
		if err := tx.Omit("Flavors", "Stores", "Promotions", "Subcategory").Create(&product).Error; err != nil {
			return err
		}
		return replaceProductChildren(tx, product.ID, input)
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx).
		Str("product_id", product.ID.String()).
		Str("name", product.Name).
		Int("flavors", len(input.Flavors)).
		Int("stores", len(input.Stores)).
		Msg("product created")

	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct rewrites the product and replaces its flavors and store
// fulfillment rows in one transaction.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error) {
	ctx, span := tracer.Start(ctx, "product.update")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			return notFound(err, ErrProductNotFound)
		}
		if err := tx.First(&models.Subcategory{}, "id = ?", input.SubcategoryID).Error; err != nil {
			return notFound(err, ErrSubcategoryNotFound)
		}

		input.apply(&product)
		if err := tx.Omit("Flavors", "Stores", "Promotions", "Subcategory").Save(&product).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductFlavor{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductStoreFulfillment{}).Error; err != nil {
			return err
		}
		return replaceProductChildren(tx, id, input)
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx).Str("product_id", id.String()).Msg("product updated")
	return s.GetProduct(ctx, id)
}

func replaceProductChildren(tx *gorm.DB, productID uuid.UUID, input ProductInput) error {
	flavors, stores := input.children(productID)
	if len(flavors) > 0 {
		if err := tx.Create(&flavors).Error; err != nil {
			return err
		}
	}
	if len(stores) > 0 {
		if err := tx.Create(&stores).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "product.delete")
	defer span.End()

	if err := deleteByID(ctx, &models.Product{}, id, ErrProductNotFound); err != nil {
		return err
	}
	logging.Info(ctx).Str("product_id", id.String()).Msg("product deleted")
	return nil
}

func (s *CatalogService) ToggleProductActive(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "product.toggle_active")
	defer span.End()

	return toggle(ctx, &models.Product{}, id, "is_active", ErrProductNotFound)
}

func (s *CatalogService) ToggleProductFeatured(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "product.toggle_featured")
	defer span.End()

	return toggle(ctx, &models.Product{}, id, "is_featured", ErrProductNotFound)
}

// SimilarProducts returns other active products from the same subcategory.
func (s *CatalogService) SimilarProducts(ctx context.Context, id uuid.UUID) ([]models.Product, error) {
	ctx, span := tracer.Start(ctx, "product.similar")
	defer span.End()

	var product models.Product
	if err := database.DB.WithContext(ctx).Select("id", "subcategory_id").First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}

	var similar []models.Product
	if err := database.DB.WithContext(ctx).
		Where("subcategory_id = ? AND id <> ? AND is_active = ?", product.SubcategoryID, id, true).
		Order("is_featured DESC, created_at DESC").
		Limit(similarProductsLimit).
		Find(&similar).Error; err != nil {
		return nil, err
	}
	return similar, nil
}

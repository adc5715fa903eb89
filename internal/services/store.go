package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bakery-storefront/internal/database"
	"bakery-storefront/internal/geo"
	"bakery-storefront/internal/logging"
	"bakery-storefront/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrStoreNotFound       = errors.New("store not found")
	ErrDeliveryUnavailable = errors.New("store does not offer this delivery type")
)

var nearbyLookups metric.Int64Counter

type StoreService struct{}

func NewStoreService() *StoreService {
	var err error
	nearbyLookups, err = meter.Int64Counter(
		"stores.nearby.lookups",
		metric.WithDescription("Nearby store lookups, by whether any store covered the location"),
	)
	if err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create nearby lookups counter")
	}

	return &StoreService{}
}

type StoreInput struct {
	Name            string   `json:"name"`
	Mobile          string   `json:"mobile"`
	Email           string   `json:"email"`
	Address         string   `json:"address"`
	DeliveryEnabled bool     `json:"delivery_enabled"`
	PickupEnabled   bool     `json:"pickup_enabled"`
	DeliveryRadius  float64  `json:"delivery_radius"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	IsActive        bool     `json:"is_active"`
}

func (in *StoreInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.DeliveryRadius <= 0 {
		return fmt.Errorf("%w: delivery_radius must be greater than zero", ErrInvalidInput)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be given together", ErrInvalidInput)
	}
	if in.Latitude != nil && !(geo.Coordinate{Latitude: *in.Latitude, Longitude: *in.Longitude}).Valid() {
		return fmt.Errorf("%w: coordinates are out of range", ErrInvalidInput)
	}
	if !in.DeliveryEnabled && !in.PickupEnabled {
		return fmt.Errorf("%w: enable delivery or pickup", ErrInvalidInput)
	}
	return nil
}

func (in StoreInput) apply(store *models.Store) {
	store.Name = in.Name
	store.Mobile = strings.TrimSpace(in.Mobile)
	store.Email = strings.TrimSpace(in.Email)
	store.Address = strings.TrimSpace(in.Address)
	store.DeliveryEnabled = in.DeliveryEnabled
	store.PickupEnabled = in.PickupEnabled
	store.DeliveryRadius = in.DeliveryRadius
	store.Latitude = in.Latitude
	store.Longitude = in.Longitude
	store.IsActive = in.IsActive
}

func (s *StoreService) List(ctx context.Context, activeOnly bool) ([]models.Store, error) {
	ctx, span := tracer.Start(ctx, "store.list")
	defer span.End()

	query := database.DB.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var stores []models.Store
	if err := query.Find(&stores).Error; err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(stores)))
	return stores, nil
}

func (s *StoreService) Get(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	ctx, span := tracer.Start(ctx, "store.get")
	defer span.End()

	span.SetAttributes(attribute.String("store.id", id.String()))

	var store models.Store
	if err := database.DB.WithContext(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrStoreNotFound)
	}
	return &store, nil
}

// GetActive is Get restricted to stores that currently take orders.
func (s *StoreService) GetActive(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !store.IsActive {
		return nil, ErrStoreNotFound
	}
	return store, nil
}

func (s *StoreService) Create(ctx context.Context, input StoreInput) (*models.Store, error) {
	ctx, span := tracer.Start(ctx, "store.create")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var store models.Store
	input.apply(&store)
	if err := database.DB.WithContext(ctx).Create(&store).Error; err != nil {
		return nil, err
	}

	logging.Info(ctx).Str("store_id", store.ID.String()).Str("name", store.Name).Msg("store created")
	return &store, nil
}

func (s *StoreService) Update(ctx context.Context, id uuid.UUID, input StoreInput) (*models.Store, error) {
	ctx, span := tracer.Start(ctx, "store.update")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	store, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	input.apply(store)
	if err := database.DB.WithContext(ctx).Save(store).Error; err != nil {
		return nil, err
	}

	logging.Info(ctx).Str("store_id", store.ID.String()).Msg("store updated")
	return store, nil
}

func (s *StoreService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "store.delete")
	defer span.End()

	result := database.DB.WithContext(ctx).Delete(&models.Store{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStoreNotFound
	}

	logging.Info(ctx).Str("store_id", id.String()).Msg("store deleted")
	return nil
}

// Nearby returns the active stores that deliver to origin, nearest first.
func (s *StoreService) Nearby(ctx context.Context, origin geo.Coordinate) ([]geo.RankedStore, error) {
	ctx, span := tracer.Start(ctx, "store.nearby")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("geo.latitude", origin.Latitude),
		attribute.Float64("geo.longitude", origin.Longitude),
	)

	var stores []models.Store
	if err := database.DB.WithContext(ctx).
		Where("is_active = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", true).
		Find(&stores).Error; err != nil {
		return nil, err
	}

	ranked := geo.ResolveNearbyStores(origin, stores)

	span.SetAttributes(
		attribute.Int("stores.considered", len(stores)),
		attribute.Int("stores.in_range", len(ranked)),
	)
	if nearbyLookups != nil {
		nearbyLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("found", len(ranked) > 0)))
	}

	return ranked, nil
}

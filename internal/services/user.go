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
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserService struct {
	defaultCity string
}

func NewUserService(defaultCity string) *UserService {
	return &UserService{defaultCity: defaultCity}
}

func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "user.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID.String()))

	var user models.User
	if err := database.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	return &user, nil
}

// GetProfile returns the saved delivery profile, or an empty one in the
// default city when the user has never checked out.
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "user.get_profile")
	defer span.End()

	var profile models.UserProfile
	err := database.DB.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserProfile{UserID: userID, City: s.defaultCity}, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type ProfileInput struct {
	FullName      string   `json:"full_name"`
	Phone         string   `json:"phone"`
	StreetAddress string   `json:"street_address"`
	Landmark      string   `json:"landmark"`
	Area          string   `json:"area"`
	City          string   `json:"city"`
	Pincode       string   `json:"pincode"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

func (in *ProfileInput) Validate() error {
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be given together", ErrInvalidInput)
	}
	if in.Latitude != nil && !(geo.Coordinate{Latitude: *in.Latitude, Longitude: *in.Longitude}).Valid() {
		return fmt.Errorf("%w: coordinates are out of range", ErrInvalidInput)
	}
	return nil
}

func (in ProfileInput) toModel(userID uuid.UUID, defaultCity string) models.UserProfile {
	city := strings.TrimSpace(in.City)
	if city == "" {
		city = defaultCity
	}
	return models.UserProfile{
		UserID:        userID,
		FullName:      strings.TrimSpace(in.FullName),
		Phone:         strings.TrimSpace(in.Phone),
		StreetAddress: strings.TrimSpace(in.StreetAddress),
		Landmark:      strings.TrimSpace(in.Landmark),
		Area:          strings.TrimSpace(in.Area),
		City:          city,
		Pincode:       strings.TrimSpace(in.Pincode),
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
	}
}

func (s *UserService) UpsertProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*models.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "user.upsert_profile")
	defer span.End()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	profile := input.toModel(userID, s.defaultCity)
	if err := upsertProfile(database.DB.WithContext(ctx), &profile); err != nil {
		return nil, err
	}

	logging.Info(ctx).Str("user_id", userID.String()).Msg("profile saved")
	return &profile, nil
}

func upsertProfile(db *gorm.DB, profile *models.UserProfile) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"full_name", "phone", "street_address", "landmark", "area",
			"city", "pincode", "latitude", "longitude", "updated_at",
		}),
	}).Create(profile).Error
}

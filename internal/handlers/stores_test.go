package handlers

import (
	"context"
	"net/http"
	"testing"

	"bakery-storefront/internal/database"
	"bakery-storefront/internal/middleware"
	"bakery-storefront/internal/models"
	"bakery-storefront/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubProfiles struct {
	profile *models.UserProfile
	asked   []uuid.UUID
}

func (s *stubProfiles) GetProfile(_ context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	s.asked = append(s.asked, userID)
	return s.profile, nil
}

func nearbyServer(storeService *services.StoreService, profiles ProfileReader) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	h := NewStoreHandler(storeService, profiles)
	e.GET("/api/stores/nearby", h.Nearby, middleware.OptionalJWTAuth(testSecret))
	return e
}

func TestNearbyWithoutCoordinatesNeedsSavedLocation(t *testing.T) {
	tests := []struct {
		name      string
		auth      string
		wantAsked int
	}{
		{"anonymous", "", 0},
		{"bad token is anonymous", "Bearer junk", 0},
		{"signed in without saved location", "customer", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := &stubProfiles{profile: &models.UserProfile{City: "Bangalore"}}
			e := nearbyServer(nil, profiles)

			auth := tt.auth
			if auth == "customer" {
				auth = bearer(t, models.RoleCustomer)
			}
			rec, resp := serve(t, e, http.MethodGet, "/api/stores/nearby", "", auth)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "lat and lng are required numbers", resp.Error)
			assert.Len(t, profiles.asked, tt.wantAsked)
		})
	}
}

func TestNearbyUsesSavedLocationForSignedInShopper(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=bakery dbname=bakery sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	lat, lng := 12.9716, 77.5946
	profiles := &stubProfiles{profile: &models.UserProfile{Latitude: &lat, Longitude: &lng}}
	e := nearbyServer(services.NewStoreService(), profiles)

	rec, _ := serve(t, e, http.MethodGet, "/api/stores/nearby", "", bearer(t, models.RoleCustomer))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, profiles.asked, 1)
	assert.NotEqual(t, uuid.Nil, profiles.asked[0])

	rec, _ = serve(t, e, http.MethodGet, "/api/stores/nearby?lat=12.9&lng=77.6", "", bearer(t, models.RoleCustomer))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, profiles.asked, 1, "explicit coordinates win over the saved location")
}

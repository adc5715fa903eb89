package handlers

import (
	"context"
	"net/http"
	"strconv"

	"bakery-storefront/internal/geo"
	"bakery-storefront/internal/middleware"
	"bakery-storefront/internal/models"
	"bakery-storefront/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ProfileReader supplies the delivery location a shopper saved at checkout.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
}

type StoreHandler struct {
	storeService *services.StoreService
	profiles     ProfileReader
}

func NewStoreHandler(storeService *services.StoreService, profiles ProfileReader) *StoreHandler {
	return &StoreHandler{storeService: storeService, profiles: profiles}
}

func parseCoordinate(c echo.Context) (geo.Coordinate, error) {
	lat, latErr := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if latErr != nil || lngErr != nil {
		return geo.Coordinate{}, echo.NewHTTPError(http.StatusBadRequest, "lat and lng are required numbers")
	}

	origin := geo.Coordinate{Latitude: lat, Longitude: lng}
	if !origin.Valid() {
		return geo.Coordinate{}, echo.NewHTTPError(http.StatusBadRequest, "lat or lng is out of range")
	}
	return origin, nil
}

// savedOrigin returns the signed-in shopper's saved coordinates, if any.
func (h *StoreHandler) savedOrigin(c echo.Context) (geo.Coordinate, bool, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok || h.profiles == nil {
		return geo.Coordinate{}, false, nil
	}

	profile, err := h.profiles.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return geo.Coordinate{}, false, toHTTPError(err, "failed to load saved location")
	}
	if profile.Latitude == nil || profile.Longitude == nil {
		return geo.Coordinate{}, false, nil
	}

	origin := geo.Coordinate{Latitude: *profile.Latitude, Longitude: *profile.Longitude}
	return origin, origin.Valid(), nil
}

// Nearby lists active stores whose delivery radius covers the location,
// closest first. An empty list means no store serves the area. Signed-in
// shoppers may omit lat and lng to search around their saved address.
func (h *StoreHandler) Nearby(c echo.Context) error {
	if c.QueryParam("lat") == "" && c.QueryParam("lng") == "" {
		origin, ok, err := h.savedOrigin(c)
		if err != nil {
			return err
		}
		if ok {
			return h.nearby(c, origin)
		}
	}

	origin, err := parseCoordinate(c)
	if err != nil {
		return err
	}
	return h.nearby(c, origin)
}

func (h *StoreHandler) nearby(c echo.Context, origin geo.Coordinate) error {
	stores, err := h.storeService.Nearby(c.Request().Context(), origin)
	if err != nil {
		return toHTTPError(err, "failed to find nearby stores")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"stores": stores,
	})
}

func (h *StoreHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	store, err := h.storeService.GetActive(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err, "failed to get store")
	}

	return c.JSON(http.StatusOK, store)
}

func (h *StoreHandler) AdminList(c echo.Context) error {
	stores, err := h.storeService.List(c.Request().Context(), false)
	if err != nil {
		return toHTTPError(err, "failed to list stores")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"stores": stores,
	})
}

func (h *StoreHandler) AdminGet(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	store, err := h.storeService.Get(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err, "failed to get store")
	}
	return c.JSON(http.StatusOK, store)
}

func (h *StoreHandler) Create(c echo.Context) error {
	var input services.StoreInput
	if err := bind(c, &input); err != nil {
		return err
	}

	store, err := h.storeService.Create(c.Request().Context(), input)
	if err != nil {
		return toHTTPError(err, "failed to create store")
	}
	return c.JSON(http.StatusCreated, store)
}

func (h *StoreHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input services.StoreInput
	if err := bind(c, &input); err != nil {
		return err
	}

	store, err := h.storeService.Update(c.Request().Context(), id, input)
	if err != nil {
		return toHTTPError(err, "failed to update store")
	}
	return c.JSON(http.StatusOK, store)
}

func (h *StoreHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.storeService.Delete(c.Request().Context(), id); err != nil {
		return toHTTPError(err, "failed to delete store")
	}
	return c.NoContent(http.StatusNoContent)
}

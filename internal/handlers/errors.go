package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"bakery-storefront/internal/middleware"
	"bakery-storefront/internal/pricing"
	"bakery-storefront/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var errorStatus = []struct {
	err  error
	code int
}{
	{services.ErrInvalidInput, http.StatusBadRequest},
	{services.ErrInvalidStatus, http.StatusBadRequest},
	{services.ErrInvalidQuantity, http.StatusBadRequest},
	{services.ErrStoreNotSelected, http.StatusBadRequest},

	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrUserInactive, http.StatusForbidden},

	{services.ErrUserNotFound, http.StatusNotFound},
	{services.ErrStoreNotFound, http.StatusNotFound},
	{services.ErrCategoryNotFound, http.StatusNotFound},
	{services.ErrSubcategoryNotFound, http.StatusNotFound},
	{services.ErrProductNotFound, http.StatusNotFound},
	{services.ErrPromotionNotFound, http.StatusNotFound},
	{services.ErrCouponIDNotFound, http.StatusNotFound},
	{services.ErrCartItemNotFound, http.StatusNotFound},
	{services.ErrOrderNotFound, http.StatusNotFound},

	{services.ErrUserExists, http.StatusConflict},
	{services.ErrCouponCodeTaken, http.StatusConflict},

	{services.ErrProductUnavailable, http.StatusUnprocessableEntity},
	{services.ErrFlavorUnavailable, http.StatusUnprocessableEntity},
	{services.ErrDeliveryUnavailable, http.StatusUnprocessableEntity},
	{services.ErrOutsideDeliveryRadius, http.StatusUnprocessableEntity},
	{services.ErrEmptyCart, http.StatusUnprocessableEntity},
}

// toHTTPError maps a service error to a response. Unknown errors become a
// 500 carrying fallback, with the cause kept as the internal error for logs.
func toHTTPError(err error, fallback string) error {
	// An unknown coupon code is reported the same way as an unusable one.
	if pricing.IsCouponError(err) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return echo.NewHTTPError(m.code, err.Error())
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, fallback).SetInternal(err)
}

func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func paramID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// queryID parses an optional uuid query parameter; empty means absent.
func queryID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

func pageParams(c echo.Context) services.Page {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	return services.Page{Page: page, PerPage: perPage}
}

func currentUser(c echo.Context) (uuid.UUID, error) {
	id, ok := middleware.GetUserID(c)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

// mutateByID runs a delete or toggle on the :id resource and answers 204.
func mutateByID(c echo.Context, op func(context.Context, uuid.UUID) error, fallback string) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := op(c.Request().Context(), id); err != nil {
		return toHTTPError(err, fallback)
	}
	return c.NoContent(http.StatusNoContent)
}

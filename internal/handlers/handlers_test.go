package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bakery-storefront/internal/middleware"
	"bakery-storefront/internal/models"
	"bakery-storefront/internal/pricing"
	"bakery-storefront/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-secret"

// newTestServer wires handlers with no backing services. Every request sent
// to it must be rejected before a service touches the database.
func newTestServer() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler

	stores := NewStoreHandler(nil, nil)
	catalog := NewCatalogHandler(nil)
	promotions := NewPromotionHandler(nil)
	cart := NewCartHandler(nil)
	orders := NewOrderHandler(nil, services.NewOrderService(nil))

	api := e.Group("/api")
	api.GET("/stores/nearby", stores.Nearby, middleware.OptionalJWTAuth(testSecret))
	api.GET("/stores/:id", stores.Get)
	api.GET("/products", catalog.ListProducts)
	api.GET("/promotions", promotions.ListActive)
	api.POST("/coupons/validate", promotions.ValidateCoupon)

	auth := api.Group("", middleware.JWTAuth(testSecret))
	auth.GET("/cart", cart.List)
	auth.PUT("/cart/:id", cart.UpdateQuantity)

	admin := api.Group("/admin", middleware.JWTAuth(testSecret), middleware.RequireRole(models.RoleAdmin))
	admin.PUT("/orders/:id/status", orders.UpdateStatus)
	return e
}

func bearer(t *testing.T, role models.Role) string {
	t.Helper()
	claims := middleware.JWTClaims{
		UserID: uuid.New(),
		Email:  "user@bakery.test",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(t *testing.T, e *echo.Echo, method, target, body, auth string) (*httptest.ResponseRecorder, middleware.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp middleware.ErrorResponse
	if rec.Code >= http.StatusBadRequest {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", fmt.Errorf("%w: name is required", services.ErrInvalidInput), http.StatusBadRequest},
		{"coupon expired", fmt.Errorf("%w: SUMMER", pricing.ErrCouponExpired), http.StatusUnprocessableEntity},
		{"coupon unknown", pricing.ErrCouponNotFound, http.StatusUnprocessableEntity},
		{"coupon exhausted", pricing.ErrUsageLimitReached, http.StatusUnprocessableEntity},
		{"outside radius", services.ErrOutsideDeliveryRadius, http.StatusUnprocessableEntity},
		{"missing order", services.ErrOrderNotFound, http.StatusNotFound},
		{"admin coupon by id", services.ErrCouponIDNotFound, http.StatusNotFound},
		{"duplicate email", services.ErrUserExists, http.StatusConflict},
		{"bad login", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"no store", services.ErrStoreNotSelected, http.StatusBadRequest},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var he *echo.HTTPError
			require.ErrorAs(t, toHTTPError(tt.err, "failed"), &he)
			assert.Equal(t, tt.code, he.Code)
		})
	}

	var he *echo.HTTPError
	require.ErrorAs(t, toHTTPError(errors.New("boom"), "failed to list"), &he)
	assert.Equal(t, "failed to list", he.Message)
	assert.EqualError(t, he.Internal, "boom")
}

func TestNearbyRejectsBadCoordinates(t *testing.T) {
	e := newTestServer()

	tests := []struct {
		name  string
		query string
	}{
		{"missing", ""},
		{"not a number", "?lat=north&lng=77.6"},
		{"latitude out of range", "?lat=95&lng=77.6"},
		{"longitude out of range", "?lat=12.9&lng=-181"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := serve(t, e, http.MethodGet, "/api/stores/nearby"+tt.query, "", "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestInvalidIDs(t *testing.T) {
	e := newTestServer()

	rec, resp := serve(t, e, http.MethodGet, "/api/stores/not-a-uuid", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid id", resp.Error)

	rec, resp = serve(t, e, http.MethodGet, "/api/products?store_id=42", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid store_id", resp.Error)
}

func TestListFiltersRejectUnknownPromotionType(t *testing.T) {
	e := newTestServer()

	rec, _ := serve(t, e, http.MethodGet, "/api/products?promotion_type=clearance", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, e, http.MethodGet, "/api/promotions?type=clearance", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateCouponRequest(t *testing.T) {
	e := newTestServer()

	rec, resp := serve(t, e, http.MethodPost, "/api/coupons/validate", `{"subtotal": 500}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "code is required", resp.Error)

	rec, _ = serve(t, e, http.MethodPost, "/api/coupons/validate", `{"code": "X", "subtotal": -1}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = serve(t, e, http.MethodPost, "/api/coupons/validate", `{"code":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", resp.Error)
}

func TestCartRequiresAuth(t *testing.T) {
	e := newTestServer()

	rec, _ := serve(t, e, http.MethodGet, "/api/cart", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartUpdateRejectsZeroQuantity(t *testing.T) {
	e := newTestServer()
	target := "/api/cart/" + uuid.NewString()

	rec, resp := serve(t, e, http.MethodPut, target, `{"quantity": 0}`, bearer(t, models.RoleCustomer))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.ErrInvalidQuantity.Error(), resp.Error)
}

func TestAdminOrderStatus(t *testing.T) {
	e := newTestServer()
	target := "/api/admin/orders/" + uuid.NewString() + "/status"

	rec, _ := serve(t, e, http.MethodPut, target, `{"status": "confirmed"}`, bearer(t, models.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp := serve(t, e, http.MethodPut, target, `{"status": "shipped"}`, bearer(t, models.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "invalid status")
}

func TestPageParams(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?page=3&per_page=50", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, services.Page{Page: 3, PerPage: 50}, pageParams(c))
}

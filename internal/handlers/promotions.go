package handlers

import (
	"net/http"

	"bakery-storefront/internal/models"
	"bakery-storefront/internal/services"

	"github.com/labstack/echo/v4"
)

type PromotionHandler struct {
	promotionService *services.PromotionService
}

func NewPromotionHandler(promotionService *services.PromotionService) *PromotionHandler {
	return &PromotionHandler{promotionService: promotionService}
}

func (h *PromotionHandler) ListActive(c echo.Context) error {
	promotionType := models.PromotionType(c.QueryParam("type"))
	if promotionType != "" && !promotionType.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid promotion type")
	}

	promotions, err := h.promotionService.ListActivePromotions(c.Request().Context(), promotionType)
	if err != nil {
		return toHTTPError(err, "failed to list promotions")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"promotions": promotions,
	})
}

type validateCouponRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

// ValidateCoupon previews a coupon against a subtotal. A refused coupon
// answers 422 with the reason.
func (h *PromotionHandler) ValidateCoupon(c echo.Context) error {
	var req validateCouponRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	if req.Subtotal < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "subtotal cannot be negative")
	}

	check, err := h.promotionService.ValidateCoupon(c.Request().Context(), req.Code, req.Subtotal)
	if err != nil {
		return toHTTPError(err, "failed to validate coupon")
	}
	return c.JSON(http.StatusOK, check)
}

func (h *PromotionHandler) AdminListPromotions(c echo.Context) error {
	promotions, err := h.promotionService.ListPromotions(c.Request().Context())
	if err != nil {
		return toHTTPError(err, "failed to list promotions")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"promotions": promotions,
	})
}

func (h *PromotionHandler) CreatePromotion(c echo.Context) error {
	var input services.PromotionInput
	if err := bind(c, &input); err != nil {
		return err
	}

	promotion, err := h.promotionService.CreatePromotion(c.Request().Context(), input)
	if err != nil {
		return toHTTPError(err, "failed to create promotion")
	}
	return c.JSON(http.StatusCreated, promotion)
}

func (h *PromotionHandler) UpdatePromotion(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input services.PromotionInput
	if err := bind(c, &input); err != nil {
		return err
	}

	promotion, err := h.promotionService.UpdatePromotion(c.Request().Context(), id, input)
	if err != nil {
		return toHTTPError(err, "failed to update promotion")
	}
	return c.JSON(http.StatusOK, promotion)
}

func (h *PromotionHandler) DeletePromotion(c echo.Context) error {
	return mutateByID(c, h.promotionService.DeletePromotion, "failed to delete promotion")
}

func (h *PromotionHandler) TogglePromotion(c echo.Context) error {
	return mutateByID(c, h.promotionService.TogglePromotion, "failed to toggle promotion")
}

func (h *PromotionHandler) AdminListCoupons(c echo.Context) error {
	coupons, err := h.promotionService.ListCoupons(c.Request().Context())
	if err != nil {
		return toHTTPError(err, "failed to list coupons")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"coupons": coupons,
	})
}

func (h *PromotionHandler) CreateCoupon(c echo.Context) error {
	var input services.CouponInput
	if err := bind(c, &input); err != nil {
		return err
	}

	coupon, err := h.promotionService.CreateCoupon(c.Request().Context(), input)
	if err != nil {
		return toHTTPError(err, "failed to create coupon")
	}
	return c.JSON(http.StatusCreated, coupon)
}

func (h *PromotionHandler) UpdateCoupon(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input services.CouponInput
	if err := bind(c, &input); err != nil {
		return err
	}

	coupon, err := h.promotionService.UpdateCoupon(c.Request().Context(), id, input)
	if err != nil {
		return toHTTPError(err, "failed to update coupon")
	}
	return c.JSON(http.StatusOK, coupon)
}

func (h *PromotionHandler) DeleteCoupon(c echo.Context) error {
	return mutateByID(c, h.promotionService.DeleteCoupon, "failed to delete coupon")
}

func (h *PromotionHandler) ToggleCoupon(c echo.Context) error {
	return mutateByID(c, h.promotionService.ToggleCoupon, "failed to toggle coupon")
}

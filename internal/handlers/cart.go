package handlers

import (
	"net/http"

	"bakery-storefront/internal/services"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// List returns the cart, narrowed to what the store_id query parameter's
// store sells when one is given.
func (h *CartHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	storeID, err := queryID(c, "store_id")
	if err != nil {
		return err
	}

	items, err := h.cartService.List(c.Request().Context(), userID, storeID)
	if err != nil {
		return toHTTPError(err, "failed to load cart")
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": items,
		"count": count,
	})
}

func (h *CartHandler) Add(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var input services.AddToCartInput
	if err := bind(c, &input); err != nil {
		return err
	}

	item, err := h.cartService.Add(c.Request().Context(), userID, input)
	if err != nil {
		return toHTTPError(err, "failed to add to cart")
	}
	return c.JSON(http.StatusCreated, item)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	itemID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req updateQuantityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Quantity < 1 {
		return toHTTPError(services.ErrInvalidQuantity, "")
	}

	if err := h.cartService.UpdateQuantity(c.Request().Context(), userID, itemID, req.Quantity); err != nil {
		return toHTTPError(err, "failed to update cart")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) Remove(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	itemID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.cartService.Remove(c.Request().Context(), userID, itemID); err != nil {
		return toHTTPError(err, "failed to remove from cart")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) Clear(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.cartService.Clear(c.Request().Context(), userID); err != nil {
		return toHTTPError(err, "failed to clear cart")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) Count(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	storeID, err := queryID(c, "store_id")
	if err != nil {
		return err
	}

	count, err := h.cartService.Count(c.Request().Context(), userID, storeID)
	if err != nil {
		return toHTTPError(err, "failed to count cart")
	}
	return c.JSON(http.StatusOK, map[string]int{"count": count})
}

package handlers

import (
	"net/http"

	"bakery-storefront/internal/models"
	"bakery-storefront/internal/services"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	checkoutService *services.CheckoutService
	orderService    *services.OrderService
}

func NewOrderHandler(checkoutService *services.CheckoutService, orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
	}
}

func (h *OrderHandler) Quote(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var input services.QuoteInput
	if err := bind(c, &input); err != nil {
		return err
	}

	quote, err := h.checkoutService.Quote(c.Request().Context(), userID, input)
	if err != nil {
		return toHTTPError(err, "failed to price cart")
	}
	return c.JSON(http.StatusOK, quote)
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var input services.PlaceOrderInput
	if err := bind(c, &input); err != nil {
		return err
	}

	order, err := h.checkoutService.PlaceOrder(c.Request().Context(), userID, input)
	if err != nil {
		return toHTTPError(err, "failed to place order")
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	orders, err := h.orderService.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err, "failed to list orders")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"orders": orders,
	})
}

func (h *OrderHandler) GetMine(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.GetForUser(c.Request().Context(), userID, orderID)
	if err != nil {
		return toHTTPError(err, "failed to get order")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Dashboard(c echo.Context) error {
	stats, err := h.orderService.Dashboard(c.Request().Context())
	if err != nil {
		return toHTTPError(err, "failed to load dashboard")
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *OrderHandler) AdminList(c echo.Context) error {
	storeID, err := queryID(c, "store_id")
	if err != nil {
		return err
	}

	result, err := h.orderService.List(c.Request().Context(), services.OrderFilter{
		Status:  models.OrderStatus(c.QueryParam("status")),
		StoreID: storeID,
		Page:    pageParams(c),
	})
	if err != nil {
		return toHTTPError(err, "failed to list orders")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) AdminGet(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.Get(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err, "failed to get order")
	}
	return c.JSON(http.StatusOK, order)
}

type statusRequest struct {
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req statusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return toHTTPError(err, "failed to update order status")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdatePaymentStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req statusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.UpdatePaymentStatus(c.Request().Context(), id, req.PaymentStatus)
	if err != nil {
		return toHTTPError(err, "failed to update payment status")
	}
	return c.JSON(http.StatusOK, order)
}

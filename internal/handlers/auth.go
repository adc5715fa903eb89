package handlers

import (
	"net/http"

	"bakery-storefront/internal/services"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
}

func NewAuthHandler(authService *services.AuthService, userService *services.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var input services.RegisterInput
	if err := bind(c, &input); err != nil {
		return err
	}
	if err := input.Validate(); err != nil {
		return toHTTPError(err, "")
	}

	result, err := h.authService.Register(c.Request().Context(), input)
	if err != nil {
		return toHTTPError(err, "failed to register user")
	}

	return c.JSON(http.StatusCreated, result)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var input services.LoginInput
	if err := bind(c, &input); err != nil {
		return err
	}
	if input.Email == "" || input.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	result, err := h.authService.Login(c.Request().Context(), input)
	if err != nil {
		return toHTTPError(err, "failed to login")
	}

	return c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) GetCurrentUser(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	user, err := h.userService.GetByID(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err, "failed to get user")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": user.ToResponse(),
	})
}

// Logout is a no-op for stateless tokens; clients drop the token.
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

func (h *AuthHandler) GetProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	profile, err := h.userService.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err, "failed to get profile")
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var input services.ProfileInput
	if err := bind(c, &input); err != nil {
		return err
	}

	profile, err := h.userService.UpsertProfile(c.Request().Context(), userID, input)
	if err != nil {
		return toHTTPError(err, "failed to save profile")
	}

	return c.JSON(http.StatusOK, profile)
}

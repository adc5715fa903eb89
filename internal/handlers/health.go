package handlers

import (
	"context"
	"net/http"
	"time"

	"bakery-storefront/internal/database"
	"bakery-storefront/internal/logging"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 2 * time.Second

type HealthHandler struct {
	redisAddr string
}

func NewHealthHandler(redisAddr string) *HealthHandler {
	return &HealthHandler{redisAddr: redisAddr}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func status(err error) string {
	if err != nil {
		return "unhealthy"
	}
	return "healthy"
}

func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	dbErr := database.CheckHealth(ctx)
	redisErr := h.checkRedis(ctx)

	response := HealthResponse{
		Status:   "healthy",
		Database: status(dbErr),
		Redis:    status(redisErr),
	}

	code := http.StatusOK
	if dbErr != nil || redisErr != nil {
		response.Status = "degraded"
		code = http.StatusServiceUnavailable
		logging.Warn(ctx).AnErr("database", dbErr).AnErr("redis", redisErr).Msg("health check degraded")
	}

	return c.JSON(code, response)
}

// checkRedis asks asynq for its queues. The inspector has no context
// support, so the call is raced against ctx.
func (h *HealthHandler) checkRedis(ctx context.Context) error {
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: h.redisAddr})
	defer inspector.Close()

	done := make(chan error, 1)
	go func() {
		_, err := inspector.Queues()
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

package middleware

import (
	"errors"
	"net/http"

	"bakery-storefront/internal/logging"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	ctx := c.Request().Context()
	span := trace.SpanFromContext(ctx)

	code := http.StatusInternalServerError
	message := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(he.Code)
		}
	}

	span.SetAttributes(attribute.Int("http.response.status_code", code))

	// Client mistakes are logged as warnings and do not mark the span failed.
	if code >= http.StatusInternalServerError {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.Error(ctx).Err(err).Int("status", code).Str("path", c.Path()).Msg("request error")
	} else {
		logging.Warn(ctx).Err(err).Int("status", code).Str("path", c.Path()).Msg("request rejected")
	}

	var traceID string
	if span.SpanContext().HasTraceID() {
		traceID = span.SpanContext().TraceID().String()
	}

	response := ErrorResponse{
		Error:   message,
		TraceID: traceID,
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, response)
	}
	if err != nil {
		logging.Error(ctx).Err(err).Msg("failed to write error response")
	}
}

package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter           = otel.Meter("bakery-storefront")
	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
	activeRequests  metric.Int64UpDownCounter

	promRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bakery",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	promDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bakery",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// InitMetrics creates the OTel instruments and registers the Prometheus
// collectors with reg.
func InitMetrics(reg prometheus.Registerer) error {
	var err error

	requestCounter, err = meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	requestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	activeRequests, err = meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	for _, c := range []prometheus.Collector{promRequests, promDuration} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}

	return nil
}

func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			method := c.Request().Method
			route := c.Path()

			base := metric.WithAttributes(
				attribute.String("http.method", method),
				attribute.String("http.route", route),
			)
			if activeRequests != nil {
				activeRequests.Add(ctx, 1, base)
			}

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}

			elapsed := time.Since(start)
			status := c.Response().Status

			if requestCounter != nil {
				withStatus := metric.WithAttributes(
					attribute.String("http.method", method),
					attribute.String("http.route", route),
					attribute.Int("http.status_code", status),
				)
				requestCounter.Add(ctx, 1, withStatus)
				requestDuration.Record(ctx, float64(elapsed.Milliseconds()), withStatus)
				activeRequests.Add(ctx, -1, base)
			}

			promRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			promDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())

			return nil
		}
	}
}

package tasks

import (
	"context"
	"time"

	"bakery-storefront/internal/logging"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("bakery-storefront-worker")
	meter  = otel.Meter("bakery-storefront-worker")
)

type jobInstruments struct {
	processed  metric.Int64Counter
	duration   metric.Float64Histogram
	shareLinks metric.Int64Counter
}

var instruments = newJobInstruments()

// newJobInstruments registers the worker's instruments. A nil instrument is
// skipped when recording.
func newJobInstruments() jobInstruments {
	var ji jobInstruments
	var err error

	if ji.processed, err = meter.Int64Counter(
		"jobs.processed",
		metric.WithDescription("Jobs handled by the worker, by type and outcome"),
	); err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create jobs processed counter")
	}

	if ji.duration, err = meter.Float64Histogram(
		"jobs.duration",
		metric.WithDescription("Time spent handling a job"),
		metric.WithUnit("s"),
	); err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create jobs duration histogram")
	}

	if ji.shareLinks, err = meter.Int64Counter(
		"notifications.share_links",
		metric.WithDescription("Customer notifications, by whether a WhatsApp link could be built"),
	); err != nil {
		logging.Logger().Error().Err(err).Msg("failed to create share links counter")
	}

	return ji
}

func (ji jobInstruments) record(ctx context.Context, jobType string, err error, started time.Time) {
	outcome := "completed"
	if err != nil {
		outcome = "failed"
	}

	if ji.processed != nil {
		ji.processed.Add(ctx, 1, metric.WithAttributes(
			attribute.String("job.type", jobType),
			attribute.String("outcome", outcome),
		))
	}
	if ji.duration != nil {
		ji.duration.Record(ctx, time.Since(started).Seconds(),
			metric.WithAttributes(attribute.String("job.type", jobType)))
	}
}

func (ji jobInstruments) shareLink(ctx context.Context, jobType string, built bool) {
	if ji.shareLinks == nil {
		return
	}
	ji.shareLinks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job.type", jobType),
		attribute.Bool("link", built),
	))
}

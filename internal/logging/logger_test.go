package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func capture(t *testing.T, development bool) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := logger
	SetLogger(New(buf, "bakery-test", development))
	t.Cleanup(func() { SetLogger(prev) })
	return buf
}

func TestInfoAddsTraceIDs(t *testing.T) {
	buf := capture(t, false)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	Info(ctx).Str("order_number", "SD1").Msg("order placed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "order placed", entry["message"])
	assert.Equal(t, "bakery-test", entry["service"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["traceId"])
	assert.Equal(t, "00f067aa0ba902b7", entry["spanId"])
}

func TestInfoWithoutSpan(t *testing.T) {
	buf := capture(t, false)

	Info(context.Background()).Msg("no span")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "traceId")
}

func TestProductionDropsDebug(t *testing.T) {
	buf := capture(t, false)
	Debug(context.Background()).Msg("hidden")
	assert.Empty(t, buf.String())

	buf = capture(t, true)
	Debug(context.Background()).Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

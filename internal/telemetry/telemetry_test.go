package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostPort(t *testing.T) {
	tests := map[string]string{
		"http://localhost:4318":       "localhost:4318",
		"https://collector.internal/": "collector.internal",
		"otel:4318":                   "otel:4318",
	}
	for in, want := range tests {
		assert.Equal(t, want, hostPort(in), in)
	}
}

func TestPropagatorFields(t *testing.T) {
	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, Propagator().Fields())
}

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	tp, err := NewTracerProvider(ctx, Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:4317",
		SamplingRatio:     1.0,
		ServiceName:       "invoice-dashboard",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewResource(t *testing.T) {
	res, err := newResource(Config{ServiceName: "invoice-dashboard", Environment: "staging"})
	require.NoError(t, err)

	attrs := map[string]string{}
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "invoice-dashboard", attrs["service.name"])
	assert.Equal(t, "staging", attrs["deployment.environment.name"])

	res, err = newResource(Config{ServiceName: "invoice-dashboard"})
	require.NoError(t, err)
	_, ok := res.Set().Value("deployment.environment.name")
	assert.False(t, ok)
}

func TestNewSampler(t *testing.T) {
	traceID := trace.TraceID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 1}
	params := sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       traceID,
		Name:          "span",
	}

	tests := []struct {
		name  string
		ratio float64
		want  sdktrace.SamplingDecision
	}{
		{"always", 1.0, sdktrace.RecordAndSample},
		{"above one", 2.0, sdktrace.RecordAndSample},
		{"never", 0.0, sdktrace.Drop},
		{"negative", -1.0, sdktrace.Drop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newSampler(tt.ratio).ShouldSample(params)
			assert.Equal(t, tt.want, result.Decision)
		})
	}

	assert.Contains(t, newSampler(0.5).Description(), "TraceIDRatioBased")
}

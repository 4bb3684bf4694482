package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]any {
	return entry.ContextMap()
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	l.Info("nothing happens")
}

func TestWithRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx, l := WithRequestID(context.Background(), base, "req-42")
	assert.Equal(t, "req-42", GetRequestID(ctx))
	assert.Same(t, l, FromContext(ctx))

	l.Info("hello")
	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "req-42", fieldMap(recorded.All()[0])["request_id"])
}

func TestL(t *testing.T) {
	t.Run("scoped logger does not repeat request id", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		ctx, _ := WithRequestID(context.Background(), zap.New(core), "req-1")

		L(ctx).Info("scoped")

		entries := recorded.All()
		require.Len(t, entries, 1)
		count := 0
		for _, f := range entries[0].Context {
			if f.Key == "request_id" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("explicit logger gets request and user ids", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		ctx := context.WithValue(context.Background(), requestIDKey, "req-2")
		ctx = WithUserID(ctx, "user-9")

		WithLogger(ctx, zap.New(core)).Warn("explicit")

		entries := recorded.All()
		require.Len(t, entries, 1)
		fields := fieldMap(entries[0])
		assert.Equal(t, "req-2", fields["request_id"])
		assert.Equal(t, "user-9", fields["user_id"])
	})

	t.Run("trace ids from span context", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		})
		ctx := trace.ContextWithSpanContext(context.Background(), sc)

		WithLogger(ctx, zap.New(core)).Error("traced")

		fields := fieldMap(recorded.All()[0])
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
		assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	})
}

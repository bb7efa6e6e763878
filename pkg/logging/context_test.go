package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != Default() {
		t.Error("expected default logger for empty context")
	}
	if FromContext(nil) != Default() { //nolint:staticcheck // explicit nil-safety check
		t.Error("expected default logger for nil context")
	}
}

func TestWithLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf)

	ctx := WithLogger(context.Background(), &logger)
	got := FromContext(ctx)
	got.Info().Msg("hello")

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected log output to contain message, got %q", buf.String())
	}
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf)

	ctx := WithLogger(context.Background(), &logger)
	ctx = WithRequestID(ctx, "req-42")

	if RequestID(ctx) != "req-42" {
		t.Errorf("RequestID = %q, want req-42", RequestID(ctx))
	}

	Ctx(ctx).Info().Msg("tagged")
	if !strings.Contains(buf.String(), "req-42") {
		t.Errorf("expected request_id in log output, got %q", buf.String())
	}
}

package dss

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestMiddlewareTracing(t *testing.T) {
	// Setup the testing tracer.
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	req, err := http.NewRequest(http.MethodGet, "http://example.com/dss/v1/status", nil)
	assert.NoError(t, err)

	var handlerSpan trace.Span
	next := func(w http.ResponseWriter, r *http.Request) {
		// Capture the span propagated to the handler to check it later.
		handlerSpan = trace.SpanFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}

	writer := httptest.NewRecorder()
	middlewareTracing(writer, req, next, otelhttp.WithTracerProvider(tp))

	ss := sr.Ended()
	assert.Len(t, ss, 1)
	assert.Equal(t, "HTTP GET", ss[0].Name())

	if assert.NotNil(t, handlerSpan) {
		assert.True(t, handlerSpan.SpanContext().IsValid())
	}
}

// equalSpanAttributes ensures that the span's attributes are strictly equal to
// the expected map.
func equalSpanAttributes(t *testing.T, span sdktrace.ReadOnlySpan, expected map[string]string) {
	t.Helper()
	assert.Len(t, span.Attributes(), len(expected))
	containSpanAttributes(t, span, expected)
}

// containSpanAttributes ensures that all the key/value pairs of the map are
// found in the span's attributes.
// Compared to equalSpanAttributes(), it won't fail if there are more
// attributes than expected in the span.
func containSpanAttributes(t *testing.T, span sdktrace.ReadOnlySpan, expected map[string]string) {
	t.Helper()

	for k, v := range expected {
		var found bool
		for _, attr := range span.Attributes() {
			if string(attr.Key) == k {
				assert.Equal(t, v, attr.Value.AsString(), "span attribute %q", k)
				found = true
				continue
			}
		}

		if !found {
			t.Errorf("expected span attribute %q but found none", k)
		}
	}
}

// initSpanRecorder returns a child context containing a new root span and a
// span recorder to introspect the final span and children.
func initSpanRecorder(ctx context.Context) (context.Context, *spanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	ctx, span := tp.Tracer("test").Start(ctx, "root", trace.WithNewRoot())

	return ctx, &spanRecorder{sr: sr, span: span}
}

type spanRecorder struct {
	sr   *tracetest.SpanRecorder
	span trace.Span
}

func (sr *spanRecorder) collect() []sdktrace.ReadOnlySpan {
	sr.span.End()
	return sr.sr.Ended()
}

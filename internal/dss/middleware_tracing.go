package dss

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MiddlewareTracing starts an OpenTelemetry span wrapping all incoming HTTP
// requests. Other middlewares or actual request handlers can extend its
// metadata or create their own associated spans.
// The middleware expects that the trace provider is initialized and configured
// in advance.
func MiddlewareTracing(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	middlewareTracing(w, r, next)
}

func middlewareTracing(w http.ResponseWriter, r *http.Request, next http.HandlerFunc, opts ...otelhttp.Option) {
	otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next(w, r)
	}), fmt.Sprintf("HTTP %s", r.Method), opts...).ServeHTTP(w, r)
}

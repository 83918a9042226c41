package dss

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/interuss/datanode/internal/api"
	"github.com/interuss/datanode/internal/auth"
	"github.com/interuss/datanode/internal/tracing"
)

// MiddlewareAuthorize returns a middleware function that authenticates the
// request's access token against verifier and requires at least one of the
// permitted scopes. The resulting Authorization travels with the request
// context for handlers to identify the caller.
func MiddlewareAuthorize(verifier *auth.Verifier, permittedScopes ...string) MiddlewareFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		ctx := r.Context()

		authorization, err := verifier.Authorize(r.Header.Get("Authorization"))
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		if !authorization.HasAnyScope(permittedScopes...) {
			api.WriteAPIError(w, auth.NewInvalidScopeError(permittedScopes, authorization.Scopes))
			return
		}

		span := trace.SpanFromContext(ctx)
		span.SetAttributes(
			tracing.OwnerKey.String(authorization.ClientID),
			tracing.ScopesKey.String(strings.Join(authorization.Scopes, " ")))

		logger := slog.New(LoggerFromContext(ctx).Handler().WithAttrs(
			[]slog.Attr{slog.String("owner", authorization.ClientID)}))

		ctx = ContextWithAuthorization(ctx, authorization)
		ctx = ContextWithLogger(ctx, logger)
		r = r.WithContext(ctx)

		next(w, r)
	}
}

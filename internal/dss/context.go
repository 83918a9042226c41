package dss

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/interuss/datanode/internal/auth"
)

type ContextError struct {
	got any
}

func (c *ContextError) Error() string {
	return fmt.Sprintf(
		"error retrieving value from context, value obtained was '%v' and type obtained was '%T'",
		c.got,
		c.got)
}

type contextKey int

const (
	// Keys for request-scoped data in http.Request contexts
	contextKeyBody contextKey = iota
	contextKeyLogger
	contextKeyPattern
	contextKeyAuthorization
)

func ContextWithBody(ctx context.Context, body []byte) context.Context {
	return context.WithValue(ctx, contextKeyBody, body)
}

func BodyFromContext(ctx context.Context) ([]byte, error) {
	body, ok := ctx.Value(contextKeyBody).([]byte)
	if !ok {
		err := &ContextError{
			got: ctx.Value(contextKeyBody),
		}
		return nil, err
	}
	return body, nil
}

func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// LoggerFromContext returns the contextual logger installed by the server's
// BaseContext, or the default logger when the context carries none.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(contextKeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

func ContextWithPattern(ctx context.Context, pattern *string) context.Context {
	return context.WithValue(ctx, contextKeyPattern, pattern)
}

func PatternFromContext(ctx context.Context) *string {
	pattern, _ := ctx.Value(contextKeyPattern).(*string)
	return pattern
}

func ContextWithAuthorization(ctx context.Context, authorization auth.Authorization) context.Context {
	return context.WithValue(ctx, contextKeyAuthorization, authorization)
}

func AuthorizationFromContext(ctx context.Context) (auth.Authorization, error) {
	authorization, ok := ctx.Value(contextKeyAuthorization).(auth.Authorization)
	if !ok {
		err := &ContextError{
			got: ctx.Value(contextKeyAuthorization),
		}
		return auth.Authorization{}, err
	}
	return authorization, nil
}

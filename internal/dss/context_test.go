package dss

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interuss/datanode/internal/api"
	"github.com/interuss/datanode/internal/auth"
)

func TestBodyFromContext(t *testing.T) {
	ctx := context.Background()

	_, err := BodyFromContext(ctx)
	require.Error(t, err)
	assert.Equal(t,
		"error retrieving value from context, value obtained was '<nil>' and type obtained was '<nil>'",
		err.Error())

	ctx = ContextWithBody(ctx, []byte(`{"key": "value"}`))

	body, err := BodyFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"key": "value"}`), body)
}

func TestLoggerFromContext(t *testing.T) {
	// Absent logger falls back to the default instead of failing.
	require.NotNil(t, LoggerFromContext(context.Background()))

	logger := api.NewTestLogger()
	ctx := ContextWithLogger(context.Background(), logger)
	assert.Same(t, logger, LoggerFromContext(ctx))
}

func TestPatternFromContext(t *testing.T) {
	assert.Nil(t, PatternFromContext(context.Background()))

	pattern := new(string)
	ctx := ContextWithPattern(context.Background(), pattern)

	got := PatternFromContext(ctx)
	require.NotNil(t, got)

	// The pointer is shared so writes after registration are visible.
	*pattern = "GET /dss/v1/subscriptions/{entityid}"
	assert.Equal(t, "GET /dss/v1/subscriptions/{entityid}", *got)
}

func TestAuthorizationFromContext(t *testing.T) {
	ctx := context.Background()

	_, err := AuthorizationFromContext(ctx)
	require.Error(t, err)

	authorization := auth.Authorization{
		ClientID: "uss1",
		Scopes:   []string{auth.ScopeStrategicCoordination},
		Issuer:   "dummy-oauth",
	}
	ctx = ContextWithAuthorization(ctx, authorization)

	got, err := AuthorizationFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, authorization, got)
}

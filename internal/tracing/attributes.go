package tracing

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"go.opentelemetry.io/otel/attribute"
)

const (
	// EntityIDKey is the span's attribute Key reporting the subscription or
	// operation identifier addressed by the current request.
	EntityIDKey = attribute.Key("dss.entity.id")

	// OwnerKey is the span's attribute Key reporting the USS identity
	// extracted from the request's access token.
	OwnerKey = attribute.Key("dss.owner")

	// ScopesKey is the span's attribute Key reporting the scopes granted by
	// the request's access token.
	ScopesKey = attribute.Key("dss.scopes")
)

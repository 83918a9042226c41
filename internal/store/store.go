// Package store defines the reference store contract for a DSS data node
// and provides the in-memory implementation. All reads and writes happen
// inside a transaction holding the store's exclusive lock, so every
// request handler observes one consistent snapshot.
package store

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/interuss/datanode/internal/geo"
	"github.com/interuss/datanode/internal/scd"
)

// ErrNotFound is returned by the Get and Delete operations when no record
// exists for the given ID.
var ErrNotFound = errors.New("EntityNotFound")

// Repository is the set of record operations available inside a
// transaction. Implementations hand out deep copies and store deep
// copies; callers never alias store-internal state.
type Repository interface {
	// GetSubscription retrieves the subscription with the given ID.
	// ErrNotFound is returned if no such subscription exists.
	GetSubscription(id uuid.UUID) (*scd.Subscription, error)
	UpsertSubscription(subscription *scd.Subscription) error
	DeleteSubscription(id uuid.UUID) error
	// SearchSubscriptions returns the subscriptions whose volumes
	// intersect vol4, sorted by ID. A non-empty owner restricts results
	// to that owner's subscriptions.
	SearchSubscriptions(vol4 *geo.Volume4, owner string) ([]*scd.Subscription, error)

	// GetOperation retrieves the operation with the given ID. ErrNotFound
	// is returned if no such operation exists.
	GetOperation(id uuid.UUID) (*scd.Operation, error)
	UpsertOperation(operation *scd.Operation) error
	DeleteOperation(id uuid.UUID) error
	// SearchOperations returns the operations whose volumes intersect
	// vol4, sorted by ID.
	SearchOperations(vol4 *geo.Volume4) ([]*scd.Operation, error)
}

// Store owns the subscription and operation records of a data node.
type Store interface {
	// Transact runs fn under the store's exclusive lock. The store does
	// not roll back: fn must complete all verification before its first
	// write so a failed request leaves the store unchanged.
	Transact(ctx context.Context, fn func(Repository) error) error

	// ConnectionTest reports whether the store is ready to serve.
	ConnectionTest(ctx context.Context) error
}

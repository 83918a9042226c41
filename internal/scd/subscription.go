// Package scd holds the strategic coordination entities stored by a DSS
// data node: Subscriptions and Operations, both indexed by 4-dimensional
// volumes, plus the rules for building them from requests and planning
// notification fan-out after a mutation.
package scd

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/interuss/datanode/internal/api"
	"github.com/interuss/datanode/internal/geo"
)

// Subscription is a USS's standing interest in a 4-dimensional region.
// Implicit subscriptions exist only to bind operations whose PUT carried
// no subscription_id; they are cascade-deleted with their last dependent
// operation.
type Subscription struct {
	ID                   uuid.UUID
	Owner                string
	Version              int
	NotificationIndex    int
	Vol4                 *geo.Volume4
	USSBaseURL           string
	NotifyForOperations  bool
	NotifyForConstraints bool
	Implicit             bool
	DependentOperations  map[uuid.UUID]struct{}
}

// Clone returns a deep copy. The store hands out and accepts only copies
// so callers can never alias its internal state.
func (s *Subscription) Clone() *Subscription {
	clone := *s
	clone.Vol4 = cloneVolume4(s.Vol4)
	clone.DependentOperations = make(map[uuid.UUID]struct{}, len(s.DependentOperations))
	for id := range s.DependentOperations {
		clone.DependentOperations[id] = struct{}{}
	}
	return &clone
}

// ToRest converts the subscription to its wire representation. Unbounded
// times are omitted. Dependent operation IDs are sorted so responses are
// deterministic.
func (s *Subscription) ToRest() *api.Subscription {
	dependents := make([]string, 0, len(s.DependentOperations))
	for id := range s.DependentOperations {
		dependents = append(dependents, id.String())
	}
	sort.Strings(dependents)

	sub := &api.Subscription{
		ID:                   s.ID.String(),
		Version:              s.Version,
		NotificationIndex:    s.NotificationIndex,
		USSBaseURL:           s.USSBaseURL,
		NotifyForOperations:  s.NotifyForOperations,
		NotifyForConstraints: s.NotifyForConstraints,
		ImplicitSubscription: s.Implicit,
		DependentOperations:  dependents,
	}
	if s.Vol4.TimeStart != nil {
		sub.TimeStart = api.FormatTime(*s.Vol4.TimeStart)
	}
	if s.Vol4.TimeEnd != nil {
		sub.TimeEnd = api.FormatTime(*s.Vol4.TimeEnd)
	}
	return sub
}

// NewSubscriptionFromRequest builds the subscription a PUT request
// describes. existing is the current record for the same ID, nil on
// create. The version check enforces optimistic concurrency: old_version
// must echo the current version on update and be 0 or absent on create.
// The persisted version is incremented exactly once. A missing time_start
// is snapped to the current instant.
func NewSubscriptionFromRequest(
	id uuid.UUID,
	request *api.PutSubscriptionRequest,
	owner string,
	existing *Subscription,
	cfg geo.Config,
) (*Subscription, error) {
	if existing != nil {
		if request.OldVersion == nil {
			return nil, api.NewVersionConflictError("Missing `old_version` to update existing Subscription")
		}
		if *request.OldVersion != existing.Version {
			return nil, api.NewVersionConflictError("`old_version` does not match existing Subscription version")
		}
	} else if request.OldVersion != nil && *request.OldVersion != 0 {
		return nil, api.NewVersionConflictError("`old_version` must be 0 for a new Subscription")
	}

	vol4, err := geo.ExpandVolume4(request.Extents, cfg)
	if err != nil {
		return nil, err
	}
	if vol4.TimeStart == nil {
		now := time.Now().UTC()
		vol4.TimeStart = &now
	}

	version := 1
	if request.OldVersion != nil {
		version = *request.OldVersion + 1
	}

	subscription := &Subscription{
		ID:                   id,
		Owner:                owner,
		Version:              version,
		Vol4:                 vol4,
		USSBaseURL:           request.USSBaseURL,
		NotifyForOperations:  request.NotifyForOperations,
		NotifyForConstraints: request.NotifyForConstraints,
		Implicit:             false,
		DependentOperations:  map[uuid.UUID]struct{}{},
	}
	if existing != nil {
		subscription.NotificationIndex = existing.NotificationIndex
		for dependent := range existing.DependentOperations {
			subscription.DependentOperations[dependent] = struct{}{}
		}
	}
	return subscription, nil
}

// NewImplicitSubscription builds the subscription created on the fly to
// bind an operation whose PUT carried a new_subscription block instead of
// a subscription_id.
func NewImplicitSubscription(
	operationID uuid.UUID,
	owner string,
	vol4 *geo.Volume4,
	ussBaseURL string,
	notifyForConstraints bool,
) *Subscription {
	return &Subscription{
		ID:                   uuid.New(),
		Owner:                owner,
		Version:              1,
		Vol4:                 vol4,
		USSBaseURL:           ussBaseURL,
		NotifyForOperations:  true,
		NotifyForConstraints: notifyForConstraints,
		Implicit:             true,
		DependentOperations:  map[uuid.UUID]struct{}{operationID: {}},
	}
}

func cloneVolume4(vol4 *geo.Volume4) *geo.Volume4 {
	if vol4 == nil {
		return nil
	}
	clone := &geo.Volume4{
		Cells: append(vol4.Cells[:0:0], vol4.Cells...),
	}
	if vol4.TimeStart != nil {
		t := *vol4.TimeStart
		clone.TimeStart = &t
	}
	if vol4.TimeEnd != nil {
		t := *vol4.TimeEnd
		clone.TimeEnd = &t
	}
	if vol4.AltitudeLo != nil {
		a := *vol4.AltitudeLo
		clone.AltitudeLo = &a
	}
	if vol4.AltitudeHi != nil {
		a := *vol4.AltitudeHi
		clone.AltitudeHi = &a
	}
	return clone
}

package scd

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"github.com/google/uuid"

	"github.com/interuss/datanode/internal/api"
	"github.com/interuss/datanode/internal/geo"
)

// Operation is a planned flight volume registered by a USS. Every
// operation is bound to exactly one subscription whose volume contains
// the operation's volume.
type Operation struct {
	ID             uuid.UUID
	Owner          string
	Version        int
	OVN            string
	Vol4           *geo.Volume4
	USSBaseURL     string
	SubscriptionID uuid.UUID
}

// NewOVN returns a fresh opaque operational view number. The OVN rotates
// on every operation mutation; peers echo it to prove they have seen the
// current state.
func NewOVN() string {
	return uuid.NewString()
}

// Clone returns a deep copy.
func (o *Operation) Clone() *Operation {
	clone := *o
	clone.Vol4 = cloneVolume4(o.Vol4)
	return &clone
}

// ToRest converts the operation to its wire representation. The OVN is
// disclosed only to the operation's owner.
func (o *Operation) ToRest(includeOVN bool) *api.OperationReference {
	reference := &api.OperationReference{
		ID:             o.ID.String(),
		Owner:          o.Owner,
		Version:        o.Version,
		TimeStart:      api.FormatTime(*o.Vol4.TimeStart),
		TimeEnd:        api.FormatTime(*o.Vol4.TimeEnd),
		USSBaseURL:     o.USSBaseURL,
		SubscriptionID: o.SubscriptionID.String(),
	}
	if includeOVN {
		reference.OVN = o.OVN
	}
	return reference
}

// NewOperationFromRequest builds the operation a PUT request describes.
// vol4 is the combined envelope of the request's extents; unbounded
// operations are illegal, so all four endpoints must be set. existing is
// the current record for the same ID, nil on create. Version semantics
// match subscriptions; every build draws a fresh OVN. The caller assigns
// SubscriptionID once the binding subscription is resolved.
func NewOperationFromRequest(
	id uuid.UUID,
	request *api.PutOperationRequest,
	owner string,
	existing *Operation,
	vol4 *geo.Volume4,
) (*Operation, error) {
	if existing != nil {
		if request.OldVersion == nil {
			return nil, api.NewVersionConflictError("Missing `old_version` to update existing Operation")
		}
		if *request.OldVersion != existing.Version {
			return nil, api.NewVersionConflictError("`old_version` does not match existing Operation version")
		}
	} else if request.OldVersion != nil && *request.OldVersion != 0 {
		return nil, api.NewVersionConflictError("`old_version` must be 0 for a new Operation")
	}

	if vol4.TimeStart == nil {
		return nil, api.NewInvalidRequestError("Missing `time_start` in Operation request")
	}
	if vol4.TimeEnd == nil {
		return nil, api.NewInvalidRequestError("Missing `time_end` in Operation request")
	}
	if vol4.AltitudeLo == nil {
		return nil, api.NewInvalidRequestError("Missing `altitude_lower` in Operation extents")
	}
	if vol4.AltitudeHi == nil {
		return nil, api.NewInvalidRequestError("Missing `altitude_upper` in Operation extents")
	}

	version := 1
	if request.OldVersion != nil {
		version = *request.OldVersion + 1
	}

	return &Operation{
		ID:         id,
		Owner:      owner,
		Version:    version,
		OVN:        NewOVN(),
		Vol4:       vol4,
		USSBaseURL: request.USSBaseURL,
	}, nil
}

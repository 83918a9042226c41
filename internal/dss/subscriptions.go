package dss

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/interuss/datanode/internal/api"
	"github.com/interuss/datanode/internal/geo"
	"github.com/interuss/datanode/internal/scd"
	"github.com/interuss/datanode/internal/store"
)

// parseEntityID parses the entity ID path segment of the matched route.
func parseEntityID(request *http.Request) (uuid.UUID, error) {
	value := request.PathValue(PathSegmentEntityID)
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, api.NewInvalidRequestError("Entity ID '%s' is not a valid UUID", value)
	}
	return id, nil
}

// unmarshalRequest decodes the buffered request body into resource and
// applies static validation. Semantic checks stay with the geo and scd
// packages.
func (d *DataNode) unmarshalRequest(ctx context.Context, resource any) error {
	body, err := BodyFromContext(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, resource); err != nil {
		return api.NewUnmarshalError(err)
	}
	if apiErr := api.ValidateRequest(d.validate, resource); apiErr != nil {
		return apiErr
	}
	return nil
}

func (d *DataNode) GetSubscription(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	id, err := parseEntityID(request)
	if err != nil {
		writeError(ctx, writer, err)
		return
	}

	var subscription *scd.Subscription
	err = d.store.Transact(ctx, func(repo store.Repository) error {
		var err error
		subscription, err = repo.GetSubscription(id)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = api.NewNotFoundError("Subscription not found")
		}
		writeError(ctx, writer, err)
		return
	}

	_, _ = api.WriteJSONResponse(writer, http.StatusOK, api.GetSubscriptionResponse{
		Subscription: subscription.ToRest(),
	})
}

func (d *DataNode) QuerySubscriptions(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	authorization, err := AuthorizationFromContext(ctx)
	if err != nil {
		writeError(ctx, writer, err)
		return
	}

	var req api.QueryVolumeRequest
	if err := d.unmarshalRequest(ctx, &req); err != nil {
		writeError(ctx, writer, err)
		return
	}

	vol4, err := geo.ExpandVolume4(req.AreaOfInterest, d.geoCfg)
	if err != nil {
		writeError(ctx, writer, err)
		return
	}

	var subscriptions []*scd.Subscription
	err = d.store.Transact(ctx, func(repo store.Repository) error {
		var err error
		subscriptions, err = repo.SearchSubscriptions(vol4, authorization.ClientID)
		return err
	})
	if err != nil {
		writeError(ctx, writer, err)
		return
	}

	response := api.QuerySubscriptionsResponse{
		Subscriptions: make([]*api.Subscription, 0, len(subscriptions)),
	}
	for _, subscription := range subscriptions {
		response.Subscriptions = append(response.Subscriptions, subscription.ToRest())
	}

	_, _ = api.WriteJSONResponse(writer, http.StatusOK, response)
}

func (d *DataNode) PutSubscription(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	id, err := parseEntityID(request)
	if err != nil {
		writeError(ctx, writer, err)
		return
	}

	authorization, err := AuthorizationFromContext(ctx)
	if err != nil {
		writeError(ctx, writer, err)
		return
	}

	var req api.PutSubscriptionRequest
	if err := d.unmarshalRequest(ctx, &req); err != nil {
		writeError(ctx, writer, err)
		return
	}

	var response api.PutSubscriptionResponse
	statusCode := http.StatusCreated

	err = d.store.Transact(ctx, func(repo store.Repository) error {
		existing, err := repo.GetSubscription(id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			existing = nil
		case err != nil:
			return err
		case existing.Owner != authorization.ClientID:
			return api.NewForbiddenError("Only the owner may modify a subscription")
		}

		subscription, err := scd.NewSubscriptionFromRequest(
			id, &req, authorization.ClientID, existing, d.geoCfg)
		if err != nil {
			return err
		}

		// Operations stay covered by their subscription, so a rewrite may
		// not shrink the volume below any dependent operation's envelope.
		for operationID := range subscription.DependentOperations {
			operation, err := repo.GetOperation(operationID)
			if err != nil {
				return err
			}
			if !subscription.Vol4.Contains(operation.Vol4) {
				return api.NewInvalidRequestError(
					"New Subscription volume does not cover dependent Operation %s", operationID)
			}
		}

		if err := repo.UpsertSubscription(subscription); err != nil {
			return err
		}

		// The response reports the operations relevant to the new
		// subscription's volume for client convenience.
		operations, err := repo.SearchOperations(subscription.Vol4)
		if err != nil {
			return err
		}

		if existing != nil {
			statusCode = http.StatusOK
		}
		response = api.PutSubscriptionResponse{
			Subscription: subscription.ToRest(),
			Operations:   make([]*api.OperationReference, 0, len(operations)),
			Constraints:  []*api.ConstraintReference{},
		}
		for _, operation := range operations {
			response.Operations = append(response.Operations,
				operation.ToRest(operation.Owner == authorization.ClientID))
		}
		return nil
	})
	if err != nil {
		writeError(ctx, writer, err)
		return
	}

	_, _ = api.WriteJSONResponse(writer, statusCode, response)
}

func (d *DataNode) DeleteSubscription(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	id, err := parseEntityID(request)
	if err != nil {
		writeError(ctx, writer, err)
		return
	}

	authorization, err := AuthorizationFromContext(ctx)
	if err != nil {
		writeError(ctx, writer, err)
		return
	}

	var response api.DeleteSubscriptionResponse
	err = d.store.Transact(ctx, func(repo store.Repository) error {
		subscription, err := repo.GetSubscription(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return api.NewNotFoundError("Subscription not found")
			}
			return err
		}
		if subscription.Owner != authorization.ClientID {
			return api.NewForbiddenError("Only the owner may delete a subscription")
		}
		// Operations must always reference a live subscription.
		if len(subscription.DependentOperations) > 0 {
			return api.NewInvalidRequestError(
				"Subscription has dependent Operations and may not be deleted")
		}

		if err := repo.DeleteSubscription(id); err != nil {
			return err
		}
		response = api.DeleteSubscriptionResponse{
			SubscriptionReference: subscription.ToRest(),
		}
		return nil
	})
	if err != nil {
		writeError(ctx, writer, err)
		return
	}

	_, _ = api.WriteJSONResponse(writer, http.StatusOK, response)
}

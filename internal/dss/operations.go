package dss

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/interuss/datanode/internal/api"
	"github.com/interuss/datanode/internal/geo"
	"github.com/interuss/datanode/internal/scd"
	"github.com/interuss/datanode/internal/store"
)

func (d *DataNode) GetOperation(writer http.ResponseWriter, request *http.Request) {
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

	var operation *scd.Operation
	err = d.store.Transact(ctx, func(repo store.Repository) error {
		var err error
		operation, err = repo.GetOperation(id)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = api.NewNotFoundError("Operation not found")
		}
		writeError(ctx, writer, err)
		return
	}

	_, _ = api.WriteJSONResponse(writer, http.StatusOK, api.GetOperationResponse{
		OperationReference: operation.ToRest(operation.Owner == authorization.ClientID),
	})
}

func (d *DataNode) QueryOperations(writer http.ResponseWriter, request *http.Request) {
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

	var operations []*scd.Operation
	err = d.store.Transact(ctx, func(repo store.Repository) error {
		var err error
		operations, err = repo.SearchOperations(vol4)
		return err
	})
	if err != nil {
		writeError(ctx, writer, err)
		return
	}

	response := api.QueryOperationsResponse{
		OperationReferences: make([]*api.OperationReference, 0, len(operations)),
	}
	for _, operation := range operations {
		response.OperationReferences = append(response.OperationReferences,
			operation.ToRest(operation.Owner == authorization.ClientID))
	}

	_, _ = api.WriteJSONResponse(writer, http.StatusOK, response)
}

func (d *DataNode) PutOperation(writer http.ResponseWriter, request *http.Request) {
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

	var req api.PutOperationRequest
	if err := d.unmarshalRequest(ctx, &req); err != nil {
		writeError(ctx, writer, err)
		return
	}

	vol4s := make([]*geo.Volume4, 0, len(req.Extents))
	for _, extents := range req.Extents {
		vol4, err := geo.ExpandVolume4(extents, d.geoCfg)
		if err != nil {
			writeError(ctx, writer, err)
			return
		}
		vol4s = append(vol4s, vol4)
	}
	vol4 := geo.CombineVolume4s(vol4s)

	var response api.ChangeOperationResponse
	statusCode := http.StatusCreated

	err = d.store.Transact(ctx, func(repo store.Repository) error {
		existing, err := repo.GetOperation(id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			existing = nil
		case err != nil:
			return err
		case existing.Owner != authorization.ClientID:
			return api.NewForbiddenError("Only the owner may modify an operation reference")
		}

		// Owner, version and envelope checks all precede the first write so
		// a failed request leaves the store untouched.
		operation, err := scd.NewOperationFromRequest(
			id, &req, authorization.ClientID, existing, vol4)
		if err != nil {
			return err
		}

		subscription, err := bindingSubscription(repo, id, &req, authorization.ClientID, vol4)
		if err != nil {
			return err
		}
		operation.SubscriptionID = subscription.ID

		if err := repo.UpsertOperation(operation); err != nil {
			return err
		}
		if err := repo.UpsertSubscription(subscription); err != nil {
			return err
		}

		// Rebinding to a different subscription releases the previous one.
		if existing != nil && existing.SubscriptionID != subscription.ID {
			if err := detachOperation(repo, existing.SubscriptionID, id); err != nil {
				return err
			}
		}

		subscribers, err := collectSubscribers(repo, vol4)
		if err != nil {
			return err
		}

		if existing != nil {
			statusCode = http.StatusOK
		}
		response = api.ChangeOperationResponse{
			OperationReference: operation.ToRest(true),
			Subscribers:        subscribers,
		}
		return nil
	})
	if err != nil {
		writeError(ctx, writer, err)
		return
	}

	_, _ = api.WriteJSONResponse(writer, statusCode, response)
}

func (d *DataNode) DeleteOperation(writer http.ResponseWriter, request *http.Request) {
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

	var response api.ChangeOperationResponse
	err = d.store.Transact(ctx, func(repo store.Repository) error {
		operation, err := repo.GetOperation(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return api.NewNotFoundError("Operation not found")
			}
			return err
		}
		if operation.Owner != authorization.ClientID {
			return api.NewForbiddenError("Only the owner may delete an operation reference")
		}

		if err := repo.DeleteOperation(id); err != nil {
			return err
		}
		if err := detachOperation(repo, operation.SubscriptionID, id); err != nil {
			return err
		}

		subscribers, err := collectSubscribers(repo, operation.Vol4)
		if err != nil {
			return err
		}

		response = api.ChangeOperationResponse{
			OperationReference: operation.ToRest(true),
			Subscribers:        subscribers,
		}
		return nil
	})
	if err != nil {
		writeError(ctx, writer, err)
		return
	}

	_, _ = api.WriteJSONResponse(writer, http.StatusOK, response)
}

// bindingSubscription resolves the subscription an operation PUT binds to.
// A request citing subscription_id reuses that subscription, which must
// contain the operation's whole envelope; the returned copy carries the
// new dependent entry and an advanced version for the caller to persist.
// A request carrying new_subscription builds a fresh implicit subscription
// instead. All checks happen before any state is touched.
func bindingSubscription(
	repo store.Repository,
	operationID uuid.UUID,
	request *api.PutOperationRequest,
	owner string,
	vol4 *geo.Volume4,
) (*scd.Subscription, error) {
	switch {
	case request.SubscriptionID != "":
		subscriptionID, err := uuid.Parse(request.SubscriptionID)
		if err != nil {
			return nil, api.NewInvalidRequestError("`subscription_id` is not a valid UUID")
		}
		subscription, err := repo.GetSubscription(subscriptionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, api.NewInvalidRequestError("Specified Subscription does not exist")
			}
			return nil, err
		}
		if !subscription.Vol4.Contains(vol4) {
			return nil, api.NewInvalidRequestError(
				"Specified Subscription does not cover the entire Operation Volume4D")
		}
		subscription.DependentOperations[operationID] = struct{}{}
		subscription.Version++
		return subscription, nil

	case request.NewSubscription != nil:
		return scd.NewImplicitSubscription(
			operationID, owner, vol4,
			request.NewSubscription.USSBaseURL,
			request.NewSubscription.NotifyForConstraints), nil

	default:
		return nil, api.NewInvalidRequestError(
			"One of `subscription_id` or `new_subscription` must be specified")
	}
}

// detachOperation removes an operation from the subscription that bound
// it, cascading implicit subscriptions left with no dependents. A missing
// subscription is tolerated so a dangling binding cannot wedge deletion.
func detachOperation(repo store.Repository, subscriptionID, operationID uuid.UUID) error {
	subscription, err := repo.GetSubscription(subscriptionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	delete(subscription.DependentOperations, operationID)
	if subscription.Implicit && len(subscription.DependentOperations) == 0 {
		return repo.DeleteSubscription(subscription.ID)
	}
	subscription.Version++
	return repo.UpsertSubscription(subscription)
}

// collectSubscribers returns the notification fan-out for a mutation
// touching vol4. Every overlapping subscription is included regardless of
// owner. Each included subscription's notification index advances within
// the same transaction and the reported index is the advanced one, so the
// recipient can order notifications from the same subscription.
func collectSubscribers(repo store.Repository, vol4 *geo.Volume4) ([]api.SubscriberToNotify, error) {
	subscriptions, err := repo.SearchSubscriptions(vol4, "")
	if err != nil {
		return nil, err
	}
	for _, subscription := range subscriptions {
		subscription.NotificationIndex++
		if err := repo.UpsertSubscription(subscription); err != nil {
			return nil, err
		}
	}
	return scd.SubscribersToNotify(subscriptions), nil
}

package api

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

// Subscription is the wire representation of a subscription reference. The
// owner is deliberately not exposed.
type Subscription struct {
	ID                   string   `json:"id"`
	Version              int      `json:"version"`
	NotificationIndex    int      `json:"notification_index"`
	TimeStart            string   `json:"time_start,omitempty"`
	TimeEnd              string   `json:"time_end,omitempty"`
	USSBaseURL           string   `json:"uss_base_url"`
	NotifyForOperations  bool     `json:"notify_for_operations"`
	NotifyForConstraints bool     `json:"notify_for_constraints"`
	ImplicitSubscription bool     `json:"implicit_subscription"`
	DependentOperations  []string `json:"dependent_operations"`
}

// OperationReference is the wire representation of an operation reference.
// OVN is only populated for the operation's owner.
type OperationReference struct {
	ID             string `json:"id"`
	Owner          string `json:"owner"`
	Version        int    `json:"version"`
	OVN            string `json:"ovn,omitempty"`
	TimeStart      string `json:"time_start"`
	TimeEnd        string `json:"time_end"`
	USSBaseURL     string `json:"uss_base_url"`
	SubscriptionID string `json:"subscription_id"`
}

// ConstraintReference mirrors OperationReference for the constraint surface.
// This node does not index constraints; responses carry an empty list.
type ConstraintReference struct {
	ID         string `json:"id"`
	Owner      string `json:"owner"`
	Version    int    `json:"version"`
	OVN        string `json:"ovn,omitempty"`
	TimeStart  string `json:"time_start"`
	TimeEnd    string `json:"time_end"`
	USSBaseURL string `json:"uss_base_url"`
}

// SubscriptionState identifies one subscription a notification should cite,
// with the notification index current as of the triggering mutation.
type SubscriptionState struct {
	SubscriptionID    string `json:"subscription_id"`
	NotificationIndex int    `json:"notification_index"`
}

// SubscriberToNotify aggregates the subscriptions of a single USS that a
// mutating caller must notify out-of-band.
type SubscriberToNotify struct {
	USSBaseURL    string              `json:"uss_base_url"`
	Subscriptions []SubscriptionState `json:"subscriptions"`
}

// PutSubscriptionRequest is the body of PUT /dss/v1/subscriptions/{id}.
// OldVersion must be absent or zero when creating and must echo the current
// version when updating.
type PutSubscriptionRequest struct {
	Extents              *Volume4D `json:"extents" validate:"required"`
	OldVersion           *int      `json:"old_version,omitempty"`
	USSBaseURL           string    `json:"uss_base_url" validate:"required"`
	NotifyForOperations  bool      `json:"notify_for_operations"`
	NotifyForConstraints bool      `json:"notify_for_constraints"`
}

// QueryVolumeRequest is the body of the subscription and operation query
// endpoints.
type QueryVolumeRequest struct {
	AreaOfInterest *Volume4D `json:"area_of_interest" validate:"required"`
}

// NewSubscriptionRequest describes the implicit subscription an operation
// PUT may ask for in place of citing an existing subscription.
type NewSubscriptionRequest struct {
	USSBaseURL           string `json:"uss_base_url" validate:"required"`
	NotifyForConstraints bool   `json:"notify_for_constraints"`
}

// PutOperationRequest is the body of PUT /dss/v1/operations/{id}. Key and
// State are accepted for round-trip compatibility with strategic
// coordination logic above this node and are not interpreted here.
type PutOperationRequest struct {
	Extents         []*Volume4D             `json:"extents" validate:"required,min=1,dive,required"`
	OldVersion      *int                    `json:"old_version,omitempty"`
	Key             []string                `json:"key,omitempty"`
	State           string                  `json:"state,omitempty"`
	USSBaseURL      string                  `json:"uss_base_url" validate:"required"`
	SubscriptionID  string                  `json:"subscription_id,omitempty"`
	NewSubscription *NewSubscriptionRequest `json:"new_subscription,omitempty"`
}

type GetSubscriptionResponse struct {
	Subscription *Subscription `json:"subscription"`
}

type QuerySubscriptionsResponse struct {
	Subscriptions []*Subscription `json:"subscriptions"`
}

// PutSubscriptionResponse carries the stored subscription plus the
// operations and constraints intersecting its volume, for client
// convenience.
type PutSubscriptionResponse struct {
	Subscription *Subscription          `json:"subscription"`
	Operations   []*OperationReference  `json:"operations"`
	Constraints  []*ConstraintReference `json:"constraints"`
}

type DeleteSubscriptionResponse struct {
	SubscriptionReference *Subscription `json:"subscription_reference"`
}

type GetOperationResponse struct {
	OperationReference *OperationReference `json:"operation_reference"`
}

type QueryOperationsResponse struct {
	OperationReferences []*OperationReference `json:"operation_references"`
}

// ChangeOperationResponse answers both PUT and DELETE of an operation: the
// affected reference and the fan-out the caller must notify.
type ChangeOperationResponse struct {
	OperationReference *OperationReference  `json:"operation_reference"`
	Subscribers        []SubscriberToNotify `json:"subscribers"`
}

// StatusResponse is the versioned status document at GET /dss/v1/status.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

package scd

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/interuss/datanode/internal/api"
)

func TestSubscribersToNotify(t *testing.T) {
	sub1 := &Subscription{ID: uuid.New(), USSBaseURL: "https://uss1.example.com/utm", NotificationIndex: 3}
	sub2 := &Subscription{ID: uuid.New(), USSBaseURL: "https://uss2.example.com/utm", NotificationIndex: 1}
	sub3 := &Subscription{ID: uuid.New(), USSBaseURL: "https://uss1.example.com/utm", NotificationIndex: 8}

	subscribers := SubscribersToNotify([]*Subscription{sub1, sub2, sub3})
	assert.Equal(t, []api.SubscriberToNotify{
		{
			USSBaseURL: "https://uss1.example.com/utm",
			Subscriptions: []api.SubscriptionState{
				{SubscriptionID: sub1.ID.String(), NotificationIndex: 3},
				{SubscriptionID: sub3.ID.String(), NotificationIndex: 8},
			},
		},
		{
			USSBaseURL: "https://uss2.example.com/utm",
			Subscriptions: []api.SubscriptionState{
				{SubscriptionID: sub2.ID.String(), NotificationIndex: 1},
			},
		},
	}, subscribers)
}

func TestSubscribersToNotifyEmpty(t *testing.T) {
	subscribers := SubscribersToNotify(nil)
	assert.NotNil(t, subscribers)
	assert.Empty(t, subscribers)
}

package scd

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"github.com/interuss/datanode/internal/api"
)

// SubscribersToNotify groups subscriptions by USS base URL for the
// notification fan-out returned after a mutation. URLs appear in first
// encounter order and each group lists its subscriptions in input order.
// Acting on the fan-out is the caller's responsibility; the node itself
// sends no notifications.
func SubscribersToNotify(subscriptions []*Subscription) []api.SubscriberToNotify {
	statesByURL := make(map[string][]api.SubscriptionState)
	urls := make([]string, 0)
	for _, subscription := range subscriptions {
		if _, seen := statesByURL[subscription.USSBaseURL]; !seen {
			urls = append(urls, subscription.USSBaseURL)
		}
		statesByURL[subscription.USSBaseURL] = append(statesByURL[subscription.USSBaseURL], api.SubscriptionState{
			SubscriptionID:    subscription.ID.String(),
			NotificationIndex: subscription.NotificationIndex,
		})
	}

	subscribers := make([]api.SubscriberToNotify, 0, len(urls))
	for _, url := range urls {
		subscribers = append(subscribers, api.SubscriberToNotify{
			USSBaseURL:    url,
			Subscriptions: statesByURL[url],
		})
	}
	return subscribers
}

package api

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"net/http"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest(t *testing.T) {
	validate := NewValidator()

	tests := []struct {
		name        string
		resource    any
		wantMessage string
	}{
		{
			name: "valid subscription request",
			resource: &PutSubscriptionRequest{
				Extents:    &Volume4D{Volume: &Volume3D{}},
				USSBaseURL: "https://uss1.com/utm",
			},
		},
		{
			name: "subscription request missing uss_base_url",
			resource: &PutSubscriptionRequest{
				Extents: &Volume4D{Volume: &Volume3D{}},
			},
			wantMessage: "Missing required field `uss_base_url`",
		},
		{
			name:        "subscription request missing extents",
			resource:    &PutSubscriptionRequest{USSBaseURL: "https://uss1.com/utm"},
			wantMessage: "Missing required field `extents`",
		},
		{
			name:        "query request missing area of interest",
			resource:    &QueryVolumeRequest{},
			wantMessage: "Missing required field `area_of_interest`",
		},
		{
			name: "operation request with empty extents list",
			resource: &PutOperationRequest{
				Extents:    []*Volume4D{},
				USSBaseURL: "https://uss1.com/utm",
			},
			wantMessage: "Field `extents` must contain at least 1 element(s)",
		},
		{
			name: "operation request with nested missing field",
			resource: &PutOperationRequest{
				Extents:         []*Volume4D{{Volume: &Volume3D{}}},
				USSBaseURL:      "https://uss1.com/utm",
				NewSubscription: &NewSubscriptionRequest{},
			},
			wantMessage: "Missing required field `uss_base_url` at `new_subscription.uss_base_url`",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := ValidateRequest(validate, test.resource)
			if test.wantMessage == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, http.StatusBadRequest, err.StatusCode)
			assert.Equal(t, test.wantMessage, err.Message)
		})
	}
}

func TestGetJSONTagName(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		expected string
	}{
		{
			name:     "plain name",
			tag:      `json:"uss_base_url"`,
			expected: "uss_base_url",
		},
		{
			name:     "name with options",
			tag:      `json:"old_version,omitempty"`,
			expected: "old_version",
		},
		{
			name:     "ignored field",
			tag:      `json:"-"`,
			expected: "",
		},
		{
			name:     "no json key",
			tag:      `validate:"required"`,
			expected: "",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, GetJSONTagName(reflect.StructTag(test.tag)))
		})
	}
}

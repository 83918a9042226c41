package api

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "whole second",
			input:    time.Date(2023, 4, 1, 12, 30, 0, 0, time.UTC),
			expected: "2023-04-01T12:30:00.000Z",
		},
		{
			name:     "sub-millisecond precision is truncated",
			input:    time.Date(2023, 4, 1, 12, 30, 0, 123456789, time.UTC),
			expected: "2023-04-01T12:30:00.123Z",
		},
		{
			name:     "non-UTC instants are converted",
			input:    time.Date(2023, 4, 1, 14, 30, 0, 0, time.FixedZone("CEST", 2*60*60)),
			expected: "2023-04-01T12:30:00.000Z",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, FormatTime(test.input))
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "RFC3339 with Z",
			input:    "2023-04-01T12:30:00Z",
			expected: time.Date(2023, 4, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			name:     "RFC3339 with offset",
			input:    "2023-04-01T14:30:00+02:00",
			expected: time.Date(2023, 4, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			name:     "fractional seconds",
			input:    "2023-04-01T12:30:00.250Z",
			expected: time.Date(2023, 4, 1, 12, 30, 0, 250000000, time.UTC),
		},
		{
			name:     "no zone designator is taken as UTC",
			input:    "2023-04-01T12:30:00.250",
			expected: time.Date(2023, 4, 1, 12, 30, 0, 250000000, time.UTC),
		},
		{
			name:     "no zone and no fraction",
			input:    "2023-04-01T12:30:00",
			expected: time.Date(2023, 4, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			input:   "next tuesday",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			parsed, err := ParseTime(test.input)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, parsed.Equal(test.expected), "parsed %v, expected %v", parsed, test.expected)
		})
	}
}

func TestTimeRoundTrip(t *testing.T) {
	original := time.Date(2024, 11, 5, 8, 15, 42, 987000000, time.UTC)
	parsed, err := ParseTime(FormatTime(original))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(original))
}

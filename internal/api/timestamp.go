package api

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"fmt"
	"time"
)

const (
	// timeLayout is the wire format for timestamps: UTC with exactly three
	// fractional digits, e.g. 2023-04-01T12:30:00.000Z.
	timeLayout = "2006-01-02T15:04:05.000Z"

	// naiveTimeLayout accepts timestamps without a zone designator.
	// Such values are taken as UTC.
	naiveTimeLayout = "2006-01-02T15:04:05.999999999"
)

// FormatTime renders t in the wire timestamp format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime parses a wire timestamp. RFC3339 values with any zone designator
// are accepted; values with no zone designator are taken as UTC.
func ParseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(naiveTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse timestamp %q", value)
	}
	return t, nil
}

package api

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

// Ptr returns a pointer to the given value.
func Ptr[T any](p T) *T {
	return &p
}

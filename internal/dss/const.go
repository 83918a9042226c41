package dss

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

const (
	ProgramName = "DSS Data Node"

	// Version identifies the API implemented by this node.
	Version = "SCD0.0.1"

	// Wildcard path segment names for request multiplexing, must be lowercase as we lowercase the request URL pattern when registering handlers
	PathSegmentEntityID = "entityid"
)

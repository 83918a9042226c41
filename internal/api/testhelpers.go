package api

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"io"
	"log/slog"
)

// The definitions in this file are meant for unit tests.

func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

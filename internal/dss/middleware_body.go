package dss

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"io"
	"net/http"
	"strings"

	"github.com/interuss/datanode/internal/api"
)

const megabyte int64 = (1 << 20)

// MiddlewareBody reads the request body for mutating methods, enforcing the
// maximum size of 4MB, and makes it available through the request context.
func MiddlewareBody(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	switch r.Method {
	case http.MethodPatch, http.MethodPost, http.MethodPut:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4*megabyte))
		if err != nil {
			api.WriteError(
				w, http.StatusBadRequest,
				api.ErrorCodeInvalidRequest,
				"The request body could not be read.")
			return
		}

		contentType := strings.SplitN(r.Header.Get("Content-Type"), ";", 2)[0]

		if !strings.EqualFold(contentType, "application/json") && (len(body) > 0 || contentType != "") {
			api.WriteError(
				w, http.StatusBadRequest,
				api.ErrorCodeInvalidRequest,
				"The content media type '%s' is not supported. Only 'application/json' is supported.",
				r.Header.Get("Content-Type"))
			return
		}

		ctx := ContextWithBody(r.Context(), body)
		r = r.WithContext(ctx)
	}

	next(w, r)
}

package api

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"encoding/json"
	"fmt"
	"net/http"

	validator "github.com/go-playground/validator/v10"
)

// Error codes. Codes are invariant and are intended to be consumed
// programmatically; the wire body carries only the message.
const (
	ErrorCodeInternalServerError = "InternalServerError"
	ErrorCodeInvalidRequest      = "InvalidRequest"
	ErrorCodeUnauthenticated     = "Unauthenticated"
	ErrorCodeForbidden           = "Forbidden"
	ErrorCodeNotFound            = "NotFound"
	ErrorCodeVersionConflict     = "VersionConflict"
	ErrorCodeServerMisconfigured = "ServerMisconfigured"
)

const (
	// HeaderNameErrorCode carries the error code of a failed request.
	// The response body only exposes the message.
	HeaderNameErrorCode = "X-Dss-Error-Code"
)

// Error represents a complete DSS error response.
type Error struct {
	// The HTTP status code
	StatusCode int `json:"-"`

	// An identifier for the error, surfaced in the X-Dss-Error-Code header
	Code string `json:"-"`

	// A message describing the error, returned as the response body
	Message string `json:"message"`
}

func (err *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", err.StatusCode, err.Code, err.Message)
}

// NewError returns a new Error
func NewError(statusCode int, code, format string, a ...interface{}) *Error {
	return &Error{
		StatusCode: statusCode,
		Code:       code,
		Message:    fmt.Sprintf(format, a...),
	}
}

// NewInvalidRequestError returns an Error for a request that fails validation.
func NewInvalidRequestError(format string, a ...interface{}) *Error {
	return NewError(http.StatusBadRequest, ErrorCodeInvalidRequest, format, a...)
}

// NewUnauthenticatedError returns an Error for a missing or unverifiable
// access token.
func NewUnauthenticatedError(format string, a ...interface{}) *Error {
	return NewError(http.StatusUnauthorized, ErrorCodeUnauthenticated, format, a...)
}

// NewForbiddenError returns an Error for an authenticated caller who lacks
// the required scope or does not own the entity being mutated.
func NewForbiddenError(format string, a ...interface{}) *Error {
	return NewError(http.StatusForbidden, ErrorCodeForbidden, format, a...)
}

// NewNotFoundError returns an Error for an absent entity ID.
func NewNotFoundError(format string, a ...interface{}) *Error {
	return NewError(http.StatusNotFound, ErrorCodeNotFound, format, a...)
}

// NewVersionConflictError returns an Error for an old_version mismatch.
func NewVersionConflictError(format string, a ...interface{}) *Error {
	return NewError(http.StatusConflict, ErrorCodeVersionConflict, format, a...)
}

// NewServerMisconfiguredError returns an Error for requests that cannot be
// served because the node's startup configuration is incomplete.
func NewServerMisconfiguredError(format string, a ...interface{}) *Error {
	return NewError(http.StatusInternalServerError, ErrorCodeServerMisconfigured, format, a...)
}

// WriteError constructs and writes an Error to the given ResponseWriter
func WriteError(w http.ResponseWriter, statusCode int, code, format string, a ...interface{}) {
	WriteAPIError(w, NewError(statusCode, code, format, a...))
}

// WriteAPIError writes an Error to the given ResponseWriter
func WriteAPIError(w http.ResponseWriter, err *Error) {
	w.Header()["Content-Type"] = []string{"application/json"}
	w.Header()[HeaderNameErrorCode] = []string{err.Code}
	w.WriteHeader(err.StatusCode)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(err)
}

// WriteInternalServerError writes an internal server error to the given ResponseWriter
func WriteInternalServerError(w http.ResponseWriter) {
	WriteError(
		w, http.StatusInternalServerError,
		ErrorCodeInternalServerError,
		"Internal server error.")
}

// NewUnmarshalError converts a JSON unmarshaling or static validation
// error into an InvalidRequest Error.
func NewUnmarshalError(err error) *Error {
	switch err := err.(type) {
	case *json.UnmarshalTypeError:
		return NewInvalidRequestError("Invalid JSON type for field `%s`", err.Field)
	case *json.SyntaxError:
		return NewInvalidRequestError("Request body is not valid JSON")
	case validator.ValidationErrors:
		return newValidationError(err)
	default:
		return NewInvalidRequestError("%s", err.Error())
	}
}

// WriteUnmarshalError writes an appropriate Error for JSON unmarshaling or
// static validation errors to the given ResponseWriter
func WriteUnmarshalError(err error, w http.ResponseWriter) {
	WriteAPIError(w, NewUnmarshalError(err))
}

// MarshalJSON returns the JSON encoding of v.
//
// Call this function instead of the marshal functions in "encoding/json" for
// HTTP responses to ensure the formatting is consistent.
func MarshalJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// WriteJSONResponse writes a JSON response body to the http.ResponseWriter in
// the proper sequence: first setting Content-Type to "application/json", then
// setting the HTTP status code, and finally writing a JSON encoding of body.
//
// A byte slice body is written verbatim with the expectation that it was
// produced by MarshalJSON.
func WriteJSONResponse(writer http.ResponseWriter, statusCode int, body any) (int, error) {
	var data []byte

	switch v := body.(type) {
	case []byte:
		data = v // write a byte slice verbatim
	default:
		var err error
		data, err = MarshalJSON(body)
		if err != nil {
			return 0, err
		}
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)
	return writer.Write(data)
}

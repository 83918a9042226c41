package api

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"fmt"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// GetJSONTagName extracts the JSON field name from the "json" key in
// a struct tag. Returns an empty string if no "json" key is present,
// or if the value is "-".
func GetJSONTagName(tag reflect.StructTag) string {
	tagValue := tag.Get("json")
	if tagValue == "-" {
		return ""
	}
	fieldName, _, _ := strings.Cut(tagValue, ",")
	return fieldName
}

// NewValidator returns the validator instance used for static shape checks
// on request envelopes. Semantic rules such as outline selection, coordinate
// ranges and version agreement are enforced by the geo and scd packages,
// which own their error messages.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Use "json" struct tags for alternate field names.
	// Alternate field names will be used in validation errors.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return GetJSONTagName(field.Tag)
	})

	return validate
}

// fieldErrorToTarget converts a validator.FieldError to a dotted field path
// by removing leading namespace segments that have no JSON tag (the struct
// name and any embedded structs).
func fieldErrorToTarget(fe validator.FieldError) string {
	// These segments use the JSON field name if present.
	namespace := strings.Split(fe.Namespace(), ".")
	// These segments use only the struct field name.
	structNamespace := strings.Split(fe.StructNamespace(), ".")

	// Find the index where namespace and structNamespace diverge.
	minLength := min(len(namespace), len(structNamespace))
	for i := 0; i < minLength; i++ {
		if namespace[i] != structNamespace[i] {
			return strings.Join(namespace[i:], ".")
		}
	}

	// Fallback in case none of the namespace segments have JSON names.
	return fe.Namespace()
}

// newValidationError converts the first field failure into an InvalidRequest
// Error. The wire contract carries a single message.
func newValidationError(errs validator.ValidationErrors) *Error {
	fieldErr := errs[0]

	message := fmt.Sprintf("Invalid value '%v' for field `%s`", fieldErr.Value(), fieldErr.Field())
	// Try to add a corrective suggestion to the message.
	switch fieldErr.Tag() {
	case "required":
		message = fmt.Sprintf("Missing required field `%s`", fieldErr.Field())
	case "min":
		switch fieldErr.Kind() {
		case reflect.Slice, reflect.Map:
			message = fmt.Sprintf("Field `%s` must contain at least %s element(s)",
				fieldErr.Field(), fieldErr.Param())
		default:
			message += fmt.Sprintf(" (must be at least %s)", fieldErr.Param())
		}
	case "len":
		message = fmt.Sprintf("Field `%s` must contain exactly %s element(s)",
			fieldErr.Field(), fieldErr.Param())
	case "url":
		message += " (must be a URL)"
	}

	if target := fieldErrorToTarget(fieldErr); target != fieldErr.Field() {
		message += fmt.Sprintf(" at `%s`", target)
	}

	return NewInvalidRequestError("%s", message)
}

// ValidateRequest applies static validation to a parsed request envelope and
// returns nil when the envelope is well formed.
func ValidateRequest(validate *validator.Validate, resource any) *Error {
	err := validate.Struct(resource)
	if err == nil {
		return nil
	}

	if errs, ok := err.(validator.ValidationErrors); ok {
		return newValidationError(errs)
	}
	return NewInvalidRequestError("%s", err.Error())
}

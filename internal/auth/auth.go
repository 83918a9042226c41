// Package auth validates the RS256 access tokens minted by the
// authorization server and extracts the caller's identity and scopes.
// Tokens are decoded at most once per request; endpoint guards check the
// extracted scopes against their permitted set.
package auth

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"crypto/rsa"
	"errors"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/interuss/datanode/internal/api"
)

// Scopes recognized by the strategic coordination service.
const (
	// ScopeStrategicCoordination permits reading and writing subscriptions
	// and operation references.
	ScopeStrategicCoordination = "utm.strategic_coordination"

	// ScopeConstraintConsumption permits read-only access to subscriptions.
	ScopeConstraintConsumption = "utm.constraint_consumption"
)

// Authorization describes a verified caller.
type Authorization struct {
	// ClientID identifies the calling USS: the token's client_id claim,
	// falling back to sub.
	ClientID string

	// Scopes granted by the token.
	Scopes []string

	// Issuer of the token.
	Issuer string
}

// HasAnyScope reports whether the caller holds at least one of the
// permitted scopes.
func (a Authorization) HasAnyScope(permitted ...string) bool {
	for _, scope := range permitted {
		if slices.Contains(a.Scopes, scope) {
			return true
		}
	}
	return false
}

// NewInvalidScopeError returns the Forbidden error for a caller whose
// token carries none of the permitted scopes.
func NewInvalidScopeError(permitted, provided []string) *api.Error {
	return api.NewForbiddenError(
		"Invalid scope; expected one of {%s}, but received only {%s}",
		strings.Join(permitted, " "), strings.Join(provided, " "))
}

// Claims is the access token payload.
type Claims struct {
	jwt.RegisteredClaims

	// Scope is the space-separated list of scopes granted by the
	// authorization server.
	Scope string `json:"scope"`

	// ClientID identifies the USS the token was issued to.
	ClientID string `json:"client_id"`
}

// Verifier validates access tokens against a fixed public key and
// audience, both set once at startup.
type Verifier struct {
	key      *rsa.PublicKey
	audience string
}

// NewVerifier returns a Verifier for the given PEM public key and
// audience. Either may be empty, in which case protected requests fail
// with a configuration error; an unparseable non-empty key is rejected
// here so the operator finds out at startup.
func NewVerifier(publicKeyPEM string, audience string) (*Verifier, error) {
	verifier := &Verifier{audience: audience}
	if publicKeyPEM == "" {
		return verifier, nil
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(FixKey(publicKeyPEM)))
	if err != nil {
		return nil, err
	}
	verifier.key = key

	return verifier, nil
}

// FixKey normalizes a PEM public key that passed through an environment
// variable which collapsed its newlines into spaces. The spaces inside
// the BEGIN and END guard lines are preserved.
func FixKey(key string) string {
	key = strings.ReplaceAll(key, " PUBLIC ", "_PLACEHOLDER_")
	key = strings.ReplaceAll(key, " ", "\n")
	return strings.ReplaceAll(key, "_PLACEHOLDER_", " PUBLIC ")
}

// Authorize verifies the Authorization header value and returns the
// caller's identity and scopes. The error carries the status to respond
// with: 401 for missing or unverifiable tokens, 500 when the node has no
// key or audience configured.
func (v *Verifier) Authorize(header string) (Authorization, error) {
	if header == "" {
		return Authorization{}, api.NewUnauthenticatedError("Missing Authorization header")
	}
	if v.key == nil {
		return Authorization{}, api.NewServerMisconfiguredError(
			"Public key for access tokens is not configured on server")
	}
	if v.audience == "" {
		return Authorization{}, api.NewServerMisconfiguredError(
			"Audience for access tokens is not configured on server")
	}

	tokenString := strings.TrimPrefix(header, "Bearer ")

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return v.key, nil },
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.audience))
	if err != nil {
		return Authorization{}, tokenError(err)
	}

	clientID := claims.ClientID
	if clientID == "" {
		clientID = claims.Subject
	}

	return Authorization{
		ClientID: clientID,
		Scopes:   strings.Fields(claims.Scope),
		Issuer:   claims.Issuer,
	}, nil
}

// tokenError maps a token verification failure to its wire error without
// leaking cryptographic detail.
func tokenError(err error) *api.Error {
	switch {
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return api.NewUnauthenticatedError("Access token is immature.")
	case errors.Is(err, jwt.ErrTokenExpired):
		return api.NewUnauthenticatedError("Access token has expired.")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return api.NewUnauthenticatedError("Access token signature is invalid.")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return api.NewUnauthenticatedError("Access token cannot be decoded.")
	default:
		return api.NewUnauthenticatedError("Access token is invalid.")
	}
}

package auth

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interuss/datanode/internal/api"
)

const testAudience = "test-dss.example.com"

func generateTestKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicKeyPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, string(publicKeyPEM)
}

func signTestToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthorize(t *testing.T) {
	key, publicKeyPEM := generateTestKey(t)
	verifier, err := NewVerifier(publicKeyPEM, testAudience)
	require.NoError(t, err)

	token := signTestToken(t, key, jwt.MapClaims{
		"aud":       testAudience,
		"iss":       "test-auth-server",
		"client_id": "uss1",
		"scope":     ScopeStrategicCoordination + " " + ScopeConstraintConsumption,
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	authorization, err := verifier.Authorize("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "uss1", authorization.ClientID)
	assert.Equal(t, []string{ScopeStrategicCoordination, ScopeConstraintConsumption}, authorization.Scopes)
	assert.Equal(t, "test-auth-server", authorization.Issuer)

	// A bare token without the Bearer prefix is accepted.
	authorization, err = verifier.Authorize(token)
	require.NoError(t, err)
	assert.Equal(t, "uss1", authorization.ClientID)

	// The sub claim identifies the caller when client_id is absent.
	token = signTestToken(t, key, jwt.MapClaims{
		"aud":   testAudience,
		"sub":   "uss2",
		"scope": ScopeStrategicCoordination,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	authorization, err = verifier.Authorize("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "uss2", authorization.ClientID)

	// A token without a scope claim yields no scopes.
	token = signTestToken(t, key, jwt.MapClaims{
		"aud":       testAudience,
		"client_id": "uss3",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	authorization, err = verifier.Authorize("Bearer " + token)
	require.NoError(t, err)
	assert.Empty(t, authorization.Scopes)
}

func TestAuthorizeRejectsInvalidTokens(t *testing.T) {
	key, publicKeyPEM := generateTestKey(t)
	otherKey, _ := generateTestKey(t)
	verifier, err := NewVerifier(publicKeyPEM, testAudience)
	require.NoError(t, err)

	validClaims := func() jwt.MapClaims {
		return jwt.MapClaims{
			"aud":       testAudience,
			"client_id": "uss1",
			"scope":     ScopeStrategicCoordination,
			"exp":       time.Now().Add(time.Hour).Unix(),
		}
	}

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).
		SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	expiredClaims := validClaims()
	expiredClaims["exp"] = time.Now().Add(-time.Hour).Unix()

	immatureClaims := validClaims()
	immatureClaims["nbf"] = time.Now().Add(time.Hour).Unix()

	wrongAudienceClaims := validClaims()
	wrongAudienceClaims["aud"] = "some-other-dss.example.com"

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "missing header",
			header:      "",
			wantStatus:  401,
			wantMessage: "Missing Authorization header",
		},
		{
			name:        "garbage token",
			header:      "Bearer not.a.token",
			wantStatus:  401,
			wantMessage: "Access token cannot be decoded.",
		},
		{
			name:        "expired token",
			header:      "Bearer " + signTestToken(t, key, expiredClaims),
			wantStatus:  401,
			wantMessage: "Access token has expired.",
		},
		{
			name:        "immature token",
			header:      "Bearer " + signTestToken(t, key, immatureClaims),
			wantStatus:  401,
			wantMessage: "Access token is immature.",
		},
		{
			name:        "token signed with a different key",
			header:      "Bearer " + signTestToken(t, otherKey, validClaims()),
			wantStatus:  401,
			wantMessage: "Access token signature is invalid.",
		},
		{
			name:        "token signed with a symmetric method",
			header:      "Bearer " + hmacToken,
			wantStatus:  401,
			wantMessage: "Access token signature is invalid.",
		},
		{
			name:        "token for a different audience",
			header:      "Bearer " + signTestToken(t, key, wrongAudienceClaims),
			wantStatus:  401,
			wantMessage: "Access token is invalid.",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := verifier.Authorize(test.header)
			require.Error(t, err)
			apiErr, ok := err.(*api.Error)
			require.True(t, ok, "expected *api.Error, got %T", err)
			assert.Equal(t, test.wantStatus, apiErr.StatusCode)
			assert.Equal(t, test.wantMessage, apiErr.Message)
		})
	}
}

func TestAuthorizeUnconfigured(t *testing.T) {
	key, publicKeyPEM := generateTestKey(t)
	token := signTestToken(t, key, jwt.MapClaims{
		"aud":       testAudience,
		"client_id": "uss1",
		"scope":     ScopeStrategicCoordination,
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	verifier, err := NewVerifier("", testAudience)
	require.NoError(t, err)
	_, err = verifier.Authorize("Bearer " + token)
	apiErr, ok := err.(*api.Error)
	require.True(t, ok)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, "Public key for access tokens is not configured on server", apiErr.Message)

	verifier, err = NewVerifier(publicKeyPEM, "")
	require.NoError(t, err)
	_, err = verifier.Authorize("Bearer " + token)
	apiErr, ok = err.(*api.Error)
	require.True(t, ok)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, "Audience for access tokens is not configured on server", apiErr.Message)

	_, err = NewVerifier("not a pem key", testAudience)
	assert.Error(t, err)
}

func TestFixKey(t *testing.T) {
	key, publicKeyPEM := generateTestKey(t)

	mangled := strings.ReplaceAll(publicKeyPEM, "\n", " ")
	assert.Equal(t, publicKeyPEM, FixKey(mangled))

	// A verifier built from the mangled key still verifies tokens.
	verifier, err := NewVerifier(mangled, testAudience)
	require.NoError(t, err)
	token := signTestToken(t, key, jwt.MapClaims{
		"aud":       testAudience,
		"client_id": "uss1",
		"scope":     ScopeStrategicCoordination,
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	_, err = verifier.Authorize("Bearer " + token)
	assert.NoError(t, err)
}

func TestHasAnyScope(t *testing.T) {
	authorization := Authorization{
		ClientID: "uss1",
		Scopes:   []string{ScopeStrategicCoordination},
	}

	assert.True(t, authorization.HasAnyScope(ScopeStrategicCoordination))
	assert.True(t, authorization.HasAnyScope(ScopeStrategicCoordination, ScopeConstraintConsumption))
	assert.False(t, authorization.HasAnyScope(ScopeConstraintConsumption))
	assert.False(t, authorization.HasAnyScope())
	assert.False(t, Authorization{}.HasAnyScope(ScopeStrategicCoordination))
}

func TestNewInvalidScopeError(t *testing.T) {
	err := NewInvalidScopeError(
		[]string{ScopeStrategicCoordination, ScopeConstraintConsumption},
		[]string{"other.scope"})
	assert.Equal(t, 403, err.StatusCode)
	assert.Equal(t, api.ErrorCodeForbidden, err.Code)
	assert.Equal(t,
		"Invalid scope; expected one of {utm.strategic_coordination utm.constraint_consumption}, but received only {other.scope}",
		err.Message)
}

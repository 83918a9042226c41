package dss

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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/interuss/datanode/internal/api"
	"github.com/interuss/datanode/internal/auth"
	"github.com/interuss/datanode/internal/geo"
	"github.com/interuss/datanode/internal/store"
)

// The definitions in this file are meant for unit tests.

const TestAudience = "datanode.test"

// TestSigner issues RS256 access tokens against a throwaway key pair.
type TestSigner struct {
	key *rsa.PrivateKey

	// PublicKeyPEM is the matching verification key in PEM form.
	PublicKeyPEM string
}

func NewTestSigner(t *testing.T) *TestSigner {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	return &TestSigner{key: key, PublicKeyPEM: string(pemBytes)}
}

// Token returns an access token for clientID granting the given scopes,
// valid for an hour against the node built by NewTestDataNode.
func (s *TestSigner) Token(t *testing.T, clientID string, scopes ...string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"aud":       TestAudience,
		"iss":       "dummy-oauth",
		"exp":       time.Now().Add(time.Hour).Unix(),
		"client_id": clientID,
		"scope":     strings.Join(scopes, " "),
	})
	signed, err := token.SignedString(s.key)
	require.NoError(t, err)
	return signed
}

// NewTestDataNode assembles a node backed by an in-memory store that
// trusts tokens issued by signer. The node is not listening; drive it
// through its server handler.
func NewTestDataNode(t *testing.T, signer *TestSigner) *DataNode {
	t.Helper()

	verifier, err := auth.NewVerifier(signer.PublicKeyPEM, TestAudience)
	require.NoError(t, err)

	return NewDataNode(
		api.NewTestLogger(),
		nil,
		NewPrometheusEmitter(prometheus.NewRegistry()),
		store.NewMemoryStore(),
		verifier,
		geo.DefaultConfig(),
	)
}

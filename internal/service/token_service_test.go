package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"auth-service/internal/keys"
	"auth-service/internal/model"
	"auth-service/internal/repository"
	"auth-service/pkg/apierror"
)

func newTestKeys(t *testing.T) *keys.Static {
	t.Helper()

	private, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return &keys.Static{
		Private: private,
		ID:      "test-key-1",
		Secret:  []byte("test-refresh-secret"),
	}
}

func testUser() model.User {
	return model.User{ID: 42, Role: model.RoleCustomer}
}

func parseClaims(t *testing.T, token string, key any) *Claims {
	t.Helper()

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	return claims
}

func TestSignAccessToken(t *testing.T) {
	material := newTestKeys(t)
	tokens := NewTokenService(material, repository.NewMemorySessionRepository())

	signed, err := tokens.SignAccessToken(testUser())
	require.NoError(t, err)

	claims := parseClaims(t, signed, &material.Private.PublicKey)
	require.Equal(t, "42", claims.Subject)
	require.Equal(t, model.RoleCustomer, claims.Role)
	require.Equal(t, AccessTokenIssuer, claims.Issuer)
	require.Empty(t, claims.ID)
	require.WithinDuration(t, time.Now().Add(AccessTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestSignAccessTokenRejectsForeignKey(t *testing.T) {
	material := newTestKeys(t)
	tokens := NewTokenService(material, repository.NewMemorySessionRepository())

	signed, err := tokens.SignAccessToken(testUser())
	require.NoError(t, err)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(signed, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return &other.PublicKey, nil
	})
	require.Error(t, err)
}

func TestSignAccessTokenWithoutKeyMaterial(t *testing.T) {
	tokens := NewTokenService(&keys.Static{Secret: []byte("s")}, repository.NewMemorySessionRepository())

	_, err := tokens.SignAccessToken(testUser())
	require.Error(t, err)

	apiErr := &apierror.APIError{}
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, apierror.TypeKeySource, apiErr.Type)
	require.Equal(t, 500, apiErr.HTTPStatus)
}

func TestSignRefreshTokenWithoutSecret(t *testing.T) {
	material := newTestKeys(t)
	material.Secret = nil
	tokens := NewTokenService(material, repository.NewMemorySessionRepository())

	_, err := tokens.SignRefreshToken(testUser(), "session-id")
	require.Error(t, err)

	apiErr := &apierror.APIError{}
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, apierror.TypeConfig, apiErr.Type)
}

func TestIssueBindsRefreshTokenToSession(t *testing.T) {
	material := newTestKeys(t)
	sessions := repository.NewMemorySessionRepository()
	tokens := NewTokenService(material, sessions)

	pair, err := tokens.Issue(context.Background(), testUser())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims := parseClaims(t, pair.RefreshToken, material.Secret)
	require.Equal(t, RefreshTokenIssuer, claims.Issuer)
	require.NotEmpty(t, claims.ID)
	require.WithinDuration(t, time.Now().Add(RefreshTokenTTL), claims.ExpiresAt.Time, 5*time.Second)

	session, err := sessions.Find(context.Background(), claims.ID)
	require.NoError(t, err)
	require.Equal(t, int64(42), session.UserID)
	require.Equal(t, 1, sessions.Len())
}

func TestRotateReplacesSession(t *testing.T) {
	material := newTestKeys(t)
	sessions := repository.NewMemorySessionRepository()
	tokens := NewTokenService(material, sessions)

	initial, err := tokens.Issue(context.Background(), testUser())
	require.NoError(t, err)
	oldClaims := parseClaims(t, initial.RefreshToken, material.Secret)

	rotated, err := tokens.Rotate(context.Background(), testUser(), oldClaims.ID)
	require.NoError(t, err)
	newClaims := parseClaims(t, rotated.RefreshToken, material.Secret)

	require.NotEqual(t, oldClaims.ID, newClaims.ID)

	_, err = sessions.Find(context.Background(), oldClaims.ID)
	require.ErrorIs(t, err, model.ErrSessionNotFound)

	_, err = sessions.Find(context.Background(), newClaims.ID)
	require.NoError(t, err)
	require.Equal(t, 1, sessions.Len())
}

func TestRevokeIsIdempotent(t *testing.T) {
	material := newTestKeys(t)
	sessions := repository.NewMemorySessionRepository()
	tokens := NewTokenService(material, sessions)

	pair, err := tokens.Issue(context.Background(), testUser())
	require.NoError(t, err)
	claims := parseClaims(t, pair.RefreshToken, material.Secret)

	require.NoError(t, tokens.Revoke(context.Background(), claims.ID))
	_, err = sessions.Find(context.Background(), claims.ID)
	require.ErrorIs(t, err, model.ErrSessionNotFound)

	// Second revoke of the same session is a silent no-op.
	require.NoError(t, tokens.Revoke(context.Background(), claims.ID))
	require.NoError(t, tokens.Revoke(context.Background(), "never-existed"))
}

func TestAccessTokenCarriesNoSessionID(t *testing.T) {
	material := newTestKeys(t)
	sessions := repository.NewMemorySessionRepository()
	tokens := NewTokenService(material, sessions)

	pair, err := tokens.Issue(context.Background(), testUser())
	require.NoError(t, err)

	accessClaims := parseClaims(t, pair.AccessToken, &material.Private.PublicKey)
	refreshClaims := parseClaims(t, pair.RefreshToken, material.Secret)

	require.Empty(t, accessClaims.ID)
	require.NotEmpty(t, refreshClaims.ID)
}

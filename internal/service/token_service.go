package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"auth-service/internal/keys"
	"auth-service/internal/model"
	"auth-service/pkg/apierror"
)

const (
	// Cookie max-ages in the handlers must match these exactly, so an expired
	// cookie never outlives its token and a live cookie is never rejected early.
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 24 * time.Hour

	AccessTokenIssuer  = "auth-service"
	RefreshTokenIssuer = "Auth-Service"
)

// Claims is the signed payload of both token kinds. The jti (RegisteredClaims.ID)
// is set only on refresh tokens, where it equals the persisted session id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService signs tokens and drives the refresh-session lifecycle:
// Issue on login/register, Rotate on refresh, Revoke on logout.
type TokenService struct {
	keys     keys.Provider
	sessions SessionStore
}

func NewTokenService(keyProvider keys.Provider, sessions SessionStore) *TokenService {
	return &TokenService{keys: keyProvider, sessions: sessions}
}

// SignAccessToken signs an RS256 access token for the user. Access tokens
// carry no session id; they are stateless and expire on their own.
func (s *TokenService) SignAccessToken(user model.User) (string, error) {
	privateKey, err := s.keys.PrivateKey()
	if err != nil {
		slog.Error("private key unavailable", "error", err)
		return "", apierror.Internal(apierror.TypeKeySource, "Error while reading private key")
	}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    AccessTokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
		},
	})
	token.Header["kid"] = s.keys.KeyID()

	signed, err := token.SignedString(privateKey)
	if err != nil {
		slog.Error("access token signing failed", "error", err)
		return "", apierror.Internal(apierror.TypeKeySource, "Error while signing the access token")
	}

	return signed, nil
}

// SignRefreshToken signs an HS256 refresh token bound to one persisted session:
// jti = session id, so deleting that row revokes the token.
func (s *TokenService) SignRefreshToken(user model.User, sessionID string) (string, error) {
	secret, err := s.keys.RefreshSecret()
	if err != nil {
		slog.Error("refresh secret unavailable", "error", err)
		return "", apierror.Internal(apierror.TypeConfig, "Refresh token secret is not set")
	}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    RefreshTokenIssuer,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(RefreshTokenTTL)),
		},
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		slog.Error("refresh token signing failed", "error", err)
		return "", apierror.Internal(apierror.TypeConfig, "Error while signing the refresh token")
	}

	return signed, nil
}

// Issue mints a fresh token pair for a successfully authenticated user.
func (s *TokenService) Issue(ctx context.Context, user model.User) (TokenPair, error) {
	accessToken, err := s.SignAccessToken(user)
	if err != nil {
		return TokenPair{}, err
	}

	session, err := s.sessions.Create(ctx, user.ID, time.Now().UTC().Add(RefreshTokenTTL))
	if err != nil {
		slog.Error("persist refresh session failed", "error", err, "user_id", user.ID)
		return TokenPair{}, apierror.Internal(apierror.TypePersistence, "Failed to store the refresh session")
	}

	refreshToken, err := s.SignRefreshToken(user, session.ID)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Rotate replaces the presented refresh session with a new one. The new
// session is created before the old one is deleted; a crash in between leaves
// an extra session that simply expires, never a user with no valid session.
func (s *TokenService) Rotate(ctx context.Context, user model.User, oldSessionID string) (TokenPair, error) {
	pair, err := s.Issue(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.sessions.Delete(ctx, oldSessionID); err != nil {
		slog.Error("delete rotated session failed", "error", err, "session_id", oldSessionID)
		return TokenPair{}, apierror.Internal(apierror.TypePersistence, "Failed to rotate the refresh session")
	}

	return pair, nil
}

// Revoke deletes the session a refresh token points at. Revoking an unknown
// or already-revoked session is a no-op: the caller's goal is already met.
func (s *TokenService) Revoke(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		slog.Error("revoke session failed", "error", err, "session_id", sessionID)
		return apierror.Internal(apierror.TypePersistence, "Failed to revoke the refresh session")
	}
	return nil
}

// FindSession exposes session lookup for the refresh-token verifier, which
// must reject tokens whose backing session is gone.
func (s *TokenService) FindSession(ctx context.Context, id string) (model.Session, error) {
	return s.sessions.Find(ctx, id)
}

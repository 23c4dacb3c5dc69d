package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"auth-service/internal/keys"
	"auth-service/internal/model"
	"auth-service/internal/service"
	"auth-service/pkg/apierror"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

type contextKey string

const (
	authClaimsContextKey    contextKey = "auth_claims"
	refreshClaimsContextKey contextKey = "refresh_claims"
)

type AuthMiddleware struct {
	keys     keys.Provider
	sessions service.SessionStore
}

func NewAuthMiddleware(keyProvider keys.Provider, sessions service.SessionStore) *AuthMiddleware {
	return &AuthMiddleware{keys: keyProvider, sessions: sessions}
}

// RequireAuth verifies the access token (RS256) and attaches its claims to the
// request context. Every failure collapses to 401 for the client; the logs
// keep the distinction.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractAccessToken(r)
		if token == "" {
			slog.Debug("access token missing", "path", r.URL.Path)
			writeAuthError(w, apierror.Unauthenticated("Unauthorized"))
			return
		}

		claims := &service.Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			kid, _ := t.Header["kid"].(string)
			return m.keys.ResolvePublicKey(r.Context(), kid)
		}, jwt.WithExpirationRequired())
		if err != nil || !parsed.Valid {
			slog.Debug("access token rejected", "path", r.URL.Path, "error", err)
			writeAuthError(w, apierror.Unauthenticated("Unauthorized"))
			return
		}

		authClaims, err := toAuthClaims(claims)
		if err != nil {
			slog.Debug("access token claims malformed", "path", r.URL.Path, "error", err)
			writeAuthError(w, apierror.Unauthenticated("Unauthorized"))
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, authClaims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRefresh verifies the refresh token (HS256) from the refreshToken
// cookie and checks that its backing session still exists and belongs to the
// token's subject. A revoked or rotated token fails here.
func (m *AuthMiddleware) RequireRefresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(RefreshTokenCookie)
		if err != nil || cookie.Value == "" {
			slog.Debug("refresh token missing", "path", r.URL.Path)
			writeAuthError(w, apierror.Unauthenticated("Unauthorized"))
			return
		}

		secret, err := m.keys.RefreshSecret()
		if err != nil {
			slog.Error("refresh secret unavailable", "error", err)
			writeAuthError(w, apierror.Internal(apierror.TypeConfig, "Refresh token secret is not set"))
			return
		}

		claims := &service.Claims{}
		parsed, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return secret, nil
		}, jwt.WithExpirationRequired())
		if err != nil || !parsed.Valid {
			slog.Debug("refresh token rejected", "path", r.URL.Path, "error", err)
			writeAuthError(w, apierror.Unauthenticated("Unauthorized"))
			return
		}

		authClaims, err := toAuthClaims(claims)
		if err != nil || authClaims.SessionID == "" {
			slog.Debug("refresh token claims malformed", "path", r.URL.Path, "error", err)
			writeAuthError(w, apierror.Unauthenticated("Unauthorized"))
			return
		}

		session, err := m.sessions.Find(r.Context(), authClaims.SessionID)
		if err != nil || session.UserID != authClaims.UserID {
			slog.Debug("refresh session revoked or unknown",
				"path", r.URL.Path, "session_id", authClaims.SessionID)
			writeAuthError(w, apierror.Unauthenticated("Unauthorized"))
			return
		}

		ctx := context.WithValue(r.Context(), refreshClaimsContextKey, authClaims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles composes after RequireAuth. A denial is 403: the caller is
// known, just not allowed, which is distinct from the verifier's 401.
func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeAuthError(w, apierror.Unauthenticated("Unauthorized"))
				return
			}

			if !model.CanAccess(allowedRoles, claims.Role) {
				writeAuthError(w, apierror.Forbidden("You don't have enough permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(model.AuthClaims)
	return claims, ok
}

func RefreshClaimsFromContext(ctx context.Context) (model.AuthClaims, bool) {
	claims, ok := ctx.Value(refreshClaimsContextKey).(model.AuthClaims)
	return claims, ok
}

// extractAccessToken prefers the Authorization header, unless its token part
// is empty or the literal string "undefined" (misconfigured clients serialize
// a missing token that way), then falls back to the access-token cookie.
func extractAccessToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token := strings.TrimSpace(parts[1])
			if token != "" && token != "undefined" {
				return token
			}
		}
	}

	cookie, err := r.Cookie(AccessTokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func toAuthClaims(claims *service.Claims) (model.AuthClaims, error) {
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return model.AuthClaims{}, err
	}

	return model.AuthClaims{
		UserID:    userID,
		Role:      claims.Role,
		SessionID: claims.ID,
	}, nil
}

func writeAuthError(w http.ResponseWriter, apiErr *apierror.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []*apierror.APIError{apiErr},
	})
}

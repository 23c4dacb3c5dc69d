package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"auth-service/internal/metrics"
	"auth-service/internal/middleware"
	"auth-service/internal/model"
	"auth-service/internal/service"
	"auth-service/pkg/apierror"
)

// loginMismatchMessage is deliberately the same for an unknown email and a
// wrong password, so responses cannot be used to enumerate accounts.
const loginMismatchMessage = "Email or password does not match"

type AuthHandler struct {
	users        *service.UserService
	credentials  *service.CredentialService
	tokens       *service.TokenService
	metrics      metrics.Recorder
	cookieDomain string
}

func NewAuthHandler(
	users *service.UserService,
	credentials *service.CredentialService,
	tokens *service.TokenService,
	recorder metrics.Recorder,
	cookieDomain string,
) *AuthHandler {
	return &AuthHandler{
		users:        users,
		credentials:  credentials,
		tokens:       tokens,
		metrics:      recorder,
		cookieDomain: cookieDomain,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("Invalid JSON body"))
		return
	}

	if fieldErrors := validateRegister(&payload); len(fieldErrors) > 0 {
		writeFieldErrors(w, fieldErrors)
		return
	}

	slog.Debug("new request to register a user", "email", payload.Email)

	user, err := h.users.Create(r.Context(), model.User{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Role:      model.RoleCustomer,
	}, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.tokens.Issue(r.Context(), user)
	if err != nil {
		// No cookies on a failed issuance: the client must not end up holding
		// a half-issued credential pair.
		writeError(w, err)
		return
	}

	h.metrics.RecordRegistration()
	h.metrics.RecordTokenIssued("access")
	h.metrics.RecordTokenIssued("refresh")

	h.setAuthCookies(w, pair)
	slog.Info("user has been registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": user.ID})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("Invalid JSON body"))
		return
	}

	if fieldErrors := validateLogin(&payload); len(fieldErrors) > 0 {
		writeFieldErrors(w, fieldErrors)
		return
	}

	user, err := h.users.FindByEmail(r.Context(), payload.Email)
	if errors.Is(err, model.ErrUserNotFound) {
		h.metrics.RecordLogin(false)
		writeError(w, apierror.BadRequest(loginMismatchMessage))
		return
	}
	if err != nil {
		writeError(w, apierror.Internal(apierror.TypePersistence, "Failed to read the user from the database"))
		return
	}

	if !h.credentials.ComparePassword(payload.Password, user.PasswordHash) {
		h.metrics.RecordLogin(false)
		writeError(w, apierror.BadRequest(loginMismatchMessage))
		return
	}

	pair, err := h.tokens.Issue(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	h.metrics.RecordLogin(true)
	h.metrics.RecordTokenIssued("access")
	h.metrics.RecordTokenIssued("refresh")

	h.setAuthCookies(w, pair)
	slog.Info("user has been logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]int64{"id": user.ID})
}

func (h *AuthHandler) Self(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("Unauthorized"))
		return
	}

	user, err := h.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.RefreshClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("Unauthorized"))
		return
	}

	user, err := h.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, apierror.Unauthenticated("User with this token could not be found"))
		return
	}

	pair, err := h.tokens.Rotate(r.Context(), user, claims.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.metrics.RecordRotation()
	h.metrics.RecordTokenIssued("access")
	h.metrics.RecordTokenIssued("refresh")

	h.setAuthCookies(w, pair)
	slog.Info("assigned new access token", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]int64{"id": user.ID})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.RefreshClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("Unauthorized"))
		return
	}

	if err := h.tokens.Revoke(r.Context(), claims.SessionID); err != nil {
		writeError(w, err)
		return
	}

	h.metrics.RecordRevocation()

	h.clearAuthCookies(w)
	slog.Info("user has been logged out", "user_id", claims.UserID)
	writeJSON(w, http.StatusOK, map[string]any{})
}

// setAuthCookies writes both token cookies. Max-ages equal the token expiries
// exactly, so a cookie never outlives its token or dies before it.
func (h *AuthHandler) setAuthCookies(w http.ResponseWriter, pair service.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   int(service.AccessTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   int(service.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   h.cookieDomain,
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

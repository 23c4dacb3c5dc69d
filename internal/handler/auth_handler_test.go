package handler_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"auth-service/internal/config"
	"auth-service/internal/handler"
	"auth-service/internal/keys"
	"auth-service/internal/metrics"
	"auth-service/internal/middleware"
	"auth-service/internal/model"
	"auth-service/internal/repository"
	"auth-service/internal/router"
	"auth-service/internal/service"
)

type fixture struct {
	server   *httptest.Server
	users    *repository.MemoryUserRepository
	sessions *repository.MemorySessionRepository
	creds    *service.CredentialService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	private, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	material := &keys.Static{
		Private: private,
		ID:      "test-key-1",
		Secret:  []byte("test-refresh-secret"),
	}

	users := repository.NewMemoryUserRepository()
	tenants := repository.NewMemoryTenantRepository()
	sessions := repository.NewMemorySessionRepository()

	collector := metrics.NewCollector()
	credentialService := service.NewCredentialService()
	tokenService := service.NewTokenService(material, sessions)
	userService := service.NewUserService(users, credentialService)
	tenantService := service.NewTenantService(tenants)

	authMiddleware := middleware.NewAuthMiddleware(material, sessions)

	cfg := &config.Config{
		CookieDomain:     "localhost",
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
	}

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:    handler.NewAuthHandler(userService, credentialService, tokenService, collector, cfg.CookieDomain),
		Tenant:  handler.NewTenantHandler(tenantService),
		User:    handler.NewUserHandler(userService),
		Metrics: collector.Handler(),
	})

	server := httptest.NewServer(appRouter)
	t.Cleanup(server.Close)

	return &fixture{server: server, users: users, sessions: sessions, creds: credentialService}
}

func (f *fixture) postJSON(t *testing.T, path string, payload any, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (f *fixture) get(t *testing.T, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, f.server.URL+path, nil)
	require.NoError(t, err)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func registerPayload() map[string]string {
	return map[string]string{
		"firstName": "John",
		"lastName":  "Doe",
		"email":     "john@x.com",
		"password":  "secret",
	}
}

func (f *fixture) seedAdmin(t *testing.T) {
	t.Helper()

	hash, err := f.creds.HashPassword("admin-password")
	require.NoError(t, err)

	_, err = f.users.Create(context.Background(), model.User{
		FirstName:    "Ada",
		LastName:     "Admin",
		Email:        "admin@x.com",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	})
	require.NoError(t, err)
}

func TestRegisterSetsCookiesAndReturnsID(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/auth/register", registerPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Positive(t, body.ID)

	access := cookieByName(resp, "accessToken")
	require.NotNil(t, access)
	require.True(t, access.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, access.SameSite)
	require.Equal(t, 3600, access.MaxAge)
	require.NotEmpty(t, access.Value)

	refresh := cookieByName(resp, "refreshToken")
	require.NotNil(t, refresh)
	require.True(t, refresh.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, refresh.SameSite)
	require.Equal(t, 86400, refresh.MaxAge)
	require.NotEmpty(t, refresh.Value)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/auth/register", registerPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.postJSON(t, "/auth/register", registerPayload())
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "Email already in use")
	require.Empty(t, resp.Cookies())
}

func TestRegisterValidationErrors(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/auth/register", map[string]string{
		"firstName": "",
		"lastName":  "Doe",
		"email":     "not-an-email",
		"password":  "tiny",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var parsed struct {
		Errors []struct {
			Type     string `json:"type"`
			Message  string `json:"message"`
			Path     string `json:"path"`
			Location string `json:"location"`
		} `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.Len(t, parsed.Errors, 3)
	for _, e := range parsed.Errors {
		require.Equal(t, "ValidationError", e.Type)
		require.Equal(t, "body", e.Location)
	}
	require.Empty(t, resp.Cookies())
}

func TestLoginGenericMismatch(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/auth/register", registerPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	wrongPassword := f.postJSON(t, "/auth/login", map[string]string{
		"email":    "john@x.com",
		"password": "not-the-password",
	})
	require.Equal(t, http.StatusBadRequest, wrongPassword.StatusCode)
	wrongPasswordBody, err := io.ReadAll(wrongPassword.Body)
	require.NoError(t, err)
	require.Empty(t, wrongPassword.Cookies())

	unknownEmail := f.postJSON(t, "/auth/login", map[string]string{
		"email":    "nobody@x.com",
		"password": "whatever-pass",
	})
	require.Equal(t, http.StatusBadRequest, unknownEmail.StatusCode)
	unknownEmailBody, err := io.ReadAll(unknownEmail.Body)
	require.NoError(t, err)
	require.Empty(t, unknownEmail.Cookies())

	// Byte-for-byte identical responses: the client cannot tell an unknown
	// email from a wrong password.
	require.Equal(t, string(wrongPasswordBody), string(unknownEmailBody))
	require.Contains(t, string(wrongPasswordBody), "Email or password does not match")
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/auth/register", registerPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	login := f.postJSON(t, "/auth/login", map[string]string{
		"email":    "john@x.com",
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, login.StatusCode)
	require.NotNil(t, cookieByName(login, "accessToken"))
	require.NotNil(t, cookieByName(login, "refreshToken"))
}

func TestSelfRequiresToken(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/auth/self")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSelfReturnsUserWithoutPassword(t *testing.T) {
	f := newFixture(t)

	register := f.postJSON(t, "/auth/register", registerPayload())
	require.Equal(t, http.StatusCreated, register.StatusCode)
	access := cookieByName(register, "accessToken")

	resp := f.get(t, "/auth/self", access)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "john@x.com")
	require.NotContains(t, string(body), "password")
	require.NotContains(t, string(body), "$2")
}

func TestRoleGateOnTenantRoutes(t *testing.T) {
	f := newFixture(t)
	f.seedAdmin(t)

	// A customer is authenticated but not allowed: 403, not 401.
	register := f.postJSON(t, "/auth/register", registerPayload())
	require.Equal(t, http.StatusCreated, register.StatusCode)
	customerAccess := cookieByName(register, "accessToken")

	resp := f.get(t, "/tenants", customerAccess)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	login := f.postJSON(t, "/auth/login", map[string]string{
		"email":    "admin@x.com",
		"password": "admin-password",
	})
	require.Equal(t, http.StatusOK, login.StatusCode)
	adminAccess := cookieByName(login, "accessToken")

	resp = f.get(t, "/tenants", adminAccess)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	created := f.postJSON(t, "/tenants", map[string]string{
		"name":    "Acme",
		"address": "1 Main St",
	}, adminAccess)
	require.Equal(t, http.StatusCreated, created.StatusCode)
}

func TestRefreshRotatesAndInvalidatesOldToken(t *testing.T) {
	f := newFixture(t)

	register := f.postJSON(t, "/auth/register", registerPayload())
	require.Equal(t, http.StatusCreated, register.StatusCode)
	oldRefresh := cookieByName(register, "refreshToken")
	require.NotNil(t, oldRefresh)

	first := f.postJSON(t, "/auth/refresh", map[string]string{}, oldRefresh)
	require.Equal(t, http.StatusOK, first.StatusCode)
	newRefresh := cookieByName(first, "refreshToken")
	require.NotNil(t, newRefresh)
	require.NotEqual(t, oldRefresh.Value, newRefresh.Value)

	// The first rotation deleted the old session; replaying the old token
	// must fail instead of silently minting another pair.
	second := f.postJSON(t, "/auth/refresh", map[string]string{}, oldRefresh)
	require.Equal(t, http.StatusUnauthorized, second.StatusCode)
	require.Empty(t, second.Cookies())

	third := f.postJSON(t, "/auth/refresh", map[string]string{}, newRefresh)
	require.Equal(t, http.StatusOK, third.StatusCode)
}

func TestLogoutClearsCookiesAndRevokesSession(t *testing.T) {
	f := newFixture(t)

	register := f.postJSON(t, "/auth/register", registerPayload())
	require.Equal(t, http.StatusCreated, register.StatusCode)
	refresh := cookieByName(register, "refreshToken")
	require.Equal(t, 1, f.sessions.Len())

	logout := f.postJSON(t, "/auth/logout", map[string]string{}, refresh)
	require.Equal(t, http.StatusOK, logout.StatusCode)
	require.Equal(t, 0, f.sessions.Len())

	for _, name := range []string{"accessToken", "refreshToken"} {
		cleared := cookieByName(logout, name)
		require.NotNil(t, cleared)
		require.Empty(t, cleared.Value)
		require.Negative(t, cleared.MaxAge)
	}

	// The session is gone, so the replayed refresh token no longer
	// authenticates the logout route.
	again := f.postJSON(t, "/auth/logout", map[string]string{}, refresh)
	require.Equal(t, http.StatusUnauthorized, again.StatusCode)
}

func TestRootAndHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "Welcome to Auth-Service", string(body))

	resp = f.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	register := f.postJSON(t, "/auth/register", registerPayload())
	require.Equal(t, http.StatusCreated, register.StatusCode)

	resp := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "auth_registrations_total 1")
}

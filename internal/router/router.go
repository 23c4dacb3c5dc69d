package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"auth-service/internal/config"
	"auth-service/internal/handler"
	"auth-service/internal/middleware"
	"auth-service/internal/model"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Tenant  *handler.TenantHandler
	User    *handler.UserHandler
	Metrics http.Handler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, handlers Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Welcome to Auth-Service"))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if handlers.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", handlers.Metrics)
	}

	r.Route("/auth", func(auth chi.Router) {
		auth.Post("/register", handlers.Auth.Register)
		auth.Post("/login", handlers.Auth.Login)
		auth.With(authMiddleware.RequireAuth).Get("/self", handlers.Auth.Self)
		auth.With(authMiddleware.RequireRefresh).Post("/refresh", handlers.Auth.Refresh)
		auth.With(authMiddleware.RequireRefresh).Post("/logout", handlers.Auth.Logout)
	})

	r.Route("/tenants", func(tenants chi.Router) {
		tenants.Use(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin))
		tenants.Post("/", handlers.Tenant.Create)
		tenants.Get("/", handlers.Tenant.GetAll)
		tenants.Get("/{id}", handlers.Tenant.GetOne)
		tenants.Patch("/{id}", handlers.Tenant.Update)
		tenants.Delete("/{id}", handlers.Tenant.Delete)
	})

	r.Route("/users", func(users chi.Router) {
		users.Use(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin))
		users.Post("/", handlers.User.Create)
		users.Get("/", handlers.User.GetAll)
		users.Get("/{id}", handlers.User.GetOne)
		users.Patch("/{id}", handlers.User.Update)
		users.Delete("/{id}", handlers.User.Delete)
	})

	return r
}

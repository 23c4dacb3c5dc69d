package service

import (
	"context"
	"time"

	"auth-service/internal/model"
)

// Store interfaces are declared on the consumer side so the services can run
// against the pgx repositories in production and the in-memory ones in tests.

type UserStore interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	Update(ctx context.Context, user model.User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.User, error)
}

type TenantStore interface {
	Create(ctx context.Context, tenant model.Tenant) (model.Tenant, error)
	FindByID(ctx context.Context, id int64) (model.Tenant, error)
	Update(ctx context.Context, tenant model.Tenant) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.Tenant, error)
}

// SessionStore persists refresh sessions. There is deliberately no update:
// rotation creates the replacement session before deleting the old one, so a
// failure in between leaves at most a harmless orphan that expires on its own.
type SessionStore interface {
	Create(ctx context.Context, userID int64, expiresAt time.Time) (model.Session, error)
	Find(ctx context.Context, id string) (model.Session, error)
	// Delete is idempotent: deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error
}

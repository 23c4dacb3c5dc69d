package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"auth-service/internal/model"
	"auth-service/pkg/apierror"
)

type UserService struct {
	users       UserStore
	credentials *CredentialService
}

func NewUserService(users UserStore, credentials *CredentialService) *UserService {
	return &UserService{users: users, credentials: credentials}
}

// Create hashes the password and persists the user. The plaintext password is
// never written anywhere; a hashing failure aborts the whole operation.
func (s *UserService) Create(ctx context.Context, user model.User, password string) (model.User, error) {
	hash, err := s.credentials.HashPassword(password)
	if err != nil {
		slog.Error("password hashing failed", "error", err)
		return model.User{}, apierror.Internal(apierror.TypeInternal, "Failed to process the password")
	}
	user.PasswordHash = hash

	created, err := s.users.Create(ctx, user)
	if errors.Is(err, model.ErrDuplicateEmail) {
		return model.User{}, apierror.New(apierror.TypeValidation, "Email already in use", http.StatusBadRequest)
	}
	if err != nil {
		slog.Error("persist user failed", "error", err)
		return model.User{}, apierror.Internal(apierror.TypePersistence, "Failed to store the data in the database")
	}

	return created, nil
}

// FindByEmail returns model.ErrUserNotFound when no user has the email. The
// login handler folds that into the generic credentials-mismatch response.
func (s *UserService) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return s.users.FindByEmail(ctx, email)
}

func (s *UserService) FindByID(ctx context.Context, id int64) (model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.NotFound("User not found")
	}
	if err != nil {
		return model.User{}, apierror.Internal(apierror.TypePersistence, "Failed to read the user from the database")
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, user model.User) error {
	err := s.users.Update(ctx, user)
	if errors.Is(err, model.ErrUserNotFound) {
		return apierror.NotFound("User not found")
	}
	if errors.Is(err, model.ErrDuplicateEmail) {
		return apierror.New(apierror.TypeValidation, "Email already in use", http.StatusBadRequest)
	}
	if err != nil {
		slog.Error("update user failed", "error", err, "user_id", user.ID)
		return apierror.Internal(apierror.TypePersistence, "Failed to update the user in the database")
	}
	return nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return apierror.NotFound("User not found")
	}
	if err != nil {
		slog.Error("delete user failed", "error", err, "user_id", id)
		return apierror.Internal(apierror.TypePersistence, "Failed to delete the user from the database")
	}
	return nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		slog.Error("list users failed", "error", err)
		return nil, apierror.Internal(apierror.TypePersistence, "Failed to list the users")
	}
	return users, nil
}

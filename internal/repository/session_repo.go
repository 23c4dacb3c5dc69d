package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"auth-service/internal/model"
)

// SessionRepository persists refresh sessions, one row per live refresh token.
// Rows are only ever inserted and deleted; rotation never updates in place.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, userID int64, expiresAt time.Time) (model.Session, error) {
	session := model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_sessions (id, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		session.ID, session.UserID, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return model.Session{}, fmt.Errorf("create refresh session: %w", err)
	}
	return session, nil
}

// Find returns live sessions only; an expired row is as good as deleted.
func (r *SessionRepository) Find(ctx context.Context, id string) (model.Session, error) {
	var s model.Session
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, expires_at, created_at
		 FROM refresh_sessions WHERE id = $1 AND expires_at > now()`, id).
		Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Session{}, model.ErrSessionNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("find refresh session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete refresh session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions whose tokens can no longer pass verification
// anyway. Find already ignores expired rows, so this is purely housekeeping.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

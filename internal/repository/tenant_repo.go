package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"auth-service/internal/model"
)

type TenantRepository struct {
	pool *pgxpool.Pool
}

func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

func (r *TenantRepository) Create(ctx context.Context, t model.Tenant) (model.Tenant, error) {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	err := r.pool.QueryRow(ctx,
		`INSERT INTO tenants (name, address, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		t.Name, t.Address, t.CreatedAt, t.UpdatedAt).
		Scan(&t.ID)
	if err != nil {
		return model.Tenant{}, fmt.Errorf("create tenant: %w", err)
	}
	return t, nil
}

func (r *TenantRepository) FindByID(ctx context.Context, id int64) (model.Tenant, error) {
	var t model.Tenant
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, address, created_at, updated_at FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Address, &t.CreatedAt, &t.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Tenant{}, model.ErrTenantNotFound
	}
	if err != nil {
		return model.Tenant{}, fmt.Errorf("find tenant by id: %w", err)
	}
	return t, nil
}

func (r *TenantRepository) Update(ctx context.Context, t model.Tenant) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, address = $3, updated_at = $4 WHERE id = $1`,
		t.ID, t.Name, t.Address, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTenantNotFound
	}
	return nil
}

func (r *TenantRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTenantNotFound
	}
	return nil
}

func (r *TenantRepository) List(ctx context.Context) ([]model.Tenant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, address, created_at, updated_at FROM tenants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	tenants := make([]model.Tenant, 0)
	for rows.Next() {
		var t model.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Address, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

package service

import (
	"context"
	"errors"
	"log/slog"

	"auth-service/internal/model"
	"auth-service/pkg/apierror"
)

type TenantService struct {
	tenants TenantStore
}

func NewTenantService(tenants TenantStore) *TenantService {
	return &TenantService{tenants: tenants}
}

func (s *TenantService) Create(ctx context.Context, tenant model.Tenant) (model.Tenant, error) {
	created, err := s.tenants.Create(ctx, tenant)
	if err != nil {
		slog.Error("persist tenant failed", "error", err)
		return model.Tenant{}, apierror.Internal(apierror.TypePersistence, "Failed to store the data in the database")
	}
	return created, nil
}

func (s *TenantService) GetOne(ctx context.Context, id int64) (model.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, id)
	if errors.Is(err, model.ErrTenantNotFound) {
		return model.Tenant{}, apierror.NotFound("Tenant not found")
	}
	if err != nil {
		return model.Tenant{}, apierror.Internal(apierror.TypePersistence, "Failed to read the tenant from the database")
	}
	return tenant, nil
}

func (s *TenantService) GetAll(ctx context.Context) ([]model.Tenant, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		slog.Error("list tenants failed", "error", err)
		return nil, apierror.Internal(apierror.TypePersistence, "Failed to list the tenants")
	}
	return tenants, nil
}

func (s *TenantService) Update(ctx context.Context, tenant model.Tenant) error {
	err := s.tenants.Update(ctx, tenant)
	if errors.Is(err, model.ErrTenantNotFound) {
		return apierror.NotFound("Tenant not found")
	}
	if err != nil {
		slog.Error("update tenant failed", "error", err, "tenant_id", tenant.ID)
		return apierror.Internal(apierror.TypePersistence, "Failed to update the tenant in the database")
	}
	return nil
}

func (s *TenantService) Delete(ctx context.Context, id int64) error {
	err := s.tenants.Delete(ctx, id)
	if errors.Is(err, model.ErrTenantNotFound) {
		return apierror.NotFound("Tenant not found")
	}
	if err != nil {
		slog.Error("delete tenant failed", "error", err, "tenant_id", id)
		return apierror.Internal(apierror.TypePersistence, "Failed to delete the tenant from the database")
	}
	return nil
}

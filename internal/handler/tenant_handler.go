package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"auth-service/internal/model"
	"auth-service/internal/service"
	"auth-service/pkg/apierror"
)

type TenantHandler struct {
	tenants *service.TenantService
}

func NewTenantHandler(tenants *service.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.TenantRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("Invalid JSON body"))
		return
	}

	if fieldErrors := validateTenant(&payload); len(fieldErrors) > 0 {
		writeFieldErrors(w, fieldErrors)
		return
	}

	tenant, err := h.tenants.Create(r.Context(), model.Tenant{
		Name:    payload.Name,
		Address: payload.Address,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("tenant has been created", "tenant_id", tenant.ID)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": tenant.ID})
}

func (h *TenantHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tenants)
}

func (h *TenantHandler) GetOne(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, apierror.BadRequest("Invalid tenant id"))
		return
	}

	tenant, err := h.tenants.GetOne(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tenant)
}

func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	id, err := pathID(r)
	if err != nil {
		writeError(w, apierror.BadRequest("Invalid tenant id"))
		return
	}

	var payload model.TenantRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("Invalid JSON body"))
		return
	}

	if fieldErrors := validateTenant(&payload); len(fieldErrors) > 0 {
		writeFieldErrors(w, fieldErrors)
		return
	}

	tenant := model.Tenant{ID: id, Name: payload.Name, Address: payload.Address}
	if err := h.tenants.Update(r.Context(), tenant); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tenant)
}

func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, apierror.BadRequest("Invalid tenant id"))
		return
	}

	if err := h.tenants.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("tenant has been deleted", "tenant_id", id)
	writeJSON(w, http.StatusOK, map[string]any{})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

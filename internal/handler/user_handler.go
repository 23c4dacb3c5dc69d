package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"auth-service/internal/model"
	"auth-service/internal/service"
	"auth-service/pkg/apierror"
)

// UserHandler covers the admin-side user management: admins create manager
// accounts for tenants and maintain existing users.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("Invalid JSON body"))
		return
	}

	registerShape := model.RegisterRequest{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
	}
	if fieldErrors := validateRegister(&registerShape); len(fieldErrors) > 0 {
		writeFieldErrors(w, fieldErrors)
		return
	}

	user, err := h.users.Create(r.Context(), model.User{
		FirstName: registerShape.FirstName,
		LastName:  registerShape.LastName,
		Email:     registerShape.Email,
		Role:      model.RoleManager,
		TenantID:  payload.TenantID,
	}, registerShape.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("user has been created", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": user.ID})
}

func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetOne(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, apierror.BadRequest("Invalid user id"))
		return
	}

	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	id, err := pathID(r)
	if err != nil {
		writeError(w, apierror.BadRequest("Invalid user id"))
		return
	}

	var payload model.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("Invalid JSON body"))
		return
	}

	payload.Role = strings.TrimSpace(payload.Role)
	if payload.Role != "" && !model.ValidRole(payload.Role) {
		writeFieldErrors(w, []*apierror.APIError{apierror.NewField("Invalid role", "role")})
		return
	}
	if fieldErrors := validateEmail(strings.TrimSpace(payload.Email)); len(fieldErrors) > 0 {
		writeFieldErrors(w, fieldErrors)
		return
	}

	existing, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	existing.FirstName = strings.TrimSpace(payload.FirstName)
	existing.LastName = strings.TrimSpace(payload.LastName)
	existing.Email = strings.TrimSpace(payload.Email)
	if payload.Role != "" {
		existing.Role = payload.Role
	}
	existing.TenantID = payload.TenantID

	if err := h.users.Update(r.Context(), existing); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, apierror.BadRequest("Invalid user id"))
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("user has been deleted", "user_id", id)
	writeJSON(w, http.StatusOK, map[string]any{})
}

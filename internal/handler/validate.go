package handler

import (
	"net/mail"
	"strings"

	"auth-service/internal/model"
	"auth-service/pkg/apierror"
)

// Field-level request validation. The messages and the per-field error shape
// are part of the boundary contract, so they live here rather than in a
// validation framework.

func validateRegister(req *model.RegisterRequest) []*apierror.APIError {
	var fieldErrors []*apierror.APIError

	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Password = strings.TrimSpace(req.Password)

	fieldErrors = append(fieldErrors, validateEmail(req.Email)...)
	if req.FirstName == "" {
		fieldErrors = append(fieldErrors, apierror.NewField("First name is missing", "firstName"))
	}
	if req.LastName == "" {
		fieldErrors = append(fieldErrors, apierror.NewField("Last name is missing", "lastName"))
	}
	switch {
	case req.Password == "":
		fieldErrors = append(fieldErrors, apierror.NewField("Password is missing", "password"))
	case len(req.Password) < 6:
		fieldErrors = append(fieldErrors, apierror.NewField("Password length should be 6 chars", "password"))
	}

	return fieldErrors
}

func validateLogin(req *model.LoginRequest) []*apierror.APIError {
	var fieldErrors []*apierror.APIError

	req.Email = strings.TrimSpace(req.Email)
	req.Password = strings.TrimSpace(req.Password)

	fieldErrors = append(fieldErrors, validateEmail(req.Email)...)
	if req.Password == "" {
		fieldErrors = append(fieldErrors, apierror.NewField("Password is missing", "password"))
	}

	return fieldErrors
}

func validateTenant(req *model.TenantRequest) []*apierror.APIError {
	var fieldErrors []*apierror.APIError

	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)

	if req.Name == "" {
		fieldErrors = append(fieldErrors, apierror.NewField("Tenant name is required", "name"))
	}
	if req.Address == "" {
		fieldErrors = append(fieldErrors, apierror.NewField("Tenant address is required", "address"))
	}

	return fieldErrors
}

func validateEmail(email string) []*apierror.APIError {
	if email == "" {
		return []*apierror.APIError{apierror.NewField("Email is required", "email")}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return []*apierror.APIError{apierror.NewField("Invalid email id", "email")}
	}
	return nil
}

package model

import "errors"

var (
	// User related errors
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")

	// Tenant related errors
	ErrTenantNotFound = errors.New("tenant not found")

	// Refresh session related errors
	ErrSessionNotFound = errors.New("session not found")
)

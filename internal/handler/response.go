package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"auth-service/pkg/apierror"
)

type errorResponse struct {
	Errors []*apierror.APIError `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError renders the boundary error shape. Internal error detail never
// reaches the client; anything that is not an *APIError becomes a generic 500.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) {
		slog.Error("unhandled error", "error", err)
		apiErr = apierror.Internal(apierror.TypeInternal, "Something went wrong")
	}

	writeJSON(w, apiErr.HTTPStatus, errorResponse{Errors: []*apierror.APIError{apiErr}})
}

func writeFieldErrors(w http.ResponseWriter, fieldErrors []*apierror.APIError) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Errors: fieldErrors})
}

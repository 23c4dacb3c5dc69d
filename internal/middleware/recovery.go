package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"auth-service/pkg/apierror"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				slog.Error("panic recovered", "error", fmt.Sprintf("%v", recovered), "stack", string(debug.Stack()))
				writeAuthError(w, apierror.Internal(apierror.TypeInternal, "Something went wrong"))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"net/http"

	"github.com/phrazzld/vocab-trainer/internal/api/shared"
)

// MsgNotReady is shown while the user state could not be loaded.
const MsgNotReady = "Failed to load user data. Please try again later."

// Readiness reports whether the user state has been loaded.
type Readiness interface {
	Ready() bool
}

// RequireReady answers 503 until the user state is loaded.
func RequireReady(r Readiness) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !r.Ready() {
				shared.RespondWithError(w, req, http.StatusServiceUnavailable, MsgNotReady)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/authpractice/userauth/internal/logger"
)

// Recover turns a panic into the generic error page.
func Recover(render StatusPageFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Log.Error("panic while serving request",
						"panic", rec,
						"path", r.URL.Path,
						"request_id", RequestID(r),
						"stack", string(debug.Stack()))
					render(w, r, http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestID returns the id assigned by chi's RequestID middleware, or "".
func RequestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

package router

import (
	"net/http"

	"github.com/authpractice/userauth/internal/middleware/metrics"
	"github.com/authpractice/userauth/internal/setup"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	mw "github.com/authpractice/userauth/internal/middleware"
)

// Pages are server rendered with no scripts; inline styles only.
const csp = "default-src 'self'; script-src 'none'; style-src 'self' 'unsafe-inline'; form-action 'self'; frame-ancestors 'none'"

// New creates and configures a new chi router with all the routes.
func New(deps *setup.Dependencies) http.Handler {
	h := deps.Handler
	guard := deps.Guard
	public := deps.Config.Public

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(metrics.Middleware)
	r.Use(mw.Recover(h.RenderStatus))
	r.Use(mw.SecurityHeadersWithCSP(public.SecureCookies, csp))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   public.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Probes skip the session lookup
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(guard.Load())

		r.Get("/", h.RootHandler)
		r.Get("/welcome", h.WelcomeHandler)
		r.Get("/signup", h.SignupGetHandler)
		r.Post("/signup", h.SignupPostHandler)
		r.Get("/login", h.LoginGetHandler)
		r.Post("/login", h.LoginPostHandler)
		r.Get("/logout", h.LogoutHandler)

		r.With(guard.NeedAuth()).Get("/profile", h.ProfileHandler)
		r.With(guard.AdminOnly()).Get("/admin", h.AdminHandler)
	})

	// session-aware so the nav bar matches the visitor
	r.NotFound(guard.Load()(http.HandlerFunc(h.NotFoundHandler)).ServeHTTP)

	return r
}

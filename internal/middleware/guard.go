package middleware

import (
	"context"
	"net/http"

	"github.com/authpractice/userauth/internal/domain"
	internal_errors "github.com/authpractice/userauth/internal/errors"
	"github.com/authpractice/userauth/internal/logger"
)

type key int

const (
	sessionKey key = iota
	authKey
)

type SessionManager interface {
	Load(r *http.Request) (*domain.Session, error)
	Save(ctx context.Context, w http.ResponseWriter, sess *domain.Session) error
}

type UserLookup interface {
	UserById(ctx context.Context, id domain.UserId) (domain.User, error)
}

// StatusPageFunc renders the page for a 401, 403 or 500 outcome.
type StatusPageFunc func(w http.ResponseWriter, r *http.Request, status int)

// Guard resolves the authorization context of every request.
type Guard struct {
	sessions SessionManager
	users    UserLookup
	render   StatusPageFunc
}

func NewGuard(sessions SessionManager, users UserLookup, render StatusPageFunc) *Guard {
	return &Guard{sessions: sessions, users: users, render: render}
}

// Load attaches the session and the AuthContext to the request. Anonymous
// requests pass through; authorization is left to NeedAuth/AdminOnly.
func (g *Guard) Load() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := g.sessions.Load(r)
			if err != nil {
				logger.Log.Error("failed to load session", "error", err, "request_id", RequestID(r))
				g.render(w, r, http.StatusInternalServerError)
				return
			}

			auth, err := g.resolve(w, r, sess)
			if err != nil {
				logger.Log.Error("failed to resolve user", "error", err, "request_id", RequestID(r))
				g.render(w, r, http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			ctx = context.WithValue(ctx, authKey, auth)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolve re-reads the live user so admin changes apply without re-login.
func (g *Guard) resolve(w http.ResponseWriter, r *http.Request, sess *domain.Session) (domain.AuthContext, error) {
	if !sess.Authenticated() {
		return domain.AuthContext{}, nil
	}

	live, err := g.users.UserById(r.Context(), sess.User.Id)
	if err != nil {
		if !internal_errors.IsNotFound(err) {
			return domain.AuthContext{}, err
		}
		// user deleted out of band: drop the stale login
		logger.Log.Warn("session references missing user", "user_id", sess.User.Id)
		sess.User = nil
		sess.IsAuthenticated = false
		if err := g.sessions.Save(r.Context(), w, sess); err != nil {
			return domain.AuthContext{}, err
		}
		return domain.AuthContext{}, nil
	}

	return domain.AuthContext{IsAuth: true, IsAdmin: live.Admin, User: sess.User}, nil
}

// NeedAuth renders 401 unless the request is authenticated.
func (g *Guard) NeedAuth() func(http.Handler) http.Handler {
	return g.require(false)
}

// AdminOnly renders 401 for anonymous requests and 403 for non-admins.
func (g *Guard) AdminOnly() func(http.Handler) http.Handler {
	return g.require(true)
}

func (g *Guard) require(adminOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := AuthFromContext(r)
			if !auth.IsAuth {
				g.render(w, r, http.StatusUnauthorized)
				return
			}
			if adminOnly && !auth.IsAdmin {
				g.render(w, r, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext returns the request session, or a fresh one when the
// guard did not run.
func SessionFromContext(r *http.Request) *domain.Session {
	sess, ok := r.Context().Value(sessionKey).(*domain.Session)
	if !ok {
		return &domain.Session{}
	}
	return sess
}

// AuthFromContext returns the AuthContext computed by Guard.Load.
func AuthFromContext(r *http.Request) domain.AuthContext {
	auth, _ := r.Context().Value(authKey).(domain.AuthContext)
	return auth
}

// WithSession returns a copy of ctx carrying sess and auth. Used by tests and
// by handlers that need to run without the guard.
func WithSession(ctx context.Context, sess *domain.Session, auth domain.AuthContext) context.Context {
	ctx = context.WithValue(ctx, sessionKey, sess)
	return context.WithValue(ctx, authKey, auth)
}

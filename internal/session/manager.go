package session

import (
	"context"
	"net/http"
	"time"

	"github.com/authpractice/userauth/internal/domain"
	"github.com/authpractice/userauth/internal/logger"
	"github.com/authpractice/userauth/internal/utils"
)

const CookieName = "sid"

// Manager moves sessions between the request cookie and the Store.
type Manager struct {
	store         Store
	ttl           time.Duration
	secureCookies bool
}

func NewManager(store Store, ttl time.Duration, secureCookies bool) *Manager {
	return &Manager{store: store, ttl: ttl, secureCookies: secureCookies}
}

// Load returns the session referenced by the request cookie, or a fresh
// unsaved session when there is no cookie or the store does not know it.
func (m *Manager) Load(r *http.Request) (*domain.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return &domain.Session{}, nil
	}
	sess, err := m.store.Get(r.Context(), cookie.Value)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return &domain.Session{}, nil
	}
	return sess, nil
}

// Save persists sess, issuing a token on first write, and (re)sets the
// cookie so the expiry slides with every write.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *domain.Session) error {
	if sess.IsNew() {
		sess.Token = utils.GenerateSessionToken()
	}
	if err := m.store.Save(ctx, sess, m.ttl); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Regenerate moves sess to a fresh token and drops the old record. Used when
// the privilege level of the session changes.
func (m *Manager) Regenerate(ctx context.Context, w http.ResponseWriter, sess *domain.Session) error {
	old := sess.Token
	sess.Token = ""
	if err := m.Save(ctx, w, sess); err != nil {
		return err
	}
	if old != "" {
		// the old record expires on its own if this fails
		if err := m.store.Delete(ctx, old); err != nil {
			logger.Log.Warn("failed to delete replaced session", "error", err)
		}
	}
	return nil
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

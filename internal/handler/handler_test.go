package handler

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/authpractice/userauth/internal/domain"
	internal_errors "github.com/authpractice/userauth/internal/errors"
	"github.com/authpractice/userauth/internal/middleware"
	"github.com/authpractice/userauth/internal/service"
	"github.com/authpractice/userauth/internal/session"
	"github.com/authpractice/userauth/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- Mocks ---

type MockAuthService struct {
	SignupFunc func(ctx context.Context, email, confirmEmail, password string) error
	LoginFunc  func(ctx context.Context, email, password string) (domain.SessionUser, error)
	LogoutFunc func(sess *domain.Session)
}

func (m *MockAuthService) Signup(ctx context.Context, email, confirmEmail, password string) error {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, email, confirmEmail, password)
	}
	return nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (domain.SessionUser, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return domain.SessionUser{Id: 1, Email: email}, nil
}

func (m *MockAuthService) Logout(sess *domain.Session) {
	if m.LogoutFunc != nil {
		m.LogoutFunc(sess)
	}
}

type MockSessionWriter struct {
	SaveFunc       func(ctx context.Context, w http.ResponseWriter, sess *domain.Session) error
	RegenerateFunc func(ctx context.Context, w http.ResponseWriter, sess *domain.Session) error
}

func (m *MockSessionWriter) Save(ctx context.Context, w http.ResponseWriter, sess *domain.Session) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, w, sess)
	}
	return nil
}

func (m *MockSessionWriter) Regenerate(ctx context.Context, w http.ResponseWriter, sess *domain.Session) error {
	if m.RegenerateFunc != nil {
		return m.RegenerateFunc(ctx, w, sess)
	}
	return m.Save(ctx, w, sess)
}

type MockPinger struct {
	PingFunc func(ctx context.Context) error
}

func (m *MockPinger) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// testUsers is a map-backed user store for end-to-end handler tests.
type testUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newTestUsers() *testUsers {
	return &testUsers{users: make(map[string]domain.User)}
}

func (s *testUsers) SaveUser(_ context.Context, user domain.User) (domain.UserId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return -1, internal_errors.ErrUserExists
	}
	user.Id = domain.UserId(len(s.users) + 1)
	s.users[user.Email] = user
	return user.Id, nil
}

func (s *testUsers) User(_ context.Context, email domain.Email) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return domain.User{}, internal_errors.ErrNotFound
}

func (s *testUsers) UserById(_ context.Context, id domain.UserId) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Id == id {
			return u, nil
		}
	}
	return domain.User{}, internal_errors.ErrNotFound
}

func (s *testUsers) setAdmin(email string, admin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[email]
	u.Admin = admin
	s.users[email] = u
}

func (s *testUsers) delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, email)
}

// --- Test server ---

type testEnv struct {
	server *httptest.Server
	client *http.Client
	users  *testUsers
	store  *session.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newTestUsers()
	store := session.NewMemoryStore()
	sessions := session.NewManager(store, time.Hour, false)
	auth := service.NewAuth(users, utils.NewPasswordHasher(bcrypt.MinCost), utils.NewEmailValidator(), 5)
	h := New(MustLoadTemplates(), auth, sessions, template.HTML("<h1>Hello there</h1>"), map[string]Pinger{"sessions": sessions})
	guard := middleware.NewGuard(sessions, users, h.RenderStatus)

	r := chi.NewRouter()
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
	r.NotFound(h.NotFoundHandler)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{server: srv, client: client, users: users, store: store}
}

type result struct {
	status   int
	body     string
	location string
}

func (e *testEnv) do(t *testing.T, req *http.Request) result {
	t.Helper()
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return result{status: resp.StatusCode, body: string(body), location: resp.Header.Get("Location")}
}

func (e *testEnv) get(t *testing.T, path string) result {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	return e.do(t, req)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) result {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req)
}

func (e *testEnv) sessionCookie(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(e.server.URL)
	require.NoError(t, err)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == session.CookieName {
			return c.Value
		}
	}
	return ""
}

func signupForm(email, confirmEmail, password string) url.Values {
	return url.Values{"email": {email}, "confirm-email": {confirmEmail}, "password": {password}}
}

func loginForm(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

// --- Tests ---

func TestAnonymousPages(t *testing.T) {
	env := newTestEnv(t)

	res := env.get(t, "/")
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/welcome", res.location)

	res = env.get(t, "/welcome")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "<h1>Hello there</h1>")
	assert.Contains(t, res.body, `href="/signup"`)

	assert.Equal(t, http.StatusUnauthorized, env.get(t, "/profile").status)
	assert.Equal(t, http.StatusUnauthorized, env.get(t, "/admin").status)

	res = env.get(t, "/no-such-page")
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Contains(t, res.body, "404")

	res = env.get(t, "/signup")
	assert.Equal(t, http.StatusOK, res.status)
	assert.NotContains(t, res.body, "form-error")

	assert.Equal(t, 0, env.store.Len(), "reading pages must not create a session")
	assert.Empty(t, env.sessionCookie(t))
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	res := env.post(t, "/signup", signupForm("a@a.com", "a@a.com", "12345"))
	assert.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/login", res.location)

	res = env.post(t, "/signup", signupForm("a@a.com", "a@a.com", "12345"))
	assert.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/signup", res.location)

	res = env.get(t, "/signup")
	assert.Contains(t, res.body, internal_errors.ErrUserExists.Message)
	assert.Contains(t, res.body, `name="email" value="a@a.com"`)
	assert.Contains(t, res.body, `name="confirm-email" value=""`, "confirm email is not replayed for an existing user")

	res = env.get(t, "/signup")
	assert.NotContains(t, res.body, "form-error", "pending form is shown exactly once")
	assert.Contains(t, res.body, `name="email" value=""`)
}

func TestSignupInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"bad email", signupForm("nope", "nope", "12345")},
		{"mismatch", signupForm("a@a.com", "b@b.com", "12345")},
		{"short password", signupForm("a@a.com", "a@a.com", "1234")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			res := env.post(t, "/signup", tt.form)
			assert.Equal(t, http.StatusSeeOther, res.status)
			assert.Equal(t, "/signup", res.location)

			res = env.get(t, "/signup")
			assert.Contains(t, res.body, internal_errors.ErrInvalidInput.Message)
			assert.Contains(t, res.body, `name="confirm-email" value="`+template.HTMLEscapeString(tt.form.Get("confirm-email"))+`"`)

			_, err := env.users.User(context.Background(), tt.form.Get("email"))
			assert.True(t, internal_errors.IsNotFound(err))
		})
	}
}

func TestLoginFormReplay(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, "/signup", signupForm("a@a.com", "a@a.com", "12345"))

	for _, form := range []url.Values{loginForm("a@a.com", "wrong"), loginForm("ghost@a.com", "12345")} {
		res := env.post(t, "/login", form)
		assert.Equal(t, http.StatusSeeOther, res.status)
		assert.Equal(t, "/login", res.location)

		res = env.get(t, "/login")
		assert.Contains(t, res.body, internal_errors.ErrInvalidCredentials.Message)
		assert.Contains(t, res.body, `value="`+form.Get("email")+`"`)

		res = env.get(t, "/login")
		assert.NotContains(t, res.body, "form-error")
	}

	assert.Equal(t, http.StatusUnauthorized, env.get(t, "/profile").status)
}

func TestLoginLogout(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, "/signup", signupForm("a@a.com", "a@a.com", "12345"))

	// a failed attempt leaves an anonymous session behind
	env.post(t, "/login", loginForm("a@a.com", "wrong"))
	anonymousToken := env.sessionCookie(t)
	require.NotEmpty(t, anonymousToken)

	res := env.post(t, "/login", loginForm("a@a.com", "12345"))
	assert.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/profile", res.location)
	assert.NotEqual(t, anonymousToken, env.sessionCookie(t))
	assert.Equal(t, 1, env.store.Len(), "the pre-login session is dropped")

	res = env.get(t, "/profile")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "a@a.com")
	assert.Contains(t, res.body, `href="/logout"`)

	assert.Equal(t, http.StatusForbidden, env.get(t, "/admin").status)

	res = env.get(t, "/logout")
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/", res.location)
	assert.Equal(t, http.StatusUnauthorized, env.get(t, "/profile").status)

	res = env.get(t, "/logout")
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, http.StatusUnauthorized, env.get(t, "/profile").status)
}

func TestAdminIsReadLive(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, "/signup", signupForm("a@a.com", "a@a.com", "12345"))
	env.post(t, "/login", loginForm("a@a.com", "12345"))

	assert.Equal(t, http.StatusForbidden, env.get(t, "/admin").status)

	env.users.setAdmin("a@a.com", true)
	res := env.get(t, "/admin")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, `href="/admin"`)

	env.users.setAdmin("a@a.com", false)
	assert.Equal(t, http.StatusForbidden, env.get(t, "/admin").status)
}

func TestDeletedUserIsLoggedOut(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, "/signup", signupForm("a@a.com", "a@a.com", "12345"))
	env.post(t, "/login", loginForm("a@a.com", "12345"))
	require.Equal(t, http.StatusOK, env.get(t, "/profile").status)

	env.users.delete("a@a.com")

	assert.Equal(t, http.StatusUnauthorized, env.get(t, "/profile").status)
	assert.Equal(t, http.StatusOK, env.get(t, "/welcome").status)
}

func TestServerErrors(t *testing.T) {
	storeErr := errors.New("connection refused")

	newHandler := func(auth service.AuthService, saver SessionWriter) *Handler {
		return New(MustLoadTemplates(), auth, saver, "", nil)
	}
	withSession := func(r *http.Request, sess *domain.Session) *http.Request {
		return r.WithContext(middleware.WithSession(r.Context(), sess, domain.AuthContext{}))
	}
	postForm := func(path string, form url.Values) *http.Request {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}
	failingSaver := &MockSessionWriter{SaveFunc: func(ctx context.Context, w http.ResponseWriter, sess *domain.Session) error {
		return storeErr
	}}

	t.Run("auth service failure", func(t *testing.T) {
		auth := &MockAuthService{SignupFunc: func(ctx context.Context, email, confirmEmail, password string) error {
			return storeErr
		}}
		rr := httptest.NewRecorder()
		newHandler(auth, &MockSessionWriter{}).SignupPostHandler(rr, withSession(postForm("/signup", signupForm("a@a.com", "a@a.com", "12345")), &domain.Session{}))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), storeErr.Error())
	})

	t.Run("pending form cannot be saved", func(t *testing.T) {
		auth := &MockAuthService{SignupFunc: func(ctx context.Context, email, confirmEmail, password string) error {
			return &domain.FormError{Err: internal_errors.ErrInvalidInput}
		}}
		rr := httptest.NewRecorder()
		newHandler(auth, failingSaver).SignupPostHandler(rr, withSession(postForm("/signup", url.Values{}), &domain.Session{}))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("login cannot be saved", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newHandler(&MockAuthService{}, failingSaver).LoginPostHandler(rr, withSession(postForm("/login", loginForm("a@a.com", "12345")), &domain.Session{}))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("pending form cannot be cleared", func(t *testing.T) {
		sess := &domain.Session{Token: "tok", PendingForm: &domain.PendingForm{HasError: true}}
		rr := httptest.NewRecorder()
		newHandler(&MockAuthService{}, failingSaver).LoginGetHandler(rr, withSession(httptest.NewRequest(http.MethodGet, "/login", nil), sess))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("logout for a new session does not touch the store", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newHandler(&MockAuthService{}, failingSaver).LogoutHandler(rr, withSession(httptest.NewRequest(http.MethodGet, "/logout", nil), &domain.Session{}))

		assert.Equal(t, http.StatusFound, rr.Code)
	})
}

func TestRenderStatus(t *testing.T) {
	h := New(MustLoadTemplates(), &MockAuthService{}, &MockSessionWriter{}, "", nil)

	tests := []struct {
		status   int
		expected int
		text     string
	}{
		{http.StatusUnauthorized, http.StatusUnauthorized, "Not authenticated"},
		{http.StatusForbidden, http.StatusForbidden, "Not authorized"},
		{http.StatusNotFound, http.StatusNotFound, "Not found"},
		{http.StatusInternalServerError, http.StatusInternalServerError, "Something went wrong"},
		{http.StatusTeapot, http.StatusInternalServerError, "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.RenderStatus(rr, httptest.NewRequest(http.MethodGet, "/", nil), tt.status)

			assert.Equal(t, tt.expected, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.text)
			assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
		})
	}
}

func TestHealthAndReady(t *testing.T) {
	healthy := &MockPinger{}
	broken := &MockPinger{PingFunc: func(ctx context.Context) error { return errors.New("down") }}

	h := New(nil, nil, nil, "", map[string]Pinger{"postgres": healthy})

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())

	rr = httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	h = New(nil, nil, nil, "", map[string]Pinger{"postgres": healthy, "sessions": broken})
	rr = httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "sessions unavailable", rr.Body.String())
}

func TestTemplatesLoaded(t *testing.T) {
	templates := MustLoadTemplates()
	for _, name := range []string{"welcome.html", "signup.html", "login.html", "profile.html", "admin.html", "401.html", "403.html", "404.html", "500.html"} {
		assert.Contains(t, templates, name)
	}
	assert.NotContains(t, templates, baseTemplate)
}

package handler

import (
	"net/http"

	"github.com/authpractice/userauth/internal/domain"
	"github.com/authpractice/userauth/internal/middleware"
)

const (
	signupURL  = "/signup"
	loginURL   = "/login"
	profileURL = "/profile"
)

func (h *Handler) SignupGetHandler(w http.ResponseWriter, r *http.Request) {
	form, ok := h.takePendingForm(w, r)
	if !ok {
		return
	}
	h.renderTemplate(w, r, "signup.html", http.StatusOK, form)
}

func (h *Handler) SignupPostHandler(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	confirmEmail := r.FormValue("confirm-email")
	password := r.FormValue("password")

	err := h.auth.Signup(r.Context(), email, confirmEmail, password)
	if err != nil {
		h.redirectWithPendingForm(w, r, signupURL, err)
		return
	}

	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}

func (h *Handler) LoginGetHandler(w http.ResponseWriter, r *http.Request) {
	form, ok := h.takePendingForm(w, r)
	if !ok {
		return
	}
	h.renderTemplate(w, r, "login.html", http.StatusOK, form)
}

func (h *Handler) LoginPostHandler(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	user, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		h.redirectWithPendingForm(w, r, loginURL, err)
		return
	}

	sess := middleware.SessionFromContext(r)
	sess.User = &user
	sess.IsAuthenticated = true
	sess.PendingForm = nil
	if err := h.sessions.Regenerate(r.Context(), w, sess); err != nil {
		h.serverError(w, r, "failed to save session after login", err)
		return
	}

	http.Redirect(w, r, profileURL, http.StatusSeeOther)
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)
	h.auth.Logout(sess)

	// nothing to clear for a visitor that never got a session
	if !sess.IsNew() {
		if err := h.sessions.Save(r.Context(), w, sess); err != nil {
			h.serverError(w, r, "failed to save session after logout", err)
			return
		}
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// takePendingForm consumes the one-shot form state. The session is written
// only if there was something to consume. Returns false if a response has
// already been sent.
func (h *Handler) takePendingForm(w http.ResponseWriter, r *http.Request) (domain.PendingForm, bool) {
	sess := middleware.SessionFromContext(r)
	form, consumed := sess.TakePendingForm()
	if consumed {
		if err := h.sessions.Save(r.Context(), w, sess); err != nil {
			h.serverError(w, r, "failed to clear pending form", err)
			return domain.PendingForm{}, false
		}
	}
	return form, true
}

// redirectWithPendingForm stores a failed submission for redisplay and sends
// the browser back to the form. Anything other than a form error is a 500.
func (h *Handler) redirectWithPendingForm(w http.ResponseWriter, r *http.Request, targetURL string, err error) {
	formErr, ok := domain.AsFormError(err)
	if !ok {
		h.serverError(w, r, "auth service failure", err)
		return
	}

	sess := middleware.SessionFromContext(r)
	sess.PendingForm = formErr.Pending()
	if err := h.sessions.Save(r.Context(), w, sess); err != nil {
		h.serverError(w, r, "failed to save pending form", err)
		return
	}

	http.Redirect(w, r, targetURL, http.StatusSeeOther)
}

package handler

import (
	"net/http"
)

func (h *Handler) RootHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/welcome", http.StatusFound)
}

func (h *Handler) WelcomeHandler(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, r, "welcome.html", http.StatusOK, h.welcome)
}

// ProfileHandler expects Guard.NeedAuth in front of it.
func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, r, "profile.html", http.StatusOK, nil)
}

// AdminHandler expects Guard.AdminOnly in front of it.
func (h *Handler) AdminHandler(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, r, "admin.html", http.StatusOK, nil)
}

func (h *Handler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.RenderStatus(w, r, http.StatusNotFound)
}

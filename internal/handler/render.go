package handler

import (
	"bytes"
	"net/http"

	"github.com/authpractice/userauth/internal/logger"
	"github.com/authpractice/userauth/internal/middleware"
)

// CommonTemplateData is what base.html needs on every page.
type CommonTemplateData struct {
	IsAuth  bool
	IsAdmin bool
	Email   string
}

// TemplateData wraps page-specific data with common template data.
// Templates access page data via .Data and common data via .Common.
type TemplateData struct {
	Data   any
	Common CommonTemplateData
}

var statusTemplates = map[int]string{
	http.StatusUnauthorized:        "401.html",
	http.StatusForbidden:           "403.html",
	http.StatusNotFound:            "404.html",
	http.StatusInternalServerError: "500.html",
}

func commonTemplateData(r *http.Request) CommonTemplateData {
	auth := middleware.AuthFromContext(r)
	common := CommonTemplateData{IsAuth: auth.IsAuth, IsAdmin: auth.IsAdmin}
	if auth.User != nil {
		common.Email = auth.User.Email
	}
	return common
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, status int, data any) {
	tmpl, ok := h.templates[name]
	if !ok {
		logger.Log.Error("template not found", "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, TemplateData{Data: data, Common: commonTemplateData(r)}); err != nil {
		logger.Log.Error("error executing template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderStatus renders the error page for status. Unknown codes get the
// generic 500 page.
func (h *Handler) RenderStatus(w http.ResponseWriter, r *http.Request, status int) {
	name, ok := statusTemplates[status]
	if !ok {
		status, name = http.StatusInternalServerError, statusTemplates[http.StatusInternalServerError]
	}
	h.renderTemplate(w, r, name, status, nil)
}

// serverError logs err and renders the generic 500 page without detail.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger.Log.Error(msg, "error", err, "path", r.URL.Path, "request_id", middleware.RequestID(r))
	h.RenderStatus(w, r, http.StatusInternalServerError)
}

package handler

import (
	"context"
	"html/template"
	"net/http"

	"github.com/authpractice/userauth/internal/domain"
	"github.com/authpractice/userauth/internal/service"
)

type SessionWriter interface {
	Save(ctx context.Context, w http.ResponseWriter, sess *domain.Session) error
	Regenerate(ctx context.Context, w http.ResponseWriter, sess *domain.Session) error
}

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	templates map[string]*template.Template
	auth      service.AuthService
	sessions  SessionWriter
	welcome   template.HTML
	health    map[string]Pinger
}

func New(templates map[string]*template.Template, auth service.AuthService, sessions SessionWriter, welcome template.HTML, health map[string]Pinger) *Handler {
	return &Handler{
		templates: templates,
		auth:      auth,
		sessions:  sessions,
		welcome:   welcome,
		health:    health,
	}
}

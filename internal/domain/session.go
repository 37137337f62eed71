package domain

import (
	"errors"
	"time"
)

type Session struct {
	Token           string       `json:"-"`
	User            *SessionUser `json:"user,omitempty"`
	IsAuthenticated bool         `json:"is_authenticated"`
	PendingForm     *PendingForm `json:"pending_form,omitempty"`
	ExpiresAt       time.Time    `json:"expires_at"`
}

// Authenticated holds only when both the flag and the snapshot are present.
func (s *Session) Authenticated() bool {
	return s != nil && s.IsAuthenticated && s.User != nil
}

// IsNew reports whether the session has never been persisted.
func (s *Session) IsNew() bool {
	return s.Token == ""
}

func (s *Session) IsExpiredAt(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && t.After(s.ExpiresAt)
}

// TakePendingForm returns the pending form (or an empty one) and clears it.
// The second result reports whether anything was consumed.
func (s *Session) TakePendingForm() (PendingForm, bool) {
	if s.PendingForm == nil {
		return PendingForm{}, false
	}
	form := *s.PendingForm
	s.PendingForm = nil
	return form, true
}

// PendingForm is the one-shot state used to redisplay a failed form.
type PendingForm struct {
	HasError     bool   `json:"has_error"`
	Message      string `json:"message"`
	Email        string `json:"email"`
	ConfirmEmail string `json:"confirm_email"`
	Password     string `json:"password"`
}

// FormError is a user-facing failure that carries the submitted fields.
type FormError struct {
	Err  error
	Form PendingForm
}

func (e *FormError) Error() string {
	return e.Err.Error()
}

func (e *FormError) Unwrap() error {
	return e.Err
}

// Pending returns the form state to write into the session.
func (e *FormError) Pending() *PendingForm {
	form := e.Form
	form.HasError = true
	form.Message = e.Err.Error()
	return &form
}

// AsFormError unwraps err into a *FormError.
func AsFormError(err error) (*FormError, bool) {
	var fe *FormError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

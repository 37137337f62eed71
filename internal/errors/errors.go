package errors

import (
	"errors"
	"net/http"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// User-facing failures. Messages are rendered verbatim on the forms.
var (
	ErrInvalidInput       = &ErrorWithStatusCode{Message: "Invalid data input, please try again!", StatusCode: http.StatusBadRequest}
	ErrUserExists         = &ErrorWithStatusCode{Message: "User already exists, please try again!", StatusCode: http.StatusConflict}
	ErrInvalidCredentials = &ErrorWithStatusCode{Message: "Could not log you in - please check your credentials!", StatusCode: http.StatusUnauthorized}
	ErrUnauthorized       = &ErrorWithStatusCode{Message: "Not authenticated", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &ErrorWithStatusCode{Message: "Not authorized", StatusCode: http.StatusForbidden}
	ErrNotFound           = &ErrorWithStatusCode{Message: "Not found", StatusCode: http.StatusNotFound}
)

// IsNotFound reports whether err carries a 404 status.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode extracts the status from err, 500 if it has none.
func StatusCode(err error) int {
	var e *ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

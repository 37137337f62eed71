package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/authpractice/userauth/internal/domain"
	internal_errors "github.com/authpractice/userauth/internal/errors"
	"github.com/authpractice/userauth/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userauth_signups_total",
			Help: "Signup attempts by result",
		},
		[]string{"result"},
	)
	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userauth_logins_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)
)

type AuthService interface {
	Signup(ctx context.Context, email, confirmEmail, password string) error
	Login(ctx context.Context, email, password string) (domain.SessionUser, error)
	Logout(sess *domain.Session)
}

type UserStorage interface {
	SaveUser(ctx context.Context, user domain.User) (domain.UserId, error)
	User(ctx context.Context, email domain.Email) (domain.User, error)
}

type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type EmailValidator interface {
	IsCorrect(email string) bool
}

type Auth struct {
	storage        UserStorage
	hasher         Hasher
	email          EmailValidator
	passwordMinLen int
}

func NewAuth(storage UserStorage, hasher Hasher, email EmailValidator, passwordMinLen int) *Auth {
	return &Auth{
		storage:        storage,
		hasher:         hasher,
		email:          email,
		passwordMinLen: passwordMinLen,
	}
}

// Signup validates the form and creates a non-admin user.
// Every validation failure yields the same ErrInvalidInput; an existing
// email yields ErrUserExists. Both come wrapped in a *domain.FormError.
func (a *Auth) Signup(ctx context.Context, email, confirmEmail, password string) error {
	if !a.validSignup(email, confirmEmail, password) {
		signupsTotal.WithLabelValues("invalid_input").Inc()
		return &domain.FormError{
			Err:  internal_errors.ErrInvalidInput,
			Form: domain.PendingForm{Email: email, ConfirmEmail: confirmEmail, Password: password},
		}
	}

	userExists := &domain.FormError{
		Err:  internal_errors.ErrUserExists,
		Form: domain.PendingForm{Email: email, Password: password},
	}

	_, err := a.storage.User(ctx, email)
	if err == nil {
		signupsTotal.WithLabelValues("user_exists").Inc()
		return userExists
	}
	if !internal_errors.IsNotFound(err) {
		return err
	}

	passHash, err := a.hasher.Hash(password)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return err
	}

	if _, err := a.storage.SaveUser(ctx, domain.User{Email: email, PassHash: passHash}); err != nil {
		// lost a race with a concurrent signup for the same email
		if errors.Is(err, internal_errors.ErrUserExists) {
			signupsTotal.WithLabelValues("user_exists").Inc()
			return userExists
		}
		return err
	}

	signupsTotal.WithLabelValues("created").Inc()
	return nil
}

// validSignup applies the checks in order; the first failure wins.
func (a *Auth) validSignup(email, confirmEmail, password string) bool {
	return a.email.IsCorrect(email) &&
		a.email.IsCorrect(confirmEmail) &&
		utf8.RuneCountInString(password) >= a.passwordMinLen &&
		email == confirmEmail
}

// Login checks the credentials and returns the snapshot to store in the
// session. Unknown email and wrong password produce the same error.
func (a *Auth) Login(ctx context.Context, email, password string) (domain.SessionUser, error) {
	invalid := &domain.FormError{
		Err:  internal_errors.ErrInvalidCredentials,
		Form: domain.PendingForm{Email: email, Password: password},
	}

	user, err := a.storage.User(ctx, email)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			loginsTotal.WithLabelValues("invalid_credentials").Inc()
			return domain.SessionUser{}, invalid
		}
		return domain.SessionUser{}, err
	}

	if !a.hasher.Verify(password, user.PassHash) {
		loginsTotal.WithLabelValues("invalid_credentials").Inc()
		return domain.SessionUser{}, invalid
	}

	loginsTotal.WithLabelValues("success").Inc()
	return user.SessionUser(), nil
}

// Logout clears the authentication fields. Calling it repeatedly is harmless.
func (a *Auth) Logout(sess *domain.Session) {
	sess.User = nil
	sess.IsAuthenticated = false
}

package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/authpractice/userauth/internal/domain"
	internal_errors "github.com/authpractice/userauth/internal/errors"
	"github.com/lib/pq"
)

// unique_violation
const pgUniqueViolation = "23505"

// =========================================================================
// Public Methods (satisfy service.UserStorage and middleware.UserLookup)
// =========================================================================

// SaveUser inserts a new user. A duplicate email yields errors.ErrUserExists.
func (s *Storage) SaveUser(ctx context.Context, user domain.User) (domain.UserId, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.saveUser(ctx, tx, user)
		return err
	})
	return id, err
}

// User fetches a user by exact email.
func (s *Storage) User(ctx context.Context, email domain.Email) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.user(ctx, s.db, "email = $1", email)
}

// UserById fetches a user by id. Used by the access guard on every request.
func (s *Storage) UserById(ctx context.Context, id domain.UserId) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.user(ctx, s.db, "id = $1", id)
}

// SetAdmin flips the admin flag. Only reachable from the admin CLI.
func (s *Storage) SetAdmin(ctx context.Context, email domain.Email, admin bool) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.setAdmin(ctx, tx, email, admin)
	})
}

// =========================================================================
// Internal Methods
// These accept a Querier and are transaction-agnostic.
// =========================================================================

func (s *Storage) saveUser(ctx context.Context, q Querier, user domain.User) (domain.UserId, error) {
	var id domain.UserId
	err := q.QueryRowContext(ctx,
		"INSERT INTO users(email, password_hash, is_admin) VALUES($1, $2, $3) RETURNING id",
		user.Email, user.PassHash, user.Admin).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return -1, internal_errors.ErrUserExists
		}
		return -1, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

// where is a fixed condition chosen by the caller, never user input.
func (s *Storage) user(ctx context.Context, q Querier, where string, arg any) (domain.User, error) {
	var user domain.User
	err := q.QueryRowContext(ctx,
		"SELECT id, email, password_hash, is_admin, created_at FROM users WHERE "+where, arg).
		Scan(&user.Id, &user.Email, &user.PassHash, &user.Admin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, &internal_errors.ErrorWithStatusCode{Message: "User not found", StatusCode: http.StatusNotFound}
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func (s *Storage) setAdmin(ctx context.Context, q Querier, email domain.Email, admin bool) error {
	result, err := q.ExecContext(ctx, "UPDATE users SET is_admin = $1 WHERE email = $2", admin, email)
	if err != nil {
		return fmt.Errorf("failed to update admin flag: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for admin update: %w", err)
	}
	if rowsAffected == 0 {
		return &internal_errors.ErrorWithStatusCode{Message: "User not found for admin update", StatusCode: http.StatusNotFound}
	}
	return nil
}

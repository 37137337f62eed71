// Package session persists typed sessions keyed by an opaque token and
// carries them between the cookie and the store.
package session

import (
	"context"
	"time"

	"github.com/authpractice/userauth/internal/domain"
)

// Store persists session records. Get returns (nil, nil) for unknown or
// expired tokens.
type Store interface {
	Get(ctx context.Context, token string) (*domain.Session, error)
	Save(ctx context.Context, sess *domain.Session, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
	Ping(ctx context.Context) error
}

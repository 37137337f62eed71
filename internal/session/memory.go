package session

import (
	"context"
	"sync"
	"time"

	"github.com/authpractice/userauth/internal/domain"
)

// MemoryStore keeps sessions in process memory. Suitable for a single
// instance and for tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]domain.Session),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || sess.IsExpiredAt(s.now()) {
		return nil, nil
	}
	// copy pointer fields so callers cannot mutate the stored record
	if sess.User != nil {
		u := *sess.User
		sess.User = &u
	}
	if sess.PendingForm != nil {
		f := *sess.PendingForm
		sess.PendingForm = &f
	}
	return &sess, nil
}

func (s *MemoryStore) Save(_ context.Context, sess *domain.Session, ttl time.Duration) error {
	stored := *sess
	stored.ExpiresAt = s.now().Add(ttl)
	if stored.User != nil {
		u := *stored.User
		stored.User = &u
	}
	if stored.PendingForm != nil {
		f := *stored.PendingForm
		stored.PendingForm = &f
	}

	s.mu.Lock()
	s.sessions[sess.Token] = stored
	s.mu.Unlock()

	sess.ExpiresAt = stored.ExpiresAt
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartJanitor evicts expired sessions every interval until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evictExpired()
			}
		}
	}()
}

func (s *MemoryStore) evictExpired() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if sess.IsExpiredAt(now) {
			delete(s.sessions, token)
		}
	}
}

package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/hongminglow/finanzas-be/internal/models"
	"github.com/hongminglow/finanzas-be/internal/storage"
)

const (
	keyUserID    = "user_id"
	keyUserEmail = "user_email"
	keyUserRole  = "user_role"
	keyLoginTime = "login_time"
)

// Store persists the single authenticated identity of the device.
type Store struct {
	mu  sync.Mutex
	kv  storage.KeyValueStore
	now func() time.Time
}

// NewStore wraps a key-value backend.
func NewStore(kv storage.KeyValueStore) *Store {
	return &Store{kv: kv, now: time.Now}
}

// WithClock overrides the time source used for login timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Start records user as the current session, replacing any earlier one.
func (s *Store) Start(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := map[string]string{
		keyUserID:    strconv.FormatInt(user.ID, 10),
		keyUserEmail: user.Email,
		keyUserRole:  string(user.Role),
		keyLoginTime: strconv.FormatInt(s.now().UnixMilli(), 10),
	}
	if err := s.kv.PutAll(ctx, values); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Current reads back the stored session. ok is false when no user id is stored.
func (s *Store) Current(ctx context.Context) (sess models.Session, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rawID, ok, err := s.kv.Get(ctx, keyUserID)
	if err != nil {
		return models.Session{}, false, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return models.Session{}, false, nil
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return models.Session{}, false, fmt.Errorf("read session: bad user id %q: %w", rawID, err)
	}

	email, _, err := s.kv.Get(ctx, keyUserEmail)
	if err != nil {
		return models.Session{}, false, fmt.Errorf("read session: %w", err)
	}
	role, _, err := s.kv.Get(ctx, keyUserRole)
	if err != nil {
		return models.Session{}, false, fmt.Errorf("read session: %w", err)
	}
	rawLogin, hasLogin, err := s.kv.Get(ctx, keyLoginTime)
	if err != nil {
		return models.Session{}, false, fmt.Errorf("read session: %w", err)
	}

	sess = models.Session{UserID: id, Email: email, Role: models.Role(role)}
	if hasLogin {
		if ms, err := strconv.ParseInt(rawLogin, 10, 64); err == nil {
			sess.LoginAt = time.UnixMilli(ms).UTC()
		}
	}
	return sess, true, nil
}

// IsActive reports whether a session is stored.
func (s *Store) IsActive(ctx context.Context) (bool, error) {
	_, ok, err := s.Current(ctx)
	return ok, err
}

// End clears every session key. Calling it without a session is a no-op.
func (s *Store) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

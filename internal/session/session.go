// Package session implements the per-visitor session contract: a cookie
// identifies the session, and the session holds one securely-random token
// generated on first access and reused for the session lifetime.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kiavash/daftar/config"
	"github.com/kiavash/daftar/pkg/util/codes"
)

const (
	defaultCookieName = "daftar_session"
	defaultTTL        = 12 * time.Hour

	keyPrefix = "session:"
)

var ErrStoreUnavailable = errors.New("session store unavailable")

// TokenStore is the key-value backend holding session tokens. Get returns
// an empty string when the key is absent.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Session is the per-visitor state passed into the submission handler.
type Session struct {
	ID    string
	Token string
	// IsNew reports whether the session cookie must still be set.
	IsNew bool
}

type Manager struct {
	store      TokenStore
	cookieName string
	ttl        time.Duration
}

func NewManager(store TokenStore, cfg config.SessionConfig) *Manager {
	name := cfg.CookieName
	if name == "" {
		name = defaultCookieName
	}
	ttl := time.Duration(cfg.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{store: store, cookieName: name, ttl: ttl}
}

// CookieName is the name of the session cookie the manager expects.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// TTL is the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Ensure resolves the session for the given cookie value, creating a session
// and generating its token on first access. The TTL slides on every access.
func (m *Manager) Ensure(ctx context.Context, cookie string) (*Session, error) {
	sess := &Session{ID: cookie}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
		sess.IsNew = true
	}

	key := keyPrefix + sess.ID

	token, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if token == "" {
		token, err = codes.GenerateSessionToken()
		if err != nil {
			return nil, err
		}
		sess.IsNew = true
	}

	if err := m.store.Set(ctx, key, token, m.ttl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sess.Token = token
	return sess, nil
}

// Verify compares a submitted token against the session token in constant
// time. Empty tokens never match.
func (m *Manager) Verify(sess *Session, submitted string) bool {
	if sess == nil || sess.Token == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.Token), []byte(submitted)) == 1
}

// redisStore adapts a go-redis client to the TokenStore interface.
type redisStore struct {
	rdb *goredis.Client
}

func NewRedisStore(rdb *goredis.Client) TokenStore {
	return &redisStore{rdb: rdb}
}

func (r *redisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

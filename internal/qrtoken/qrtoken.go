// Package qrtoken issues the short-lived tokens shown as a QR code at the
// office and checks tokens scanned by employees.
package qrtoken

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/skip2/go-qrcode"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 5 * time.Minute

// ErrEmpty is returned when rendering an empty token.
var ErrEmpty = errors.New("qrtoken: token required")

// Token is an issued token and its remaining lifetime in seconds.
type Token struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// Verdict is the verification answer.
type Verdict struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Store persists live tokens.
type Store interface {
	Put(ctx context.Context, token string, ttl time.Duration) error
	Exists(ctx context.Context, token string) (bool, error)
}

// Issuer mints and checks tokens. A token stays valid for every scan until
// it expires, since one code is displayed to the whole office.
type Issuer struct {
	store Store
	ttl   time.Duration
}

// NewIssuer creates an issuer. A non-positive ttl uses DefaultTTL.
func NewIssuer(store Store, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{store: store, ttl: ttl}
}

// Issue mints a fresh token.
func (i *Issuer) Issue(ctx context.Context) (Token, error) {
	tok := uuid.NewString()
	if err := i.store.Put(ctx, tok, i.ttl); err != nil {
		return Token{}, fmt.Errorf("qrtoken: store token: %w", err)
	}
	return Token{Token: tok, ExpiresIn: int(i.ttl / time.Second)}, nil
}

// Verify checks a scanned token. A non-nil error means the store failed, not
// that the token was rejected.
func (i *Issuer) Verify(ctx context.Context, token string) (Verdict, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Verdict{Message: "QR token is required"}, nil
	}
	ok, err := i.store.Exists(ctx, token)
	if err != nil {
		return Verdict{}, fmt.Errorf("qrtoken: lookup: %w", err)
	}
	if !ok {
		return Verdict{Message: "Invalid or expired QR code"}, nil
	}
	return Verdict{Success: true, Message: "QR verified"}, nil
}

// PNG renders token as a QR code image of size pixels square.
func PNG(token string, size int) ([]byte, error) {
	if token == "" {
		return nil, ErrEmpty
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(token, qrcode.Medium, size)
}

// Memory keeps tokens in process.
type Memory struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

// NewMemory creates an in-memory store.
func NewMemory() *Memory {
	return &Memory{tokens: make(map[string]time.Time), now: time.Now}
}

// Put stores token until now+ttl and drops expired entries.
func (m *Memory) Put(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for t, exp := range m.tokens {
		if !now.Before(exp) {
			delete(m.tokens, t)
		}
	}
	m.tokens[token] = now.Add(ttl)
	return nil
}

// Exists reports whether token is live.
func (m *Memory) Exists(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.tokens[token]
	return ok && m.now().Before(exp), nil
}

// Redis keeps tokens as expiring keys.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a redis-backed store.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "attendview:qr:"
	}
	return &Redis{client: client, prefix: prefix}
}

// Put stores token with an expiry.
func (r *Redis) Put(ctx context.Context, token string, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+token, 1, ttl).Err()
}

// Exists reports whether token's key is still present.
func (r *Redis) Exists(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+token).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

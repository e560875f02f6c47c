package devserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// TokenIssuer mints and verifies the bearer tokens the dev server hands out.
// The client treats them as opaque strings; only the server inspects them.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an HS256 issuer with the given signing secret and
// token lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the user.
func (i *TokenIssuer) Issue(user User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// TokenClaims is what a verified token asserts.
type TokenClaims struct {
	UserID    int64
	ExpiresAt time.Time
}

// Verify checks signature and expiry and returns the token's claims.
func (i *TokenIssuer) Verify(token string) (TokenClaims, error) {
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return TokenClaims{}, err
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return TokenClaims{}, err
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return TokenClaims{}, errors.New("malformed subject claim")
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return TokenClaims{}, errors.New("missing expiry claim")
	}
	return TokenClaims{UserID: id, ExpiresAt: exp.Time}, nil
}

// Revoker remembers tokens invalidated by logout until they would have
// expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	Revoked(ctx context.Context, token string) (bool, error)
}

// RedisRevoker stores revocations in Redis so they survive server restarts
// and are shared between instances.
type RedisRevoker struct {
	cache *redis.Client
}

// NewRedisRevoker builds a Redis-backed revocation store.
func NewRedisRevoker(cache *redis.Client) *RedisRevoker {
	return &RedisRevoker{cache: cache}
}

func (r *RedisRevoker) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.cache.Set(ctx, revocationKey(token), "1", ttl).Err()
}

func (r *RedisRevoker) Revoked(ctx context.Context, token string) (bool, error) {
	n, err := r.cache.Exists(ctx, revocationKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Tokens are hashed before use as a key so raw credentials never land in
// Redis.
func revocationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "revoked:" + hex.EncodeToString(sum[:])
}

// MemoryRevoker keeps revocations in process memory. Used when no REDIS_URL
// is configured.
type MemoryRevoker struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

// NewMemoryRevoker builds an in-memory revocation store.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{expires: make(map[string]time.Time)}
}

func (r *MemoryRevoker) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expires[revocationKey(token)] = time.Now().Add(ttl)
	return nil
}

func (r *MemoryRevoker) Revoked(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := revocationKey(token)
	exp, ok := r.expires[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(r.expires, key)
		return false, nil
	}
	return true, nil
}

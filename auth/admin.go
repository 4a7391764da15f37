package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/pinkoogupta/eduzap/cache"
)

const (
	// AdminSubject is the subject attached to tokens verified by AdminVerifier.
	AdminSubject = "admin"

	verifiedKeyPrefix  = "auth:verified:"
	defaultVerifiedTTL = 5 * time.Minute
)

type adminToken struct {
	raw        string
	verifiedAt time.Time
}

func (t adminToken) Raw() string           { return t.raw }
func (t adminToken) Subject() string       { return AdminSubject }
func (t adminToken) VerifiedAt() time.Time { return t.verifiedAt }

// AdminVerifier checks bearer tokens against the configured admin hash.
// bcrypt is deliberately slow, so successful verifications are remembered in
// an optional cache.Store under a SHA-256 digest of the token.
type AdminVerifier struct {
	hash        PasswordHash
	hasher      PasswordHasher
	store       cache.Store
	verifiedTTL time.Duration
	now         func() time.Time
}

// AdminVerifierOption customises an AdminVerifier.
type AdminVerifierOption func(*AdminVerifier)

// WithVerifiedCache memoizes successful verifications in store for ttl.
func WithVerifiedCache(store cache.Store, ttl time.Duration) AdminVerifierOption {
	return func(v *AdminVerifier) {
		v.store = store
		if ttl > 0 {
			v.verifiedTTL = ttl
		}
	}
}

// WithHasher overrides the hasher used to compare tokens.
func WithHasher(h PasswordHasher) AdminVerifierOption {
	return func(v *AdminVerifier) {
		if h != nil {
			v.hasher = h
		}
	}
}

// NewAdminVerifier builds a verifier from an encoded bcrypt hash.
func NewAdminVerifier(encodedHash string, opts ...AdminVerifierOption) (*AdminVerifier, error) {
	hash, err := ParseBcryptHash(encodedHash)
	if err != nil {
		return nil, err
	}
	v := &AdminVerifier{
		hash:        hash,
		hasher:      NewBcryptHasher(),
		verifiedTTL: defaultVerifiedTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v, nil
}

// ParseToken implements TokenParser.
func (v *AdminVerifier) ParseToken(ctx context.Context, raw string) (Token, error) {
	if raw == "" {
		return nil, ErrTokenNotFound
	}
	key := verifiedKeyPrefix + digest(raw)
	if v.store != nil {
		if _, err := v.store.Get(ctx, key); err == nil {
			return adminToken{raw: raw, verifiedAt: v.now()}, nil
		}
	}

	if err := v.hasher.Compare(ctx, []byte(raw), v.hash); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return nil, ErrTokenRejected
		}
		return nil, err
	}

	if v.store != nil {
		// A failed write only costs another bcrypt comparison later.
		_ = v.store.Set(ctx, key, []byte{1}, v.verifiedTTL)
	}
	return adminToken{raw: raw, verifiedAt: v.now()}, nil
}

func digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

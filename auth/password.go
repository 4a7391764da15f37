package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort         = errors.New("auth: token too short")
	ErrPasswordTooLong          = errors.New("auth: token too long")
	ErrPasswordMismatch         = errors.New("auth: token does not match")
	ErrPasswordInvalidAlgorithm = errors.New("auth: unsupported hash algorithm")
	ErrPasswordInvalidHash      = errors.New("auth: invalid hash")
)

const AlgorithmBcrypt = "bcrypt"

const (
	DefaultBcryptCost = 12
	MinTokenLength    = 16
	// bcrypt ignores input beyond 72 bytes.
	MaxTokenLength = 72
)

// ValidateTokenStrength checks that an admin token is long enough to resist
// guessing and short enough for bcrypt.
func ValidateTokenStrength(token []byte) error {
	switch n := len(token); {
	case n < MinTokenLength:
		return ErrPasswordTooShort
	case n > MaxTokenLength:
		return ErrPasswordTooLong
	}
	return nil
}

// ParseBcryptHash wraps an encoded bcrypt hash ("$2a$12$...") read from
// configuration.
func ParseBcryptHash(encoded string) (PasswordHash, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return PasswordHash{}, ErrPasswordInvalidHash
	}
	cost, err := bcrypt.Cost([]byte(encoded))
	if err != nil {
		return PasswordHash{}, fmt.Errorf("%w: %v", ErrPasswordInvalidHash, err)
	}
	return PasswordHash{Algorithm: AlgorithmBcrypt, Cost: cost, Value: []byte(encoded)}, nil
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// BcryptHasherOption configures BcryptHasher.
type BcryptHasherOption func(*BcryptHasher)

// WithBcryptCost sets the bcrypt cost factor.
func WithBcryptCost(cost int) BcryptHasherOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// NewBcryptHasher creates a new bcrypt-based hasher.
func NewBcryptHasher(opts ...BcryptHasherOption) *BcryptHasher {
	h := &BcryptHasher{cost: DefaultBcryptCost}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Hash generates a bcrypt hash for the given token.
func (h *BcryptHasher) Hash(ctx context.Context, plain []byte, opts PasswordOptions) (PasswordHash, error) {
	if err := contextError(ctx); err != nil {
		return PasswordHash{}, err
	}
	if err := ValidateTokenStrength(plain); err != nil {
		return PasswordHash{}, err
	}

	cost := h.cost
	if opts.Cost >= bcrypt.MinCost && opts.Cost <= bcrypt.MaxCost {
		cost = opts.Cost
	}

	hashed, err := bcrypt.GenerateFromPassword(plain, cost)
	if err != nil {
		return PasswordHash{}, fmt.Errorf("auth: bcrypt hash failed: %w", err)
	}

	return PasswordHash{
		Algorithm: AlgorithmBcrypt,
		Cost:      cost,
		Value:     hashed,
	}, nil
}

// Compare validates a token against a stored hash.
func (h *BcryptHasher) Compare(ctx context.Context, plain []byte, hash PasswordHash) error {
	if err := contextError(ctx); err != nil {
		return err
	}
	if hash.Algorithm != AlgorithmBcrypt {
		return ErrPasswordInvalidAlgorithm
	}
	if len(hash.Value) == 0 {
		return ErrPasswordInvalidHash
	}

	if err := bcrypt.CompareHashAndPassword(hash.Value, plain); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: bcrypt compare failed: %w", err)
	}
	return nil
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

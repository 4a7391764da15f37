// Package auth guards the administrator endpoints with a shared bearer token
// whose bcrypt hash is supplied through configuration.
package auth

import (
	"context"
	"time"
)

// Token is a verified credential attached to the request context.
type Token interface {
	Raw() string
	Subject() string
	VerifiedAt() time.Time
}

// PasswordHash contains the metadata needed to verify a hashed secret.
type PasswordHash struct {
	Algorithm string
	Cost      int
	Value     []byte
}

// PasswordOptions defines how new secrets should be hashed.
type PasswordOptions struct {
	Cost int
}

// PasswordHasher manages secret hashing and verification.
type PasswordHasher interface {
	Hash(ctx context.Context, plain []byte, opts PasswordOptions) (PasswordHash, error)
	Compare(ctx context.Context, plain []byte, hash PasswordHash) error
}

// Package dockercheck reports whether container-backed tests can run.
package dockercheck

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
)

// Available returns nil when a Docker daemon answers a health check.
// testcontainers panics when it cannot locate a Docker host; that panic is
// returned as an error instead.
func Available(ctx context.Context) error {
	return Recover(func() error {
		provider, err := testcontainers.NewDockerProvider()
		if err != nil {
			return fmt.Errorf("docker provider: %w", err)
		}
		defer provider.Close()
		if err := provider.Health(ctx); err != nil {
			return fmt.Errorf("docker health: %w", err)
		}
		return nil
	})
}

// Recover runs fn and converts a panic into an error.
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docker unavailable: %v", r)
		}
	}()
	return fn()
}

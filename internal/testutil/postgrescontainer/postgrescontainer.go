// Package postgrescontainer starts a disposable PostgreSQL server for
// integration tests through testcontainers.
package postgrescontainer

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pinkoogupta/eduzap/internal/testutil/dockercheck"
)

const (
	image    = "docker.io/postgres:17-alpine"
	user     = "eduzap"
	password = "secret"
	dbName   = "eduzap_test"
	// SkipEnv disables container-backed tests when set to a non-empty value.
	SkipEnv = "EDUZAP_SKIP_CONTAINERS"
)

var (
	once      sync.Once
	setupErr  error
	container *postgres.PostgresContainer
	dsn       string
)

// DSN returns a lib/pq formatted connection string.
func DSN() string { return dsn }

// Setup launches the Postgres container once per test binary.
func Setup() error {
	once.Do(func() {
		if os.Getenv(SkipEnv) != "" {
			setupErr = fmt.Errorf("%s is set", SkipEnv)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := dockercheck.Available(ctx); err != nil {
			setupErr = err
			return
		}
		setupErr = dockercheck.Recover(func() error { return start(ctx) })
	})
	return setupErr
}

func start(ctx context.Context) error {
	c, err := postgres.Run(ctx,
		image,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return fmt.Errorf("start postgres container: %w", err)
	}
	container = c

	conn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("postgres connection string: %w", err)
	}
	dsn = conn
	return nil
}

// Teardown stops the container launched by Setup.
func Teardown() error {
	if container == nil {
		return setupErr
	}
	return container.Terminate(context.Background())
}

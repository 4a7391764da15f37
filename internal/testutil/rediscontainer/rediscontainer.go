// Package rediscontainer starts a disposable Redis server for integration
// tests through testcontainers.
package rediscontainer

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pinkoogupta/eduzap/internal/testutil/dockercheck"
)

const (
	image       = "docker.io/redis:7-alpine"
	exposedPort = "6379/tcp"
	// SkipEnv disables container-backed tests when set to a non-empty value.
	SkipEnv = "EDUZAP_SKIP_CONTAINERS"
)

var (
	once      sync.Once
	setupErr  error
	container testcontainers.Container
	addr      string
)

// Addr exposes the Redis host:port combination used by integration tests.
func Addr() string { return addr }

// Setup launches the Redis container once per test binary and waits until
// the port accepts connections.
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
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{exposedPort},
			WaitingFor:   wait.ForListeningPort(exposedPort).WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("start redis container: %w", err)
	}
	container = c

	host, err := c.Host(ctx)
	if err != nil {
		return fmt.Errorf("redis container host: %w", err)
	}
	port, err := c.MappedPort(ctx, exposedPort)
	if err != nil {
		return fmt.Errorf("redis container port: %w", err)
	}
	addr = host + ":" + port.Port()
	return nil
}

// Teardown stops the container launched by Setup.
func Teardown() error {
	if container == nil {
		return setupErr
	}
	return testcontainers.TerminateContainer(container)
}

package postgres

import (
	"context"
	"database/sql"
	"time"
)

// Connect opens a PostgreSQL connection and applies migrations when
// auto-migrate is enabled.
func Connect(ctx context.Context, opts ...Option) (*sql.DB, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	db, err := Open(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := Migrate(ctx, db, cfg.Logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

// Checker reports database reachability for health endpoints.
type Checker struct {
	db      *sql.DB
	timeout time.Duration
}

func NewChecker(db *sql.DB) *Checker {
	return &Checker{db: db, timeout: 3 * time.Second}
}

func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.db.PingContext(ctx)
}

package server

import (
	"context"
	"fmt"

	"github.com/pinkoogupta/eduzap/api"
	"github.com/pinkoogupta/eduzap/blob"
	"github.com/pinkoogupta/eduzap/blob/cloudinary"
	blobs3 "github.com/pinkoogupta/eduzap/blob/s3"
	"github.com/pinkoogupta/eduzap/cache"
	cachemem "github.com/pinkoogupta/eduzap/cache/memory"
	cacheredis "github.com/pinkoogupta/eduzap/cache/redis"
	"github.com/pinkoogupta/eduzap/config"
	repomem "github.com/pinkoogupta/eduzap/db/memory"
	"github.com/pinkoogupta/eduzap/db/sql/postgres"
	"github.com/pinkoogupta/eduzap/requests"
)

func (a *App) openRepository(ctx context.Context) (requests.Repository, api.HealthCheck, error) {
	db := a.cfg.Database
	switch db.Driver {
	case config.DriverPostgres:
		conn, err := postgres.Connect(ctx,
			postgres.WithDSN(db.DSN),
			postgres.WithMaxOpenConns(db.MaxOpenConns),
			postgres.WithMaxIdleConns(db.MaxIdleConns),
			postgres.WithConnMaxLifetime(db.ConnMaxLifetime),
			postgres.WithAutoMigrate(db.AutoMigrate),
			postgres.WithLogger(a.logger),
		)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, conn.Close)
		return postgres.NewRequestRepository(conn), postgres.NewChecker(conn).Check, nil
	case config.DriverMemory:
		a.logger.Warn("using in-memory request store; data is lost on restart")
		return repomem.NewRepository(), nil, nil
	default:
		return nil, nil, fmt.Errorf("server: unsupported database driver %q", db.Driver)
	}
}

func (a *App) openCache() (cache.Store, api.HealthCheck, error) {
	c := a.cfg.Cache
	switch c.Driver {
	case config.DriverRedis:
		r := a.cfg.Redis
		store := cacheredis.NewStore(cacheredis.Options{
			Addr:      r.Addr,
			Password:  r.Password,
			DB:        r.DB,
			PoolSize:  r.PoolSize,
			Namespace: r.Namespace,
		})
		a.closers = append(a.closers, store.Close)
		return store, store.Ping, nil
	case config.DriverMemory:
		return cachemem.NewStore(cachemem.Options{MaxEntries: c.MaxEntries, MaxTTL: c.TTL}), nil, nil
	case config.DriverNone:
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("server: unsupported cache driver %q", c.Driver)
	}
}

func (a *App) openBlobStore(ctx context.Context) (blob.Store, error) {
	b := a.cfg.Blob
	switch b.Driver {
	case config.DriverCloudinary:
		return cloudinary.NewStore(cloudinary.Options{
			CloudName: b.Cloudinary.CloudName,
			APIKey:    b.Cloudinary.APIKey,
			APISecret: b.Cloudinary.APISecret,
			Folder:    b.Cloudinary.Folder,
		})
	case config.DriverS3:
		return blobs3.NewStore(ctx, blobs3.Options{
			Bucket:        b.S3.Bucket,
			Region:        b.S3.Region,
			Endpoint:      b.S3.Endpoint,
			AccessKey:     b.S3.AccessKey,
			SecretKey:     b.S3.SecretKey,
			PublicBaseURL: b.S3.PublicBaseURL,
			Prefix:        b.S3.Prefix,
		})
	case config.DriverNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("server: unsupported blob driver %q", b.Driver)
	}
}

package requests

import (
	"log/slog"
	"time"

	"github.com/pinkoogupta/eduzap/blob"
	"github.com/pinkoogupta/eduzap/cache"
	"github.com/pinkoogupta/eduzap/notify"
)

// DefaultCacheTTL is how long a cached page stays valid without a mutation.
const DefaultCacheTTL = 60 * time.Second

// Limiter decides whether a search from origin may proceed.
type Limiter interface {
	Allow(origin string) bool
}

type Options struct {
	Blobs      blob.Store
	Cache      cache.Store
	Publisher  notify.Publisher
	Limiter    Limiter
	Logger     *slog.Logger
	CacheTTL   time.Duration
	Pagination Pagination
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Logger:     slog.Default(),
		CacheTTL:   DefaultCacheTTL,
		Pagination: DefaultPagination,
	}
}

// WithBlobStore enables image uploads on create.
func WithBlobStore(s blob.Store) Option {
	return func(o *Options) {
		o.Blobs = s
	}
}

// WithCache enables page caching. Without it every read hits the store.
func WithCache(s cache.Store) Option {
	return func(o *Options) {
		o.Cache = s
	}
}

// WithPublisher sets the notification target for create and delete events.
func WithPublisher(p notify.Publisher) Option {
	return func(o *Options) {
		o.Publisher = p
	}
}

// WithLimiter installs the per-origin search debounce.
func WithLimiter(l Limiter) Option {
	return func(o *Options) {
		o.Limiter = l
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithCacheTTL overrides DefaultCacheTTL.
func WithCacheTTL(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.CacheTTL = d
		}
	}
}

// WithPagination overrides DefaultPagination. Invalid values are rejected by
// NewService.
func WithPagination(p Pagination) Option {
	return func(o *Options) {
		o.Pagination = p
	}
}

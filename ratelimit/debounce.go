// Package ratelimit throttles repeated calls from the same origin.
package ratelimit

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	DefaultWindow     = 300 * time.Millisecond
	DefaultMaxOrigins = 10000
)

// Options configures a Debouncer.
type Options struct {
	// Window is the minimum spacing between two accepted calls from one origin.
	Window time.Duration
	// MaxOrigins bounds how many origins are tracked at once.
	MaxOrigins int
	// Retention is how long an idle origin is remembered. It must exceed
	// Window; it defaults to ten windows.
	Retention time.Duration
	// Now overrides the clock used by Allow.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.MaxOrigins <= 0 {
		o.MaxOrigins = DefaultMaxOrigins
	}
	if o.Retention <= o.Window {
		o.Retention = 10 * o.Window
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Debouncer accepts at most one call per Window for each origin. Rejected
// calls do not push the window forward. Origins idle for longer than
// Retention are forgotten, so memory stays bounded.
type Debouncer struct {
	mu       sync.Mutex
	window   time.Duration
	limiters *expirable.LRU[string, *rate.Limiter]
	now      func() time.Time
}

// NewDebouncer builds a Debouncer.
func NewDebouncer(opts Options) *Debouncer {
	cfg := opts.withDefaults()
	return &Debouncer{
		window:   cfg.Window,
		limiters: expirable.NewLRU[string, *rate.Limiter](cfg.MaxOrigins, nil, cfg.Retention),
		now:      cfg.Now,
	}
}

// Allow reports whether a call from origin may proceed now.
func (d *Debouncer) Allow(origin string) bool {
	return d.AllowAt(origin, d.now())
}

// AllowAt reports whether a call from origin may proceed at t.
func (d *Debouncer) AllowAt(origin string, t time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	lim, ok := d.limiters.Get(origin)
	if !ok {
		lim = rate.NewLimiter(rate.Every(d.window), 1)
	}
	if !lim.AllowN(t, 1) {
		return false
	}
	// Re-adding refreshes the retention deadline of an active origin.
	d.limiters.Add(origin, lim)
	return true
}

// Tracked reports how many origins are currently remembered.
func (d *Debouncer) Tracked() int { return d.limiters.Len() }

// Window returns the configured spacing.
func (d *Debouncer) Window() time.Duration { return d.window }

// Package memory is an in-process requests.Repository used for local runs
// and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/pinkoogupta/eduzap/requests"
)

type Option func(*Repository)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLocale selects the collation used for title ordering.
func WithLocale(tag language.Tag) Option {
	return func(r *Repository) {
		r.collator = newCollator(tag)
	}
}

type entry struct {
	rec requests.Record
	seq uint64
}

// Repository keeps records in a map. Title ordering uses a collator that
// ignores case and diacritics.
type Repository struct {
	mu       sync.Mutex
	records  map[string]entry
	seq      uint64
	collator *collate.Collator
	now      func() time.Time
}

func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		records:  make(map[string]entry),
		collator: newCollator(language.English),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func newCollator(tag language.Tag) *collate.Collator {
	return collate.New(tag, collate.IgnoreCase, collate.IgnoreDiacritics)
}

func (r *Repository) Insert(ctx context.Context, rec requests.NewRecord) (requests.Record, error) {
	if err := ctx.Err(); err != nil {
		return requests.Record{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	out := requests.Record{
		ID:        uuid.NewString(),
		Name:      rec.Name,
		Phone:     rec.Phone,
		Title:     rec.Title,
		Image:     rec.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.seq++
	r.records[out.ID] = entry{rec: out, seq: r.seq}
	return out, nil
}

func (r *Repository) Count(ctx context.Context, f requests.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matching(f)), nil
}

func (r *Repository) Find(ctx context.Context, f requests.Filter, s requests.Sort, skip, limit int) ([]requests.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.matching(f)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if s != requests.SortRecent {
			c := r.collator.CompareString(a.rec.Title, b.rec.Title)
			if s == requests.SortTitleDesc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return newer(a, b)
	})

	if skip < 0 {
		skip = 0
	}
	if skip >= len(matched) {
		return []requests.Record{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	out := make([]requests.Record, len(matched))
	for i, e := range matched {
		out[i] = e.rec
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return requests.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return requests.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

// Len reports the number of stored records.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *Repository) matching(f requests.Filter) []entry {
	needle := strings.ToLower(f.TitleContains)
	out := make([]entry, 0, len(r.records))
	for _, e := range r.records {
		if needle != "" && !strings.Contains(strings.ToLower(e.rec.Title), needle) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func newer(a, b entry) bool {
	if !a.rec.CreatedAt.Equal(b.rec.CreatedAt) {
		return a.rec.CreatedAt.After(b.rec.CreatedAt)
	}
	return a.seq > b.seq
}

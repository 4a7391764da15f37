package requests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/pinkoogupta/eduzap/blob"
	"github.com/pinkoogupta/eduzap/cache"
	"github.com/pinkoogupta/eduzap/notify"
)

var phonePattern = regexp.MustCompile(`^(?:\+91[0-9]{10}|[0-9]{10})$`)

// ValidPhone reports whether phone is ten digits, optionally prefixed by +91.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// CreateInput carries the raw fields of a submission. Image is optional.
type CreateInput struct {
	Name  string
	Phone string
	Title string
	Image *blob.Upload
}

// Deleted is the payload of a request-deleted event.
type Deleted struct {
	ID string `json:"id"`
}

// Service orchestrates the record store, blob store, page cache and
// notifications for the five request operations.
type Service struct {
	repo       Repository
	blobs      blob.Store
	cache      cache.Store
	publisher  notify.Publisher
	limiter    Limiter
	logger     *slog.Logger
	ttl        time.Duration
	pagination Pagination
}

// NewService wires a Service around repo.
func NewService(repo Repository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("requests: repository is required")
	}
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.Pagination.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		repo:       repo,
		blobs:      cfg.Blobs,
		cache:      cfg.Cache,
		publisher:  cfg.Publisher,
		limiter:    cfg.Limiter,
		logger:     cfg.Logger,
		ttl:        cfg.CacheTTL,
		pagination: cfg.Pagination,
	}, nil
}

// Pagination reports the limits applied to page queries.
func (s *Service) Pagination() Pagination { return s.pagination }

// Create validates and stores a new request, uploading its image first when
// one is attached. On success every cached page is invalidated before the
// request-created event is published.
func (s *Service) Create(ctx context.Context, in CreateInput) (Record, error) {
	rec := NewRecord{
		Name:  strings.TrimSpace(in.Name),
		Phone: strings.TrimSpace(in.Phone),
		Title: strings.TrimSpace(in.Title),
	}
	if rec.Name == "" || rec.Phone == "" || rec.Title == "" {
		return Record{}, &ValidationError{Rule: RuleMissingFields}
	}
	if !ValidPhone(rec.Phone) {
		return Record{}, &ValidationError{Rule: RuleInvalidPhone}
	}

	var uploaded *blob.Object
	if in.Image != nil {
		if s.blobs == nil {
			return Record{}, fmt.Errorf("%w: image uploads are disabled", ErrUpload)
		}
		obj, err := s.blobs.Put(ctx, *in.Image)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %w", ErrUpload, err)
		}
		uploaded = &obj
		rec.Image = obj.URL
	}

	created, err := s.repo.Insert(ctx, rec)
	if err != nil {
		if uploaded != nil {
			s.discardUpload(context.WithoutCancel(ctx), *uploaded)
		}
		return Record{}, fmt.Errorf("%w: insert: %w", ErrStorage, err)
	}

	mutations.WithLabelValues("create").Inc()
	// The record is committed: the sweep and the event must still run when
	// the caller goes away.
	post := context.WithoutCancel(ctx)
	s.invalidate(post)
	s.publish(post, notify.EventRequestCreated, created)
	return created, nil
}

// List returns a page of all requests, newest first. The bool reports
// whether the page came from the cache.
func (s *Service) List(ctx context.Context, q PageQuery) (PageResult, bool, error) {
	q = q.Normalize(s.pagination)
	return s.page(ctx, FamilyAll, allKey(q), Filter{}, SortRecent, q)
}

// ListSorted returns a page ordered by title in the given direction.
func (s *Service) ListSorted(ctx context.Context, order Order, q PageQuery) (PageResult, bool, error) {
	q = q.Normalize(s.pagination)
	if order != OrderDesc {
		order = OrderAsc
	}
	return s.page(ctx, order.family(), sortedKey(order, q), Filter{}, order.sort(), q)
}

// Search returns a page of requests whose title contains query, ignoring
// case, newest first. An empty query matches everything. Calls from the same
// origin closer together than the debounce window fail with ErrRateLimited
// before touching the cache or store.
func (s *Service) Search(ctx context.Context, origin, query string, q PageQuery) (PageResult, bool, error) {
	if s.limiter != nil && !s.limiter.Allow(origin) {
		searchRejected.Inc()
		return PageResult{}, false, ErrRateLimited
	}
	q = q.Normalize(s.pagination)
	query = strings.TrimSpace(query)
	return s.page(ctx, FamilySearch, searchKey(query, q), Filter{TitleContains: query}, SortRecent, q)
}

// Delete removes the request with id. A missing record yields ErrNotFound
// and leaves the cache and subscribers untouched.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: delete: %w", ErrStorage, err)
	}

	mutations.WithLabelValues("delete").Inc()
	post := context.WithoutCancel(ctx)
	s.invalidate(post)
	s.publish(post, notify.EventRequestDeleted, Deleted{ID: id})
	return id, nil
}

func (s *Service) page(ctx context.Context, family, key string, f Filter, sort Sort, q PageQuery) (PageResult, bool, error) {
	if res, ok := s.cached(ctx, family, key); ok {
		return res, true, nil
	}

	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return PageResult{}, false, fmt.Errorf("%w: count: %w", ErrStorage, err)
	}
	var items []Record
	if q.Offset() < total {
		items, err = s.repo.Find(ctx, f, sort, q.Offset(), q.Limit)
		if err != nil {
			return PageResult{}, false, fmt.Errorf("%w: find: %w", ErrStorage, err)
		}
	}
	res := NewPageResult(items, total, q)
	s.store(ctx, key, res)
	return res, false, nil
}

func (s *Service) cached(ctx context.Context, family, key string) (PageResult, bool) {
	if s.cache == nil {
		return PageResult{}, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.WarnContext(ctx, "page cache read failed", "key", key, "error", err)
		}
		cacheLookups.WithLabelValues(familyLabel(family), "miss").Inc()
		return PageResult{}, false
	}
	var res PageResult
	if err := json.Unmarshal(raw, &res); err != nil {
		s.logger.WarnContext(ctx, "page cache entry corrupt", "key", key, "error", err)
		cacheLookups.WithLabelValues(familyLabel(family), "miss").Inc()
		return PageResult{}, false
	}
	if res.Items == nil {
		res.Items = []Record{}
	}
	cacheLookups.WithLabelValues(familyLabel(family), "hit").Inc()
	return res, true
}

func (s *Service) store(ctx context.Context, key string, res PageResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		s.logger.WarnContext(ctx, "page cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "page cache write failed", "key", key, "error", err)
	}
}

// invalidate sweeps every cache family. Failures are logged; the mutation
// that triggered the sweep has already been committed.
func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, family := range families {
		n, err := s.cache.DeletePrefix(ctx, family)
		if err != nil {
			s.logger.WarnContext(ctx, "cache invalidation failed", "family", family, "error", err)
			continue
		}
		cacheInvalidated.Add(float64(n))
	}
}

func (s *Service) publish(ctx context.Context, event string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event, payload); err != nil {
		s.logger.WarnContext(ctx, "event publish failed", "event", event, "error", err)
	}
}

func (s *Service) discardUpload(ctx context.Context, obj blob.Object) {
	if err := s.blobs.Delete(ctx, obj.Key); err != nil {
		s.logger.ErrorContext(ctx, "orphaned image after failed insert", "key", obj.Key, "url", obj.URL, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "removed image after failed insert", "key", obj.Key)
}

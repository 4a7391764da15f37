// Package requests implements the request submission service: validation,
// storage, cached pagination, cache invalidation and change notifications.
package requests

import (
	"context"
	"time"
)

// Record is a persisted service request.
type Record struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRecord holds the validated fields of a record that has not been stored
// yet. The store assigns ID and CreatedAt.
type NewRecord struct {
	Name  string
	Phone string
	Title string
	Image string
}

// Filter narrows the records considered by Count and Find. An empty
// TitleContains matches every record.
type Filter struct {
	TitleContains string
}

// Sort selects the ordering used by Find.
type Sort int

const (
	// SortRecent orders by creation time, newest first.
	SortRecent Sort = iota
	// SortTitleAsc orders by title ignoring case and accents; ties newest first.
	SortTitleAsc
	// SortTitleDesc reverses SortTitleAsc on title; ties newest first.
	SortTitleDesc
)

func (s Sort) String() string {
	switch s {
	case SortTitleAsc:
		return "title_asc"
	case SortTitleDesc:
		return "title_desc"
	default:
		return "recent"
	}
}

// Repository is the durable record store.
type Repository interface {
	Insert(ctx context.Context, rec NewRecord) (Record, error)
	Count(ctx context.Context, f Filter) (int, error)
	Find(ctx context.Context, f Filter, s Sort, skip, limit int) ([]Record, error)
	// Delete removes the record with the given id, returning ErrNotFound
	// when nothing matched.
	Delete(ctx context.Context, id string) error
}

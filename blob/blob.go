// Package blob defines the image storage capability used by request
// submissions.
package blob

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	ErrEmptyUpload = errors.New("blob: empty upload")
	ErrNotFound    = errors.New("blob: object not found")
)

// Upload is an image payload received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Object identifies a stored blob. URL is public; Key is the store-specific
// handle accepted by Delete.
type Object struct {
	URL string
	Key string
}

// Store persists uploads and returns a retrievable URL.
type Store interface {
	Put(ctx context.Context, up Upload) (Object, error)
	Delete(ctx context.Context, key string) error
}

// Ext returns the lower-cased file extension of the upload, including the dot.
func (u Upload) Ext() string {
	return strings.ToLower(path.Ext(u.Filename))
}

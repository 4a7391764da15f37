// Package cloudinary stores images through the Cloudinary upload API.
package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pinkoogupta/eduzap/blob"
	"github.com/pinkoogupta/eduzap/httpx"
)

var ErrMissingCredentials = errors.New("cloudinary: cloud name, api key and api secret are required")

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

type destroyResponse struct {
	Result string `json:"result"`
}

// Store implements blob.Store against Cloudinary's signed upload endpoint.
type Store struct {
	opts   Options
	client *httpx.Client
	now    func() time.Time
}

var _ blob.Store = (*Store)(nil)

// NewStore builds a Cloudinary-backed store.
func NewStore(opts Options) (*Store, error) {
	cfg := opts.withDefaults()
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrMissingCredentials
	}
	client := httpx.NewClient(
		httpx.WithBaseURL(cfg.BaseURL),
		httpx.WithClientTimeout(cfg.Timeout),
		httpx.WithHeaders(map[string]string{"Accept": "application/json"}),
	)
	return &Store{opts: cfg, client: client, now: time.Now}, nil
}

// Put uploads the image and returns its secure URL. The Cloudinary public id
// is used as the object key.
func (s *Store) Put(ctx context.Context, up blob.Upload) (blob.Object, error) {
	if up.Body == nil {
		return blob.Object{}, blob.ErrEmptyUpload
	}
	params := map[string]string{
		"folder":    s.opts.Folder,
		"timestamp": strconv.FormatInt(s.now().Unix(), 10),
	}
	fields := s.signed(params)

	filename := up.Filename
	if filename == "" {
		filename = "upload"
	}

	var out uploadResponse
	path := fmt.Sprintf("/v1_1/%s/image/upload", s.opts.CloudName)
	if _, err := s.client.PostMultipart(ctx, path, fields, httpx.MultipartFile{
		Field:       "file",
		Filename:    filename,
		ContentType: up.ContentType,
		Reader:      up.Body,
	}, &out); err != nil {
		return blob.Object{}, fmt.Errorf("cloudinary: upload: %w", err)
	}
	if out.SecureURL == "" {
		return blob.Object{}, errors.New("cloudinary: upload response missing secure_url")
	}
	return blob.Object{URL: out.SecureURL, Key: out.PublicID}, nil
}

// Delete destroys the image with the given public id.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return blob.ErrNotFound
	}
	fields := s.signed(map[string]string{
		"public_id": key,
		"timestamp": strconv.FormatInt(s.now().Unix(), 10),
	})

	var out destroyResponse
	path := fmt.Sprintf("/v1_1/%s/image/destroy", s.opts.CloudName)
	if _, err := s.client.PostForm(ctx, path, fields, &out); err != nil {
		return fmt.Errorf("cloudinary: destroy: %w", err)
	}
	switch out.Result {
	case "ok":
		return nil
	case "not found":
		return blob.ErrNotFound
	default:
		return fmt.Errorf("cloudinary: destroy returned %q", out.Result)
	}
}

// signed adds api_key and signature to params following Cloudinary's scheme:
// sha1 of the sorted "k=v" pairs joined by "&", suffixed with the secret.
func (s *Store) signed(params map[string]string) map[string]string {
	out := make(map[string]string, len(params)+2)
	for k, v := range params {
		out[k] = v
	}
	out["signature"] = sign(params, s.opts.APISecret)
	out["api_key"] = s.opts.APIKey
	return out
}

func sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

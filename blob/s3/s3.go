// Package s3 stores images in an S3-compatible bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/pinkoogupta/eduzap/blob"
)

var ErrMissingBucket = errors.New("s3: bucket is required")

// objectAPI is the subset of *s3.Client used by Store.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store implements blob.Store on top of PutObject and DeleteObject.
type Store struct {
	api  objectAPI
	opts Options
	now  func() time.Time
}

var _ blob.Store = (*Store)(nil)

// NewStore loads AWS configuration and builds an S3 client. Static
// credentials are used when both keys are set; otherwise the default
// credential chain applies.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	cfg := opts.withDefaults()
	if cfg.Bucket == "" {
		return nil, ErrMissingBucket
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newStore(client, cfg), nil
}

func newStore(api objectAPI, cfg Options) *Store {
	return &Store{api: api, opts: cfg, now: time.Now}
}

// Put writes the upload under a dated random key.
func (s *Store) Put(ctx context.Context, up blob.Upload) (blob.Object, error) {
	if up.Body == nil {
		return blob.Object{}, blob.ErrEmptyUpload
	}
	key := s.newKey(up.Ext())

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
		Body:   up.Body,
	}
	if up.ContentType != "" {
		in.ContentType = aws.String(up.ContentType)
	}
	if up.Size > 0 {
		in.ContentLength = aws.Int64(up.Size)
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		return blob.Object{}, fmt.Errorf("s3: put %s: %w", key, err)
	}
	return blob.Object{URL: s.opts.publicBase() + "/" + key, Key: key}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return blob.ErrNotFound
	}
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) newKey(ext string) string {
	d := s.now().UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s%s", s.opts.Prefix, d.Year(), d.Month(), d.Day(), uuid.NewString(), ext)
}

package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinkoogupta/eduzap/blob"
)

type fakeAPI struct {
	putErr  error
	put     *s3.PutObjectInput
	body    string
	deleted []string
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.put = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newTestStore(api objectAPI, opts Options) *Store {
	s := newStore(api, opts.withDefaults())
	s.now = func() time.Time { return time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestPutUploadsWithDatedKey(t *testing.T) {
	api := &fakeAPI{}
	s := newTestStore(api, Options{Bucket: "images", Endpoint: "http://minio:9000/"})

	obj, err := s.Put(context.Background(), blob.Upload{
		Filename:    "Cover.PNG",
		ContentType: "image/png",
		Size:        3,
		Body:        strings.NewReader("png"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(obj.Key, "eduzap/2026/02/07/"), obj.Key)
	assert.True(t, strings.HasSuffix(obj.Key, ".png"), obj.Key)
	assert.Equal(t, "http://minio:9000/images/"+obj.Key, obj.URL)

	require.NotNil(t, api.put)
	assert.Equal(t, "images", aws.ToString(api.put.Bucket))
	assert.Equal(t, obj.Key, aws.ToString(api.put.Key))
	assert.Equal(t, "image/png", aws.ToString(api.put.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(api.put.ContentLength))
	assert.Equal(t, "png", api.body)
}

func TestPublicURLForms(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", Options{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"}.withDefaults().publicBase())
	assert.Equal(t, "https://b.s3.ap-south-1.amazonaws.com", Options{Bucket: "b", Region: "ap-south-1"}.withDefaults().publicBase())
	assert.True(t, Options{Bucket: "b", Endpoint: "http://minio:9000"}.withDefaults().UsePathStyle)
}

func TestPutErrors(t *testing.T) {
	s := newTestStore(&fakeAPI{}, Options{Bucket: "images"})
	_, err := s.Put(context.Background(), blob.Upload{Filename: "x.png"})
	assert.ErrorIs(t, err, blob.ErrEmptyUpload)

	boom := errors.New("access denied")
	s = newTestStore(&fakeAPI{putErr: boom}, Options{Bucket: "images"})
	_, err = s.Put(context.Background(), blob.Upload{Filename: "x.png", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, boom)
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{}
	s := newTestStore(api, Options{Bucket: "images"})

	require.NoError(t, s.Delete(context.Background(), "eduzap/2026/02/07/a.png"))
	assert.Equal(t, []string{"eduzap/2026/02/07/a.png"}, api.deleted)
	assert.ErrorIs(t, s.Delete(context.Background(), ""), blob.ErrNotFound)
}

func TestNewStoreRequiresBucket(t *testing.T) {
	_, err := NewStore(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrMissingBucket)
}

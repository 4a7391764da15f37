package cloudinary

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinkoogupta/eduzap/blob"
	"github.com/pinkoogupta/eduzap/httpx"
)

type received struct {
	fields   map[string]string
	filename string
	body     string
}

func newFakeCloudinary(t *testing.T, destroyResult string) (*httpx.TestServer, *received) {
	t.Helper()
	got := &received{fields: map[string]string{}}
	server := httpx.NewServer()
	server.RegisterRoutes(func(a *httpx.App) {
		a.POST("/v1_1/demo/image/upload", func(c httpx.Context) error {
			form, err := c.MultipartForm()
			if err != nil {
				return httpx.HTTPError(httpx.StatusBadRequest, err.Error())
			}
			for k, v := range form.Value {
				got.fields[k] = v[0]
			}
			fh := form.File["file"][0]
			got.filename = fh.Filename
			f, err := fh.Open()
			if err != nil {
				return err
			}
			defer f.Close()
			b, _ := io.ReadAll(f)
			got.body = string(b)
			return c.JSON(httpx.StatusOK, map[string]string{
				"public_id":  "eduzap/abc123",
				"secure_url": "https://res.cloudinary.com/demo/image/upload/eduzap/abc123.png",
			})
		})
		a.POST("/v1_1/demo/image/destroy", func(c httpx.Context) error {
			got.fields["public_id"] = c.FormValue("public_id")
			got.fields["signature"] = c.FormValue("signature")
			return c.JSON(httpx.StatusOK, map[string]string{"result": destroyResult})
		})
	})
	ts := httpx.NewTestServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, got
}

func newTestStore(t *testing.T, baseURL string) *Store {
	t.Helper()
	s, err := NewStore(Options{CloudName: "demo", APIKey: "key", APISecret: "secret", BaseURL: baseURL})
	require.NoError(t, err)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestSign(t *testing.T) {
	// sha1("folder=eduzap&timestamp=1700000000secret")
	params := map[string]string{"timestamp": "1700000000", "folder": "eduzap", "empty": ""}
	assert.Equal(t, sign(map[string]string{"folder": "eduzap", "timestamp": "1700000000"}, "secret"), sign(params, "secret"))
	assert.Len(t, sign(params, "secret"), 40)
	assert.NotEqual(t, sign(params, "secret"), sign(params, "other"))
}

func TestPutSendsSignedMultipart(t *testing.T) {
	ts, got := newFakeCloudinary(t, "ok")
	s := newTestStore(t, ts.BaseURL())

	obj, err := s.Put(context.Background(), blob.Upload{
		Filename:    "cover.png",
		ContentType: "image/png",
		Body:        strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/eduzap/abc123.png", obj.URL)
	assert.Equal(t, "eduzap/abc123", obj.Key)

	assert.Equal(t, "cover.png", got.filename)
	assert.Equal(t, "png-bytes", got.body)
	assert.Equal(t, "key", got.fields["api_key"])
	assert.Equal(t, "eduzap", got.fields["folder"])
	assert.Equal(t, "1700000000", got.fields["timestamp"])
	assert.Equal(t, sign(map[string]string{"folder": "eduzap", "timestamp": "1700000000"}, "secret"), got.fields["signature"])
}

func TestDeleteResults(t *testing.T) {
	ts, got := newFakeCloudinary(t, "ok")
	s := newTestStore(t, ts.BaseURL())
	require.NoError(t, s.Delete(context.Background(), "eduzap/abc123"))
	assert.Equal(t, "eduzap/abc123", got.fields["public_id"])
	assert.NotEmpty(t, got.fields["signature"])

	ts, _ = newFakeCloudinary(t, "not found")
	s = newTestStore(t, ts.BaseURL())
	assert.ErrorIs(t, s.Delete(context.Background(), "eduzap/missing"), blob.ErrNotFound)

	assert.ErrorIs(t, s.Delete(context.Background(), ""), blob.ErrNotFound)
}

func TestPutRejectsEmptyBody(t *testing.T) {
	s := newTestStore(t, "http://127.0.0.1:1")
	_, err := s.Put(context.Background(), blob.Upload{Filename: "x.png"})
	assert.ErrorIs(t, err, blob.ErrEmptyUpload)
}

func TestNewStoreRequiresCredentials(t *testing.T) {
	_, err := NewStore(Options{CloudName: "demo"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

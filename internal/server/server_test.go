package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinkoogupta/eduzap/auth"
	"github.com/pinkoogupta/eduzap/config"
	"github.com/pinkoogupta/eduzap/httpx"
	"github.com/pinkoogupta/eduzap/requests"
)

type pageBody struct {
	Success bool                `json:"success"`
	Data    requests.PageResult `json:"data"`
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)
	cfg.Server.Addr = "127.0.0.1:0"
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startApp(t *testing.T, cfg config.Config) *httpx.Client {
	t.Helper()
	app, err := Build(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ts := httpx.NewTestServer(app.Handler())
	t.Cleanup(ts.Close)
	return ts.Client()
}

func TestBuildMemoryBackends(t *testing.T) {
	client := startApp(t, testConfig(t))
	ctx := context.Background()

	resp, err := client.Post(ctx, "/api/v1/requests",
		map[string]string{"name": "Asha", "phone": "9876543210", "title": "NEET Biology"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode())

	var page pageBody
	resp, err = client.Get(ctx, "/api/v1/requests/get", &page)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	require.Len(t, page.Data.Items, 1)
	assert.Equal(t, "NEET Biology", page.Data.Items[0].Title)
	assert.Equal(t, 5, page.Data.Limit)

	resp, err = client.Get(ctx, "/healthz", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestBuildWithoutCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Driver = config.DriverNone
	client := startApp(t, cfg)

	resp, err := client.Get(context.Background(), "/api/v1/requests/sorted", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestBuildCustomPrefixAndPagination(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Prefix = "/v2"
	cfg.Pagination.DefaultLimit = 2
	client := startApp(t, cfg)

	var page pageBody
	resp, err := client.Get(context.Background(), "/v2/requests/get", &page)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, 2, page.Data.Limit)
}

func TestBuildAdminGuard(t *testing.T) {
	const token = "dashboard-token-0123456789"
	hash, err := auth.NewBcryptHasher(auth.WithBcryptCost(4)).Hash(context.Background(), []byte(token), auth.PasswordOptions{})
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Admin.TokenHash = string(hash.Value)
	client := startApp(t, cfg)
	ctx := context.Background()

	resp, err := client.Get(ctx, "/api/v1/requests/get", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())

	resp, err = client.Get(ctx, "/api/v1/requests/get", nil, httpx.WithBearer(token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	resp, err = client.Post(ctx, "/api/v1/requests",
		map[string]string{"name": "Asha", "phone": "9876543210", "title": "Public"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode())
}

func TestBuildRejectsBadHash(t *testing.T) {
	cfg := testConfig(t)
	cfg.Admin.TokenHash = "not-a-hash"
	_, err := Build(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "admin token hash")
}

func TestBuildRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Blob.Driver = "ftp"
	_, err := Build(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "unsupported blob driver")
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	cfg.Server.Addr = ln.Addr().String()
	require.NoError(t, ln.Close())

	app, err := Build(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	client := httpx.NewClient(httpx.WithBaseURL("http://" + cfg.Server.Addr))
	require.Eventually(t, func() bool {
		resp, err := client.Get(context.Background(), "/", nil)
		return err == nil && resp.StatusCode() == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

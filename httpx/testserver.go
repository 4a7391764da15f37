package httpx

import (
	"net/http"
	"net/http/httptest"
)

// TestServer is an httptest.Server paired with a Client factory, so tests
// drive handlers through the same resty client production callers use.
type TestServer struct{ *httptest.Server }

// NewTestServer starts handler on a loopback listener. Callers Close it.
func NewTestServer(handler http.Handler) *TestServer {
	return &TestServer{httptest.NewServer(handler)}
}

// BaseURL is the server root, or "" once the server is gone.
func (ts *TestServer) BaseURL() string {
	if ts == nil || ts.Server == nil {
		return ""
	}
	return ts.URL
}

// Client returns a Client aimed at the server. opts apply after the base URL
// so a test may still override it.
func (ts *TestServer) Client(opts ...ClientOption) *Client {
	return NewClient(append([]ClientOption{WithBaseURL(ts.BaseURL())}, opts...)...)
}

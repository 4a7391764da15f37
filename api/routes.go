package api

import (
	"net/http"

	"github.com/pinkoogupta/eduzap/auth"
	"github.com/pinkoogupta/eduzap/httpx"
)

// DefaultPrefix is the mount point of the request endpoints.
const DefaultPrefix = "/api/v1"

// TokenQueryParam carries the admin token for EventSource clients, which
// cannot set headers.
const TokenQueryParam = "token"

// Routes registers every endpoint. Submissions are public; dashboard reads,
// deletes and the event stream go through guard when it is non-nil.
func (h *Handler) Routes(prefix string, guard httpx.MiddlewareFunc) httpx.RouteRegistrar {
	return func(a *httpx.App) {
		var admin []httpx.MiddlewareFunc
		if guard != nil {
			admin = append(admin, guard)
		}

		httpx.NewRouter(a, prefix).
			POST("/requests", h.Create).
			GET("/requests/get", h.List, admin...).
			GET("/requests/sorted", h.ListSorted, admin...).
			GET("/requests/search", h.Search, admin...).
			GET("/requests/events", h.Events, admin...).
			DELETE("/requests/:id", h.Delete, admin...)

		httpx.RegisterRoutes(a,
			httpx.Route{Method: http.MethodGet, Path: "/", Handler: root},
			httpx.Route{Method: http.MethodGet, Path: "/healthz", Handler: h.Health},
			httpx.Route{Method: http.MethodGet, Path: "/metrics", Handler: httpx.MetricsHandler()},
		)
	}
}

func root(c httpx.Context) error {
	return c.String(httpx.StatusOK, "APIs are working")
}

// AdminGuard builds middleware that accepts the admin token as a bearer
// header or as the token query parameter. CORS preflights pass through.
func AdminGuard(parser auth.TokenParser) (httpx.MiddlewareFunc, error) {
	mw, err := auth.NewMiddleware(parser,
		auth.WithTokenExtractor(auth.ChainExtractors(
			auth.BearerTokenExtractor(),
			auth.QueryTokenExtractor(TokenQueryParam),
		)),
		auth.WithSkipper(func(r *http.Request) bool {
			return r.Method == http.MethodOptions
		}),
	)
	if err != nil {
		return nil, err
	}
	return httpx.AuthMiddleware(mw), nil
}

package httpx

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Route is one entry of a flat route table.
type Route struct {
	Method     string
	Path       string
	Handler    HandlerFunc
	Middleware []MiddlewareFunc
}

// RegisterRoutes mounts a route table at the root of a. Entries missing a
// method, path or handler are skipped.
func RegisterRoutes(a *App, routes ...Route) {
	if a == nil || a.e == nil {
		return
	}
	for _, r := range routes {
		if r.Handler == nil || r.Path == "" || r.Method == "" {
			continue
		}
		a.e.Add(strings.ToUpper(r.Method), r.Path, r.Handler, r.Middleware...)
	}
}

// Router mounts routes under a shared prefix. Its methods chain so a
// resource's endpoints read as one block.
type Router struct{ g *echo.Group }

// NewRouter returns a Router rooted at prefix with mw applied to every route.
// A nil App yields a Router that ignores registrations.
func NewRouter(a *App, prefix string, mw ...MiddlewareFunc) *Router {
	if a == nil || a.e == nil {
		return &Router{}
	}
	return &Router{g: a.e.Group(prefix, mw...)}
}

func (r *Router) GET(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	return r.add(http.MethodGet, path, h, mw)
}

func (r *Router) POST(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	return r.add(http.MethodPost, path, h, mw)
}

func (r *Router) DELETE(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	return r.add(http.MethodDelete, path, h, mw)
}

func (r *Router) add(method, path string, h HandlerFunc, mw []MiddlewareFunc) *Router {
	if r.g != nil && h != nil && path != "" {
		r.g.Add(method, path, h, mw...)
	}
	return r
}

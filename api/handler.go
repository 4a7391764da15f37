// Package api exposes the request service over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pinkoogupta/eduzap/auth"
	"github.com/pinkoogupta/eduzap/blob"
	"github.com/pinkoogupta/eduzap/httpx"
	"github.com/pinkoogupta/eduzap/notify"
	"github.com/pinkoogupta/eduzap/requests"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handler serves the request endpoints.
type Handler struct {
	svc       *requests.Service
	hub       *notify.Hub
	logger    *slog.Logger
	checks    map[string]HealthCheck
	heartbeat time.Duration
	maxImage  int64
}

type Option func(*Handler)

// WithHub enables the event stream endpoint.
func WithHub(hub *notify.Hub) Option {
	return func(h *Handler) {
		h.hub = hub
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithHealthCheck registers a named dependency check for /healthz.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *Handler) {
		if name != "" && check != nil {
			h.checks[name] = check
		}
	}
}

// WithHeartbeat sets the keep-alive interval of the event stream.
func WithHeartbeat(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// WithMaxImageSize rejects image files larger than n bytes. Zero disables the
// check.
func WithMaxImageSize(n int64) Option {
	return func(h *Handler) {
		if n >= 0 {
			h.maxImage = n
		}
	}
}

func NewHandler(svc *requests.Service, opts ...Option) *Handler {
	h := &Handler{
		svc:       svc,
		logger:    slog.Default(),
		checks:    make(map[string]HealthCheck),
		heartbeat: 25 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

type createBody struct {
	Name  string `json:"name" form:"name"`
	Phone string `json:"phone" form:"phone"`
	Title string `json:"title" form:"title"`
}

// Create handles POST /requests. The body may be multipart (with an optional
// "image" file), url-encoded or JSON.
func (h *Handler) Create(c httpx.Context) error {
	var body createBody
	if err := c.Bind(&body); err != nil {
		return httpx.HTTPError(httpx.StatusBadRequest, "Invalid request body")
	}
	in := requests.CreateInput{Name: body.Name, Phone: body.Phone, Title: body.Title}

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("image")
		switch {
		case err == nil:
			if h.maxImage > 0 && fh.Size > h.maxImage {
				return httpx.HTTPError(httpx.StatusRequestEntityTooLarge, "Image is too large")
			}
			f, err := fh.Open()
			if err != nil {
				return httpx.HTTPError(httpx.StatusBadRequest, "Unable to read image")
			}
			defer f.Close()
			in.Image = &blob.Upload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get(echo.HeaderContentType),
				Size:        fh.Size,
				Body:        f,
			}
		case !errors.Is(err, http.ErrMissingFile):
			return httpx.HTTPError(httpx.StatusBadRequest, "Invalid multipart body")
		}
	}

	rec, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return h.respondError(c, err, "Something went wrong while creating the request")
	}
	return c.JSON(httpx.StatusCreated, dataResponse{
		Success: true,
		Message: "Request created successfully",
		Data:    rec,
	})
}

// List handles GET /requests/get.
func (h *Handler) List(c httpx.Context) error {
	res, cached, err := h.svc.List(c.Request().Context(), pageQuery(c))
	if err != nil {
		return h.respondError(c, err, "Unable to fetch requests")
	}
	return c.JSON(httpx.StatusOK, pageResponse{Success: true, Data: res, Cached: cached})
}

// ListSorted handles GET /requests/sorted.
func (h *Handler) ListSorted(c httpx.Context) error {
	order := requests.ParseOrder(c.QueryParam("order"))
	res, cached, err := h.svc.ListSorted(c.Request().Context(), order, pageQuery(c))
	if err != nil {
		return h.respondError(c, err, "Unable to fetch sorted requests")
	}
	return c.JSON(httpx.StatusOK, pageResponse{Success: true, Data: res, Cached: cached})
}

// Search handles GET /requests/search. The client address is the debounce
// origin.
func (h *Handler) Search(c httpx.Context) error {
	res, cached, err := h.svc.Search(c.Request().Context(), c.RealIP(), c.QueryParam("title"), pageQuery(c))
	if err != nil {
		return h.respondError(c, err, "Unable to search requests")
	}
	return c.JSON(httpx.StatusOK, pageResponse{Success: true, Data: res, Cached: cached})
}

// Delete handles DELETE /requests/:id.
func (h *Handler) Delete(c httpx.Context) error {
	ctx := c.Request().Context()
	id, err := h.svc.Delete(ctx, c.Param("id"))
	if err != nil {
		return h.respondError(c, err, "Unable to delete request")
	}
	subject := "anonymous"
	if tok, ok := auth.TokenFromContext(ctx); ok {
		subject = tok.Subject()
	}
	h.logger.InfoContext(ctx, "request deleted", "id", id, "subject", subject)
	return c.JSON(httpx.StatusOK, dataResponse{
		Success: true,
		Message: "Request deleted successfully",
		Data:    requests.Deleted{ID: id},
	})
}

// Health reports the status of every registered dependency.
func (h *Handler) Health(c httpx.Context) error {
	status := httpx.StatusOK
	checks := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(c.Request().Context()); err != nil {
			h.logger.WarnContext(c.Request().Context(), "health check failed", "check", name, "error", err)
			checks[name] = "fail"
			status = httpx.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	overall := "ok"
	if status != httpx.StatusOK {
		overall = "degraded"
	}
	return c.JSON(status, healthResponse{Status: overall, Checks: checks})
}

// pageQuery reads page and limit; unparsable values become zero and are
// replaced by the service defaults.
func pageQuery(c httpx.Context) requests.PageQuery {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return requests.PageQuery{Page: page, Limit: limit}
}

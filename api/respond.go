package api

import (
	"errors"

	"github.com/pinkoogupta/eduzap/httpx"
	"github.com/pinkoogupta/eduzap/requests"
)

type dataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

type pageResponse struct {
	Success bool                `json:"success"`
	Data    requests.PageResult `json:"data"`
	Cached  bool                `json:"cached"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

var ruleMessages = map[string]string{
	requests.RuleMissingFields: "Name, phone, and title are required",
	requests.RuleInvalidPhone:  "Phone must be 10 digits, optionally prefixed with +91",
}

// respondError maps service errors to HTTP errors. Unexpected failures are
// logged and reported with the generic fallback message.
func (h *Handler) respondError(c httpx.Context, err error, fallback string) error {
	var verr *requests.ValidationError
	switch {
	case errors.As(err, &verr):
		msg, ok := ruleMessages[verr.Rule]
		if !ok {
			msg = verr.Rule
		}
		return httpx.HTTPError(httpx.StatusBadRequest, msg)
	case errors.Is(err, requests.ErrRateLimited):
		return httpx.HTTPError(httpx.StatusTooManyRequests, "Too many search requests, please wait a moment")
	case errors.Is(err, requests.ErrNotFound):
		return httpx.HTTPError(httpx.StatusNotFound, "Request not found")
	}
	h.logger.ErrorContext(c.Request().Context(), "request failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"error", err,
	)
	return httpx.HTTPError(httpx.StatusInternalError, fallback)
}

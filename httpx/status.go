package httpx

import "net/http"

// Status codes the handlers in this module answer with. Handlers refer to
// these rather than net/http so the response vocabulary lives in one place.
const (
	StatusOK                    = http.StatusOK
	StatusCreated               = http.StatusCreated
	StatusBadRequest            = http.StatusBadRequest
	StatusUnauthorized          = http.StatusUnauthorized
	StatusNotFound              = http.StatusNotFound
	StatusRequestEntityTooLarge = http.StatusRequestEntityTooLarge
	StatusTooManyRequests       = http.StatusTooManyRequests
	StatusInternalError         = http.StatusInternalServerError
	StatusServiceUnavailable    = http.StatusServiceUnavailable
)

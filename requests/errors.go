package requests

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("requests: validation failed")
	ErrRateLimited = errors.New("requests: too many search requests")
	ErrNotFound    = errors.New("requests: request not found")
	ErrStorage     = errors.New("requests: storage failure")
	ErrUpload      = errors.New("requests: image upload failed")
)

// Validation rules reported by ValidationError.
const (
	RuleMissingFields = "missing fields"
	RuleInvalidPhone  = "invalid phone"
)

// ValidationError reports which input rule a create call violated.
type ValidationError struct {
	Rule string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("requests: validation failed: %s", e.Rule)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

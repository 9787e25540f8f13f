package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrFieldNotAllowed = errors.New("field not allowed")
	ErrInvalidValue    = errors.New("invalid value")
	ErrStatusConflict  = errors.New("status changed concurrently, reload and retry")
	ErrNotReady        = errors.New("not ready")
	ErrUnavailable     = errors.New("unavailable")
)

// Error is an error of a known kind whose message is shown to the caller as is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New builds an *Error of the given kind.
func New(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// HTTPStatus maps an error to the response code handlers should use.
func HTTPStatus(err error) int {
	var transitionErr *workflows.TransitionError
	switch {
	case errors.As(err, &transitionErr):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrFieldNotAllowed), errors.Is(err, ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, ErrStatusConflict), errors.Is(err, ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

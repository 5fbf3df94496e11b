package xerrors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common reusable application errors. Concrete errors are marked with one
// of these so callers can branch with Is regardless of wrapping.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden")
	ErrValidation       = errors.New("validation error")
	ErrPolicy           = errors.New("policy violation")
	ErrConflict         = errors.New("conflict")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnavailable      = errors.New("dependency unavailable")
	ErrInternal         = errors.New("internal server error")
)

var statusCodes = []struct {
	sentinel error
	status   int
}{
	{ErrValidation, http.StatusBadRequest},
	{ErrPolicy, http.StatusUnprocessableEntity},
	{ErrConflict, http.StatusConflict},
	{ErrInvalidOperation, http.StatusConflict},
	{ErrNotFound, http.StatusNotFound},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrUnavailable, http.StatusServiceUnavailable},
	{ErrInternal, http.StatusInternalServerError},
}

// Builder accumulates context on an error. Mark must be the last call.
type Builder struct {
	err error
}

// New starts a builder chain from a message.
func New(msg string) *Builder {
	return &Builder{err: errors.New(msg)}
}

// Newf starts a builder chain from a formatted message.
func Newf(format string, args ...any) *Builder {
	return &Builder{err: errors.Newf(format, args...)}
}

// WithError starts a builder chain from an existing error.
func WithError(err error) *Builder {
	return &Builder{err: err}
}

// WithMessage prefixes the internal message.
func (b *Builder) WithMessage(msg string) *Builder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithHint attaches a client-facing hint.
func (b *Builder) WithHint(hint string) *Builder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

// WithHintf is WithHint with formatting.
func (b *Builder) WithHintf(format string, args ...any) *Builder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// Mark tags the error with a sentinel and returns it.
func (b *Builder) Mark(sentinel error) error {
	return errors.Mark(b.err, sentinel)
}

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, message)
}

// Wrapf is Wrap with formatting.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Hints returns the client-facing hints attached anywhere in the chain.
func Hints(err error) []string {
	return errors.GetAllHints(err)
}

// HTTPStatus maps an error to the status code of its sentinel.
func HTTPStatus(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.sentinel) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}

// MessageOrDefault returns err.Error() or a fallback message if err is nil.
func MessageOrDefault(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}

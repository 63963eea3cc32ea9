// Package common holds the small cross-cutting pieces shared by every
// layer: the error taxonomy, the HTTP response envelope, and process-wide
// logging/config accessors.
package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error the way §7 of the spec does: by what kind of
// failure it is, not by which Go type raised it.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindConflict    Kind = "conflict"
	KindCapacity    Kind = "capacity"
	KindEnvironment Kind = "environment"
	KindExecution   Kind = "execution"
	KindStore       Kind = "store"
	KindAuth        Kind = "auth"
	KindNotFound    Kind = "not_found"
	KindInternal    Kind = "internal"
)

// ErrNo is the structured error every layer returns instead of an ad hoc
// error string. The HTTP surface renders it as {error_kind, message}.
type ErrNo struct {
	Kind    Kind
	Message string
}

func (e ErrNo) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewErrNo(kind Kind, message string) error {
	return ErrNo{Kind: kind, Message: message}
}

func Wrap(kind Kind, format string, args ...any) error {
	return ErrNo{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsErrNo recovers the structured error from err, falling back to an
// internal-kind wrapper when err wasn't produced by this package.
func AsErrNo(err error) ErrNo {
	var e ErrNo
	if errors.As(err, &e) {
		return e
	}
	return ErrNo{Kind: KindInternal, Message: err.Error()}
}

// HTTPStatus maps a Kind to the status code the spec's §7 taxonomy
// assigns it.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindCapacity:
		return http.StatusServiceUnavailable
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindEnvironment, KindExecution, KindStore, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

var (
	ErrAlreadyRunning = NewErrNo(KindConflict, "already_running")
	ErrQueueFull      = NewErrNo(KindCapacity, "queue_full")
)

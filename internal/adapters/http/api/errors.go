package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/rollcall/internal/adapters/mq/queue"
	"github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
)

// Error is a handler failure tagged with an operation and a kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// NewKind returns an Error of kind without a cause.
func NewKind(op string, kind error) *Error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind returns an Error of kind caused by err.
func WrapKind(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// classify maps service errors onto API kinds.
func classify(op string, err error) *Error {
	switch {
	case errors.Is(err, model.ErrInvalidUpload), errors.Is(err, model.ErrNoImages):
		return WrapKind(op, ErrBadRequest, err)
	case errors.Is(err, queue.ErrFull):
		return WrapKind(op, ErrBackpressure, err)
	case errors.Is(err, repository.ErrNotFound):
		return WrapKind(op, ErrNotFound, err)
	default:
		return WrapKind(op, ErrInternal, err)
	}
}

func writeKind(w http.ResponseWriter, e *Error) {
	switch {
	case errors.Is(e, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", e)
	case errors.Is(e, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", e)
	case errors.Is(e, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", e)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", e)
	}
}

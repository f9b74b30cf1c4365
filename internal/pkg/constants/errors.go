package constants

import (
	"errors"
	"net/http"
)

// CodedError is an error that knows which HTTP status it maps to.
type CodedError struct {
	msg  string
	code int
}

func NewCodedError(msg string, code int) *CodedError {
	return &CodedError{msg: msg, code: code}
}

func (e *CodedError) Error() string { return e.msg }

func (e *CodedError) Code() int { return e.code }

var (
	ErrDBNotFound      = NewCodedError("not found", http.StatusNotFound)
	ErrUnauthorized    = NewCodedError("unauthorized", http.StatusUnauthorized)
	ErrBadRequest      = NewCodedError("bad request", http.StatusBadRequest)
	ErrRegionNotFound  = NewCodedError("region not found", http.StatusNotFound)
	ErrNoActiveWeights = NewCodedError("no active ranking weights", http.StatusConflict)
	ErrMissingToken    = NewCodedError("missing auth token", http.StatusUnauthorized)

	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

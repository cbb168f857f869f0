package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for reporting and persistence
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindRasterization ErrorKind = "rasterization"
	KindInference     ErrorKind = "inference"
	KindFilesystem    ErrorKind = "filesystem"
)

// Error is the typed error returned across component boundaries.
// Only configuration errors abort a run; every other kind is recorded per file.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and the operation that failed
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Configf builds a configuration error from a format string
func Configf(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Op: "config", Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsConfiguration reports whether err is a configuration error
func IsConfiguration(err error) bool {
	return KindOf(err) == KindConfiguration
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Class tells the retry wrapper how to react to a failed inference call
type Class int

const (
	// Fatal errors are never retried.
	Fatal Class = iota
	// RateLimited errors are retried after an exponential backoff.
	RateLimited
	// Transient errors are retried immediately.
	Transient
)

func (c Class) String() string {
	switch c {
	case RateLimited:
		return "rate_limited"
	case Transient:
		return "transient"
	default:
		return "fatal"
	}
}

// Error is a provider failure with an explicit class
type Error struct {
	Class Class
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches a class to err
func Wrap(class Class, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Class: class, Err: err}
}

// ClassForStatus maps an HTTP status code from a provider API onto a class
func ClassForStatus(status int) Class {
	switch {
	case status == http.StatusTooManyRequests:
		return RateLimited
	case status == http.StatusRequestTimeout,
		status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout,
		status >= 500:
		return Transient
	default:
		return Fatal
	}
}

var rateLimitMarkers = []string{"429", "quota", "rate limit", "ratelimit", "rate_limit", "resource exhausted", "resource_exhausted", "too many requests"}

var transientMarkers = []string{"timeout", "timed out", "connection", "network", "temporary", "unavailable", "502", "503", "504", "gateway", "unexpected eof"}

// Classify derives the class of an arbitrary provider error
func Classify(err error) Class {
	if err == nil {
		return Fatal
	}

	var perr *Error
	if errors.As(err, &perr) {
		return perr.Class
	}

	if errors.Is(err, context.Canceled) {
		return Fatal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return Transient
	}

	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return RateLimited
		}
	}
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return Transient
		}
	}
	return Fatal
}

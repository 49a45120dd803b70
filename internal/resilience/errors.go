// Package resilience provides the pipeline's error taxonomy and retry
// primitives for external service calls.
package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// FailureClass buckets an error into the pipeline's error taxonomy.
type FailureClass string

const (
	// ClassAcquisition covers network failures, non-success HTTP statuses,
	// and content below the usability threshold after the fallback chain.
	ClassAcquisition FailureClass = "acquisition"
	// ClassFormat covers content-type mismatches and document extraction
	// failures.
	ClassFormat FailureClass = "format"
	// ClassSize covers content exceeding the hard ceiling after reduction.
	ClassSize FailureClass = "size"
	// ClassInference covers LLM call failures, timeouts, and unrepairable
	// structured output.
	ClassInference FailureClass = "inference"
	// ClassComparison covers empty/unavailable benchmark sets and failed
	// comparison calls.
	ClassComparison FailureClass = "comparison"
	// ClassTimeout marks the top-level request deadline, distinct from a
	// single strategy timing out.
	ClassTimeout FailureClass = "timeout"
)

// PipelineError carries a failure class plus the diagnostic detail needed
// for automated alerting (which stage failed, underlying status/message).
type PipelineError struct {
	Class FailureClass
	Stage string // e.g. "fetch/direct", "classify/compare"
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s error at %s: %v", e.Class, e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewError wraps err with a failure class and the stage it occurred in.
func NewError(class FailureClass, stage string, err error) *PipelineError {
	return &PipelineError{Class: class, Stage: stage, Err: err}
}

// ClassOf returns the failure class of err, or "" when err carries none.
func ClassOf(err error) FailureClass {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Class
	}
	return ""
}

// IsClass reports whether err belongs to the given failure class.
func IsClass(err error, class FailureClass) bool {
	return ClassOf(err) == class
}

// TransientError wraps an error that is safe to retry (429, 5xx, network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient returns true if the error chain contains a TransientError or
// matches common transient network failure patterns.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String heuristics for errors wrapped by HTTP clients.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true for status codes that are safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

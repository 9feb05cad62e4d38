package geolocation

import (
	"github.com/tphakala/soilplanner/internal/errors"
)

// TransportError means the lookup service could not be reached or answered
// with a non-2xx status.
type TransportError struct {
	Detail string
	Err    error
}

func (e *TransportError) Error() string { return "HTTP Request failed: " + e.Detail }

func (e *TransportError) Unwrap() error { return e.Err }

// ErrorCategory implements errors.CategorizedError
func (e *TransportError) ErrorCategory() errors.ErrorCategory { return errors.CategoryNetwork }

// LookupFailedError carries the service's own failure message for a
// response with status "fail".
type LookupFailedError struct {
	Message string
}

func (e *LookupFailedError) Error() string { return "Error from the API: " + e.Message }

// ErrorCategory implements errors.CategorizedError
func (e *LookupFailedError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryGeolocation
}

// ParseError means the response body was not the expected JSON document.
type ParseError struct {
	Detail string
	Err    error
}

func (e *ParseError) Error() string { return "Error parsing JSON: " + e.Detail }

func (e *ParseError) Unwrap() error { return e.Err }

// ErrorCategory implements errors.CategorizedError
func (e *ParseError) ErrorCategory() errors.ErrorCategory { return errors.CategoryFileParsing }

// RateLimitedError means the local lookup quota was used up and no token
// became available before the lookup deadline. No request was sent.
type RateLimitedError struct {
	Err error
}

func (e *RateLimitedError) Error() string {
	return "lookup quota exhausted, try again shortly"
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// ErrorCategory implements errors.CategorizedError
func (e *RateLimitedError) ErrorCategory() errors.ErrorCategory { return errors.CategoryLimit }

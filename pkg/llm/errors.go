// Copyright 2026 Nyx Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an LLM call failure. Rate-limited and connection
// failures are retryable; provider errors are not.
type ErrorKind string

const (
	ErrRateLimited   ErrorKind = "rate_limited"
	ErrConnection    ErrorKind = "connection"
	ErrProvider      ErrorKind = "provider_error"
	ErrTimeout       ErrorKind = "timeout"
	ErrCircuitOpen   ErrorKind = "circuit_open"
	ErrAccounting    ErrorKind = "accounting_error"
)

// Error is the well-typed failure returned by the client once its retry
// policy is exhausted (or bypassed, for non-retryable kinds).
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("llm %s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("llm %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether the client's retry loop should attempt the
// call again. Semantic provider errors (4xx that are not 429) and an open
// circuit are final.
func (e *Error) Retryable() bool {
	return e.Kind == ErrRateLimited || e.Kind == ErrConnection || e.Kind == ErrTimeout
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError wraps a cause with a kind; the cause stays reachable through
// errors.As.
func WrapError(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: err}
}

// KindOf extracts the ErrorKind from an error chain. Unclassified errors
// report connection (the conservative, retryable default for transport
// level failures).
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ErrConnection
}

// IsRetryable reports whether the retry loop may attempt again after err.
func IsRetryable(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Retryable()
	}
	// Unclassified transport errors are worth one more try.
	return true
}

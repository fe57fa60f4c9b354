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
package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for logging and for the HTTP error
// envelope. Kinds are stable strings: clients may match on them.
type ErrorKind string

const (
	ErrValidation         ErrorKind = "validation"
	ErrNotFound           ErrorKind = "not_found"
	ErrWorkflowExecution  ErrorKind = "workflow_execution"
	ErrMotivationalEngine ErrorKind = "motivational_engine"
	ErrToolExecution      ErrorKind = "tool_execution"
	ErrLLMIntegration     ErrorKind = "llm_integration"
	ErrDatabase           ErrorKind = "database"
	ErrInternal           ErrorKind = "internal"
)

// DomainError is the error type crossing package boundaries. It carries a
// kind for envelope mapping and optional metadata for diagnostics.
type DomainError struct {
	Kind     ErrorKind
	Message  string
	Metadata map[string]interface{}
	cause    error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a diagnostic key/value pair and returns the error
// for chaining.
func (e *DomainError) WithMetadata(key string, value interface{}) *DomainError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// NewError creates a DomainError with the given kind and message.
func NewError(kind ErrorKind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// Errorf creates a DomainError with a formatted message.
func Errorf(kind ErrorKind, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps an underlying error with a kind and message. The cause
// remains reachable through errors.Is/As.
func WrapError(kind ErrorKind, err error, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message, cause: err}
}

// KindOf extracts the ErrorKind from an error chain. Unclassified errors
// report ErrInternal; nil reports the empty kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrInternal
}

// IsNotFound reports whether the error chain contains a not_found error.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrNotFound
}

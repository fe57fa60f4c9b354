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

// Package tools provides the tool registry agents call out through. Every
// tool declares a JSON Schema for its parameters; the registry validates
// arguments, enforces a per-call timeout, and records each execution.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is a single capability an agent can invoke.
type Tool interface {
	// Name returns the tool's unique identifier.
	Name() string

	// Description returns a human-readable description for LLM context.
	Description() string

	// InputSchema returns the JSON Schema for tool parameters.
	InputSchema() *JSONSchema

	// Execute runs the tool with given parameters.
	Execute(ctx context.Context, params map[string]interface{}) (*Result, error)
}

// Result is the outcome of one tool execution.
type Result struct {
	// Success indicates if the tool executed successfully.
	Success bool

	// Data contains the result data (format varies by tool).
	Data interface{}

	// Error contains error information if execution failed.
	Error *Error

	// Stdout and Stderr are populated by tools that run subprocesses.
	Stdout string
	Stderr string

	// Metadata contains tool-specific metadata.
	Metadata map[string]interface{}

	// ExecutionTime in milliseconds.
	ExecutionTimeMs int64
}

// Error is a structured tool execution error.
type Error struct {
	// Code is a machine-readable error code.
	Code string

	// Message is a human-readable error message.
	Message string

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion provides a suggestion for fixing the error.
	Suggestion string
}

// Error codes shared across tools.
const (
	CodeInvalidParams     = "invalid_params"
	CodeNotFound          = "not_found"
	CodeAccessDenied      = "access_denied"
	CodeTooLarge          = "too_large"
	CodeTimeout           = "timeout"
	CodeExecutionFailed   = "execution_failed"
	CodeOperationDisabled = "operation_disabled"
	CodeUnknownTool       = "unknown_tool"
)

// Failure builds a failed Result with a structured error.
func Failure(code, message string) *Result {
	return &Result{Success: false, Error: &Error{Code: code, Message: message}}
}

// FailureWithSuggestion builds a failed Result carrying a fix suggestion.
func FailureWithSuggestion(code, message, suggestion string) *Result {
	return &Result{Success: false, Error: &Error{Code: code, Message: message, Suggestion: suggestion}}
}

// JSONSchema represents a JSON Schema for tool parameters.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
	Enum        []interface{}          `json:"enum,omitempty"`
	Default     interface{}            `json:"default,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
}

// ToJSON converts the schema to JSON bytes.
func (s *JSONSchema) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// NewObjectSchema creates a new object schema with the given properties.
func NewObjectSchema(description string, properties map[string]*JSONSchema, required []string) *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: description,
		Properties:  properties,
		Required:    required,
	}
}

// NewStringSchema creates a new string schema.
func NewStringSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description}
}

// NewNumberSchema creates a new number schema.
func NewNumberSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "number", Description: description}
}

// NewBooleanSchema creates a new boolean schema.
func NewBooleanSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "boolean", Description: description}
}

// WithEnum adds enum values to the schema.
func (s *JSONSchema) WithEnum(values ...interface{}) *JSONSchema {
	s.Enum = values
	return s
}

// WithDefault adds a default value to the schema.
func (s *JSONSchema) WithDefault(value interface{}) *JSONSchema {
	s.Default = value
	return s
}

// stringParam extracts a required string parameter.
func stringParam(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key].(string)
	return v, ok && v != ""
}

// optionalString extracts an optional string parameter.
func optionalString(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

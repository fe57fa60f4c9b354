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

// Package llm implements the cached LLM call path: request shaping with
// cache breakpoints, retry with exponential backoff, circuit breaking,
// token/cost accounting, and async interaction logging.
package llm

import (
	"context"

	"github.com/nyx-labs/nyx/pkg/types"
)

// CacheControl is the provider-facing cache breakpoint annotation.
type CacheControl struct {
	Type string `json:"type"` // always "ephemeral"
}

// Ephemeral returns the standard cache breakpoint marker.
func Ephemeral() *CacheControl {
	return &CacheControl{Type: "ephemeral"}
}

// TextBlock is one ordered content block of a system or user message.
// Blocks carrying CacheControl declare a cache breakpoint: the provider
// caches everything up to and including the marked block.
type TextBlock struct {
	Type         string        `json:"type"` // always "text"
	Text         string        `json:"text"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// Message is one conversation turn in provider wire shape.
type Message struct {
	Role    string      `json:"role"` // "user" | "assistant"
	Content []TextBlock `json:"content"`
}

// Request is the shaped, breakpoint-annotated request handed to a
// provider. The client builds it; providers only serialize it.
type Request struct {
	Model       string      `json:"model"`
	System      []TextBlock `json:"system,omitempty"`
	Messages    []Message   `json:"messages"`
	MaxTokens   int         `json:"max_tokens"`
	Temperature float64     `json:"temperature"`
}

// BreakpointCount returns the number of cache breakpoints in the request.
func (r *Request) BreakpointCount() int {
	n := 0
	for _, b := range r.System {
		if b.CacheControl != nil {
			n++
		}
	}
	for _, m := range r.Messages {
		for _, b := range m.Content {
			if b.CacheControl != nil {
				n++
			}
		}
	}
	return n
}

// Response is what a provider returns for one completed call. Usage
// carries raw token counts; the client fills in cost fields.
type Response struct {
	Content    string      `json:"content"`
	Model      string      `json:"model"`
	StopReason string      `json:"stop_reason,omitempty"`
	Usage      types.Usage `json:"usage"`
}

// Provider is one upstream LLM service. Implementations classify their
// failures as *llm.Error so the client's retry loop can tell rate limits
// and transport faults from semantic provider errors.
type Provider interface {
	// Name identifies the provider ("anthropic", "bedrock") in logs and
	// interaction rows.
	Name() string

	// Complete performs one model call. It must honor ctx cancellation.
	Complete(ctx context.Context, req *Request) (*Response, error)
}

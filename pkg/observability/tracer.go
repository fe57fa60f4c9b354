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

// Package observability provides tracing hooks for the runtime. LLM calls,
// agent executions, orchestrator phases, and motivational ticks are all
// instrumented through the Tracer interface; the default implementation is
// a no-op so components never need to nil-check.
package observability

import "context"

// Tracer instruments runtime operations.
//
// Thread-safe: all methods can be called concurrently.
type Tracer interface {
	// StartSpan creates a new span and returns a context containing it.
	// The span links to its parent via context propagation.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, *Span)

	// EndSpan completes a span and calculates its duration.
	// Always call this via defer after StartSpan.
	EndSpan(span *Span)

	// RecordMetric records a point-in-time metric value with labels
	// (token counts, costs, latencies, drive scores).
	RecordMetric(name string, value float64, labels map[string]string)

	// RecordEvent records a standalone event not tied to a span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})

	// Flush forces export of buffered traces and metrics. Called on
	// graceful shutdown.
	Flush(ctx context.Context) error
}

// Common span attribute keys.
const (
	AttrWorkflowID   = "workflow.id"
	AttrThoughtTree  = "thought_tree.id"
	AttrAgentID      = "agent.id"
	AttrAgentKind    = "agent.kind"
	AttrStrategy     = "workflow.strategy"
	AttrModel        = "llm.model"
	AttrProvider     = "llm.provider"
	AttrDriveKind    = "drive.kind"
	AttrToolName     = "tool.name"
	AttrErrorMessage = "error.message"
	AttrErrorType    = "error.type"
)

// SpanFromContext retrieves the current span from context, if any.
func SpanFromContext(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanContextKey).(*Span); ok {
		return span
	}
	return nil
}

// ContextWithSpan returns a new context with the span attached.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, spanContextKey, span)
}

type contextKey string

const spanContextKey contextKey = "nyx.span"

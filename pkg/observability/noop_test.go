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
package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpTracerSpans(t *testing.T) {
	tracer := NewNoOpTracer()

	ctx, root := tracer.StartSpan(context.Background(), "workflow.execute",
		WithSpanKind("workflow"),
		WithAttribute(AttrWorkflowID, "wf-1"),
	)
	require.NotNil(t, root)
	assert.Equal(t, "workflow.execute", root.Name)
	assert.Equal(t, "workflow", root.Attributes["span.kind"])
	assert.Equal(t, "wf-1", root.Attributes[AttrWorkflowID])
	assert.Empty(t, root.ParentID)

	_, child := tracer.StartSpan(ctx, "agent.execute")
	assert.Equal(t, root.TraceID, child.TraceID, "child inherits trace id")
	assert.Equal(t, root.SpanID, child.ParentID, "child links to parent")

	tracer.EndSpan(child)
	assert.False(t, child.EndTime.IsZero())
	assert.GreaterOrEqual(t, child.Duration, time.Duration(0))
}

func TestSpanRecordError(t *testing.T) {
	span := &Span{Name: "llm.call"}
	span.RecordError(errors.New("provider exploded"))

	assert.Equal(t, StatusError, span.Status.Code)
	assert.Equal(t, "provider exploded", span.Status.Message)
	assert.Equal(t, "provider exploded", span.Attributes[AttrErrorMessage])

	span2 := &Span{Name: "ok"}
	span2.RecordError(nil)
	assert.Equal(t, StatusUnset, span2.Status.Code)
}

func TestSpanFromContext(t *testing.T) {
	assert.Nil(t, SpanFromContext(context.Background()))

	span := &Span{SpanID: "s1"}
	ctx := ContextWithSpan(context.Background(), span)
	assert.Same(t, span, SpanFromContext(ctx))
}

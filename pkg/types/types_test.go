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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentStateTransitions(t *testing.T) {
	tests := []struct {
		name  string
		from  AgentState
		to    AgentState
		legal bool
	}{
		{"spawned to active", StateSpawned, StateActive, true},
		{"spawned to terminated", StateSpawned, StateTerminated, true},
		{"spawned to waiting", StateSpawned, StateWaiting, false},
		{"spawned to completed", StateSpawned, StateCompleted, false},
		{"active to waiting", StateActive, StateWaiting, true},
		{"active to coordinating", StateActive, StateCoordinating, false},
		{"active to completed", StateActive, StateCompleted, true},
		{"active to failed", StateActive, StateFailed, true},
		{"waiting to coordinating", StateWaiting, StateCoordinating, true},
		{"waiting to active", StateWaiting, StateActive, false},
		{"coordinating to active", StateCoordinating, StateActive, true},
		{"coordinating to waiting", StateCoordinating, StateWaiting, false},
		{"completed is terminal", StateCompleted, StateActive, false},
		{"failed is terminal", StateFailed, StateActive, false},
		{"terminated is terminal", StateTerminated, StateActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.legal, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestAgentStateTerminal(t *testing.T) {
	assert.True(t, StateCompleted.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.True(t, StateTerminated.IsTerminal())
	assert.False(t, StateSpawned.IsTerminal())
	assert.False(t, StateActive.IsTerminal())
	assert.False(t, StateWaiting.IsTerminal())
	assert.False(t, StateCoordinating.IsTerminal())
}

func TestAgentStateCanExecute(t *testing.T) {
	assert.True(t, StateActive.CanExecute())
	assert.True(t, StateWaiting.CanExecute())
	assert.True(t, StateCoordinating.CanExecute())
	assert.False(t, StateSpawned.CanExecute())
	assert.False(t, StateCompleted.CanExecute())
	assert.False(t, StateTerminated.CanExecute())
}

func TestWorkflowInputValidate(t *testing.T) {
	t.Run("requires content or description", func(t *testing.T) {
		input := &WorkflowInput{Type: InputUserPrompt}
		require.Error(t, input.Validate())
	})

	t.Run("accepts content", func(t *testing.T) {
		input := &WorkflowInput{Type: InputUserPrompt, Content: "What is Python?"}
		require.NoError(t, input.Validate())
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		input := &WorkflowInput{Type: InputType("mystery"), Content: "x"}
		require.Error(t, input.Validate())
	})

	t.Run("empty type is allowed", func(t *testing.T) {
		input := &WorkflowInput{Content: "classify me"}
		require.NoError(t, input.Validate())
	})
}

func TestUsageAdd(t *testing.T) {
	total := Usage{}
	total.Add(Usage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150, CostUSD: 0.01})
	total.Add(Usage{InputTokens: 200, OutputTokens: 100, TotalTokens: 300, CostUSD: 0.02, CacheReadInputTokens: 150})

	assert.Equal(t, 300, total.InputTokens)
	assert.Equal(t, 150, total.OutputTokens)
	assert.Equal(t, 450, total.TotalTokens)
	assert.Equal(t, 150, total.CacheReadInputTokens)
	assert.InDelta(t, 0.03, total.CostUSD, 1e-9)
}

func TestUsageCacheHit(t *testing.T) {
	assert.False(t, Usage{}.CacheHit())
	assert.False(t, Usage{CacheCreationInputTokens: 500}.CacheHit())
	assert.True(t, Usage{CacheReadInputTokens: 1}.CacheHit())
}

func TestTreeStatusTerminal(t *testing.T) {
	assert.False(t, TreePending.IsTerminal())
	assert.False(t, TreeInProgress.IsTerminal())
	assert.True(t, TreeCompleted.IsTerminal())
	assert.True(t, TreeFailed.IsTerminal())
	assert.True(t, TreeCancelled.IsTerminal())
}

func TestInputTypeValid(t *testing.T) {
	for _, it := range InputTypes() {
		assert.True(t, it.Valid(), string(it))
	}
	assert.False(t, InputType("telepathy").Valid())
}

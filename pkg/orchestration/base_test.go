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
package orchestration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-labs/nyx/pkg/types"
)

func newTestBase(t *testing.T, store *memStore, maxAgents int) *Base {
	t.Helper()
	base := NewBase(Config{
		Goal:                "test workflow",
		MaxConcurrentAgents: maxAgents,
		Store:               store,
		Factory:             testFactory(&fakeCaller{}),
	})
	require.NoError(t, base.Initialize(context.Background()))
	return base
}

func TestBaseSpawnQuota(t *testing.T) {
	ctx := context.Background()
	base := newTestBase(t, newMemStore(), 2)

	first := base.SpawnAgent(ctx, types.AgentTask, nil)
	second := base.SpawnAgent(ctx, types.AgentTask, nil)
	require.NotNil(t, first)
	require.NotNil(t, second)

	// Quota reached: spawn returns nil, and only then.
	assert.Nil(t, base.SpawnAgent(ctx, types.AgentTask, nil))

	// Releasing one slot reopens the gate.
	base.TrackAgentCompletion(ctx, first, &types.AgentResult{AgentID: first.ID(), Success: true})
	assert.NotNil(t, base.SpawnAgent(ctx, types.AgentTask, nil))
}

func TestBaseTrackCompletionDecrementsOnce(t *testing.T) {
	ctx := context.Background()
	base := newTestBase(t, newMemStore(), 3)

	ag := base.SpawnAgent(ctx, types.AgentTask, nil)
	require.NotNil(t, ag)
	result := &types.AgentResult{AgentID: ag.ID(), Success: true, Usage: types.Usage{CostUSD: 0.01}}

	base.TrackAgentCompletion(ctx, ag, result)
	base.TrackAgentCompletion(ctx, ag, result)
	base.TrackAgentCompletion(ctx, ag, result)

	status := base.Status()
	assert.Equal(t, 0, status.ActiveAgents)
	assert.Equal(t, 1, status.CompletedAgents)
	assert.InDelta(t, 0.01, status.Usage.CostUSD, 1e-9)
}

func TestBaseCoordinateAllSettled(t *testing.T) {
	ctx := context.Background()
	base := newTestBase(t, newMemStore(), 3)

	var assignments []Assignment
	for i := 0; i < 3; i++ {
		ag := base.SpawnAgent(ctx, types.AgentTask, nil)
		require.NotNil(t, ag)
		assignments = append(assignments, Assignment{
			Agent: ag,
			Input: map[string]interface{}{"task_type": "analysis", "content": "x"},
		})
	}

	results := base.Coordinate(ctx, assignments)
	require.Len(t, results, 3)
	for i, result := range results {
		assert.True(t, result.Success, "assignment %d", i)
		assert.Equal(t, assignments[i].Agent.ID(), result.AgentID)
	}
	status := base.Status()
	assert.Equal(t, 0, status.ActiveAgents)
	assert.Equal(t, 3, status.CompletedAgents)
}

func TestBaseTerminateSynthesizesFailures(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	base := newTestBase(t, store, 3)

	live := base.SpawnAgent(ctx, types.AgentTask, nil)
	require.NotNil(t, live)

	result := base.Terminate(ctx, "shutdown requested")
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.SubtasksFailed)
	assert.True(t, live.State().IsTerminal())

	// Persisted snapshot shows the terminal state too.
	states := store.agentStates()
	assert.Equal(t, types.StateTerminated, states[live.ID()])

	// Idempotent: a second terminate reports the same shape.
	again := base.Terminate(ctx, "shutdown requested")
	assert.Equal(t, result.SubtasksFailed, again.SubtasksFailed)
}

func TestBaseCreatesThoughtTree(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	base := NewBase(Config{
		Goal:    "auto tree",
		Depth:   2,
		Store:   store,
		Factory: testFactory(&fakeCaller{}),
	})
	require.NoError(t, base.Initialize(ctx))

	tree, err := store.GetThoughtTree(ctx, base.ThoughtTreeID())
	require.NoError(t, err)
	assert.Equal(t, "auto tree", tree.Goal)
	assert.Equal(t, 2, tree.Depth)
	assert.Equal(t, types.TreeInProgress, tree.Status)
}

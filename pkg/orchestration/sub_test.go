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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-labs/nyx/pkg/llm"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

// planThenEcho scripts a decomposition response followed by per-subtask
// echoes tagged with the subtask description.
func planThenEcho(planJSON string) *fakeCaller {
	return &fakeCaller{fn: func(req llm.CallRequest) (*llm.Result, error) {
		if strings.Contains(req.User, "Decompose the following task") {
			return &llm.Result{
				Content: planJSON,
				Usage:   types.Usage{InputTokens: 20, OutputTokens: 30, TotalTokens: 50, CostUSD: 0.002},
			}, nil
		}
		return &llm.Result{
			Content: "output for: " + firstLineOf(req.User),
			Usage:   types.Usage{InputTokens: 10, OutputTokens: 10, TotalTokens: 20, CostUSD: 0.001},
		}, nil
	}}
}

func firstLineOf(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return s
}

func newTestSub(t *testing.T, store *memStore, caller *fakeCaller, task DecompositionTask) *Sub {
	t.Helper()
	sub, err := NewSub(SubConfig{
		Task:    task,
		Store:   store,
		Factory: testFactory(caller),
	})
	require.NoError(t, err)
	return sub
}

func seededTask(t *testing.T, store *memStore) DecompositionTask {
	t.Helper()
	tree := seedTree(t, store, "tree-sub", 1)
	return DecompositionTask{
		Title:         "write a report",
		Description:   "research the topic and write a report",
		ThoughtTreeID: tree,
		CurrentDepth:  1,
	}
}

func seedTree(t *testing.T, store *memStore, id string, depth int) string {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, store.SaveThoughtTree(context.Background(), &storage.ThoughtTree{
		ID:        id,
		Goal:      "seeded tree",
		Status:    types.TreeInProgress,
		Depth:     depth,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	return id
}

func TestNewSubGuards(t *testing.T) {
	valid := DecompositionTask{
		Title: "t", Description: "d", ThoughtTreeID: "tree", CurrentDepth: 1,
	}

	// Depth at the cap is refused.
	deep := valid
	deep.CurrentDepth = DefaultMaxDepth
	_, err := NewSub(SubConfig{Task: deep, Factory: testFactory(&fakeCaller{})})
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.KindOf(err))

	// Missing fields are refused.
	for _, broken := range []DecompositionTask{
		{Description: "d", ThoughtTreeID: "tree", CurrentDepth: 1},
		{Title: "t", ThoughtTreeID: "tree", CurrentDepth: 1},
		{Title: "t", Description: "d", CurrentDepth: 1},
	} {
		_, err := NewSub(SubConfig{Task: broken, Factory: testFactory(&fakeCaller{})})
		require.Error(t, err)
		assert.Equal(t, types.ErrValidation, types.KindOf(err))
	}
}

func TestSubSequentialFeedsContext(t *testing.T) {
	store := newMemStore()
	caller := planThenEcho(`{"subtasks":[
		{"id":"t1","title":"research","description":"collect facts"},
		{"id":"t2","title":"write","description":"draft the report"}
	]}`)
	sub := newTestSub(t, store, caller, seededTask(t, store))

	result := sub.Execute(context.Background())
	require.True(t, result.Success)
	assert.Equal(t, SubStrategySequential, result.StrategyUsed)
	assert.Equal(t, 2, result.SubtasksCompleted)
	assert.Equal(t, 0, result.SubtasksFailed)
	assert.Equal(t, 2, result.Depth)

	// The second subtask's prompt carries the first subtask's output.
	var second llm.CallRequest
	found := false
	for _, call := range caller.calls {
		if strings.Contains(call.User, "draft the report") {
			second = call
			found = true
		}
	}
	require.True(t, found)
	assert.Contains(t, second.User, "output for:")
}

func TestSubParallelStrategy(t *testing.T) {
	store := newMemStore()
	caller := planThenEcho(`{"subtasks":[
		{"id":"a","title":"a","description":"part a"},
		{"id":"b","title":"b","description":"part b"},
		{"id":"c","title":"c","description":"part c"}
	]}`)
	sub := newTestSub(t, store, caller, seededTask(t, store))

	result := sub.Execute(context.Background())
	require.True(t, result.Success)
	assert.Equal(t, SubStrategyParallel, result.StrategyUsed)
	assert.Equal(t, 3, result.SubtasksCompleted)
}

func TestSubDependencyOrdered(t *testing.T) {
	store := newMemStore()
	caller := planThenEcho(`{"subtasks":[
		{"id":"a","title":"gather","description":"gather data"},
		{"id":"b","title":"analyze","description":"analyze the data","dependencies":["a"]}
	]}`)
	sub := newTestSub(t, store, caller, seededTask(t, store))

	result := sub.Execute(context.Background())
	require.True(t, result.Success)
	assert.Equal(t, SubStrategyDependency, result.StrategyUsed)

	// The dependent subtask saw its dependency's output.
	found := false
	for _, call := range caller.calls {
		if strings.Contains(call.User, "analyze the data") {
			assert.Contains(t, call.User, "Output of a")
			found = true
		}
	}
	assert.True(t, found)
}

func TestSubDependencyCycleFallsBackToSequential(t *testing.T) {
	store := newMemStore()
	caller := planThenEcho(`{"subtasks":[
		{"id":"a","title":"a","description":"step a","dependencies":["b"]},
		{"id":"b","title":"b","description":"step b","dependencies":["a"]}
	]}`)
	sub := newTestSub(t, store, caller, seededTask(t, store))

	result := sub.Execute(context.Background())
	require.True(t, result.Success)
	assert.Equal(t, SubStrategySequential, result.StrategyUsed)
	assert.Equal(t, 2, result.SubtasksCompleted)
}

func TestSubMalformedPlanFallsBackToTrivial(t *testing.T) {
	store := newMemStore()
	caller := &fakeCaller{fn: func(req llm.CallRequest) (*llm.Result, error) {
		if strings.Contains(req.User, "Decompose the following task") {
			return &llm.Result{Content: "I cannot produce JSON today."}, nil
		}
		return &llm.Result{Content: "single subtask output"}, nil
	}}
	sub := newTestSub(t, store, caller, seededTask(t, store))

	result := sub.Execute(context.Background())
	require.True(t, result.Success)
	assert.Equal(t, SubStrategySequential, result.StrategyUsed)
	assert.Equal(t, 1, result.SubtasksCompleted)
	assert.Equal(t, "single subtask output", result.Content)
}

func TestSubRollsCostUpToParent(t *testing.T) {
	store := newMemStore()
	parent := newTestBase(t, store, 5)
	caller := planThenEcho(`{"subtasks":[
		{"id":"t1","title":"only","description":"do the thing"}
	]}`)

	task := seededTask(t, store)
	sub, err := NewSub(SubConfig{
		Task:     task,
		ParentID: parent.ID(),
		Parent:   parent,
		Store:    store,
		Factory:  testFactory(caller),
	})
	require.NoError(t, err)

	result := sub.Execute(context.Background())
	require.True(t, result.Success)
	assert.Greater(t, result.Usage.CostUSD, 0.0)

	// Cost rolled up; agent counts did not.
	parentStatus := parent.Status()
	assert.InDelta(t, result.Usage.CostUSD, parentStatus.Usage.CostUSD, 1e-9)
	assert.Equal(t, 0, parentStatus.SpawnedAgents)
}

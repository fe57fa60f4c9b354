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
package agent

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-labs/nyx/pkg/llm"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

// fakeLLM scripts responses per call in order.
type fakeLLM struct {
	mu    sync.Mutex
	calls []llm.CallRequest
	fn    func(n int, req llm.CallRequest) (*llm.Result, error)
}

func (f *fakeLLM) Call(_ context.Context, req llm.CallRequest) (*llm.Result, error) {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(n, req)
	}
	return &llm.Result{
		Content: "ok",
		Model:   "claude-sonnet-4-5",
		Usage:   types.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15, CostUSD: 0.001},
	}, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeStore records agent snapshots and thought trees in memory.
type fakeStore struct {
	mu     sync.Mutex
	agents map[string]*storage.AgentRecord
	trees  map[string]*storage.ThoughtTree
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		agents: map[string]*storage.AgentRecord{},
		trees:  map[string]*storage.ThoughtTree{},
	}
}

func (s *fakeStore) SaveAgent(_ context.Context, record *storage.AgentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.agents[record.ID] = &copied
	return nil
}

func (s *fakeStore) GetThoughtTree(_ context.Context, id string) (*storage.ThoughtTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tree, ok := s.trees[id]; ok {
		return tree, nil
	}
	return nil, types.Errorf(types.ErrNotFound, "thought tree not found: %s", id)
}

func (s *fakeStore) SaveThoughtTree(_ context.Context, tree *storage.ThoughtTree) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *tree
	s.trees[tree.ID] = &copied
	return nil
}

// scriptedRunner lets lifecycle tests control attempt outcomes.
type scriptedRunner struct {
	mu       sync.Mutex
	attempts int
	failures int // first N attempts fail
}

func (r *scriptedRunner) Kind() types.AgentKind { return types.AgentTask }
func (r *scriptedRunner) ClassName() string     { return "ScriptedAgent" }

func (r *scriptedRunner) Run(_ context.Context, _ Call) (*types.AgentResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if r.attempts <= r.failures {
		return nil, fmt.Errorf("scripted failure %d", r.attempts)
	}
	return &types.AgentResult{
		Success: true,
		Content: "done",
		Usage:   types.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}, nil
}

func TestAgentLifecycle(t *testing.T) {
	ctx := context.Background()
	a := New(&scriptedRunner{}, Config{})

	assert.Equal(t, types.StateSpawned, a.State())

	// Execute before Initialize is illegal.
	result := a.Execute(ctx, nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "cannot execute")

	require.True(t, a.Initialize(ctx))
	assert.Equal(t, types.StateActive, a.State())

	// Second Initialize is refused.
	assert.False(t, a.Initialize(ctx))

	result = a.Execute(ctx, nil)
	require.True(t, result.Success)
	assert.Equal(t, types.StateCompleted, a.State())

	// Terminal states are absorbing.
	assert.Error(t, a.ReturnToActive(ctx))
}

func TestAgentLateralTransitions(t *testing.T) {
	ctx := context.Background()
	a := New(&scriptedRunner{}, Config{})
	require.True(t, a.Initialize(ctx))

	require.NoError(t, a.TransitionToWaiting(ctx, "awaiting peer"))
	assert.Equal(t, types.StateWaiting, a.State())

	// waiting → active is not a legal edge.
	assert.Error(t, a.ReturnToActive(ctx))

	require.NoError(t, a.TransitionToCoordinating(ctx, "peer ready"))
	require.NoError(t, a.ReturnToActive(ctx))
	assert.Equal(t, types.StateActive, a.State())
}

func TestAgentExecuteRetries(t *testing.T) {
	ctx := context.Background()
	runner := &scriptedRunner{failures: 1}
	a := New(runner, Config{MaxRetries: 2})
	require.True(t, a.Initialize(ctx))

	result := a.Execute(ctx, nil)
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Retries)
	assert.Equal(t, types.StateCompleted, a.State())
}

func TestAgentExecuteExhaustsRetries(t *testing.T) {
	ctx := context.Background()
	runner := &scriptedRunner{failures: 10}
	a := New(runner, Config{MaxRetries: 1})
	require.True(t, a.Initialize(ctx))

	result := a.Execute(ctx, nil)
	assert.False(t, result.Success)
	assert.Equal(t, types.StateFailed, a.State())
	assert.Equal(t, 2, runner.attempts)

	stats := a.Statistics()
	assert.Equal(t, 1, stats.Executions)
	assert.Equal(t, 1, stats.Failures)
}

func TestAgentTerminateIdempotent(t *testing.T) {
	ctx := context.Background()
	a := New(&scriptedRunner{}, Config{})
	require.True(t, a.Initialize(ctx))

	require.NoError(t, a.Terminate(ctx, "shutdown"))
	assert.Equal(t, types.StateTerminated, a.State())
	require.NoError(t, a.Terminate(ctx, "again"))
	assert.Equal(t, types.StateTerminated, a.State())
}

func TestAgentPersistsTransitions(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	a := New(&scriptedRunner{}, Config{Store: store})

	require.True(t, a.Initialize(ctx))

	// A default thought tree was auto-created.
	treeID := a.ThoughtTreeID()
	require.NotEmpty(t, treeID)
	tree, err := store.GetThoughtTree(ctx, treeID)
	require.NoError(t, err)
	assert.Equal(t, types.TreeInProgress, tree.Status)

	result := a.Execute(ctx, nil)
	require.True(t, result.Success)

	record := store.agents[a.ID()]
	require.NotNil(t, record)
	assert.Equal(t, types.StateCompleted, record.State)
	assert.Equal(t, treeID, record.ThoughtTreeID)
	require.NotNil(t, record.CompletedAt)
	assert.Equal(t, 1, record.Snapshot["executions"])
}

func TestAgentAttemptTimeout(t *testing.T) {
	ctx := context.Background()
	a := New(&blockingRunner{}, Config{MaxRetries: 1, AttemptTimeout: 20 * time.Millisecond})
	require.True(t, a.Initialize(ctx))

	result := a.Execute(ctx, nil)
	assert.False(t, result.Success)
	assert.Equal(t, types.StateFailed, a.State())
}

type blockingRunner struct{}

func (r *blockingRunner) Kind() types.AgentKind { return types.AgentTask }
func (r *blockingRunner) ClassName() string     { return "BlockingAgent" }

func (r *blockingRunner) Run(ctx context.Context, _ Call) (*types.AgentResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

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
	"sync"

	"github.com/nyx-labs/nyx/pkg/llm"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

// fakeCaller scripts LLM responses by inspecting the request. The
// default response is a plain "ok".
type fakeCaller struct {
	mu    sync.Mutex
	fn    func(req llm.CallRequest) (*llm.Result, error)
	calls []llm.CallRequest
}

func (f *fakeCaller) Call(_ context.Context, req llm.CallRequest) (*llm.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return &llm.Result{
		Content: "ok",
		Usage:   types.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15, CostUSD: 0.001},
	}, nil
}

func (f *fakeCaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memStore is an in-memory Store for orchestration tests.
type memStore struct {
	mu            sync.Mutex
	trees         map[string]*storage.ThoughtTree
	agents        map[string]*storage.AgentRecord
	orchestrators map[string]*storage.OrchestratorRecord
}

func newMemStore() *memStore {
	return &memStore{
		trees:         map[string]*storage.ThoughtTree{},
		agents:        map[string]*storage.AgentRecord{},
		orchestrators: map[string]*storage.OrchestratorRecord{},
	}
}

func (s *memStore) SaveThoughtTree(_ context.Context, tree *storage.ThoughtTree) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *tree
	s.trees[tree.ID] = &copied
	return nil
}

func (s *memStore) GetThoughtTree(_ context.Context, id string) (*storage.ThoughtTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tree, ok := s.trees[id]; ok {
		return tree, nil
	}
	return nil, types.Errorf(types.ErrNotFound, "thought tree not found: %s", id)
}

func (s *memStore) UpdateThoughtTreeStatus(_ context.Context, id string, status types.TreeStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, ok := s.trees[id]
	if !ok {
		return types.Errorf(types.ErrNotFound, "thought tree not found: %s", id)
	}
	tree.Status = status
	tree.StatusReason = reason
	return nil
}

func (s *memStore) SaveAgent(_ context.Context, record *storage.AgentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.agents[record.ID] = &copied
	return nil
}

func (s *memStore) SaveOrchestrator(_ context.Context, record *storage.OrchestratorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.orchestrators[record.ID] = &copied
	return nil
}

func (s *memStore) agentStates() map[string]types.AgentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]types.AgentState, len(s.agents))
	for id, record := range s.agents {
		out[id] = record.State
	}
	return out
}

// testFactory wires every agent kind to the fake caller.
func testFactory(caller *fakeCaller) RunnerFactory {
	return NewRunnerFactory(FactoryConfig{LLM: caller})
}

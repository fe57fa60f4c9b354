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
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-labs/nyx/pkg/llm"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

// fakeMemoryStore implements MemoryStore in memory.
type fakeMemoryStore struct {
	mu      sync.Mutex
	entries map[string]*storage.MemoryEntry
}

func newFakeMemoryStore() *fakeMemoryStore {
	return &fakeMemoryStore{entries: map[string]*storage.MemoryEntry{}}
}

func (s *fakeMemoryStore) key(scope storage.MemoryScope, scopeID, key string) string {
	return string(scope) + "/" + scopeID + "/" + key
}

func (s *fakeMemoryStore) SaveMemoryEntry(_ context.Context, entry *storage.MemoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *entry
	s.entries[s.key(entry.Scope, entry.ScopeID, entry.Key)] = &copied
	return nil
}

func (s *fakeMemoryStore) GetMemoryEntry(_ context.Context, scope storage.MemoryScope, scopeID, key string) (*storage.MemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[s.key(scope, scopeID, key)]; ok {
		return entry, nil
	}
	return nil, types.Errorf(types.ErrNotFound, "memory entry not found: %s", key)
}

func (s *fakeMemoryStore) SearchMemoryEntries(_ context.Context, query storage.MemoryQuery) ([]*storage.MemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*storage.MemoryEntry
	for _, entry := range s.entries {
		if entry.Scope == query.Scope && entry.ScopeID == query.ScopeID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *fakeMemoryStore) DeleteMemoryEntry(_ context.Context, scope storage.MemoryScope, scopeID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, s.key(scope, scopeID, key))
	return nil
}

func newMemoryRunner(t *testing.T, cfg MemoryConfig) *MemoryRunner {
	t.Helper()
	runner, err := NewMemoryRunner(cfg)
	require.NoError(t, err)
	return runner
}

func TestMemoryStoreRetrieve(t *testing.T) {
	ctx := context.Background()
	store := newFakeMemoryStore()
	runner := newMemoryRunner(t, MemoryConfig{Store: store})

	result, err := runner.Run(ctx, Call{ThoughtTreeID: "tree-1", Input: map[string]interface{}{
		"operation": "store",
		"key":       "finding",
		"content":   "option A wins on latency",
		"kind":      "decision",
	}})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, false, result.Data["compressed"])

	result, err = runner.Run(ctx, Call{ThoughtTreeID: "tree-1", Input: map[string]interface{}{
		"operation": "retrieve",
		"key":       "finding",
	}})
	require.NoError(t, err)
	assert.Equal(t, "option A wins on latency", result.Content)
	assert.Equal(t, true, result.Data["cache_hit"])
}

func TestMemoryCompressesLargeContent(t *testing.T) {
	ctx := context.Background()
	store := newFakeMemoryStore()
	runner := newMemoryRunner(t, MemoryConfig{Store: store})

	large := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 100)
	result, err := runner.Run(ctx, Call{ThoughtTreeID: "tree-1", Input: map[string]interface{}{
		"operation": "store",
		"key":       "corpus",
		"content":   large,
	}})
	require.NoError(t, err)
	assert.Equal(t, true, result.Data["compressed"])

	// The stored payload is actually compressed.
	entry := store.entries["thought_tree/tree-1/corpus"]
	require.NotNil(t, entry)
	assert.True(t, entry.Compressed)
	assert.Less(t, len(entry.Content), len(large))

	// Retrieval through the durable path round-trips. Fresh runner so
	// the LRU front is cold.
	cold := newMemoryRunner(t, MemoryConfig{Store: store})
	result, err = cold.Run(ctx, Call{ThoughtTreeID: "tree-1", Input: map[string]interface{}{
		"operation": "retrieve",
		"key":       "corpus",
	}})
	require.NoError(t, err)
	assert.Equal(t, large, result.Content)
	assert.Equal(t, false, result.Data["cache_hit"])
}

func TestMemorySearch(t *testing.T) {
	ctx := context.Background()
	store := newFakeMemoryStore()
	runner := newMemoryRunner(t, MemoryConfig{Store: store})

	for _, key := range []string{"alpha", "beta"} {
		_, err := runner.Run(ctx, Call{ThoughtTreeID: "tree-1", Input: map[string]interface{}{
			"operation": "store",
			"key":       key,
			"content":   "note " + key,
		}})
		require.NoError(t, err)
	}

	result, err := runner.Run(ctx, Call{ThoughtTreeID: "tree-1", Input: map[string]interface{}{
		"operation": "search",
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Data["matches"])
}

func TestMemorySummarizePassthroughBelowThreshold(t *testing.T) {
	fake := &fakeLLM{}
	runner := newMemoryRunner(t, MemoryConfig{LLM: fake, SummarizeTokenThreshold: 100000})

	content := "a short note"
	result, err := runner.Run(context.Background(), Call{Input: map[string]interface{}{
		"operation": "summarize",
		"content":   content,
	}})
	require.NoError(t, err)
	assert.Equal(t, content, result.Content)
	assert.Equal(t, false, result.Data["summarized"])
	assert.Equal(t, 0, fake.callCount())
}

func TestMemorySummarizeCompressesAboveThreshold(t *testing.T) {
	fake := &fakeLLM{fn: func(int, llm.CallRequest) (*llm.Result, error) {
		return &llm.Result{
			Content: "dense summary",
			Usage:   types.Usage{InputTokens: 500, OutputTokens: 40},
		}, nil
	}}
	runner := newMemoryRunner(t, MemoryConfig{LLM: fake, SummarizeTokenThreshold: 10})

	result, err := runner.Run(context.Background(), Call{Input: map[string]interface{}{
		"operation": "summarize",
		"content":   strings.Repeat("many different words in this corpus ", 50),
	}})
	require.NoError(t, err)
	assert.Equal(t, "dense summary", result.Content)
	assert.Equal(t, true, result.Data["summarized"])
	assert.Equal(t, 500, result.Usage.InputTokens)
}

func TestMemoryDeleteAndUnknownOp(t *testing.T) {
	ctx := context.Background()
	store := newFakeMemoryStore()
	runner := newMemoryRunner(t, MemoryConfig{Store: store})

	_, err := runner.Run(ctx, Call{ThoughtTreeID: "tree-1", Input: map[string]interface{}{
		"operation": "store", "key": "k", "content": "v",
	}})
	require.NoError(t, err)

	_, err = runner.Run(ctx, Call{ThoughtTreeID: "tree-1", Input: map[string]interface{}{
		"operation": "delete", "key": "k",
	}})
	require.NoError(t, err)
	assert.Empty(t, store.entries)

	_, err = runner.Run(ctx, Call{Input: map[string]interface{}{"operation": "teleport"}})
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.KindOf(err))
}

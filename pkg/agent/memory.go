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
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/nyx-labs/nyx/pkg/llm"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

const (
	// compressionThreshold: values above this are stored zstd-compressed.
	compressionThreshold = 1 << 10

	// defaultSummarizeTokenThreshold: summarize compresses content
	// through the LLM only above this token count.
	defaultSummarizeTokenThreshold = 2000

	// defaultLRUSize bounds the in-process cache front.
	defaultLRUSize = 512
)

// MemoryStore is the persistence slice the memory agent needs.
type MemoryStore interface {
	SaveMemoryEntry(ctx context.Context, entry *storage.MemoryEntry) error
	GetMemoryEntry(ctx context.Context, scope storage.MemoryScope, scopeID, key string) (*storage.MemoryEntry, error)
	SearchMemoryEntries(ctx context.Context, query storage.MemoryQuery) ([]*storage.MemoryEntry, error)
	DeleteMemoryEntry(ctx context.Context, scope storage.MemoryScope, scopeID, key string) error
}

// MemoryConfig configures a memory runner.
type MemoryConfig struct {
	Store MemoryStore

	// LLM powers the summarize operation. Nil falls back to truncation.
	LLM   LLMCaller
	Model string

	// LRUSize bounds the cache front. Defaults to 512 entries.
	LRUSize int

	// SummarizeTokenThreshold triggers LLM compression. Defaults to 2000.
	SummarizeTokenThreshold int
}

// MemoryRunner serves store/retrieve/search/summarize/update/delete over
// an LRU front backed by the durable store.
type MemoryRunner struct {
	cfg       MemoryConfig
	cache     *lru.Cache[string, string]
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewMemoryRunner builds the specialization.
func NewMemoryRunner(cfg MemoryConfig) (*MemoryRunner, error) {
	if cfg.LRUSize <= 0 {
		cfg.LRUSize = defaultLRUSize
	}
	if cfg.SummarizeTokenThreshold <= 0 {
		cfg.SummarizeTokenThreshold = defaultSummarizeTokenThreshold
	}
	cache, err := lru.New[string, string](cfg.LRUSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory cache: %w", err)
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build zstd decoder: %w", err)
	}
	return &MemoryRunner{
		cfg:       cfg,
		cache:     cache,
		encoder:   encoder,
		decoder:   decoder,
		threshold: cfg.SummarizeTokenThreshold,
	}, nil
}

// NewMemoryAgent is the convenience constructor orchestrators use.
func NewMemoryAgent(memCfg MemoryConfig, agentCfg Config) (*Agent, error) {
	runner, err := NewMemoryRunner(memCfg)
	if err != nil {
		return nil, err
	}
	return New(runner, agentCfg), nil
}

func (r *MemoryRunner) Kind() types.AgentKind { return types.AgentMemory }
func (r *MemoryRunner) ClassName() string     { return "MemoryAgent" }

func (r *MemoryRunner) Run(ctx context.Context, call Call) (*types.AgentResult, error) {
	op := optString(call.Input, "operation", "")
	scope := storage.MemoryScope(optString(call.Input, "scope", string(storage.ScopeThoughtTree)))
	scopeID := optString(call.Input, "scope_id", call.ThoughtTreeID)
	key := optString(call.Input, "key", "")

	switch op {
	case "store", "update":
		return r.store(ctx, call, scope, scopeID, key)
	case "retrieve":
		return r.retrieve(ctx, scope, scopeID, key)
	case "search":
		return r.search(ctx, call, scope, scopeID)
	case "summarize":
		return r.summarize(ctx, call)
	case "delete":
		return r.delete(ctx, scope, scopeID, key)
	default:
		return nil, types.Errorf(types.ErrValidation, "unknown memory operation: %q", op)
	}
}

func cacheKey(scope storage.MemoryScope, scopeID, key string) string {
	return string(scope) + "/" + scopeID + "/" + key
}

func (r *MemoryRunner) store(ctx context.Context, call Call, scope storage.MemoryScope, scopeID, key string) (*types.AgentResult, error) {
	if key == "" {
		return nil, types.Errorf(types.ErrValidation, "memory store requires key")
	}
	content := optString(call.Input, "content", "")
	if content == "" {
		return nil, types.Errorf(types.ErrValidation, "memory store requires content")
	}
	kind := storage.MemoryKind(optString(call.Input, "kind", string(storage.MemoryContext)))

	payload := []byte(content)
	compressed := false
	if len(payload) > compressionThreshold {
		payload = r.encoder.EncodeAll(payload, nil)
		compressed = true
	}

	now := time.Now().UTC()
	entry := &storage.MemoryEntry{
		ID:         uuid.NewString(),
		Scope:      scope,
		ScopeID:    scopeID,
		Kind:       kind,
		Key:        key,
		Content:    payload,
		Compressed: compressed,
		TokenCount: llm.CountTokens(content),
		CreatedAt:  now,
		UpdatedAt:  now,
		AccessedAt: now,
	}
	if r.cfg.Store != nil {
		if err := r.cfg.Store.SaveMemoryEntry(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to store memory entry: %w", err)
		}
	}
	r.cache.Add(cacheKey(scope, scopeID, key), content)

	return &types.AgentResult{
		Success: true,
		Content: fmt.Sprintf("stored %s (%d bytes, compressed=%v)", key, len(payload), compressed),
		Data: map[string]interface{}{
			"key":        key,
			"compressed": compressed,
			"tokens":     entry.TokenCount,
		},
	}, nil
}

func (r *MemoryRunner) retrieve(ctx context.Context, scope storage.MemoryScope, scopeID, key string) (*types.AgentResult, error) {
	if key == "" {
		return nil, types.Errorf(types.ErrValidation, "memory retrieve requires key")
	}
	ck := cacheKey(scope, scopeID, key)
	if content, ok := r.cache.Get(ck); ok {
		return &types.AgentResult{
			Success: true,
			Content: content,
			Data:    map[string]interface{}{"key": key, "cache_hit": true},
		}, nil
	}
	if r.cfg.Store == nil {
		return nil, types.Errorf(types.ErrNotFound, "memory entry not found: %s", key)
	}

	entry, err := r.cfg.Store.GetMemoryEntry(ctx, scope, scopeID, key)
	if err != nil {
		return nil, err
	}
	content, err := r.decode(entry)
	if err != nil {
		return nil, err
	}
	r.cache.Add(ck, content)
	return &types.AgentResult{
		Success: true,
		Content: content,
		Data:    map[string]interface{}{"key": key, "cache_hit": false},
	}, nil
}

func (r *MemoryRunner) decode(entry *storage.MemoryEntry) (string, error) {
	if !entry.Compressed {
		return string(entry.Content), nil
	}
	decoded, err := r.decoder.DecodeAll(entry.Content, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decompress memory entry %s: %w", entry.Key, err)
	}
	return string(decoded), nil
}

func (r *MemoryRunner) search(ctx context.Context, call Call, scope storage.MemoryScope, scopeID string) (*types.AgentResult, error) {
	if r.cfg.Store == nil {
		return &types.AgentResult{Success: true, Content: "", Data: map[string]interface{}{"matches": 0}}, nil
	}
	limit := 10
	if v, ok := call.Input["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}
	entries, err := r.cfg.Store.SearchMemoryEntries(ctx, storage.MemoryQuery{
		Scope:   scope,
		ScopeID: scopeID,
		Kind:    storage.MemoryKind(optString(call.Input, "kind", "")),
		Term:    optString(call.Input, "query", ""),
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("memory search failed: %w", err)
	}

	matches := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		content, err := r.decode(entry)
		if err != nil {
			continue
		}
		matches = append(matches, map[string]interface{}{
			"key":     entry.Key,
			"kind":    string(entry.Kind),
			"content": content,
		})
	}
	return &types.AgentResult{
		Success: true,
		Content: fmt.Sprintf("%d matches", len(matches)),
		Data:    map[string]interface{}{"matches": len(matches), "entries": matches},
	}, nil
}

// summarize compresses content through the LLM when it exceeds the token
// threshold; smaller content passes through unchanged.
func (r *MemoryRunner) summarize(ctx context.Context, call Call) (*types.AgentResult, error) {
	content := optString(call.Input, "content", "")
	if content == "" {
		return nil, types.Errorf(types.ErrValidation, "memory summarize requires content")
	}

	tokens := llm.CountTokens(content)
	if tokens <= r.threshold || r.cfg.LLM == nil {
		return &types.AgentResult{
			Success: true,
			Content: content,
			Data:    map[string]interface{}{"summarized": false, "tokens": tokens},
		}, nil
	}

	result, err := r.cfg.LLM.Call(ctx, llm.CallRequest{
		System:        "You are a summarizer. Compress the material below into a dense summary that preserves every conclusion, decision, and number. Target roughly a quarter of the original length.",
		User:          content,
		Model:         r.cfg.Model,
		Temperature:   0.3,
		ThoughtTreeID: call.ThoughtTreeID,
		AgentID:       call.AgentID,
		UseCache:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize llm call failed: %w", err)
	}
	return &types.AgentResult{
		Success: true,
		Content: result.Content,
		Usage:   result.Usage,
		Data: map[string]interface{}{
			"summarized":      true,
			"original_tokens": tokens,
			"summary_tokens":  llm.CountTokens(result.Content),
		},
	}, nil
}

func (r *MemoryRunner) delete(ctx context.Context, scope storage.MemoryScope, scopeID, key string) (*types.AgentResult, error) {
	if key == "" {
		return nil, types.Errorf(types.ErrValidation, "memory delete requires key")
	}
	r.cache.Remove(cacheKey(scope, scopeID, key))
	if r.cfg.Store != nil {
		if err := r.cfg.Store.DeleteMemoryEntry(ctx, scope, scopeID, key); err != nil {
			return nil, err
		}
	}
	return &types.AgentResult{
		Success: true,
		Content: fmt.Sprintf("deleted %s", key),
		Data:    map[string]interface{}{"key": key},
	}, nil
}

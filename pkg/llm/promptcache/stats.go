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
package promptcache

import (
	"math"
	"sync/atomic"
)

// Stats is the process-global cache statistics block. All updates are
// atomic counter increments, so concurrent recording commutes.
type Stats struct {
	calls               atomic.Int64
	nativeCacheHits     atomic.Int64
	inputTokens         atomic.Int64
	outputTokens        atomic.Int64
	cacheReadTokens     atomic.Int64
	cacheCreationTokens atomic.Int64
	costMicroUSD        atomic.Int64 // USD * 1e6, integer for atomicity
	costNoCacheMicroUSD atomic.Int64
}

// NewStats returns a zeroed statistics block.
func NewStats() *Stats {
	return &Stats{}
}

// Record accounts one completed call. A call is a native cache hit iff
// the provider reported cacheRead > 0.
func (s *Stats) Record(inputTokens, outputTokens, cacheCreation, cacheRead int, costUSD, costNoCacheUSD float64) {
	s.calls.Add(1)
	if cacheRead > 0 {
		s.nativeCacheHits.Add(1)
	}
	s.inputTokens.Add(int64(inputTokens))
	s.outputTokens.Add(int64(outputTokens))
	s.cacheCreationTokens.Add(int64(cacheCreation))
	s.cacheReadTokens.Add(int64(cacheRead))
	s.costMicroUSD.Add(int64(math.Round(costUSD * 1e6)))
	s.costNoCacheMicroUSD.Add(int64(math.Round(costNoCacheUSD * 1e6)))
}

// Snapshot is a point-in-time copy of the statistics.
type Snapshot struct {
	Calls               int64   `json:"calls"`
	NativeCacheHits     int64   `json:"native_cache_hits"`
	InputTokens         int64   `json:"input_tokens"`
	OutputTokens        int64   `json:"output_tokens"`
	CacheReadTokens     int64   `json:"cache_read_tokens"`
	CacheCreationTokens int64   `json:"cache_creation_tokens"`
	InputTokensSaved    int64   `json:"input_tokens_saved"`
	CostUSD             float64 `json:"cost_usd"`
	CostWithoutCacheUSD float64 `json:"cost_without_cache_usd"`
	SavingsUSD          float64 `json:"savings_usd"`
}

// Snapshot returns the current totals. Tokens served from cache are
// tokens the caller did not pay full input price for.
func (s *Stats) Snapshot() Snapshot {
	cost := float64(s.costMicroUSD.Load()) / 1e6
	costNoCache := float64(s.costNoCacheMicroUSD.Load()) / 1e6
	return Snapshot{
		Calls:               s.calls.Load(),
		NativeCacheHits:     s.nativeCacheHits.Load(),
		InputTokens:         s.inputTokens.Load(),
		OutputTokens:        s.outputTokens.Load(),
		CacheReadTokens:     s.cacheReadTokens.Load(),
		CacheCreationTokens: s.cacheCreationTokens.Load(),
		InputTokensSaved:    s.cacheReadTokens.Load(),
		CostUSD:             cost,
		CostWithoutCacheUSD: costNoCache,
		SavingsUSD:          costNoCache - cost,
	}
}

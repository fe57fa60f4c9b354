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
package llm

import "strings"

// ModelRates holds per-model pricing in USD per million tokens. Cache
// writes bill at 1.25x input, cache reads at 0.10x input.
type ModelRates struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// CacheWritePerMTok returns the cache-creation rate.
func (r ModelRates) CacheWritePerMTok() float64 { return r.InputPerMTok * 1.25 }

// CacheReadPerMTok returns the cache-read rate.
func (r ModelRates) CacheReadPerMTok() float64 { return r.InputPerMTok * 0.10 }

// modelRates maps model-family substrings to pricing (2025-10 list
// prices). Lookup is by substring so dated model ids resolve without a
// table entry per release.
var modelRates = []struct {
	match string
	rates ModelRates
}{
	{"opus", ModelRates{InputPerMTok: 15.0, OutputPerMTok: 75.0}},
	{"sonnet", ModelRates{InputPerMTok: 3.0, OutputPerMTok: 15.0}},
	{"haiku", ModelRates{InputPerMTok: 0.80, OutputPerMTok: 4.0}},
}

// defaultRates is used for unrecognized models.
var defaultRates = ModelRates{InputPerMTok: 3.0, OutputPerMTok: 15.0}

// RatesFor returns the pricing for a model identifier.
func RatesFor(model string) ModelRates {
	lower := strings.ToLower(model)
	for _, entry := range modelRates {
		if strings.Contains(lower, entry.match) {
			return entry.rates
		}
	}
	return defaultRates
}

// Cost computes the USD cost of one call from its token usage.
func Cost(model string, inputTokens, outputTokens, cacheCreation, cacheRead int) float64 {
	r := RatesFor(model)
	cost := float64(inputTokens) * r.InputPerMTok / 1_000_000
	cost += float64(outputTokens) * r.OutputPerMTok / 1_000_000
	cost += float64(cacheCreation) * r.CacheWritePerMTok() / 1_000_000
	cost += float64(cacheRead) * r.CacheReadPerMTok() / 1_000_000
	return cost
}

// CostWithoutCache computes what the same call would have cost had every
// cached token been billed at the full input rate. Saved against Cost it
// quantifies caching savings.
func CostWithoutCache(model string, inputTokens, outputTokens, cacheCreation, cacheRead int) float64 {
	r := RatesFor(model)
	cost := float64(inputTokens+cacheCreation+cacheRead) * r.InputPerMTok / 1_000_000
	cost += float64(outputTokens) * r.OutputPerMTok / 1_000_000
	return cost
}

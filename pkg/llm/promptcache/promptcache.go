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

// Package promptcache decides which prompt segments get cache
// breakpoints and keeps the process-global cache statistics. The real
// caching authority is the LLM server; the fingerprint here is only a
// bookkeeping hint.
package promptcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// DefaultMinCacheTokens is the minimum estimated segment size worth a
	// breakpoint on most models.
	DefaultMinCacheTokens = 1024

	// SmallModelMinCacheTokens applies to haiku-class models, whose
	// server-side cache minimum is higher.
	SmallModelMinCacheTokens = 2048

	// MaxBreakpoints caps breakpoints per request.
	MaxBreakpoints = 4
)

// Fingerprint returns the 16-hex-character key over
// (system ‖ user ‖ model) used to correlate interaction rows locally.
func Fingerprint(system, user, model string) string {
	h := sha256.New()
	h.Write([]byte(system))
	h.Write([]byte{0})
	h.Write([]byte(user))
	h.Write([]byte{0})
	h.Write([]byte(model))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// MinCacheTokens returns the model-dependent minimum segment size for a
// breakpoint.
func MinCacheTokens(model string) int {
	if strings.Contains(strings.ToLower(model), "haiku") {
		return SmallModelMinCacheTokens
	}
	return DefaultMinCacheTokens
}

// Cacheable reports whether a segment of the given text is worth a
// breakpoint for the given model. The estimate is chars/4; the server
// ignores markers on segments below its own minimum, so marking is
// harmless but wasteful.
func Cacheable(text, model string) bool {
	return len(text)/4 >= MinCacheTokens(model)
}

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
package runtime

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-labs/nyx/pkg/types"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		DBPath: filepath.Join(t.TempDir(), "nyx.db"),
		Port:   0,
		LLM: LLMConfig{
			Provider:        "anthropic",
			AnthropicAPIKey: "test-key",
			Model:           "claude-sonnet-4-5",
			MaxTokens:       1024,
		},
	}
}

func TestNewBuildsComponentGraph(t *testing.T) {
	ctx := context.Background()
	r, err := New(ctx, testConfig(t))
	require.NoError(t, err)

	assert.NotNil(t, r.Orchestrator())
	assert.NotNil(t, r.Store())
	assert.NotNil(t, r.CacheStats())
	assert.Nil(t, r.Engine(), "engine disabled by default")

	require.NoError(t, r.Stop(ctx))
}

func TestNewRegistersBuiltinTools(t *testing.T) {
	ctx := context.Background()
	r, err := New(ctx, testConfig(t))
	require.NoError(t, err)

	names := r.Tools().List()
	assert.Contains(t, names, "http_request")
	assert.Contains(t, names, "shell_exec")
	assert.Contains(t, names, "read_file")

	// Stop drains the registry's audit writer along with everything else.
	require.NoError(t, r.Stop(ctx))
}

func TestNewWithEngineEnabled(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Engine.Enabled = true
	cfg.Engine.TickIntervalSeconds = 5

	r, err := New(ctx, cfg)
	require.NoError(t, err)
	assert.NotNil(t, r.Engine())
	assert.False(t, r.Engine().Running())

	require.NoError(t, r.Stop(ctx))
}

func TestNewRejectsMissingDBPath(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.KindOf(err))
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "ouija"
	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.KindOf(err))
	assert.Contains(t, err.Error(), "ouija")
}

func TestStartRunsCleanupAndStops(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Host = "127.0.0.1"
	cfg.Port = 0 // ephemeral

	r, err := New(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, r.Start(ctx))
	require.NoError(t, r.Stop(ctx))

	select {
	case err := <-r.ServeErr():
		assert.NoError(t, err)
	default:
		// Listener may still be winding down; Stop already drained it.
	}
}

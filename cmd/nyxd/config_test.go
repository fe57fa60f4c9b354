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
package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-labs/nyx/pkg/runtime"
	"github.com/nyx-labs/nyx/pkg/types"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Host: "127.0.0.1", Port: 8420},
		LLM:      runtime.LLMConfig{Provider: "anthropic", AnthropicAPIKey: "sk-test", Model: "claude-sonnet-4-5"},
		Database: DatabaseConfig{Path: "/tmp/nyx-test.db"},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Server.Port = 0
	assert.ErrorContains(t, cfg.Validate(), "invalid port")

	cfg = validConfig()
	cfg.LLM.AnthropicAPIKey = ""
	assert.ErrorContains(t, cfg.Validate(), "anthropic API key")

	cfg = validConfig()
	cfg.LLM.Provider = "bedrock"
	cfg.LLM.BedrockRegion = ""
	assert.ErrorContains(t, cfg.Validate(), "bedrock region")

	cfg = validConfig()
	cfg.LLM.Provider = "carrier-pigeon"
	assert.ErrorContains(t, cfg.Validate(), "unsupported llm.provider")

	cfg = validConfig()
	cfg.Database.Path = ""
	assert.ErrorContains(t, cfg.Validate(), "database.path")
}

func TestRuntimeConversion(t *testing.T) {
	cfg := validConfig()
	cfg.Server.APIKey = "bearer-token"
	cfg.Engine = runtime.EngineConfig{Enabled: true, DrivesPath: "/tmp/drives.yaml"}
	cfg.Tools = runtime.ToolsConfig{AllowWrites: true}

	rt := cfg.Runtime()
	assert.Equal(t, "127.0.0.1", rt.Host)
	assert.Equal(t, 8420, rt.Port)
	assert.Equal(t, "bearer-token", rt.APIKey)
	assert.Equal(t, "/tmp/nyx-test.db", rt.DBPath)
	assert.True(t, rt.Engine.Enabled)
	assert.True(t, rt.Tools.AllowWrites)
}

func TestParsePriority(t *testing.T) {
	for flag, want := range map[string]types.Priority{
		"low":      types.PriorityLow,
		"medium":   types.PriorityMedium,
		"":         types.PriorityMedium,
		"high":     types.PriorityHigh,
		"critical": types.PriorityCritical,
	} {
		got, err := parsePriority(flag)
		require.NoError(t, err, flag)
		assert.Equal(t, want, got)
	}

	_, err := parsePriority("urgent")
	assert.ErrorContains(t, err, "unknown priority")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "***", maskSecret("short"))
	assert.Equal(t, "sk-a...wxyz", maskSecret("sk-abcdefghijklmnopqrstuvwxyz"))
}

func TestListAvailableSecretKeys(t *testing.T) {
	keys := ListAvailableSecretKeys()
	assert.Contains(t, keys, "anthropic_api_key")
	assert.Contains(t, keys, "server_api_key")
}

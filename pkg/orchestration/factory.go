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
	"github.com/nyx-labs/nyx/pkg/agent"
	"github.com/nyx-labs/nyx/pkg/types"
)

// FactoryConfig wires the shared backends a runner factory hands to each
// specialization.
type FactoryConfig struct {
	LLM agent.LLMCaller

	// Memory backs memory agents. Nil keeps summaries LLM-only.
	Memory agent.MemoryStore

	// Model overrides the client default for every spawned agent.
	Model string

	// ValidationLevel configures validator agents. Empty means standard.
	ValidationLevel string

	// SessionContext is shared background material for council agents.
	SessionContext string

	// UseCache enables prompt-cache breakpoints on task agents.
	UseCache bool

	// Tools is the tool registry slice social monitors call through.
	Tools agent.ToolExecutor

	// Social configures social-monitor agents. Spawning the kind without
	// it is a factory error.
	Social SocialSettings
}

// SocialSettings is the deployment half of a social monitor: where the
// feed lives and which drive carries its cursors and rate counters.
type SocialSettings struct {
	Store     agent.SocialStore
	Platform  string
	FeedURL   string
	ReplyURL  string
	DriveKind string

	MaxPostsPerHour    int
	MaxResponsesPerRun int
	MaxPagesPerRun     int
}

func (s SocialSettings) configured() bool {
	return s.Store != nil && s.FeedURL != "" && s.DriveKind != ""
}

// NewRunnerFactory builds the default factory covering every agent kind.
func NewRunnerFactory(cfg FactoryConfig) RunnerFactory {
	return func(kind types.AgentKind) (agent.Runner, error) {
		switch kind {
		case types.AgentTask:
			return agent.NewTaskRunner(agent.TaskConfig{
				LLM:      cfg.LLM,
				Model:    cfg.Model,
				UseCache: cfg.UseCache,
			}), nil
		case types.AgentCouncil:
			return agent.NewCouncilRunner(agent.CouncilConfig{
				LLM:            cfg.LLM,
				Model:          cfg.Model,
				SessionContext: cfg.SessionContext,
			}), nil
		case types.AgentValidator:
			return agent.NewValidatorRunner(agent.ValidatorConfig{
				Level: agent.ParseValidationLevel(cfg.ValidationLevel),
				LLM:   cfg.LLM,
				Model: cfg.Model,
			}), nil
		case types.AgentMemory:
			return agent.NewMemoryRunner(agent.MemoryConfig{
				Store: cfg.Memory,
				LLM:   cfg.LLM,
				Model: cfg.Model,
			})
		case types.AgentSocialMonitor:
			if cfg.Tools == nil || !cfg.Social.configured() {
				return nil, types.NewError(types.ErrValidation,
					"social monitor requires a tool registry, a store, a feed URL, and a drive kind")
			}
			return agent.NewSocialMonitorRunner(agent.SocialConfig{
				LLM:                cfg.LLM,
				Tools:              cfg.Tools,
				Store:              cfg.Social.Store,
				Platform:           cfg.Social.Platform,
				FeedURL:            cfg.Social.FeedURL,
				ReplyURL:           cfg.Social.ReplyURL,
				DriveKind:          cfg.Social.DriveKind,
				MaxPostsPerHour:    cfg.Social.MaxPostsPerHour,
				MaxResponsesPerRun: cfg.Social.MaxResponsesPerRun,
				MaxPagesPerRun:     cfg.Social.MaxPagesPerRun,
				Model:              cfg.Model,
			}), nil
		default:
			return nil, types.Errorf(types.ErrValidation, "unknown agent kind: %s", kind)
		}
	}
}

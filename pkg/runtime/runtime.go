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

// Package runtime assembles the process: store, LLM call path, tool
// registry, orchestrator, motivational engine, and HTTP server, with
// ordered startup and drain. All process-lifetime state lives on the
// Runtime; nothing here is a package global.
package runtime

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/internal/version"
	"github.com/nyx-labs/nyx/pkg/llm"
	"github.com/nyx-labs/nyx/pkg/llm/anthropic"
	"github.com/nyx-labs/nyx/pkg/llm/bedrock"
	"github.com/nyx-labs/nyx/pkg/llm/promptcache"
	"github.com/nyx-labs/nyx/pkg/motivation"
	"github.com/nyx-labs/nyx/pkg/orchestration"
	"github.com/nyx-labs/nyx/pkg/server"
	"github.com/nyx-labs/nyx/pkg/storage/sqlite"
	"github.com/nyx-labs/nyx/pkg/tools"
	"github.com/nyx-labs/nyx/pkg/types"
)

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	Provider        string  `mapstructure:"provider"` // "anthropic" | "bedrock"
	AnthropicAPIKey string  `mapstructure:"anthropic_api_key"`
	Model           string  `mapstructure:"model"`
	BedrockRegion   string  `mapstructure:"bedrock_region"`
	BedrockProfile  string  `mapstructure:"bedrock_profile"`
	Temperature     float64 `mapstructure:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	UseCache        *bool   `mapstructure:"use_cache"`
}

// EngineConfig controls the motivational engine.
type EngineConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	DrivesPath          string `mapstructure:"drives"`
	TickIntervalSeconds int    `mapstructure:"tick_interval_seconds"`
}

// ToolsConfig controls the builtin tool set.
type ToolsConfig struct {
	AllowWrites    bool     `mapstructure:"allow_writes"`
	ShellAllowlist []string `mapstructure:"shell_allowlist"`
}

// SocialConfig points social-monitor agents at their feed. FeedURL and
// DriveKind empty leave the specialization unconfigured.
type SocialConfig struct {
	Platform        string `mapstructure:"platform"`
	FeedURL         string `mapstructure:"feed_url"`
	ReplyURL        string `mapstructure:"reply_url"`
	DriveKind       string `mapstructure:"drive_kind"`
	MaxPostsPerHour int    `mapstructure:"max_posts_per_hour"`
}

// Config is the full process configuration.
type Config struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
	DBPath string `mapstructure:"db"`

	LLM    LLMConfig    `mapstructure:"llm"`
	Engine EngineConfig `mapstructure:"engine"`
	Tools  ToolsConfig  `mapstructure:"tools"`
	Social SocialConfig `mapstructure:"social"`

	MaxConcurrentAgents int    `mapstructure:"max_concurrent_agents"`
	ValidationLevel     string `mapstructure:"validation_level"`

	Logger *zap.Logger `mapstructure:"-"`
}

// Runtime owns every long-lived component and their shutdown order.
type Runtime struct {
	cfg    Config
	logger *zap.Logger

	store     *sqlite.Store
	stats     *promptcache.Stats
	llmClient *llm.Client
	tools     *tools.Registry
	top       *orchestration.TopLevel
	engine    *motivation.Engine
	http      *server.Server

	serveErr chan error
}

// New builds the component graph. Nothing starts running until Start.
func New(ctx context.Context, cfg Config) (*Runtime, error) {
	if cfg.DBPath == "" {
		return nil, types.NewError(types.ErrValidation, "database path is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	r := &Runtime{cfg: cfg, logger: cfg.Logger, serveErr: make(chan error, 1)}

	store, err := sqlite.NewStore(ctx, cfg.DBPath, cfg.Logger.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	r.store = store

	provider, err := buildProvider(ctx, cfg.LLM)
	if err != nil {
		store.Close()
		return nil, err
	}
	r.stats = promptcache.NewStats()
	r.llmClient = llm.NewClient(provider, store, r.stats, llm.ClientConfig{
		DefaultModel:       cfg.LLM.Model,
		DefaultMaxTokens:   cfg.LLM.MaxTokens,
		DefaultTemperature: cfg.LLM.Temperature,
		Logger:             cfg.Logger.Named("llm"),
	})

	r.tools = tools.NewRegistry(tools.RegistryConfig{
		Store:  store,
		Logger: cfg.Logger.Named("tools"),
	})
	if err := tools.RegisterBuiltins(r.tools, tools.BuiltinOptions{
		AllowWrites:    cfg.Tools.AllowWrites,
		ShellAllowlist: cfg.Tools.ShellAllowlist,
	}); err != nil {
		store.Close()
		return nil, err
	}

	useCache := true
	if cfg.LLM.UseCache != nil {
		useCache = *cfg.LLM.UseCache
	}
	factory := orchestration.NewRunnerFactory(orchestration.FactoryConfig{
		LLM:             r.llmClient,
		Memory:          store,
		Model:           cfg.LLM.Model,
		ValidationLevel: cfg.ValidationLevel,
		UseCache:        useCache,
		Tools:           r.tools,
		Social: orchestration.SocialSettings{
			Store:           store,
			Platform:        cfg.Social.Platform,
			FeedURL:         cfg.Social.FeedURL,
			ReplyURL:        cfg.Social.ReplyURL,
			DriveKind:       cfg.Social.DriveKind,
			MaxPostsPerHour: cfg.Social.MaxPostsPerHour,
		},
	})
	r.top = orchestration.NewTopLevel(orchestration.TopLevelConfig{
		Store:               store,
		Factory:             factory,
		MaxConcurrentAgents: cfg.MaxConcurrentAgents,
		Progress:            r.publishProgress,
		Logger:              cfg.Logger.Named("orchestration"),
	})

	if cfg.Engine.Enabled {
		engine, err := motivation.NewEngine(motivation.Config{
			Store:        store,
			Executor:     r.top,
			TickInterval: time.Duration(cfg.Engine.TickIntervalSeconds) * time.Second,
			DrivesPath:   cfg.Engine.DrivesPath,
			Logger:       cfg.Logger.Named("motivation"),
		})
		if err != nil {
			store.Close()
			return nil, err
		}
		r.engine = engine
	}

	httpServer, err := server.New(server.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		APIKey:       cfg.APIKey,
		Orchestrator: r.top,
		Engine:       engineOrNil(r.engine),
		Drives:       store,
		Trees:        store,
		Info: server.Info{
			Name:     "nyx",
			Version:  version.Get(),
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
		},
		Logger: cfg.Logger.Named("http"),
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	r.http = httpServer
	return r, nil
}

// engineOrNil avoids a typed-nil interface when the engine is disabled.
func engineOrNil(engine *motivation.Engine) server.MotivationEngine {
	if engine == nil {
		return nil
	}
	return engine
}

func buildProvider(ctx context.Context, cfg LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return anthropic.NewClient(anthropic.Config{APIKey: cfg.AnthropicAPIKey}), nil
	case "bedrock":
		return bedrock.NewClient(ctx, bedrock.Config{
			ModelID: cfg.Model,
			Region:  cfg.BedrockRegion,
			Profile: cfg.BedrockProfile,
		})
	default:
		return nil, types.Errorf(types.ErrValidation, "unknown llm provider: %s", cfg.Provider)
	}
}

// publishProgress forwards orchestrator events onto the SSE hub.
func (r *Runtime) publishProgress(event types.ProgressEvent) {
	if r.http != nil {
		r.http.PublishProgress(event)
	}
}

// Orchestrator exposes the workflow entry point for one-shot CLI runs.
func (r *Runtime) Orchestrator() *orchestration.TopLevel {
	return r.top
}

// Store exposes the persistence layer.
func (r *Runtime) Store() *sqlite.Store {
	return r.store
}

// Tools exposes the tool registry.
func (r *Runtime) Tools() *tools.Registry {
	return r.tools
}

// Engine returns the motivational engine, nil when disabled.
func (r *Runtime) Engine() *motivation.Engine {
	return r.engine
}

// CacheStats exposes the process-wide prompt cache counters.
func (r *Runtime) CacheStats() *promptcache.Stats {
	return r.stats
}

// Start runs startup cleanup, brings up the engine when enabled, and
// serves HTTP in the background. Serve failures surface on ServeErr.
func (r *Runtime) Start(ctx context.Context) error {
	report, err := r.store.StartupCleanup(ctx)
	if err != nil {
		return fmt.Errorf("startup cleanup failed: %w", err)
	}
	if report.Total() > 0 {
		r.logger.Info("startup cleanup recovered stale records",
			zap.Int64("agents_terminated", report.AgentsTerminated),
			zap.Int64("trees_cancelled", report.TreesCancelled),
			zap.Int64("tasks_cancelled", report.TasksCancelled),
			zap.Int64("orchestrators_closed", report.OrchestratorsClosed))
	}

	if r.engine != nil {
		if err := r.engine.Start(ctx); err != nil {
			return err
		}
	}

	go func() {
		r.serveErr <- r.http.Start()
	}()
	r.logger.Info("runtime started", zap.String("version", version.Get()))
	return nil
}

// ServeErr reports the HTTP listener's exit.
func (r *Runtime) ServeErr() <-chan error {
	return r.serveErr
}

// Stop drains in order: engine first (no new workflows), then the HTTP
// server, then the async loggers of the LLM client and the tool
// registry, then the store.
func (r *Runtime) Stop(ctx context.Context) error {
	if r.engine != nil && r.engine.Running() {
		if err := r.engine.Stop(ctx); err != nil {
			r.logger.Warn("engine stop failed", zap.Error(err))
		}
	}
	if err := r.http.Stop(ctx); err != nil {
		r.logger.Warn("http shutdown failed", zap.Error(err))
	}
	r.llmClient.Close()
	r.tools.Close()
	if err := r.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	r.logger.Info("runtime stopped")
	return nil
}

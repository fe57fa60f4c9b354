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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"

	nyxconfig "github.com/nyx-labs/nyx/pkg/config"
	"github.com/nyx-labs/nyx/pkg/runtime"
)

const (
	// ServiceName for keyring storage
	ServiceName = "nyx"
	// DefaultConfigFileName is the name of the config file
	DefaultConfigFileName = "nyxd"
)

// Config holds all configuration for the Nyx daemon.
// Priority: CLI flags > config file > env vars > defaults
type Config struct {
	// DataDir is computed from NYX_DATA_DIR or ~/.nyx, never from the
	// config file.
	DataDir string `mapstructure:"-"`

	Server   ServerConfig         `mapstructure:"server"`
	LLM      runtime.LLMConfig    `mapstructure:"llm"`
	Database DatabaseConfig       `mapstructure:"database"`
	Engine   runtime.EngineConfig `mapstructure:"engine"`
	Tools    runtime.ToolsConfig  `mapstructure:"tools"`
	Social   runtime.SocialConfig `mapstructure:"social"`
	Logging  LoggingConfig        `mapstructure:"logging"`

	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
}

// ServerConfig holds the HTTP surface configuration.
type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// DatabaseConfig holds storage configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OrchestratorConfig holds workflow execution limits.
type OrchestratorConfig struct {
	MaxConcurrentAgents int    `mapstructure:"max_concurrent_agents"`
	ValidationLevel     string `mapstructure:"validation_level"`
}

// Runtime converts the CLI config into the runtime's wiring config.
func (c *Config) Runtime() runtime.Config {
	return runtime.Config{
		Host:                c.Server.Host,
		Port:                c.Server.Port,
		APIKey:              c.Server.APIKey,
		DBPath:              c.Database.Path,
		LLM:                 c.LLM,
		Engine:              c.Engine,
		Tools:               c.Tools,
		Social:              c.Social,
		MaxConcurrentAgents: c.Orchestrator.MaxConcurrentAgents,
		ValidationLevel:     c.Orchestrator.ValidationLevel,
	}
}

// LoadConfig loads configuration with the following priority:
// 1. CLI flags (highest)
// 2. Config file
// 3. Environment variables
// 4. Defaults (lowest)
func LoadConfig(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(nyxconfig.GetDataDir())
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/nyx/")
		viper.SetConfigName(DefaultConfigFileName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file %s: %w", viper.ConfigFileUsed(), err)
		}
		// Config file not found; using defaults + env vars + flags
	}

	viper.SetEnvPrefix("NYX")
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.DataDir = nyxconfig.GetDataDir()

	// Non-fatal: keyring might not be available; secrets can come from
	// CLI flags or env instead.
	loadSecretsFromKeyring(&config)

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8420)

	viper.SetDefault("llm.provider", "anthropic")
	viper.SetDefault("llm.model", "claude-sonnet-4-5")
	viper.SetDefault("llm.bedrock_region", "us-west-2")
	viper.SetDefault("llm.temperature", 1.0)
	viper.SetDefault("llm.max_tokens", 4096)

	viper.SetDefault("database.path", filepath.Join(nyxconfig.GetDataDir(), "nyx.db"))

	viper.SetDefault("engine.enabled", false)
	viper.SetDefault("engine.drives", filepath.Join(nyxconfig.GetDataDir(), "drives.yaml"))
	viper.SetDefault("engine.tick_interval_seconds", 30)

	viper.SetDefault("tools.allow_writes", false)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("orchestrator.max_concurrent_agents", 0)
	viper.SetDefault("orchestrator.validation_level", "")
}

// secretMapping binds one keyring key to its config field.
type secretMapping struct {
	KeyringKey string
	Setter     func(*Config, string)
	IsSet      func(*Config) bool
}

func secretMappings() []secretMapping {
	return []secretMapping{
		{
			KeyringKey: "anthropic_api_key",
			Setter:     func(c *Config, v string) { c.LLM.AnthropicAPIKey = v },
			IsSet:      func(c *Config) bool { return c.LLM.AnthropicAPIKey != "" },
		},
		{
			KeyringKey: "server_api_key",
			Setter:     func(c *Config, v string) { c.Server.APIKey = v },
			IsSet:      func(c *Config) bool { return c.Server.APIKey != "" },
		},
	}
}

// loadSecretsFromKeyring fills unset secrets from the system keyring.
// Values already set via CLI, env, or config file win.
func loadSecretsFromKeyring(config *Config) {
	for _, mapping := range secretMappings() {
		if mapping.IsSet(config) {
			continue
		}
		value, err := keyring.Get(ServiceName, mapping.KeyringKey)
		if err == nil && value != "" {
			mapping.Setter(config, value)
		}
	}

	if config.LLM.AnthropicAPIKey == "" {
		config.LLM.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

// ListAvailableSecretKeys returns the keyring keys the CLI manages.
func ListAvailableSecretKeys() []string {
	mappings := secretMappings()
	keys := make([]string, len(mappings))
	for i, mapping := range mappings {
		keys[i] = mapping.KeyringKey
	}
	return keys
}

// Validate checks the configuration before the daemon starts.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}

	switch c.LLM.Provider {
	case "", "anthropic":
		if c.LLM.AnthropicAPIKey == "" {
			return fmt.Errorf("anthropic API key is required (set via --anthropic-key, ANTHROPIC_API_KEY, or 'nyxd config set-key anthropic_api_key')")
		}
	case "bedrock":
		if c.LLM.BedrockRegion == "" {
			return fmt.Errorf("bedrock region is required (set llm.bedrock_region or --bedrock-region)")
		}
	default:
		return fmt.Errorf("unsupported llm.provider: %s (supported: anthropic, bedrock)", c.LLM.Provider)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

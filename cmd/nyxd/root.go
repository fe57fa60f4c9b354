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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nyx-labs/nyx/internal/version"
	nyxconfig "github.com/nyx-labs/nyx/pkg/config"
)

var (
	cfgFile string
	config  *Config
)

var rootCmd = &cobra.Command{
	Use:     "nyxd",
	Short:   "Nyx - autonomous agent orchestration runtime",
	Long:    `Nyx (nyxd) runs an autonomous LLM agent orchestrator with recursive task decomposition, a motivational scheduler, and a REST + SSE API.`,
	Version: version.Get(),
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $NYX_DATA_DIR/nyxd.yaml)")

	// Server flags
	rootCmd.PersistentFlags().String("host", "127.0.0.1", "HTTP server host")
	rootCmd.PersistentFlags().Int("port", 8420, "HTTP server port")

	// LLM flags
	rootCmd.PersistentFlags().String("llm-provider", "anthropic", "LLM provider (anthropic, bedrock)")
	rootCmd.PersistentFlags().String("anthropic-key", "", "Anthropic API key (or use keyring/env)")
	rootCmd.PersistentFlags().String("anthropic-model", "claude-sonnet-4-5", "Anthropic model")
	rootCmd.PersistentFlags().String("bedrock-region", "us-west-2", "AWS Bedrock region")
	rootCmd.PersistentFlags().Float64("temperature", 1.0, "LLM temperature")
	rootCmd.PersistentFlags().Int("max-tokens", 4096, "Maximum tokens per request")

	// Database flags
	defaultDBPath := filepath.Join(nyxconfig.GetDataDir(), "nyx.db")
	rootCmd.PersistentFlags().String("db", defaultDBPath, "SQLite database path")

	// Motivational engine flags
	defaultDrivesPath := filepath.Join(nyxconfig.GetDataDir(), "drives.yaml")
	rootCmd.PersistentFlags().Bool("engine-enabled", false, "Enable the motivational engine")
	rootCmd.PersistentFlags().String("drives", defaultDrivesPath, "Drive seed file (YAML)")

	// Tool flags
	rootCmd.PersistentFlags().Bool("allow-write-tools", false, "Allow file-writing builtin tools")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	_ = viper.BindPFlag("server.host", rootCmd.PersistentFlags().Lookup("host"))
	_ = viper.BindPFlag("server.port", rootCmd.PersistentFlags().Lookup("port"))

	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.anthropic_api_key", rootCmd.PersistentFlags().Lookup("anthropic-key"))
	_ = viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("anthropic-model"))
	_ = viper.BindPFlag("llm.bedrock_region", rootCmd.PersistentFlags().Lookup("bedrock-region"))
	_ = viper.BindPFlag("llm.temperature", rootCmd.PersistentFlags().Lookup("temperature"))
	_ = viper.BindPFlag("llm.max_tokens", rootCmd.PersistentFlags().Lookup("max-tokens"))

	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))

	_ = viper.BindPFlag("engine.enabled", rootCmd.PersistentFlags().Lookup("engine-enabled"))
	_ = viper.BindPFlag("engine.drives", rootCmd.PersistentFlags().Lookup("drives"))

	_ = viper.BindPFlag("tools.allow_writes", rootCmd.PersistentFlags().Lookup("allow-write-tools"))

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var err error
	config, err = LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
}

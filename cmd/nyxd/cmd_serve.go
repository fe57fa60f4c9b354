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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/internal/log"
	"github.com/nyx-labs/nyx/pkg/runtime"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Nyx daemon",
	Long: heredoc.Doc(`
		Start the Nyx daemon.

		The daemon will:
		- Open the SQLite store and recover records left by a previous crash
		- Initialize the configured LLM provider and prompt cache
		- Start the motivational engine (if enabled)
		- Serve the REST + SSE API on the configured host and port

		Press Ctrl+C to gracefully shutdown.`),
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.Configure(config.Logging.Level, config.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	logger.Info("Starting Nyx daemon", zap.String("version", rootCmd.Version))
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Info("Config file loaded", zap.String("path", used))
	} else {
		logger.Info("No config file found, using defaults + environment + flags")
	}

	ctx := context.Background()
	rtCfg := config.Runtime()
	rtCfg.Logger = logger

	rt, err := runtime.New(ctx, rtCfg)
	if err != nil {
		logger.Fatal("Failed to build runtime", zap.Error(err))
	}

	if err := rt.Start(ctx); err != nil {
		logger.Fatal("Failed to start runtime", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-rt.ServeErr():
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := rt.Stop(stopCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
		os.Exit(1)
	}
}

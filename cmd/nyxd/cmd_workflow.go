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
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/internal/log"
	"github.com/nyx-labs/nyx/pkg/runtime"
	"github.com/nyx-labs/nyx/pkg/types"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Run workflows from the command line",
}

var workflowRunCmd = &cobra.Command{
	Use:   "run \"<prompt>\"",
	Short: "Execute a single workflow and print the result",
	Long: heredoc.Doc(`
		Execute one workflow end to end without starting the daemon.

		The prompt is classified, scored for complexity, and dispatched
		through the same orchestration path the daemon uses. The result
		is printed to stdout with token usage and cost.

		Examples:
		  nyxd workflow run "Summarize the tradeoffs of WAL mode in SQLite"
		  nyxd workflow run --priority high "Draft a release announcement"`),
	Args: cobra.ExactArgs(1),
	Run:  runWorkflowRun,
}

func init() {
	rootCmd.AddCommand(workflowCmd)
	workflowCmd.AddCommand(workflowRunCmd)

	workflowRunCmd.Flags().String("priority", "medium", "Workflow priority (low, medium, high, critical)")
	workflowRunCmd.Flags().Duration("timeout", 30*time.Minute, "Workflow execution timeout")
}

func parsePriority(s string) (types.Priority, error) {
	switch s {
	case "low":
		return types.PriorityLow, nil
	case "", "medium":
		return types.PriorityMedium, nil
	case "high":
		return types.PriorityHigh, nil
	case "critical":
		return types.PriorityCritical, nil
	default:
		return "", fmt.Errorf("unknown priority: %s (low, medium, high, critical)", s)
	}
}

func runWorkflowRun(cmd *cobra.Command, args []string) {
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
		os.Exit(1)
	}

	priorityFlag, _ := cmd.Flags().GetString("priority")
	priority, err := parsePriority(priorityFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	logger, err := log.Configure(config.Logging.Level, config.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	rtCfg := config.Runtime()
	rtCfg.Logger = logger
	// One-shot runs never schedule autonomous work.
	rtCfg.Engine.Enabled = false

	rt, err := runtime.New(ctx, rtCfg)
	if err != nil {
		logger.Fatal("Failed to build runtime", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rt.Stop(stopCtx); err != nil {
			logger.Warn("Shutdown error", zap.Error(err))
		}
	}()

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := rt.Orchestrator().ExecuteWorkflow(execCtx, &types.WorkflowInput{
		Type:     types.InputUserPrompt,
		Content:  args[0],
		Priority: priority,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Workflow failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(result.Content)
	fmt.Fprintf(os.Stderr, "\nworkflow=%s strategy=%s subtasks=%d tokens=%d cost=$%.4f time=%dms\n",
		result.WorkflowID, result.StrategyUsed, result.SubtaskCount,
		result.Usage.TotalTokens, result.Usage.CostUSD, result.ExecutionTimeMs)

	if !result.Success {
		fmt.Fprintf(os.Stderr, "workflow did not succeed: %s\n", result.ErrorMessage)
		os.Exit(1)
	}
}

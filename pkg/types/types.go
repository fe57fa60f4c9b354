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

// Package types holds the shared vocabulary of the runtime: workflow
// inputs and results, agent and workflow lifecycle states, and token
// usage accounting. It has no dependencies on other nyx packages.
package types

import (
	"fmt"
	"time"
)

// InputType classifies where a workflow request came from and what shape
// its payload takes.
type InputType string

const (
	InputUserPrompt           InputType = "user_prompt"
	InputStructuredTask       InputType = "structured_task"
	InputGoalWorkflow         InputType = "goal_workflow"
	InputScheduledWorkflow    InputType = "scheduled_workflow"
	InputReactiveWorkflow     InputType = "reactive_workflow"
	InputContinuationWorkflow InputType = "continuation_workflow"
)

// InputTypes lists every valid input type, in taxonomy order.
func InputTypes() []InputType {
	return []InputType{
		InputUserPrompt,
		InputStructuredTask,
		InputGoalWorkflow,
		InputScheduledWorkflow,
		InputReactiveWorkflow,
		InputContinuationWorkflow,
	}
}

// Valid reports whether t is a known input type.
func (t InputType) Valid() bool {
	for _, known := range InputTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Priority expresses how urgent a workflow is to its submitter.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Strategy is the execution shape chosen for a workflow.
type Strategy string

const (
	StrategyDirect     Strategy = "direct_execution"
	StrategySequential Strategy = "sequential_decomposition"
	StrategyParallel   Strategy = "parallel_execution"
	StrategyRecursive  Strategy = "recursive_decomposition"
	StrategyCouncil    Strategy = "council_driven"
	StrategyIterative  Strategy = "iterative_refinement"
)

// Strategies lists every selectable strategy.
func Strategies() []Strategy {
	return []Strategy{
		StrategyDirect,
		StrategySequential,
		StrategyParallel,
		StrategyRecursive,
		StrategyCouncil,
		StrategyIterative,
	}
}

// WorkflowInput is one request for the top-level orchestrator. Exactly one
// of these exists per workflow, whether it arrived over HTTP or was
// generated by the motivational engine.
type WorkflowInput struct {
	ID          string    `json:"id,omitempty"`
	Type        InputType `json:"type"`
	Content     string    `json:"content"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Priority    Priority  `json:"priority,omitempty"`

	// Structured/goal workflow fields.
	Deliverables    []string `json:"deliverables,omitempty"`
	SuccessCriteria []string `json:"success_criteria,omitempty"`

	// Quality and budget controls.
	RequireCouncilConsensus bool    `json:"require_council_consensus,omitempty"`
	ValidationLevel         string  `json:"validation_level,omitempty"`
	OptimizationFocus       string  `json:"optimization_focus,omitempty"` // "speed" | "quality"
	MaxCostUSD              float64 `json:"max_cost_usd,omitempty"`
	MaxDurationMinutes      int     `json:"max_duration_minutes,omitempty"`

	// Context carries inherited key/values (resource constraints, quality
	// settings) for sub-orchestrators.
	Context  map[string]interface{} `json:"context,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Validate checks the minimum shape of an input before execution.
func (w *WorkflowInput) Validate() error {
	if w.Content == "" && w.Description == "" {
		return fmt.Errorf("workflow input requires content or description")
	}
	if w.Type != "" && !w.Type.Valid() {
		return fmt.Errorf("unknown input type: %s", w.Type)
	}
	return nil
}

// WorkflowResult is the top-level outcome of a workflow. Metadata carries
// the complexity analysis, resource estimate, and final monitoring
// snapshot for callers that want them.
type WorkflowResult struct {
	WorkflowID      string                 `json:"workflow_id"`
	Success         bool                   `json:"success"`
	Content         string                 `json:"content"`
	StrategyUsed    Strategy               `json:"strategy_used"`
	SubtaskCount    int                    `json:"subtask_count"`
	Usage           Usage                  `json:"usage"`
	ExecutionTimeMs int64                  `json:"execution_time_ms"`
	ErrorMessage    string                 `json:"error_message,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	Timestamp       time.Time              `json:"timestamp"`
}

// AgentKind discriminates agent specializations.
type AgentKind string

const (
	AgentTask          AgentKind = "task"
	AgentCouncil       AgentKind = "council"
	AgentValidator     AgentKind = "validator"
	AgentMemory        AgentKind = "memory"
	AgentSocialMonitor AgentKind = "social_monitor"
)

// AgentState is one node of the agent lifecycle state machine.
type AgentState string

const (
	StateSpawned      AgentState = "spawned"
	StateActive       AgentState = "active"
	StateWaiting      AgentState = "waiting"
	StateCoordinating AgentState = "coordinating"
	StateCompleted    AgentState = "completed"
	StateFailed       AgentState = "failed"
	StateTerminated   AgentState = "terminated"
)

// legalTransitions encodes the lifecycle graph. Execute is valid from
// active, waiting, and coordinating, so terminal exits are reachable from
// all three working states; the lateral edges are exactly
// active→waiting→coordinating→active.
var legalTransitions = map[AgentState][]AgentState{
	StateSpawned:      {StateActive, StateTerminated},
	StateActive:       {StateWaiting, StateCompleted, StateFailed, StateTerminated},
	StateWaiting:      {StateCoordinating, StateCompleted, StateFailed, StateTerminated},
	StateCoordinating: {StateActive, StateCompleted, StateFailed, StateTerminated},
	StateCompleted:    {},
	StateFailed:       {},
	StateTerminated:   {},
}

// CanTransitionTo reports whether moving from s to next is a legal edge.
func (s AgentState) CanTransitionTo(next AgentState) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is a terminal lifecycle state.
func (s AgentState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTerminated
}

// CanExecute reports whether an agent in state s may run Execute.
func (s AgentState) CanExecute() bool {
	return s == StateActive || s == StateWaiting || s == StateCoordinating
}

// TreeStatus is the lifecycle of a thought tree (one workflow record).
type TreeStatus string

const (
	TreePending    TreeStatus = "pending"
	TreeInProgress TreeStatus = "in_progress"
	TreeCompleted  TreeStatus = "completed"
	TreeFailed     TreeStatus = "failed"
	TreeCancelled  TreeStatus = "cancelled"
)

// IsTerminal reports whether the tree reached a final status.
func (s TreeStatus) IsTerminal() bool {
	return s == TreeCompleted || s == TreeFailed || s == TreeCancelled
}

// MotivationalTaskStatus tracks an engine-spawned workflow.
type MotivationalTaskStatus string

const (
	TaskGenerated MotivationalTaskStatus = "generated"
	TaskQueued    MotivationalTaskStatus = "queued"
	TaskSpawned   MotivationalTaskStatus = "spawned"
	TaskActive    MotivationalTaskStatus = "active"
	TaskCompleted MotivationalTaskStatus = "completed"
	TaskFailed    MotivationalTaskStatus = "failed"
	TaskCancelled MotivationalTaskStatus = "cancelled"
)

// IsTerminal reports whether the task reached a final status.
func (s MotivationalTaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// Usage tracks token consumption and cost for one call or an aggregate.
type Usage struct {
	InputTokens              int     `json:"input_tokens"`
	OutputTokens             int     `json:"output_tokens"`
	CacheCreationInputTokens int     `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int     `json:"cache_read_input_tokens,omitempty"`
	TotalTokens              int     `json:"total_tokens"`
	CostUSD                  float64 `json:"cost_usd"`
	CostWithoutCacheUSD      float64 `json:"cost_without_cache_usd,omitempty"`
}

// Add accumulates other into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
	u.TotalTokens += other.TotalTokens
	u.CostUSD += other.CostUSD
	u.CostWithoutCacheUSD += other.CostWithoutCacheUSD
}

// CacheHit reports whether the provider served any prefix from cache.
func (u Usage) CacheHit() bool {
	return u.CacheReadInputTokens > 0
}

// AgentResult is the outcome of one agent execution.
type AgentResult struct {
	AgentID    string                 `json:"agent_id"`
	Success    bool                   `json:"success"`
	Content    string                 `json:"content"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Usage      Usage                  `json:"usage"`
	DurationMs int64                  `json:"duration_ms"`
	Retries    int                    `json:"retries"`
}

// OrchestratorResult is the outcome of a sub-orchestrator run.
type OrchestratorResult struct {
	OrchestratorID    string   `json:"orchestrator_id"`
	Success           bool     `json:"success"`
	Content           string   `json:"content"`
	StrategyUsed      Strategy `json:"strategy_used"`
	Depth             int      `json:"depth"`
	SubtasksCompleted int      `json:"subtasks_completed"`
	SubtasksFailed    int      `json:"subtasks_failed"`
	AgentsSpawned     int      `json:"agents_spawned"`
	Usage             Usage    `json:"usage"`
	ErrorMessage      string   `json:"error_message,omitempty"`
	DurationMs        int64    `json:"duration_ms"`
}

// ExecutionStage labels a progress event within a workflow.
type ExecutionStage string

const (
	StageClassifying ExecutionStage = "classifying"
	StagePlanning    ExecutionStage = "planning"
	StageExecuting   ExecutionStage = "executing"
	StageSynthesis   ExecutionStage = "synthesis"
	StageCompleted   ExecutionStage = "completed"
	StageFailed      ExecutionStage = "failed"
)

// ProgressEvent is emitted at phase boundaries and agent completions; the
// HTTP layer streams them to subscribers.
type ProgressEvent struct {
	WorkflowID string                 `json:"workflow_id"`
	Stage      ExecutionStage         `json:"stage"`
	Message    string                 `json:"message"`
	Percent    float64                `json:"percent"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ProgressFunc receives progress events. Implementations must not block.
type ProgressFunc func(ProgressEvent)

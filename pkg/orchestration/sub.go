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
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/pkg/agent"
	"github.com/nyx-labs/nyx/pkg/observability"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

// DefaultMaxDepth bounds recursive decomposition.
const DefaultMaxDepth = 3

// Subtask execution strategies reported by the sub-orchestrator.
const (
	SubStrategySequential = types.Strategy("sequential")
	SubStrategyParallel   = types.Strategy("parallel")
	SubStrategyDependency = types.Strategy("dependency_ordered")
)

// DecompositionTask is the work a sub-orchestrator receives.
type DecompositionTask struct {
	Title         string
	Description   string
	ThoughtTreeID string

	// CurrentDepth is the depth this sub-orchestrator operates at.
	CurrentDepth int
}

// SubConfig configures a sub-orchestrator.
type SubConfig struct {
	Task DecompositionTask

	// ParentID links to the spawning orchestrator's record.
	ParentID string

	// Parent receives the cost roll-up when non-nil. Agent counts are
	// never merged.
	Parent *Base

	// MaxDepth refuses decomposition at or beyond this depth. Defaults
	// to 3.
	MaxDepth int

	// MaxSubtasks caps the plan. Defaults to 5.
	MaxSubtasks int

	// Inherited carries resource constraints and quality settings from
	// the parent context.
	Inherited map[string]interface{}

	MaxConcurrentAgents int
	Store               Store
	Factory             RunnerFactory
	Logger              *zap.Logger
	Tracer              observability.Tracer
}

// Sub decomposes one task into subtasks and executes them with a
// strategy picked from the plan's shape.
type Sub struct {
	base        *Base
	task        DecompositionTask
	maxDepth    int
	maxSubtasks int
	parent      *Base
	inherited   map[string]interface{}
	logger      *zap.Logger
}

// NewSub validates the guards and builds a sub-orchestrator. It refuses
// a task at or beyond max depth, or one missing title, description, or
// thought tree id.
func NewSub(cfg SubConfig) (*Sub, error) {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MaxSubtasks <= 0 {
		cfg.MaxSubtasks = DefaultMaxSubtasks
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	if cfg.Task.CurrentDepth >= cfg.MaxDepth {
		return nil, types.Errorf(types.ErrValidation,
			"decomposition depth %d has reached the maximum %d",
			cfg.Task.CurrentDepth, cfg.MaxDepth)
	}
	if cfg.Task.Title == "" || cfg.Task.Description == "" || cfg.Task.ThoughtTreeID == "" {
		return nil, types.Errorf(types.ErrValidation,
			"decomposition task requires title, description, and thought_tree_id")
	}

	base := NewBase(Config{
		ParentID:            cfg.ParentID,
		ThoughtTreeID:       cfg.Task.ThoughtTreeID,
		Type:                storage.OrchestratorSub,
		Goal:                cfg.Task.Title,
		Depth:               cfg.Task.CurrentDepth + 1,
		MaxConcurrentAgents: cfg.MaxConcurrentAgents,
		Store:               cfg.Store,
		Factory:             cfg.Factory,
		Logger:              cfg.Logger,
		Tracer:              cfg.Tracer,
	})
	return &Sub{
		base:        base,
		task:        cfg.Task,
		maxDepth:    cfg.MaxDepth,
		maxSubtasks: cfg.MaxSubtasks,
		parent:      cfg.Parent,
		inherited:   cfg.Inherited,
		logger:      base.logger,
	}, nil
}

// Base exposes the underlying arena, mainly for status reads.
func (s *Sub) Base() *Base { return s.base }

// Execute runs the full decomposition pipeline: plan, pick a strategy,
// execute, synthesize, report.
func (s *Sub) Execute(ctx context.Context) *types.OrchestratorResult {
	start := time.Now()
	if err := s.base.Initialize(ctx); err != nil {
		return s.failure(fmt.Sprintf("initialization failed: %v", err), start)
	}

	plan := s.plan(ctx)
	strategy := pickSubStrategy(plan)
	s.logger.Info("decomposition planned",
		zap.Int("subtasks", len(plan.Subtasks)),
		zap.String("strategy", string(strategy)))

	var results []*types.AgentResult
	switch strategy {
	case SubStrategyDependency:
		results, strategy = s.executeDependencyOrdered(ctx, plan)
	case SubStrategySequential:
		results = s.executeSequential(ctx, plan.Subtasks)
	default:
		results = s.executeParallel(ctx, plan.Subtasks)
	}

	content := s.synthesize(ctx, results)
	completed, failed := tally(results)

	// Cost rolls up to the parent; agent counts stay local.
	if s.parent != nil {
		s.parent.absorbUsage(s.base.Usage())
	}

	s.base.Terminate(ctx, "decomposition complete")
	return &types.OrchestratorResult{
		OrchestratorID:    s.base.ID(),
		Success:           failed == 0 && completed > 0,
		Content:           content,
		StrategyUsed:      strategy,
		Depth:             s.base.Depth(),
		SubtasksCompleted: completed,
		SubtasksFailed:    failed,
		AgentsSpawned:     s.base.Status().SpawnedAgents,
		Usage:             s.base.Usage(),
		DurationMs:        time.Since(start).Milliseconds(),
	}
}

// plan asks a decomposition-analysis agent for subtasks; any failure
// falls back to the trivial single-subtask plan.
func (s *Sub) plan(ctx context.Context) *Plan {
	planner := s.base.SpawnAgent(ctx, types.AgentTask, nil)
	if planner == nil {
		return trivialPlan(s.task.Title, s.task.Description)
	}
	result := planner.Execute(ctx, map[string]interface{}{
		"task_type": agent.TaskDecompositionAnalysis,
		"content":   planPrompt(s.task.Title, s.task.Description, s.maxSubtasks),
	})
	s.base.TrackAgentCompletion(ctx, planner, result)

	if !result.Success {
		s.logger.Warn("decomposition analysis failed, using trivial plan",
			zap.String("error", result.Error))
		return trivialPlan(s.task.Title, s.task.Description)
	}
	plan, err := parsePlan(result.Content, s.maxSubtasks)
	if err != nil {
		s.logger.Warn("decomposition plan rejected, using trivial plan", zap.Error(err))
		return trivialPlan(s.task.Title, s.task.Description)
	}
	return plan
}

// pickSubStrategy: dependencies force ordering, two or fewer subtasks
// run sequentially, anything larger runs parallel.
func pickSubStrategy(plan *Plan) types.Strategy {
	switch {
	case plan.HasDependencies():
		return SubStrategyDependency
	case len(plan.Subtasks) <= 2:
		return SubStrategySequential
	default:
		return SubStrategyParallel
	}
}

// executeSequential runs subtasks in declared order, feeding each
// successful output into the next subtask's context.
func (s *Sub) executeSequential(ctx context.Context, subtasks []Subtask) []*types.AgentResult {
	var (
		results []*types.AgentResult
		prior   strings.Builder
	)
	for _, sub := range subtasks {
		results = append(results, s.runSubtask(ctx, sub, prior.String()))
		last := results[len(results)-1]
		if last.Success {
			fmt.Fprintf(&prior, "## %s\n%s\n\n", sub.Title, last.Content)
		}
	}
	return results
}

// executeParallel runs subtasks in batches bounded by free agent slots,
// joining each batch with all-settled semantics.
func (s *Sub) executeParallel(ctx context.Context, subtasks []Subtask) []*types.AgentResult {
	results := make([]*types.AgentResult, 0, len(subtasks))
	remaining := subtasks
	for len(remaining) > 0 {
		batch := s.spawnBatch(ctx, remaining, "")
		if len(batch.assignments) == 0 {
			// Could not spawn anything: fail the head and move on so the
			// loop always terminates.
			results = append(results, &types.AgentResult{
				Success: false,
				Error:   fmt.Sprintf("could not spawn agent for subtask %s", remaining[0].ID),
			})
			remaining = remaining[1:]
			continue
		}
		results = append(results, s.base.Coordinate(ctx, batch.assignments)...)
		remaining = remaining[batch.consumed:]
	}
	return results
}

type batch struct {
	assignments []Assignment
	consumed    int
}

// spawnBatch spawns agents for as many leading subtasks as the quota
// allows.
func (s *Sub) spawnBatch(ctx context.Context, subtasks []Subtask, priorContext string) batch {
	var b batch
	for _, sub := range subtasks {
		ag := s.base.SpawnAgent(ctx, types.AgentTask, nil)
		if ag == nil {
			break
		}
		b.assignments = append(b.assignments, Assignment{
			Agent: ag,
			Input: subtaskInput(sub, priorContext),
		})
		b.consumed++
	}
	return b
}

// executeDependencyOrdered runs topological levels concurrently. A cycle
// or dangling reference falls back to sequential execution in declared
// order.
func (s *Sub) executeDependencyOrdered(ctx context.Context, plan *Plan) ([]*types.AgentResult, types.Strategy) {
	levels, ok := topologicalLevels(plan.Subtasks)
	if !ok {
		s.logger.Warn("dependency graph has a cycle, falling back to sequential")
		return s.executeSequential(ctx, plan.Subtasks), SubStrategySequential
	}

	outputs := make(map[string]string)
	var results []*types.AgentResult
	for _, level := range levels {
		assignments := make([]Assignment, 0, len(level))
		var pending []Subtask
		for _, sub := range level {
			ag := s.base.SpawnAgent(ctx, types.AgentTask, nil)
			if ag == nil {
				pending = append(pending, sub)
				continue
			}
			assignments = append(assignments, Assignment{
				Agent: ag,
				Input: subtaskInput(sub, dependencyContext(sub, outputs)),
			})
		}
		levelResults := s.base.Coordinate(ctx, assignments)
		for i, r := range levelResults {
			if r.Success {
				outputs[level[i].ID] = r.Content
			}
		}
		results = append(results, levelResults...)

		// Quota spill-over runs sequentially after the batch.
		for _, sub := range pending {
			r := s.runSubtask(ctx, sub, dependencyContext(sub, outputs))
			if r.Success {
				outputs[sub.ID] = r.Content
			}
			results = append(results, r)
		}
	}
	return results, SubStrategyDependency
}

// runSubtask spawns one task agent, executes the subtask, and tracks the
// completion.
func (s *Sub) runSubtask(ctx context.Context, sub Subtask, priorContext string) *types.AgentResult {
	ag := s.base.SpawnAgent(ctx, types.AgentTask, nil)
	if ag == nil {
		return &types.AgentResult{
			Success: false,
			Error:   fmt.Sprintf("could not spawn agent for subtask %s", sub.ID),
		}
	}
	result := ag.Execute(ctx, subtaskInput(sub, priorContext))
	s.base.TrackAgentCompletion(ctx, ag, result)
	return result
}

func subtaskInput(sub Subtask, priorContext string) map[string]interface{} {
	input := map[string]interface{}{
		"task_type": agent.TaskSubtaskExecution,
		"title":     sub.Title,
		"content":   sub.Description,
	}
	if priorContext != "" {
		input["context"] = priorContext
	}
	return input
}

// dependencyContext concatenates the outputs of a subtask's completed
// dependencies.
func dependencyContext(sub Subtask, outputs map[string]string) string {
	var b strings.Builder
	for _, dep := range sub.Dependencies {
		if out, ok := outputs[dep]; ok {
			fmt.Fprintf(&b, "## Output of %s\n%s\n\n", dep, out)
		}
	}
	return b.String()
}

// synthesize summarizes successful outputs through a memory agent,
// falling back to concatenation.
func (s *Sub) synthesize(ctx context.Context, results []*types.AgentResult) string {
	var successes []string
	for _, r := range results {
		if r.Success && r.Content != "" {
			successes = append(successes, r.Content)
		}
	}
	if len(successes) == 0 {
		return ""
	}
	joined := strings.Join(successes, "\n\n---\n\n")
	if len(successes) == 1 {
		return joined
	}

	mem := s.base.SpawnAgent(ctx, types.AgentMemory, nil)
	if mem == nil {
		return joined
	}
	result := mem.Execute(ctx, map[string]interface{}{
		"operation": "summarize",
		"content":   joined,
	})
	s.base.TrackAgentCompletion(ctx, mem, result)
	if !result.Success || result.Content == "" {
		return joined
	}
	return result.Content
}

func (s *Sub) failure(message string, start time.Time) *types.OrchestratorResult {
	return &types.OrchestratorResult{
		OrchestratorID: s.base.ID(),
		Success:        false,
		ErrorMessage:   message,
		Depth:          s.base.Depth(),
		DurationMs:     time.Since(start).Milliseconds(),
	}
}

func tally(results []*types.AgentResult) (completed, failed int) {
	for _, r := range results {
		if r.Success {
			completed++
		} else {
			failed++
		}
	}
	return completed, failed
}

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
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/pkg/agent"
	"github.com/nyx-labs/nyx/pkg/observability"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

const (
	// maxSequentialSubtasks bounds sequential decomposition.
	maxSequentialSubtasks = 5
	// maxParallelSubtasks bounds parallel decomposition.
	maxParallelSubtasks = 6
	// maxIterations bounds iterative refinement.
	maxIterations = 3
	// highFailureRate flips execution to conservative settings.
	highFailureRate = 0.3
	// maxWorkflowHistory caps the in-memory workflow registry. Finished
	// workflows past the cap are evicted oldest first; their trees stay
	// queryable from the store.
	maxWorkflowHistory = 256
)

// TopLevelConfig configures the workflow entry point.
type TopLevelConfig struct {
	Store   Store
	Factory RunnerFactory

	MaxConcurrentAgents int
	MaxDepth            int
	MaxSubtasks         int

	Budget Budget

	// Adapter is the optional learning adapter. Nil falls back to the
	// rule triggers.
	Adapter LearningAdapter

	// Progress receives workflow events; the HTTP layer streams them.
	Progress types.ProgressFunc

	AgentMaxRetries int
	AttemptTimeout  time.Duration

	Logger *zap.Logger
	Tracer observability.Tracer
}

// WorkflowStatus is the externally visible view of one workflow.
type WorkflowStatus struct {
	WorkflowID string                `json:"workflow_id"`
	Input      *types.WorkflowInput  `json:"input"`
	Monitoring MonitoringState       `json:"monitoring"`
	Result     *types.WorkflowResult `json:"result,omitempty"`
	Active     bool                  `json:"active"`
}

type workflowHandle struct {
	input   *types.WorkflowInput
	monitor *monitor
	result  *types.WorkflowResult
}

// TopLevel classifies inputs, scores complexity, selects a strategy,
// and dispatches workflow execution. One TopLevel serves the whole
// process; each workflow gets its own agent arena.
type TopLevel struct {
	cfg    TopLevelConfig
	logger *zap.Logger
	tracer observability.Tracer

	mu        sync.Mutex
	workflows map[string]*workflowHandle
	order     []string
	observed  int
}

// NewTopLevel builds the workflow entry point.
func NewTopLevel(cfg TopLevelConfig) *TopLevel {
	if cfg.MaxConcurrentAgents <= 0 {
		cfg.MaxConcurrentAgents = DefaultMaxConcurrentAgents
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MaxSubtasks <= 0 {
		cfg.MaxSubtasks = DefaultMaxSubtasks
	}
	if cfg.Budget.MaxAgents <= 0 {
		cfg.Budget = DefaultBudget()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NewNoOpTracer()
	}
	return &TopLevel{
		cfg:       cfg,
		logger:    cfg.Logger.Named("orchestrator"),
		tracer:    cfg.Tracer,
		workflows: make(map[string]*workflowHandle),
	}
}

// ExecuteWorkflow runs one workflow end to end and returns its result.
// The workflow id doubles as the thought tree id.
func (t *TopLevel) ExecuteWorkflow(ctx context.Context, input *types.WorkflowInput) (*types.WorkflowResult, error) {
	if err := input.Validate(); err != nil {
		return nil, types.Errorf(types.ErrValidation, "invalid workflow input: %v", err)
	}
	if input.Type == "" {
		input.Type = types.InputUserPrompt
	}
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	workflowID := input.ID

	spanCtx, span := t.tracer.StartSpan(ctx, "workflow.execute",
		observability.WithAttribute("workflow_id", workflowID))
	defer t.tracer.EndSpan(span)

	mon := newMonitor(workflowID, t.cfg.Progress)
	handle := &workflowHandle{input: input, monitor: mon}
	t.register(workflowID, handle)

	start := time.Now()
	result := t.execute(spanCtx, input, mon)
	result.WorkflowID = workflowID
	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	result.Timestamp = time.Now().UTC()

	t.mu.Lock()
	handle.result = result
	t.observed++
	t.mu.Unlock()

	if t.cfg.Adapter != nil {
		t.cfg.Adapter.ObserveOutcome(ctx, input, result)
	}
	return result, nil
}

func (t *TopLevel) execute(ctx context.Context, input *types.WorkflowInput, mon *monitor) *types.WorkflowResult {
	workflowID := input.ID
	budget := t.budgetFor(input)

	// Classify.
	mon.phase(types.StageClassifying, 5, "analyzing complexity")
	analysis := AnalyzeComplexity(input)
	t.mu.Lock()
	observed := t.observed
	t.mu.Unlock()
	estimate := EstimateResources(analysis, budget, observed)
	for _, warning := range estimate.Warnings {
		mon.addRisk(warning)
	}

	timeTight := budget.MaxDurationMinutes > 0 &&
		float64(estimate.DurationMinutes) >= 0.8*float64(budget.MaxDurationMinutes)
	strategy, reason := SelectStrategy(ctx, input, analysis, t.cfg.Adapter, timeTight)
	if kind := requestedAgentKind(input); kind != types.AgentTask {
		// A dedicated specialization runs as a single agent.
		strategy, reason = types.StrategyDirect, fmt.Sprintf("input requests a %s agent", kind)
	}
	mon.setStrategy(strategy)
	t.logger.Info("strategy selected",
		zap.String("workflow_id", workflowID),
		zap.String("strategy", string(strategy)),
		zap.String("overall_complexity", string(analysis.Overall)),
		zap.String("reason", reason))

	// Plan and execute.
	mon.phase(types.StagePlanning, 15, reason)
	base := NewBase(Config{
		ThoughtTreeID:       workflowID,
		Type:                storage.OrchestratorTopLevel,
		Goal:                workflowGoal(input),
		Depth:               1,
		MaxConcurrentAgents: t.cfg.MaxConcurrentAgents,
		Store:               t.cfg.Store,
		Factory:             t.cfg.Factory,
		AgentMaxRetries:     t.cfg.AgentMaxRetries,
		AttemptTimeout:      t.cfg.AttemptTimeout,
		Logger:              t.logger,
		Tracer:              t.tracer,
	})
	if err := base.Initialize(ctx); err != nil {
		mon.phase(types.StageFailed, 100, "initialization failed")
		return t.failedResult(input, strategy, analysis, estimate, mon,
			fmt.Sprintf("orchestrator initialization failed: %v", err))
	}

	r := &run{
		top:         t,
		input:       input,
		base:        base,
		mon:         mon,
		budget:      budget,
		concurrency: t.cfg.MaxConcurrentAgents,
	}

	mon.phase(types.StageExecuting, 30, "executing "+string(strategy))
	var (
		content  string
		subtasks int
		execErr  error
	)
	switch strategy {
	case types.StrategyDirect:
		content, subtasks, execErr = r.direct(ctx)
	case types.StrategySequential:
		content, subtasks, execErr = r.sequential(ctx)
	case types.StrategyParallel:
		content, subtasks, execErr = r.parallel(ctx)
	case types.StrategyRecursive:
		content, subtasks, execErr = r.recursive(ctx)
	case types.StrategyCouncil:
		content, subtasks, execErr = r.council(ctx)
	case types.StrategyIterative:
		content, subtasks, execErr = r.iterative(ctx)
	default:
		execErr = types.Errorf(types.ErrValidation, "unknown strategy: %s", strategy)
	}
	mon.observe(base.Status())

	// Close out the arena and the tree.
	base.Terminate(ctx, "workflow finished")
	success := execErr == nil
	t.finishTree(ctx, workflowID, success)

	if !success {
		mon.phase(types.StageFailed, 100, execErr.Error())
		return t.failedResult(input, strategy, analysis, estimate, mon, execErr.Error())
	}

	mon.phase(types.StageCompleted, 100, "workflow completed")
	return &types.WorkflowResult{
		Success:      true,
		Content:      content,
		StrategyUsed: strategy,
		SubtaskCount: subtasks,
		Usage:        base.Usage(),
		Metadata: map[string]interface{}{
			"complexity":        analysis,
			"resource_estimate": estimate,
			"strategy_reason":   reason,
			"monitoring":        mon.snapshot(),
		},
	}
}

func (t *TopLevel) failedResult(input *types.WorkflowInput, strategy types.Strategy, analysis *ComplexityAnalysis, estimate *ResourceEstimate, mon *monitor, message string) *types.WorkflowResult {
	return &types.WorkflowResult{
		Success:      false,
		StrategyUsed: strategy,
		ErrorMessage: message,
		Metadata: map[string]interface{}{
			"complexity":        analysis,
			"resource_estimate": estimate,
			"monitoring":        mon.snapshot(),
		},
	}
}

func (t *TopLevel) finishTree(ctx context.Context, treeID string, success bool) {
	if t.cfg.Store == nil {
		return
	}
	status := types.TreeCompleted
	reason := ""
	if !success {
		status = types.TreeFailed
		reason = "workflow failed"
	}
	if err := t.cfg.Store.UpdateThoughtTreeStatus(ctx, treeID, status, reason); err != nil {
		t.logger.Warn("failed to finish thought tree",
			zap.String("tree_id", treeID), zap.Error(err))
	}
}

func (t *TopLevel) budgetFor(input *types.WorkflowInput) Budget {
	budget := t.cfg.Budget
	if input.MaxCostUSD > 0 {
		budget.MaxCostUSD = input.MaxCostUSD
	}
	if input.MaxDurationMinutes > 0 {
		budget.MaxDurationMinutes = input.MaxDurationMinutes
	}
	return budget
}

func (t *TopLevel) register(id string, handle *workflowHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.workflows[id] = handle
	t.order = append(t.order, id)
	t.evictLocked()
}

// evictLocked drops the oldest finished workflows once the registry
// exceeds the cap. Running workflows are never evicted. Caller holds
// t.mu.
func (t *TopLevel) evictLocked() {
	if len(t.workflows) <= maxWorkflowHistory {
		return
	}
	kept := t.order[:0]
	for _, id := range t.order {
		if len(t.workflows) > maxWorkflowHistory && t.workflows[id].result != nil {
			delete(t.workflows, id)
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
}

// WorkflowStatus returns the live or final view of one workflow.
func (t *TopLevel) WorkflowStatus(id string) (*WorkflowStatus, bool) {
	t.mu.Lock()
	handle, ok := t.workflows[id]
	t.mu.Unlock()
	if !ok {
		return nil, false
	}
	return &WorkflowStatus{
		WorkflowID: id,
		Input:      handle.input,
		Monitoring: handle.monitor.snapshot(),
		Result:     handle.result,
		Active:     handle.result == nil,
	}, true
}

// ActiveWorkflows pages through workflows still running, newest first.
func (t *TopLevel) ActiveWorkflows(limit, offset int) []*WorkflowStatus {
	if limit <= 0 {
		limit = 20
	}
	t.mu.Lock()
	var active []*WorkflowStatus
	for i := len(t.order) - 1; i >= 0; i-- {
		handle := t.workflows[t.order[i]]
		if handle.result != nil {
			continue
		}
		active = append(active, &WorkflowStatus{
			WorkflowID: t.order[i],
			Input:      handle.input,
			Monitoring: handle.monitor.snapshot(),
			Active:     true,
		})
	}
	t.mu.Unlock()

	if offset >= len(active) {
		return nil
	}
	active = active[offset:]
	if len(active) > limit {
		active = active[:limit]
	}
	return active
}

// run carries the per-workflow execution state across dispatch methods.
type run struct {
	top    *TopLevel
	input  *types.WorkflowInput
	base   *Base
	mon    *monitor
	budget Budget

	mu          sync.Mutex
	concurrency int
}

// direct runs one agent over the converted input. The agent kind
// defaults to task; drive-spawned workflows may request a dedicated
// specialization through their metadata.
func (r *run) direct(ctx context.Context) (string, int, error) {
	ag := r.base.SpawnAgent(ctx, requestedAgentKind(r.input), nil)
	if ag == nil {
		return "", 0, types.Errorf(types.ErrWorkflowExecution, "agent quota exhausted")
	}
	result := ag.Execute(ctx, directInput(r.input))
	r.base.TrackAgentCompletion(ctx, ag, result)
	r.mon.observe(r.base.Status())
	if !result.Success {
		return "", 0, types.Errorf(types.ErrWorkflowExecution, "direct execution failed: %s", result.Error)
	}
	// The single task agent is not a decomposed subtask.
	return result.Content, 0, nil
}

// sequential decomposes into at most five subtasks and runs them in
// order with accumulating context.
func (r *run) sequential(ctx context.Context) (string, int, error) {
	plan := r.decompose(ctx, minInt(r.top.cfg.MaxSubtasks, maxSequentialSubtasks))
	var (
		results []*types.AgentResult
		prior   strings.Builder
	)
	for _, sub := range plan.Subtasks {
		ag := r.base.SpawnAgent(ctx, types.AgentTask, nil)
		if ag == nil {
			results = append(results, &types.AgentResult{
				Success: false,
				Error:   fmt.Sprintf("could not spawn agent for subtask %s", sub.ID),
			})
			continue
		}
		result := ag.Execute(ctx, subtaskInput(sub, prior.String()))
		r.base.TrackAgentCompletion(ctx, ag, result)
		r.mon.observe(r.base.Status())
		r.adapt()
		if result.Success {
			fmt.Fprintf(&prior, "## %s\n%s\n\n", sub.Title, result.Content)
		}
		results = append(results, result)
	}
	return r.settle(ctx, results)
}

// parallel decomposes into at most six subtasks and runs them in
// batches bounded by free slots and the adaptive concurrency limit.
func (r *run) parallel(ctx context.Context) (string, int, error) {
	plan := r.decompose(ctx, minInt(r.top.cfg.MaxSubtasks+1, maxParallelSubtasks))
	var results []*types.AgentResult
	remaining := plan.Subtasks
	for len(remaining) > 0 {
		width := minInt(r.base.FreeSlots(), r.currentConcurrency())
		if width < 1 {
			width = 1
		}
		if width > len(remaining) {
			width = len(remaining)
		}

		var assignments []Assignment
		consumed := 0
		for _, sub := range remaining[:width] {
			ag := r.base.SpawnAgent(ctx, types.AgentTask, nil)
			if ag == nil {
				break
			}
			assignments = append(assignments, Assignment{Agent: ag, Input: subtaskInput(sub, "")})
			consumed++
		}
		if consumed == 0 {
			results = append(results, &types.AgentResult{
				Success: false,
				Error:   fmt.Sprintf("could not spawn agent for subtask %s", remaining[0].ID),
			})
			remaining = remaining[1:]
			continue
		}
		results = append(results, r.base.Coordinate(ctx, assignments)...)
		remaining = remaining[consumed:]
		r.mon.observe(r.base.Status())
		r.adapt()
	}
	return r.settle(ctx, results)
}

// recursive delegates to a sub-orchestrator, falling back to parallel
// execution when decomposition fails.
func (r *run) recursive(ctx context.Context) (string, int, error) {
	sub, err := NewSub(SubConfig{
		Task: DecompositionTask{
			Title:         workflowGoal(r.input),
			Description:   workflowContent(r.input),
			ThoughtTreeID: r.base.ThoughtTreeID(),
			CurrentDepth:  1,
		},
		ParentID:            r.base.ID(),
		Parent:              r.base,
		MaxDepth:            r.top.cfg.MaxDepth,
		MaxSubtasks:         r.top.cfg.MaxSubtasks,
		MaxConcurrentAgents: r.top.cfg.MaxConcurrentAgents,
		Store:               r.top.cfg.Store,
		Factory:             r.top.cfg.Factory,
		Logger:              r.top.logger,
		Tracer:              r.top.tracer,
	})
	if err != nil {
		r.top.logger.Warn("recursive decomposition refused, falling back to parallel", zap.Error(err))
		return r.parallel(ctx)
	}

	result := sub.Execute(ctx)
	r.mon.observe(r.base.Status())
	if !result.Success {
		r.top.logger.Warn("recursive decomposition failed, falling back to parallel",
			zap.String("error", result.ErrorMessage))
		return r.parallel(ctx)
	}
	return result.Content, result.SubtasksCompleted + result.SubtasksFailed, nil
}

// council deliberates first, then executes the recommendation in
// parallel.
func (r *run) council(ctx context.Context) (string, int, error) {
	councilAgent := r.base.SpawnAgent(ctx, types.AgentCouncil, nil)
	if councilAgent == nil {
		return "", 0, types.Errorf(types.ErrWorkflowExecution, "agent quota exhausted")
	}
	deliberation := councilAgent.Execute(ctx, map[string]interface{}{
		"content": workflowContent(r.input),
	})
	r.base.TrackAgentCompletion(ctx, councilAgent, deliberation)
	r.mon.observe(r.base.Status())
	if !deliberation.Success {
		return "", 1, types.Errorf(types.ErrWorkflowExecution, "council deliberation failed: %s", deliberation.Error)
	}

	recommendation := deliberation.Content
	if sections, ok := deliberation.Data["sections"].(map[string]string); ok {
		if rec := sections["recommendation"]; rec != "" {
			recommendation = rec
		}
	}

	// Execute the recommendation.
	followOn := &run{
		top: r.top,
		input: &types.WorkflowInput{
			Type:    types.InputStructuredTask,
			Title:   workflowGoal(r.input),
			Content: recommendation,
		},
		base:        r.base,
		mon:         r.mon,
		budget:      r.budget,
		concurrency: r.currentConcurrency(),
	}
	content, subtasks, err := followOn.parallel(ctx)
	if err != nil {
		return "", subtasks + 1, err
	}
	combined := fmt.Sprintf("## Council recommendation\n%s\n\n## Execution\n%s", recommendation, content)
	return combined, subtasks + 1, nil
}

// iterative refines the output over up to three passes; a validator
// gates each non-final continuation.
func (r *run) iterative(ctx context.Context) (string, int, error) {
	content := ""
	passes := 0
	for i := 0; i < maxIterations; i++ {
		ag := r.base.SpawnAgent(ctx, types.AgentTask, nil)
		if ag == nil {
			break
		}
		input := directInput(r.input)
		if content != "" {
			input["context"] = "Previous draft:\n" + content +
				"\n\nImprove the draft: fix weaknesses, add missing detail, tighten the result."
		}
		result := ag.Execute(ctx, input)
		r.base.TrackAgentCompletion(ctx, ag, result)
		r.mon.observe(r.base.Status())
		passes++
		if !result.Success {
			if content != "" {
				break
			}
			return "", passes, types.Errorf(types.ErrWorkflowExecution, "iterative refinement failed: %s", result.Error)
		}
		content = result.Content

		if i == maxIterations-1 {
			break
		}
		validator := r.base.SpawnAgent(ctx, types.AgentValidator, nil)
		if validator == nil {
			break
		}
		verdict := validator.Execute(ctx, map[string]interface{}{"content": content})
		r.base.TrackAgentCompletion(ctx, validator, verdict)
		r.mon.observe(r.base.Status())
		if passed, ok := verdict.Data["passed"].(bool); ok && passed {
			break
		}
	}
	if content == "" {
		return "", passes, types.Errorf(types.ErrWorkflowExecution, "iterative refinement produced no output")
	}
	return content, passes, nil
}

// decompose plans subtasks through a decomposition-analysis agent,
// falling back to the trivial plan.
func (r *run) decompose(ctx context.Context, maxSubtasks int) *Plan {
	title := workflowGoal(r.input)
	description := workflowContent(r.input)

	planner := r.base.SpawnAgent(ctx, types.AgentTask, nil)
	if planner == nil {
		return trivialPlan(title, description)
	}
	result := planner.Execute(ctx, map[string]interface{}{
		"task_type": agent.TaskDecompositionAnalysis,
		"content":   planPrompt(title, description, maxSubtasks),
	})
	r.base.TrackAgentCompletion(ctx, planner, result)
	r.mon.observe(r.base.Status())
	if !result.Success {
		return trivialPlan(title, description)
	}
	plan, err := parsePlan(result.Content, maxSubtasks)
	if err != nil {
		r.top.logger.Warn("decomposition plan rejected, using trivial plan", zap.Error(err))
		return trivialPlan(title, description)
	}
	return plan
}

// settle synthesizes the successful outputs; it fails only when nothing
// succeeded.
func (r *run) settle(ctx context.Context, results []*types.AgentResult) (string, int, error) {
	completed, failed := tally(results)
	if completed == 0 {
		return "", len(results), types.Errorf(types.ErrWorkflowExecution,
			"all %d subtasks failed", failed)
	}
	r.mon.phase(types.StageSynthesis, 85, "synthesizing results")

	var successes []string
	for _, res := range results {
		if res.Success && res.Content != "" {
			successes = append(successes, res.Content)
		}
	}
	joined := strings.Join(successes, "\n\n---\n\n")
	if len(successes) <= 1 {
		return joined, len(results), nil
	}

	mem := r.base.SpawnAgent(ctx, types.AgentMemory, nil)
	if mem == nil {
		return joined, len(results), nil
	}
	summary := mem.Execute(ctx, map[string]interface{}{
		"operation": "summarize",
		"content":   joined,
	})
	r.base.TrackAgentCompletion(ctx, mem, summary)
	if !summary.Success || summary.Content == "" {
		return joined, len(results), nil
	}
	return summary.Content, len(results), nil
}

// adapt applies the rule triggers between execution steps: cost
// pressure shrinks concurrency, time pressure grows it, and a high
// failure rate halves it outright.
func (r *run) adapt() {
	snapshot := r.mon.snapshot()

	if r.budget.MaxCostUSD > 0 && snapshot.CostConsumedUSD > 0.8*r.budget.MaxCostUSD {
		if r.shrinkConcurrency() {
			r.mon.addBottleneck("cost consumed over 80% of budget; concurrency reduced")
		}
	} else if r.budget.MaxDurationMinutes > 0 &&
		snapshot.ElapsedMinutes > 0.8*float64(r.budget.MaxDurationMinutes) {
		if r.growConcurrency() {
			r.mon.addBottleneck("elapsed time over 80% of budget; concurrency increased")
		}
	}

	if r.mon.failureRate() > highFailureRate {
		if r.shrinkConcurrency() {
			r.mon.addRisk("failure rate above 30%; switched to conservative execution")
		}
	}
}

func (r *run) currentConcurrency() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.concurrency
}

func (r *run) shrinkConcurrency() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.concurrency <= 1 {
		return false
	}
	r.concurrency /= 2
	return true
}

func (r *run) growConcurrency() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.concurrency >= r.top.cfg.MaxConcurrentAgents {
		return false
	}
	r.concurrency++
	return true
}

// directInput converts a workflow input into one task-agent call.
func directInput(input *types.WorkflowInput) map[string]interface{} {
	taskType := agent.TaskAnalysis
	switch input.Type {
	case types.InputUserPrompt:
		taskType = agent.TaskConversationalResponse
	case types.InputStructuredTask:
		taskType = agent.TaskSubtaskExecution
	}
	call := map[string]interface{}{
		"task_type": taskType,
		"content":   workflowContent(input),
	}
	if input.Title != "" {
		call["title"] = input.Title
	}
	return call
}

// requestedAgentKind honors an explicit agent_kind in input metadata.
// Motivational drives use it to route their workflows to dedicated
// specializations such as the social monitor.
func requestedAgentKind(input *types.WorkflowInput) types.AgentKind {
	if input.Metadata != nil {
		if kind, ok := input.Metadata["agent_kind"].(string); ok && kind != "" {
			return types.AgentKind(kind)
		}
	}
	return types.AgentTask
}

func workflowContent(input *types.WorkflowInput) string {
	if input.Content != "" {
		return input.Content
	}
	return input.Description
}

func workflowGoal(input *types.WorkflowInput) string {
	if input.Title != "" {
		return input.Title
	}
	content := workflowContent(input)
	// Truncate on runes so a multibyte character never splits.
	if runes := []rune(content); len(runes) > 80 {
		return string(runes[:80])
	}
	return content
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

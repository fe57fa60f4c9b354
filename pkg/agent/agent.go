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

// Package agent implements the worker agent lifecycle and the
// specializations orchestrators spawn: task, council, validator, and
// memory agents, plus the social monitor loop.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/pkg/llm"
	"github.com/nyx-labs/nyx/pkg/observability"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

const (
	// DefaultMaxRetries bounds per-execution retry attempts.
	DefaultMaxRetries = 2
	// DefaultAttemptTimeout bounds a single execution attempt.
	DefaultAttemptTimeout = 300 * time.Second
	// retryBase and retryCap bound the agent-level backoff.
	retryBase = 1 * time.Second
	retryCap  = 30 * time.Second
)

// LLMCaller is the slice of the LLM client specializations use. Tests
// substitute scripted fakes.
type LLMCaller interface {
	Call(ctx context.Context, req llm.CallRequest) (*llm.Result, error)
}

// Store is the persistence slice the agent runtime needs: agent
// snapshots on every transition and thought-tree auto-creation.
type Store interface {
	SaveAgent(ctx context.Context, record *storage.AgentRecord) error
	GetThoughtTree(ctx context.Context, id string) (*storage.ThoughtTree, error)
	SaveThoughtTree(ctx context.Context, tree *storage.ThoughtTree) error
}

// Runner is an agent specialization. The base agent owns the lifecycle
// and retry loop; the runner owns one attempt.
type Runner interface {
	// Kind returns the specialization discriminator.
	Kind() types.AgentKind

	// ClassName returns the concrete specialization name for records.
	ClassName() string

	// Run performs one execution attempt.
	Run(ctx context.Context, call Call) (*types.AgentResult, error)
}

// Call carries attempt context into a Runner.
type Call struct {
	AgentID       string
	ThoughtTreeID string
	Input         map[string]interface{}
}

// Config configures the base agent.
type Config struct {
	// ID defaults to a fresh UUID.
	ID string

	// ThoughtTreeID attaches the agent to a workflow record. When the
	// referenced tree is missing (or the id is empty) Initialize creates
	// a default tree.
	ThoughtTreeID string

	// SpawnedBy is the orchestrator or parent agent id.
	SpawnedBy string

	// Store persists lifecycle transitions. Optional.
	Store Store

	// MaxRetries bounds retry attempts per Execute. Defaults to 2.
	MaxRetries int

	// AttemptTimeout bounds one attempt. Defaults to 300s.
	AttemptTimeout time.Duration

	Logger *zap.Logger
	Tracer observability.Tracer
}

// Statistics is a snapshot of an agent's lifetime counters.
type Statistics struct {
	AgentID      string           `json:"agent_id"`
	Kind         types.AgentKind  `json:"kind"`
	State        types.AgentState `json:"state"`
	Executions   int              `json:"executions"`
	Successes    int              `json:"successes"`
	Failures     int              `json:"failures"`
	Retries      int              `json:"retries"`
	TotalTimeMs  int64            `json:"total_time_ms"`
	Usage        types.Usage      `json:"usage"`
	CreatedAt    time.Time        `json:"created_at"`
	LastActiveAt time.Time        `json:"last_active_at"`
}

// Agent is the lifecycle shell around one Runner. All state transitions
// go through transition(), which enforces the legal edge set and
// persists a snapshot.
type Agent struct {
	id            string
	thoughtTreeID string
	spawnedBy     string
	runner        Runner

	mu           sync.Mutex
	state        types.AgentState
	statusReason string
	stats        Statistics

	store          Store
	maxRetries     int
	attemptTimeout time.Duration
	logger         *zap.Logger
	tracer         observability.Tracer
	createdAt      time.Time
}

// New wraps a runner in a lifecycle shell. The agent starts in spawned.
func New(runner Runner, cfg Config) *Agent {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NewNoOpTracer()
	}

	now := time.Now().UTC()
	return &Agent{
		id:             cfg.ID,
		thoughtTreeID:  cfg.ThoughtTreeID,
		spawnedBy:      cfg.SpawnedBy,
		runner:         runner,
		state:          types.StateSpawned,
		store:          cfg.Store,
		maxRetries:     cfg.MaxRetries,
		attemptTimeout: cfg.AttemptTimeout,
		logger: cfg.Logger.With(
			zap.String("agent_id", cfg.ID),
			zap.String("agent_kind", string(runner.Kind()))),
		tracer:    cfg.Tracer,
		createdAt: now,
		stats: Statistics{
			AgentID:   cfg.ID,
			Kind:      runner.Kind(),
			State:     types.StateSpawned,
			CreatedAt: now,
		},
	}
}

// ID returns the agent id.
func (a *Agent) ID() string { return a.id }

// Kind returns the specialization discriminator.
func (a *Agent) Kind() types.AgentKind { return a.runner.Kind() }

// ThoughtTreeID returns the attached workflow record id.
func (a *Agent) ThoughtTreeID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.thoughtTreeID
}

// State returns the current lifecycle state.
func (a *Agent) State() types.AgentState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Initialize transitions spawned → active, creating the backing thought
// tree when missing. Returns false if the agent is not in spawned.
func (a *Agent) Initialize(ctx context.Context) bool {
	a.mu.Lock()
	if a.state != types.StateSpawned {
		a.mu.Unlock()
		return false
	}
	a.mu.Unlock()

	if err := a.ensureThoughtTree(ctx); err != nil {
		a.logger.Error("failed to ensure thought tree", zap.Error(err))
		return false
	}
	return a.transition(ctx, types.StateActive, "initialized") == nil
}

// ensureThoughtTree creates a default tree when the configured id is
// empty or points at nothing.
func (a *Agent) ensureThoughtTree(ctx context.Context) error {
	if a.store == nil {
		if a.thoughtTreeID == "" {
			a.thoughtTreeID = uuid.NewString()
		}
		return nil
	}
	if a.thoughtTreeID != "" {
		if _, err := a.store.GetThoughtTree(ctx, a.thoughtTreeID); err == nil {
			return nil
		} else if types.KindOf(err) != types.ErrNotFound {
			return err
		}
	}
	if a.thoughtTreeID == "" {
		a.thoughtTreeID = uuid.NewString()
	}
	now := time.Now().UTC()
	return a.store.SaveThoughtTree(ctx, &storage.ThoughtTree{
		ID:        a.thoughtTreeID,
		Goal:      fmt.Sprintf("%s agent execution", a.runner.Kind()),
		Status:    types.TreeInProgress,
		Depth:     1,
		Metadata:  map[string]interface{}{"auto_created": true, "agent_id": a.id},
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Execute runs the specialization with retry. Legal only from active,
// waiting, or coordinating; the agent ends in completed or failed.
func (a *Agent) Execute(ctx context.Context, input map[string]interface{}) *types.AgentResult {
	a.mu.Lock()
	if !a.state.CanExecute() {
		state := a.state
		a.mu.Unlock()
		return a.failureResult(fmt.Sprintf("agent cannot execute from state %s", state), 0, 0)
	}
	a.stats.Executions++
	a.stats.LastActiveAt = time.Now().UTC()
	a.mu.Unlock()

	spanCtx, span := a.tracer.StartSpan(ctx, "agent.execute",
		observability.WithAttribute(observability.AttrAgentID, a.id),
		observability.WithAttribute(observability.AttrAgentKind, string(a.runner.Kind())))
	defer a.tracer.EndSpan(span)

	start := time.Now()
	call := Call{AgentID: a.id, ThoughtTreeID: a.thoughtTreeID, Input: input}

	var (
		result  *types.AgentResult
		runErr  error
		usage   types.Usage
		retries int
	)
	delay := retryBase
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		retries = attempt
		attemptCtx, cancel := context.WithTimeout(spanCtx, a.attemptTimeout)
		result, runErr = a.runner.Run(attemptCtx, call)
		cancel()

		if result != nil {
			usage.Add(result.Usage)
		}
		if runErr == nil && result != nil && result.Success {
			break
		}
		if ctx.Err() != nil || attempt == a.maxRetries {
			break
		}

		a.logger.Warn("agent attempt failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(runErr))
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			attempt = a.maxRetries
		case <-time.After(delay):
		}
		delay *= 2
		if delay > retryCap {
			delay = retryCap
		}
	}

	elapsed := time.Since(start).Milliseconds()

	if runErr != nil || result == nil || !result.Success {
		message := "execution failed"
		if runErr != nil {
			message = runErr.Error()
		} else if result != nil && result.Error != "" {
			message = result.Error
		}
		a.recordOutcome(false, usage, retries, elapsed)
		_ = a.transition(ctx, types.StateFailed, message)
		failed := a.failureResult(message, elapsed, retries)
		failed.Usage = usage
		return failed
	}

	result.AgentID = a.id
	result.Usage = usage
	result.DurationMs = elapsed
	result.Retries = retries
	a.recordOutcome(true, usage, retries, elapsed)
	_ = a.transition(ctx, types.StateCompleted, "")
	return result
}

func (a *Agent) failureResult(message string, elapsed int64, retries int) *types.AgentResult {
	return &types.AgentResult{
		AgentID:    a.id,
		Success:    false,
		Error:      message,
		DurationMs: elapsed,
		Retries:    retries,
	}
}

func (a *Agent) recordOutcome(success bool, usage types.Usage, retries int, elapsed int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if success {
		a.stats.Successes++
	} else {
		a.stats.Failures++
	}
	a.stats.Retries += retries
	a.stats.TotalTimeMs += elapsed
	a.stats.Usage.Add(usage)
}

// TransitionToWaiting moves active → waiting.
func (a *Agent) TransitionToWaiting(ctx context.Context, reason string) error {
	return a.transition(ctx, types.StateWaiting, reason)
}

// TransitionToCoordinating moves waiting → coordinating.
func (a *Agent) TransitionToCoordinating(ctx context.Context, reason string) error {
	return a.transition(ctx, types.StateCoordinating, reason)
}

// ReturnToActive moves coordinating → active.
func (a *Agent) ReturnToActive(ctx context.Context) error {
	return a.transition(ctx, types.StateActive, "resumed")
}

// Terminate force-stops the agent from any non-terminal state. A second
// Terminate is a no-op.
func (a *Agent) Terminate(ctx context.Context, reason string) error {
	a.mu.Lock()
	if a.state.IsTerminal() {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()
	return a.transition(ctx, types.StateTerminated, reason)
}

// transition performs one legal edge, updates stats, and persists the
// snapshot. Illegal edges return a validation error and change nothing.
func (a *Agent) transition(ctx context.Context, next types.AgentState, reason string) error {
	a.mu.Lock()
	current := a.state
	if !current.CanTransitionTo(next) {
		a.mu.Unlock()
		return types.Errorf(types.ErrValidation,
			"illegal agent transition %s → %s", current, next)
	}
	a.state = next
	a.statusReason = reason
	a.stats.State = next
	a.mu.Unlock()

	a.logger.Debug("agent transition",
		zap.String("from", string(current)),
		zap.String("to", string(next)),
		zap.String("reason", reason))

	return a.persist(ctx)
}

// persist writes the agent snapshot. Persistence failures are logged
// and surfaced but never roll back the in-memory state.
func (a *Agent) persist(ctx context.Context) error {
	if a.store == nil {
		return nil
	}

	a.mu.Lock()
	record := &storage.AgentRecord{
		ID:            a.id,
		ThoughtTreeID: a.thoughtTreeID,
		Kind:          a.runner.Kind(),
		ClassName:     a.runner.ClassName(),
		State:         a.state,
		StatusReason:  a.statusReason,
		SpawnedBy:     a.spawnedBy,
		Snapshot: map[string]interface{}{
			"executions":    a.stats.Executions,
			"successes":     a.stats.Successes,
			"failures":      a.stats.Failures,
			"total_cost":    a.stats.Usage.CostUSD,
			"total_tokens":  a.stats.Usage.TotalTokens,
			"total_time_ms": a.stats.TotalTimeMs,
		},
		CreatedAt: a.createdAt,
	}
	if a.state.IsTerminal() {
		now := time.Now().UTC()
		record.CompletedAt = &now
	}
	a.mu.Unlock()

	if err := a.store.SaveAgent(ctx, record); err != nil {
		a.logger.Warn("failed to persist agent snapshot", zap.Error(err))
		return err
	}
	return nil
}

// Statistics returns a copy of the lifetime counters.
func (a *Agent) Statistics() Statistics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

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

// Package orchestration implements the three orchestrator tiers: the
// base agent arena with its spawn quota, the recursive sub-orchestrator,
// and the top-level orchestrator that classifies inputs, scores
// complexity, picks a strategy, and dispatches execution.
package orchestration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/pkg/agent"
	"github.com/nyx-labs/nyx/pkg/observability"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

// DefaultMaxConcurrentAgents is the per-orchestrator spawn quota.
const DefaultMaxConcurrentAgents = 5

// Store is the persistence slice orchestrators need. It is a superset of
// agent.Store so the same value flows into spawned agents.
type Store interface {
	SaveThoughtTree(ctx context.Context, tree *storage.ThoughtTree) error
	GetThoughtTree(ctx context.Context, id string) (*storage.ThoughtTree, error)
	UpdateThoughtTreeStatus(ctx context.Context, id string, status types.TreeStatus, reason string) error
	SaveAgent(ctx context.Context, record *storage.AgentRecord) error
	SaveOrchestrator(ctx context.Context, record *storage.OrchestratorRecord) error
}

// RunnerFactory builds an agent specialization for a spawn request.
type RunnerFactory func(kind types.AgentKind) (agent.Runner, error)

// Config configures a base orchestrator.
type Config struct {
	// ID defaults to a fresh UUID.
	ID string

	// ParentID links a sub-orchestrator to its parent.
	ParentID string

	// ThoughtTreeID attaches the orchestrator to a workflow record. When
	// empty or dangling, Initialize creates a tree at Depth.
	ThoughtTreeID string

	Type storage.OrchestratorType

	// Goal labels the auto-created thought tree.
	Goal string

	// Depth is 1 for top-level, parent depth + 1 for sub-orchestrators.
	Depth int

	// MaxConcurrentAgents is the spawn quota. Defaults to 5.
	MaxConcurrentAgents int

	// Store is optional; a nil store keeps everything in memory.
	Store Store

	Factory RunnerFactory

	// AgentMaxRetries and AttemptTimeout flow into every spawned agent.
	AgentMaxRetries int
	AttemptTimeout  time.Duration

	Logger *zap.Logger
	Tracer observability.Tracer
}

// Status is a point-in-time snapshot of an orchestrator.
type Status struct {
	ID                  string                   `json:"id"`
	Type                storage.OrchestratorType `json:"type"`
	ThoughtTreeID       string                   `json:"thought_tree_id"`
	State               string                   `json:"state"`
	Depth               int                      `json:"depth"`
	ActiveAgents        int                      `json:"active_agents"`
	SpawnedAgents       int                      `json:"spawned_agents"`
	CompletedAgents     int                      `json:"completed_agents"`
	FailedAgents        int                      `json:"failed_agents"`
	MaxConcurrentAgents int                      `json:"max_concurrent_agents"`
	Usage               types.Usage              `json:"usage"`
}

// Assignment pairs an agent with the input Coordinate runs it on.
type Assignment struct {
	Agent *agent.Agent
	Input map[string]interface{}
}

// Base owns an id-keyed arena of agents and enforces the spawn quota.
// Both orchestrator tiers build on it.
type Base struct {
	id       string
	parentID string
	otype    storage.OrchestratorType
	goal     string
	depth    int
	maxAgnts int

	store   Store
	factory RunnerFactory

	agentRetries   int
	attemptTimeout time.Duration

	logger *zap.Logger
	tracer observability.Tracer

	mu            sync.Mutex
	thoughtTreeID string
	state         string
	agents        map[string]*agent.Agent
	parentOf      map[string]string
	tracked       map[string]bool
	active        int
	spawnedCount  int
	completed     int
	failed        int
	usage         types.Usage
	createdAt     time.Time
}

// NewBase builds a base orchestrator in state "created"; Initialize must
// run before any spawn.
func NewBase(cfg Config) *Base {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Type == "" {
		cfg.Type = storage.OrchestratorTopLevel
	}
	if cfg.Depth <= 0 {
		cfg.Depth = 1
	}
	if cfg.MaxConcurrentAgents <= 0 {
		cfg.MaxConcurrentAgents = DefaultMaxConcurrentAgents
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NewNoOpTracer()
	}

	return &Base{
		id:             cfg.ID,
		parentID:       cfg.ParentID,
		otype:          cfg.Type,
		goal:           cfg.Goal,
		depth:          cfg.Depth,
		maxAgnts:       cfg.MaxConcurrentAgents,
		store:          cfg.Store,
		factory:        cfg.Factory,
		agentRetries:   cfg.AgentMaxRetries,
		attemptTimeout: cfg.AttemptTimeout,
		logger:         cfg.Logger.With(zap.String("orchestrator_id", cfg.ID)),
		tracer:         cfg.Tracer,
		thoughtTreeID:  cfg.ThoughtTreeID,
		state:          "created",
		agents:         make(map[string]*agent.Agent),
		parentOf:       make(map[string]string),
		tracked:        make(map[string]bool),
		createdAt:      time.Now().UTC(),
	}
}

// ID returns the orchestrator id.
func (o *Base) ID() string { return o.id }

// ThoughtTreeID returns the attached workflow record id.
func (o *Base) ThoughtTreeID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.thoughtTreeID
}

// Depth returns the orchestrator's decomposition depth.
func (o *Base) Depth() int { return o.depth }

// Initialize attaches or creates the thought tree and persists the
// orchestrator record in state "active".
func (o *Base) Initialize(ctx context.Context) error {
	if err := o.ensureThoughtTree(ctx); err != nil {
		return err
	}
	o.mu.Lock()
	o.state = "active"
	o.mu.Unlock()
	return o.persist(ctx)
}

func (o *Base) ensureThoughtTree(ctx context.Context) error {
	o.mu.Lock()
	treeID := o.thoughtTreeID
	o.mu.Unlock()

	if o.store == nil {
		if treeID == "" {
			o.setTreeID(uuid.NewString())
		}
		return nil
	}
	if treeID != "" {
		if _, err := o.store.GetThoughtTree(ctx, treeID); err == nil {
			return nil
		} else if types.KindOf(err) != types.ErrNotFound {
			return err
		}
	}
	if treeID == "" {
		treeID = uuid.NewString()
		o.setTreeID(treeID)
	}
	goal := o.goal
	if goal == "" {
		goal = "orchestrated workflow"
	}
	now := time.Now().UTC()
	return o.store.SaveThoughtTree(ctx, &storage.ThoughtTree{
		ID:        treeID,
		Goal:      goal,
		Status:    types.TreeInProgress,
		Depth:     o.depth,
		Metadata:  map[string]interface{}{"orchestrator_id": o.id},
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (o *Base) setTreeID(id string) {
	o.mu.Lock()
	o.thoughtTreeID = id
	o.mu.Unlock()
}

// SpawnAgent creates, registers, and initializes one agent. It returns
// nil exactly when the active count has reached the quota (or the
// orchestrator is already terminated). parent, when non-nil, records the
// spawning agent for ancestry.
func (o *Base) SpawnAgent(ctx context.Context, kind types.AgentKind, parent *agent.Agent) *agent.Agent {
	o.mu.Lock()
	if o.state == "terminated" || o.active >= o.maxAgnts {
		o.mu.Unlock()
		return nil
	}
	treeID := o.thoughtTreeID
	o.mu.Unlock()

	runner, err := o.factory(kind)
	if err != nil {
		o.logger.Error("agent factory failed",
			zap.String("kind", string(kind)), zap.Error(err))
		return nil
	}

	spawnedBy := o.id
	parentID := ""
	if parent != nil {
		spawnedBy = parent.ID()
		parentID = parent.ID()
	}

	var agentStore agent.Store
	if o.store != nil {
		agentStore = o.store
	}
	ag := agent.New(runner, agent.Config{
		ThoughtTreeID:  treeID,
		SpawnedBy:      spawnedBy,
		Store:          agentStore,
		MaxRetries:     o.agentRetries,
		AttemptTimeout: o.attemptTimeout,
		Logger:         o.logger,
		Tracer:         o.tracer,
	})
	if !ag.Initialize(ctx) {
		o.logger.Error("spawned agent failed to initialize",
			zap.String("kind", string(kind)))
		return nil
	}

	o.mu.Lock()
	o.agents[ag.ID()] = ag
	if parentID != "" {
		o.parentOf[ag.ID()] = parentID
	}
	o.active++
	o.spawnedCount++
	o.mu.Unlock()

	o.logger.Debug("agent spawned",
		zap.String("agent_id", ag.ID()),
		zap.String("kind", string(kind)))
	return ag
}

// TrackAgentCompletion records an agent's outcome and releases its quota
// slot. The decrement happens exactly once per agent; repeat calls are
// no-ops.
func (o *Base) TrackAgentCompletion(ctx context.Context, ag *agent.Agent, result *types.AgentResult) {
	o.mu.Lock()
	if o.tracked[ag.ID()] {
		o.mu.Unlock()
		return
	}
	o.tracked[ag.ID()] = true
	o.active--
	if result != nil {
		o.usage.Add(result.Usage)
		if result.Success {
			o.completed++
		} else {
			o.failed++
		}
	} else {
		o.failed++
	}
	o.mu.Unlock()

	if err := o.persist(ctx); err != nil {
		o.logger.Warn("failed to persist orchestrator record", zap.Error(err))
	}
}

// Coordinate executes the assignments concurrently with all-settled
// semantics: every agent completes or fails, results keep assignment
// order, and each completion is tracked.
func (o *Base) Coordinate(ctx context.Context, assignments []Assignment) []*types.AgentResult {
	results := make([]*types.AgentResult, len(assignments))
	var wg sync.WaitGroup
	for i, a := range assignments {
		wg.Add(1)
		go func(i int, a Assignment) {
			defer wg.Done()
			result := a.Agent.Execute(ctx, a.Input)
			o.TrackAgentCompletion(ctx, a.Agent, result)
			results[i] = result
		}(i, a)
	}
	wg.Wait()
	return results
}

// Status returns a snapshot of the arena.
func (o *Base) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{
		ID:                  o.id,
		Type:                o.otype,
		ThoughtTreeID:       o.thoughtTreeID,
		State:               o.state,
		Depth:               o.depth,
		ActiveAgents:        o.active,
		SpawnedAgents:       o.spawnedCount,
		CompletedAgents:     o.completed,
		FailedAgents:        o.failed,
		MaxConcurrentAgents: o.maxAgnts,
		Usage:               o.usage,
	}
}

// FreeSlots reports how many agents may still be spawned.
func (o *Base) FreeSlots() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	free := o.maxAgnts - o.active
	if free < 0 {
		free = 0
	}
	return free
}

// Usage returns the accumulated usage across tracked completions.
func (o *Base) Usage() types.Usage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.usage
}

// absorbUsage rolls a child orchestrator's cost into this one. Agent
// counts are deliberately not merged; each orchestrator tracks its own.
func (o *Base) absorbUsage(u types.Usage) {
	o.mu.Lock()
	o.usage.Add(u)
	o.mu.Unlock()
}

// Terminate force-stops every still-live agent, synthesizing a failed
// result for each, and closes the orchestrator.
func (o *Base) Terminate(ctx context.Context, reason string) *types.OrchestratorResult {
	o.mu.Lock()
	if o.state == "terminated" {
		result := o.resultLocked(reason)
		o.mu.Unlock()
		return result
	}
	var live []*agent.Agent
	for _, ag := range o.agents {
		if !ag.State().IsTerminal() {
			live = append(live, ag)
		}
	}
	o.mu.Unlock()

	for _, ag := range live {
		if err := ag.Terminate(ctx, reason); err != nil {
			o.logger.Warn("agent terminate failed",
				zap.String("agent_id", ag.ID()), zap.Error(err))
		}
		o.TrackAgentCompletion(ctx, ag, &types.AgentResult{
			AgentID: ag.ID(),
			Success: false,
			Error:   "terminated: " + reason,
		})
	}

	o.mu.Lock()
	o.state = "terminated"
	result := o.resultLocked(reason)
	o.mu.Unlock()

	if err := o.persist(ctx); err != nil {
		o.logger.Warn("failed to persist orchestrator record", zap.Error(err))
	}
	return result
}

func (o *Base) resultLocked(reason string) *types.OrchestratorResult {
	return &types.OrchestratorResult{
		OrchestratorID:    o.id,
		Success:           o.failed == 0,
		Content:           reason,
		Depth:             o.depth,
		SubtasksCompleted: o.completed,
		SubtasksFailed:    o.failed,
		AgentsSpawned:     o.spawnedCount,
		Usage:             o.usage,
	}
}

func (o *Base) persist(ctx context.Context) error {
	if o.store == nil {
		return nil
	}
	o.mu.Lock()
	record := &storage.OrchestratorRecord{
		ID:                  o.id,
		ParentID:            o.parentID,
		ThoughtTreeID:       o.thoughtTreeID,
		Type:                o.otype,
		Status:              o.state,
		ActiveAgents:        o.active,
		MaxConcurrentAgents: o.maxAgnts,
		GlobalContext: map[string]interface{}{
			"spawned":   o.spawnedCount,
			"completed": o.completed,
			"failed":    o.failed,
			"cost_usd":  o.usage.CostUSD,
		},
		CreatedAt: o.createdAt,
		UpdatedAt: time.Now().UTC(),
	}
	o.mu.Unlock()
	return o.store.SaveOrchestrator(ctx, record)
}

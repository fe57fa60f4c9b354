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

// Package motivation runs the self-driving control loop. A cron runner
// ticks the drive table: urgency decays, trigger predicates boost, an
// arbitration score picks at most one winner per tick, and the winner is
// converted into a workflow handed to the orchestrator. Every drive
// mutation is persisted synchronously; the stored copy is the restart
// authority.
package motivation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/pkg/observability"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

const (
	// DefaultTickInterval paces the decay/arbitration loop.
	DefaultTickInterval = 30 * time.Second
	// DefaultArbitrationThreshold is the minimum score a drive needs to
	// spawn a workflow.
	DefaultArbitrationThreshold = 0.3
	// DefaultMaxConcurrentTasks caps in-flight tasks per drive.
	DefaultMaxConcurrentTasks = 3
	// DefaultSatisfactionDecay is the per-tick satisfaction erosion.
	DefaultSatisfactionDecay = 0.005
	// DefaultSatisfactionGain is credited to a drive when its spawned
	// workflow succeeds.
	DefaultSatisfactionGain = 0.2
)

// Store is the persistence surface the engine needs.
type Store interface {
	UpsertMotivationalState(ctx context.Context, state *storage.MotivationalState) error
	GetMotivationalState(ctx context.Context, kind string) (*storage.MotivationalState, error)
	ListMotivationalStates(ctx context.Context, activeOnly bool) ([]*storage.MotivationalState, error)
	SaveMotivationalTask(ctx context.Context, task *storage.MotivationalTask) error
	CountActiveMotivationalTasks(ctx context.Context, driveID string) (int, error)
}

// Executor runs one workflow to completion. The top-level orchestrator
// satisfies it.
type Executor interface {
	ExecuteWorkflow(ctx context.Context, input *types.WorkflowInput) (*types.WorkflowResult, error)
}

// Weights shape the arbitration score. Urgency dominates by default.
type Weights struct {
	Urgency      float64 `json:"urgency"`
	Satisfaction float64 `json:"satisfaction"`
	SuccessRate  float64 `json:"success_rate"`
	AgePenalty   float64 `json:"age_penalty"`
}

// DefaultWeights favor urgency over history.
func DefaultWeights() Weights {
	return Weights{Urgency: 0.5, Satisfaction: 0.25, SuccessRate: 0.15, AgePenalty: 0.1}
}

// Config wires the engine.
type Config struct {
	Store    Store
	Executor Executor

	TickInterval         time.Duration
	ArbitrationThreshold float64
	MaxConcurrentTasks   int
	Weights              Weights
	SatisfactionDecay    float64
	SatisfactionGain     float64

	// DisableSafetyGate turns off the per-hour counter checks carried in
	// drive metadata. The gate is on unless explicitly disabled.
	DisableSafetyGate bool

	// DrivesPath points at the YAML seed file. Empty skips seeding and
	// hot reload.
	DrivesPath string

	Logger *zap.Logger
	Tracer observability.Tracer
}

// Settings is the runtime-adjustable subset of Config, accepted over the
// admin API.
type Settings struct {
	TickIntervalSeconds  int      `json:"tick_interval_seconds,omitempty"`
	ArbitrationThreshold *float64 `json:"arbitration_threshold,omitempty"`
	MaxConcurrentTasks   *int     `json:"max_concurrent_tasks,omitempty"`
	Weights              *Weights `json:"weights,omitempty"`
}

// Status is the externally visible engine state.
type Status struct {
	Running              bool       `json:"running"`
	TickIntervalSeconds  int        `json:"tick_interval_seconds"`
	ArbitrationThreshold float64    `json:"arbitration_threshold"`
	MaxConcurrentTasks   int        `json:"max_concurrent_tasks"`
	LastTick             *time.Time `json:"last_tick,omitempty"`
	TicksCompleted       int64      `json:"ticks_completed"`
	TasksSpawned         int64      `json:"tasks_spawned"`
	ActiveDrives         int        `json:"active_drives"`
}

// Engine owns the motivational loop.
type Engine struct {
	mu  sync.Mutex
	cfg Config

	running     bool
	cronEngine  *cron.Cron
	tickEntry   cron.EntryID
	driveCrons  map[string]cron.EntryID
	watcher     *seedWatcher
	lastTick    time.Time
	ticks       int64
	spawned     int64
	driveCount  int
	baseCtx     context.Context
	cancel      context.CancelFunc
	workflowsWG sync.WaitGroup

	logger *zap.Logger
	tracer observability.Tracer
}

// NewEngine validates config and builds a stopped engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, types.NewError(types.ErrValidation, "motivational engine requires a store")
	}
	if cfg.Executor == nil {
		return nil, types.NewError(types.ErrValidation, "motivational engine requires a workflow executor")
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.ArbitrationThreshold <= 0 {
		cfg.ArbitrationThreshold = DefaultArbitrationThreshold
	}
	if cfg.MaxConcurrentTasks <= 0 {
		cfg.MaxConcurrentTasks = DefaultMaxConcurrentTasks
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	if cfg.SatisfactionDecay <= 0 {
		cfg.SatisfactionDecay = DefaultSatisfactionDecay
	}
	if cfg.SatisfactionGain <= 0 {
		cfg.SatisfactionGain = DefaultSatisfactionGain
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NewNoOpTracer()
	}
	return &Engine{
		cfg:        cfg,
		driveCrons: make(map[string]cron.EntryID),
		logger:     cfg.Logger,
		tracer:     cfg.Tracer,
	}, nil
}

// Start seeds drives, registers the tick and per-drive cron entries, and
// begins ticking. A second start reports "already running".
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return types.NewError(types.ErrMotivationalEngine, "motivational engine already running")
	}

	if e.cfg.DrivesPath != "" {
		seeds, err := LoadSeeds(e.cfg.DrivesPath)
		if err != nil {
			return fmt.Errorf("failed to load drive seeds: %w", err)
		}
		if err := e.seedLocked(ctx, seeds); err != nil {
			return err
		}
	}

	e.baseCtx, e.cancel = context.WithCancel(context.Background())
	e.cronEngine = cron.New()

	entry, err := e.cronEngine.AddFunc(fmt.Sprintf("@every %s", e.cfg.TickInterval), e.runTick)
	if err != nil {
		return types.WrapError(types.ErrMotivationalEngine, err, "failed to schedule tick")
	}
	e.tickEntry = entry

	if err := e.syncDriveCronsLocked(ctx); err != nil {
		e.logger.Warn("per-drive cron sync failed", zap.Error(err))
	}

	if e.cfg.DrivesPath != "" {
		watcher, err := newSeedWatcher(e, e.cfg.DrivesPath, e.logger)
		if err != nil {
			e.logger.Warn("drive seed watcher unavailable", zap.Error(err))
		} else {
			e.watcher = watcher
		}
	}

	e.cronEngine.Start()
	e.running = true
	e.lastTick = time.Now().UTC()
	e.logger.Info("motivational engine started",
		zap.Duration("tick_interval", e.cfg.TickInterval),
		zap.Float64("threshold", e.cfg.ArbitrationThreshold))
	return nil
}

// Stop halts ticking and waits for in-flight spawned workflows. A second
// stop reports "not running".
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return types.NewError(types.ErrMotivationalEngine, "motivational engine not running")
	}
	e.running = false
	cronCtx := e.cronEngine.Stop()
	if e.watcher != nil {
		e.watcher.close()
		e.watcher = nil
	}
	e.cancel()
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.workflowsWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		e.logger.Warn("motivational engine shutdown timeout, spawned workflows still running")
	}
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
	}
	e.logger.Info("motivational engine stopped")
	return nil
}

// Running reports whether the loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Configure applies runtime settings. A changed tick interval reschedules
// the tick entry in place.
func (e *Engine) Configure(settings Settings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if settings.TickIntervalSeconds < 0 {
		return types.NewError(types.ErrValidation, "tick interval must be positive")
	}
	if settings.ArbitrationThreshold != nil &&
		(*settings.ArbitrationThreshold < 0 || *settings.ArbitrationThreshold > 1) {
		return types.NewError(types.ErrValidation, "arbitration threshold must be in [0,1]")
	}
	if settings.MaxConcurrentTasks != nil && *settings.MaxConcurrentTasks < 1 {
		return types.NewError(types.ErrValidation, "max concurrent tasks must be at least 1")
	}

	if settings.TickIntervalSeconds > 0 {
		interval := time.Duration(settings.TickIntervalSeconds) * time.Second
		if interval != e.cfg.TickInterval {
			e.cfg.TickInterval = interval
			if e.running {
				e.cronEngine.Remove(e.tickEntry)
				entry, err := e.cronEngine.AddFunc(fmt.Sprintf("@every %s", interval), e.runTick)
				if err != nil {
					return types.WrapError(types.ErrMotivationalEngine, err, "failed to reschedule tick")
				}
				e.tickEntry = entry
			}
		}
	}
	if settings.ArbitrationThreshold != nil {
		e.cfg.ArbitrationThreshold = *settings.ArbitrationThreshold
	}
	if settings.MaxConcurrentTasks != nil {
		e.cfg.MaxConcurrentTasks = *settings.MaxConcurrentTasks
	}
	if settings.Weights != nil {
		e.cfg.Weights = *settings.Weights
	}
	e.logger.Info("motivational engine reconfigured",
		zap.Duration("tick_interval", e.cfg.TickInterval),
		zap.Float64("threshold", e.cfg.ArbitrationThreshold),
		zap.Int("max_concurrent_tasks", e.cfg.MaxConcurrentTasks))
	return nil
}

// Status snapshots the engine counters.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	status := Status{
		Running:              e.running,
		TickIntervalSeconds:  int(e.cfg.TickInterval / time.Second),
		ArbitrationThreshold: e.cfg.ArbitrationThreshold,
		MaxConcurrentTasks:   e.cfg.MaxConcurrentTasks,
		TicksCompleted:       e.ticks,
		TasksSpawned:         e.spawned,
		ActiveDrives:         e.driveCount,
	}
	if e.ticks > 0 {
		last := e.lastTick
		status.LastTick = &last
	}
	return status
}

// Boost raises a drive's urgency immediately and records the boost in its
// metadata. A zero amount is a no-op.
func (e *Engine) Boost(ctx context.Context, kind string, amount float64, reason string, metadata map[string]interface{}) error {
	if amount == 0 {
		return nil
	}
	if amount < 0 || amount > 1 {
		return types.NewError(types.ErrValidation, "boost amount must be in (0,1]")
	}
	drive, err := e.cfg.Store.GetMotivationalState(ctx, kind)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	drive.Urgency = clamp01(drive.Urgency + amount)
	if drive.Metadata == nil {
		drive.Metadata = map[string]interface{}{}
	}
	for k, v := range metadata {
		drive.Metadata[k] = v
	}
	drive.Metadata["last_boost"] = map[string]interface{}{
		"amount": amount,
		"reason": reason,
		"at":     now.Format(time.RFC3339),
	}
	drive.UpdatedAt = now
	if err := e.cfg.Store.UpsertMotivationalState(ctx, drive); err != nil {
		return types.WrapError(types.ErrDatabase, err, "failed to persist boosted drive")
	}
	e.logger.Info("drive boosted",
		zap.String("kind", kind),
		zap.Float64("amount", amount),
		zap.String("reason", reason))
	return nil
}

// runTick is the cron callback. Errors are logged, never fatal to the
// runner.
func (e *Engine) runTick() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	ctx := e.baseCtx
	e.mu.Unlock()

	tickCtx, cancel := context.WithTimeout(ctx, e.cfg.TickInterval)
	defer cancel()
	if err := e.tick(tickCtx); err != nil {
		e.logger.Warn("motivational tick failed", zap.Error(err))
	}
}

// tick runs one decay/boost/arbitrate/spawn cycle.
func (e *Engine) tick(ctx context.Context) error {
	ctx, span := e.tracer.StartSpan(ctx, "motivation.tick")
	defer e.tracer.EndSpan(span)

	now := time.Now().UTC()
	e.mu.Lock()
	dtMinutes := now.Sub(e.lastTick).Minutes()
	if dtMinutes <= 0 || dtMinutes > e.cfg.TickInterval.Minutes()*10 {
		dtMinutes = e.cfg.TickInterval.Minutes()
	}
	e.lastTick = now
	e.ticks++
	threshold := e.cfg.ArbitrationThreshold
	e.mu.Unlock()

	drives, err := e.cfg.Store.ListMotivationalStates(ctx, true)
	if err != nil {
		return types.WrapError(types.ErrDatabase, err, "failed to list drives")
	}
	e.mu.Lock()
	e.driveCount = len(drives)
	e.mu.Unlock()

	for _, drive := range drives {
		changed := e.decayDrive(drive, dtMinutes)
		if triggerFires(drive, now) {
			drive.Urgency = clamp01(drive.Urgency + drive.BoostFactor)
			changed = true
		}
		if changed {
			drive.UpdatedAt = now
			if err := e.cfg.Store.UpsertMotivationalState(ctx, drive); err != nil {
				e.logger.Warn("failed to persist drive decay",
					zap.String("kind", drive.Kind), zap.Error(err))
			}
		}
	}

	winner, score := e.arbitrate(ctx, drives, now, threshold)
	if winner == nil {
		return nil
	}
	return e.spawn(ctx, winner, score, now)
}

// decayDrive applies time decay. Returns whether anything moved.
func (e *Engine) decayDrive(drive *storage.MotivationalState, dtMinutes float64) bool {
	urgency := clamp01(drive.Urgency * (1 - drive.DecayRate*dtMinutes))
	satisfaction := clamp01(drive.Satisfaction - e.cfg.SatisfactionDecay)
	changed := urgency != drive.Urgency || satisfaction != drive.Satisfaction
	drive.Urgency = urgency
	drive.Satisfaction = satisfaction
	return changed
}

// arbitrate scores every drive and returns the best admissible one, or
// nil when no drive clears the threshold, the concurrency cap, and the
// safety gate.
func (e *Engine) arbitrate(ctx context.Context, drives []*storage.MotivationalState, now time.Time, threshold float64) (*storage.MotivationalState, float64) {
	type candidate struct {
		drive *storage.MotivationalState
		score float64
	}
	candidates := make([]candidate, 0, len(drives))
	for _, drive := range drives {
		score := e.score(drive, now)
		if score >= threshold {
			candidates = append(candidates, candidate{drive, score})
		}
	}
	// Highest score first; insertion sort keeps the tiny slice cheap.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].score > candidates[j-1].score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	for _, c := range candidates {
		active, err := e.cfg.Store.CountActiveMotivationalTasks(ctx, c.drive.ID)
		if err != nil {
			e.logger.Warn("failed to count active tasks",
				zap.String("kind", c.drive.Kind), zap.Error(err))
			continue
		}
		if active >= e.cfg.MaxConcurrentTasks {
			e.logger.Debug("drive at concurrency cap",
				zap.String("kind", c.drive.Kind), zap.Int("active", active))
			continue
		}
		if !e.cfg.DisableSafetyGate && safetyGated(c.drive) {
			e.logger.Info("drive blocked by safety gate", zap.String("kind", c.drive.Kind))
			continue
		}
		return c.drive, c.score
	}
	return nil, 0
}

// score computes the arbitration score for one drive.
func (e *Engine) score(drive *storage.MotivationalState, now time.Time) float64 {
	w := e.cfg.Weights
	return w.Urgency*drive.Urgency +
		w.Satisfaction*(1-drive.Satisfaction) +
		w.SuccessRate*drive.SuccessRate -
		w.AgePenalty*agePenalty(drive.LastTriggered, now)
}

// agePenalty suppresses drives triggered in the last hour, fading
// linearly to zero.
func agePenalty(lastTriggered *time.Time, now time.Time) float64 {
	if lastTriggered == nil {
		return 0
	}
	minutes := now.Sub(*lastTriggered).Minutes()
	if minutes >= 60 {
		return 0
	}
	return 1 - minutes/60
}

// safetyGated checks the per-hour counters a drive carries in metadata.
// Drives without counters are never gated.
func safetyGated(drive *storage.MotivationalState) bool {
	meta := drive.Metadata
	if meta == nil {
		return false
	}
	if _, ok := meta["posts_this_hour"]; ok {
		maxPosts := metaInt(meta, "max_posts_per_hour")
		if maxPosts == 0 {
			maxPosts = 2
		}
		if metaInt(meta, "posts_this_hour") >= maxPosts {
			return true
		}
	}
	if minCycles := metaInt(meta, "min_cycles_between_posts"); minCycles > 0 {
		if _, ok := meta["cycles_since_last_post"]; ok {
			if metaInt(meta, "cycles_since_last_post") < minCycles {
				return true
			}
		}
	}
	return false
}

// triggerFires evaluates the drive's trigger predicate. Cron-expression
// triggers are handled by dedicated cron entries, not here.
func triggerFires(drive *storage.MotivationalState, now time.Time) bool {
	trigger := drive.Trigger
	if trigger == nil {
		return false
	}
	switch metaString(trigger, "type") {
	case "always":
		return true
	case "interval_elapsed":
		interval := metaFloat(trigger, "interval_minutes")
		if interval <= 0 {
			return false
		}
		if drive.LastTriggered == nil {
			return true
		}
		return now.Sub(*drive.LastTriggered).Minutes() >= interval
	case "metric_below":
		threshold := metaFloat(trigger, "threshold")
		switch metaString(trigger, "metric") {
		case "satisfaction":
			return drive.Satisfaction < threshold
		case "urgency":
			return drive.Urgency < threshold
		case "success_rate":
			return drive.SuccessRate < threshold
		}
		return false
	default:
		return false
	}
}

// spawn converts the winning drive into a workflow, persists the task
// link, and runs the workflow asynchronously.
func (e *Engine) spawn(ctx context.Context, drive *storage.MotivationalState, score float64, now time.Time) error {
	taskID := uuid.NewString()
	prompt := renderPrompt(drive)
	input := &types.WorkflowInput{
		Type:     types.InputUserPrompt,
		Content:  prompt,
		Priority: types.PriorityMedium,
		Metadata: map[string]interface{}{
			"motivation_type":      drive.Kind,
			"drive_id":             drive.ID,
			"motivational_task_id": taskID,
		},
	}
	// Drives may pin their workflows to a dedicated agent specialization.
	if kind := metaString(drive.Metadata, "agent_kind"); kind != "" {
		input.Metadata["agent_kind"] = kind
	}

	task := &storage.MotivationalTask{
		ID:               taskID,
		DriveID:          drive.ID,
		Prompt:           prompt,
		Priority:         types.PriorityMedium,
		ArbitrationScore: score,
		Status:           types.TaskSpawned,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.cfg.Store.SaveMotivationalTask(ctx, task); err != nil {
		return types.WrapError(types.ErrDatabase, err, "failed to persist motivational task")
	}

	last := now
	drive.LastTriggered = &last
	drive.UpdatedAt = now
	if err := e.cfg.Store.UpsertMotivationalState(ctx, drive); err != nil {
		return types.WrapError(types.ErrDatabase, err, "failed to persist triggered drive")
	}

	e.mu.Lock()
	e.spawned++
	base := e.baseCtx
	if base == nil {
		base = context.Background()
	}
	e.mu.Unlock()

	e.logger.Info("motivational workflow spawned",
		zap.String("kind", drive.Kind),
		zap.String("task_id", taskID),
		zap.Float64("score", score))

	e.workflowsWG.Add(1)
	go func() {
		defer e.workflowsWG.Done()
		result, err := e.cfg.Executor.ExecuteWorkflow(base, input)
		e.feedback(base, drive.Kind, task, result, err)
	}()
	return nil
}

// feedback credits or debits the drive once its spawned workflow settles
// and closes out the task row.
func (e *Engine) feedback(ctx context.Context, kind string, task *storage.MotivationalTask, result *types.WorkflowResult, execErr error) {
	now := time.Now().UTC()
	success := execErr == nil && result != nil && result.Success

	drive, err := e.cfg.Store.GetMotivationalState(ctx, kind)
	if err != nil {
		e.logger.Warn("feedback drive lookup failed", zap.String("kind", kind), zap.Error(err))
	} else {
		if success {
			drive.Satisfaction = clamp01(drive.Satisfaction + e.cfg.SatisfactionGain)
			drive.SuccessCount++
			last := now
			drive.LastSatisfied = &last
		} else {
			drive.FailureCount++
		}
		if total := drive.SuccessCount + drive.FailureCount; total > 0 {
			drive.SuccessRate = float64(drive.SuccessCount) / float64(total)
		}
		drive.UpdatedAt = now
		if err := e.cfg.Store.UpsertMotivationalState(ctx, drive); err != nil {
			e.logger.Warn("feedback drive persist failed", zap.String("kind", kind), zap.Error(err))
		}
	}

	task.UpdatedAt = now
	task.CompletedAt = &now
	if success {
		task.Status = types.TaskCompleted
		task.OutcomeScore = 1
		task.SatisfactionGain = e.cfg.SatisfactionGain
		task.ThoughtTreeID = result.WorkflowID
	} else {
		task.Status = types.TaskFailed
		if execErr != nil {
			task.StatusReason = execErr.Error()
		} else if result != nil {
			task.StatusReason = result.ErrorMessage
			task.ThoughtTreeID = result.WorkflowID
		}
	}
	if err := e.cfg.Store.SaveMotivationalTask(ctx, task); err != nil {
		e.logger.Warn("feedback task persist failed", zap.String("task_id", task.ID), zap.Error(err))
	}
	e.logger.Info("motivational workflow settled",
		zap.String("kind", kind),
		zap.String("task_id", task.ID),
		zap.Bool("success", success))
}

// renderPrompt builds the workflow prompt from the drive's template, or
// a generic standing-intent prompt when none is configured.
func renderPrompt(drive *storage.MotivationalState) string {
	if template := metaString(drive.Metadata, "prompt_template"); template != "" {
		return template
	}
	return fmt.Sprintf(
		"Act on your standing drive %q. Review its current state and take the most useful next action, then report what you did.",
		drive.Kind)
}

// syncDriveCronsLocked registers a cron entry per drive whose trigger
// carries a cron expression, and removes entries for drives that lost
// theirs. Caller holds e.mu.
func (e *Engine) syncDriveCronsLocked(ctx context.Context) error {
	drives, err := e.cfg.Store.ListMotivationalStates(ctx, true)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(drives))
	for _, drive := range drives {
		expr := metaString(drive.Trigger, "cron")
		if expr == "" {
			continue
		}
		seen[drive.Kind] = true
		if _, exists := e.driveCrons[drive.Kind]; exists {
			continue
		}
		kind := drive.Kind
		boost := drive.BoostFactor
		entry, err := e.cronEngine.AddFunc(expr, func() {
			e.cronBoost(kind, boost)
		})
		if err != nil {
			e.logger.Warn("invalid drive cron expression",
				zap.String("kind", drive.Kind), zap.String("cron", expr), zap.Error(err))
			continue
		}
		e.driveCrons[drive.Kind] = entry
	}
	for kind, entry := range e.driveCrons {
		if !seen[kind] {
			e.cronEngine.Remove(entry)
			delete(e.driveCrons, kind)
		}
	}
	return nil
}

// cronBoost fires on a per-drive cron entry.
func (e *Engine) cronBoost(kind string, amount float64) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	ctx := e.baseCtx
	e.mu.Unlock()

	if err := e.Boost(ctx, kind, amount, "cron trigger", nil); err != nil {
		e.logger.Warn("cron boost failed", zap.String("kind", kind), zap.Error(err))
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func metaString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}

func metaInt(meta map[string]interface{}, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func metaFloat(meta map[string]interface{}, key string) float64 {
	switch v := meta[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

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
package motivation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

// driveStore is an in-memory Store. Reads hand out copies so state only
// moves through Upsert, like the SQLite store.
type driveStore struct {
	mu      sync.Mutex
	drives  map[string]*storage.MotivationalState // keyed by kind
	tasks   map[string]*storage.MotivationalTask
	active  map[string]int // driveID -> forced active count
	upserts int
}

func newDriveStore() *driveStore {
	return &driveStore{
		drives: make(map[string]*storage.MotivationalState),
		tasks:  make(map[string]*storage.MotivationalTask),
		active: make(map[string]int),
	}
}

func (s *driveStore) UpsertMotivationalState(_ context.Context, state *storage.MotivationalState) error {
	if err := state.ValidateRanges(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *state
	s.drives[state.Kind] = &copied
	s.upserts++
	return nil
}

func (s *driveStore) GetMotivationalState(_ context.Context, kind string) (*storage.MotivationalState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.drives[kind]
	if !ok {
		return nil, types.Errorf(types.ErrNotFound, "drive %s not found", kind)
	}
	copied := *state
	return &copied, nil
}

func (s *driveStore) ListMotivationalStates(_ context.Context, activeOnly bool) ([]*storage.MotivationalState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*storage.MotivationalState, 0, len(s.drives))
	for _, state := range s.drives {
		if activeOnly && !state.Active {
			continue
		}
		copied := *state
		out = append(out, &copied)
	}
	return out, nil
}

func (s *driveStore) SaveMotivationalTask(_ context.Context, task *storage.MotivationalTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *driveStore) CountActiveMotivationalTasks(_ context.Context, driveID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.active[driveID]; ok {
		return n, nil
	}
	count := 0
	for _, task := range s.tasks {
		if task.DriveID == driveID && !task.Status.IsTerminal() {
			count++
		}
	}
	return count, nil
}

func (s *driveStore) drive(t *testing.T, kind string) *storage.MotivationalState {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.drives[kind]
	require.True(t, ok, "drive %s not in store", kind)
	copied := *state
	return &copied
}

func (s *driveStore) taskList() []*storage.MotivationalTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*storage.MotivationalTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		copied := *task
		out = append(out, &copied)
	}
	return out
}

// fakeExecutor records spawned workflow inputs.
type fakeExecutor struct {
	mu     sync.Mutex
	inputs []*types.WorkflowInput
	fn     func(*types.WorkflowInput) (*types.WorkflowResult, error)
}

func (f *fakeExecutor) ExecuteWorkflow(_ context.Context, input *types.WorkflowInput) (*types.WorkflowResult, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(input)
	}
	return &types.WorkflowResult{
		WorkflowID: uuid.NewString(),
		Success:    true,
		Content:    "done",
	}, nil
}

func (f *fakeExecutor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func newTestEngine(t *testing.T, store *driveStore, exec *fakeExecutor) *Engine {
	t.Helper()
	engine, err := NewEngine(Config{Store: store, Executor: exec})
	require.NoError(t, err)
	return engine
}

func seedDrive(t *testing.T, store *driveStore, state *storage.MotivationalState) *storage.MotivationalState {
	t.Helper()
	if state.ID == "" {
		state.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	state.Active = true
	state.CreatedAt = now
	state.UpdatedAt = now
	require.NoError(t, store.UpsertMotivationalState(context.Background(), state))
	return state
}

func TestDecayDrive(t *testing.T) {
	engine := newTestEngine(t, newDriveStore(), &fakeExecutor{})

	drive := &storage.MotivationalState{Urgency: 0.8, Satisfaction: 0.5, DecayRate: 0.01}
	changed := engine.decayDrive(drive, 2)
	assert.True(t, changed)
	assert.InDelta(t, 0.8*(1-0.02), drive.Urgency, 1e-9)
	assert.InDelta(t, 0.5-DefaultSatisfactionDecay, drive.Satisfaction, 1e-9)

	// Floors are clamped.
	drive = &storage.MotivationalState{Urgency: 0.001, Satisfaction: 0, DecayRate: 1}
	engine.decayDrive(drive, 10)
	assert.Equal(t, 0.0, drive.Urgency)
	assert.Equal(t, 0.0, drive.Satisfaction)
}

func TestTriggerFires(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-5 * time.Minute)
	stale := now.Add(-2 * time.Hour)

	cases := []struct {
		name  string
		drive storage.MotivationalState
		want  bool
	}{
		{"no trigger", storage.MotivationalState{}, false},
		{"always", storage.MotivationalState{
			Trigger: map[string]interface{}{"type": "always"},
		}, true},
		{"interval never fired", storage.MotivationalState{
			Trigger: map[string]interface{}{"type": "interval_elapsed", "interval_minutes": 60},
		}, true},
		{"interval not yet elapsed", storage.MotivationalState{
			Trigger:       map[string]interface{}{"type": "interval_elapsed", "interval_minutes": 60},
			LastTriggered: &recent,
		}, false},
		{"interval elapsed", storage.MotivationalState{
			Trigger:       map[string]interface{}{"type": "interval_elapsed", "interval_minutes": 60},
			LastTriggered: &stale,
		}, true},
		{"satisfaction below threshold", storage.MotivationalState{
			Satisfaction: 0.2,
			Trigger:      map[string]interface{}{"type": "metric_below", "metric": "satisfaction", "threshold": 0.4},
		}, true},
		{"satisfaction above threshold", storage.MotivationalState{
			Satisfaction: 0.6,
			Trigger:      map[string]interface{}{"type": "metric_below", "metric": "satisfaction", "threshold": 0.4},
		}, false},
		{"unknown type", storage.MotivationalState{
			Trigger: map[string]interface{}{"type": "phase_of_moon"},
		}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			drive := tc.drive
			assert.Equal(t, tc.want, triggerFires(&drive, now))
		})
	}
}

func TestAgePenalty(t *testing.T) {
	now := time.Now().UTC()
	assert.Equal(t, 0.0, agePenalty(nil, now))

	half := now.Add(-30 * time.Minute)
	assert.InDelta(t, 0.5, agePenalty(&half, now), 0.01)

	old := now.Add(-90 * time.Minute)
	assert.Equal(t, 0.0, agePenalty(&old, now))
}

func TestTickSpawnsWinnerAndFeedsBack(t *testing.T) {
	store := newDriveStore()
	exec := &fakeExecutor{}
	engine := newTestEngine(t, store, exec)

	seedDrive(t, store, &storage.MotivationalState{
		Kind:         "curiosity",
		Urgency:      0.9,
		Satisfaction: 0.1,
		DecayRate:    0.001,
		Metadata:     map[string]interface{}{"prompt_template": "explore something new today"},
	})

	require.NoError(t, engine.tick(context.Background()))
	engine.workflowsWG.Wait()

	require.Equal(t, 1, exec.count())
	input := exec.inputs[0]
	assert.Equal(t, types.InputUserPrompt, input.Type)
	assert.Equal(t, "explore something new today", input.Content)
	assert.Equal(t, "curiosity", input.Metadata["motivation_type"])

	tasks := store.taskList()
	require.Len(t, tasks, 1)
	assert.Equal(t, types.TaskCompleted, tasks[0].Status)
	assert.Greater(t, tasks[0].ArbitrationScore, DefaultArbitrationThreshold)
	assert.Equal(t, DefaultSatisfactionGain, tasks[0].SatisfactionGain)
	require.NotNil(t, tasks[0].CompletedAt)

	drive := store.drive(t, "curiosity")
	require.NotNil(t, drive.LastTriggered)
	require.NotNil(t, drive.LastSatisfied)
	assert.Equal(t, 1, drive.SuccessCount)
	assert.Equal(t, 1.0, drive.SuccessRate)
	// Decay then the completion gain.
	assert.InDelta(t, 0.1-DefaultSatisfactionDecay+DefaultSatisfactionGain, drive.Satisfaction, 1e-6)
}

func TestSpawnCarriesDriveAgentKind(t *testing.T) {
	store := newDriveStore()
	exec := &fakeExecutor{}
	engine := newTestEngine(t, store, exec)

	seedDrive(t, store, &storage.MotivationalState{
		Kind:         "social_media",
		Urgency:      0.9,
		Satisfaction: 0.1,
		DecayRate:    0.001,
		Metadata: map[string]interface{}{
			"prompt_template": "go look at the feed",
			"agent_kind":      "social_monitor",
		},
	})

	require.NoError(t, engine.tick(context.Background()))
	engine.workflowsWG.Wait()

	require.Equal(t, 1, exec.count())
	assert.Equal(t, "social_monitor", exec.inputs[0].Metadata["agent_kind"])
}

func TestTickBelowThresholdSpawnsNothing(t *testing.T) {
	store := newDriveStore()
	exec := &fakeExecutor{}
	engine := newTestEngine(t, store, exec)

	seedDrive(t, store, &storage.MotivationalState{
		Kind:         "maintenance",
		Urgency:      0.1,
		Satisfaction: 0.95,
		DecayRate:    0.001,
	})

	require.NoError(t, engine.tick(context.Background()))
	engine.workflowsWG.Wait()
	assert.Equal(t, 0, exec.count())
	assert.Empty(t, store.taskList())
}

func TestTickRespectsConcurrencyCap(t *testing.T) {
	store := newDriveStore()
	exec := &fakeExecutor{}
	engine := newTestEngine(t, store, exec)

	drive := seedDrive(t, store, &storage.MotivationalState{
		Kind:    "curiosity",
		Urgency: 0.9,
	})
	store.active[drive.ID] = DefaultMaxConcurrentTasks

	require.NoError(t, engine.tick(context.Background()))
	engine.workflowsWG.Wait()
	assert.Equal(t, 0, exec.count())
}

func TestSafetyGatePassesOverGatedWinner(t *testing.T) {
	store := newDriveStore()
	exec := &fakeExecutor{}
	engine := newTestEngine(t, store, exec)

	// Highest scorer is out of posting budget for the hour.
	seedDrive(t, store, &storage.MotivationalState{
		Kind:    "social_presence",
		Urgency: 1.0,
		Metadata: map[string]interface{}{
			"posts_this_hour":    2,
			"max_posts_per_hour": 2,
		},
	})
	seedDrive(t, store, &storage.MotivationalState{
		Kind:    "curiosity",
		Urgency: 0.7,
	})

	require.NoError(t, engine.tick(context.Background()))
	engine.workflowsWG.Wait()

	require.Equal(t, 1, exec.count())
	assert.Equal(t, "curiosity", exec.inputs[0].Metadata["motivation_type"])
}

func TestFailedWorkflowDebitsDrive(t *testing.T) {
	store := newDriveStore()
	exec := &fakeExecutor{fn: func(*types.WorkflowInput) (*types.WorkflowResult, error) {
		return nil, errors.New("upstream refused")
	}}
	engine := newTestEngine(t, store, exec)

	seedDrive(t, store, &storage.MotivationalState{
		Kind:         "curiosity",
		Urgency:      0.9,
		Satisfaction: 0.4,
	})

	require.NoError(t, engine.tick(context.Background()))
	engine.workflowsWG.Wait()

	tasks := store.taskList()
	require.Len(t, tasks, 1)
	assert.Equal(t, types.TaskFailed, tasks[0].Status)
	assert.Contains(t, tasks[0].StatusReason, "upstream refused")

	drive := store.drive(t, "curiosity")
	assert.Equal(t, 0, drive.SuccessCount)
	assert.Equal(t, 1, drive.FailureCount)
	assert.Equal(t, 0.0, drive.SuccessRate)
	assert.Nil(t, drive.LastSatisfied)
	// No satisfaction credit for a failure.
	assert.Less(t, drive.Satisfaction, 0.4)
}

func TestBoost(t *testing.T) {
	store := newDriveStore()
	engine := newTestEngine(t, store, &fakeExecutor{})
	ctx := context.Background()

	seedDrive(t, store, &storage.MotivationalState{Kind: "curiosity", Urgency: 0.9})
	before := store.upserts

	// Zero amount is a no-op.
	require.NoError(t, engine.Boost(ctx, "curiosity", 0, "ignored", nil))
	assert.Equal(t, before, store.upserts)

	require.NoError(t, engine.Boost(ctx, "curiosity", 0.3, "operator nudge",
		map[string]interface{}{"source": "api"}))
	drive := store.drive(t, "curiosity")
	assert.Equal(t, 1.0, drive.Urgency)
	assert.Equal(t, "api", drive.Metadata["source"])
	boost, ok := drive.Metadata["last_boost"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "operator nudge", boost["reason"])

	err := engine.Boost(ctx, "no-such-drive", 0.2, "", nil)
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))

	err = engine.Boost(ctx, "curiosity", 1.5, "", nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.KindOf(err))
}

func TestStartStopIdempotent(t *testing.T) {
	engine := newTestEngine(t, newDriveStore(), &fakeExecutor{})
	ctx := context.Background()

	require.NoError(t, engine.Start(ctx))
	assert.True(t, engine.Running())

	err := engine.Start(ctx)
	require.Error(t, err)
	assert.Equal(t, types.ErrMotivationalEngine, types.KindOf(err))

	require.NoError(t, engine.Stop(ctx))
	assert.False(t, engine.Running())

	err = engine.Stop(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestConfigure(t *testing.T) {
	engine := newTestEngine(t, newDriveStore(), &fakeExecutor{})

	threshold := 0.5
	maxTasks := 1
	require.NoError(t, engine.Configure(Settings{
		TickIntervalSeconds:  60,
		ArbitrationThreshold: &threshold,
		MaxConcurrentTasks:   &maxTasks,
	}))
	status := engine.Status()
	assert.Equal(t, 60, status.TickIntervalSeconds)
	assert.Equal(t, 0.5, status.ArbitrationThreshold)
	assert.Equal(t, 1, status.MaxConcurrentTasks)

	bad := -0.1
	err := engine.Configure(Settings{ArbitrationThreshold: &bad})
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.KindOf(err))

	zero := 0
	err = engine.Configure(Settings{MaxConcurrentTasks: &zero})
	require.Error(t, err)
}

func TestStatusCounters(t *testing.T) {
	store := newDriveStore()
	exec := &fakeExecutor{}
	engine := newTestEngine(t, store, exec)

	seedDrive(t, store, &storage.MotivationalState{Kind: "curiosity", Urgency: 0.9})

	require.NoError(t, engine.tick(context.Background()))
	engine.workflowsWG.Wait()

	status := engine.Status()
	assert.False(t, status.Running)
	assert.Equal(t, int64(1), status.TicksCompleted)
	assert.Equal(t, int64(1), status.TasksSpawned)
	assert.Equal(t, 1, status.ActiveDrives)
	require.NotNil(t, status.LastTick)
}

func TestRenderPrompt(t *testing.T) {
	withTemplate := &storage.MotivationalState{
		Kind:     "curiosity",
		Metadata: map[string]interface{}{"prompt_template": "go look at the feed"},
	}
	assert.Equal(t, "go look at the feed", renderPrompt(withTemplate))

	bare := &storage.MotivationalState{Kind: "maintenance"}
	assert.Contains(t, renderPrompt(bare), `"maintenance"`)
}

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
	"sync"
	"time"

	"github.com/nyx-labs/nyx/pkg/types"
)

// MonitoringState is the live view of one workflow. It is updated at
// every phase boundary and on every agent completion.
type MonitoringState struct {
	WorkflowID        string               `json:"workflow_id"`
	Stage             types.ExecutionStage `json:"stage"`
	Strategy          types.Strategy       `json:"strategy,omitempty"`
	ProgressPercent   float64              `json:"progress_percent"`
	ActiveAgents      int                  `json:"active_agents"`
	CompletedSubtasks int                  `json:"completed_subtasks"`
	FailedSubtasks    int                  `json:"failed_subtasks"`
	CostConsumedUSD   float64              `json:"cost_consumed_usd"`
	ElapsedMinutes    float64              `json:"elapsed_minutes"`
	RiskFactors       []string             `json:"risk_factors,omitempty"`
	Bottlenecks       []string             `json:"bottlenecks,omitempty"`
	StartedAt         time.Time            `json:"started_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// monitor wraps MonitoringState with a lock and the progress fan-out.
type monitor struct {
	mu       sync.Mutex
	state    MonitoringState
	progress types.ProgressFunc
}

func newMonitor(workflowID string, progress types.ProgressFunc) *monitor {
	now := time.Now().UTC()
	return &monitor{
		state: MonitoringState{
			WorkflowID: workflowID,
			Stage:      types.StageClassifying,
			StartedAt:  now,
			UpdatedAt:  now,
		},
		progress: progress,
	}
}

// phase marks a stage boundary and emits a progress event.
func (m *monitor) phase(stage types.ExecutionStage, percent float64, message string) {
	m.mu.Lock()
	m.state.Stage = stage
	m.state.ProgressPercent = percent
	m.touchLocked()
	event := types.ProgressEvent{
		WorkflowID: m.state.WorkflowID,
		Stage:      stage,
		Message:    message,
		Percent:    percent,
		Timestamp:  m.state.UpdatedAt,
	}
	m.mu.Unlock()

	if m.progress != nil {
		m.progress(event)
	}
}

// observe folds one orchestrator snapshot into the live view.
func (m *monitor) observe(status Status) {
	m.mu.Lock()
	m.state.ActiveAgents = status.ActiveAgents
	m.state.CompletedSubtasks = status.CompletedAgents
	m.state.FailedSubtasks = status.FailedAgents
	m.state.CostConsumedUSD = status.Usage.CostUSD
	m.touchLocked()
	m.mu.Unlock()
}

func (m *monitor) setStrategy(s types.Strategy) {
	m.mu.Lock()
	m.state.Strategy = s
	m.touchLocked()
	m.mu.Unlock()
}

func (m *monitor) addRisk(factor string) {
	m.mu.Lock()
	m.state.RiskFactors = append(m.state.RiskFactors, factor)
	m.touchLocked()
	m.mu.Unlock()
}

func (m *monitor) addBottleneck(b string) {
	m.mu.Lock()
	m.state.Bottlenecks = append(m.state.Bottlenecks, b)
	m.touchLocked()
	m.mu.Unlock()
}

func (m *monitor) touchLocked() {
	now := time.Now().UTC()
	m.state.UpdatedAt = now
	m.state.ElapsedMinutes = now.Sub(m.state.StartedAt).Minutes()
}

// snapshot returns a copy of the state.
func (m *monitor) snapshot() MonitoringState {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.state
	state.RiskFactors = append([]string(nil), m.state.RiskFactors...)
	state.Bottlenecks = append([]string(nil), m.state.Bottlenecks...)
	return state
}

// failureRate is completed-vs-failed so far; 0 before any completion.
func (m *monitor) failureRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := m.state.CompletedSubtasks + m.state.FailedSubtasks
	if total == 0 {
		return 0
	}
	return float64(m.state.FailedSubtasks) / float64(total)
}

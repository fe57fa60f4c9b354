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
package storage

import (
	"time"

	"github.com/nyx-labs/nyx/pkg/types"
)

// ThoughtTree is the root record of one workflow execution. Trees are never
// deleted at runtime, only status-transitioned.
type ThoughtTree struct {
	ID           string                 `json:"id"`
	Goal         string                 `json:"goal"`
	Status       types.TreeStatus       `json:"status"`
	StatusReason string                 `json:"status_reason,omitempty"`
	Depth        int                    `json:"depth"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
}

// AgentRecord is the persisted snapshot of an agent. It is rewritten on
// every lifecycle transition; the live agent object is the in-process
// authority between writes.
type AgentRecord struct {
	ID            string                 `json:"id"`
	ThoughtTreeID string                 `json:"thought_tree_id"`
	Kind          types.AgentKind        `json:"kind"`
	ClassName     string                 `json:"class_name"`
	State         types.AgentState       `json:"state"`
	StatusReason  string                 `json:"status_reason,omitempty"`
	SpawnedBy     string                 `json:"spawned_by,omitempty"`
	Config        map[string]interface{} `json:"config,omitempty"`
	Snapshot      map[string]interface{} `json:"snapshot,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
}

// OrchestratorType distinguishes the workflow entry point from recursive
// decomposition orchestrators.
type OrchestratorType string

const (
	OrchestratorTopLevel OrchestratorType = "top_level"
	OrchestratorSub      OrchestratorType = "sub"
)

// OrchestratorRecord mirrors AgentRecord for orchestrators.
type OrchestratorRecord struct {
	ID                  string                 `json:"id"`
	ParentID            string                 `json:"parent_id,omitempty"`
	ThoughtTreeID       string                 `json:"thought_tree_id"`
	Type                OrchestratorType       `json:"type"`
	Status              string                 `json:"status"`
	ActiveAgents        int                    `json:"active_agents"`
	MaxConcurrentAgents int                    `json:"max_concurrent_agents"`
	GlobalContext       map[string]interface{} `json:"global_context,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// LLMInteraction is one append-only row per model call, success or failure.
type LLMInteraction struct {
	ID                       string    `json:"id"`
	AgentID                  string    `json:"agent_id,omitempty"`
	ThoughtTreeID            string    `json:"thought_tree_id,omitempty"`
	Provider                 string    `json:"provider"`
	Model                    string    `json:"model"`
	SystemPrompt             string    `json:"system_prompt"`
	UserPrompt               string    `json:"user_prompt"`
	Response                 string    `json:"response"`
	RequestedAt              time.Time `json:"requested_at"`
	RespondedAt              time.Time `json:"responded_at"`
	InputTokens              int       `json:"input_tokens"`
	OutputTokens             int       `json:"output_tokens"`
	CacheCreationInputTokens int       `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int       `json:"cache_read_input_tokens"`
	LatencyMs                int64     `json:"latency_ms"`
	CostUSD                  float64   `json:"cost_usd"`
	CostWithoutCacheUSD      float64   `json:"cost_without_cache_usd"`
	Success                  bool      `json:"success"`
	Error                    string    `json:"error,omitempty"`
	RetryCount               int       `json:"retry_count"`
}

// ToolExecution is one append-only row per tool call. The referenced agent
// and thought tree must exist before the row is written.
type ToolExecution struct {
	ID            string                 `json:"id"`
	AgentID       string                 `json:"agent_id"`
	ThoughtTreeID string                 `json:"thought_tree_id"`
	ToolName      string                 `json:"tool_name"`
	ToolClass     string                 `json:"tool_class"`
	Input         map[string]interface{} `json:"input,omitempty"`
	Output        string                 `json:"output,omitempty"`
	Stdout        string                 `json:"stdout,omitempty"`
	Stderr        string                 `json:"stderr,omitempty"`
	Success       bool                   `json:"success"`
	Error         string                 `json:"error,omitempty"`
	DurationMs    int64                  `json:"duration_ms"`
	CreatedAt     time.Time              `json:"created_at"`
}

// MotivationalState is a standing drive. All range-bound floats stay in
// [0,1]; the SQLite schema carries matching CHECK constraints.
type MotivationalState struct {
	ID            string                 `json:"id"`
	Kind          string                 `json:"kind"`
	Urgency       float64                `json:"urgency"`
	Satisfaction  float64                `json:"satisfaction"`
	DecayRate     float64                `json:"decay_rate"`
	BoostFactor   float64                `json:"boost_factor"`
	Trigger       map[string]interface{} `json:"trigger,omitempty"`
	LastTriggered *time.Time             `json:"last_triggered,omitempty"`
	LastSatisfied *time.Time             `json:"last_satisfied,omitempty"`
	SuccessCount  int                    `json:"success_count"`
	FailureCount  int                    `json:"failure_count"`
	SuccessRate   float64                `json:"success_rate"`
	Active        bool                   `json:"active"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// MotivationalTask records one workflow spawned by the motivational engine.
type MotivationalTask struct {
	ID               string                       `json:"id"`
	DriveID          string                       `json:"drive_id"`
	ThoughtTreeID    string                       `json:"thought_tree_id,omitempty"`
	Prompt           string                       `json:"prompt"`
	Priority         types.Priority               `json:"priority"`
	ArbitrationScore float64                      `json:"arbitration_score"`
	Status           types.MotivationalTaskStatus `json:"status"`
	StatusReason     string                       `json:"status_reason,omitempty"`
	OutcomeScore     float64                      `json:"outcome_score"`
	SatisfactionGain float64                      `json:"satisfaction_gain"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
	CompletedAt      *time.Time                   `json:"completed_at,omitempty"`
}

// MemoryScope bounds the visibility of a memory entry.
type MemoryScope string

const (
	ScopeAgent       MemoryScope = "agent"
	ScopeSession     MemoryScope = "session"
	ScopeThoughtTree MemoryScope = "thought_tree"
	ScopeGlobal      MemoryScope = "global"
)

// MemoryKind classifies what a memory entry holds.
type MemoryKind string

const (
	MemoryContext       MemoryKind = "context"
	MemoryLearning      MemoryKind = "learning"
	MemoryCommunication MemoryKind = "communication"
	MemoryDecision      MemoryKind = "decision"
	MemoryPerformance   MemoryKind = "performance"
)

// MemoryEntry is the durable backing row behind the memory agent's LRU.
// Content above the compression threshold is stored zstd-compressed with
// Compressed set.
type MemoryEntry struct {
	ID         string                 `json:"id"`
	Scope      MemoryScope            `json:"scope"`
	ScopeID    string                 `json:"scope_id,omitempty"`
	Kind       MemoryKind             `json:"kind"`
	Key        string                 `json:"key"`
	Content    []byte                 `json:"content"`
	Compressed bool                   `json:"compressed"`
	TokenCount int                    `json:"token_count"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	AccessedAt time.Time              `json:"accessed_at"`
}

// SocialEvaluation records one already-evaluated feed item so the social
// monitor never re-evaluates or double-responds to a post.
type SocialEvaluation struct {
	ID             string    `json:"id"`
	DriveID        string    `json:"drive_id"`
	SourcePlatform string    `json:"source_platform"`
	SourcePostID   string    `json:"source_post_id"`
	Verdict        string    `json:"verdict"`
	Responded      bool      `json:"responded"`
	CreatedAt      time.Time `json:"created_at"`
}

// CostSummary aggregates the LLM interaction ledger.
type CostSummary struct {
	Interactions        int64   `json:"interactions"`
	CacheHits           int64   `json:"cache_hits"`
	InputTokens         int64   `json:"input_tokens"`
	OutputTokens        int64   `json:"output_tokens"`
	CacheReadTokens     int64   `json:"cache_read_tokens"`
	CacheCreationTokens int64   `json:"cache_creation_tokens"`
	CostUSD             float64 `json:"cost_usd"`
	CostWithoutCacheUSD float64 `json:"cost_without_cache_usd"`
}

// CleanupReport counts the records force-transitioned by startup cleanup.
type CleanupReport struct {
	AgentsTerminated    int64 `json:"agents_terminated"`
	TreesCancelled      int64 `json:"trees_cancelled"`
	TasksCancelled      int64 `json:"tasks_cancelled"`
	OrchestratorsClosed int64 `json:"orchestrators_closed"`
}

// Total returns the number of records touched by cleanup.
func (r *CleanupReport) Total() int64 {
	return r.AgentsTerminated + r.TreesCancelled + r.TasksCancelled + r.OrchestratorsClosed
}

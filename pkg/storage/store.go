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

// Package storage defines the durable records of the runtime and the
// Store interface over them. The SQLite implementation lives in the
// sqlite subpackage.
package storage

import (
	"context"
	"fmt"

	"github.com/nyx-labs/nyx/pkg/types"
)

// TreeFilter selects thought trees for listing.
type TreeFilter struct {
	// ActiveOnly keeps only non-terminal statuses.
	ActiveOnly bool
	Limit      int
	Offset     int
}

// MemoryQuery selects memory entries for search.
type MemoryQuery struct {
	Scope   MemoryScope
	ScopeID string
	Kind    MemoryKind
	// Term matches against key and content (substring).
	Term  string
	Limit int
}

// Store is the durable persistence layer. One logical operation acquires
// and releases one database session; sessions are never shared across
// tasks.
type Store interface {
	// Thought trees.
	SaveThoughtTree(ctx context.Context, tree *ThoughtTree) error
	GetThoughtTree(ctx context.Context, id string) (*ThoughtTree, error)
	UpdateThoughtTreeStatus(ctx context.Context, id string, status types.TreeStatus, reason string) error
	ListThoughtTrees(ctx context.Context, filter TreeFilter) ([]*ThoughtTree, error)

	// Agents.
	SaveAgent(ctx context.Context, record *AgentRecord) error
	GetAgent(ctx context.Context, id string) (*AgentRecord, error)

	// Orchestrators.
	SaveOrchestrator(ctx context.Context, record *OrchestratorRecord) error

	// LLM interaction ledger (append-only).
	SaveLLMInteraction(ctx context.Context, row *LLMInteraction) error
	CostSummary(ctx context.Context, thoughtTreeID string) (*CostSummary, error)

	// Tool execution log (append-only).
	SaveToolExecution(ctx context.Context, row *ToolExecution) error

	// Motivational drives.
	UpsertMotivationalState(ctx context.Context, state *MotivationalState) error
	GetMotivationalState(ctx context.Context, kind string) (*MotivationalState, error)
	ListMotivationalStates(ctx context.Context, activeOnly bool) ([]*MotivationalState, error)

	// Motivational tasks.
	SaveMotivationalTask(ctx context.Context, task *MotivationalTask) error
	GetMotivationalTask(ctx context.Context, id string) (*MotivationalTask, error)
	CountActiveMotivationalTasks(ctx context.Context, driveID string) (int, error)

	// Memory entries.
	SaveMemoryEntry(ctx context.Context, entry *MemoryEntry) error
	GetMemoryEntry(ctx context.Context, scope MemoryScope, scopeID, key string) (*MemoryEntry, error)
	SearchMemoryEntries(ctx context.Context, query MemoryQuery) ([]*MemoryEntry, error)
	DeleteMemoryEntry(ctx context.Context, scope MemoryScope, scopeID, key string) error

	// Social monitor bookkeeping.
	SaveSocialEvaluation(ctx context.Context, eval *SocialEvaluation) error
	HasSocialEvaluation(ctx context.Context, platform, postID string) (bool, error)

	// StartupCleanup force-transitions every record left in a
	// non-terminal state by a previous process, tagged with reason
	// "startup_cleanup".
	StartupCleanup(ctx context.Context) (*CleanupReport, error)

	Close() error
}

// CleanupReason tags records force-transitioned at process start.
const CleanupReason = "startup_cleanup"

// ValidateRanges checks the [0,1] invariants of a drive before any
// write. Violating updates are rejected, not clamped, at this layer;
// callers clamp where the arithmetic makes drift possible.
func (m *MotivationalState) ValidateRanges() error {
	check := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s out of range [0,1]: %v", name, v)
		}
		return nil
	}
	if err := check("urgency", m.Urgency); err != nil {
		return err
	}
	if err := check("satisfaction", m.Satisfaction); err != nil {
		return err
	}
	if err := check("decay_rate", m.DecayRate); err != nil {
		return err
	}
	return check("success_rate", m.SuccessRate)
}

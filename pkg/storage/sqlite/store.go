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

// Package sqlite implements storage.Store on SQLite with WAL journaling.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/internal/sqlitedriver"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

// Store persists every runtime entity to a single SQLite database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens (or creates) the database at dbPath and initializes the
// schema. The dbPath should point to $NYX_DATA_DIR/nyx.db.
func NewStore(ctx context.Context, dbPath string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open(sqlitedriver.Name, sqlitedriver.DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if logger == nil {
		logger = zap.NewNop()
	}

	store := &Store{db: db, logger: logger}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// marshalMap serializes a metadata map, defaulting to "{}".
func marshalMap(m map[string]interface{}) string {
	if len(m) == 0 {
		return "{}"
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// unmarshalMap deserializes a metadata column; empty and malformed
// payloads come back nil.
func unmarshalMap(data string) map[string]interface{} {
	if data == "" || data == "{}" {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil
	}
	return m
}

// unixOrZero converts a nullable timestamp for storage.
func unixOrZero(t *time.Time) int64 {
	if t == nil || t.IsZero() {
		return 0
	}
	return t.Unix()
}

// timeOrNil converts a stored Unix-seconds value back to a pointer.
func timeOrNil(unix int64) *time.Time {
	if unix == 0 {
		return nil
	}
	t := time.Unix(unix, 0).UTC()
	return &t
}

// SaveThoughtTree inserts or replaces a tree record.
func (s *Store) SaveThoughtTree(ctx context.Context, tree *storage.ThoughtTree) error {
	if tree.Depth < 1 {
		return fmt.Errorf("thought tree depth must be >= 1, got %d", tree.Depth)
	}
	query := `
		INSERT INTO thought_trees (id, goal, status, status_reason, depth, metadata_json, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			goal = excluded.goal,
			status = excluded.status,
			status_reason = excluded.status_reason,
			metadata_json = excluded.metadata_json,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		tree.ID, tree.Goal, string(tree.Status), tree.StatusReason, tree.Depth,
		marshalMap(tree.Metadata), tree.CreatedAt.Unix(), tree.UpdatedAt.Unix(),
		unixOrZero(tree.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to save thought tree: %w", err)
	}
	return nil
}

// GetThoughtTree retrieves one tree by id.
func (s *Store) GetThoughtTree(ctx context.Context, id string) (*storage.ThoughtTree, error) {
	query := `
		SELECT id, goal, status, status_reason, depth, metadata_json, created_at, updated_at, completed_at
		FROM thought_trees WHERE id = ?
	`
	row := s.db.QueryRowContext(ctx, query, id)
	tree, err := scanThoughtTree(row.Scan)
	if err == sql.ErrNoRows {
		return nil, types.Errorf(types.ErrNotFound, "thought tree not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query thought tree: %w", err)
	}
	return tree, nil
}

func scanThoughtTree(scan func(...interface{}) error) (*storage.ThoughtTree, error) {
	var (
		tree                            storage.ThoughtTree
		status, metadataJSON            string
		createdAt, updatedAt, completed int64
	)
	if err := scan(&tree.ID, &tree.Goal, &status, &tree.StatusReason, &tree.Depth,
		&metadataJSON, &createdAt, &updatedAt, &completed); err != nil {
		return nil, err
	}
	tree.Status = types.TreeStatus(status)
	tree.Metadata = unmarshalMap(metadataJSON)
	tree.CreatedAt = time.Unix(createdAt, 0).UTC()
	tree.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	tree.CompletedAt = timeOrNil(completed)
	return &tree, nil
}

// UpdateThoughtTreeStatus transitions a tree, stamping completed_at when
// the status is terminal.
func (s *Store) UpdateThoughtTreeStatus(ctx context.Context, id string, status types.TreeStatus, reason string) error {
	now := time.Now().Unix()
	completed := int64(0)
	if status.IsTerminal() {
		completed = now
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE thought_trees SET status = ?, status_reason = ?, updated_at = ?, completed_at = ? WHERE id = ?`,
		string(status), reason, now, completed, id)
	if err != nil {
		return fmt.Errorf("failed to update thought tree status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return types.Errorf(types.ErrNotFound, "thought tree not found: %s", id)
	}
	return nil
}

// ListThoughtTrees returns trees matching the filter, newest first.
func (s *Store) ListThoughtTrees(ctx context.Context, filter storage.TreeFilter) ([]*storage.ThoughtTree, error) {
	query := `
		SELECT id, goal, status, status_reason, depth, metadata_json, created_at, updated_at, completed_at
		FROM thought_trees
	`
	var args []interface{}
	if filter.ActiveOnly {
		query += ` WHERE status IN ('pending', 'in_progress')`
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query thought trees: %w", err)
	}
	defer rows.Close()

	trees := make([]*storage.ThoughtTree, 0)
	for rows.Next() {
		tree, err := scanThoughtTree(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thought tree: %w", err)
		}
		trees = append(trees, tree)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating thought trees: %w", err)
	}
	return trees, nil
}

// SaveAgent inserts or replaces an agent snapshot.
func (s *Store) SaveAgent(ctx context.Context, record *storage.AgentRecord) error {
	query := `
		INSERT INTO agents (id, thought_tree_id, kind, class_name, state, status_reason,
			spawned_by, config_json, snapshot_json, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			status_reason = excluded.status_reason,
			snapshot_json = excluded.snapshot_json,
			completed_at = excluded.completed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.ThoughtTreeID, string(record.Kind), record.ClassName,
		string(record.State), record.StatusReason, record.SpawnedBy,
		marshalMap(record.Config), marshalMap(record.Snapshot),
		record.CreatedAt.Unix(), unixOrZero(record.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to save agent: %w", err)
	}
	return nil
}

// GetAgent retrieves one agent snapshot by id.
func (s *Store) GetAgent(ctx context.Context, id string) (*storage.AgentRecord, error) {
	query := `
		SELECT id, thought_tree_id, kind, class_name, state, status_reason,
			spawned_by, config_json, snapshot_json, created_at, completed_at
		FROM agents WHERE id = ?
	`
	var (
		record               storage.AgentRecord
		kind, state          string
		configJSON, snapJSON string
		createdAt, completed int64
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID, &record.ThoughtTreeID, &kind, &record.ClassName, &state,
		&record.StatusReason, &record.SpawnedBy, &configJSON, &snapJSON,
		&createdAt, &completed)
	if err == sql.ErrNoRows {
		return nil, types.Errorf(types.ErrNotFound, "agent not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query agent: %w", err)
	}
	record.Kind = types.AgentKind(kind)
	record.State = types.AgentState(state)
	record.Config = unmarshalMap(configJSON)
	record.Snapshot = unmarshalMap(snapJSON)
	record.CreatedAt = time.Unix(createdAt, 0).UTC()
	record.CompletedAt = timeOrNil(completed)
	return &record, nil
}

// SaveOrchestrator inserts or replaces an orchestrator record.
func (s *Store) SaveOrchestrator(ctx context.Context, record *storage.OrchestratorRecord) error {
	query := `
		INSERT INTO orchestrators (id, parent_id, thought_tree_id, type, status,
			active_agents, max_concurrent_agents, global_context_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			active_agents = excluded.active_agents,
			global_context_json = excluded.global_context_json,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.ParentID, record.ThoughtTreeID, string(record.Type),
		record.Status, record.ActiveAgents, record.MaxConcurrentAgents,
		marshalMap(record.GlobalContext), record.CreatedAt.Unix(), record.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save orchestrator: %w", err)
	}
	return nil
}

// SaveLLMInteraction appends one row to the interaction ledger.
func (s *Store) SaveLLMInteraction(ctx context.Context, row *storage.LLMInteraction) error {
	query := `
		INSERT INTO llm_interactions (id, agent_id, thought_tree_id, provider, model,
			system_prompt, user_prompt, response, requested_at, responded_at,
			input_tokens, output_tokens, cache_creation_input_tokens, cache_read_input_tokens,
			latency_ms, cost_usd, cost_without_cache_usd, success, error, retry_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		row.ID, row.AgentID, row.ThoughtTreeID, row.Provider, row.Model,
		row.SystemPrompt, row.UserPrompt, row.Response,
		row.RequestedAt.Unix(), row.RespondedAt.Unix(),
		row.InputTokens, row.OutputTokens, row.CacheCreationInputTokens,
		row.CacheReadInputTokens, row.LatencyMs, row.CostUSD,
		row.CostWithoutCacheUSD, row.Success, row.Error, row.RetryCount)
	if err != nil {
		return fmt.Errorf("failed to save llm interaction: %w", err)
	}
	return nil
}

// CostSummary aggregates the ledger for one thought tree, or process-wide
// when thoughtTreeID is empty.
func (s *Store) CostSummary(ctx context.Context, thoughtTreeID string) (*storage.CostSummary, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN cache_read_input_tokens > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(SUM(cache_read_input_tokens), 0),
			COALESCE(SUM(cache_creation_input_tokens), 0),
			COALESCE(SUM(cost_usd), 0),
			COALESCE(SUM(cost_without_cache_usd), 0)
		FROM llm_interactions
	`
	var args []interface{}
	if thoughtTreeID != "" {
		query += ` WHERE thought_tree_id = ?`
		args = append(args, thoughtTreeID)
	}

	var summary storage.CostSummary
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&summary.Interactions, &summary.CacheHits,
		&summary.InputTokens, &summary.OutputTokens,
		&summary.CacheReadTokens, &summary.CacheCreationTokens,
		&summary.CostUSD, &summary.CostWithoutCacheUSD)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost summary: %w", err)
	}
	return &summary, nil
}

// SaveToolExecution appends one row to the tool log. The referenced
// agent and thought tree must already exist.
func (s *Store) SaveToolExecution(ctx context.Context, row *storage.ToolExecution) error {
	query := `
		INSERT INTO tool_executions (id, agent_id, thought_tree_id, tool_name, tool_class,
			input_json, output, stdout, stderr, success, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		row.ID, row.AgentID, row.ThoughtTreeID, row.ToolName, row.ToolClass,
		marshalMap(row.Input), row.Output, row.Stdout, row.Stderr,
		row.Success, row.Error, row.DurationMs, row.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save tool execution: %w", err)
	}
	return nil
}

// UpsertMotivationalState writes a drive, keyed by kind. Range-violating
// values are rejected before touching the database.
func (s *Store) UpsertMotivationalState(ctx context.Context, state *storage.MotivationalState) error {
	if err := state.ValidateRanges(); err != nil {
		return types.WrapError(types.ErrValidation, err, "motivational state rejected")
	}
	query := `
		INSERT INTO motivational_states (id, kind, urgency, satisfaction, decay_rate,
			boost_factor, trigger_json, last_triggered, last_satisfied,
			success_count, failure_count, success_rate, active, metadata_json,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET
			urgency = excluded.urgency,
			satisfaction = excluded.satisfaction,
			decay_rate = excluded.decay_rate,
			boost_factor = excluded.boost_factor,
			trigger_json = excluded.trigger_json,
			last_triggered = excluded.last_triggered,
			last_satisfied = excluded.last_satisfied,
			success_count = excluded.success_count,
			failure_count = excluded.failure_count,
			success_rate = excluded.success_rate,
			active = excluded.active,
			metadata_json = excluded.metadata_json,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		state.ID, state.Kind, state.Urgency, state.Satisfaction, state.DecayRate,
		state.BoostFactor, marshalMap(state.Trigger),
		unixOrZero(state.LastTriggered), unixOrZero(state.LastSatisfied),
		state.SuccessCount, state.FailureCount, state.SuccessRate,
		state.Active, marshalMap(state.Metadata),
		state.CreatedAt.Unix(), state.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert motivational state: %w", err)
	}
	return nil
}

const motivationalStateColumns = `
	id, kind, urgency, satisfaction, decay_rate, boost_factor, trigger_json,
	last_triggered, last_satisfied, success_count, failure_count, success_rate,
	active, metadata_json, created_at, updated_at
`

func scanMotivationalState(scan func(...interface{}) error) (*storage.MotivationalState, error) {
	var (
		state                     storage.MotivationalState
		triggerJSON, metadataJSON string
		lastTriggered, lastSat    int64
		createdAt, updatedAt      int64
	)
	if err := scan(&state.ID, &state.Kind, &state.Urgency, &state.Satisfaction,
		&state.DecayRate, &state.BoostFactor, &triggerJSON,
		&lastTriggered, &lastSat, &state.SuccessCount, &state.FailureCount,
		&state.SuccessRate, &state.Active, &metadataJSON,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	state.Trigger = unmarshalMap(triggerJSON)
	state.Metadata = unmarshalMap(metadataJSON)
	state.LastTriggered = timeOrNil(lastTriggered)
	state.LastSatisfied = timeOrNil(lastSat)
	state.CreatedAt = time.Unix(createdAt, 0).UTC()
	state.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &state, nil
}

// GetMotivationalState retrieves one drive by kind.
func (s *Store) GetMotivationalState(ctx context.Context, kind string) (*storage.MotivationalState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+motivationalStateColumns+` FROM motivational_states WHERE kind = ?`, kind)
	state, err := scanMotivationalState(row.Scan)
	if err == sql.ErrNoRows {
		return nil, types.Errorf(types.ErrNotFound, "motivational state not found: %s", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query motivational state: %w", err)
	}
	return state, nil
}

// ListMotivationalStates returns all drives, optionally active only.
func (s *Store) ListMotivationalStates(ctx context.Context, activeOnly bool) ([]*storage.MotivationalState, error) {
	query := `SELECT ` + motivationalStateColumns + ` FROM motivational_states`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY kind`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query motivational states: %w", err)
	}
	defer rows.Close()

	states := make([]*storage.MotivationalState, 0)
	for rows.Next() {
		state, err := scanMotivationalState(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan motivational state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating motivational states: %w", err)
	}
	return states, nil
}

// SaveMotivationalTask inserts or replaces an engine-spawned task.
func (s *Store) SaveMotivationalTask(ctx context.Context, task *storage.MotivationalTask) error {
	query := `
		INSERT INTO motivational_tasks (id, drive_id, thought_tree_id, prompt, priority,
			arbitration_score, status, status_reason, outcome_score, satisfaction_gain,
			created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			thought_tree_id = excluded.thought_tree_id,
			status = excluded.status,
			status_reason = excluded.status_reason,
			outcome_score = excluded.outcome_score,
			satisfaction_gain = excluded.satisfaction_gain,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID, task.DriveID, task.ThoughtTreeID, task.Prompt, string(task.Priority),
		task.ArbitrationScore, string(task.Status), task.StatusReason,
		task.OutcomeScore, task.SatisfactionGain,
		task.CreatedAt.Unix(), task.UpdatedAt.Unix(), unixOrZero(task.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to save motivational task: %w", err)
	}
	return nil
}

// GetMotivationalTask retrieves one task by id.
func (s *Store) GetMotivationalTask(ctx context.Context, id string) (*storage.MotivationalTask, error) {
	query := `
		SELECT id, drive_id, thought_tree_id, prompt, priority, arbitration_score,
			status, status_reason, outcome_score, satisfaction_gain,
			created_at, updated_at, completed_at
		FROM motivational_tasks WHERE id = ?
	`
	var (
		task                            storage.MotivationalTask
		priority, status                string
		createdAt, updatedAt, completed int64
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID, &task.DriveID, &task.ThoughtTreeID, &task.Prompt, &priority,
		&task.ArbitrationScore, &status, &task.StatusReason,
		&task.OutcomeScore, &task.SatisfactionGain,
		&createdAt, &updatedAt, &completed)
	if err == sql.ErrNoRows {
		return nil, types.Errorf(types.ErrNotFound, "motivational task not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query motivational task: %w", err)
	}
	task.Priority = types.Priority(priority)
	task.Status = types.MotivationalTaskStatus(status)
	task.CreatedAt = time.Unix(createdAt, 0).UTC()
	task.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	task.CompletedAt = timeOrNil(completed)
	return &task, nil
}

// CountActiveMotivationalTasks counts non-terminal tasks for a drive.
func (s *Store) CountActiveMotivationalTasks(ctx context.Context, driveID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM motivational_tasks
		 WHERE drive_id = ? AND status IN ('generated', 'queued', 'spawned', 'active')`,
		driveID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active tasks: %w", err)
	}
	return count, nil
}

// SaveMemoryEntry inserts or replaces a memory entry keyed by
// (scope, scope_id, key).
func (s *Store) SaveMemoryEntry(ctx context.Context, entry *storage.MemoryEntry) error {
	query := `
		INSERT INTO memory_entries (id, scope, scope_id, kind, key, content, compressed,
			token_count, metadata_json, created_at, updated_at, accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scope, scope_id, key) DO UPDATE SET
			kind = excluded.kind,
			content = excluded.content,
			compressed = excluded.compressed,
			token_count = excluded.token_count,
			metadata_json = excluded.metadata_json,
			updated_at = excluded.updated_at,
			accessed_at = excluded.accessed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, string(entry.Scope), entry.ScopeID, string(entry.Kind), entry.Key,
		entry.Content, entry.Compressed, entry.TokenCount, marshalMap(entry.Metadata),
		entry.CreatedAt.Unix(), entry.UpdatedAt.Unix(), entry.AccessedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save memory entry: %w", err)
	}
	return nil
}

const memoryColumns = `
	id, scope, scope_id, kind, key, content, compressed, token_count,
	metadata_json, created_at, updated_at, accessed_at
`

func scanMemoryEntry(scan func(...interface{}) error) (*storage.MemoryEntry, error) {
	var (
		entry                          storage.MemoryEntry
		scope, kind, metadataJSON      string
		createdAt, updatedAt, accessed int64
	)
	if err := scan(&entry.ID, &scope, &entry.ScopeID, &kind, &entry.Key,
		&entry.Content, &entry.Compressed, &entry.TokenCount, &metadataJSON,
		&createdAt, &updatedAt, &accessed); err != nil {
		return nil, err
	}
	entry.Scope = storage.MemoryScope(scope)
	entry.Kind = storage.MemoryKind(kind)
	entry.Metadata = unmarshalMap(metadataJSON)
	entry.CreatedAt = time.Unix(createdAt, 0).UTC()
	entry.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	entry.AccessedAt = time.Unix(accessed, 0).UTC()
	return &entry, nil
}

// GetMemoryEntry retrieves one entry and touches its access time.
func (s *Store) GetMemoryEntry(ctx context.Context, scope storage.MemoryScope, scopeID, key string) (*storage.MemoryEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memoryColumns+` FROM memory_entries WHERE scope = ? AND scope_id = ? AND key = ?`,
		string(scope), scopeID, key)
	entry, err := scanMemoryEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, types.Errorf(types.ErrNotFound, "memory entry not found: %s/%s/%s", scope, scopeID, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query memory entry: %w", err)
	}
	_, _ = s.db.ExecContext(ctx,
		`UPDATE memory_entries SET accessed_at = ? WHERE id = ?`,
		time.Now().Unix(), entry.ID)
	return entry, nil
}

// SearchMemoryEntries returns entries matching the query, most recently
// updated first. Term matching is substring over key and content.
func (s *Store) SearchMemoryEntries(ctx context.Context, query storage.MemoryQuery) ([]*storage.MemoryEntry, error) {
	sqlQuery := `SELECT ` + memoryColumns + ` FROM memory_entries WHERE scope = ? AND scope_id = ?`
	args := []interface{}{string(query.Scope), query.ScopeID}
	if query.Kind != "" {
		sqlQuery += ` AND kind = ?`
		args = append(args, string(query.Kind))
	}
	if query.Term != "" {
		// Content search only covers uncompressed rows; compressed
		// payloads match on key alone.
		sqlQuery += ` AND (key LIKE ? OR (compressed = 0 AND content LIKE ?))`
		pattern := "%" + query.Term + "%"
		args = append(args, pattern, pattern)
	}
	sqlQuery += ` ORDER BY updated_at DESC`
	if query.Limit > 0 {
		sqlQuery += ` LIMIT ?`
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search memory entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*storage.MemoryEntry, 0)
	for rows.Next() {
		entry, err := scanMemoryEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memory entries: %w", err)
	}
	return entries, nil
}

// DeleteMemoryEntry removes one entry.
func (s *Store) DeleteMemoryEntry(ctx context.Context, scope storage.MemoryScope, scopeID, key string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM memory_entries WHERE scope = ? AND scope_id = ? AND key = ?`,
		string(scope), scopeID, key)
	if err != nil {
		return fmt.Errorf("failed to delete memory entry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return types.Errorf(types.ErrNotFound, "memory entry not found: %s/%s/%s", scope, scopeID, key)
	}
	return nil
}

// SaveSocialEvaluation records one evaluated feed item. Duplicate
// (platform, post) pairs update the verdict in place.
func (s *Store) SaveSocialEvaluation(ctx context.Context, eval *storage.SocialEvaluation) error {
	query := `
		INSERT INTO social_evaluations (id, drive_id, source_platform, source_post_id,
			verdict, responded, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_platform, source_post_id) DO UPDATE SET
			verdict = excluded.verdict,
			responded = excluded.responded
	`
	_, err := s.db.ExecContext(ctx, query,
		eval.ID, eval.DriveID, eval.SourcePlatform, eval.SourcePostID,
		eval.Verdict, eval.Responded, eval.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save social evaluation: %w", err)
	}
	return nil
}

// HasSocialEvaluation reports whether a feed item was already evaluated.
func (s *Store) HasSocialEvaluation(ctx context.Context, platform, postID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM social_evaluations WHERE source_platform = ? AND source_post_id = ?`,
		platform, postID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query social evaluation: %w", err)
	}
	return count > 0, nil
}

// StartupCleanup force-transitions every record a previous process left
// in a non-terminal state. Runs once before any workflow starts.
func (s *Store) StartupCleanup(ctx context.Context) (*storage.CleanupReport, error) {
	now := time.Now().Unix()
	report := &storage.CleanupReport{}

	steps := []struct {
		query string
		args  []interface{}
		count *int64
	}{
		{
			query: `UPDATE agents SET state = 'terminated', status_reason = ?, completed_at = ?
				WHERE state NOT IN ('completed', 'failed', 'terminated')`,
			args:  []interface{}{storage.CleanupReason, now},
			count: &report.AgentsTerminated,
		},
		{
			query: `UPDATE thought_trees SET status = 'cancelled', status_reason = ?, updated_at = ?, completed_at = ?
				WHERE status NOT IN ('completed', 'failed', 'cancelled')`,
			args:  []interface{}{storage.CleanupReason, now, now},
			count: &report.TreesCancelled,
		},
		{
			query: `UPDATE motivational_tasks SET status = 'cancelled', status_reason = ?, updated_at = ?, completed_at = ?
				WHERE status NOT IN ('completed', 'failed', 'cancelled')`,
			args:  []interface{}{storage.CleanupReason, now, now},
			count: &report.TasksCancelled,
		},
		{
			query: `UPDATE orchestrators SET status = 'terminated', active_agents = 0, updated_at = ?
				WHERE status NOT IN ('completed', 'failed', 'terminated')`,
			args:  []interface{}{now},
			count: &report.OrchestratorsClosed,
		},
	}

	for _, step := range steps {
		result, err := s.db.ExecContext(ctx, step.query, step.args...)
		if err != nil {
			return nil, fmt.Errorf("startup cleanup failed: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		*step.count = rows
	}

	if report.Total() > 0 {
		s.logger.Warn("startup cleanup transitioned stale records",
			zap.Int64("agents_terminated", report.AgentsTerminated),
			zap.Int64("trees_cancelled", report.TreesCancelled),
			zap.Int64("tasks_cancelled", report.TasksCancelled),
			zap.Int64("orchestrators_closed", report.OrchestratorsClosed))
	}
	return report, nil
}

var _ storage.Store = (*Store)(nil)

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
package sqlite

// schema creates every table on open. Timestamps persist as Unix seconds
// (0 = unset for nullable columns); range invariants on drive floats are
// enforced with CHECK constraints in addition to the in-code validation.
const schema = `
CREATE TABLE IF NOT EXISTS thought_trees (
	id TEXT PRIMARY KEY,
	goal TEXT NOT NULL,
	status TEXT NOT NULL,
	status_reason TEXT DEFAULT '',
	depth INTEGER NOT NULL CHECK (depth >= 1),
	metadata_json TEXT DEFAULT '{}',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	completed_at INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_trees_status ON thought_trees(status);
CREATE INDEX IF NOT EXISTS idx_trees_created_at ON thought_trees(created_at);

CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	thought_tree_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	class_name TEXT NOT NULL,
	state TEXT NOT NULL,
	status_reason TEXT DEFAULT '',
	spawned_by TEXT DEFAULT '',
	config_json TEXT DEFAULT '{}',
	snapshot_json TEXT DEFAULT '{}',
	created_at INTEGER NOT NULL,
	completed_at INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_agents_state ON agents(state);
CREATE INDEX IF NOT EXISTS idx_agents_tree ON agents(thought_tree_id);
CREATE INDEX IF NOT EXISTS idx_agents_created_at ON agents(created_at);

CREATE TABLE IF NOT EXISTS orchestrators (
	id TEXT PRIMARY KEY,
	parent_id TEXT DEFAULT '',
	thought_tree_id TEXT NOT NULL,
	type TEXT NOT NULL,
	status TEXT NOT NULL,
	active_agents INTEGER DEFAULT 0,
	max_concurrent_agents INTEGER DEFAULT 0,
	global_context_json TEXT DEFAULT '{}',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orchestrators_tree ON orchestrators(thought_tree_id);
CREATE INDEX IF NOT EXISTS idx_orchestrators_status ON orchestrators(status);

CREATE TABLE IF NOT EXISTS llm_interactions (
	id TEXT PRIMARY KEY,
	agent_id TEXT DEFAULT '',
	thought_tree_id TEXT DEFAULT '',
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	system_prompt TEXT DEFAULT '',
	user_prompt TEXT DEFAULT '',
	response TEXT DEFAULT '',
	requested_at INTEGER NOT NULL,
	responded_at INTEGER NOT NULL,
	input_tokens INTEGER DEFAULT 0,
	output_tokens INTEGER DEFAULT 0,
	cache_creation_input_tokens INTEGER DEFAULT 0,
	cache_read_input_tokens INTEGER DEFAULT 0,
	latency_ms INTEGER DEFAULT 0,
	cost_usd REAL DEFAULT 0,
	cost_without_cache_usd REAL DEFAULT 0,
	success INTEGER NOT NULL,
	error TEXT DEFAULT '',
	retry_count INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_interactions_tree ON llm_interactions(thought_tree_id);
CREATE INDEX IF NOT EXISTS idx_interactions_requested_at ON llm_interactions(requested_at);

CREATE TABLE IF NOT EXISTS tool_executions (
	id TEXT PRIMARY KEY,
	agent_id TEXT NOT NULL REFERENCES agents(id),
	thought_tree_id TEXT NOT NULL REFERENCES thought_trees(id),
	tool_name TEXT NOT NULL,
	tool_class TEXT DEFAULT '',
	input_json TEXT DEFAULT '{}',
	output TEXT DEFAULT '',
	stdout TEXT DEFAULT '',
	stderr TEXT DEFAULT '',
	success INTEGER NOT NULL,
	error TEXT DEFAULT '',
	duration_ms INTEGER DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tools_tree ON tool_executions(thought_tree_id);
CREATE INDEX IF NOT EXISTS idx_tools_created_at ON tool_executions(created_at);

CREATE TABLE IF NOT EXISTS motivational_states (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL UNIQUE,
	urgency REAL NOT NULL CHECK (urgency >= 0 AND urgency <= 1),
	satisfaction REAL NOT NULL CHECK (satisfaction >= 0 AND satisfaction <= 1),
	decay_rate REAL NOT NULL CHECK (decay_rate >= 0 AND decay_rate <= 1),
	boost_factor REAL DEFAULT 0,
	trigger_json TEXT DEFAULT '{}',
	last_triggered INTEGER DEFAULT 0,
	last_satisfied INTEGER DEFAULT 0,
	success_count INTEGER DEFAULT 0,
	failure_count INTEGER DEFAULT 0,
	success_rate REAL NOT NULL CHECK (success_rate >= 0 AND success_rate <= 1),
	active INTEGER NOT NULL DEFAULT 1,
	metadata_json TEXT DEFAULT '{}',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_states_kind ON motivational_states(kind);

CREATE TABLE IF NOT EXISTS motivational_tasks (
	id TEXT PRIMARY KEY,
	drive_id TEXT NOT NULL,
	thought_tree_id TEXT DEFAULT '',
	prompt TEXT NOT NULL,
	priority TEXT DEFAULT 'medium',
	arbitration_score REAL DEFAULT 0,
	status TEXT NOT NULL CHECK (status IN
		('generated','queued','spawned','active','completed','failed','cancelled')),
	status_reason TEXT DEFAULT '',
	outcome_score REAL DEFAULT 0,
	satisfaction_gain REAL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	completed_at INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON motivational_tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_drive ON motivational_tasks(drive_id);

CREATE TABLE IF NOT EXISTS memory_entries (
	id TEXT PRIMARY KEY,
	scope TEXT NOT NULL,
	scope_id TEXT DEFAULT '',
	kind TEXT NOT NULL,
	key TEXT NOT NULL,
	content BLOB,
	compressed INTEGER DEFAULT 0,
	token_count INTEGER DEFAULT 0,
	metadata_json TEXT DEFAULT '{}',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	accessed_at INTEGER NOT NULL,
	UNIQUE(scope, scope_id, key)
);

CREATE INDEX IF NOT EXISTS idx_memory_scope ON memory_entries(scope, scope_id);

CREATE TABLE IF NOT EXISTS social_evaluations (
	id TEXT PRIMARY KEY,
	drive_id TEXT DEFAULT '',
	source_platform TEXT NOT NULL,
	source_post_id TEXT NOT NULL,
	verdict TEXT DEFAULT '',
	responded INTEGER DEFAULT 0,
	created_at INTEGER NOT NULL,
	UNIQUE(source_platform, source_post_id)
);

CREATE INDEX IF NOT EXISTS idx_social_source ON social_evaluations(source_platform, source_post_id);
`

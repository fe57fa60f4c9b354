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
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nyx-labs/nyx/pkg/types"
)

// executeResponse is the workflow execution envelope.
type executeResponse struct {
	Success         bool                   `json:"success"`
	Content         string                 `json:"content"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	ExecutionTimeMs int64                  `json:"execution_time_ms"`
	CostUSD         float64                `json:"cost_usd"`
	WorkflowID      string                 `json:"workflow_id"`
	Timestamp       time.Time              `json:"timestamp"`
}

func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	var input types.WorkflowInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeStatusError(w, r, http.StatusBadRequest, "validation", "malformed request body: "+err.Error())
		return
	}

	result, err := s.cfg.Orchestrator.ExecuteWorkflow(r.Context(), &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, executeResponse{
		Success:         result.Success,
		Content:         result.Content,
		Metadata:        result.Metadata,
		ExecutionTimeMs: result.ExecutionTimeMs,
		CostUSD:         result.Usage.CostUSD,
		WorkflowID:      result.WorkflowID,
		Timestamp:       result.Timestamp,
	})
}

// archivedWorkflow is the persisted view of a workflow the in-memory
// registry no longer holds, typically after a restart.
type archivedWorkflow struct {
	WorkflowID   string           `json:"workflow_id"`
	Goal         string           `json:"goal"`
	Status       types.TreeStatus `json:"status"`
	StatusReason string           `json:"status_reason,omitempty"`
	Active       bool             `json:"active"`
	Archived     bool             `json:"archived"`
	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

func (s *Server) handleWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if status, ok := s.cfg.Orchestrator.WorkflowStatus(id); ok {
		s.writeJSON(w, http.StatusOK, status)
		return
	}

	// The workflow id doubles as its thought tree id; finished workflows
	// stay queryable from the store across restarts.
	if s.cfg.Trees != nil {
		if tree, err := s.cfg.Trees.GetThoughtTree(r.Context(), id); err == nil {
			s.writeJSON(w, http.StatusOK, archivedWorkflow{
				WorkflowID:   tree.ID,
				Goal:         tree.Goal,
				Status:       tree.Status,
				StatusReason: tree.StatusReason,
				Active:       tree.Status == types.TreeInProgress,
				Archived:     true,
				CreatedAt:    tree.CreatedAt,
				CompletedAt:  tree.CompletedAt,
			})
			return
		}
	}
	s.writeError(w, r, types.Errorf(types.ErrNotFound, "workflow %s not found", id))
}

func (s *Server) handleActiveWorkflows(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	if limit < 1 || limit > 200 || offset < 0 {
		s.writeStatusError(w, r, http.StatusBadRequest, "validation", "limit must be in [1,200] and offset non-negative")
		return
	}
	workflows := s.cfg.Orchestrator.ActiveWorkflows(limit, offset)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"workflows": workflows,
		"count":     len(workflows),
		"limit":     limit,
		"offset":    offset,
	})
}

// handleWorkflowEvents attaches the caller to the workflow's SSE stream.
func (s *Server) handleWorkflowEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.cfg.Orchestrator.WorkflowStatus(id); !ok {
		s.writeError(w, r, types.Errorf(types.ErrNotFound, "workflow %s not found", id))
		return
	}
	s.events.serve(w, r, id)
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"strategies": types.Strategies()})
}

func (s *Server) handleInputTypes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"input_types": types.InputTypes()})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

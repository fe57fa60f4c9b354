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

	"github.com/go-chi/chi/v5"

	"github.com/nyx-labs/nyx/pkg/motivation"
	"github.com/nyx-labs/nyx/pkg/types"
)

func (s *Server) requireEngine(w http.ResponseWriter, r *http.Request) bool {
	if s.cfg.Engine == nil {
		s.writeError(w, r, types.NewError(types.ErrMotivationalEngine, "motivational engine not configured"))
		return false
	}
	return true
}

func (s *Server) handleEngineStart(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w, r) {
		return
	}
	if err := s.cfg.Engine.Start(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.cfg.Engine.Status())
}

func (s *Server) handleEngineStop(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w, r) {
		return
	}
	if err := s.cfg.Engine.Stop(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.cfg.Engine.Status())
}

func (s *Server) handleEngineConfig(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w, r) {
		return
	}
	var settings motivation.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		s.writeStatusError(w, r, http.StatusBadRequest, "validation", "malformed request body: "+err.Error())
		return
	}
	if err := s.cfg.Engine.Configure(settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.cfg.Engine.Status())
}

func (s *Server) handleEngineStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w, r) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.cfg.Engine.Status())
}

func (s *Server) handleListStates(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Drives == nil {
		s.writeError(w, r, types.NewError(types.ErrMotivationalEngine, "drive storage not configured"))
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"
	states, err := s.cfg.Drives.ListMotivationalStates(r.Context(), activeOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"states": states,
		"count":  len(states),
	})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Drives == nil {
		s.writeError(w, r, types.NewError(types.ErrMotivationalEngine, "drive storage not configured"))
		return
	}
	state, err := s.cfg.Drives.GetMotivationalState(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

type boostRequest struct {
	Amount   float64                `json:"amount"`
	Reason   string                 `json:"reason,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (s *Server) handleBoost(w http.ResponseWriter, r *http.Request) {
	if !s.requireEngine(w, r) {
		return
	}
	var req boostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeStatusError(w, r, http.StatusBadRequest, "validation", "malformed request body: "+err.Error())
		return
	}
	kind := chi.URLParam(r, "type")
	if err := s.cfg.Engine.Boost(r.Context(), kind, req.Amount, req.Reason, req.Metadata); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"boosted": req.Amount != 0,
		"type":    kind,
		"amount":  req.Amount,
	})
}

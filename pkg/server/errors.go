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
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/pkg/types"
)

// errorEnvelope is the uniform error body.
type errorEnvelope struct {
	Error     bool                   `json:"error"`
	ErrorCode string                 `json:"error_code"`
	Detail    string                 `json:"detail"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Path      string                 `json:"path"`
}

// statusForKind maps domain error kinds onto HTTP statuses.
func statusForKind(kind types.ErrorKind) int {
	switch kind {
	case types.ErrValidation:
		return http.StatusBadRequest
	case types.ErrNotFound:
		return http.StatusNotFound
	case types.ErrLLMIntegration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := types.KindOf(err)
	status := statusForKind(kind)

	var metadata map[string]interface{}
	var de *types.DomainError
	if errors.As(err, &de) {
		metadata = de.Metadata
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}

	s.writeJSON(w, status, errorEnvelope{
		Error:     true,
		ErrorCode: string(kind),
		Detail:    err.Error(),
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
	})
}

// writeStatusError emits an envelope with an explicit status, for errors
// with no domain kind (auth, malformed bodies).
func (s *Server) writeStatusError(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	s.writeJSON(w, status, errorEnvelope{
		Error:     true,
		ErrorCode: code,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("response encoding failed", zap.Error(err))
	}
}

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
	"sync"

	"github.com/r3labs/sse/v2"

	"github.com/nyx-labs/nyx/pkg/types"
)

// eventHub fans workflow progress events out to SSE subscribers, one
// stream per workflow id.
type eventHub struct {
	mu     sync.Mutex
	server *sse.Server
	closed bool
}

func newEventHub() *eventHub {
	server := sse.New()
	server.AutoReplay = true
	server.AutoStream = false
	return &eventHub{server: server}
}

// publish drops events silently after close; late agent completions must
// not panic the hub.
func (h *eventHub) publish(event types.ProgressEvent) {
	if event.WorkflowID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if !h.server.StreamExists(event.WorkflowID) {
		h.server.CreateStream(event.WorkflowID)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.server.Publish(event.WorkflowID, &sse.Event{
		Event: []byte("progress"),
		Data:  data,
	})
}

// serve attaches a subscriber to the workflow's stream.
func (h *eventHub) serve(w http.ResponseWriter, r *http.Request, workflowID string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	if !h.server.StreamExists(workflowID) {
		h.server.CreateStream(workflowID)
	}
	h.mu.Unlock()

	q := r.URL.Query()
	q.Set("stream", workflowID)
	r.URL.RawQuery = q.Encode()
	h.server.ServeHTTP(w, r)
}

func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.server.Close()
}

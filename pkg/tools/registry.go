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
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/pkg/storage"
)

// ExecutionStore receives the per-call audit rows. The SQLite store
// satisfies this; a nil store disables recording.
type ExecutionStore interface {
	SaveToolExecution(ctx context.Context, row *storage.ToolExecution) error
}

// Caller identifies who is invoking a tool, for the audit log.
type Caller struct {
	AgentID       string
	ThoughtTreeID string
}

// RegistryConfig configures the tool registry.
type RegistryConfig struct {
	// Store receives ToolExecution rows. Optional.
	Store ExecutionStore

	// DefaultTimeout bounds a single tool call. Defaults to 30s.
	DefaultTimeout time.Duration

	// Logger for registry diagnostics. Defaults to a no-op.
	Logger *zap.Logger
}

const executionLogBuffer = 256

// Registry holds the registered tools and mediates every call: schema
// validation, timeout enforcement, and asynchronous audit logging.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*gojsonschema.Schema

	store   ExecutionStore
	timeout time.Duration
	logger  *zap.Logger

	writeCh chan *storage.ToolExecution
	writeWg sync.WaitGroup
	closed  chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	r := &Registry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*gojsonschema.Schema),
		store:   cfg.Store,
		timeout: cfg.DefaultTimeout,
		logger:  cfg.Logger,
		writeCh: make(chan *storage.ToolExecution, executionLogBuffer),
		closed:  make(chan struct{}),
	}
	if r.store != nil {
		r.writeWg.Add(1)
		go r.writeLoop()
	}
	return r
}

// Register adds a tool. Re-registering a name replaces the previous tool.
func (r *Registry) Register(tool Tool) error {
	schemaJSON, err := tool.InputSchema().ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize schema for %s: %w", tool.Name(), err)
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("invalid schema for %s: %w", tool.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
	r.schemas[tool.Name()] = compiled
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns the registered tool names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs a named tool. Arguments are validated against the tool's
// schema before the tool sees them; the call runs under the registry
// timeout; the outcome is recorded regardless of success. Execute never
// returns a Go error for tool-level failures, only for registry misuse.
func (r *Registry) Execute(ctx context.Context, caller Caller, name string, params map[string]interface{}) (*Result, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	schema := r.schemas[name]
	r.mu.RUnlock()

	start := time.Now()
	if !ok {
		result := Failure(CodeUnknownTool, fmt.Sprintf("tool not registered: %s", name))
		r.record(caller, name, "", params, result, start)
		return result, nil
	}

	if params == nil {
		params = map[string]interface{}{}
	}
	validation, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		result := Failure(CodeInvalidParams, fmt.Sprintf("failed to validate params: %v", err))
		r.record(caller, name, toolClass(tool), params, result, start)
		return result, nil
	}
	if !validation.Valid() {
		issues := make([]string, 0, len(validation.Errors()))
		for _, issue := range validation.Errors() {
			issues = append(issues, issue.String())
		}
		result := FailureWithSuggestion(CodeInvalidParams,
			strings.Join(issues, "; "),
			"check the tool input schema")
		r.record(caller, name, toolClass(tool), params, result, start)
		return result, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := tool.Execute(callCtx, params)
	elapsed := time.Since(start)
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		result = Failure(CodeTimeout, fmt.Sprintf("tool timed out after %s", r.timeout))
	case err != nil:
		result = Failure(CodeExecutionFailed, err.Error())
	case result == nil:
		result = Failure(CodeExecutionFailed, "tool returned no result")
	}
	result.ExecutionTimeMs = elapsed.Milliseconds()

	r.record(caller, name, toolClass(tool), params, result, start)
	return result, nil
}

// record enqueues an audit row without blocking the caller.
func (r *Registry) record(caller Caller, name, class string, params map[string]interface{}, result *Result, start time.Time) {
	if r.store == nil {
		return
	}
	row := &storage.ToolExecution{
		ID:            uuid.NewString(),
		AgentID:       caller.AgentID,
		ThoughtTreeID: caller.ThoughtTreeID,
		ToolName:      name,
		ToolClass:     class,
		Input:         params,
		Success:       result.Success,
		Stdout:        result.Stdout,
		Stderr:        result.Stderr,
		DurationMs:    result.ExecutionTimeMs,
		CreatedAt:     start.UTC(),
	}
	if result.Data != nil {
		row.Output = fmt.Sprintf("%v", result.Data)
	}
	if result.Error != nil {
		row.Error = result.Error.Code + ": " + result.Error.Message
	}

	select {
	case r.writeCh <- row:
	default:
		r.logger.Warn("tool execution log buffer full, dropping row",
			zap.String("tool", name))
	}
}

func (r *Registry) writeLoop() {
	defer r.writeWg.Done()
	for {
		select {
		case row := <-r.writeCh:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := r.store.SaveToolExecution(ctx, row); err != nil {
				r.logger.Warn("failed to record tool execution",
					zap.String("tool", row.ToolName), zap.Error(err))
			}
			cancel()
		case <-r.closed:
			// Drain what is already queued.
			for {
				select {
				case row := <-r.writeCh:
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					_ = r.store.SaveToolExecution(ctx, row)
					cancel()
				default:
					return
				}
			}
		}
	}
}

// Close flushes the pending audit rows.
func (r *Registry) Close() {
	if r.store == nil {
		return
	}
	close(r.closed)
	r.writeWg.Wait()
}

func toolClass(tool Tool) string {
	return fmt.Sprintf("%T", tool)
}

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
package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nyx-labs/nyx/pkg/llm"
	"github.com/nyx-labs/nyx/pkg/types"
)

// TaskType is a closed set; unknown types are rejected before any LLM
// call is made.
type TaskType string

const (
	TaskDocumentGeneration     TaskType = "document_generation"
	TaskCodeGeneration         TaskType = "code_generation"
	TaskAnalysis               TaskType = "analysis"
	TaskSummary                TaskType = "summary"
	TaskStructuredExtraction   TaskType = "structured_extraction"
	TaskConversationalResponse TaskType = "conversational_response"
	TaskSubtaskExecution       TaskType = "subtask_execution"
	TaskDecompositionAnalysis  TaskType = "decomposition_analysis"
)

// taskProfiles carry per-type temperature defaults and system prompt
// framing. Code and structured extraction run cold.
var taskProfiles = map[TaskType]struct {
	temperature float64
	system      string
}{
	TaskDocumentGeneration: {0.7,
		"You are a professional writer. Produce a complete, well-structured document for the request."},
	TaskCodeGeneration: {0.2,
		"You are an expert software engineer. Produce correct, idiomatic code for the request. Output only the code and brief usage notes."},
	TaskAnalysis: {0.5,
		"You are an analyst. Examine the material carefully and produce a structured analysis with findings and implications."},
	TaskSummary: {0.4,
		"You are a summarizer. Produce a faithful, concise summary preserving the key facts and conclusions."},
	TaskStructuredExtraction: {0.1,
		"You are a data extraction engine. Extract the requested fields and respond with valid JSON only, no prose."},
	TaskConversationalResponse: {0.8,
		"You are a helpful assistant. Respond naturally and directly to the message."},
	TaskSubtaskExecution: {0.5,
		"You are executing one subtask of a larger workflow. Complete exactly the subtask described, using the provided context from prior steps."},
	TaskDecompositionAnalysis: {0.2,
		"You are a planning engine. Decompose the goal into subtasks and respond with valid JSON only, matching the requested schema exactly."},
}

// TaskTypes returns the closed task-type set, sorted.
func TaskTypes() []TaskType {
	out := make([]TaskType, 0, len(taskProfiles))
	for t := range taskProfiles {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TaskConfig configures a task runner.
type TaskConfig struct {
	LLM LLMCaller

	// Model overrides the client default when set.
	Model string

	// Temperature overrides the per-type default when > 0.
	Temperature float64

	// MaxTokens for the completion. 0 uses the client default.
	MaxTokens int

	// UseCache enables prompt-cache breakpoints on large segments.
	UseCache bool
}

// TaskRunner executes one typed task with a single LLM call.
type TaskRunner struct {
	cfg TaskConfig
}

// NewTaskRunner builds the specialization. Wrap it with agent.New.
func NewTaskRunner(cfg TaskConfig) *TaskRunner {
	return &TaskRunner{cfg: cfg}
}

func (r *TaskRunner) Kind() types.AgentKind { return types.AgentTask }
func (r *TaskRunner) ClassName() string     { return "TaskAgent" }

// NewTaskAgent is the convenience constructor orchestrators use.
func NewTaskAgent(taskCfg TaskConfig, agentCfg Config) *Agent {
	return New(NewTaskRunner(taskCfg), agentCfg)
}

func (r *TaskRunner) Run(ctx context.Context, call Call) (*types.AgentResult, error) {
	taskType := TaskType(optString(call.Input, "task_type", string(TaskSubtaskExecution)))
	profile, ok := taskProfiles[taskType]
	if !ok {
		return nil, types.Errorf(types.ErrValidation, "unknown task type: %s", taskType)
	}

	content := optString(call.Input, "content", "")
	if content == "" {
		content = optString(call.Input, "description", "")
	}
	if content == "" {
		return nil, types.Errorf(types.ErrValidation, "task input requires content or description")
	}

	temperature := profile.temperature
	if r.cfg.Temperature > 0 {
		temperature = r.cfg.Temperature
	}

	result, err := r.cfg.LLM.Call(ctx, llm.CallRequest{
		System:        profile.system,
		User:          renderTaskPrompt(taskType, call.Input, content),
		Model:         r.cfg.Model,
		MaxTokens:     r.cfg.MaxTokens,
		Temperature:   temperature,
		ThoughtTreeID: call.ThoughtTreeID,
		AgentID:       call.AgentID,
		UseCache:      r.cfg.UseCache,
	})
	if err != nil {
		return nil, fmt.Errorf("task llm call failed: %w", err)
	}

	return &types.AgentResult{
		Success: true,
		Content: result.Content,
		Usage:   result.Usage,
		Data: map[string]interface{}{
			"task_type": string(taskType),
			"model":     result.Model,
			"cache_hit": result.CacheHit,
		},
	}, nil
}

// renderTaskPrompt assembles the user prompt: title, accumulated
// context from prior steps, then the task body.
func renderTaskPrompt(taskType TaskType, input map[string]interface{}, content string) string {
	var sb strings.Builder
	if title := optString(input, "title", ""); title != "" {
		sb.WriteString("Task: " + title + "\n\n")
	}
	if prior := optString(input, "context", ""); prior != "" {
		sb.WriteString("Context from prior steps:\n" + prior + "\n\n")
	}
	if taskType == TaskStructuredExtraction || taskType == TaskDecompositionAnalysis {
		if schema := optString(input, "output_schema", ""); schema != "" {
			sb.WriteString("Required output schema:\n" + schema + "\n\n")
		}
	}
	sb.WriteString(content)
	return sb.String()
}

func optString(m map[string]interface{}, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

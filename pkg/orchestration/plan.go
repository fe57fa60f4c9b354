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
package orchestration

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/nyx-labs/nyx/pkg/types"
)

// DefaultMaxSubtasks bounds a decomposition plan.
const DefaultMaxSubtasks = 5

// Subtask is one planned unit of work.
type Subtask struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Dependencies        []string `json:"dependencies,omitempty"`
	EstimatedComplexity string   `json:"estimated_complexity,omitempty"`
	AgentKinds          []string `json:"agent_kinds,omitempty"`
}

// Plan is the validated output of a decomposition analysis.
type Plan struct {
	Subtasks []Subtask `json:"subtasks"`
}

// HasDependencies reports whether any subtask declares a dependency.
func (p *Plan) HasDependencies() bool {
	for _, s := range p.Subtasks {
		if len(s.Dependencies) > 0 {
			return true
		}
	}
	return false
}

// planSchemaJSON is the strict grammar a decomposition response must
// satisfy before it replaces the trivial fallback plan.
const planSchemaJSON = `{
  "type": "object",
  "required": ["subtasks"],
  "properties": {
    "subtasks": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "title", "description"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string", "minLength": 1},
          "dependencies": {"type": "array", "items": {"type": "string"}},
          "estimated_complexity": {"type": "string"},
          "agent_kinds": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var planSchema = mustSchema(planSchemaJSON)

func mustSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(err)
	}
	return schema
}

// planPrompt renders the decomposition request for the planner agent.
func planPrompt(title, description string, maxSubtasks int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Decompose the following task into at most %d subtasks.\n\n", maxSubtasks)
	if title != "" {
		fmt.Fprintf(&b, "Task: %s\n", title)
	}
	fmt.Fprintf(&b, "Description: %s\n\n", description)
	b.WriteString(`Respond with JSON only, in this exact shape:
{"subtasks":[{"id":"t1","title":"...","description":"...","dependencies":[],"estimated_complexity":"low|medium|high","agent_kinds":["task"]}]}

Declare a dependency only when a subtask genuinely needs another
subtask's output. Keep ids short and unique.`)
	return b.String()
}

// parsePlan validates and decodes a decomposition response. Plans larger
// than maxSubtasks are truncated, not rejected.
func parsePlan(content string, maxSubtasks int) (*Plan, error) {
	raw := extractJSONObject(content)
	check, err := planSchema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, types.Errorf(types.ErrValidation, "plan is not valid JSON: %v", err)
	}
	if !check.Valid() {
		return nil, types.Errorf(types.ErrValidation,
			"plan violates grammar: %s", check.Errors()[0].String())
	}

	var plan Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, types.Errorf(types.ErrValidation, "plan decode failed: %v", err)
	}
	if len(plan.Subtasks) > maxSubtasks {
		plan.Subtasks = plan.Subtasks[:maxSubtasks]
	}
	return &plan, nil
}

// trivialPlan mirrors the parent task as a single subtask. It is the
// fallback when planning fails for any reason.
func trivialPlan(title, description string) *Plan {
	return &Plan{Subtasks: []Subtask{{
		ID:          "t1",
		Title:       title,
		Description: description,
	}}}
}

// topologicalLevels orders subtasks into dependency levels: every
// subtask in level k depends only on subtasks in levels < k. The second
// return is false when the graph has a cycle or a dangling reference.
func topologicalLevels(subtasks []Subtask) ([][]Subtask, bool) {
	byID := make(map[string]Subtask, len(subtasks))
	for _, s := range subtasks {
		byID[s.ID] = s
	}
	indegree := make(map[string]int, len(subtasks))
	for _, s := range subtasks {
		for _, dep := range s.Dependencies {
			if _, ok := byID[dep]; !ok {
				return nil, false
			}
		}
		indegree[s.ID] = len(s.Dependencies)
	}

	done := make(map[string]bool, len(subtasks))
	var levels [][]Subtask
	for len(done) < len(subtasks) {
		var level []Subtask
		for _, s := range subtasks {
			if done[s.ID] || indegree[s.ID] > 0 {
				continue
			}
			ready := true
			for _, dep := range s.Dependencies {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, s)
			}
		}
		if len(level) == 0 {
			return nil, false
		}
		for _, s := range level {
			done[s.ID] = true
			for _, other := range subtasks {
				for _, dep := range other.Dependencies {
					if dep == s.ID {
						indegree[other.ID]--
					}
				}
			}
		}
		levels = append(levels, level)
	}
	return levels, true
}

// extractJSONObject strips markdown fences and surrounding prose from a
// response expected to contain one JSON object.
func extractJSONObject(content string) string {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			return content[start : end+1]
		}
	}
	return content
}

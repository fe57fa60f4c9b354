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
	"sync"

	"github.com/nyx-labs/nyx/pkg/llm"
	"github.com/nyx-labs/nyx/pkg/types"
)

// CouncilRole is one deliberation perspective.
type CouncilRole string

const (
	RoleEngineer    CouncilRole = "engineer"
	RoleStrategist  CouncilRole = "strategist"
	RoleDissenter   CouncilRole = "dissenter"
	RoleAnalyst     CouncilRole = "analyst"
	RoleFacilitator CouncilRole = "facilitator"
)

// DefaultCouncilRoles is the minimum deliberation set. The dissenter is
// always present so consensus is never unanimous by construction.
var DefaultCouncilRoles = []CouncilRole{RoleEngineer, RoleStrategist, RoleDissenter}

var rolePrompts = map[CouncilRole]string{
	RoleEngineer:    "You are the council's engineer. Evaluate the question for technical feasibility, implementation effort, and failure modes.",
	RoleStrategist:  "You are the council's strategist. Evaluate the question for long-term consequences, alternatives, and alignment with the stated goal.",
	RoleDissenter:   "You are the council's dissenter. Argue against the obvious answer: surface hidden risks, flawed assumptions, and reasons this could fail.",
	RoleAnalyst:     "You are the council's analyst. Quantify what can be quantified: costs, timelines, probabilities, and the data the decision depends on.",
	RoleFacilitator: "You are the council's facilitator. Identify where the other perspectives agree, where they conflict, and what question remains open.",
}

// CouncilConfig configures a council runner.
type CouncilConfig struct {
	LLM LLMCaller

	// Roles defaults to engineer, strategist, dissenter.
	Roles []CouncilRole

	// SessionContext is shared background material injected into every
	// phase. It is always cached server-side, whatever its size.
	SessionContext string

	Model     string
	MaxTokens int
}

// CouncilRunner deliberates in four phases: concurrent per-role
// perspectives, collaborative analysis, consensus, final recommendation.
type CouncilRunner struct {
	cfg CouncilConfig
}

// NewCouncilRunner builds the specialization.
func NewCouncilRunner(cfg CouncilConfig) *CouncilRunner {
	if len(cfg.Roles) == 0 {
		cfg.Roles = DefaultCouncilRoles
	}
	return &CouncilRunner{cfg: cfg}
}

// NewCouncilAgent is the convenience constructor orchestrators use.
func NewCouncilAgent(councilCfg CouncilConfig, agentCfg Config) *Agent {
	return New(NewCouncilRunner(councilCfg), agentCfg)
}

func (r *CouncilRunner) Kind() types.AgentKind { return types.AgentCouncil }
func (r *CouncilRunner) ClassName() string     { return "CouncilAgent" }

// perspective is one role's phase-1 output.
type perspective struct {
	role    CouncilRole
	content string
}

func (r *CouncilRunner) Run(ctx context.Context, call Call) (*types.AgentResult, error) {
	question := optString(call.Input, "content", "")
	if question == "" {
		question = optString(call.Input, "description", "")
	}
	if question == "" {
		return nil, types.Errorf(types.ErrValidation, "council input requires content or description")
	}

	var usage types.Usage
	var usageMu sync.Mutex
	addUsage := func(u types.Usage) {
		usageMu.Lock()
		usage.Add(u)
		usageMu.Unlock()
	}

	// Phase 1: every role answers concurrently against the shared,
	// always-cached session context.
	perspectives := make([]perspective, len(r.cfg.Roles))
	errs := make([]error, len(r.cfg.Roles))
	var wg sync.WaitGroup
	for i, role := range r.cfg.Roles {
		wg.Add(1)
		go func(i int, role CouncilRole) {
			defer wg.Done()
			result, err := r.call(ctx, call, rolePrompts[role], question)
			if err != nil {
				errs[i] = fmt.Errorf("role %s: %w", role, err)
				return
			}
			addUsage(result.Usage)
			perspectives[i] = perspective{role: role, content: result.Content}
		}(i, role)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	transcript := renderPerspectives(perspectives)

	// Phase 2: collaborative analysis over the assembled perspectives.
	analysis, err := r.call(ctx, call,
		"You are the council moderator. Analyze the perspectives below together: where they reinforce each other, where they conflict, and what trade-offs they expose.",
		"Question:\n"+question+"\n\nPerspectives:\n"+transcript)
	if err != nil {
		return nil, fmt.Errorf("analysis phase: %w", err)
	}
	addUsage(analysis.Usage)

	// Phase 3: consensus.
	consensus, err := r.call(ctx, call,
		"You are the council moderator. State the council's consensus position, noting any dissent that must be carried forward as a standing risk.",
		"Question:\n"+question+"\n\nAnalysis:\n"+analysis.Content)
	if err != nil {
		return nil, fmt.Errorf("consensus phase: %w", err)
	}
	addUsage(consensus.Usage)

	// Phase 4: final recommendation in fixed sections.
	final, err := r.call(ctx, call,
		"You are the council moderator. Produce the final recommendation with exactly these sections: RECOMMENDATION, RISKS, ROADMAP, MONITORING.",
		"Question:\n"+question+"\n\nConsensus:\n"+consensus.Content)
	if err != nil {
		return nil, fmt.Errorf("recommendation phase: %w", err)
	}
	addUsage(final.Usage)

	roles := make([]string, len(r.cfg.Roles))
	for i, role := range r.cfg.Roles {
		roles[i] = string(role)
	}
	sort.Strings(roles)

	return &types.AgentResult{
		Success: true,
		Content: final.Content,
		Usage:   usage,
		Data: map[string]interface{}{
			"roles":     roles,
			"consensus": consensus.Content,
			"sections":  parseSections(final.Content),
		},
	}, nil
}

// call issues one council LLM call. The shared session context rides in
// the system segment with a forced cache breakpoint.
func (r *CouncilRunner) call(ctx context.Context, c Call, rolePrompt, user string) (*llm.Result, error) {
	system := rolePrompt
	if r.cfg.SessionContext != "" {
		system = rolePrompt + "\n\nShared session context:\n" + r.cfg.SessionContext
	}
	return r.cfg.LLM.Call(ctx, llm.CallRequest{
		System:            system,
		User:              user,
		Model:             r.cfg.Model,
		MaxTokens:         r.cfg.MaxTokens,
		Temperature:       0.7,
		ThoughtTreeID:     c.ThoughtTreeID,
		AgentID:           c.AgentID,
		UseCache:          true,
		AlwaysCacheSystem: true,
	})
}

func renderPerspectives(perspectives []perspective) string {
	var sb strings.Builder
	for _, p := range perspectives {
		sb.WriteString(fmt.Sprintf("## %s\n%s\n\n", p.role, p.content))
	}
	return sb.String()
}

// parseSections splits the phase-4 output on its section headers. Missing
// sections come back empty rather than failing the run.
func parseSections(content string) map[string]string {
	sections := map[string]string{
		"recommendation": "",
		"risks":          "",
		"roadmap":        "",
		"monitoring":     "",
	}
	current := ""
	var sb strings.Builder
	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(sb.String())
		}
		sb.Reset()
	}
	for _, line := range strings.Split(content, "\n") {
		header := strings.ToLower(strings.Trim(strings.TrimSpace(line), "#*: "))
		if _, ok := sections[header]; ok {
			flush()
			current = header
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	flush()
	return sections
}

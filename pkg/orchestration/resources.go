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

import "fmt"

// Budget caps one workflow's resource consumption.
type Budget struct {
	MaxAgents          int     `json:"max_agents"`
	MaxCostUSD         float64 `json:"max_cost_usd"`
	MaxDurationMinutes int     `json:"max_duration_minutes"`
}

// DefaultBudget is the per-workflow cap when the caller sets none.
func DefaultBudget() Budget {
	return Budget{MaxAgents: 10, MaxCostUSD: 5, MaxDurationMinutes: 30}
}

// Base estimates before the complexity multiplier.
const (
	baseAgentEstimate    = 2
	baseCostEstimateUSD  = 0.25
	baseDurationEstimate = 3
)

// ResourceEstimate predicts a workflow's footprint from its complexity.
type ResourceEstimate struct {
	Agents          int      `json:"agents"`
	CostUSD         float64  `json:"cost_usd"`
	DurationMinutes int      `json:"duration_minutes"`
	Multiplier      int      `json:"multiplier"`
	Confidence      float64  `json:"confidence"`
	Warnings        []string `json:"warnings,omitempty"`
}

// complexityMultiplier maps the overall grade to the budget multiplier.
func complexityMultiplier(level ComplexityLevel) int {
	switch level {
	case ComplexityLow:
		return 1
	case ComplexityMedium:
		return 2
	default:
		return 4
	}
}

// EstimateResources scales the base estimate by the complexity
// multiplier and records warnings when the estimate crowds the budget.
// observedWorkflows raises confidence as history accumulates.
func EstimateResources(analysis *ComplexityAnalysis, budget Budget, observedWorkflows int) *ResourceEstimate {
	if budget.MaxAgents <= 0 {
		budget = DefaultBudget()
	}
	mult := complexityMultiplier(analysis.Overall)
	est := &ResourceEstimate{
		Agents:          baseAgentEstimate * mult,
		CostUSD:         baseCostEstimateUSD * float64(mult),
		DurationMinutes: baseDurationEstimate * mult,
		Multiplier:      mult,
		Confidence:      0.5 + minf(0.4, float64(observedWorkflows)*0.02),
	}

	if float64(est.Agents) >= 0.8*float64(budget.MaxAgents) {
		est.Warnings = append(est.Warnings,
			fmt.Sprintf("estimated %d agents approaches the cap of %d", est.Agents, budget.MaxAgents))
	}
	if est.CostUSD >= 0.8*budget.MaxCostUSD {
		est.Warnings = append(est.Warnings,
			fmt.Sprintf("estimated cost $%.2f approaches the cap of $%.2f", est.CostUSD, budget.MaxCostUSD))
	}
	if float64(est.DurationMinutes) >= 0.8*float64(budget.MaxDurationMinutes) {
		est.Warnings = append(est.Warnings,
			fmt.Sprintf("estimated %d minutes approaches the cap of %d", est.DurationMinutes, budget.MaxDurationMinutes))
	}
	return est
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

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
	"context"

	"github.com/nyx-labs/nyx/pkg/types"
)

// adapterConfidenceFloor is the confidence a learning adapter needs
// before its suggestion replaces the default rules.
const adapterConfidenceFloor = 0.6

// LearningAdapter suggests strategies from observed history. The
// adapter is optional; a nil adapter never blocks execution.
type LearningAdapter interface {
	// SuggestStrategy returns a strategy and its confidence in [0,1].
	SuggestStrategy(ctx context.Context, input *types.WorkflowInput, analysis *ComplexityAnalysis) (types.Strategy, float64)

	// ObserveOutcome feeds a completed workflow back into the adapter.
	ObserveOutcome(ctx context.Context, input *types.WorkflowInput, result *types.WorkflowResult)
}

// SelectStrategy applies the priority rules. The hard rules (1-4) always
// win; a learning adapter with enough confidence may override the
// fallback rules (5-6). timeBudgetTight signals the resource estimate
// crowds the wall-clock cap.
func SelectStrategy(ctx context.Context, input *types.WorkflowInput, analysis *ComplexityAnalysis, adapter LearningAdapter, timeBudgetTight bool) (types.Strategy, string) {
	// Rule 1: goals always decompose recursively.
	if input.Type == types.InputGoalWorkflow {
		return types.StrategyRecursive, "goal workflows decompose recursively"
	}

	// Rule 2: consensus-demanding high-stakes work goes to the council.
	risk := analysis.Dimensions[DimRisk]
	quality := analysis.Dimensions[DimQuality]
	if input.RequireCouncilConsensus &&
		(atLeastHigh(risk) || atLeastHigh(quality)) {
		return types.StrategyCouncil, "council consensus required for high-stakes work"
	}

	// Rule 3: complex work decomposes; tight time budgets parallelize.
	if analysis.RequiresDecomposition() {
		if timeBudgetTight {
			return types.StrategyParallel, "complex work under a tight time budget"
		}
		return types.StrategyRecursive, "complex work decomposes recursively"
	}

	// Rule 4: explicit optimization focus.
	switch input.OptimizationFocus {
	case "speed":
		return types.StrategyParallel, "speed optimization requested"
	case "quality":
		return types.StrategyIterative, "quality optimization requested"
	}

	// Adapter may override the fallback rules when confident enough.
	if adapter != nil {
		if suggested, confidence := adapter.SuggestStrategy(ctx, input, analysis); confidence >= adapterConfidenceFloor {
			return suggested, "learning adapter suggestion"
		}
	}

	// Rule 5: trivial work runs direct; heavy work parallelizes.
	switch analysis.Overall {
	case ComplexityLow:
		return types.StrategyDirect, "low complexity runs direct"
	case ComplexityHigh:
		return types.StrategyParallel, "high complexity parallelizes"
	}

	// Rule 6: everything else decomposes sequentially.
	return types.StrategySequential, "default sequential decomposition"
}

func atLeastHigh(level ComplexityLevel) bool {
	return level == ComplexityHigh || level == ComplexityCritical
}

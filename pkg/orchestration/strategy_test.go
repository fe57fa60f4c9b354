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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nyx-labs/nyx/pkg/types"
)

type scriptedAdapter struct {
	strategy   types.Strategy
	confidence float64
	observed   int
}

func (a *scriptedAdapter) SuggestStrategy(context.Context, *types.WorkflowInput, *ComplexityAnalysis) (types.Strategy, float64) {
	return a.strategy, a.confidence
}

func (a *scriptedAdapter) ObserveOutcome(context.Context, *types.WorkflowInput, *types.WorkflowResult) {
	a.observed++
}

func selectFor(input *types.WorkflowInput, adapter LearningAdapter, timeTight bool) types.Strategy {
	strategy, _ := SelectStrategy(context.Background(), input, AnalyzeComplexity(input), adapter, timeTight)
	return strategy
}

func TestSelectStrategyGoalWorkflow(t *testing.T) {
	// Rule 1 wins even against council consensus.
	input := &types.WorkflowInput{
		Type:                    types.InputGoalWorkflow,
		Content:                 "reach carbon neutrality",
		RequireCouncilConsensus: true,
	}
	assert.Equal(t, types.StrategyRecursive, selectFor(input, nil, false))
}

func TestSelectStrategyCouncil(t *testing.T) {
	input := &types.WorkflowInput{
		Type:                    types.InputUserPrompt,
		Content:                 "should we rewrite the storage engine?",
		RequireCouncilConsensus: true,
	}
	assert.Equal(t, types.StrategyCouncil, selectFor(input, nil, false))
}

func TestSelectStrategyComplexWork(t *testing.T) {
	input := &types.WorkflowInput{
		Content:      "produce the full launch plan",
		Deliverables: []string{"site", "docs", "pricing", "announcement"},
	}
	assert.Equal(t, types.StrategyRecursive, selectFor(input, nil, false))
	// A tight time budget parallelizes instead.
	assert.Equal(t, types.StrategyParallel, selectFor(input, nil, true))
}

func TestSelectStrategyOptimizationFocus(t *testing.T) {
	speed := &types.WorkflowInput{Content: "summarize the minutes", OptimizationFocus: "speed"}
	assert.Equal(t, types.StrategyParallel, selectFor(speed, nil, false))

	quality := &types.WorkflowInput{Content: "summarize the minutes", OptimizationFocus: "quality"}
	assert.Equal(t, types.StrategyIterative, selectFor(quality, nil, false))
}

func TestSelectStrategyFallbacks(t *testing.T) {
	low := &types.WorkflowInput{Type: types.InputUserPrompt, Content: "What is WAL mode?"}
	assert.Equal(t, types.StrategyDirect, selectFor(low, nil, false))

	structured := &types.WorkflowInput{
		Type:         types.InputStructuredTask,
		Content:      "assemble the research notes into an outline for the working group",
		Deliverables: []string{"outline", "summary", "reading list"},
	}
	assert.Equal(t, types.StrategySequential, selectFor(structured, nil, false))
}

func TestSelectStrategyAdapterOverride(t *testing.T) {
	input := &types.WorkflowInput{Type: types.InputUserPrompt, Content: "What is WAL mode?"}

	// Confident adapter overrides the fallback rules.
	confident := &scriptedAdapter{strategy: types.StrategyIterative, confidence: 0.9}
	assert.Equal(t, types.StrategyIterative, selectFor(input, confident, false))

	// An unconfident adapter is ignored.
	hesitant := &scriptedAdapter{strategy: types.StrategyIterative, confidence: 0.4}
	assert.Equal(t, types.StrategyDirect, selectFor(input, hesitant, false))

	// Hard rules are never overridden.
	goal := &types.WorkflowInput{Type: types.InputGoalWorkflow, Content: "ship the product"}
	assert.Equal(t, types.StrategyRecursive, selectFor(goal, confident, false))
}

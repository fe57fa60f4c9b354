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
	"strings"

	"github.com/nyx-labs/nyx/pkg/types"
)

// ComplexityLevel grades one dimension of a workflow.
type ComplexityLevel string

const (
	ComplexityLow      ComplexityLevel = "low"
	ComplexityMedium   ComplexityLevel = "medium"
	ComplexityHigh     ComplexityLevel = "high"
	ComplexityCritical ComplexityLevel = "critical"
)

// Dimension names one axis of the complexity analysis.
type Dimension string

const (
	DimCognitive    Dimension = "cognitive"
	DimTechnical    Dimension = "technical"
	DimCoordination Dimension = "coordination"
	DimData         Dimension = "data"
	DimTime         Dimension = "time_sensitivity"
	DimQuality      Dimension = "quality_requirements"
	DimScope        Dimension = "scope_breadth"
	DimRisk         Dimension = "risk"
)

// Dimensions lists the eight axes in scoring order.
func Dimensions() []Dimension {
	return []Dimension{
		DimCognitive, DimTechnical, DimCoordination, DimData,
		DimTime, DimQuality, DimScope, DimRisk,
	}
}

// ComplexityAnalysis holds per-dimension levels and the derived overall
// grade.
type ComplexityAnalysis struct {
	Dimensions map[Dimension]ComplexityLevel `json:"dimensions"`
	Overall    ComplexityLevel               `json:"overall"`
}

// RequiresDecomposition reports whether the workflow is too complex for
// a single agent.
func (a *ComplexityAnalysis) RequiresDecomposition() bool {
	return a.Overall == ComplexityHigh || a.Overall == ComplexityCritical
}

// simpleQuestionPrefixes mark prompts answerable without decomposition.
var simpleQuestionPrefixes = []string{"what is", "what's", "who is", "who's", "define", "when is", "where is"}

var technicalMarkers = []string{"code", "implement", "build", "debug", "refactor", "compile", "deploy", "api", "function", "algorithm"}

var dataMarkers = []string{"data", "dataset", "database", "csv", "spreadsheet", "parse", "file", "document"}

// AnalyzeComplexity scores the input across all eight dimensions with
// cheap heuristics and derives the overall grade.
func AnalyzeComplexity(input *types.WorkflowInput) *ComplexityAnalysis {
	text := strings.ToLower(strings.TrimSpace(input.Content + " " + input.Description))
	dims := make(map[Dimension]ComplexityLevel, 8)

	dims[DimCognitive] = scoreCognitive(text)
	dims[DimTechnical] = scoreByMarkers(text, technicalMarkers)
	dims[DimCoordination] = scoreCoordination(input)
	dims[DimData] = scoreByMarkers(text, dataMarkers)
	dims[DimTime] = scoreTime(input)
	dims[DimQuality] = scoreQuality(input)
	dims[DimScope] = scoreScope(input)
	dims[DimRisk] = scoreRisk(input)

	return &ComplexityAnalysis{
		Dimensions: dims,
		Overall:    overallLevel(dims),
	}
}

// overallLevel: critical if any dimension is critical or at least four
// are high; high if at least two are high; medium if at least one high
// or at least four medium; else low.
func overallLevel(dims map[Dimension]ComplexityLevel) ComplexityLevel {
	var highs, mediums int
	for _, level := range dims {
		switch level {
		case ComplexityCritical:
			return ComplexityCritical
		case ComplexityHigh:
			highs++
		case ComplexityMedium:
			mediums++
		}
	}
	switch {
	case highs >= 4:
		return ComplexityCritical
	case highs >= 2:
		return ComplexityHigh
	case highs >= 1 || mediums >= 4:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

func scoreCognitive(text string) ComplexityLevel {
	for _, prefix := range simpleQuestionPrefixes {
		if strings.HasPrefix(text, prefix) && len(text) < 200 {
			return ComplexityLow
		}
	}
	switch {
	case len(text) > 1200:
		return ComplexityHigh
	case len(text) > 300:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

func scoreByMarkers(text string, markers []string) ComplexityLevel {
	hits := 0
	for _, m := range markers {
		if strings.Contains(text, m) {
			hits++
		}
	}
	switch {
	case hits >= 3:
		return ComplexityHigh
	case hits >= 1:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

func scoreCoordination(input *types.WorkflowInput) ComplexityLevel {
	switch {
	case len(input.Deliverables) >= 3:
		return ComplexityHigh
	case len(input.Deliverables) >= 1:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

func scoreTime(input *types.WorkflowInput) ComplexityLevel {
	switch {
	case input.Priority == types.PriorityCritical:
		return ComplexityCritical
	case input.MaxDurationMinutes > 0 && input.MaxDurationMinutes <= 10:
		return ComplexityHigh
	case input.Priority == types.PriorityHigh:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

func scoreQuality(input *types.WorkflowInput) ComplexityLevel {
	switch {
	case input.RequireCouncilConsensus || input.ValidationLevel == "critical":
		return ComplexityHigh
	case input.ValidationLevel == "strict":
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

func scoreScope(input *types.WorkflowInput) ComplexityLevel {
	switch {
	case len(input.Deliverables) >= 4 || input.Type == types.InputGoalWorkflow:
		return ComplexityHigh
	case len(input.SuccessCriteria) >= 2:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

func scoreRisk(input *types.WorkflowInput) ComplexityLevel {
	switch {
	case input.RequireCouncilConsensus || input.ValidationLevel == "critical":
		return ComplexityHigh
	case input.Priority == types.PriorityHigh || input.Priority == types.PriorityCritical:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-labs/nyx/pkg/types"
)

func TestParsePlanValid(t *testing.T) {
	content := "Here is the plan:\n```json\n" +
		`{"subtasks":[
			{"id":"t1","title":"research","description":"gather sources"},
			{"id":"t2","title":"write","description":"draft the report","dependencies":["t1"]}
		]}` + "\n```"
	plan, err := parsePlan(content, 5)
	require.NoError(t, err)
	require.Len(t, plan.Subtasks, 2)
	assert.Equal(t, "t1", plan.Subtasks[0].ID)
	assert.True(t, plan.HasDependencies())
}

func TestParsePlanRejectsBadGrammar(t *testing.T) {
	_, err := parsePlan(`{"subtasks":[{"id":"t1"}]}`, 5)
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.KindOf(err))

	_, err = parsePlan("not json at all", 5)
	require.Error(t, err)

	_, err = parsePlan(`{"subtasks":[]}`, 5)
	require.Error(t, err)
}

func TestParsePlanTruncatesOversize(t *testing.T) {
	content := `{"subtasks":[
		{"id":"a","title":"a","description":"a"},
		{"id":"b","title":"b","description":"b"},
		{"id":"c","title":"c","description":"c"}
	]}`
	plan, err := parsePlan(content, 2)
	require.NoError(t, err)
	assert.Len(t, plan.Subtasks, 2)
}

func TestTopologicalLevels(t *testing.T) {
	subtasks := []Subtask{
		{ID: "a"},
		{ID: "b", Dependencies: []string{"a"}},
		{ID: "c", Dependencies: []string{"a"}},
		{ID: "d", Dependencies: []string{"b", "c"}},
	}
	levels, ok := topologicalLevels(subtasks)
	require.True(t, ok)
	require.Len(t, levels, 3)
	assert.Equal(t, "a", levels[0][0].ID)
	assert.Len(t, levels[1], 2)
	assert.Equal(t, "d", levels[2][0].ID)
}

func TestTopologicalLevelsDetectsCycle(t *testing.T) {
	_, ok := topologicalLevels([]Subtask{
		{ID: "a", Dependencies: []string{"b"}},
		{ID: "b", Dependencies: []string{"a"}},
	})
	assert.False(t, ok)

	// Dangling references fail too.
	_, ok = topologicalLevels([]Subtask{
		{ID: "a", Dependencies: []string{"ghost"}},
	})
	assert.False(t, ok)
}

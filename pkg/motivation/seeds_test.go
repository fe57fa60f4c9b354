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
package motivation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-labs/nyx/pkg/types"
)

const sampleDrivesYAML = `drives:
  - kind: curiosity
    urgency: 0.6
    satisfaction: 0.5
    decay_rate: 0.01
    boost_factor: 0.2
    prompt_template: "explore something new on the network"
    trigger:
      type: interval_elapsed
      interval_minutes: 120
  - kind: social_presence
    urgency: 0.4
    decay_rate: 0.005
    boost_factor: 0.3
    active: false
    metadata:
      max_posts_per_hour: 2
`

func writeDrivesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drives.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeeds(t *testing.T) {
	seeds, err := LoadSeeds(writeDrivesFile(t, sampleDrivesYAML))
	require.NoError(t, err)
	require.Len(t, seeds, 2)

	assert.Equal(t, "curiosity", seeds[0].Kind)
	assert.Equal(t, 0.6, seeds[0].Urgency)
	assert.Equal(t, "interval_elapsed", seeds[0].Trigger["type"])
	assert.Equal(t, "explore something new on the network", seeds[0].PromptTemplate)
	assert.Nil(t, seeds[0].Active)

	require.NotNil(t, seeds[1].Active)
	assert.False(t, *seeds[1].Active)
}

func TestLoadSeedsRejectsBadInput(t *testing.T) {
	_, err := LoadSeeds(writeDrivesFile(t, "drives: [what"))
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.KindOf(err))

	_, err = LoadSeeds(writeDrivesFile(t, "drives:\n  - urgency: 0.5\n"))
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.KindOf(err))

	_, err = LoadSeeds(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSeedDrivesInsertsAndRefreshes(t *testing.T) {
	store := newDriveStore()
	engine := newTestEngine(t, store, &fakeExecutor{})
	ctx := context.Background()

	seeds, err := LoadSeeds(writeDrivesFile(t, sampleDrivesYAML))
	require.NoError(t, err)
	require.NoError(t, engine.SeedDrives(ctx, seeds))

	drive := store.drive(t, "curiosity")
	assert.Equal(t, 0.6, drive.Urgency)
	assert.Equal(t, 0.01, drive.DecayRate)
	assert.True(t, drive.Active)
	assert.Equal(t, "explore something new on the network", drive.Metadata["prompt_template"])
	require.NotEmpty(t, drive.ID)

	inactive := store.drive(t, "social_presence")
	assert.False(t, inactive.Active)

	// Simulate runtime movement, then reseed with changed config.
	drive.Urgency = 0.2
	drive.SuccessCount = 7
	drive.SuccessRate = 1
	require.NoError(t, store.UpsertMotivationalState(ctx, drive))

	seeds[0].DecayRate = 0.05
	require.NoError(t, engine.SeedDrives(ctx, seeds))

	reseeded := store.drive(t, "curiosity")
	// Config refreshed, runtime state preserved.
	assert.Equal(t, 0.05, reseeded.DecayRate)
	assert.Equal(t, 0.2, reseeded.Urgency)
	assert.Equal(t, 7, reseeded.SuccessCount)
	assert.Equal(t, drive.ID, reseeded.ID)
}

func TestStartSeedsFromDrivesPath(t *testing.T) {
	store := newDriveStore()
	path := writeDrivesFile(t, sampleDrivesYAML)
	engine, err := NewEngine(Config{
		Store:      store,
		Executor:   &fakeExecutor{},
		DrivesPath: path,
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, engine.Start(ctx))
	defer func() { _ = engine.Stop(ctx) }()

	drive := store.drive(t, "curiosity")
	assert.Equal(t, 0.6, drive.Urgency)
}

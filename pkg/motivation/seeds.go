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
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

// DriveSeed is one drive definition in the seed file.
type DriveSeed struct {
	Kind           string                 `yaml:"kind"`
	Urgency        float64                `yaml:"urgency"`
	Satisfaction   float64                `yaml:"satisfaction"`
	DecayRate      float64                `yaml:"decay_rate"`
	BoostFactor    float64                `yaml:"boost_factor"`
	Active         *bool                  `yaml:"active,omitempty"`
	Trigger        map[string]interface{} `yaml:"trigger,omitempty"`
	PromptTemplate string                 `yaml:"prompt_template,omitempty"`
	Metadata       map[string]interface{} `yaml:"metadata,omitempty"`
}

type seedFile struct {
	Drives []DriveSeed `yaml:"drives"`
}

// LoadSeeds parses the drives YAML file.
func LoadSeeds(path string) ([]DriveSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, types.WrapError(types.ErrValidation, err, "malformed drives file")
	}
	for i, seed := range file.Drives {
		if seed.Kind == "" {
			return nil, types.Errorf(types.ErrValidation, "drive seed %d is missing a kind", i)
		}
	}
	return file.Drives, nil
}

// SeedDrives upserts seeds by kind. Existing drives keep their runtime
// state (urgency, satisfaction, counters, metadata counters); only the
// configured fields are refreshed.
func (e *Engine) SeedDrives(ctx context.Context, seeds []DriveSeed) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seedLocked(ctx, seeds)
}

func (e *Engine) seedLocked(ctx context.Context, seeds []DriveSeed) error {
	now := time.Now().UTC()
	for _, seed := range seeds {
		active := true
		if seed.Active != nil {
			active = *seed.Active
		}

		existing, err := e.cfg.Store.GetMotivationalState(ctx, seed.Kind)
		switch {
		case err == nil:
			existing.DecayRate = seed.DecayRate
			existing.BoostFactor = seed.BoostFactor
			existing.Trigger = seed.Trigger
			existing.Active = active
			if existing.Metadata == nil {
				existing.Metadata = map[string]interface{}{}
			}
			for k, v := range seed.Metadata {
				existing.Metadata[k] = v
			}
			if seed.PromptTemplate != "" {
				existing.Metadata["prompt_template"] = seed.PromptTemplate
			}
			existing.UpdatedAt = now
			if err := e.cfg.Store.UpsertMotivationalState(ctx, existing); err != nil {
				return types.WrapError(types.ErrDatabase, err, "failed to refresh seeded drive")
			}
		case types.IsNotFound(err):
			meta := map[string]interface{}{}
			for k, v := range seed.Metadata {
				meta[k] = v
			}
			if seed.PromptTemplate != "" {
				meta["prompt_template"] = seed.PromptTemplate
			}
			state := &storage.MotivationalState{
				ID:           uuid.NewString(),
				Kind:         seed.Kind,
				Urgency:      clamp01(seed.Urgency),
				Satisfaction: clamp01(seed.Satisfaction),
				DecayRate:    seed.DecayRate,
				BoostFactor:  seed.BoostFactor,
				Trigger:      seed.Trigger,
				Active:       active,
				Metadata:     meta,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := e.cfg.Store.UpsertMotivationalState(ctx, state); err != nil {
				return types.WrapError(types.ErrDatabase, err, "failed to insert seeded drive")
			}
		default:
			return types.WrapError(types.ErrDatabase, err, "seed lookup failed")
		}
		e.logger.Debug("drive seeded", zap.String("kind", seed.Kind), zap.Bool("active", active))
	}
	return nil
}

// seedWatcher hot-reloads the drives file on change. Rapid writes are
// debounced so editors that write-then-rename only trigger one reload.
type seedWatcher struct {
	engine  *Engine
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	debounceMu sync.Mutex
	debounce   *time.Timer

	stopCh chan struct{}
	doneCh chan struct{}
}

func newSeedWatcher(engine *Engine, path string, logger *zap.Logger) (*seedWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory; editors replace the file on save.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	w := &seedWatcher{
		engine:  engine,
		path:    path,
		watcher: watcher,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *seedWatcher) loop() {
	defer close(w.doneCh)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("drive seed watcher error", zap.Error(err))
		case <-w.stopCh:
			return
		}
	}
}

func (w *seedWatcher) scheduleReload() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(500*time.Millisecond, w.reload)
}

func (w *seedWatcher) reload() {
	seeds, err := LoadSeeds(w.path)
	if err != nil {
		w.logger.Warn("drive seed reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.engine.SeedDrives(ctx, seeds); err != nil {
		w.logger.Warn("drive seed upsert failed", zap.Error(err))
		return
	}
	w.engine.mu.Lock()
	if w.engine.running {
		if err := w.engine.syncDriveCronsLocked(ctx); err != nil {
			w.logger.Warn("per-drive cron sync failed", zap.Error(err))
		}
	}
	w.engine.mu.Unlock()
	w.logger.Info("drive seeds reloaded", zap.String("path", w.path), zap.Int("count", len(seeds)))
}

func (w *seedWatcher) close() {
	close(w.stopCh)
	w.watcher.Close()
	<-w.doneCh
	w.debounceMu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounceMu.Unlock()
}

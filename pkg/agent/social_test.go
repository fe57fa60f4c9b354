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
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-labs/nyx/pkg/llm"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/tools"
	"github.com/nyx-labs/nyx/pkg/types"
)

// fakeSocialStore implements SocialStore in memory.
type fakeSocialStore struct {
	mu     sync.Mutex
	drives map[string]*storage.MotivationalState
	evals  map[string]*storage.SocialEvaluation
}

func newFakeSocialStore(driveKind string) *fakeSocialStore {
	now := time.Now().UTC()
	return &fakeSocialStore{
		drives: map[string]*storage.MotivationalState{
			driveKind: {
				ID:           "drive-1",
				Kind:         driveKind,
				Urgency:      0.5,
				Satisfaction: 0.5,
				DecayRate:    0.01,
				SuccessRate:  1,
				Active:       true,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
		},
		evals: map[string]*storage.SocialEvaluation{},
	}
}

func (s *fakeSocialStore) GetMotivationalState(_ context.Context, kind string) (*storage.MotivationalState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if drive, ok := s.drives[kind]; ok {
		return drive, nil
	}
	return nil, types.Errorf(types.ErrNotFound, "drive not found: %s", kind)
}

func (s *fakeSocialStore) UpsertMotivationalState(_ context.Context, state *storage.MotivationalState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drives[state.Kind] = state
	return nil
}

func (s *fakeSocialStore) SaveSocialEvaluation(_ context.Context, eval *storage.SocialEvaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evals[eval.SourcePlatform+"/"+eval.SourcePostID] = eval
	return nil
}

func (s *fakeSocialStore) HasSocialEvaluation(_ context.Context, platform, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.evals[platform+"/"+postID]
	return ok, nil
}

// fakeFeed serves scripted pages through the ToolExecutor interface and
// records POSTed replies.
type fakeFeed struct {
	mu      sync.Mutex
	pages   []feedPage
	fetches int
	replies []map[string]interface{}
}

func (f *fakeFeed) Execute(_ context.Context, _ tools.Caller, name string, params map[string]interface{}) (*tools.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name != "http_request" {
		return tools.Failure(tools.CodeUnknownTool, name), nil
	}
	if params["method"] == "POST" {
		f.replies = append(f.replies, params)
		return &tools.Result{Success: true}, nil
	}
	page := feedPage{}
	if f.fetches < len(f.pages) {
		page = f.pages[f.fetches]
	}
	f.fetches++
	data, _ := json.Marshal(page)
	return &tools.Result{Success: true, Data: string(data)}, nil
}

func respondLLM(verdicts map[string]string) *fakeLLM {
	return &fakeLLM{fn: func(_ int, req llm.CallRequest) (*llm.Result, error) {
		for id, v := range verdicts {
			if strings.Contains(req.User, id) {
				return &llm.Result{
					Content: fmt.Sprintf(`{"verdict":%q,"reason":"r","reply":"thanks"}`, v),
					Usage:   types.Usage{InputTokens: 50, OutputTokens: 20},
				}, nil
			}
		}
		return &llm.Result{Content: `{"verdict":"skip","reason":"unmatched"}`}, nil
	}}
}

func newSocialRunner(store *fakeSocialStore, feed *fakeFeed, caller LLMCaller) *SocialMonitorRunner {
	return NewSocialMonitorRunner(SocialConfig{
		LLM:       caller,
		Tools:     feed,
		Store:     store,
		Platform:  "mastodon",
		FeedURL:   "https://social.example/api/feed",
		ReplyURL:  "https://social.example/api/reply",
		DriveKind: "social_engagement",
	})
}

func TestSocialMonitorEvaluatesAndResponds(t *testing.T) {
	store := newFakeSocialStore("social_engagement")
	feed := &fakeFeed{pages: []feedPage{{
		Items: []feedItem{
			{ID: "post-1", Author: "ada", Text: "how do I tune my scheduler? post-1"},
			{ID: "post-2", Author: "bob", Text: "spam spam spam post-2"},
		},
	}}}
	runner := newSocialRunner(store, feed, respondLLM(map[string]string{
		"post-1": "respond",
		"post-2": "skip",
	}))

	result, err := runner.Run(context.Background(), Call{AgentID: "a", ThoughtTreeID: "t"})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, 2, result.Data["evaluated"])
	assert.Equal(t, 1, result.Data["responded"])

	// Both items are recorded; only post-1 got a reply.
	assert.Len(t, store.evals, 2)
	assert.True(t, store.evals["mastodon/post-1"].Responded)
	assert.False(t, store.evals["mastodon/post-2"].Responded)
	require.Len(t, feed.replies, 1)

	// Rate counters persisted into drive metadata.
	drive := store.drives["social_engagement"]
	assert.Equal(t, 1, drive.Metadata["posts_this_hour"])
	assert.Equal(t, 0, drive.Metadata["cycles_since_last_post"])
}

func TestSocialMonitorSkipsSeenItems(t *testing.T) {
	store := newFakeSocialStore("social_engagement")
	store.evals["mastodon/post-1"] = &storage.SocialEvaluation{SourcePostID: "post-1"}

	feed := &fakeFeed{pages: []feedPage{{
		Items: []feedItem{{ID: "post-1", Text: "already seen post-1"}},
	}}}
	fake := &fakeLLM{}
	runner := newSocialRunner(store, feed, fake)

	result, err := runner.Run(context.Background(), Call{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Data["evaluated"])
	assert.Equal(t, 1, result.Data["skipped"])
	assert.Equal(t, 0, fake.callCount())
}

func TestSocialMonitorHourlyCap(t *testing.T) {
	store := newFakeSocialStore("social_engagement")
	store.drives["social_engagement"].Metadata = map[string]interface{}{
		"posts_this_hour":   2,
		"hour_window_start": time.Now().UTC().Unix(),
	}
	feed := &fakeFeed{pages: []feedPage{{
		Items: []feedItem{{ID: "post-9", Text: "great question post-9"}},
	}}}
	runner := newSocialRunner(store, feed, respondLLM(map[string]string{"post-9": "respond"}))

	result, err := runner.Run(context.Background(), Call{})
	require.NoError(t, err)

	// Evaluated but not responded: the per-hour gate held.
	assert.Equal(t, 1, result.Data["evaluated"])
	assert.Equal(t, 0, result.Data["responded"])
	assert.Len(t, feed.replies, 0)
	assert.False(t, store.evals["mastodon/post-9"].Responded)
}

func TestSocialMonitorRotatesSortAndCursor(t *testing.T) {
	store := newFakeSocialStore("social_engagement")
	feed := &fakeFeed{pages: []feedPage{
		{Items: []feedItem{{ID: "p1", Text: "p1"}}, NextCursor: "c2"},
		{Items: []feedItem{{ID: "p2", Text: "p2"}}},
	}}
	runner := newSocialRunner(store, feed, &fakeLLM{fn: func(int, llm.CallRequest) (*llm.Result, error) {
		return &llm.Result{Content: `{"verdict":"skip","reason":"r"}`}, nil
	}})

	_, err := runner.Run(context.Background(), Call{})
	require.NoError(t, err)

	drive := store.drives["social_engagement"]
	// First run used "hot"; next run rotates.
	assert.Equal(t, 1, drive.Metadata["sort_index"])
	assert.Contains(t, drive.Metadata, "cursor_hot")
	assert.Equal(t, 2, feed.fetches)
}

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
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/pkg/llm"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/tools"
	"github.com/nyx-labs/nyx/pkg/types"
)

// SocialStore is the persistence slice the monitor needs: drive metadata
// for cursors and rate counters, plus the evaluation dedupe table.
type SocialStore interface {
	GetMotivationalState(ctx context.Context, kind string) (*storage.MotivationalState, error)
	UpsertMotivationalState(ctx context.Context, state *storage.MotivationalState) error
	SaveSocialEvaluation(ctx context.Context, eval *storage.SocialEvaluation) error
	HasSocialEvaluation(ctx context.Context, platform, postID string) (bool, error)
}

// ToolExecutor is the slice of the tool registry the monitor uses.
type ToolExecutor interface {
	Execute(ctx context.Context, caller tools.Caller, name string, params map[string]interface{}) (*tools.Result, error)
}

// SocialConfig configures a social monitor runner.
type SocialConfig struct {
	LLM   LLMCaller
	Tools ToolExecutor
	Store SocialStore

	// Platform labels evaluations and dedupe rows.
	Platform string

	// FeedURL is the paginated feed endpoint. The monitor appends
	// ?sort=<strategy>&cursor=<cursor>.
	FeedURL string

	// ReplyURL receives responses via POST. Empty disables posting; the
	// monitor still records what it would have said.
	ReplyURL string

	// SortStrategies rotate across runs. Defaults to hot, new, top.
	SortStrategies []string

	// DriveKind is the motivational drive whose metadata holds cursors
	// and rate counters.
	DriveKind string

	// MaxPostsPerHour gates responses across runs. Defaults to 2.
	MaxPostsPerHour int

	// MaxResponsesPerRun gates responses within one run. Defaults to 1.
	MaxResponsesPerRun int

	// MaxPagesPerRun bounds feed pagination per run. Defaults to 3.
	MaxPagesPerRun int

	Model  string
	Logger *zap.Logger
}

// SocialMonitorRunner scans a feed, evaluates unseen items through the
// LLM, and responds within strict rate caps.
type SocialMonitorRunner struct {
	cfg SocialConfig
}

// NewSocialMonitorRunner builds the specialization.
func NewSocialMonitorRunner(cfg SocialConfig) *SocialMonitorRunner {
	if len(cfg.SortStrategies) == 0 {
		cfg.SortStrategies = []string{"hot", "new", "top"}
	}
	if cfg.MaxPostsPerHour <= 0 {
		cfg.MaxPostsPerHour = 2
	}
	if cfg.MaxResponsesPerRun <= 0 {
		cfg.MaxResponsesPerRun = 1
	}
	if cfg.MaxPagesPerRun <= 0 {
		cfg.MaxPagesPerRun = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &SocialMonitorRunner{cfg: cfg}
}

// NewSocialMonitorAgent is the convenience constructor.
func NewSocialMonitorAgent(socialCfg SocialConfig, agentCfg Config) *Agent {
	return New(NewSocialMonitorRunner(socialCfg), agentCfg)
}

func (r *SocialMonitorRunner) Kind() types.AgentKind { return types.AgentSocialMonitor }
func (r *SocialMonitorRunner) ClassName() string     { return "SocialMonitorAgent" }

// feedItem is one post from the feed payload.
type feedItem struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Title  string `json:"title"`
	Text   string `json:"text"`
}

// feedPage is the wire shape of one feed response.
type feedPage struct {
	Items      []feedItem `json:"items"`
	NextCursor string     `json:"next_cursor"`
}

// verdict is the fixed output grammar of an evaluation call.
type verdict struct {
	Verdict string `json:"verdict"` // "respond" | "skip"
	Reason  string `json:"reason"`
	Reply   string `json:"reply,omitempty"`
}

func (r *SocialMonitorRunner) Run(ctx context.Context, call Call) (*types.AgentResult, error) {
	drive, err := r.cfg.Store.GetMotivationalState(ctx, r.cfg.DriveKind)
	if err != nil {
		return nil, fmt.Errorf("failed to load drive %s: %w", r.cfg.DriveKind, err)
	}
	meta := drive.Metadata
	if meta == nil {
		meta = map[string]interface{}{}
	}

	// Hourly window reset.
	now := time.Now().UTC()
	windowStart := metaInt64(meta, "hour_window_start")
	postsThisHour := metaInt(meta, "posts_this_hour")
	if windowStart == 0 || now.Sub(time.Unix(windowStart, 0)) >= time.Hour {
		windowStart = now.Unix()
		postsThisHour = 0
	}

	// Rotate the sort strategy and resume from its cursor.
	sortIndex := metaInt(meta, "sort_index") % len(r.cfg.SortStrategies)
	sort := r.cfg.SortStrategies[sortIndex]
	cursor, _ := meta["cursor_"+sort].(string)

	var (
		usage     types.Usage
		evaluated int
		responded int
		skipped   int
	)
	caller := tools.Caller{AgentID: call.AgentID, ThoughtTreeID: call.ThoughtTreeID}

pages:
	for page := 0; page < r.cfg.MaxPagesPerRun; page++ {
		items, nextCursor, err := r.fetchPage(ctx, caller, sort, cursor)
		if err != nil {
			r.cfg.Logger.Warn("feed fetch failed", zap.String("sort", sort), zap.Error(err))
			break
		}
		cursor = nextCursor

		for _, item := range items {
			if item.ID == "" {
				continue
			}
			seen, err := r.cfg.Store.HasSocialEvaluation(ctx, r.cfg.Platform, item.ID)
			if err != nil {
				return nil, fmt.Errorf("dedupe lookup failed: %w", err)
			}
			if seen {
				skipped++
				continue
			}

			v, callUsage, err := r.evaluate(ctx, call, item)
			if err != nil {
				return nil, err
			}
			usage.Add(callUsage)
			evaluated++

			canRespond := v.Verdict == "respond" &&
				postsThisHour < r.cfg.MaxPostsPerHour &&
				responded < r.cfg.MaxResponsesPerRun
			if canRespond {
				if err := r.respond(ctx, caller, item, v.Reply); err != nil {
					r.cfg.Logger.Warn("response post failed",
						zap.String("post_id", item.ID), zap.Error(err))
					canRespond = false
				}
			}

			if err := r.cfg.Store.SaveSocialEvaluation(ctx, &storage.SocialEvaluation{
				ID:             uuid.NewString(),
				DriveID:        drive.ID,
				SourcePlatform: r.cfg.Platform,
				SourcePostID:   item.ID,
				Verdict:        v.Verdict,
				Responded:      canRespond,
				CreatedAt:      now,
			}); err != nil {
				return nil, fmt.Errorf("failed to record evaluation: %w", err)
			}

			if canRespond {
				responded++
				postsThisHour++
			}
			if responded >= r.cfg.MaxResponsesPerRun && postsThisHour >= r.cfg.MaxPostsPerHour {
				break pages
			}
		}
		if cursor == "" {
			break
		}
	}

	// Persist cursors and rate counters back into drive metadata.
	meta["cursor_"+sort] = cursor
	meta["sort_index"] = (sortIndex + 1) % len(r.cfg.SortStrategies)
	meta["hour_window_start"] = windowStart
	meta["posts_this_hour"] = postsThisHour
	if responded > 0 {
		meta["cycles_since_last_post"] = 0
	} else {
		meta["cycles_since_last_post"] = metaInt(meta, "cycles_since_last_post") + 1
	}
	drive.Metadata = meta
	drive.UpdatedAt = now
	if err := r.cfg.Store.UpsertMotivationalState(ctx, drive); err != nil {
		return nil, fmt.Errorf("failed to persist drive metadata: %w", err)
	}

	return &types.AgentResult{
		Success: true,
		Content: fmt.Sprintf("evaluated %d items on %s/%s, responded to %d, skipped %d already seen",
			evaluated, r.cfg.Platform, sort, responded, skipped),
		Usage: usage,
		Data: map[string]interface{}{
			"platform":        r.cfg.Platform,
			"sort":            sort,
			"evaluated":       evaluated,
			"responded":       responded,
			"skipped":         skipped,
			"posts_this_hour": postsThisHour,
		},
	}, nil
}

// fetchPage pulls one feed page through the http_request tool.
func (r *SocialMonitorRunner) fetchPage(ctx context.Context, caller tools.Caller, sort, cursor string) ([]feedItem, string, error) {
	url := fmt.Sprintf("%s?sort=%s", r.cfg.FeedURL, sort)
	if cursor != "" {
		url += "&cursor=" + cursor
	}
	result, err := r.cfg.Tools.Execute(ctx, caller, "http_request",
		map[string]interface{}{"url": url})
	if err != nil {
		return nil, "", err
	}
	if !result.Success {
		return nil, "", fmt.Errorf("feed fetch failed: %s", toolErrorMessage(result))
	}
	body, _ := result.Data.(string)

	var page feedPage
	if err := json.Unmarshal([]byte(body), &page); err != nil {
		return nil, "", fmt.Errorf("malformed feed payload: %w", err)
	}
	return page.Items, page.NextCursor, nil
}

// evaluate asks the LLM for a verdict in the fixed grammar.
func (r *SocialMonitorRunner) evaluate(ctx context.Context, call Call, item feedItem) (*verdict, types.Usage, error) {
	result, err := r.cfg.LLM.Call(ctx, llm.CallRequest{
		System: "You evaluate social posts for whether a response would add genuine value. " +
			`Respond with JSON only: {"verdict":"respond"|"skip","reason":"...","reply":"..."}. ` +
			"Set reply only when verdict is respond. Skip anything inflammatory, spam, or outside your competence.",
		User: fmt.Sprintf("Author: %s\nTitle: %s\n\n%s",
			item.Author, item.Title, item.Text),
		Model:         r.cfg.Model,
		Temperature:   0.4,
		ThoughtTreeID: call.ThoughtTreeID,
		AgentID:       call.AgentID,
		UseCache:      true,
	})
	if err != nil {
		return nil, types.Usage{}, fmt.Errorf("evaluation call failed: %w", err)
	}

	var v verdict
	if err := json.Unmarshal([]byte(extractJSON(result.Content)), &v); err != nil {
		// A malformed verdict is a skip, not a failure.
		return &verdict{Verdict: "skip", Reason: "unparseable verdict"}, result.Usage, nil
	}
	if v.Verdict != "respond" {
		v.Verdict = "skip"
	}
	return &v, result.Usage, nil
}

// respond posts the reply through the http_request tool.
func (r *SocialMonitorRunner) respond(ctx context.Context, caller tools.Caller, item feedItem, reply string) error {
	if r.cfg.ReplyURL == "" {
		return nil
	}
	payload, _ := json.Marshal(map[string]string{
		"in_reply_to": item.ID,
		"text":        reply,
	})
	result, err := r.cfg.Tools.Execute(ctx, caller, "http_request", map[string]interface{}{
		"url":    r.cfg.ReplyURL,
		"method": "POST",
		"body":   string(payload),
	})
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("reply rejected: %s", toolErrorMessage(result))
	}
	return nil
}

func toolErrorMessage(result *tools.Result) string {
	if result.Error != nil {
		return result.Error.Code + ": " + result.Error.Message
	}
	return "unknown tool error"
}

// extractJSON strips markdown fences and surrounding prose from a model
// response expected to be a JSON object.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			return content[start : end+1]
		}
	}
	return content
}

func metaInt(meta map[string]interface{}, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func metaInt64(meta map[string]interface{}, key string) int64 {
	switch v := meta[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

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
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nyx-labs/nyx/pkg/llm/promptcache"
	"github.com/nyx-labs/nyx/pkg/storage"
	"github.com/nyx-labs/nyx/pkg/types"
)

const (
	// DefaultMaxTokens is the default completion budget per call.
	DefaultMaxTokens = 4096
	// DefaultTemperature is the default sampling temperature.
	DefaultTemperature = 0.7
	// DefaultMaxRetries bounds the retry loop.
	DefaultMaxRetries = 3
	// DefaultRetryBase is the initial backoff delay.
	DefaultRetryBase = 1 * time.Second
	// DefaultRetryCap bounds the backoff delay.
	DefaultRetryCap = 60 * time.Second
)

// InteractionStore receives the append-only LLM interaction log. The
// SQLite store implements it; tests use in-memory fakes.
type InteractionStore interface {
	SaveLLMInteraction(ctx context.Context, row *storage.LLMInteraction) error
}

// CallRequest is one request on the cached call path.
type CallRequest struct {
	System      string
	User        string
	Model       string // empty uses the client default
	MaxTokens   int
	Temperature float64 // negative uses the client default

	// Attribution for the interaction log. Either may be empty.
	ThoughtTreeID string
	AgentID       string

	// UseCache enables breakpoint insertion. AlwaysCacheSystem forces a
	// breakpoint on the system segment regardless of size (council shared
	// context).
	UseCache          bool
	AlwaysCacheSystem bool
}

// Result is the caller-facing outcome of one successful call.
type Result struct {
	Content     string      `json:"content"`
	Model       string      `json:"model"`
	StopReason  string      `json:"stop_reason,omitempty"`
	Usage       types.Usage `json:"usage"`
	CacheHit    bool        `json:"cache_hit"`
	Retries     int         `json:"retries"`
	LatencyMs   int64       `json:"latency_ms"`
	Fingerprint string      `json:"fingerprint"`
}

// ClientConfig configures the cached call path.
type ClientConfig struct {
	DefaultModel       string
	DefaultMaxTokens   int
	DefaultTemperature float64
	MaxRetries         int
	RetryBase          time.Duration
	RetryCap           time.Duration
	Breaker            BreakerConfig
	Logger             *zap.Logger

	// InteractionBuffer sizes the async log channel. Overflow drops the
	// row with a warning rather than blocking the call path.
	InteractionBuffer int
}

// Client drives every model call: breakpoint insertion, circuit
// breaking, retry with exponential backoff, cost accounting, and async
// interaction logging.
type Client struct {
	provider provider
	breaker  *CircuitBreaker
	stats    *promptcache.Stats
	store    InteractionStore
	logger   *zap.Logger
	config   ClientConfig

	interactions chan *storage.LLMInteraction
	done         chan struct{}
}

// provider is an alias to keep the struct field readable.
type provider = Provider

// NewClient creates the cached call path around a provider. The store
// may be nil (interaction logging disabled, used in tests).
func NewClient(p Provider, store InteractionStore, stats *promptcache.Stats, config ClientConfig) *Client {
	if config.DefaultMaxTokens <= 0 {
		config.DefaultMaxTokens = DefaultMaxTokens
	}
	if config.DefaultTemperature <= 0 {
		config.DefaultTemperature = DefaultTemperature
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.RetryBase <= 0 {
		config.RetryBase = DefaultRetryBase
	}
	if config.RetryCap <= 0 {
		config.RetryCap = DefaultRetryCap
	}
	if config.InteractionBuffer <= 0 {
		config.InteractionBuffer = 256
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if stats == nil {
		stats = promptcache.NewStats()
	}
	if config.Breaker.Logger == nil {
		config.Breaker.Logger = config.Logger
	}

	c := &Client{
		provider:     p,
		breaker:      NewCircuitBreaker(config.Breaker),
		stats:        stats,
		store:        store,
		logger:       config.Logger,
		config:       config,
		interactions: make(chan *storage.LLMInteraction, config.InteractionBuffer),
		done:         make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// Stats returns the process-global cache statistics block.
func (c *Client) Stats() *promptcache.Stats {
	return c.stats
}

// Breaker exposes the circuit breaker for status reporting.
func (c *Client) Breaker() *CircuitBreaker {
	return c.breaker
}

// Call performs one model call through the full path. On failure the
// returned error is a *llm.Error; a failure row with estimated token
// counts is still logged so the cost ledger stays consistent.
func (c *Client) Call(ctx context.Context, req CallRequest) (*Result, error) {
	model := req.Model
	if model == "" {
		model = c.config.DefaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.config.DefaultMaxTokens
	}
	temperature := req.Temperature
	if temperature < 0 {
		temperature = c.config.DefaultTemperature
	}

	requestedAt := time.Now().UTC()
	fingerprint := promptcache.Fingerprint(req.System, req.User, model)

	if err := c.breaker.Allow(); err != nil {
		c.logInteraction(req, model, nil, 0, requestedAt, err)
		return nil, err
	}

	wireReq := c.shapeRequest(req, model, maxTokens, temperature)

	var (
		resp    *Response
		callErr error
	)
	delay := c.config.RetryBase
	retries := 0
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		retries = attempt
		resp, callErr = c.provider.Complete(ctx, wireReq)
		if callErr == nil {
			c.breaker.RecordSuccess()
			break
		}
		c.breaker.RecordFailure()

		if ctx.Err() != nil || !IsRetryable(callErr) || attempt == c.config.MaxRetries {
			break
		}

		c.logger.Warn("llm call failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.config.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(callErr))

		select {
		case <-ctx.Done():
			callErr = WrapError(ErrTimeout, ctx.Err(), "context cancelled during retry backoff")
			attempt = c.config.MaxRetries
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.config.RetryCap {
			delay = c.config.RetryCap
		}
	}

	if callErr != nil {
		classified := classify(callErr)
		c.logInteraction(req, model, nil, retries, requestedAt, classified)
		return nil, classified
	}

	usage := resp.Usage
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	usage.CostUSD = Cost(model, usage.InputTokens, usage.OutputTokens,
		usage.CacheCreationInputTokens, usage.CacheReadInputTokens)
	usage.CostWithoutCacheUSD = CostWithoutCache(model, usage.InputTokens, usage.OutputTokens,
		usage.CacheCreationInputTokens, usage.CacheReadInputTokens)

	c.stats.Record(usage.InputTokens, usage.OutputTokens,
		usage.CacheCreationInputTokens, usage.CacheReadInputTokens,
		usage.CostUSD, usage.CostWithoutCacheUSD)

	latency := time.Since(requestedAt).Milliseconds()
	result := &Result{
		Content:     resp.Content,
		Model:       model,
		StopReason:  resp.StopReason,
		Usage:       usage,
		CacheHit:    usage.CacheHit(),
		Retries:     retries,
		LatencyMs:   latency,
		Fingerprint: fingerprint,
	}

	row := resultRow(req, model, result, requestedAt)
	c.logInteractionRow(row)
	return result, nil
}

// shapeRequest builds the provider wire request with cache breakpoints
// per policy: system first, then the user body when large, capped at
// promptcache.MaxBreakpoints.
func (c *Client) shapeRequest(req CallRequest, model string, maxTokens int, temperature float64) *Request {
	breakpoints := 0

	var system []TextBlock
	if req.System != "" {
		block := TextBlock{Type: "text", Text: req.System}
		if req.UseCache && (req.AlwaysCacheSystem || promptcache.Cacheable(req.System, model)) {
			block.CacheControl = Ephemeral()
			breakpoints++
		}
		system = append(system, block)
	}

	userBlock := TextBlock{Type: "text", Text: req.User}
	if req.UseCache && breakpoints < promptcache.MaxBreakpoints && promptcache.Cacheable(req.User, model) {
		userBlock.CacheControl = Ephemeral()
	}

	return &Request{
		Model:       model,
		System:      system,
		Messages:    []Message{{Role: "user", Content: []TextBlock{userBlock}}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// classify ensures every failure surfacing from Call is a *llm.Error.
func classify(err error) *Error {
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapError(ErrTimeout, err, "call deadline exceeded")
	}
	return WrapError(ErrConnection, err, "transport failure")
}

// logInteraction builds and enqueues a failure row. Token counts use the
// chars/4 estimate so the ledger remains approximately consistent.
func (c *Client) logInteraction(req CallRequest, model string, _ *Result, retries int, requestedAt time.Time, callErr error) {
	row := &storage.LLMInteraction{
		ID:            uuid.NewString(),
		AgentID:       req.AgentID,
		ThoughtTreeID: req.ThoughtTreeID,
		Provider:      c.provider.Name(),
		Model:         model,
		SystemPrompt:  req.System,
		UserPrompt:    req.User,
		RequestedAt:   requestedAt,
		RespondedAt:   time.Now().UTC(),
		InputTokens:   EstimateTokens(req.System) + EstimateTokens(req.User),
		LatencyMs:     time.Since(requestedAt).Milliseconds(),
		Success:       false,
		RetryCount:    retries,
	}
	if callErr != nil {
		row.Error = callErr.Error()
	}
	c.logInteractionRow(row)
}

// resultRow builds the success row for the interaction log.
func resultRow(req CallRequest, model string, result *Result, requestedAt time.Time) *storage.LLMInteraction {
	return &storage.LLMInteraction{
		ID:                       uuid.NewString(),
		AgentID:                  req.AgentID,
		ThoughtTreeID:            req.ThoughtTreeID,
		Model:                    model,
		SystemPrompt:             req.System,
		UserPrompt:               req.User,
		Response:                 result.Content,
		RequestedAt:              requestedAt,
		RespondedAt:              time.Now().UTC(),
		InputTokens:              result.Usage.InputTokens,
		OutputTokens:             result.Usage.OutputTokens,
		CacheCreationInputTokens: result.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     result.Usage.CacheReadInputTokens,
		LatencyMs:                result.LatencyMs,
		CostUSD:                  result.Usage.CostUSD,
		CostWithoutCacheUSD:      result.Usage.CostWithoutCacheUSD,
		Success:                  true,
		RetryCount:               result.Retries,
	}
}

// logInteractionRow enqueues a row for the async writer. A full buffer
// drops the row; logging never blocks or fails the call path.
func (c *Client) logInteractionRow(row *storage.LLMInteraction) {
	if c.store == nil {
		return
	}
	row.Provider = c.provider.Name()
	select {
	case c.interactions <- row:
	default:
		c.logger.Warn("interaction log buffer full, dropping row",
			zap.String("interaction_id", row.ID))
	}
}

// writeLoop drains the interaction channel until Close.
func (c *Client) writeLoop() {
	for row := range c.interactions {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := c.store.SaveLLMInteraction(ctx, row); err != nil {
			c.logger.Warn("failed to persist llm interaction",
				zap.String("interaction_id", row.ID),
				zap.Error(err))
		}
		cancel()
	}
	close(c.done)
}

// Close flushes the async interaction writer. Call after all in-flight
// calls have returned.
func (c *Client) Close() {
	close(c.interactions)
	<-c.done
}

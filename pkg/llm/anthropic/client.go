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

// Package anthropic implements the llm.Provider interface against the
// Anthropic Messages API, including the prompt-caching beta.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/nyx-labs/nyx/pkg/llm"
)

const (
	// DefaultModel is the default Claude model.
	DefaultModel = "claude-sonnet-4-5-20250929"
	// DefaultEndpoint is the Messages API endpoint.
	DefaultEndpoint = "https://api.anthropic.com/v1/messages"
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 120 * time.Second

	apiVersion = "2023-06-01"
	// Cached tokens don't count against Anthropic's ITPM rate limit.
	cachingBeta = "prompt-caching-2024-07-31"
)

// Config holds configuration for the Anthropic provider.
type Config struct {
	APIKey   string
	Endpoint string // default: DefaultEndpoint
	Timeout  time.Duration
}

// Client speaks the Messages API wire format directly. System and user
// content are ordered text blocks; cache_control annotations pass
// through untouched.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewClient creates an Anthropic provider.
func NewClient(config Config) *Client {
	if config.Endpoint == "" {
		if env := os.Getenv("ANTHROPIC_API_ENDPOINT"); env != "" {
			config.Endpoint = env
		} else {
			config.Endpoint = DefaultEndpoint
		}
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	return &Client{
		apiKey:   config.APIKey,
		endpoint: config.Endpoint,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "anthropic"
}

// Complete performs one Messages API call.
func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	body, err := json.Marshal(messagesRequest{
		Model:       req.Model,
		System:      req.System,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, llm.WrapError(llm.ErrAccounting, err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, llm.WrapError(llm.ErrConnection, err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("anthropic-beta", cachingBeta)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, llm.WrapError(llm.ErrTimeout, err, "request timed out")
		}
		return nil, llm.WrapError(llm.ErrConnection, err, "request failed")
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, llm.WrapError(llm.ErrConnection, err, "failed to read response")
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyStatus(httpResp.StatusCode, respBody)
	}

	var resp messagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, llm.WrapError(llm.ErrProvider, err, "failed to unmarshal response")
	}

	out := &llm.Response{
		Model:      resp.Model,
		StopReason: resp.StopReason,
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.Content += block.Text
		}
	}
	out.Usage.InputTokens = resp.Usage.InputTokens
	out.Usage.OutputTokens = resp.Usage.OutputTokens
	out.Usage.CacheCreationInputTokens = resp.Usage.CacheCreationInputTokens
	out.Usage.CacheReadInputTokens = resp.Usage.CacheReadInputTokens
	return out, nil
}

// classifyStatus maps an HTTP failure to the retry taxonomy: 429 and 529
// are rate limits, other 4xx are semantic provider errors (never
// retried), 5xx are transient.
func classifyStatus(status int, body []byte) *llm.Error {
	msg := fmt.Sprintf("API error (status %d): %s", status, string(body))
	switch {
	case status == http.StatusTooManyRequests || status == 529:
		return &llm.Error{Kind: llm.ErrRateLimited, Message: msg, StatusCode: status}
	case status >= 400 && status < 500:
		return &llm.Error{Kind: llm.ErrProvider, Message: msg, StatusCode: status}
	default:
		return &llm.Error{Kind: llm.ErrConnection, Message: msg, StatusCode: status}
	}
}

var _ llm.Provider = (*Client)(nil)

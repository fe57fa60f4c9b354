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

// Package bedrock implements the llm.Provider interface on AWS Bedrock
// through the official Anthropic SDK, which handles request signing and
// endpoint routing.
package bedrock

import (
	"context"
	"fmt"
	"os"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/nyx-labs/nyx/pkg/llm"
)

const (
	// DefaultModelID is the default Bedrock model identifier.
	DefaultModelID = "anthropic.claude-sonnet-4-5-20250929-v1:0"
	// DefaultRegion is the default AWS region.
	DefaultRegion = "us-east-1"
)

// Config holds Bedrock provider configuration. Credentials resolve in
// order: static keys, named profile, default chain (IAM role, env).
type Config struct {
	ModelID         string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Profile         string
}

// Client is the Bedrock-backed provider.
type Client struct {
	client  anthropicsdk.Client
	modelID string
	region  string
}

// NewClient creates a Bedrock provider.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ModelID == "" {
		if env := os.Getenv("AWS_BEDROCK_MODEL_ID"); env != "" {
			cfg.ModelID = env
		} else {
			cfg.ModelID = DefaultModelID
		}
	}
	if cfg.Region == "" {
		if env := os.Getenv("AWS_DEFAULT_REGION"); env != "" {
			cfg.Region = env
		} else {
			cfg.Region = DefaultRegion
		}
	}

	var awsCfg aws.Config
	var err error
	switch {
	case cfg.AccessKeyID != "" && cfg.SecretAccessKey != "":
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)),
		)
	case cfg.Profile != "":
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithSharedConfigProfile(cfg.Profile),
		)
	default:
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{
		client:  anthropicsdk.NewClient(bedrock.WithConfig(awsCfg)),
		modelID: cfg.ModelID,
		region:  cfg.Region,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "bedrock"
}

// Complete performs one model call through the SDK. Cache breakpoints
// carry over onto the SDK's text block params.
func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	model := req.Model
	if model == "" || !strings.Contains(model, ".") {
		// Caller passed a bare Anthropic model name; use the configured
		// Bedrock model id instead.
		model = c.modelID
	}

	params := anthropicsdk.MessageNewParams{
		Model:       anthropicsdk.Model(model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropicsdk.Float(req.Temperature),
	}

	for _, block := range req.System {
		tb := anthropicsdk.TextBlockParam{Text: block.Text}
		if block.CacheControl != nil {
			tb.CacheControl = anthropicsdk.NewCacheControlEphemeralParam()
		}
		params.System = append(params.System, tb)
	}

	for _, msg := range req.Messages {
		var content []anthropicsdk.ContentBlockParamUnion
		for _, block := range msg.Content {
			tb := anthropicsdk.NewTextBlock(block.Text)
			if block.CacheControl != nil && tb.OfText != nil {
				tb.OfText.CacheControl = anthropicsdk.NewCacheControlEphemeralParam()
			}
			content = append(content, tb)
		}
		switch msg.Role {
		case "assistant":
			params.Messages = append(params.Messages, anthropicsdk.NewAssistantMessage(content...))
		default:
			params.Messages = append(params.Messages, anthropicsdk.NewUserMessage(content...))
		}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifySDKError(err)
	}

	out := &llm.Response{
		Model:      string(message.Model),
		StopReason: string(message.StopReason),
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			out.Content += block.Text
		}
	}
	out.Usage.InputTokens = int(message.Usage.InputTokens)
	out.Usage.OutputTokens = int(message.Usage.OutputTokens)
	out.Usage.CacheCreationInputTokens = int(message.Usage.CacheCreationInputTokens)
	out.Usage.CacheReadInputTokens = int(message.Usage.CacheReadInputTokens)
	return out, nil
}

// classifySDKError maps SDK failures onto the retry taxonomy by
// inspecting the error text for throttling signals.
func classifySDKError(err error) *llm.Error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "throttl") || strings.Contains(lower, "too many requests") || strings.Contains(lower, "429"):
		return llm.WrapError(llm.ErrRateLimited, err, "bedrock throttled request")
	case strings.Contains(lower, "context deadline") || strings.Contains(lower, "timeout"):
		return llm.WrapError(llm.ErrTimeout, err, "bedrock request timed out")
	case strings.Contains(lower, "validationexception") || strings.Contains(lower, "access denied") || strings.Contains(lower, "accessdenied"):
		return llm.WrapError(llm.ErrProvider, err, "bedrock rejected request")
	default:
		return llm.WrapError(llm.ErrConnection, err, "bedrock invocation failed")
	}
}

var _ llm.Provider = (*Client)(nil)

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
package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyx-labs/nyx/pkg/llm"
)

func TestCompleteSuccess(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		assert.Equal(t, cachingBeta, r.Header.Get("anthropic-beta"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "msg_1",
			"model":       "claude-sonnet-4-5",
			"stop_reason": "end_turn",
			"content":     []map[string]string{{"type": "text", "text": "hi there"}},
			"usage": map[string]int{
				"input_tokens":                12,
				"output_tokens":               5,
				"cache_creation_input_tokens": 1024,
				"cache_read_input_tokens":     0,
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", Endpoint: server.URL})
	resp, err := client.Complete(context.Background(), &llm.Request{
		Model: "claude-sonnet-4-5",
		System: []llm.TextBlock{
			{Type: "text", Text: "big system prompt", CacheControl: llm.Ephemeral()},
		},
		Messages: []llm.Message{
			{Role: "user", Content: []llm.TextBlock{{Type: "text", Text: "hello"}}},
		},
		MaxTokens:   256,
		Temperature: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 1024, resp.Usage.CacheCreationInputTokens)

	// The cache_control annotation must survive serialization.
	system := captured["system"].([]interface{})
	block := system[0].(map[string]interface{})
	cc := block["cache_control"].(map[string]interface{})
	assert.Equal(t, "ephemeral", cc["type"])
}

func TestCompleteErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		want   llm.ErrorKind
	}{
		{http.StatusTooManyRequests, llm.ErrRateLimited},
		{529, llm.ErrRateLimited},
		{http.StatusBadRequest, llm.ErrProvider},
		{http.StatusUnauthorized, llm.ErrProvider},
		{http.StatusInternalServerError, llm.ErrConnection},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"error":{"type":"test"}}`))
		}))

		client := NewClient(Config{APIKey: "k", Endpoint: server.URL})
		_, err := client.Complete(context.Background(), &llm.Request{
			Model:    "claude-sonnet-4-5",
			Messages: []llm.Message{{Role: "user", Content: []llm.TextBlock{{Type: "text", Text: "x"}}}},
		})
		require.Error(t, err)
		assert.Equal(t, tt.want, llm.KindOf(err), "status %d", tt.status)
		server.Close()
	}
}

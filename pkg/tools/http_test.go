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
package tools

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRequestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	tool := NewHTTPRequestTool()
	result, err := tool.Execute(context.Background(), map[string]interface{}{"url": server.URL})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, `{"items":[]}`, result.Data)
	assert.Equal(t, 200, result.Metadata["status_code"])
}

func TestHTTPRequestPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "token", r.Header.Get("X-Auth"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"q":"x"}`, string(body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	tool := NewHTTPRequestTool()
	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"url":     server.URL,
		"method":  "POST",
		"body":    `{"q":"x"}`,
		"headers": map[string]interface{}{"X-Auth": "token"},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 201, result.Metadata["status_code"])
}

func TestHTTPRequestServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	tool := NewHTTPRequestTool()
	result, err := tool.Execute(context.Background(), map[string]interface{}{"url": server.URL})
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, "http_502", result.Error.Code)
	assert.True(t, result.Error.Retryable)
}

func TestHTTPRequestRejectsNonHTTP(t *testing.T) {
	tool := NewHTTPRequestTool()
	result, err := tool.Execute(context.Background(),
		map[string]interface{}{"url": "ftp://example.com/file"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, CodeInvalidParams, result.Error.Code)
}

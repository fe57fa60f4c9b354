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
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxHTTPResponseBytes caps http_request response bodies.
const maxHTTPResponseBytes = 512 << 10

// HTTPRequestTool performs GET and POST requests. The social monitor
// uses it to fetch feed pages.
type HTTPRequestTool struct {
	client *http.Client
}

func NewHTTPRequestTool() *HTTPRequestTool {
	return &HTTPRequestTool{client: &http.Client{Timeout: 30 * time.Second}}
}

func (t *HTTPRequestTool) Name() string { return "http_request" }

func (t *HTTPRequestTool) Description() string {
	return "Perform an HTTP GET or POST request and return status, headers, and body."
}

func (t *HTTPRequestTool) InputSchema() *JSONSchema {
	return NewObjectSchema("http_request parameters", map[string]*JSONSchema{
		"url":    NewStringSchema("Request URL (http or https)"),
		"method": NewStringSchema("HTTP method").WithEnum("GET", "POST").WithDefault("GET"),
		"body":   NewStringSchema("Request body for POST"),
		"content_type": NewStringSchema("Content-Type header for POST").
			WithDefault("application/json"),
		"headers": NewObjectSchema("Additional request headers", nil, nil),
	}, []string{"url"})
}

func (t *HTTPRequestTool) Execute(ctx context.Context, params map[string]interface{}) (*Result, error) {
	url, ok := stringParam(params, "url")
	if !ok {
		return Failure(CodeInvalidParams, "url is required"), nil
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return Failure(CodeInvalidParams, "url must be http or https"), nil
	}
	method := strings.ToUpper(optionalString(params, "method", http.MethodGet))

	var body io.Reader
	if method == http.MethodPost {
		if payload, ok := params["body"].(string); ok {
			body = strings.NewReader(payload)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return Failure(CodeInvalidParams, err.Error()), nil
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", optionalString(params, "content_type", "application/json"))
	}
	if headers, ok := params["headers"].(map[string]interface{}); ok {
		for key, value := range headers {
			if v, ok := value.(string); ok {
				req.Header.Set(key, v)
			}
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Failure(CodeTimeout, err.Error()), nil
		}
		return &Result{Success: false, Error: &Error{
			Code:      CodeExecutionFailed,
			Message:   err.Error(),
			Retryable: true,
		}}, nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxHTTPResponseBytes+1))
	if err != nil {
		return Failure(CodeExecutionFailed, err.Error()), nil
	}
	truncated := false
	if len(data) > maxHTTPResponseBytes {
		data = data[:maxHTTPResponseBytes]
		truncated = true
	}

	return &Result{
		Success: resp.StatusCode < 400,
		Data:    string(data),
		Error: httpStatusError(resp.StatusCode),
		Metadata: map[string]interface{}{
			"status_code":  resp.StatusCode,
			"content_type": resp.Header.Get("Content-Type"),
			"truncated":    truncated,
		},
	}, nil
}

func httpStatusError(status int) *Error {
	if status < 400 {
		return nil
	}
	return &Error{
		Code:      fmt.Sprintf("http_%d", status),
		Message:   http.StatusText(status),
		Retryable: status == http.StatusTooManyRequests || status >= 500,
	}
}

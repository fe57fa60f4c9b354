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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// defaultShellAllowlist is the command set shell_exec accepts when the
// operator configures none.
var defaultShellAllowlist = []string{
	"ls", "cat", "head", "tail", "wc", "grep", "find", "date", "echo", "uname",
}

// ShellExecTool runs an allowlisted command without a shell. Arguments
// are passed as argv; no interpolation, no pipes.
type ShellExecTool struct {
	allowlist map[string]struct{}
	timeout   time.Duration
}

// NewShellExecTool builds the tool. An empty allowlist falls back to the
// default read-only command set.
func NewShellExecTool(allowlist []string, timeout time.Duration) *ShellExecTool {
	if len(allowlist) == 0 {
		allowlist = defaultShellAllowlist
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	allowed := make(map[string]struct{}, len(allowlist))
	for _, name := range allowlist {
		allowed[name] = struct{}{}
	}
	return &ShellExecTool{allowlist: allowed, timeout: timeout}
}

func (t *ShellExecTool) Name() string { return "shell_exec" }

func (t *ShellExecTool) Description() string {
	return "Run an allowlisted command with arguments. Captures stdout and stderr."
}

func (t *ShellExecTool) InputSchema() *JSONSchema {
	return NewObjectSchema("shell_exec parameters", map[string]*JSONSchema{
		"command": NewStringSchema("Command name; must be on the allowlist"),
		"args": {
			Type:        "array",
			Description: "Command arguments",
			Items:       NewStringSchema("argument"),
		},
	}, []string{"command"})
}

func (t *ShellExecTool) Execute(ctx context.Context, params map[string]interface{}) (*Result, error) {
	command, ok := stringParam(params, "command")
	if !ok {
		return Failure(CodeInvalidParams, "command is required"), nil
	}
	if _, allowed := t.allowlist[command]; !allowed {
		return FailureWithSuggestion(CodeAccessDenied,
			fmt.Sprintf("command not allowlisted: %s", command),
			"allowed: "+strings.Join(t.allowedNames(), ", ")), nil
	}

	var args []string
	if raw, ok := params["args"].([]interface{}); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				args = append(args, s)
			}
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Metadata: map[string]interface{}{
			"command": command,
			"args":    args,
		},
	}
	switch {
	case errors.Is(execCtx.Err(), context.DeadlineExceeded):
		result.Error = &Error{
			Code:    CodeTimeout,
			Message: fmt.Sprintf("command timed out after %s", t.timeout),
		}
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.Error = &Error{
				Code:    CodeExecutionFailed,
				Message: fmt.Sprintf("exit status %d", exitErr.ExitCode()),
			}
			result.Metadata["exit_code"] = exitErr.ExitCode()
		} else {
			result.Error = &Error{Code: CodeExecutionFailed, Message: err.Error()}
		}
	default:
		result.Success = true
		result.Data = stdout.String()
		result.Metadata["exit_code"] = 0
	}
	return result, nil
}

func (t *ShellExecTool) allowedNames() []string {
	names := make([]string, 0, len(t.allowlist))
	for name := range t.allowlist {
		names = append(names, name)
	}
	return names
}

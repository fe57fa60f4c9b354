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
	"os"
	"path/filepath"
	"strings"
)

// maxReadFileBytes caps read_file payloads.
const maxReadFileBytes = 1 << 20

// blockedPathPrefixes are never readable regardless of permissions.
var blockedPathPrefixes = []string{
	"/etc/shadow",
	"/etc/sudoers",
	"/proc",
	"/sys",
	"/dev",
}

// blockedPathSegments reject paths containing secret material anywhere
// in the path.
var blockedPathSegments = []string{
	".ssh",
	".aws",
	".gnupg",
	"id_rsa",
	"credentials",
}

func checkPathAllowed(path string) error {
	clean := filepath.Clean(path)
	for _, prefix := range blockedPathPrefixes {
		if clean == prefix || strings.HasPrefix(clean, prefix+"/") {
			return fmt.Errorf("path is blocked: %s", path)
		}
	}
	lower := strings.ToLower(clean)
	for _, segment := range blockedPathSegments {
		if strings.Contains(lower, segment) {
			return fmt.Errorf("path is blocked: %s", path)
		}
	}
	return nil
}

// ReadFileTool reads a file from the local filesystem.
type ReadFileTool struct{}

func NewReadFileTool() *ReadFileTool { return &ReadFileTool{} }

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return "Read a text file from the local filesystem. Returns the file contents as a string."
}

func (t *ReadFileTool) InputSchema() *JSONSchema {
	return NewObjectSchema("read_file parameters", map[string]*JSONSchema{
		"path": NewStringSchema("Absolute or relative path of the file to read"),
	}, []string{"path"})
}

func (t *ReadFileTool) Execute(_ context.Context, params map[string]interface{}) (*Result, error) {
	path, ok := stringParam(params, "path")
	if !ok {
		return Failure(CodeInvalidParams, "path is required"), nil
	}
	if err := checkPathAllowed(path); err != nil {
		return Failure(CodeAccessDenied, err.Error()), nil
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Failure(CodeNotFound, fmt.Sprintf("file not found: %s", path)), nil
	}
	if err != nil {
		return Failure(CodeExecutionFailed, err.Error()), nil
	}
	if info.IsDir() {
		return FailureWithSuggestion(CodeInvalidParams,
			fmt.Sprintf("path is a directory: %s", path),
			"use list_directory for directories"), nil
	}
	if info.Size() > maxReadFileBytes {
		return Failure(CodeTooLarge,
			fmt.Sprintf("file is %d bytes, cap is %d", info.Size(), maxReadFileBytes)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Failure(CodeExecutionFailed, err.Error()), nil
	}
	return &Result{
		Success: true,
		Data:    string(data),
		Metadata: map[string]interface{}{
			"path":  path,
			"bytes": len(data),
		},
	}, nil
}

// ListDirectoryTool lists the entries of a directory.
type ListDirectoryTool struct{}

func NewListDirectoryTool() *ListDirectoryTool { return &ListDirectoryTool{} }

func (t *ListDirectoryTool) Name() string { return "list_directory" }

func (t *ListDirectoryTool) Description() string {
	return "List the entries of a directory with name, type, and size."
}

func (t *ListDirectoryTool) InputSchema() *JSONSchema {
	return NewObjectSchema("list_directory parameters", map[string]*JSONSchema{
		"path": NewStringSchema("Path of the directory to list"),
	}, []string{"path"})
}

func (t *ListDirectoryTool) Execute(_ context.Context, params map[string]interface{}) (*Result, error) {
	path, ok := stringParam(params, "path")
	if !ok {
		return Failure(CodeInvalidParams, "path is required"), nil
	}
	if err := checkPathAllowed(path); err != nil {
		return Failure(CodeAccessDenied, err.Error()), nil
	}

	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return Failure(CodeNotFound, fmt.Sprintf("directory not found: %s", path)), nil
	}
	if err != nil {
		return Failure(CodeExecutionFailed, err.Error()), nil
	}

	listing := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		item := map[string]interface{}{
			"name": entry.Name(),
			"dir":  entry.IsDir(),
		}
		if info, err := entry.Info(); err == nil && !entry.IsDir() {
			item["size"] = info.Size()
		}
		listing = append(listing, item)
	}
	return &Result{
		Success:  true,
		Data:     listing,
		Metadata: map[string]interface{}{"path": path, "count": len(listing)},
	}, nil
}

const writeDisabledSuggestion = "set tools.allow_writes: true to enable write tools"

// WriteFileTool writes a file. Disabled unless the operator opts in.
type WriteFileTool struct {
	allowed bool
}

func NewWriteFileTool(allowed bool) *WriteFileTool { return &WriteFileTool{allowed: allowed} }

func (t *WriteFileTool) Name() string { return "write_file" }

func (t *WriteFileTool) Description() string {
	return "Write content to a file, creating parent directories as needed."
}

func (t *WriteFileTool) InputSchema() *JSONSchema {
	return NewObjectSchema("write_file parameters", map[string]*JSONSchema{
		"path":    NewStringSchema("Path of the file to write"),
		"content": NewStringSchema("Content to write"),
	}, []string{"path", "content"})
}

func (t *WriteFileTool) Execute(_ context.Context, params map[string]interface{}) (*Result, error) {
	if !t.allowed {
		return FailureWithSuggestion(CodeOperationDisabled,
			"write_file is disabled", writeDisabledSuggestion), nil
	}
	path, ok := stringParam(params, "path")
	if !ok {
		return Failure(CodeInvalidParams, "path is required"), nil
	}
	content, _ := params["content"].(string)
	if err := checkPathAllowed(path); err != nil {
		return Failure(CodeAccessDenied, err.Error()), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Failure(CodeExecutionFailed, err.Error()), nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return Failure(CodeExecutionFailed, err.Error()), nil
	}
	return &Result{Success: true, Data: fmt.Sprintf("wrote %d bytes", len(content))}, nil
}

// DeleteFileTool removes a file. Disabled unless the operator opts in.
type DeleteFileTool struct {
	allowed bool
}

func NewDeleteFileTool(allowed bool) *DeleteFileTool { return &DeleteFileTool{allowed: allowed} }

func (t *DeleteFileTool) Name() string { return "delete_file" }

func (t *DeleteFileTool) Description() string { return "Delete a single file." }

func (t *DeleteFileTool) InputSchema() *JSONSchema {
	return NewObjectSchema("delete_file parameters", map[string]*JSONSchema{
		"path": NewStringSchema("Path of the file to delete"),
	}, []string{"path"})
}

func (t *DeleteFileTool) Execute(_ context.Context, params map[string]interface{}) (*Result, error) {
	if !t.allowed {
		return FailureWithSuggestion(CodeOperationDisabled,
			"delete_file is disabled", writeDisabledSuggestion), nil
	}
	path, ok := stringParam(params, "path")
	if !ok {
		return Failure(CodeInvalidParams, "path is required"), nil
	}
	if err := checkPathAllowed(path); err != nil {
		return Failure(CodeAccessDenied, err.Error()), nil
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return Failure(CodeNotFound, fmt.Sprintf("file not found: %s", path)), nil
		}
		return Failure(CodeExecutionFailed, err.Error()), nil
	}
	return &Result{Success: true, Data: "deleted"}, nil
}

// MoveFileTool renames a file. Disabled unless the operator opts in.
type MoveFileTool struct {
	allowed bool
}

func NewMoveFileTool(allowed bool) *MoveFileTool { return &MoveFileTool{allowed: allowed} }

func (t *MoveFileTool) Name() string { return "move_file" }

func (t *MoveFileTool) Description() string { return "Move or rename a file." }

func (t *MoveFileTool) InputSchema() *JSONSchema {
	return NewObjectSchema("move_file parameters", map[string]*JSONSchema{
		"source":      NewStringSchema("Path of the file to move"),
		"destination": NewStringSchema("New path for the file"),
	}, []string{"source", "destination"})
}

func (t *MoveFileTool) Execute(_ context.Context, params map[string]interface{}) (*Result, error) {
	if !t.allowed {
		return FailureWithSuggestion(CodeOperationDisabled,
			"move_file is disabled", writeDisabledSuggestion), nil
	}
	source, ok := stringParam(params, "source")
	if !ok {
		return Failure(CodeInvalidParams, "source is required"), nil
	}
	destination, ok := stringParam(params, "destination")
	if !ok {
		return Failure(CodeInvalidParams, "destination is required"), nil
	}
	for _, path := range []string{source, destination} {
		if err := checkPathAllowed(path); err != nil {
			return Failure(CodeAccessDenied, err.Error()), nil
		}
	}
	if err := os.Rename(source, destination); err != nil {
		if os.IsNotExist(err) {
			return Failure(CodeNotFound, fmt.Sprintf("file not found: %s", source)), nil
		}
		return Failure(CodeExecutionFailed, err.Error()), nil
	}
	return &Result{Success: true, Data: "moved"}, nil
}

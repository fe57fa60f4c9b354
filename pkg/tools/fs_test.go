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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	tool := NewReadFileTool()
	result, err := tool.Execute(context.Background(), map[string]interface{}{"path": path})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "hello world", result.Data)
}

func TestReadFileNotFound(t *testing.T) {
	tool := NewReadFileTool()
	result, err := tool.Execute(context.Background(),
		map[string]interface{}{"path": filepath.Join(t.TempDir(), "missing.txt")})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, CodeNotFound, result.Error.Code)
}

func TestReadFileBlockedPaths(t *testing.T) {
	tool := NewReadFileTool()
	for _, path := range []string{
		"/etc/shadow",
		"/proc/self/environ",
		"/home/user/.ssh/id_rsa",
		"/home/user/.aws/credentials",
	} {
		result, err := tool.Execute(context.Background(), map[string]interface{}{"path": path})
		require.NoError(t, err)
		assert.False(t, result.Success, path)
		assert.Equal(t, CodeAccessDenied, result.Error.Code, path)
	}
}

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	tool := NewListDirectoryTool()
	result, err := tool.Execute(context.Background(), map[string]interface{}{"path": dir})
	require.NoError(t, err)
	require.True(t, result.Success)
	listing := result.Data.([]map[string]interface{})
	assert.Len(t, listing, 2)
}

func TestWriteToolsDisabledByDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	write := NewWriteFileTool(false)
	result, err := write.Execute(context.Background(),
		map[string]interface{}{"path": path, "content": "x"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, CodeOperationDisabled, result.Error.Code)
	assert.NoFileExists(t, path)

	del := NewDeleteFileTool(false)
	result, err = del.Execute(context.Background(), map[string]interface{}{"path": path})
	require.NoError(t, err)
	assert.Equal(t, CodeOperationDisabled, result.Error.Code)

	mv := NewMoveFileTool(false)
	result, err = mv.Execute(context.Background(),
		map[string]interface{}{"source": path, "destination": path + ".bak"})
	require.NoError(t, err)
	assert.Equal(t, CodeOperationDisabled, result.Error.Code)
}

func TestWriteToolsEnabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	write := NewWriteFileTool(true)
	result, err := write.Execute(context.Background(),
		map[string]interface{}{"path": path, "content": "payload"})
	require.NoError(t, err)
	require.True(t, result.Success)

	moved := filepath.Join(dir, "moved.txt")
	mv := NewMoveFileTool(true)
	result, err = mv.Execute(context.Background(),
		map[string]interface{}{"source": path, "destination": moved})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.FileExists(t, moved)

	del := NewDeleteFileTool(true)
	result, err = del.Execute(context.Background(), map[string]interface{}{"path": moved})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.NoFileExists(t, moved)
}

func TestParseDocumentCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,score\nalice,10\nbob,7\n"), 0o644))

	tool := NewParseDocumentTool()
	result, err := tool.Execute(context.Background(), map[string]interface{}{"path": path})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Contains(t, result.Data.(string), "alice\t10")
	assert.Equal(t, 3, result.Metadata["pages"])
}

func TestParseDocumentUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.docx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	tool := NewParseDocumentTool()
	result, err := tool.Execute(context.Background(), map[string]interface{}{"path": path})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, CodeInvalidParams, result.Error.Code)
}

func TestShellExecAllowlist(t *testing.T) {
	tool := NewShellExecTool(nil, 0)

	result, err := tool.Execute(context.Background(),
		map[string]interface{}{"command": "rm", "args": []interface{}{"-rf", "/"}})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, CodeAccessDenied, result.Error.Code)

	result, err = tool.Execute(context.Background(),
		map[string]interface{}{"command": "echo", "args": []interface{}{"ok"}})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "ok\n", result.Stdout)
	assert.Equal(t, 0, result.Metadata["exit_code"])
}

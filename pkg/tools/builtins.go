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
	"fmt"
	"time"
)

// BuiltinOptions configures the builtin tool set.
type BuiltinOptions struct {
	// AllowWrites enables write_file, delete_file, move_file. The tools
	// are registered either way and refuse when disabled.
	AllowWrites bool

	// ShellAllowlist overrides the default shell_exec command set.
	ShellAllowlist []string

	// ShellTimeout bounds a single shell_exec call.
	ShellTimeout time.Duration
}

// RegisterBuiltins registers the standard tool set into the registry.
func RegisterBuiltins(registry *Registry, opts BuiltinOptions) error {
	builtins := []Tool{
		NewReadFileTool(),
		NewListDirectoryTool(),
		NewParseDocumentTool(),
		NewHTTPRequestTool(),
		NewShellExecTool(opts.ShellAllowlist, opts.ShellTimeout),
		NewWriteFileTool(opts.AllowWrites),
		NewDeleteFileTool(opts.AllowWrites),
		NewMoveFileTool(opts.AllowWrites),
	}
	for _, tool := range builtins {
		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("failed to register %s: %w", tool.Name(), err)
		}
	}
	return nil
}

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

// Package config resolves filesystem locations for runtime data.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// GetDataDir returns the Nyx data directory.
//
// Priority:
// 1. NYX_DATA_DIR environment variable (if set and non-empty)
// 2. ~/.nyx (default)
//
// The returned path is always absolute. Tilde (~) in NYX_DATA_DIR is
// expanded to the user's home directory; relative paths are resolved
// against the working directory.
//
// This function is called during bootstrap, before the config file is
// loaded, to locate the config file itself. It reads os.Getenv directly
// rather than viper to avoid a circular dependency during initialization.
func GetDataDir() string {
	if dataDir := os.Getenv("NYX_DATA_DIR"); dataDir != "" {
		return expandPath(dataDir)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir cannot be determined
		return ".nyx"
	}
	return filepath.Join(homeDir, ".nyx")
}

// GetSandboxDir returns the directory tool executions treat as their
// working root.
//
// Priority:
// 1. NYX_SANDBOX_DIR environment variable (if set and non-empty)
// 2. NYX_DATA_DIR (default)
func GetSandboxDir() string {
	if sandboxDir := os.Getenv("NYX_SANDBOX_DIR"); sandboxDir != "" {
		return expandPath(sandboxDir)
	}
	return GetDataDir()
}

// GetSubDir returns a subdirectory within the Nyx data directory.
// Example: GetSubDir("drives") returns ~/.nyx/drives
func GetSubDir(subdir string) string {
	return filepath.Join(GetDataDir(), subdir)
}

// expandPath expands ~ and resolves to absolute path
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

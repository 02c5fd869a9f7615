// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package paths resolves the platform-conventional locations RedactQC
// persists to: the data directory holding the SQLite store and the
// generated reports.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the RedactQC data directory.
//
// Resolution order: the REDACTQC_DATA_DIR override, then the platform
// convention (%LOCALAPPDATA% on Windows, $XDG_DATA_HOME or ~/.local/share
// elsewhere) with a "redact-qc" subdirectory.
func DataDir() string {
	if dir := os.Getenv("REDACTQC_DATA_DIR"); dir != "" {
		return dir
	}

	if runtime.GOOS == "windows" {
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(base, "redact-qc")
	}

	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "redact-qc")
}

// DBPath returns the path of the SQLite store inside dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "redactqc.db")
}

// ReportsDir returns the directory generated reports are written to.
func ReportsDir(dataDir string) string {
	return filepath.Join(dataDir, "reports")
}

// EnsureDirs creates the data and reports directories. Directory mode is
// 0700 where the OS supports it.
func EnsureDirs(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}
	return os.MkdirAll(ReportsDir(dataDir), 0o700)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// RELIABILITY: Atomic write with fsync prevents a torn credential file on crash.
//
// WriteFileAtomic writes data to path so that readers only ever observe the
// old complete file or the new complete file:
//  1. write to a temp file in the target directory
//  2. fsync, close, chmod
//  3. rename over the target
//
// The temp file lives in the same directory because rename is only atomic
// within one filesystem.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".nila-tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	writeErr := func() error {
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("write temp file: %w", err)
		}
		if err := f.Sync(); err != nil {
			return fmt.Errorf("sync temp file: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close temp file: %w", err)
		}
		if err := os.Chmod(tmp, perm); err != nil {
			return fmt.Errorf("set file permissions: %w", err)
		}
		return os.Rename(tmp, path)
	}()
	if writeErr != nil {
		f.Close()
		os.Remove(tmp)
		return writeErr
	}
	return nil
}

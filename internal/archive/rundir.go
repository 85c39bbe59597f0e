// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const runDirTimeFormat = "20060102-150405"

// RunDir is the scratch directory of one verification run.
type RunDir struct {
	// ID identifies the run in logs and saved records.
	ID   string
	Path string
}

// NewRunDir creates a unique scratch directory below base, or below the system
// temp directory if base is empty.
func NewRunDir(base string, now time.Time) (*RunDir, error) {
	if base == "" {
		base = os.TempDir()
	}
	id := uuid.NewString()
	path := filepath.Join(base, fmt.Sprintf("bomcheck-%s-%s", now.Format(runDirTimeFormat), id))
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return &RunDir{ID: id, Path: path}, nil
}

// Sub creates and returns a named sub directory.
func (d *RunDir) Sub(name string) (string, error) {
	path := filepath.Join(d.Path, name)
	if err := os.MkdirAll(path, 0o700); err != nil {
		return "", err
	}
	return path, nil
}

// Remove deletes the directory and everything below it.
func (d *RunDir) Remove() error {
	return os.RemoveAll(d.Path)
}

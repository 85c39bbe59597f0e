// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package bom

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/atomicfile"
)

// SnapshotPath returns the snapshot file of release in dir.
func SnapshotPath(dir, release string) string {
	return filepath.Join(dir, release+v1alpha1.SnapshotFileSuffix)
}

// BackupPath returns the backup file name of a snapshot taken at t.
func BackupPath(snapshot string, t time.Time) string {
	return fmt.Sprintf("%s.%s.bak", snapshot, t.Format(v1alpha1.SnapshotBackupTimeFormat))
}

// Save writes bom to its snapshot file in dir. An existing snapshot of the same
// release is copied to a timestamped backup first. It returns the snapshot path
// and the backup path, which is empty when there was nothing to back up.
func Save(dir string, bom *v1alpha1.ReleaseBOM, now time.Time) (string, string, error) {
	if bom.Release == "" {
		return "", "", errors.New("BOM has no release name")
	}
	path := SnapshotPath(dir, bom.Release)
	backup := ""
	if _, err := os.Stat(path); err == nil {
		backup = BackupPath(path, now)
		if err := atomicfile.Copy(path, backup); err != nil {
			return "", "", fmt.Errorf("failed to back up snapshot %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", "", err
	}
	if err := atomicfile.WriteJSON(path, bom); err != nil {
		return "", "", fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return path, backup, nil
}

// Load reads a BOM snapshot.
func Load(path string) (*v1alpha1.ReleaseBOM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read BOM snapshot: %w", err)
	}
	bom := &v1alpha1.ReleaseBOM{}
	if err := json.Unmarshal(data, bom); err != nil {
		return nil, fmt.Errorf("failed to decode BOM snapshot %s: %w", path, err)
	}
	if bom.Release == "" {
		return nil, fmt.Errorf("BOM snapshot %s has no release name", path)
	}
	return bom, nil
}

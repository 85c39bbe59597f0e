// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package history persists verification results per build and checks new
// builds for regressions against the build that precedes them.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/atomicfile"
	"github.com/ironcore-dev/bomcheck/internal/version"
)

// ErrBuildNotFound is returned when a build has no saved record.
var ErrBuildNotFound = errors.New("build not found")

// Store reads and writes the saved build history file.
type Store struct {
	path string
}

// NewStore returns a Store backed by the JSON file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the history file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the history. A missing file yields an empty history.
func (s *Store) Load() (v1alpha1.BuildHistory, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return v1alpha1.BuildHistory{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read build history: %w", err)
	}
	h := v1alpha1.BuildHistory{}
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to decode build history %s: %w", s.path, err)
	}
	for build, rec := range h {
		if rec.Build == "" {
			rec.Build = build
			h[build] = rec
		}
	}
	return h, nil
}

// Save writes h atomically.
func (s *Store) Save(h v1alpha1.BuildHistory) error {
	if err := atomicfile.WriteJSON(s.path, h); err != nil {
		return fmt.Errorf("failed to write build history %s: %w", s.path, err)
	}
	return nil
}

// Put adds or replaces rec and saves the history.
func (s *Store) Put(rec v1alpha1.SavedBuildRecord) error {
	h, err := s.Load()
	if err != nil {
		return err
	}
	h[rec.Build] = rec
	return s.Save(h)
}

// Get returns the record of build.
func (s *Store) Get(build string) (v1alpha1.SavedBuildRecord, error) {
	h, err := s.Load()
	if err != nil {
		return v1alpha1.SavedBuildRecord{}, err
	}
	rec, ok := h[build]
	if !ok {
		return v1alpha1.SavedBuildRecord{}, fmt.Errorf("%w: %s", ErrBuildNotFound, build)
	}
	return rec, nil
}

// Delete removes the record of build.
func (s *Store) Delete(build string) error {
	h, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := h[build]; !ok {
		return fmt.Errorf("%w: %s", ErrBuildNotFound, build)
	}
	delete(h, build)
	return s.Save(h)
}

// Builds returns the build identifiers of h from oldest to newest.
func Builds(h v1alpha1.BuildHistory) []string {
	builds := make([]string, 0, len(h))
	for b := range h {
		builds = append(builds, b)
	}
	slices.SortFunc(builds, version.Compare)
	return builds
}

// Previous returns the record that immediately precedes build. A non-numeric
// build sorts after every known build, so its predecessor is the newest record.
func Previous(h v1alpha1.BuildHistory, build string) (v1alpha1.SavedBuildRecord, bool) {
	builds := slices.DeleteFunc(Builds(h), func(b string) bool { return b == build })
	if len(builds) == 0 {
		return v1alpha1.SavedBuildRecord{}, false
	}
	if !version.IsNumeric(build) {
		return h[builds[len(builds)-1]], true
	}
	for i := len(builds) - 1; i >= 0; i-- {
		if version.Compare(builds[i], build) < 0 {
			return h[builds[i]], true
		}
	}
	return v1alpha1.SavedBuildRecord{}, false
}

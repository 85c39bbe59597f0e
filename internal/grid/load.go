// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package grid

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// export is the YAML form of a spreadsheet export.
type export struct {
	Cells  map[string]string `yaml:"cells"`
	Merges []string          `yaml:"merges"`
}

// LoadFile reads a YAML grid export from path.
func LoadFile(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grid %s: %w", path, err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse grid %s: %w", path, err)
	}
	return g, nil
}

// Parse decodes a YAML grid export.
func Parse(data []byte) (*Grid, error) {
	var e export
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	g := New()
	var errs []error
	for ref, value := range e.Cells {
		addr, err := ParseAddress(ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		g.Set(addr, value)
	}
	for _, ref := range e.Merges {
		r, err := ParseRange(ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		g.Merge(r)
	}
	return g, errors.Join(errs...)
}

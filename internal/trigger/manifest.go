// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package trigger reads the manifest that hands a set of package archives to
// the verifier and waits for it to become complete.
package trigger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// ManifestFileName is the default trigger manifest name in the archive directory.
const ManifestFileName = "trigger.txt"

// Manifest sections, in their required order.
const (
	SectionJarFileNames = "::jarfilenames"
	SectionOSSUserIDs   = "::ossuserids"
	SectionStatusEmails = "::emailidsforjarfileprocessingstatus"
	SectionComplete     = "::complete"
)

var sectionOrder = []string{SectionJarFileNames, SectionOSSUserIDs, SectionStatusEmails, SectionComplete}

// ErrIncomplete is returned for a manifest without the complete section.
var ErrIncomplete = errors.New("trigger manifest is not complete")

// Manifest is a parsed trigger manifest.
type Manifest struct {
	JarFileNames []string
	OSSUserIDs   []string
	StatusEmails []string
	// Complete is set once the complete section is present.
	Complete bool
}

// Parse decodes a manifest. Sections hold whitespace separated lists and must
// appear in order, each at most once.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	current := -1
	for _, token := range strings.Fields(string(data)) {
		if strings.HasPrefix(token, "::") {
			i := slices.Index(sectionOrder, strings.ToLower(token))
			if i < 0 {
				return nil, fmt.Errorf("unknown manifest section %s", token)
			}
			if i <= current {
				return nil, fmt.Errorf("manifest section %s out of order", token)
			}
			current = i
			if sectionOrder[i] == SectionComplete {
				m.Complete = true
			}
			continue
		}
		switch {
		case current < 0:
			return nil, fmt.Errorf("manifest entry %q precedes the first section", token)
		case sectionOrder[current] == SectionJarFileNames:
			m.JarFileNames = append(m.JarFileNames, token)
		case sectionOrder[current] == SectionOSSUserIDs:
			m.OSSUserIDs = append(m.OSSUserIDs, token)
		case sectionOrder[current] == SectionStatusEmails:
			m.StatusEmails = append(m.StatusEmails, token)
		default:
			return nil, fmt.Errorf("unexpected entry %q in %s", token, SectionComplete)
		}
	}
	return m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid trigger manifest %s: %w", path, err)
	}
	return m, nil
}

// Validate checks that the manifest is complete, that every listed archive
// exists in dir and that every archive in dir is listed.
func (m *Manifest) Validate(dir string) error {
	if !m.Complete {
		return ErrIncomplete
	}
	if len(m.JarFileNames) == 0 {
		return errors.New("trigger manifest lists no archives")
	}
	var errs []error
	listed := sets.New[string]()
	for _, name := range m.JarFileNames {
		if filepath.Base(name) != name {
			errs = append(errs, fmt.Errorf("archive %s must be a plain file name", name))
			continue
		}
		if listed.Has(name) {
			errs = append(errs, fmt.Errorf("archive %s is listed twice", name))
		}
		listed.Insert(name)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read archive directory: %w", err)
	}
	onDisk := sets.New[string]()
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".jar") {
			onDisk.Insert(e.Name())
		}
	}
	for _, name := range sets.List(listed.Difference(onDisk)) {
		errs = append(errs, fmt.Errorf("archive %s is listed but not present", name))
	}
	for _, name := range sets.List(onDisk.Difference(listed)) {
		errs = append(errs, fmt.Errorf("archive %s is present but not listed", name))
	}
	return errors.Join(errs...)
}

// Paths returns the archive paths below dir in manifest order.
func (m *Manifest) Paths(dir string) []string {
	out := make([]string, 0, len(m.JarFileNames))
	for _, name := range m.JarFileNames {
		out = append(out, filepath.Join(dir, name))
	}
	return out
}

// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package v1alpha1

import "time"

// VerificationContext is the per package type accumulator of one verification run.
type VerificationContext struct {
	// Class is the package type variant, e.g. firmware or linux-driver.
	Class       string  `json:"class"`
	Version     string  `json:"version"`
	SubVersion  string  `json:"subVersion"`
	BootVersion *string `json:"bootVersion,omitempty"`
	// Checksums maps payload relative file names to their digest.
	Checksums map[string]string `json:"checksums"`
}

// SavedBuildRecord is the persisted result of verifying one build.
type SavedBuildRecord struct {
	Build       string    `json:"build"`
	ReleaseDate time.Time `json:"releaseDate"`
	Errors      int       `json:"errors"`
	RunID       string    `json:"runID,omitempty"`
	// JarData holds one context per package type name.
	JarData map[string]VerificationContext `json:"jarData"`
}

// BuildHistory is keyed by build identifier.
type BuildHistory map[string]SavedBuildRecord

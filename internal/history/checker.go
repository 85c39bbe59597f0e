// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/config"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/version"
)

// Check names of history diagnostics.
const (
	CheckHistory   = "history"
	CheckException = "exception"
)

// Checker compares the verification context of a package type with the one
// saved for the previous build.
type Checker struct {
	log logr.Logger
	cfg *config.Config
}

// NewChecker returns a history Checker.
func NewChecker(log logr.Logger, cfg *config.Config) *Checker {
	return &Checker{log: log, cfg: cfg}
}

// Check reports regressions of cur against prev, saved for build prevBuild.
func (c *Checker) Check(report *diag.Report, cur, prev v1alpha1.VerificationContext, prevBuild string) {
	c.log.V(1).Info("Comparing with previous build", "packageType", report.PackageType(), "build", prevBuild,
		"version", cur.Version, "previousVersion", prev.Version)

	switch version.Compare(cur.Version, prev.Version) {
	case -1:
		report.Errorf(CheckHistory, "version %s is older than %s of build %s", cur.Version, prev.Version, prevBuild)
	case 0:
		c.checkSubVersion(report, cur, prev, prevBuild)
	}
	c.checkBootVersion(report, cur, prev, prevBuild)
}

func (c *Checker) checkSubVersion(report *diag.Report, cur, prev v1alpha1.VerificationContext, prevBuild string) {
	switch version.Compare(cur.SubVersion, prev.SubVersion) {
	case -1:
		report.Errorf(CheckHistory, "sub-version %s of version %s is lower than %s of build %s",
			cur.SubVersion, cur.Version, prev.SubVersion, prevBuild)
		return
	case 1:
		return
	}

	if c.cfg.ChecksumExempt(cur.Class) {
		report.Debugf(CheckException, "checksums of %s packages are not compared", cur.Class)
		return
	}
	stale := StaleFiles(cur.Checksums, prev.Checksums)
	for _, name := range stale {
		report.Errorf(CheckHistory, "stale subversion %s-%s: %s differs from build %s",
			cur.Version, cur.SubVersion, name, prevBuild)
	}
	if len(stale) == 0 {
		report.Warnf(CheckHistory, "package is identical to build %s", prevBuild)
	}
}

func (c *Checker) checkBootVersion(report *diag.Report, cur, prev v1alpha1.VerificationContext, prevBuild string) {
	switch {
	case cur.BootVersion == nil && prev.BootVersion == nil:
	case cur.BootVersion == nil:
		report.Errorf(CheckHistory, "boot version %s of build %s is no longer declared", *prev.BootVersion, prevBuild)
	case prev.BootVersion == nil:
		report.Debugf(CheckHistory, "boot version %s is new since build %s", *cur.BootVersion, prevBuild)
	case version.Compare(*cur.BootVersion, *prev.BootVersion) < 0:
		report.Errorf(CheckHistory, "boot version %s is older than %s of build %s", *cur.BootVersion, *prev.BootVersion, prevBuild)
	}
}

// StaleFiles returns the sorted names whose digest differs between cur and
// prev, including files present on one side only.
func StaleFiles(cur, prev map[string]string) []string {
	names := sets.KeySet(cur).Union(sets.KeySet(prev))
	var out []string
	for _, name := range sets.List(names) {
		a, inCur := cur[name]
		b, inPrev := prev[name]
		if !inCur || !inPrev || a != b {
			out = append(out, name)
		}
	}
	return out
}

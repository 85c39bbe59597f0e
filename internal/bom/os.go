// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package bom

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/config"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/grid"
)

var (
	x64Hints = []string{"x86-64", "x86_64", "amd64", "x64", "64-bit"}
	x86Hints = []string{"i386", "x86", "32-bit"}
)

func (b *Builder) operatingSystems(g *grid.Grid, report *diag.Report) ([]v1alpha1.OperatingSystem, error) {
	header, err := b.section(g, b.cfg.Sections.OperatingSystem)
	if err != nil {
		return nil, err
	}
	var out []v1alpha1.OperatingSystem
	for addr := header.Below(1); g.Value(addr) != ""; addr = addr.Below(1) {
		entries, err := b.ParseOS(g.Value(addr))
		if err != nil {
			report.Errorf(CheckOperatingSystems, "%s: %v", addr, err)
			continue
		}
		for _, os := range entries {
			if slices.ContainsFunc(out, func(o v1alpha1.OperatingSystem) bool {
				return o.Name == os.Name && o.Arch == os.Arch && o.SubVersion == os.SubVersion
			}) {
				report.Warnf(CheckOperatingSystems, "%s: duplicate operating system %s %s", addr, os.FullName, os.Arch)
				continue
			}
			out = append(out, os)
		}
	}
	return out, nil
}

// ParseOS resolves an OS cell against the catalog. A cell naming both
// architectures yields one entry per architecture.
func (b *Builder) ParseOS(fullName string) ([]v1alpha1.OperatingSystem, error) {
	entry := b.catalogEntry(fullName)
	if entry == nil {
		return nil, fmt.Errorf("unknown operating system %q", fullName)
	}

	archs, err := architectures(fullName, entry)
	if err != nil {
		return nil, err
	}

	subVersion, ok := entry.SubVersion(fullName)
	if !ok {
		if entry.Kind != v1alpha1.OSKindWindows {
			return nil, fmt.Errorf("no sub-version in %q", fullName)
		}
		subVersion = v1alpha1.DefaultOSSubVersion
	}

	var extras v1alpha1.OSExtra
	lower := strings.ToLower(fullName)
	switch {
	case strings.Contains(lower, string(v1alpha1.OSExtraKVM)):
		extras = v1alpha1.OSExtraKVM
	case strings.Contains(lower, string(v1alpha1.OSExtraXen)):
		extras = v1alpha1.OSExtraXen
	}

	out := make([]v1alpha1.OperatingSystem, 0, len(archs))
	for _, arch := range archs {
		out = append(out, v1alpha1.OperatingSystem{
			FullName:        fullName,
			Name:            entry.Name,
			PackageSDKNames: slices.Clone(entry.SDKNames),
			SubVersion:      subVersion,
			Arch:            arch,
			Kind:            entry.Kind,
			DriverDirName:   entry.DriverDirName,
			Extras:          extras,
		})
	}
	return out, nil
}

func (b *Builder) catalogEntry(fullName string) *config.OSCatalogEntry {
	lower := strings.ToLower(fullName)
	for i := range b.cfg.OperatingSystems {
		e := &b.cfg.OperatingSystems[i]
		if strings.HasPrefix(lower, strings.ToLower(e.Prefix)) {
			return e
		}
	}
	return nil
}

func architectures(fullName string, entry *config.OSCatalogEntry) ([]v1alpha1.Architecture, error) {
	rest := strings.ToLower(fullName)
	var archs []v1alpha1.Architecture
	if containsAny(rest, x64Hints) {
		archs = append(archs, v1alpha1.ArchitectureX64)
		for _, h := range x64Hints {
			rest = strings.ReplaceAll(rest, h, "")
		}
	}
	if containsAny(rest, x86Hints) {
		archs = append([]v1alpha1.Architecture{v1alpha1.ArchitectureX86}, archs...)
	}
	if len(archs) == 0 {
		if len(entry.Archs) != 1 {
			return nil, fmt.Errorf("cannot determine architecture of %q", fullName)
		}
		return []v1alpha1.Architecture{entry.Archs[0]}, nil
	}
	for _, a := range archs {
		if !slices.Contains(entry.Archs, a) {
			return nil, fmt.Errorf("architecture %s is not supported by %s", a, entry.Name)
		}
	}
	return archs, nil
}

func containsAny(s string, hints []string) bool {
	return slices.ContainsFunc(hints, func(h string) bool { return strings.Contains(s, h) })
}

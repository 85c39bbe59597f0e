// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"slices"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/ptr"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/pkgtype"
)

func (v *Verifier) familyEntries(report *diag.Report, t pkgtype.Type, md *Metadata) []DriverFile {
	family := string(t.Spec().OSFamily)
	var entries []DriverFile
	for _, os := range md.OSUpdateData.OS {
		if !strings.EqualFold(os.XMLName.Local, family) {
			report.Errorf(CheckDriverFiles, "unexpected osUpdateData element %q, expected %q", os.XMLName.Local, family)
			continue
		}
		entries = append(entries, os.DriverFiles...)
	}
	if len(entries) == 0 {
		report.Errorf(CheckDriverFiles, "no driver file entries for %s", family)
	}
	return entries
}

// verifyDriverFiles accepts either one implicit entry, when exactly one
// (os, arch) pair is expected, or explicit entries covering every pair once.
func (v *Verifier) verifyDriverFiles(report *diag.Report, t pkgtype.Type, name *pkgtype.Template, md *Metadata, res Result) {
	entries := v.familyEntries(report, t, md)
	if len(entries) == 0 {
		return
	}
	pairs := pkgtype.OSArchPairs(pkgtype.OperatingSystems(v.bom, t))

	checkName := func(e DriverFile) {
		expected, err := name.Render(pkgtype.Values{
			Version:    res.Version,
			SubVersion: res.SubVersion,
			OSName:     e.OS,
			Arch:       e.Arch,
		})
		if err != nil {
			report.Errorf(CheckDriverFiles, "%v", err)
			return
		}
		if e.Name != expected {
			report.Errorf(CheckDriverFiles, "driver file %q, expected %q", e.Name, expected)
		}
	}

	if len(entries) == 1 && entries[0].OS == "" && entries[0].Arch == "" {
		if len(pairs) != 1 {
			report.Errorf(CheckDriverFiles, "implicit driver file entry but %d OS/architecture pairs are expected", len(pairs))
		}
		checkName(entries[0])
		return
	}

	seen := sets.New[pkgtype.OSArch]()
	for _, e := range entries {
		if e.OS == "" || e.Arch == "" {
			report.Errorf(CheckDriverFiles, "driver file %q lacks os or arch", e.Name)
			continue
		}
		pair := pkgtype.OSArch{OS: e.OS, Arch: v1alpha1.Architecture(e.Arch)}
		if seen.Has(pair) {
			report.Errorf(CheckDriverFiles, "duplicate driver file entry for %s/%s", e.OS, e.Arch)
			continue
		}
		seen.Insert(pair)
		if !slices.Contains(pairs, pair) {
			report.Errorf(CheckDriverFiles, "unexpected driver file entry for %s/%s", e.OS, e.Arch)
			continue
		}
		checkName(e)
	}
	for _, p := range pairs {
		if !seen.Has(p) {
			report.Errorf(CheckDriverFiles, "missing driver file entry for %s/%s", p.OS, p.Arch)
		}
	}
}

// verifyFirmwareFiles checks classification tagged image entries against the
// names derived from the adapters' agents and file tokens. Boot code entries
// carry the boot version, which is validated and returned.
func (v *Verifier) verifyFirmwareFiles(report *diag.Report, fw *pkgtype.Firmware, md *Metadata, res Result) *string {
	entries := v.familyEntries(report, fw, md)

	bootClass := ""
	if fw.Boot != nil {
		bootClass = fw.Boot.Classification
	}
	var bootVersion *string
	for _, e := range entries {
		if bootClass == "" || e.Classification != bootClass {
			continue
		}
		if e.Version == "" {
			report.Errorf(CheckDriverFiles, "boot code entry %q has no version", e.Name)
			continue
		}
		if _, ok := fw.Boot.Version.Match(e.Version); !ok {
			report.Errorf(CheckDriverFiles, "boot code version %q does not match %s", e.Version, fw.Boot.Version)
			continue
		}
		if bootVersion == nil {
			bootVersion = ptr.To(e.Version)
		} else if *bootVersion != e.Version {
			report.Errorf(CheckDriverFiles, "boot code entries disagree on version: %s and %s", *bootVersion, e.Version)
		}
	}

	expected := v.firmwareTable(report, fw, res, bootVersion)
	actual := map[string][]string{}
	for _, e := range entries {
		if e.Classification == "" {
			report.Errorf(CheckDriverFiles, "firmware file %q has no classification", e.Name)
			continue
		}
		actual[e.Classification] = append(actual[e.Classification], e.Name)
	}
	for _, class := range sets.List(sets.KeySet(expected).Union(sets.KeySet(actual))) {
		names, ok := expected[class]
		if !ok {
			report.Errorf(CheckDriverFiles, "unexpected classification %s", class)
			continue
		}
		if class == bootClass && bootVersion == nil {
			continue
		}
		compareSets(report, CheckDriverFiles, "classification "+class+" file", names, actual[class], nil)
	}
	if _, ok := expected[bootClass]; ok && bootClass != "" && bootVersion == nil {
		report.Errorf(CheckDriverFiles, "no valid boot code version declared")
	}
	return bootVersion
}

// firmwareTable maps every agent classification of the covered adapters to
// the image names rendered for their file tokens.
func (v *Verifier) firmwareTable(report *diag.Report, fw *pkgtype.Firmware, res Result, bootVersion *string) map[string][]string {
	table := map[string][]string{}
	for _, a := range pkgtype.Adapters(v.bom, fw) {
		for _, agent := range a.Agents {
			tmpl := fw.ImageName
			if fw.Boot != nil && agent.Type == fw.Boot.Classification {
				if bootVersion == nil {
					// Names need the boot version; keep the class known.
					if _, ok := table[agent.Type]; !ok {
						table[agent.Type] = nil
					}
					continue
				}
				tmpl = fw.Boot.ImageName
			}
			for _, token := range a.DriverFileTokens {
				name, err := tmpl.Render(pkgtype.Values{
					Version:     res.Version,
					SubVersion:  res.SubVersion,
					BootVersion: ptr.Deref(bootVersion, ""),
					ASIC:        a.ASIC,
					Model:       a.Model,
					Token:       token,
				})
				if err != nil {
					report.Errorf(CheckDriverFiles, "%v", err)
					continue
				}
				if !slices.Contains(table[agent.Type], name) {
					table[agent.Type] = append(table[agent.Type], name)
				}
			}
		}
	}
	return table
}

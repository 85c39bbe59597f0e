// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package payload

import (
	"slices"
	"strings"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/metadata"
	"github.com/ironcore-dev/bomcheck/internal/pkgtype"
)

const (
	srpmDir  = "SRPMS"
	dudDir   = "dud"
	toolsDir = "tools"
	// xenFlavor is only expected for operating systems with xen extras.
	xenFlavor = "xen"
)

// RPMArch returns the RPM machine name of an architecture.
func RPMArch(a v1alpha1.Architecture) string {
	if a == v1alpha1.ArchitectureX86 {
		return "i686"
	}
	return "x86_64"
}

func (v *Verifier) verifyLinuxDriver(report *diag.Report, ledger *Ledger, ld *pkgtype.LinuxDriver, res metadata.Result) {
	ledger.Check(ld.InstallScript)

	oses := pkgtype.OperatingSystems(v.bom, ld)
	var srpms, duds []string
	archs := map[v1alpha1.Architecture]bool{}
	for _, os := range oses {
		values := pkgtype.Values{
			Version:      res.Version,
			SubVersion:   res.SubVersion,
			OSName:       os.Name,
			OSSubVersion: os.SubVersion,
		}
		v.verifyRPMs(report, ledger, ld, os, values)

		values.Arch = string(os.Arch)
		if name, ok := render(report, ld.SRPM, values); ok && !slices.Contains(srpms, name) {
			srpms = append(srpms, name)
			ledger.Check(join(srpmDir, name))
		}
		if name, ok := render(report, ld.DUD, values); ok && !slices.Contains(duds, name) {
			duds = append(duds, name)
			ledger.Check(join(dudDir, name))
		}
		archs[os.Arch] = true
	}
	ledger.Exact(srpmDir, srpms)
	ledger.Exact(dudDir, duds)

	if ld.ManagementApp == nil {
		return
	}
	for _, arch := range []v1alpha1.Architecture{v1alpha1.ArchitectureX86, v1alpha1.ArchitectureX64} {
		if !archs[arch] {
			continue
		}
		if name, ok := render(report, ld.ManagementApp, pkgtype.Values{Version: res.Version, Arch: string(arch)}); ok {
			ledger.Check(join(toolsDir, string(arch), name))
		}
	}
}

func (v *Verifier) verifyRPMs(report *diag.Report, ledger *Ledger, ld *pkgtype.LinuxDriver, os v1alpha1.OperatingSystem, values pkgtype.Values) {
	i := slices.IndexFunc(ld.Distributions, func(d pkgtype.LinuxDistribution) bool {
		return strings.HasPrefix(os.Name, d.Prefix)
	})
	if i < 0 {
		report.Errorf(CheckPayload, "no distribution layout for %s", os.Name)
		return
	}
	dist := ld.Distributions[i]
	dir := join(os.DriverDirName, string(os.Arch))
	values.Arch = RPMArch(os.Arch)

	switch dist.Layout {
	case v1alpha1.LinuxLayoutKernelFlavor:
		flavors := slices.DeleteFunc(slices.Clone(dist.Flavors), func(f string) bool { return f == xenFlavor })
		if os.Extras == v1alpha1.OSExtraXen {
			flavors = append(flavors, xenFlavor)
		}
		for _, flavor := range flavors {
			values.Flavor = flavor
			for _, tmpl := range dist.RPMs {
				if name, ok := render(report, tmpl, values); ok {
					ledger.Check(join(dir, name))
				}
			}
		}
	case v1alpha1.LinuxLayoutArchTemplate:
		for _, tmpl := range dist.RPMs {
			if name, ok := render(report, tmpl, values); ok {
				ledger.Check(join(dir, name))
			}
		}
	}
}

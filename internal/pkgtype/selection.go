// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package pkgtype

import (
	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
)

// OperatingSystems returns the BOM operating systems covered by t, in BOM order.
func OperatingSystems(bom *v1alpha1.ReleaseBOM, t Type) []v1alpha1.OperatingSystem {
	switch pt := t.(type) {
	case *Firmware:
		return bom.OSByKind(pt.OSType)
	case *LinuxDriver:
		if len(pt.OSNames) == 0 {
			return bom.OSByKind(v1alpha1.OSKindLinux)
		}
		return bom.OSByNames(pt.OSNames...)
	case *WindowsDriver:
		if len(pt.OSNames) == 0 {
			return bom.OSByKind(v1alpha1.OSKindWindows)
		}
		return bom.OSByNames(pt.OSNames...)
	}
	return nil
}

// Adapters returns the BOM adapters covered by t, in BOM order.
func Adapters(bom *v1alpha1.ReleaseBOM, t Type) []v1alpha1.Adapter {
	return bom.AdaptersForASICs(t.Spec().ASICs...)
}

// DriverProtocol returns the protocol of a driver package type and false for firmware.
func DriverProtocol(t Type) (v1alpha1.Protocol, bool) {
	switch pt := t.(type) {
	case *LinuxDriver:
		return pt.Protocol, true
	case *WindowsDriver:
		return pt.Protocol, true
	}
	return "", false
}

// OSArch is an (operating system name, architecture) pair.
type OSArch struct {
	OS   string
	Arch v1alpha1.Architecture
}

// OSArchPairs returns the distinct (name, arch) pairs of oses in first seen order.
func OSArchPairs(oses []v1alpha1.OperatingSystem) []OSArch {
	seen := map[OSArch]bool{}
	var out []OSArch
	for _, os := range oses {
		p := OSArch{OS: os.Name, Arch: os.Arch}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

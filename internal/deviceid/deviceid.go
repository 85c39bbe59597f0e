// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package deviceid derives the applicable device ID labels of a release from
// the adapter agents and the device catalog.
package deviceid

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/config"
	"github.com/ironcore-dev/bomcheck/internal/pkgtype"
)

var agentIDPattern = regexp.MustCompile(`^[0-9A-Fa-f]{8}$`)

// SubsystemID converts an agent id in DDDDVVVV order to the PCI subsystem id VVVVDDDD.
func SubsystemID(agentID string) (string, error) {
	if !agentIDPattern.MatchString(agentID) {
		return "", fmt.Errorf("agent id %q is not eight hex digits", agentID)
	}
	id := strings.ToUpper(agentID)
	return id[4:] + id[:4], nil
}

// MatchesSubsystem reports whether a catalog value ends with the subsystem id.
func MatchesSubsystem(value, subsys string) bool {
	return strings.HasSuffix(strings.ToUpper(value), strings.ToUpper(subsys))
}

// DriverProtocol maps a catalog protocol to the driver bucket key for an OS kind.
// FCoE devices are served by the CNA driver on Windows and the FC driver elsewhere.
func DriverProtocol(p v1alpha1.Protocol, kind v1alpha1.OSKind) v1alpha1.Protocol {
	if p != v1alpha1.ProtocolFCoE {
		return p
	}
	if kind == v1alpha1.OSKindWindows {
		return v1alpha1.ProtocolCNA
	}
	return v1alpha1.ProtocolFC
}

// Derive computes the applicable device ID tables. It is a pure function of its
// inputs; labels in every bucket are unique and sorted so the result does not
// depend on adapter order.
func Derive(adapters []v1alpha1.Adapter, catalog []config.DeviceCatalogEntry, osList []v1alpha1.OperatingSystem) v1alpha1.ApplicableDeviceIDs {
	fw := map[v1alpha1.OSKind]map[string]sets.Set[string]{}
	dd := map[string]map[v1alpha1.Protocol]sets.Set[string]{}

	kinds := sets.New[v1alpha1.OSKind]()
	for _, os := range osList {
		kinds.Insert(os.Kind)
	}

	for _, adapter := range adapters {
		for _, agent := range adapter.Agents {
			subsys, err := SubsystemID(agent.ID)
			if err != nil {
				continue
			}
			for _, entry := range catalog {
				if !MatchesSubsystem(entry.Value, subsys) {
					continue
				}
				for kind := range kinds {
					if !entry.AppliesTo(kind) {
						continue
					}
					insert(fw, kind, adapter.ASIC, entry.Name)
				}
				for _, os := range osList {
					if !entry.AppliesTo(os.Kind) {
						continue
					}
					insert(dd, os.Name, DriverProtocol(entry.Protocol, os.Kind), entry.Name)
				}
			}
		}
	}

	return v1alpha1.ApplicableDeviceIDs{
		FW: flatten(fw),
		DD: flatten(dd),
	}
}

func insert[K1, K2 comparable](m map[K1]map[K2]sets.Set[string], k1 K1, k2 K2, label string) {
	inner, ok := m[k1]
	if !ok {
		inner = map[K2]sets.Set[string]{}
		m[k1] = inner
	}
	if inner[k2] == nil {
		inner[k2] = sets.New[string]()
	}
	inner[k2].Insert(label)
}

func flatten[K1, K2 comparable](m map[K1]map[K2]sets.Set[string]) map[K1]map[K2][]string {
	out := make(map[K1]map[K2][]string, len(m))
	for k1, inner := range m {
		out[k1] = make(map[K2][]string, len(inner))
		for k2, labels := range inner {
			out[k1][k2] = sets.List(labels)
		}
	}
	return out
}

// ExpectedLabels returns the labels a package of type t must declare: the
// (osType, asic) bucket for firmware and the union of the (osName, protocol)
// buckets of every covered OS for drivers. An empty referenced bucket makes the
// BOM invalid for the package.
func ExpectedLabels(bom *v1alpha1.ReleaseBOM, t pkgtype.Type) ([]string, error) {
	if fw, ok := t.(*pkgtype.Firmware); ok {
		labels := bom.AppDIDList.FirmwareLabels(fw.OSType, fw.ASIC)
		if len(labels) == 0 {
			return nil, fmt.Errorf("no applicable device IDs for (%s, %s)", fw.OSType, fw.ASIC)
		}
		return slices.Clone(labels), nil
	}

	protocol, _ := pkgtype.DriverProtocol(t)
	oses := pkgtype.OperatingSystems(bom, t)
	if len(oses) == 0 {
		return nil, fmt.Errorf("package type %s covers no operating system of the BOM", t.Name())
	}
	var errs []error
	all := sets.New[string]()
	seen := sets.New[string]()
	for _, os := range oses {
		if seen.Has(os.Name) {
			continue
		}
		seen.Insert(os.Name)
		labels := bom.AppDIDList.DriverLabels(os.Name, protocol)
		if len(labels) == 0 {
			errs = append(errs, fmt.Errorf("no applicable device IDs for (%s, %s)", os.Name, protocol))
			continue
		}
		all.Insert(labels...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return sets.List(all), nil
}

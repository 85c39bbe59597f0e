// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package probe matches the PCI devices of the local host against the
// adapters and applicable device ID labels of a release BOM.
package probe

import (
	"slices"
	"strings"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/config"
	"github.com/ironcore-dev/bomcheck/internal/deviceid"
)

// Match is an installed device recognized by the BOM.
type Match struct {
	Device PCIDevice `json:"device"`
	// Adapters are the code names of adapters whose agents carry the device's subsystem id.
	Adapters []string `json:"adapters,omitempty"`
	// Labels are the catalog labels naming the device's hardware id that the
	// BOM lists as applicable.
	Labels []string `json:"labels,omitempty"`
}

// Prober matches local devices against a BOM.
type Prober struct {
	log     logr.Logger
	source  DeviceSource
	catalog []config.DeviceCatalogEntry
}

// NewProber returns a Prober reading devices from source.
func NewProber(log logr.Logger, source DeviceSource, catalog []config.DeviceCatalogEntry) *Prober {
	return &Prober{log: log, source: source, catalog: catalog}
}

// Probe returns every device matching at least one adapter or label, in
// device order.
func (p *Prober) Probe(bom *v1alpha1.ReleaseBOM) ([]Match, error) {
	devices, err := p.source.PCIDevices()
	if err != nil {
		return nil, err
	}
	bomLabels := labels(bom.AppDIDList)

	var matches []Match
	for _, d := range devices {
		subsys := d.Subsystem()
		if subsys == "" {
			continue
		}
		m := Match{Device: d}
		for _, a := range bom.AdapterList {
			if slices.ContainsFunc(a.Agents, func(ag v1alpha1.Agent) bool {
				id, err := deviceid.SubsystemID(ag.ID)
				return err == nil && id == subsys
			}) {
				m.Adapters = append(m.Adapters, a.CodeName)
			}
		}
		for _, e := range p.catalog {
			if strings.EqualFold(e.Value, d.HardwareID()) && bomLabels.Has(e.Name) {
				m.Labels = append(m.Labels, e.Name)
			}
		}
		if len(m.Adapters) == 0 && len(m.Labels) == 0 {
			continue
		}
		p.log.V(1).Info("Matched device", "address", d.Address, "subsystem", subsys, "adapters", m.Adapters, "labels", m.Labels)
		matches = append(matches, m)
	}
	return matches, nil
}

func labels(ids v1alpha1.ApplicableDeviceIDs) sets.Set[string] {
	out := sets.New[string]()
	for _, byASIC := range ids.FW {
		for _, l := range byASIC {
			out.Insert(l...)
		}
	}
	for _, byProtocol := range ids.DD {
		for _, l := range byProtocol {
			out.Insert(l...)
		}
	}
	return out
}

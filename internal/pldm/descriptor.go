// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package pldm

import (
	"encoding/xml"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
)

// Descriptor is the embedded PLDM descriptor document.
type Descriptor struct {
	XMLName         xml.Name `xml:"pldm"`
	ImageSize       int      `xml:"imageSize"`
	FirmwareVersion string   `xml:"firmwareVersion"`
	Devices         []Device `xml:"devices>device"`
}

// Device is a device descriptor tuple.
type Device struct {
	Classification  string `xml:"classification"`
	ImageID         string `xml:"image_id"`
	DeviceSpecifier string `xml:"device_specifier"`
	VendorSpecifier string `xml:"vendor_specifier"`
}

func (d Device) String() string {
	return fmt.Sprintf("{classification:%s image_id:%s device:%s vendor:%s}",
		d.Classification, d.ImageID, d.DeviceSpecifier, d.VendorSpecifier)
}

// key normalizes a tuple so that specifier case and 0x prefixes do not matter.
func (d Device) key() string {
	return strings.Join([]string{
		strings.TrimSpace(d.Classification),
		strings.ToUpper(strings.TrimSpace(d.ImageID)),
		normalizeHex(d.DeviceSpecifier),
		normalizeHex(d.VendorSpecifier),
	}, "|")
}

func normalizeHex(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0X")
	if len(s) < 4 {
		s = strings.Repeat("0", 4-len(s)) + s
	}
	return s
}

// ParseDescriptor decodes a descriptor document.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	d := &Descriptor{}
	if err := xml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("failed to parse PLDM descriptor: %w", err)
	}
	return d, nil
}

// ImageID renders an agent type as a four digit image id.
func ImageID(agentType string) string {
	if len(agentType) >= 4 {
		return agentType
	}
	return strings.Repeat("0", 4-len(agentType)) + agentType
}

// Expected returns the descriptor tuples the PLDM capable adapters require, one
// per agent entry, without duplicates.
func Expected(adapters []v1alpha1.Adapter) []Device {
	seen := sets.New[string]()
	var out []Device
	for _, a := range adapters {
		if !a.SupportsPLDM() {
			continue
		}
		for _, agent := range a.Agents {
			d := Device{
				Classification:  agent.Type,
				ImageID:         ImageID(agent.Type),
				DeviceSpecifier: "0x" + strings.ToUpper(a.PLDM.Device),
				VendorSpecifier: "0x" + strings.ToUpper(a.PLDM.Vendor),
			}
			if seen.Has(d.key()) {
				continue
			}
			seen.Insert(d.key())
			out = append(out, d)
		}
	}
	return out
}

// Reconcile compares the tuples in both directions. missing holds expected
// tuples absent from actual and unexpected holds actual tuples that were not
// expected, each sorted by normalized key.
func Reconcile(expected, actual []Device) (missing, unexpected []Device) {
	want := index(expected)
	got := index(actual)
	wantKeys := sets.KeySet(want)
	gotKeys := sets.KeySet(got)
	for _, k := range sets.List(wantKeys.Difference(gotKeys)) {
		missing = append(missing, want[k])
	}
	for _, k := range sets.List(gotKeys.Difference(wantKeys)) {
		unexpected = append(unexpected, got[k])
	}
	return missing, unexpected
}

func index(devices []Device) map[string]Device {
	m := make(map[string]Device, len(devices))
	for _, d := range devices {
		if _, ok := m[d.key()]; !ok {
			m[d.key()] = d
		}
	}
	return m
}

// Duplicates returns tuples that occur more than once, in first seen order.
func Duplicates(devices []Device) []Device {
	counts := map[string]int{}
	for _, d := range devices {
		counts[d.key()]++
	}
	var out []Device
	for _, d := range devices {
		if counts[d.key()] > 1 {
			out = append(out, d)
			counts[d.key()] = 0
		}
	}
	return out
}

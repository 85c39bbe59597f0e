// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"encoding/xml"
	"fmt"

	"github.com/ironcore-dev/bomcheck/internal/pldm"
)

// Metadata is the declared input metadata of a package.
type Metadata struct {
	Version         string        `xml:"version"`
	Category        Category      `xml:"category"`
	Vendor          string        `xml:"vendor"`
	RebootRequired  string        `xml:"rebootRequired"`
	UpdateType      string        `xml:"updateType"`
	UpdateSelection string        `xml:"updateSelection"`
	DeviceIDLabels  []string      `xml:"applicableDeviceIdLabel"`
	OSUpdateData    OSUpdateData  `xml:"osUpdateData"`
	Target          UpdateTarget  `xml:"updateTargetInformation"`
	PLDM            *PLDMFirmware `xml:"pldmFirmware"`
	Description     string        `xml:"description"`
}

// Category is the package category with its type attribute.
type Category struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// OSUpdateData holds one element per operating system family.
type OSUpdateData struct {
	OS []OSData `xml:",any"`
}

// OSData is the update data of one operating system family element.
type OSData struct {
	XMLName     xml.Name
	DriverFiles []DriverFile `xml:"driverFiles>driverFile"`
}

// DriverFile is a driver or firmware file entry. Drivers set OS and Arch
// unless the entry implicitly applies to the only expected pair; firmware
// entries carry a classification and boot code entries a version.
type DriverFile struct {
	Name           string `xml:"name"`
	OS             string `xml:"os,omitempty"`
	Arch           string `xml:"arch,omitempty"`
	Classification string `xml:"classification,omitempty"`
	Version        string `xml:"version,omitempty"`
}

// UpdateTarget lists the applicable operating systems and machine types.
type UpdateTarget struct {
	OperatingSystems []string `xml:"applicableOperatingSystems>os"`
	MachineTypes     []string `xml:"applicableMachineTypes>machineNumber"`
}

// PLDMFirmware is the PLDM section of firmware metadata.
type PLDMFirmware struct {
	FileName          string        `xml:"pldmFileName"`
	DeviceDescriptors []pldm.Device `xml:"deviceDescriptor"`
	Files             []PLDMFile    `xml:"file"`
}

// PLDMFile is a component of the PLDM image.
type PLDMFile struct {
	Name        string `xml:"name"`
	Offset      string `xml:"offset"`
	Version     string `xml:"version"`
	SourceClass string `xml:"sourceClass"`
}

// DriverFiles returns the driver file entries of every family element.
func (m *Metadata) DriverFiles() []DriverFile {
	var out []DriverFile
	for _, os := range m.OSUpdateData.OS {
		out = append(out, os.DriverFiles...)
	}
	return out
}

// Parse decodes package metadata.
func Parse(data []byte) (*Metadata, error) {
	m := &Metadata{}
	if err := xml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse package metadata: %w", err)
	}
	return m, nil
}

// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package v1alpha1

import (
	"slices"
	"strings"
)

// ReleaseType is the class of a release as declared in the BOM.
type ReleaseType string

// Architecture is the CPU architecture an operating system entry targets.
type Architecture string

const (
	ArchitectureX86 Architecture = "x86"
	ArchitectureX64 Architecture = "x64"
)

// OSKind is the operating system family.
type OSKind string

const (
	OSKindLinux   OSKind = "linux"
	OSKindWindows OSKind = "windows"
	OSKindVMware  OSKind = "vmware"
)

// OSExtra marks hypervisor variants of an operating system.
type OSExtra string

const (
	OSExtraKVM OSExtra = "kvm"
	OSExtraXen OSExtra = "xen"
)

// SystemType is the machine class an adapter is qualified for.
type SystemType string

const (
	SystemTypeRack        SystemType = "rack"
	SystemTypeFlex        SystemType = "flex"
	SystemTypeBladeCenter SystemType = "bladecenter"
)

// Protocol is the storage or network protocol of a device catalog entry.
type Protocol string

const (
	ProtocolFC    Protocol = "fc"
	ProtocolNIC   Protocol = "nic"
	ProtocolISCSI Protocol = "iscsi"
	ProtocolFCoE  Protocol = "fcoe"
	ProtocolCNA   Protocol = "cna"
)

// ReleaseBOM is the canonical in-memory and serialized bill of materials of a release.
type ReleaseBOM struct {
	// Release is the canonical uppercase alphanumeric release token.
	Release string `json:"release"`
	// Type is the release class.
	Type ReleaseType `json:"type"`
	// OSList contains every supported operating system.
	OSList []OperatingSystem `json:"osList"`
	// SystemList is the machine-type table referenced by adapters.
	SystemList []MachineTypeItem `json:"systemList"`
	// AdapterList contains every supported adapter.
	AdapterList []Adapter `json:"adapterList"`
	// AppDIDList holds the derived applicable device ID labels.
	AppDIDList ApplicableDeviceIDs `json:"appDIDList"`
}

// OperatingSystem is one supported operating system release.
type OperatingSystem struct {
	FullName string `json:"fullName"`
	// Name is the canonical short name, e.g. rhel7.
	Name string `json:"name"`
	// PackageSDKNames are the labels package metadata uses for this OS.
	PackageSDKNames []string     `json:"pkgsdkName"`
	SubVersion      string       `json:"subVersion"`
	Arch            Architecture `json:"arch"`
	Kind            OSKind       `json:"type"`
	DriverDirName   string       `json:"ddName"`
	Extras          OSExtra      `json:"extras,omitempty"`
}

// MachineTypeItem maps a machine-type table item to its machine-type-model list.
type MachineTypeItem struct {
	ItemID       string     `json:"id"`
	SystemType   SystemType `json:"type"`
	MachineTypes []string   `json:"mtm"`
}

// Agent is an agentless class entry of an adapter.
type Agent struct {
	// ID is the eight hex digit agent id in DDDDVVVV order.
	ID string `json:"id"`
	// Type is the agentless classification code.
	Type string `json:"type"`
}

// PLDMDescriptor identifies an adapter for the PLDM firmware download protocol.
type PLDMDescriptor struct {
	Vendor string `json:"vendor"`
	Device string `json:"device"`
}

// Adapter is one adapter board of the release.
type Adapter struct {
	CodeName         string          `json:"name"`
	Model            string          `json:"model"`
	ASIC             string          `json:"asic"`
	SystemType       SystemType      `json:"type"`
	MachineTypes     []string        `json:"mtm"`
	DriverFileTokens []string        `json:"v2"`
	Agents           []Agent         `json:"agent"`
	PLDM             *PLDMDescriptor `json:"pldm,omitempty"`
}

// SupportsPLDM reports whether the adapter declares a PLDM descriptor.
func (a Adapter) SupportsPLDM() bool {
	return a.PLDM != nil
}

// ApplicableDeviceIDs holds device ID labels bucketed for firmware and driver packages.
type ApplicableDeviceIDs struct {
	// FW maps OS kind and ASIC to labels.
	FW map[OSKind]map[string][]string `json:"fw"`
	// DD maps OS name and protocol to labels.
	DD map[string]map[Protocol][]string `json:"dd"`
}

// FirmwareLabels returns the labels of the (osKind, asic) firmware bucket.
func (a ApplicableDeviceIDs) FirmwareLabels(kind OSKind, asic string) []string {
	return a.FW[kind][asic]
}

// DriverLabels returns the labels of the (osName, protocol) driver bucket.
func (a ApplicableDeviceIDs) DriverLabels(osName string, protocol Protocol) []string {
	return a.DD[osName][protocol]
}

// AdaptersForASICs returns the adapters whose ASIC is one of asics, in BOM order.
func (b *ReleaseBOM) AdaptersForASICs(asics ...string) []Adapter {
	var out []Adapter
	for _, a := range b.AdapterList {
		if slices.ContainsFunc(asics, func(s string) bool { return strings.EqualFold(s, a.ASIC) }) {
			out = append(out, a)
		}
	}
	return out
}

// OSByKind returns the operating systems of the given kind, in BOM order.
func (b *ReleaseBOM) OSByKind(kind OSKind) []OperatingSystem {
	var out []OperatingSystem
	for _, os := range b.OSList {
		if os.Kind == kind {
			out = append(out, os)
		}
	}
	return out
}

// OSByNames returns the operating systems whose canonical name is one of names, in BOM order.
func (b *ReleaseBOM) OSByNames(names ...string) []OperatingSystem {
	var out []OperatingSystem
	for _, os := range b.OSList {
		if slices.Contains(names, os.Name) {
			out = append(out, os)
		}
	}
	return out
}

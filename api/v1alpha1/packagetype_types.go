// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package v1alpha1

// PackageKind distinguishes firmware from device driver packages.
type PackageKind string

const (
	PackageKindFirmware PackageKind = "fw"
	PackageKindDriver   PackageKind = "dd"
)

// PackageTypeSpec is the configured description of one shippable unit. Exactly one of
// Firmware, LinuxDriver or WindowsDriver must be set, matching Kind and OSFamily.
type PackageTypeSpec struct {
	// Name identifies the package type in logs and in the build history.
	Name string `json:"name"`
	// Kind is fw or dd.
	Kind PackageKind `json:"kind"`
	// OSFamily is the operating system family the package targets.
	OSFamily OSKind `json:"osFamily"`
	// FileNamePattern is a regular expression matching the package archive file name.
	// The named groups "version" and "subversion" are captured when present.
	FileNamePattern string `json:"fileNamePattern"`
	// ASICs selects the adapters of the BOM that the package covers.
	ASICs []string `json:"asics"`
	// Description is a template for the expected metadata description.
	Description string `json:"description"`

	Firmware      *FirmwareSpec      `json:"firmware,omitempty"`
	LinuxDriver   *LinuxDriverSpec   `json:"linuxDriver,omitempty"`
	WindowsDriver *WindowsDriverSpec `json:"windowsDriver,omitempty"`
}

// FirmwareSpec holds the firmware specific parts of a package type.
type FirmwareSpec struct {
	// PreVersion is stripped from the metadata version before parsing.
	PreVersion string `json:"preVersion,omitempty"`
	// ImageName is a template for firmware image file names, rendered per adapter token.
	ImageName string `json:"imageName"`
	// BootCode is set when the package carries boot code images.
	BootCode *BootCodeSpec `json:"bootCode,omitempty"`
	// PLDMFileNamePattern validates the declared PLDM file name.
	PLDMFileNamePattern string `json:"pldmFileNamePattern,omitempty"`
	// FlashScript is the name of the flashing script in the payload.
	FlashScript string `json:"flashScript"`
	// HelperFiles are expected under bin/<arch>/ for every architecture in Archs.
	HelperFiles []string       `json:"helperFiles,omitempty"`
	Archs       []Architecture `json:"archs,omitempty"`
}

// BootCodeSpec describes the boot code classification of a firmware package.
type BootCodeSpec struct {
	// Classification is the agentless classification code of boot images.
	Classification string `json:"classification"`
	// VersionPattern validates the boot code version.
	VersionPattern string `json:"versionPattern"`
	// ImageName is a template for boot image file names, rendered per adapter token.
	ImageName string `json:"imageName"`
}

// LinuxDriverSpec holds the Linux driver specific parts of a package type.
type LinuxDriverSpec struct {
	// OSNames restricts the BOM operating systems. Empty selects every Linux OS.
	OSNames  []string `json:"osNames,omitempty"`
	Protocol Protocol `json:"protocol"`
	// DriverFileName is a template for driverFile entry names in the metadata.
	DriverFileName string `json:"driverFileName"`
	// InstallScript is the name of the install script at the payload root.
	InstallScript string                  `json:"installScript"`
	Distributions []LinuxDistributionSpec `json:"distributions"`
	// SRPM is a template for the source RPM expected per distinct sub-version.
	SRPM string `json:"srpm"`
	// DUD is a template for the driver update disk image expected per (sub-version, arch).
	DUD string `json:"dud"`
	// ManagementApp is an optional template for the installer expected per architecture.
	ManagementApp string `json:"managementApp,omitempty"`
}

// LinuxLayout is the directory layout of one Linux distribution family.
type LinuxLayout string

const (
	// LinuxLayoutKernelFlavor expects one RPM per kernel flavor.
	LinuxLayoutKernelFlavor LinuxLayout = "kernel-flavor"
	// LinuxLayoutArchTemplate expects one RPM per template and architecture.
	LinuxLayoutArchTemplate LinuxLayout = "arch-template"
)

// LinuxDistributionSpec describes the RPM layout of a distribution family.
type LinuxDistributionSpec struct {
	// Prefix selects BOM operating systems by canonical name prefix.
	Prefix  string      `json:"prefix"`
	Layout  LinuxLayout `json:"layout"`
	Flavors []string    `json:"flavors,omitempty"`
	// RPMs are templates rendered per flavor or per architecture.
	RPMs []string `json:"rpms"`
}

// WindowsDriverSpec holds the Windows driver specific parts of a package type.
type WindowsDriverSpec struct {
	// OSNames restricts the BOM operating systems. Empty selects every Windows OS.
	OSNames        []string `json:"osNames,omitempty"`
	Protocol       Protocol `json:"protocol"`
	DriverFileName string   `json:"driverFileName"`
	// Files are templates expected under <driverDirName>/<arch>/.
	Files []string `json:"files"`
	// InstallerFiles are expected at the payload root.
	InstallerFiles []string `json:"installerFiles,omitempty"`
}

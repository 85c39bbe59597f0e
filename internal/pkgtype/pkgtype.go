// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package pkgtype compiles configured package type definitions into one variant
// per kind and OS family. Verifiers dispatch on the variant with a type switch.
package pkgtype

import (
	"errors"
	"fmt"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
)

// Variant class names, also recorded in the build history.
const (
	ClassFirmware      = "firmware"
	ClassLinuxDriver   = "linux-driver"
	ClassWindowsDriver = "windows-driver"
)

// Type is a compiled package type. The concrete type is *Firmware, *LinuxDriver
// or *WindowsDriver.
type Type interface {
	Name() string
	Class() string
	Spec() *v1alpha1.PackageTypeSpec
	// MatchFile matches a package archive file name.
	MatchFile(name string) (Captures, bool)
	Description() *Template
	isType()
}

type base struct {
	spec        v1alpha1.PackageTypeSpec
	fileName    *Pattern
	description *Template
}

func (b *base) Name() string                           { return b.spec.Name }
func (b *base) Spec() *v1alpha1.PackageTypeSpec        { return &b.spec }
func (b *base) Description() *Template                 { return b.description }
func (b *base) MatchFile(name string) (Captures, bool) { return b.fileName.Match(name) }
func (b *base) isType()                                {}

// Firmware is a firmware package for one ASIC on one OS family.
type Firmware struct {
	base
	OSType     v1alpha1.OSKind
	ASIC       string
	PreVersion string
	ImageName  *Template
	// Boot is nil when the package carries no boot code.
	Boot         *BootCode
	PLDMFileName *Pattern
	FlashScript  string
	HelperFiles  []string
	Archs        []v1alpha1.Architecture
}

// BootCode is the compiled boot code section of a firmware package type.
type BootCode struct {
	Classification string
	Version        *Pattern
	ImageName      *Template
}

func (f *Firmware) Class() string { return ClassFirmware }

// LinuxDriver is a Linux device driver package.
type LinuxDriver struct {
	base
	OSNames        []string
	Protocol       v1alpha1.Protocol
	DriverFileName *Template
	InstallScript  string
	Distributions  []LinuxDistribution
	SRPM           *Template
	DUD            *Template
	// ManagementApp is nil when no installer is shipped.
	ManagementApp *Template
}

// LinuxDistribution is the compiled RPM layout of a distribution family.
type LinuxDistribution struct {
	Prefix  string
	Layout  v1alpha1.LinuxLayout
	Flavors []string
	RPMs    []*Template
}

func (l *LinuxDriver) Class() string { return ClassLinuxDriver }

// WindowsDriver is a Windows device driver package.
type WindowsDriver struct {
	base
	OSNames        []string
	Protocol       v1alpha1.Protocol
	DriverFileName *Template
	Files          []*Template
	InstallerFiles []string
}

func (w *WindowsDriver) Class() string { return ClassWindowsDriver }

// Compile validates spec and returns its variant.
func Compile(spec v1alpha1.PackageTypeSpec) (Type, error) {
	if spec.Name == "" {
		return nil, errors.New("package type without name")
	}
	b, err := compileBase(spec)
	if err != nil {
		return nil, fmt.Errorf("package type %s: %w", spec.Name, err)
	}
	var t Type
	switch {
	case spec.Kind == v1alpha1.PackageKindFirmware:
		t, err = compileFirmware(b)
	case spec.Kind == v1alpha1.PackageKindDriver && spec.OSFamily == v1alpha1.OSKindLinux:
		t, err = compileLinuxDriver(b)
	case spec.Kind == v1alpha1.PackageKindDriver && spec.OSFamily == v1alpha1.OSKindWindows:
		t, err = compileWindowsDriver(b)
	default:
		err = fmt.Errorf("unsupported kind %q for OS family %q", spec.Kind, spec.OSFamily)
	}
	if err != nil {
		return nil, fmt.Errorf("package type %s: %w", spec.Name, err)
	}
	return t, nil
}

func compileBase(spec v1alpha1.PackageTypeSpec) (base, error) {
	b := base{spec: spec}
	var err error
	if spec.FileNamePattern == "" {
		return b, errors.New("fileNamePattern is required")
	}
	if b.fileName, err = CompilePattern(spec.FileNamePattern); err != nil {
		return b, err
	}
	if len(spec.ASICs) == 0 {
		return b, errors.New("at least one ASIC is required")
	}
	if b.description, err = CompileTemplate(spec.Name+"-description", spec.Description); err != nil {
		return b, err
	}
	return b, nil
}

func compileFirmware(b base) (*Firmware, error) {
	spec := b.spec.Firmware
	if spec == nil {
		return nil, errors.New("firmware section is required")
	}
	if len(b.spec.ASICs) != 1 {
		return nil, errors.New("firmware package types select exactly one ASIC")
	}
	f := &Firmware{
		base:        b,
		OSType:      b.spec.OSFamily,
		ASIC:        b.spec.ASICs[0],
		PreVersion:  spec.PreVersion,
		FlashScript: spec.FlashScript,
		HelperFiles: spec.HelperFiles,
		Archs:       spec.Archs,
	}
	var err error
	if f.ImageName, err = CompileTemplate(b.spec.Name+"-image", spec.ImageName); err != nil {
		return nil, err
	}
	if spec.BootCode != nil {
		boot := &BootCode{Classification: spec.BootCode.Classification}
		if boot.Classification == "" {
			return nil, errors.New("bootCode.classification is required")
		}
		if boot.Version, err = CompilePattern(spec.BootCode.VersionPattern); err != nil {
			return nil, err
		}
		if boot.ImageName, err = CompileTemplate(b.spec.Name+"-boot-image", spec.BootCode.ImageName); err != nil {
			return nil, err
		}
		f.Boot = boot
	}
	pldmPattern := spec.PLDMFileNamePattern
	if pldmPattern == "" {
		pldmPattern = `.+\.pldm`
	}
	if f.PLDMFileName, err = CompilePattern(pldmPattern); err != nil {
		return nil, err
	}
	return f, nil
}

func compileLinuxDriver(b base) (*LinuxDriver, error) {
	spec := b.spec.LinuxDriver
	if spec == nil {
		return nil, errors.New("linuxDriver section is required")
	}
	l := &LinuxDriver{
		base:          b,
		OSNames:       spec.OSNames,
		Protocol:      spec.Protocol,
		InstallScript: spec.InstallScript,
	}
	if l.InstallScript == "" {
		l.InstallScript = "install.sh"
	}
	var err error
	name := b.spec.Name
	if l.DriverFileName, err = CompileTemplate(name+"-driver-file", spec.DriverFileName); err != nil {
		return nil, err
	}
	if l.SRPM, err = CompileTemplate(name+"-srpm", spec.SRPM); err != nil {
		return nil, err
	}
	if l.DUD, err = CompileTemplate(name+"-dud", spec.DUD); err != nil {
		return nil, err
	}
	if spec.ManagementApp != "" {
		if l.ManagementApp, err = CompileTemplate(name+"-management-app", spec.ManagementApp); err != nil {
			return nil, err
		}
	}
	if len(spec.Distributions) == 0 {
		return nil, errors.New("at least one distribution is required")
	}
	for i, d := range spec.Distributions {
		dist := LinuxDistribution{Prefix: d.Prefix, Layout: d.Layout, Flavors: d.Flavors}
		switch d.Layout {
		case v1alpha1.LinuxLayoutKernelFlavor:
			if len(d.Flavors) == 0 {
				return nil, fmt.Errorf("distribution %s: kernel-flavor layout needs flavors", d.Prefix)
			}
		case v1alpha1.LinuxLayoutArchTemplate:
		default:
			return nil, fmt.Errorf("distribution %s: unknown layout %q", d.Prefix, d.Layout)
		}
		for j, src := range d.RPMs {
			t, err := CompileTemplate(fmt.Sprintf("%s-rpm-%d-%d", name, i, j), src)
			if err != nil {
				return nil, err
			}
			dist.RPMs = append(dist.RPMs, t)
		}
		l.Distributions = append(l.Distributions, dist)
	}
	return l, nil
}

func compileWindowsDriver(b base) (*WindowsDriver, error) {
	spec := b.spec.WindowsDriver
	if spec == nil {
		return nil, errors.New("windowsDriver section is required")
	}
	w := &WindowsDriver{
		base:           b,
		OSNames:        spec.OSNames,
		Protocol:       spec.Protocol,
		InstallerFiles: spec.InstallerFiles,
	}
	var err error
	if w.DriverFileName, err = CompileTemplate(b.spec.Name+"-driver-file", spec.DriverFileName); err != nil {
		return nil, err
	}
	for i, src := range spec.Files {
		t, err := CompileTemplate(fmt.Sprintf("%s-file-%d", b.spec.Name, i), src)
		if err != nil {
			return nil, err
		}
		w.Files = append(w.Files, t)
	}
	return w, nil
}

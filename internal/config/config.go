// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the bomcheck configuration: grid labels, the operating
// system and device catalogs, expected metadata values, package types and the
// documented rule exceptions.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"

	"sigs.k8s.io/yaml"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/pkgtype"
)

//go:embed defaults.yaml
var defaults []byte

// Config is the complete tool configuration.
type Config struct {
	ReleaseTypes     []v1alpha1.ReleaseType     `json:"releaseTypes"`
	Sections         SectionLabels              `json:"sections"`
	AdapterColumns   AdapterColumns             `json:"adapterColumns"`
	OperatingSystems []OSCatalogEntry           `json:"operatingSystems"`
	DeviceCatalog    []DeviceCatalogEntry       `json:"deviceCatalog"`
	Expected         ExpectedFields             `json:"expected"`
	PackageTypes     []v1alpha1.PackageTypeSpec `json:"packageTypes"`
	Exceptions       Exceptions                 `json:"exceptions"`
	// Checksum is the digest algorithm of the checksum ledger, sha256 or blake2b-256.
	Checksum string        `json:"checksum"`
	Archive  ArchiveConfig `json:"archive"`

	packageTypes []pkgtype.Type
}

// SectionLabels are the header texts locating the grid sections.
type SectionLabels struct {
	ReleaseName     string `json:"releaseName"`
	ReleaseType     string `json:"releaseType"`
	OperatingSystem string `json:"operatingSystems"`
	MachineTypes    string `json:"machineTypes"`
	Adapters        string `json:"adapters"`
}

// AdapterColumns are the column labels of the adapter section.
type AdapterColumns struct {
	ASIC         string `json:"asic"`
	CodeName     string `json:"codeName"`
	Model        string `json:"model"`
	MachineTypes string `json:"machineTypes"`
	DriverFiles  string `json:"driverFiles"`
	Agentless    string `json:"agentless"`
	PLDM         string `json:"pldm"`
}

// OSCatalogEntry describes a known operating system by full name prefix.
// Entries are matched in order, so specific prefixes must precede general ones.
type OSCatalogEntry struct {
	Prefix        string                  `json:"prefix"`
	Name          string                  `json:"name"`
	Kind          v1alpha1.OSKind         `json:"kind"`
	Archs         []v1alpha1.Architecture `json:"archs"`
	SDKNames      []string                `json:"sdkNames"`
	DriverDirName string                  `json:"driverDirName"`
	// SubVersionPattern has one capture group yielding the sub-version, e.g. `\bU(\d+)\b`.
	SubVersionPattern string `json:"subVersionPattern,omitempty"`

	subVersion *regexp.Regexp
}

// SubVersion extracts the sub-version from an OS full name.
func (e *OSCatalogEntry) SubVersion(fullName string) (string, bool) {
	if e.subVersion == nil {
		return "", false
	}
	m := e.subVersion.FindStringSubmatch(fullName)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DeviceCatalogEntry is one named applicable device ID.
type DeviceCatalogEntry struct {
	Name string `json:"name"`
	// Value is the PCI hardware id, ending in SUBSYS_xxxxxxxx.
	Value    string            `json:"value"`
	Protocol v1alpha1.Protocol `json:"protocol"`
	// OSKinds restricts the entry to OS kinds. Empty applies to all.
	OSKinds []v1alpha1.OSKind `json:"osKinds,omitempty"`
}

// AppliesTo reports whether the entry applies to kind.
func (d DeviceCatalogEntry) AppliesTo(kind v1alpha1.OSKind) bool {
	return len(d.OSKinds) == 0 || slices.Contains(d.OSKinds, kind)
}

// ExpectedFields holds the fixed metadata values checked for equality.
type ExpectedFields struct {
	Vendor          string     `json:"vendor"`
	UpdateSelection string     `json:"updateSelection"`
	Firmware        KindFields `json:"firmware"`
	Driver          KindFields `json:"driver"`
}

// KindFields are the fixed values that differ between firmware and drivers.
type KindFields struct {
	CategoryType   string `json:"categoryType"`
	Category       string `json:"category"`
	RebootRequired string `json:"rebootRequired"`
	UpdateType     string `json:"updateType"`
}

// For returns the kind specific fields.
func (e ExpectedFields) For(kind v1alpha1.PackageKind) KindFields {
	if kind == v1alpha1.PackageKindFirmware {
		return e.Firmware
	}
	return e.Driver
}

// Exceptions are documented tolerances for known vendor data defects. They are
// applied as explicit rules and reported at debug level when they fire.
type Exceptions struct {
	// ChecksumExemptClasses skip the stale sub-version checksum rule.
	ChecksumExemptClasses []string `json:"checksumExemptClasses"`
	// DuplicateOSLabels may appear more than once in applicable OS lists.
	DuplicateOSLabels []string `json:"duplicateOSLabels"`
}

// ArchiveConfig configures the external extraction helper.
type ArchiveConfig struct {
	// Unzip is the command used for self-extracting archives.
	Unzip string `json:"unzip"`
	// BenignStderr is the only stderr text tolerated from Unzip.
	BenignStderr string `json:"benignStderr"`
}

// PackageTypeList returns the compiled package types in configuration order.
func (c *Config) PackageTypeList() []pkgtype.Type {
	return c.packageTypes
}

// PackageType returns the compiled package type with the given name.
func (c *Config) PackageType(name string) (pkgtype.Type, bool) {
	for _, t := range c.packageTypes {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// ChecksumExempt reports whether class is exempt from checksum equality.
func (c *Config) ChecksumExempt(class string) bool {
	return slices.Contains(c.Exceptions.ChecksumExemptClasses, class)
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	return Parse(defaults)
}

// Load reads the configuration at path, or the embedded default if path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML configuration.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.compile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) compile() error {
	var errs []error
	for i := range c.OperatingSystems {
		e := &c.OperatingSystems[i]
		if e.Prefix == "" || e.Name == "" {
			errs = append(errs, fmt.Errorf("operating system %d: prefix and name are required", i))
			continue
		}
		if e.SubVersionPattern == "" {
			continue
		}
		re, err := regexp.Compile(e.SubVersionPattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("operating system %s: %w", e.Name, err))
			continue
		}
		if re.NumSubexp() < 1 {
			errs = append(errs, fmt.Errorf("operating system %s: sub-version pattern needs a capture group", e.Name))
			continue
		}
		e.subVersion = re
	}
	for _, d := range c.DeviceCatalog {
		if !subsysSuffix.MatchString(d.Value) {
			errs = append(errs, fmt.Errorf("device %s: value %q does not end in SUBSYS_xxxxxxxx", d.Name, d.Value))
		}
	}
	seen := map[string]bool{}
	c.packageTypes = nil
	for _, spec := range c.PackageTypes {
		if seen[spec.Name] {
			errs = append(errs, fmt.Errorf("duplicate package type %s", spec.Name))
			continue
		}
		seen[spec.Name] = true
		t, err := pkgtype.Compile(spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.packageTypes = append(c.packageTypes, t)
	}
	switch c.Checksum {
	case "":
		c.Checksum = "sha256"
	case "sha256", "blake2b-256":
	default:
		errs = append(errs, fmt.Errorf("unsupported checksum %q", c.Checksum))
	}
	return errors.Join(errs...)
}

var subsysSuffix = regexp.MustCompile(`(?i)SUBSYS_[0-9a-f]{8}$`)

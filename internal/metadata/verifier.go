// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package metadata cross-checks the declared metadata of a package, its
// package XML, readme and changelog against the release BOM.
package metadata

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/ptr"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/config"
	"github.com/ironcore-dev/bomcheck/internal/deviceid"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/pkgtype"
)

// Check names of metadata diagnostics.
const (
	CheckVersion      = "version"
	CheckFields       = "fields"
	CheckDeviceIDs    = "device-ids"
	CheckDriverFiles  = "driver-files"
	CheckOS           = "applicable-os"
	CheckMachineTypes = "applicable-machine-types"
	CheckPLDMSection  = "pldm-section"
	CheckDescription  = "description"
	CheckPackageXML   = "package-xml"
	CheckReadme       = "readme"
	CheckChangelog    = "changelog"
	CheckException    = "exception"
)

// Result holds the fields resolved by the metadata checks that later stages need.
type Result struct {
	Version    string
	SubVersion string
	// BootVersion is set for firmware packages carrying boot code.
	BootVersion *string
}

// FullVersion returns <version>-<subversion>.
func (r Result) FullVersion() string {
	return r.Version + "-" + r.SubVersion
}

// Verifier checks package metadata against a release BOM.
type Verifier struct {
	log logr.Logger
	cfg *config.Config
	bom *v1alpha1.ReleaseBOM
}

// NewVerifier returns a Verifier for bom.
func NewVerifier(log logr.Logger, cfg *config.Config, bom *v1alpha1.ReleaseBOM) *Verifier {
	return &Verifier{log: log, cfg: cfg, bom: bom}
}

// Verify runs the ordered metadata checks of t. Every check records its
// findings in report and the next check runs regardless. caps are the named
// captures of the package file name.
func (v *Verifier) Verify(report *diag.Report, t pkgtype.Type, md *Metadata, caps pkgtype.Captures) Result {
	res := v.verifyVersion(report, t, md, caps)
	v.verifyFields(report, t, md)
	v.verifyDeviceIDs(report, t, md)
	switch pt := t.(type) {
	case *pkgtype.Firmware:
		res.BootVersion = v.verifyFirmwareFiles(report, pt, md, res)
	case *pkgtype.LinuxDriver:
		v.verifyDriverFiles(report, t, pt.DriverFileName, md, res)
	case *pkgtype.WindowsDriver:
		v.verifyDriverFiles(report, t, pt.DriverFileName, md, res)
	}
	v.verifyOperatingSystems(report, t, md)
	v.verifyMachineTypes(report, t, md)
	v.verifyPLDMSection(report, t, md, res)
	v.verifyDescription(report, t, md, res)
	return res
}

// ParseVersion splits <version>-<subversion> after stripping preVersion.
func ParseVersion(s, preVersion string) (string, string, error) {
	s = strings.TrimSpace(s)
	if preVersion != "" {
		if !strings.HasPrefix(s, preVersion) {
			return "", "", fmt.Errorf("version %q lacks prefix %q", s, preVersion)
		}
		s = strings.TrimPrefix(s, preVersion)
	}
	i := strings.LastIndex(s, "-")
	if i <= 0 || i == len(s)-1 {
		return "", "", fmt.Errorf("version %q is not <version>-<subversion>", s)
	}
	return s[:i], s[i+1:], nil
}

func (v *Verifier) verifyVersion(report *diag.Report, t pkgtype.Type, md *Metadata, caps pkgtype.Captures) Result {
	res := Result{Version: caps["version"], SubVersion: caps["subversion"]}
	if md.Version == "" {
		report.Errorf(CheckVersion, "metadata has no version")
		return res
	}
	preVersion := ""
	if fw, ok := t.(*pkgtype.Firmware); ok {
		preVersion = fw.PreVersion
	}
	version, subVersion, err := ParseVersion(md.Version, preVersion)
	if err != nil {
		report.Errorf(CheckVersion, "%v", err)
		return res
	}
	if res.Version != "" && res.Version != version {
		report.Errorf(CheckVersion, "metadata version %s does not match file name version %s", version, res.Version)
	}
	if res.SubVersion != "" && res.SubVersion != subVersion {
		report.Errorf(CheckVersion, "metadata sub-version %s does not match file name sub-version %s", subVersion, res.SubVersion)
	}
	return Result{Version: version, SubVersion: subVersion}
}

func (v *Verifier) verifyFields(report *diag.Report, t pkgtype.Type, md *Metadata) {
	kind := v.cfg.Expected.For(t.Spec().Kind)
	for _, f := range []struct {
		name, expected, actual string
	}{
		{"category.type", kind.CategoryType, md.Category.Type},
		{"category", kind.Category, strings.TrimSpace(md.Category.Value)},
		{"vendor", v.cfg.Expected.Vendor, md.Vendor},
		{"rebootRequired", kind.RebootRequired, md.RebootRequired},
		{"updateType", kind.UpdateType, md.UpdateType},
		{"updateSelection", v.cfg.Expected.UpdateSelection, md.UpdateSelection},
	} {
		if f.actual != f.expected {
			report.Errorf(CheckFields, "%s is %q, expected %q", f.name, f.actual, f.expected)
		}
	}
}

func (v *Verifier) verifyDeviceIDs(report *diag.Report, t pkgtype.Type, md *Metadata) {
	expected, err := deviceid.ExpectedLabels(v.bom, t)
	if err != nil {
		report.Errorf(CheckDeviceIDs, "%v", err)
		return
	}
	compareSets(report, CheckDeviceIDs, "device ID label", expected, md.DeviceIDLabels, nil)
}

func (v *Verifier) verifyOperatingSystems(report *diag.Report, t pkgtype.Type, md *Metadata) {
	var expected []string
	for _, os := range pkgtype.OperatingSystems(v.bom, t) {
		expected = append(expected, os.PackageSDKNames...)
	}
	tolerated := func(label string) bool {
		for _, l := range v.cfg.Exceptions.DuplicateOSLabels {
			if l == label {
				report.Debugf(CheckException, "duplicate OS label %q tolerated by exception", label)
				return true
			}
		}
		return false
	}
	compareSets(report, CheckOS, "operating system", expected, md.Target.OperatingSystems, tolerated)
}

func (v *Verifier) verifyMachineTypes(report *diag.Report, t pkgtype.Type, md *Metadata) {
	var expected []string
	for _, a := range pkgtype.Adapters(v.bom, t) {
		expected = append(expected, a.MachineTypes...)
	}
	compareSets(report, CheckMachineTypes, "machine type", expected, md.Target.MachineTypes, nil)
}

func (v *Verifier) verifyDescription(report *diag.Report, t pkgtype.Type, md *Metadata, res Result) {
	values := pkgtype.Values{
		Release:     v.bom.Release,
		Version:     res.Version,
		SubVersion:  res.SubVersion,
		BootVersion: ptr.Deref(res.BootVersion, ""),
	}
	if asics := t.Spec().ASICs; len(asics) > 0 {
		values.ASIC = asics[0]
	}
	expected, err := t.Description().Render(values)
	if err != nil {
		report.Errorf(CheckDescription, "%v", err)
		return
	}
	if actual := strings.TrimSpace(md.Description); actual != expected {
		report.Errorf(CheckDescription, "description is %q, expected %q", actual, expected)
	}
}

// compareSets reports duplicates in actual and every element missing from or
// unexpected in actual. tolerated, if set, may excuse a duplicate.
func compareSets(report *diag.Report, check, what string, expected, actual []string, tolerated func(string) bool) {
	counts := map[string]int{}
	for _, a := range actual {
		counts[a]++
		if counts[a] == 2 && (tolerated == nil || !tolerated(a)) {
			report.Errorf(check, "duplicate %s %q", what, a)
		}
	}
	want := sets.New(expected...)
	got := sets.New(actual...)
	for _, m := range sets.List(want.Difference(got)) {
		report.Errorf(check, "missing %s %q", what, m)
	}
	for _, u := range sets.List(got.Difference(want)) {
		report.Errorf(check, "unexpected %s %q", what, u)
	}
}

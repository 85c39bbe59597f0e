// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"slices"
	"strconv"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/ptr"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/pkgtype"
	"github.com/ironcore-dev/bomcheck/internal/pldm"
)

// verifyPLDMSection requires a PLDM section exactly when a covered adapter
// supports PLDM and reconciles its descriptors and files.
func (v *Verifier) verifyPLDMSection(report *diag.Report, t pkgtype.Type, md *Metadata, res Result) {
	fw, isFirmware := t.(*pkgtype.Firmware)
	adapters := pkgtype.Adapters(v.bom, t)
	capable := isFirmware && slices.ContainsFunc(adapters, func(a v1alpha1.Adapter) bool { return a.SupportsPLDM() })

	switch {
	case md.PLDM == nil && capable:
		report.Errorf(CheckPLDMSection, "PLDM section missing although adapters support PLDM")
		return
	case md.PLDM == nil:
		return
	case !capable:
		report.Errorf(CheckPLDMSection, "unexpected PLDM section, no covered adapter supports PLDM")
		return
	}
	section := md.PLDM

	if _, ok := fw.PLDMFileName.Match(section.FileName); !ok {
		report.Errorf(CheckPLDMSection, "PLDM file name %q does not match %s", section.FileName, fw.PLDMFileName)
	}

	pldm.VerifyDevices(report, CheckPLDMSection, pldm.Expected(adapters), section.DeviceDescriptors)

	if len(section.Files) == 0 {
		report.Errorf(CheckPLDMSection, "PLDM section lists no files")
		return
	}
	classes := sets.New[string]()
	for _, a := range adapters {
		for _, agent := range a.Agents {
			classes.Insert(agent.Type)
		}
	}
	offsets := sets.New[uint64]()
	for _, f := range section.Files {
		offset, err := strconv.ParseUint(f.Offset, 0, 64)
		if err != nil {
			report.Errorf(CheckPLDMSection, "file %q has invalid offset %q", f.Name, f.Offset)
		} else if offsets.Has(offset) {
			report.Errorf(CheckPLDMSection, "file %q reuses offset %d", f.Name, offset)
		} else {
			offsets.Insert(offset)
		}

		if !classes.Has(f.SourceClass) {
			report.Errorf(CheckPLDMSection, "file %q has unknown source class %q", f.Name, f.SourceClass)
			continue
		}
		expected := res.Version
		if fw.Boot != nil && f.SourceClass == fw.Boot.Classification {
			expected = ptr.Deref(res.BootVersion, "")
		}
		if f.Version != expected {
			report.Errorf(CheckPLDMSection, "file %q has version %q, expected %q", f.Name, f.Version, expected)
		}
	}
}

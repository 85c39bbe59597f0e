// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package pldm

import (
	"github.com/dustin/go-humanize"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/diag"
)

// CheckPLDM is the check name of embedded descriptor diagnostics.
const CheckPLDM = "pldm"

// Verify checks the extracted descriptor against the extracted image, the
// resolved package version and the PLDM capable adapters. It returns the parsed
// descriptor, or nil if it could not be parsed.
func Verify(report *diag.Report, ex *Extracted, version string, adapters []v1alpha1.Adapter) *Descriptor {
	l := ex.Layout
	report.Debugf(CheckPLDM, "descriptor at %d (%d bytes, %d blocks), image at %d (%s)",
		l.XMLStart, l.XMLSize, l.XMLBlocks, l.ImageStart, humanize.IBytes(uint64(l.ImageSize)))

	d, err := ParseDescriptor(ex.XML)
	if err != nil {
		report.Errorf(CheckPLDM, "%v", err)
		return nil
	}
	if d.ImageSize != len(ex.Image) {
		report.Errorf(CheckPLDM, "descriptor image size %d does not match extracted image of %d bytes (%s)",
			d.ImageSize, len(ex.Image), humanize.IBytes(uint64(len(ex.Image))))
	}
	if d.FirmwareVersion != version {
		report.Errorf(CheckPLDM, "descriptor firmware version %q does not match package version %q", d.FirmwareVersion, version)
	}
	VerifyDevices(report, CheckPLDM, Expected(adapters), d.Devices)
	return d
}

// VerifyDevices reports every missing and every unexpected device descriptor,
// and every duplicated one.
func VerifyDevices(report *diag.Report, check string, expected, actual []Device) {
	for _, d := range Duplicates(actual) {
		report.Errorf(check, "duplicate device descriptor %s", d)
	}
	missing, unexpected := Reconcile(expected, actual)
	for _, d := range missing {
		report.Errorf(check, "missing device descriptor %s", d)
	}
	for _, d := range unexpected {
		report.Errorf(check, "unexpected device descriptor %s", d)
	}
}

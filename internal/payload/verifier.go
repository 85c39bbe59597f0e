// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package payload verifies the extracted payload tree of a package: the
// presence, naming and non-emptiness of every expected file, while recording
// a checksum ledger.
package payload

import (
	"path"
	"slices"
	"strings"

	"github.com/go-logr/logr"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/metadata"
	"github.com/ironcore-dev/bomcheck/internal/pkgtype"
)

// Check names of payload diagnostics.
const (
	CheckPayload      = "payload"
	CheckFWMatrix     = "fwmatrix"
	CheckUpdateScript = "update-script"
	CheckPayloadXML   = "payload-xml"
)

// Payload extensions accepted per package variant.
var extensions = map[string][]string{
	pkgtype.ClassLinuxDriver:   {".tgz", ".tar.gz"},
	pkgtype.ClassFirmware:      {".bin", ".exe"},
	pkgtype.ClassWindowsDriver: {".exe", ".zip"},
}

// Verifier checks payload trees against a release BOM.
type Verifier struct {
	log    logr.Logger
	bom    *v1alpha1.ReleaseBOM
	digest DigestFunc
}

// NewVerifier returns a payload Verifier.
func NewVerifier(log logr.Logger, bom *v1alpha1.ReleaseBOM, digest DigestFunc) *Verifier {
	return &Verifier{log: log, bom: bom, digest: digest}
}

// Verify walks the payload extracted to root. payloadName is the archive
// member the tree was extracted from and selects the expected shape. It
// returns the checksum ledger.
func (v *Verifier) Verify(report *diag.Report, t pkgtype.Type, payloadName, root string, res metadata.Result) map[string]string {
	ledger := NewLedger(report, root, v.digest)

	lower := strings.ToLower(payloadName)
	if !slices.ContainsFunc(extensions[t.Class()], func(ext string) bool { return strings.HasSuffix(lower, ext) }) {
		report.Errorf(CheckPayload, "payload %s is not a %s archive (%s)", payloadName, t.Class(),
			strings.Join(extensions[t.Class()], ", "))
		return ledger.Checksums()
	}

	switch pt := t.(type) {
	case *pkgtype.LinuxDriver:
		v.verifyLinuxDriver(report, ledger, pt, res)
	case *pkgtype.Firmware:
		v.verifyFirmware(report, ledger, pt, res)
	case *pkgtype.WindowsDriver:
		v.verifyWindowsDriver(report, ledger, pt, res)
	}
	v.log.V(1).Info("Verified payload", "packageType", t.Name(), "files", len(ledger.Checksums()))
	return ledger.Checksums()
}

func render(report *diag.Report, tmpl *pkgtype.Template, values pkgtype.Values) (string, bool) {
	name, err := tmpl.Render(values)
	if err != nil {
		report.Errorf(CheckPayload, "%v", err)
		return "", false
	}
	return name, true
}

func join(elem ...string) string {
	return path.Join(elem...)
}

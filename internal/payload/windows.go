// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package payload

import (
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/metadata"
	"github.com/ironcore-dev/bomcheck/internal/pkgtype"
)

func (v *Verifier) verifyWindowsDriver(report *diag.Report, ledger *Ledger, wd *pkgtype.WindowsDriver, res metadata.Result) {
	seen := map[string]bool{}
	for _, os := range pkgtype.OperatingSystems(v.bom, wd) {
		dir := join(os.DriverDirName, string(os.Arch))
		if seen[dir] {
			continue
		}
		seen[dir] = true
		var names []string
		for _, tmpl := range wd.Files {
			name, ok := render(report, tmpl, pkgtype.Values{
				Version:      res.Version,
				SubVersion:   res.SubVersion,
				OSName:       os.Name,
				OSSubVersion: os.SubVersion,
				Arch:         string(os.Arch),
			})
			if !ok {
				continue
			}
			names = append(names, name)
			ledger.Check(join(dir, name))
		}
		ledger.Exact(dir, names)
	}
	for _, f := range wd.InstallerFiles {
		ledger.Check(f)
	}
}

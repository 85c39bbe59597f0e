// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package payload

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"regexp"
	"slices"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/ptr"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/deviceid"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/metadata"
	"github.com/ironcore-dev/bomcheck/internal/pkgtype"
)

// Well known firmware payload members.
const (
	FWMatrixFile     = "fwmatrix.txt"
	UpdateScriptFile = "update.sh"
	PayloadXMLFile   = "payload.xml"
	FirmwareDir      = "firmware"
	BootDir          = "boot"
	HelperDir        = "bin"

	deviceTableBegin = "# BEGIN DEVICE TABLE"
	deviceTableEnd   = "# END DEVICE TABLE"
)

var subsysID = regexp.MustCompile(`\b[0-9A-Fa-f]{8}\b`)

func (v *Verifier) verifyFirmware(report *diag.Report, ledger *Ledger, fw *pkgtype.Firmware, res metadata.Result) {
	adapters := pkgtype.Adapters(v.bom, fw)

	v.verifyMatrix(report, ledger, fw, adapters, res)

	ledger.Check(fw.FlashScript)
	for _, arch := range fw.Archs {
		for _, helper := range fw.HelperFiles {
			ledger.Check(join(HelperDir, string(arch), helper))
		}
	}

	v.verifyUpdateScript(report, ledger, adapters)
	v.verifyPayloadXML(report, ledger, fw)
	v.verifyImages(report, ledger, fw, adapters, res)
}

// verifyMatrix checks "<model> <version> [<bootVersion>]" lines against the
// adapter models of the BOM.
func (v *Verifier) verifyMatrix(report *diag.Report, ledger *Ledger, fw *pkgtype.Firmware, adapters []v1alpha1.Adapter, res metadata.Result) {
	data, ok := ledger.Read(FWMatrixFile)
	if !ok {
		return
	}
	expected := sets.New[string]()
	for _, a := range adapters {
		expected.Insert(a.Model)
	}
	seen := sets.New[string]()
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			report.Errorf(CheckFWMatrix, "line %d: expected <model> <version>", n)
			continue
		}
		model := fields[0]
		if seen.Has(model) {
			report.Errorf(CheckFWMatrix, "line %d: duplicate model %s", n, model)
			continue
		}
		seen.Insert(model)
		if !expected.Has(model) {
			report.Errorf(CheckFWMatrix, "line %d: unexpected model %s", n, model)
			continue
		}
		if fields[1] != res.Version {
			report.Errorf(CheckFWMatrix, "line %d: %s has version %s, expected %s", n, model, fields[1], res.Version)
		}
		if fw.Boot == nil {
			continue
		}
		switch {
		case len(fields) < 3:
			report.Errorf(CheckFWMatrix, "line %d: %s has no boot version", n, model)
		case fields[2] != ptr.Deref(res.BootVersion, ""):
			report.Errorf(CheckFWMatrix, "line %d: %s has boot version %s, expected %s", n, model, fields[2], ptr.Deref(res.BootVersion, ""))
		}
	}
	for _, m := range sets.List(expected.Difference(seen)) {
		report.Errorf(CheckFWMatrix, "missing model %s", m)
	}
}

// verifyUpdateScript cross-checks the legacy device table embedded in the
// update script with the subsystem ids of the adapters' agents.
func (v *Verifier) verifyUpdateScript(report *diag.Report, ledger *Ledger, adapters []v1alpha1.Adapter) {
	data, ok := ledger.Read(UpdateScriptFile)
	if !ok {
		return
	}
	text := string(data)
	begin := strings.Index(text, deviceTableBegin)
	end := strings.Index(text, deviceTableEnd)
	if begin < 0 || end < begin {
		report.Errorf(CheckUpdateScript, "%s has no device table", UpdateScriptFile)
		return
	}
	table := text[begin+len(deviceTableBegin) : end]
	actual := sets.New[string]()
	for _, id := range subsysID.FindAllString(table, -1) {
		actual.Insert(strings.ToUpper(id))
	}
	expected := sets.New[string]()
	for _, a := range adapters {
		for _, agent := range a.Agents {
			if id, err := deviceid.SubsystemID(agent.ID); err == nil {
				expected.Insert(id)
			}
		}
	}
	for _, id := range sets.List(expected.Difference(actual)) {
		report.Errorf(CheckUpdateScript, "device table lacks %s", id)
	}
	for _, id := range sets.List(actual.Difference(expected)) {
		report.Errorf(CheckUpdateScript, "device table lists unexpected %s", id)
	}
}

type payloadManifest struct {
	XMLName xml.Name        `xml:"payload"`
	Devices []payloadDevice `xml:"device"`
}

type payloadDevice struct {
	Label      string `xml:"label,attr"`
	Applicable string `xml:"applicable,attr"`
}

// verifyPayloadXML requires the labels marked applicable to be exactly the
// firmware bucket of the package.
func (v *Verifier) verifyPayloadXML(report *diag.Report, ledger *Ledger, fw *pkgtype.Firmware) {
	data, ok := ledger.Read(PayloadXMLFile)
	if !ok {
		return
	}
	var m payloadManifest
	if err := xml.Unmarshal(data, &m); err != nil {
		report.Errorf(CheckPayloadXML, "failed to parse %s: %v", PayloadXMLFile, err)
		return
	}
	expected := sets.New(v.bom.AppDIDList.FirmwareLabels(fw.OSType, fw.ASIC)...)
	applicable := sets.New[string]()
	for _, d := range m.Devices {
		if strings.EqualFold(d.Applicable, "yes") || strings.EqualFold(d.Applicable, "true") {
			applicable.Insert(d.Label)
		}
	}
	for _, l := range sets.List(expected.Difference(applicable)) {
		report.Errorf(CheckPayloadXML, "device %s is not marked applicable", l)
	}
	for _, l := range sets.List(applicable.Difference(expected)) {
		report.Errorf(CheckPayloadXML, "device %s is marked applicable but not in the BOM", l)
	}
}

// verifyImages requires one firmware image per adapter token and, with boot
// code, one boot image per token of adapters exposing the boot classification.
func (v *Verifier) verifyImages(report *diag.Report, ledger *Ledger, fw *pkgtype.Firmware, adapters []v1alpha1.Adapter, res metadata.Result) {
	var images, boots []string
	for _, a := range adapters {
		hasBoot := fw.Boot != nil && slices.ContainsFunc(a.Agents, func(ag v1alpha1.Agent) bool {
			return ag.Type == fw.Boot.Classification
		})
		for _, token := range a.DriverFileTokens {
			values := pkgtype.Values{
				Version:     res.Version,
				SubVersion:  res.SubVersion,
				BootVersion: ptr.Deref(res.BootVersion, ""),
				ASIC:        a.ASIC,
				Model:       a.Model,
				Token:       token,
			}
			if name, ok := render(report, fw.ImageName, values); ok && !slices.Contains(images, name) {
				images = append(images, name)
			}
			if !hasBoot {
				continue
			}
			if res.BootVersion == nil {
				report.Errorf(CheckPayload, "boot image for %s needs a boot version", token)
				continue
			}
			if name, ok := render(report, fw.Boot.ImageName, values); ok && !slices.Contains(boots, name) {
				boots = append(boots, name)
			}
		}
	}
	for _, name := range images {
		ledger.Check(join(FirmwareDir, name))
	}
	ledger.Exact(FirmwareDir, images)
	if fw.Boot == nil {
		return
	}
	for _, name := range boots {
		ledger.Check(join(BootDir, name))
	}
	ledger.Exact(BootDir, boots)
}

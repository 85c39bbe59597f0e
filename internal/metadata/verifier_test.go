// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/utils/ptr"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/config"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/pkgtype"
)

var _ = Describe("Verifier", func() {
	var (
		cfg      *config.Config
		bom      *v1alpha1.ReleaseBOM
		verifier *Verifier
		report   *diag.Report
	)

	BeforeEach(func() {
		var err error
		cfg, err = config.Default()
		Expect(err).NotTo(HaveOccurred())
		bom = testBOM(cfg)
		verifier = NewVerifier(GinkgoLogr, cfg, bom)
	})

	packageType := func(name string) pkgtype.Type {
		t, ok := cfg.PackageType(name)
		Expect(ok).To(BeTrue())
		return t
	}

	verify := func(name, doc string, replacements ...string) Result {
		report = diag.NewReport(GinkgoLogr, name)
		md, err := Parse([]byte(strings.NewReplacer(replacements...).Replace(doc)))
		Expect(err).NotTo(HaveOccurred())
		caps := pkgtype.Captures{"version": "12.0.193.14", "subversion": "1"}
		if name == "dd-be2net-windows" {
			caps["subversion"] = "2"
		}
		return verifier.Verify(report, packageType(name), md, caps)
	}

	Context("firmware", func() {
		It("should accept consistent metadata", func() {
			res := verify("fw-skyhawk-linux", firmwareMetadata)
			Expect(report.Errors()).To(BeZero(), "%v", report.Diagnostics())
			Expect(res).To(Equal(Result{Version: "12.0.193.14", SubVersion: "1", BootVersion: ptr.To("11.2.1.0")}))
		})

		It("should report a missing and an unexpected device ID label separately", func() {
			verify("fw-skyhawk-linux", firmwareMetadata, "elx_Skybird_I", "elx_Bogus")
			errs := report.Filter(diag.SeverityError, CheckDeviceIDs)
			Expect(errs).To(HaveLen(2))
			Expect(errs[0].Message).To(Equal(`missing device ID label "elx_Skybird_I"`))
			Expect(errs[1].Message).To(Equal(`unexpected device ID label "elx_Bogus"`))
			Expect(report.Errors()).To(Equal(2))
		})

		It("should strip the pre-version and compare with the file name", func() {
			verify("fw-skyhawk-linux", firmwareMetadata, "elx-12.0.193.14-1", "12.0.193.14-1")
			Expect(report.Filter(diag.SeverityError, CheckVersion)).To(HaveLen(1))

			verify("fw-skyhawk-linux", firmwareMetadata, "elx-12.0.193.14-1", "elx-12.0.193.14-3")
			Expect(report.Filter(diag.SeverityError, CheckVersion)[0].Message).To(ContainSubstring("sub-version 3"))
		})

		It("should report each mismatching fixed field", func() {
			verify("fw-skyhawk-linux", firmwareMetadata, "<vendor>Emulex</vendor>", "<vendor>Acme</vendor>",
				"<updateSelection>auto", "<updateSelection>manual")
			Expect(report.Filter(diag.SeverityError, CheckFields)).To(HaveLen(2))
		})

		It("should validate the boot code version", func() {
			verify("fw-skyhawk-linux", firmwareMetadata, "<version>11.2.1.0</version></driverFile>", "<version>11.2</version></driverFile>")
			Expect(report.Filter(diag.SeverityError, CheckDriverFiles)).To(ContainElement(
				HaveField("Message", ContainSubstring(`boot code version "11.2"`))))
			Expect(report.Filter(diag.SeverityError, CheckDriverFiles)).To(ContainElement(
				HaveField("Message", Equal("no valid boot code version declared"))))
		})

		It("should compare firmware files per classification", func() {
			verify("fw-skyhawk-linux", firmwareMetadata, "oce14104-12.0.193.14.ufi", "oce14109-12.0.193.14.ufi")
			errs := report.Filter(diag.SeverityError, CheckDriverFiles)
			Expect(errs).To(HaveLen(2))
			Expect(errs[0].Message).To(ContainSubstring(`missing classification 13 file "oce14104-12.0.193.14.ufi"`))
			Expect(errs[1].Message).To(ContainSubstring(`unexpected classification 13 file "oce14109-12.0.193.14.ufi"`))
		})

		It("should require the PLDM section when adapters support PLDM", func() {
			start := strings.Index(firmwareMetadata, "<pldmFirmware>")
			end := strings.Index(firmwareMetadata, "</pldmFirmware>") + len("</pldmFirmware>")
			verify("fw-skyhawk-linux", firmwareMetadata, firmwareMetadata[start:end], "")
			Expect(report.Filter(diag.SeverityError, CheckPLDMSection)).To(HaveLen(1))
		})

		It("should reject a PLDM section when no adapter supports PLDM", func() {
			bom.AdapterList[0].PLDM = nil
			verify("fw-skyhawk-linux", firmwareMetadata)
			errs := report.Filter(diag.SeverityError, CheckPLDMSection)
			Expect(errs).To(HaveLen(1))
			Expect(errs[0].Message).To(HavePrefix("unexpected PLDM section"))
		})

		It("should validate PLDM files", func() {
			verify("fw-skyhawk-linux", firmwareMetadata, "<offset>0x1000</offset>", "<offset>0</offset>",
				"<sourceClass>14</sourceClass>", "<sourceClass>15</sourceClass>")
			errs := report.Filter(diag.SeverityError, CheckPLDMSection)
			Expect(errs).To(HaveLen(2))
			Expect(errs[0].Message).To(ContainSubstring("reuses offset 0"))
			Expect(errs[1].Message).To(ContainSubstring(`unknown source class "15"`))
		})

		It("should check the description last with resolved values", func() {
			verify("fw-skyhawk-linux", firmwareMetadata, "(boot 11.2.1.0)", "(boot 11.2.1.1)")
			errs := report.Filter(diag.SeverityError, CheckDescription)
			Expect(errs).To(HaveLen(1))
			diags := report.Diagnostics()
			Expect(diags[len(diags)-1].Check).To(Equal(CheckDescription))
		})
	})

	Context("windows driver", func() {
		It("should accept consistent metadata and tolerate the duplicate OS label", func() {
			res := verify("dd-be2net-windows", windowsDriverMetadata)
			Expect(report.Errors()).To(BeZero(), "%v", report.Diagnostics())
			Expect(res.BootVersion).To(BeNil())
			Expect(report.Filter(diag.SeverityDebug, CheckException)).To(HaveLen(1))
		})

		It("should report duplicate OS labels without an exception", func() {
			verify("dd-be2net-windows", windowsDriverMetadata, "<os>Windows 2016</os>", "<os>Windows 2016</os><os>Windows 2016</os>")
			Expect(report.Filter(diag.SeverityError, CheckOS)).To(HaveLen(1))
		})

		It("should require every OS/architecture pair exactly once", func() {
			verify("dd-be2net-windows", windowsDriverMetadata, "<os>win2008r2</os>", "<os>win2008</os>")
			errs := report.Filter(diag.SeverityError, CheckDriverFiles)
			Expect(errs).To(HaveLen(2))
			Expect(errs[0].Message).To(Equal("duplicate driver file entry for win2008/x64"))
			Expect(errs[1].Message).To(Equal("missing driver file entry for win2008r2/x64"))
		})

		It("should reject an implicit entry when several pairs are expected", func() {
			start := strings.Index(windowsDriverMetadata, "<driverFiles>")
			end := strings.Index(windowsDriverMetadata, "</driverFiles>")
			verify("dd-be2net-windows", windowsDriverMetadata, windowsDriverMetadata[start:end],
				"<driverFiles><driverFile><name>be2net-12.0.193.14</name></driverFile>")
			errs := report.Filter(diag.SeverityError, CheckDriverFiles)
			Expect(errs).To(HaveLen(1))
			Expect(errs[0].Message).To(ContainSubstring("3 OS/architecture pairs"))
		})

		It("should accept an implicit entry for a single pair", func() {
			bom.OSList = bom.OSList[:3]
			start := strings.Index(windowsDriverMetadata, "<driverFiles>")
			end := strings.Index(windowsDriverMetadata, "</driverFiles>")
			verify("dd-be2net-windows", windowsDriverMetadata, windowsDriverMetadata[start:end],
				"<driverFiles><driverFile><name>be2net-12.0.193.14</name></driverFile>",
				"<os>Windows 2008</os>", "")
			Expect(report.Errors()).To(BeZero(), "%v", report.Diagnostics())
		})

		It("should reject a PLDM section in a driver package", func() {
			verify("dd-be2net-windows", windowsDriverMetadata, "<description>",
				"<pldmFirmware><pldmFileName>x.pldm</pldmFileName></pldmFirmware><description>")
			Expect(report.Filter(diag.SeverityError, CheckPLDMSection)).To(HaveLen(1))
		})
	})

	It("should parse versions", func() {
		v, s, err := ParseVersion("elx-12.0.193.14-1", "elx-")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("12.0.193.14"))
		Expect(s).To(Equal("1"))

		_, _, err = ParseVersion("12.0.193.14", "")
		Expect(err).To(HaveOccurred())
		_, _, err = ParseVersion("12.0.193.14-1", "elx-")
		Expect(err).To(HaveOccurred())
	})
})

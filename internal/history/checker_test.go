// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/utils/ptr"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/config"
	"github.com/ironcore-dev/bomcheck/internal/diag"
)

var _ = Describe("Checker", func() {
	var (
		checker *Checker
		report  *diag.Report
		prev    v1alpha1.VerificationContext
	)

	BeforeEach(func() {
		cfg, err := config.Default()
		Expect(err).NotTo(HaveOccurred())
		checker = NewChecker(GinkgoLogr, cfg)
		report = diag.NewReport(GinkgoLogr, "fw-skyhawk-linux")
		prev = v1alpha1.VerificationContext{
			Class:       "firmware",
			Version:     "12.0.193.14",
			SubVersion:  "2",
			BootVersion: ptr.To("11.2.1.0"),
			Checksums:   map[string]string{"fwmatrix.txt": "a", "flash.sh": "b", "firmware/oce14102-12.0.193.14.ufi": "c"},
		}
	})

	current := func(mutate func(*v1alpha1.VerificationContext)) v1alpha1.VerificationContext {
		cur := prev
		if prev.BootVersion != nil {
			cur.BootVersion = ptr.To(*prev.BootVersion)
		}
		cur.Checksums = map[string]string{}
		for k, v := range prev.Checksums {
			cur.Checksums[k] = v
		}
		if mutate != nil {
			mutate(&cur)
		}
		return cur
	}

	It("should reject an older version", func() {
		checker.Check(report, current(func(c *v1alpha1.VerificationContext) { c.Version = "12.0.193.9" }), prev, "101")
		Expect(report.Filter(diag.SeverityError, CheckHistory)).To(ConsistOf(
			HaveField("Message", "version 12.0.193.9 is older than 12.0.193.14 of build 101")))
	})

	It("should accept a newer version with changed files", func() {
		checker.Check(report, current(func(c *v1alpha1.VerificationContext) {
			c.Version = "12.2.0.1"
			c.SubVersion = "1"
			c.Checksums["flash.sh"] = "z"
		}), prev, "101")
		Expect(report.Errors()).To(BeZero())
		Expect(report.Warnings()).To(BeZero())
	})

	It("should reject a lower sub-version", func() {
		checker.Check(report, current(func(c *v1alpha1.VerificationContext) { c.SubVersion = "1" }), prev, "101")
		Expect(report.Errors()).To(Equal(1))
	})

	It("should report exactly one stale subversion error per differing file", func() {
		checker.Check(report, current(func(c *v1alpha1.VerificationContext) { c.Checksums["flash.sh"] = "z" }), prev, "101")
		errs := report.Filter(diag.SeverityError, CheckHistory)
		Expect(errs).To(HaveLen(1))
		Expect(errs[0].Message).To(Equal("stale subversion 12.0.193.14-2: flash.sh differs from build 101"))
		Expect(report.Warnings()).To(BeZero())
	})

	It("should count added and removed files as stale", func() {
		checker.Check(report, current(func(c *v1alpha1.VerificationContext) {
			delete(c.Checksums, "flash.sh")
			c.Checksums["flash.bat"] = "b"
		}), prev, "101")
		Expect(report.Errors()).To(Equal(2))
	})

	It("should warn about an identical package", func() {
		checker.Check(report, current(nil), prev, "101")
		Expect(report.Errors()).To(BeZero())
		Expect(report.Filter(diag.SeverityWarn, CheckHistory)).To(ConsistOf(
			HaveField("Message", "package is identical to build 101")))
	})

	It("should exempt linux driver checksums", func() {
		prev.Class = "linux-driver"
		prev.BootVersion = nil
		cur := current(func(c *v1alpha1.VerificationContext) {
			c.BootVersion = nil
			c.Checksums["flash.sh"] = "z"
		})
		checker.Check(report, cur, prev, "101")
		Expect(report.Errors()).To(BeZero())
		Expect(report.Warnings()).To(BeZero())
		Expect(report.Filter(diag.SeverityDebug, CheckException)).To(HaveLen(1))
	})

	It("should check boot versions", func() {
		checker.Check(report, current(func(c *v1alpha1.VerificationContext) {
			c.SubVersion = "3"
			c.BootVersion = ptr.To("11.1.0.0")
		}), prev, "101")
		Expect(report.Filter(diag.SeverityError, CheckHistory)).To(ConsistOf(
			HaveField("Message", "boot version 11.1.0.0 is older than 11.2.1.0 of build 101")))
	})

	It("should reject a dropped boot version", func() {
		checker.Check(report, current(func(c *v1alpha1.VerificationContext) {
			c.SubVersion = "3"
			c.BootVersion = nil
		}), prev, "101")
		Expect(report.Errors()).To(Equal(1))
	})
})

var _ = Describe("StaleFiles", func() {
	It("should list differing files in name order", func() {
		Expect(StaleFiles(
			map[string]string{"b": "1", "a": "2", "c": "3"},
			map[string]string{"b": "1", "a": "9", "d": "4"},
		)).To(Equal([]string{"a", "c", "d"}))
	})
})

// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package diag_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/ironcore-dev/bomcheck/internal/diag"
)

var _ = Describe("Report", func() {
	It("should count diagnostics by severity", func() {
		r := diag.NewReport(GinkgoLogr, "fw-skyhawk-linux")
		r.Debugf("exception", "checksum exempt")
		r.Warnf("readme", "version missing")
		r.Errorf("metadata", "vendor mismatch: %q", "Acme")
		r.Errorf("metadata", "category mismatch")

		Expect(r.Errors()).To(Equal(2))
		Expect(r.Warnings()).To(Equal(1))
		Expect(r.Count(diag.SeverityDebug)).To(Equal(1))
		Expect(r.Filter(diag.SeverityError, "metadata")).To(HaveLen(2))
		Expect(r.Diagnostics()[2].Message).To(Equal(`vendor mismatch: "Acme"`))
		Expect(r.Diagnostics()[2].String()).To(HavePrefix("ERROR [fw-skyhawk-linux] metadata"))
	})

	It("should not count warnings as errors", func() {
		r := diag.NewReport(GinkgoLogr, "dd-be2net-linux")
		r.Warnf("history", "identical package")
		Expect(r.Errors()).To(BeZero())
	})
})

var _ = Describe("Collector", func() {
	It("should tally reports and expose them as metrics", func() {
		c := diag.NewCollector()
		a := diag.NewReport(GinkgoLogr, "a")
		a.Errorf("x", "one")
		a.Warnf("x", "two")
		b := diag.NewReport(GinkgoLogr, "b")
		b.Errorf("y", "three")
		c.Observe(a, false)
		c.Observe(b, true)
		c.AddErrors("history", 2)

		Expect(c.ErrorCount()).To(Equal(4))
		Expect(c.WarningCount()).To(Equal(1))

		expected := `
# HELP bomcheck_pipeline_aborted Whether the pipeline of a package type ended before content verification
# TYPE bomcheck_pipeline_aborted gauge
bomcheck_pipeline_aborted{package_type="a"} 0
bomcheck_pipeline_aborted{package_type="b"} 1
`
		Expect(testutil.CollectAndCompare(c, strings.NewReader(expected), "bomcheck_pipeline_aborted")).To(Succeed())
		Expect(testutil.CollectAndCount(c, "bomcheck_diagnostics_total")).To(Equal(4))
	})

	It("should write a textfile", func() {
		c := diag.NewCollector()
		r := diag.NewReport(GinkgoLogr, "a")
		r.Errorf("x", "boom")
		c.Observe(r, false)

		path := filepath.Join(GinkgoT().TempDir(), "bomcheck.prom")
		Expect(c.WriteTextfile(path)).To(Succeed())
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`bomcheck_diagnostics_total{package_type="a",severity="ERROR"} 1`))
	})

	It("should label diagnostics by package type and severity", func() {
		c := diag.NewCollector()
		r := diag.NewReport(GinkgoLogr, "rhel7")
		r.Warnf("x", "one")
		r.Warnf("x", "two")
		r.Debugf("x", "three")
		c.Observe(r, false)

		reg := prometheus.NewRegistry()
		Expect(reg.Register(c)).To(Succeed())
		families, err := reg.Gather()
		Expect(err).NotTo(HaveOccurred())

		var diagnostics *dto.MetricFamily
		for _, f := range families {
			if f.GetName() == "bomcheck_diagnostics_total" {
				diagnostics = f
			}
		}
		Expect(diagnostics).NotTo(BeNil())
		Expect(diagnostics.GetType()).To(Equal(dto.MetricType_COUNTER))

		values := map[string]float64{}
		for _, m := range diagnostics.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			Expect(labels).To(HaveKeyWithValue("package_type", "rhel7"))
			values[labels["severity"]] = m.GetCounter().GetValue()
		}
		Expect(values).To(Equal(map[string]float64{"WARN": 2, "DEBUG": 1}))
	})
})

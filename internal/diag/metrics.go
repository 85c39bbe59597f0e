// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type countKey struct {
	PackageType string
	Severity    Severity
}

// Collector tallies settled reports across all pipelines and exposes the
// counts as Prometheus metrics.
type Collector struct {
	mux        sync.RWMutex
	counts     map[countKey]uint64
	aborted    map[string]bool
	errors     int
	warnings   int
	diagDesc   *prometheus.Desc
	statusDesc *prometheus.Desc
}

// NewCollector initializes an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		counts:  make(map[countKey]uint64),
		aborted: make(map[string]bool),
		diagDesc: prometheus.NewDesc(
			"bomcheck_diagnostics_total",
			"Number of diagnostics recorded during verification",
			[]string{"package_type", "severity"},
			nil,
		),
		statusDesc: prometheus.NewDesc(
			"bomcheck_pipeline_aborted",
			"Whether the pipeline of a package type ended before content verification",
			[]string{"package_type"},
			nil,
		),
	}
}

// Observe adds a settled report to the tally. aborted marks a pipeline that
// stopped on a structural error.
func (c *Collector) Observe(r *Report, aborted bool) {
	c.mux.Lock()
	defer c.mux.Unlock()

	for _, d := range r.Diagnostics() {
		c.counts[countKey{PackageType: r.PackageType(), Severity: d.Severity}]++
	}
	c.errors += r.Errors()
	c.warnings += r.Warnings()
	c.aborted[r.PackageType()] = aborted
}

// AddErrors counts errors recorded outside a package type report.
func (c *Collector) AddErrors(packageType string, n int) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.counts[countKey{PackageType: packageType, Severity: SeverityError}] += uint64(n)
	c.errors += n
}

// ErrorCount returns the cumulative error count.
func (c *Collector) ErrorCount() int {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.errors
}

// WarningCount returns the cumulative warning count.
func (c *Collector) WarningCount() int {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.warnings
}

// Describe and Collect implement the prometheus.Collector interface to expose metrics.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.diagDesc
	ch <- c.statusDesc
}

// Collect sends the current tallies to Prometheus.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mux.RLock()
	defer c.mux.RUnlock()

	for key, count := range c.counts {
		ch <- prometheus.MustNewConstMetric(
			c.diagDesc,
			prometheus.CounterValue,
			float64(count),
			key.PackageType,
			key.Severity.String(),
		)
	}
	for name, aborted := range c.aborted {
		v := 0.0
		if aborted {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.statusDesc, prometheus.GaugeValue, v, name)
	}
}

// WriteTextfile registers c with a fresh registry and writes all metrics to path
// in the Prometheus text format.
func (c *Collector) WriteTextfile(path string) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}

// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package diag collects the severity tagged diagnostics produced by the
// verifiers. Diagnostics never abort verification; they are logged as they are
// recorded and tallied once a package type pipeline settles.
package diag

import (
	"fmt"

	"github.com/go-logr/logr"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Diagnostic is one finding of a check.
type Diagnostic struct {
	Severity    Severity
	PackageType string
	Check       string
	Message     string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.PackageType, d.Check, d.Message)
}

// Report accumulates the diagnostics of a single package type. It is owned by
// one pipeline and is not safe for concurrent use.
type Report struct {
	packageType string
	log         logr.Logger
	diags       []Diagnostic
}

// NewReport returns a report for packageType that logs every diagnostic to log.
func NewReport(log logr.Logger, packageType string) *Report {
	return &Report{
		packageType: packageType,
		log:         log.WithValues("packageType", packageType),
	}
}

// PackageType returns the package type the report belongs to.
func (r *Report) PackageType() string {
	return r.packageType
}

func (r *Report) record(sev Severity, check, format string, args ...any) {
	d := Diagnostic{
		Severity:    sev,
		PackageType: r.packageType,
		Check:       check,
		Message:     fmt.Sprintf(format, args...),
	}
	r.diags = append(r.diags, d)
	switch sev {
	case SeverityDebug:
		r.log.V(1).Info(d.Message, "check", check)
	case SeverityInfo:
		r.log.Info(d.Message, "check", check)
	case SeverityWarn:
		r.log.Info(d.Message, "check", check, "severity", sev.String())
	case SeverityError:
		r.log.Error(nil, d.Message, "check", check)
	}
}

func (r *Report) Debugf(check, format string, args ...any) {
	r.record(SeverityDebug, check, format, args...)
}

func (r *Report) Infof(check, format string, args ...any) {
	r.record(SeverityInfo, check, format, args...)
}

// Warnf records an advisory finding. Warnings never count as errors.
func (r *Report) Warnf(check, format string, args ...any) {
	r.record(SeverityWarn, check, format, args...)
}

func (r *Report) Errorf(check, format string, args ...any) {
	r.record(SeverityError, check, format, args...)
}

// Diagnostics returns all recorded diagnostics in order.
func (r *Report) Diagnostics() []Diagnostic {
	return r.diags
}

// Filter returns the diagnostics of the given severity, optionally restricted to check.
func (r *Report) Filter(sev Severity, check string) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.diags {
		if d.Severity == sev && (check == "" || d.Check == check) {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of diagnostics with severity sev.
func (r *Report) Count(sev Severity) int {
	n := 0
	for _, d := range r.diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// Errors returns the number of error diagnostics.
func (r *Report) Errors() int {
	return r.Count(SeverityError)
}

// Warnings returns the number of warning diagnostics.
func (r *Report) Warnings() int {
	return r.Count(SeverityWarn)
}

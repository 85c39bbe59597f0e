// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"bufio"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/ironcore-dev/bomcheck/internal/diag"
)

// PackageXML is the package descriptor shipped next to the metadata.
type PackageXML struct {
	XMLName xml.Name       `xml:"package"`
	Name    string         `xml:"name"`
	Version string         `xml:"version"`
	Payload PackagePayload `xml:"payload"`
}

// PackagePayload names the payload member and its size.
type PackagePayload struct {
	Name string `xml:"name,attr"`
	Size string `xml:"size,attr"`
}

// VerifyPackageXML checks the package descriptor against the archive base
// name, the resolved version and the payload member.
func VerifyPackageXML(report *diag.Report, data []byte, base string, res Result, payloadName string, payloadSize int64) {
	var p PackageXML
	if err := xml.Unmarshal(data, &p); err != nil {
		report.Errorf(CheckPackageXML, "failed to parse package XML: %v", err)
		return
	}
	if p.Name != base {
		report.Errorf(CheckPackageXML, "name is %q, expected %q", p.Name, base)
	}
	if p.Version != res.FullVersion() {
		report.Errorf(CheckPackageXML, "version is %q, expected %q", p.Version, res.FullVersion())
	}
	if p.Payload.Name != payloadName {
		report.Errorf(CheckPackageXML, "payload is %q, expected %q", p.Payload.Name, payloadName)
	}
	if size, err := strconv.ParseInt(p.Payload.Size, 10, 64); err != nil || size != payloadSize {
		report.Errorf(CheckPackageXML, "payload size is %q, expected %d", p.Payload.Size, payloadSize)
	}
}

// VerifyReadme requires the readme to name the release and, advisory only,
// the version.
func VerifyReadme(report *diag.Report, text string, res Result, release string) {
	normalized := strings.ToUpper(text)
	if !strings.Contains(normalized, strings.ToUpper(release)) {
		report.Errorf(CheckReadme, "readme does not mention release %s", release)
	}
	if !strings.Contains(text, res.Version) {
		report.Warnf(CheckReadme, "readme does not mention version %s", res.Version)
	}
}

// VerifyChangelog requires the first version line of the changelog to name
// the resolved version, with or without its sub-version.
func VerifyChangelog(report *diag.Report, text string, res Result) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < len("version") || !strings.EqualFold(line[:len("version")], "version") {
			continue
		}
		fields := strings.Fields(strings.TrimLeft(line[len("version"):], " \t:"))
		if len(fields) == 0 {
			break
		}
		if fields[0] != res.Version && fields[0] != res.FullVersion() {
			report.Errorf(CheckChangelog, "latest changelog version is %s, expected %s", fields[0], res.Version)
		}
		return
	}
	report.Errorf(CheckChangelog, "changelog has no version line")
}

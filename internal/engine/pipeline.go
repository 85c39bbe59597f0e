// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/archive"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/metadata"
	"github.com/ironcore-dev/bomcheck/internal/pkgtype"
	"github.com/ironcore-dev/bomcheck/internal/pldm"
)

// Member name suffixes appended to the archive base name.
const (
	MetadataSuffix   = "_input.xml"
	PackageXMLSuffix = ".xml"
	ReadmeSuffix     = ".txt"
	ChangelogSuffix  = ".chg"
)

var payloadSuffixes = []string{".tgz", ".tar.gz", ".bin", ".exe", ".zip"}

const payloadDir = "payload"

// members are the required archive members read before verification starts.
type members struct {
	metadata  []byte
	readme    []byte
	changelog []byte
}

// pipeline verifies one archive against package type t. A returned error is
// structural and ends the pipeline; content findings go to report.
func (e *Engine) pipeline(ctx context.Context, report *diag.Report, t pkgtype.Type, path, dir string) (v1alpha1.VerificationContext, error) {
	jar, err := archive.OpenJar(path)
	if err != nil {
		return v1alpha1.VerificationContext{}, err
	}
	defer jar.Close()
	base := jar.Base()
	caps, _ := t.MatchFile(filepath.Base(path))
	e.log.V(1).Info("Verifying archive", "packageType", t.Name(), "archive", filepath.Base(path))

	m, err := readMembers(ctx, jar, base)
	if err != nil {
		return v1alpha1.VerificationContext{}, err
	}
	payloadName, ok := findPayload(jar, base)
	if !ok {
		return v1alpha1.VerificationContext{}, fmt.Errorf("%w: payload of %s", archive.ErrMemberNotFound, base)
	}

	md, err := metadata.Parse(m.metadata)
	if err != nil {
		return v1alpha1.VerificationContext{}, err
	}
	res := e.metadata.Verify(report, t, md, caps)

	payloadSize, err := jar.Size(payloadName)
	if err != nil {
		return v1alpha1.VerificationContext{}, err
	}
	if data, err := jar.Read(base + PackageXMLSuffix); err == nil {
		metadata.VerifyPackageXML(report, data, base, res, payloadName, int64(payloadSize))
	} else {
		report.Warnf(metadata.CheckPackageXML, "no package XML: %v", err)
	}
	metadata.VerifyReadme(report, string(m.readme), res, e.bom.Release)
	metadata.VerifyChangelog(report, string(m.changelog), res)

	payloadPath, err := jar.Extract(payloadName, dir)
	if err != nil {
		return v1alpha1.VerificationContext{}, err
	}
	if fw, ok := t.(*pkgtype.Firmware); ok {
		if err := e.verifyEmbedded(report, fw, payloadPath, res); err != nil {
			return v1alpha1.VerificationContext{}, err
		}
	}
	tree := filepath.Join(dir, payloadDir)
	if err := e.extractPayload(ctx, payloadPath, tree); err != nil {
		return v1alpha1.VerificationContext{}, err
	}
	checksums := e.payload.Verify(report, t, payloadName, tree, res)

	return v1alpha1.VerificationContext{
		Class:       t.Class(),
		Version:     res.Version,
		SubVersion:  res.SubVersion,
		BootVersion: res.BootVersion,
		Checksums:   checksums,
	}, nil
}

// readMembers reads the metadata, readme and changelog members concurrently.
func readMembers(ctx context.Context, jar *archive.Jar, base string) (members, error) {
	var m members
	g, _ := errgroup.WithContext(ctx)
	for suffix, dst := range map[string]*[]byte{
		MetadataSuffix:  &m.metadata,
		ReadmeSuffix:    &m.readme,
		ChangelogSuffix: &m.changelog,
	} {
		g.Go(func() error {
			data, err := jar.Read(base + suffix)
			if err != nil {
				return err
			}
			*dst = data
			return nil
		})
	}
	return m, g.Wait()
}

func findPayload(jar *archive.Jar, base string) (string, bool) {
	names := jar.Names()
	i := slices.IndexFunc(names, func(name string) bool {
		if !strings.HasPrefix(name, base) {
			return false
		}
		lower := strings.ToLower(name)
		return slices.ContainsFunc(payloadSuffixes, func(s string) bool { return strings.HasSuffix(lower, s) })
	})
	if i < 0 {
		return "", false
	}
	return names[i], true
}

// extractPayload unpacks the payload member at path into dir according to its
// format.
func (e *Engine) extractPayload(ctx context.Context, path, dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tgz"), strings.HasSuffix(lower, ".tar.gz"):
		return archive.ExtractTarGzFile(path, dir)
	case strings.HasSuffix(lower, ".zip"):
		return archive.ExtractZip(path, dir)
	default:
		return e.unzip.Extract(ctx, path, dir)
	}
}

// verifyEmbedded checks the PLDM region of a firmware payload when the
// package type has PLDM capable adapters.
func (e *Engine) verifyEmbedded(report *diag.Report, fw *pkgtype.Firmware, path string, res metadata.Result) error {
	adapters := slices.DeleteFunc(pkgtype.Adapters(e.bom, fw), func(a v1alpha1.Adapter) bool { return !a.SupportsPLDM() })
	if len(adapters) == 0 {
		return nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ex, err := pldm.Extract(buf)
	if errors.Is(err, pldm.ErrMarkerNotFound) {
		report.Errorf(pldm.CheckPLDM, "payload carries no PLDM descriptor")
		return nil
	}
	if err != nil {
		report.Errorf(pldm.CheckPLDM, "failed to extract PLDM region: %v", err)
		return nil
	}
	pldm.Verify(report, ex, res.Version, adapters)
	return nil
}

// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package bom builds the canonical release BOM from a cell grid and persists
// it as a JSON snapshot.
package bom

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-logr/logr"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/config"
	"github.com/ironcore-dev/bomcheck/internal/deviceid"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/grid"
)

// ErrMissingSection is returned when a required grid section or column is absent.
var ErrMissingSection = errors.New("missing BOM section")

// Check names used for row level diagnostics.
const (
	CheckOperatingSystems = "os-section"
	CheckMachineTypes     = "machine-type-section"
	CheckAdapters         = "adapter-section"
	CheckDeviceIDs        = "device-ids"
)

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]`)

// Builder converts a cell grid into a ReleaseBOM.
type Builder struct {
	log logr.Logger
	cfg *config.Config
}

// NewBuilder returns a Builder using the labels and catalogs of cfg.
func NewBuilder(log logr.Logger, cfg *config.Config) *Builder {
	return &Builder{log: log, cfg: cfg}
}

// Build reads every section of g. Missing sections and an invalid release
// header are fatal; malformed rows are recorded in report and skipped.
// Merged ranges of g are expanded in place.
func (b *Builder) Build(g *grid.Grid, report *diag.Report) (*v1alpha1.ReleaseBOM, error) {
	g.ExpandMerges()

	release, err := b.releaseName(g)
	if err != nil {
		return nil, err
	}
	releaseType, err := b.releaseType(g)
	if err != nil {
		return nil, err
	}
	osList, err := b.operatingSystems(g, report)
	if err != nil {
		return nil, err
	}
	systems, err := b.machineTypes(g, report)
	if err != nil {
		return nil, err
	}
	adapters, err := b.adapters(g, systems, report)
	if err != nil {
		return nil, err
	}

	bom := &v1alpha1.ReleaseBOM{
		Release:     release,
		Type:        releaseType,
		OSList:      osList,
		SystemList:  systems,
		AdapterList: adapters,
		AppDIDList:  deviceid.Derive(adapters, b.cfg.DeviceCatalog, osList),
	}

	for _, t := range b.cfg.PackageTypeList() {
		if _, err := deviceid.ExpectedLabels(bom, t); err != nil {
			report.Errorf(CheckDeviceIDs, "BOM is invalid for package type %s: %v", t.Name(), err)
		}
	}
	b.log.Info("Built release BOM", "release", bom.Release, "type", bom.Type,
		"operatingSystems", len(osList), "systems", len(systems), "adapters", len(adapters))
	return bom, nil
}

func (b *Builder) section(g *grid.Grid, label string) (grid.Address, error) {
	addr, ok := g.Find(label)
	if !ok {
		return grid.Address{}, fmt.Errorf("%w: %q", ErrMissingSection, label)
	}
	return addr, nil
}

func (b *Builder) releaseName(g *grid.Grid) (string, error) {
	addr, err := b.section(g, b.cfg.Sections.ReleaseName)
	if err != nil {
		return "", err
	}
	name := CanonicalRelease(g.Value(addr.Right(1)))
	if name == "" {
		return "", fmt.Errorf("release name at %s is empty", addr.Right(1))
	}
	return name, nil
}

// CanonicalRelease reduces a release name to its uppercase alphanumeric token.
func CanonicalRelease(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToUpper(s), "")
}

func (b *Builder) releaseType(g *grid.Grid) (v1alpha1.ReleaseType, error) {
	addr, err := b.section(g, b.cfg.Sections.ReleaseType)
	if err != nil {
		return "", err
	}
	value := g.Value(addr.Right(1))
	for _, t := range b.cfg.ReleaseTypes {
		if strings.EqualFold(string(t), value) {
			return t, nil
		}
	}
	return "", fmt.Errorf("release type %q at %s is not one of %v", value, addr.Right(1), b.cfg.ReleaseTypes)
}

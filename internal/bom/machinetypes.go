// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package bom

import (
	"strings"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/grid"
)

var systemTypes = []v1alpha1.SystemType{
	v1alpha1.SystemTypeRack,
	v1alpha1.SystemTypeFlex,
	v1alpha1.SystemTypeBladeCenter,
}

func parseSystemType(s string) (v1alpha1.SystemType, bool) {
	s = strings.ReplaceAll(strings.ToLower(s), " ", "")
	for _, t := range systemTypes {
		if s == string(t) {
			return t, true
		}
	}
	return "", false
}

// machineTypes reads the machine-type table. Column c holds system type header
// rows and item IDs, column c+1 the machine-type-model lists. A header is only
// recognized on the first non-blank row after a blank row, and two blank rows
// in a row end the section.
func (b *Builder) machineTypes(g *grid.Grid, report *diag.Report) ([]v1alpha1.MachineTypeItem, error) {
	header, err := b.section(g, b.cfg.Sections.MachineTypes)
	if err != nil {
		return nil, err
	}
	col := header.Col

	var (
		out     []v1alpha1.MachineTypeItem
		current v1alpha1.SystemType
		seen    = map[string]bool{}
	)
	prevBlank := true
	blanks := 0
	for row := header.Row + 1; row <= g.MaxRow(); row++ {
		key, value := g.At(row, col), g.At(row, col+1)
		if key == "" && value == "" {
			blanks++
			if blanks == 2 {
				break
			}
			prevBlank = true
			continue
		}
		if strings.EqualFold(key, b.cfg.Sections.Adapters) {
			break
		}
		blanks = 0
		addr := grid.Address{Row: row, Col: col}

		if prevBlank {
			prevBlank = false
			if t, ok := parseSystemType(key); ok {
				current = t
				continue
			}
		}
		switch {
		case current == "":
			report.Errorf(CheckMachineTypes, "%s: item %q precedes any system type header", addr, key)
			continue
		case key == "":
			report.Errorf(CheckMachineTypes, "%s: machine types without item ID", addr)
			continue
		case value == "":
			report.Errorf(CheckMachineTypes, "%s: item %s has no machine types", addr, key)
			continue
		case seen[key]:
			report.Errorf(CheckMachineTypes, "%s: duplicate item %s", addr, key)
			continue
		}
		seen[key] = true
		out = append(out, v1alpha1.MachineTypeItem{
			ItemID:       key,
			SystemType:   current,
			MachineTypes: splitList(value),
		})
	}
	return out, nil
}

// splitList splits a comma, semicolon or newline separated list, trims every
// element and drops empty and repeated elements, keeping the first occurrence.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	return dedup(fields)
}

func dedup(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

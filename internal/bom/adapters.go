// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package bom

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/deviceid"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/grid"
)

// Anchor phrases of the free text agentless and PLDM cells.
const (
	AnchorEntry    = "ENTRY:"
	AnchorType1    = "TYPE 1:"
	AnchorType2    = "TYPE 2:"
	AnchorVendorID = "VENDOR ID:"
	AnchorDeviceID = "DEVICE ID:"
)

var (
	itemRange = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)
	hex4      = regexp.MustCompile(`^(?:0[xX])?([0-9A-Fa-f]{4})$`)
	anchors   = []string{AnchorEntry, AnchorType1, AnchorType2, AnchorVendorID, AnchorDeviceID}
)

type adapterColumns struct {
	asic, codeName, model, machineTypes, driverFiles, agentless int
	// pldm is -1 when the grid has no PLDM column.
	pldm int
}

func (b *Builder) columns(g *grid.Grid, labelRow, fromCol int) (adapterColumns, error) {
	find := func(label string) int {
		for c := fromCol; c <= g.MaxCol(); c++ {
			if strings.EqualFold(g.At(labelRow, c), label) {
				return c
			}
		}
		return -1
	}
	labels := b.cfg.AdapterColumns
	cols := adapterColumns{
		asic:         find(labels.ASIC),
		codeName:     find(labels.CodeName),
		model:        find(labels.Model),
		machineTypes: find(labels.MachineTypes),
		driverFiles:  find(labels.DriverFiles),
		agentless:    find(labels.Agentless),
		pldm:         find(labels.PLDM),
	}
	var errs []error
	for _, required := range []struct {
		label string
		col   int
	}{
		{labels.ASIC, cols.asic},
		{labels.CodeName, cols.codeName},
		{labels.Model, cols.model},
		{labels.MachineTypes, cols.machineTypes},
		{labels.DriverFiles, cols.driverFiles},
		{labels.Agentless, cols.agentless},
	} {
		if required.col < 0 {
			errs = append(errs, fmt.Errorf("%w: adapter column %q", ErrMissingSection, required.label))
		}
	}
	return cols, errors.Join(errs...)
}

func (b *Builder) adapters(g *grid.Grid, systems []v1alpha1.MachineTypeItem, report *diag.Report) ([]v1alpha1.Adapter, error) {
	header, err := b.section(g, b.cfg.Sections.Adapters)
	if err != nil {
		return nil, err
	}
	cols, err := b.columns(g, header.Row+1, header.Col)
	if err != nil {
		return nil, err
	}

	items := make(map[string]v1alpha1.MachineTypeItem, len(systems))
	for _, item := range systems {
		items[item.ItemID] = item
	}
	knownASICs := b.knownASICs()
	groups := map[grid.Range]v1alpha1.SystemType{}

	var out []v1alpha1.Adapter
	for row := header.Row + 2; row <= g.MaxRow() && !g.RowEmpty(row, header.Col, g.MaxCol()); row++ {
		at := func(col int) string {
			if col < 0 {
				return ""
			}
			return g.At(row, col)
		}
		addr := grid.Address{Row: row, Col: header.Col}

		adapter, err := b.parseAdapter(at(cols.asic), at(cols.codeName), at(cols.model), at(cols.machineTypes),
			at(cols.driverFiles), at(cols.agentless), at(cols.pldm), items, knownASICs)
		if err != nil {
			report.Errorf(CheckAdapters, "row %d: %v", addr.Row+1, err)
			continue
		}

		if group, ok := g.MergeContaining(grid.Address{Row: row, Col: cols.asic}); ok {
			if t, ok := groups[group]; ok && t != adapter.SystemType {
				report.Errorf(CheckAdapters, "row %d: adapter %s is %s but its %s group %s is %s",
					addr.Row+1, adapter.CodeName, adapter.SystemType, adapter.ASIC, group, t)
				continue
			}
			groups[group] = adapter.SystemType
		}
		out = append(out, adapter)
	}
	return out, nil
}

func (b *Builder) knownASICs() []string {
	var asics []string
	for _, t := range b.cfg.PackageTypeList() {
		for _, a := range t.Spec().ASICs {
			if !slices.ContainsFunc(asics, func(s string) bool { return strings.EqualFold(s, a) }) {
				asics = append(asics, a)
			}
		}
	}
	return asics
}

func (b *Builder) parseAdapter(asic, codeName, model, machineTypes, driverFiles, agentless, pldm string,
	items map[string]v1alpha1.MachineTypeItem, knownASICs []string) (v1alpha1.Adapter, error) {
	var adapter v1alpha1.Adapter

	i := slices.IndexFunc(knownASICs, func(s string) bool { return strings.EqualFold(s, asic) })
	if i < 0 {
		return adapter, fmt.Errorf("unknown ASIC %q", asic)
	}
	if codeName == "" || model == "" {
		return adapter, errors.New("code name and model are required")
	}
	adapter.ASIC = knownASICs[i]
	adapter.CodeName = codeName
	adapter.Model = model

	refs, err := resolveItems(machineTypes, items)
	if err != nil {
		return adapter, err
	}
	var mtms []string
	for _, item := range refs {
		if adapter.SystemType == "" {
			adapter.SystemType = item.SystemType
		} else if adapter.SystemType != item.SystemType {
			return adapter, fmt.Errorf("items mix system types %s and %s", adapter.SystemType, item.SystemType)
		}
		mtms = append(mtms, item.MachineTypes...)
	}
	adapter.MachineTypes = dedup(mtms)
	adapter.DriverFileTokens = dedup(strings.FieldsFunc(driverFiles, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\r' || r == '\t'
	}))

	if adapter.Agents, err = ParseAgents(agentless); err != nil {
		return adapter, err
	}
	if adapter.PLDM, err = ParsePLDM(pldm); err != nil {
		return adapter, err
	}
	return adapter, nil
}

// resolveItems resolves exact item IDs and inclusive numeric ranges such as 12-18.
func resolveItems(cell string, items map[string]v1alpha1.MachineTypeItem) ([]v1alpha1.MachineTypeItem, error) {
	refs := splitList(cell)
	if len(refs) == 0 {
		return nil, errors.New("no machine type items referenced")
	}
	var ids []string
	for _, ref := range refs {
		m := itemRange.FindStringSubmatch(ref)
		if m == nil {
			ids = append(ids, ref)
			continue
		}
		from, _ := strconv.Atoi(m[1])
		to, _ := strconv.Atoi(m[2])
		if from > to {
			return nil, fmt.Errorf("invalid item range %s", ref)
		}
		for id := from; id <= to; id++ {
			ids = append(ids, strconv.Itoa(id))
		}
	}
	var errs []error
	var out []v1alpha1.MachineTypeItem
	for _, id := range dedup(ids) {
		item, ok := items[id]
		if !ok {
			errs = append(errs, fmt.Errorf("item %s is not in the machine type table", id))
			continue
		}
		out = append(out, item)
	}
	return out, errors.Join(errs...)
}

// anchored splits text into the values following each anchor phrase. Anchors
// are matched case-insensitively; repeated anchors yield several values.
func anchored(text string) map[string][]string {
	upper := asciiUpper(text)
	type hit struct {
		anchor string
		at     int
	}
	var hits []hit
	for _, a := range anchors {
		for off := 0; ; {
			i := strings.Index(upper[off:], a)
			if i < 0 {
				break
			}
			hits = append(hits, hit{anchor: a, at: off + i})
			off += i + len(a)
		}
	}
	slices.SortFunc(hits, func(x, y hit) int { return x.at - y.at })

	out := map[string][]string{}
	for i, h := range hits {
		end := len(text)
		if i+1 < len(hits) {
			end = hits[i+1].at
		}
		value := strings.Trim(text[h.at+len(h.anchor):end], " \t\r\n,;")
		out[h.anchor] = append(out[h.anchor], value)
	}
	return out
}

// ParseAgents parses an agentless cell such as "ENTRY: E81010DF TYPE 1: 13 TYPE 2: 14".
// Each entry yields one agent per declared type.
func ParseAgents(text string) ([]v1alpha1.Agent, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("agentless cell is empty, expected %q", AnchorEntry)
	}
	var agents []v1alpha1.Agent
	// Entries are parsed one at a time so that types bind to the preceding ENTRY.
	segments := splitBefore(text, AnchorEntry)
	if len(segments) == 0 {
		return nil, fmt.Errorf("anchor %q not found in %q", AnchorEntry, text)
	}
	for _, seg := range segments {
		values := anchored(seg)
		id := firstField(values[AnchorEntry])
		if _, err := deviceid.SubsystemID(id); err != nil {
			return nil, err
		}
		types := values[AnchorType1]
		if len(types) == 0 {
			return nil, fmt.Errorf("anchor %q not found for entry %s", AnchorType1, id)
		}
		types = append(types, values[AnchorType2]...)
		for _, t := range types {
			t = firstField([]string{t})
			if t == "" {
				return nil, fmt.Errorf("empty agent type for entry %s", id)
			}
			agent := v1alpha1.Agent{ID: strings.ToUpper(id), Type: t}
			if !slices.Contains(agents, agent) {
				agents = append(agents, agent)
			}
		}
	}
	return agents, nil
}

// ParsePLDM parses a PLDM cell such as "VENDOR ID: 10DF DEVICE ID: 0720". An
// empty or N/A cell declares no PLDM support.
func ParsePLDM(text string) (*v1alpha1.PLDMDescriptor, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "N/A") || strings.EqualFold(text, "NA") {
		return nil, nil
	}
	values := anchored(text)
	vendor, err := hexField(values, AnchorVendorID)
	if err != nil {
		return nil, err
	}
	device, err := hexField(values, AnchorDeviceID)
	if err != nil {
		return nil, err
	}
	return &v1alpha1.PLDMDescriptor{Vendor: vendor, Device: device}, nil
}

func hexField(values map[string][]string, anchor string) (string, error) {
	v := values[anchor]
	if len(v) == 0 {
		return "", fmt.Errorf("anchor %q not found", anchor)
	}
	m := hex4.FindStringSubmatch(firstField(v))
	if m == nil {
		return "", fmt.Errorf("%s %q is not four hex digits", strings.TrimSuffix(anchor, ":"), v[0])
	}
	return strings.ToUpper(m[1]), nil
}

func splitBefore(text, anchor string) []string {
	upper := asciiUpper(text)
	var idx []int
	for off := 0; ; {
		i := strings.Index(upper[off:], anchor)
		if i < 0 {
			break
		}
		idx = append(idx, off+i)
		off += i + len(anchor)
	}
	out := make([]string, 0, len(idx))
	for i, start := range idx {
		end := len(text)
		if i+1 < len(idx) {
			end = idx[i+1]
		}
		out = append(out, text[start:end])
	}
	return out
}

// asciiUpper upper-cases ASCII letters only, so byte offsets in the result
// are valid in s.
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func firstField(values []string) string {
	if len(values) == 0 {
		return ""
	}
	fields := strings.Fields(values[0])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package grid provides the indexed cell grid the BOM builder reads from. Cells
// are addressed by zero based row and column and may be parsed from A1 notation.
package grid

import (
	"fmt"
	"strings"
)

// Address is a zero based cell position.
type Address struct {
	Row int
	Col int
}

// String renders the address in A1 notation.
func (a Address) String() string {
	return columnName(a.Col) + fmt.Sprint(a.Row+1)
}

// Right returns the address n columns to the right.
func (a Address) Right(n int) Address {
	return Address{Row: a.Row, Col: a.Col + n}
}

// Below returns the address n rows below.
func (a Address) Below(n int) Address {
	return Address{Row: a.Row + n, Col: a.Col}
}

// Before reports whether a precedes b in row major order.
func (a Address) Before(b Address) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}

// Range is an inclusive rectangle of cells, typically a merged region.
type Range struct {
	Start Address
	End   Address
}

func (r Range) String() string {
	return r.Start.String() + ":" + r.End.String()
}

// Grid is a sparse cell grid with merged ranges.
type Grid struct {
	cells  map[Address]string
	merges []Range
	maxRow int
	maxCol int
}

// New returns an empty grid.
func New() *Grid {
	return &Grid{cells: map[Address]string{}, maxRow: -1, maxCol: -1}
}

// Set stores a trimmed value at addr. Empty values clear the cell.
func (g *Grid) Set(addr Address, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		delete(g.cells, addr)
		return
	}
	g.cells[addr] = value
	g.maxRow = max(g.maxRow, addr.Row)
	g.maxCol = max(g.maxCol, addr.Col)
}

// Merge records a merged range. The top left cell is the anchor.
func (g *Grid) Merge(r Range) {
	g.merges = append(g.merges, r)
}

// Value returns the value at addr or the empty string.
func (g *Grid) Value(addr Address) string {
	return g.cells[addr]
}

// At returns the value at row and col.
func (g *Grid) At(row, col int) string {
	return g.cells[Address{Row: row, Col: col}]
}

// MaxRow returns the highest populated row index, or -1 for an empty grid.
func (g *Grid) MaxRow() int {
	return g.maxRow
}

// MaxCol returns the highest populated column index, or -1 for an empty grid.
func (g *Grid) MaxCol() int {
	return g.maxCol
}

// RowEmpty reports whether every cell of row from col fromCol to toCol is empty.
func (g *Grid) RowEmpty(row, fromCol, toCol int) bool {
	for c := fromCol; c <= toCol; c++ {
		if g.At(row, c) != "" {
			return false
		}
	}
	return true
}

// Find returns the first cell, in row major order, whose value equals text
// ignoring case and surrounding space.
func (g *Grid) Find(text string) (Address, bool) {
	text = strings.TrimSpace(text)
	var (
		found Address
		ok    bool
	)
	for addr, value := range g.cells {
		if !strings.EqualFold(value, text) {
			continue
		}
		if !ok || addr.Before(found) {
			found, ok = addr, true
		}
	}
	return found, ok
}

// ExpandMerges copies the anchor value of every merged range to all cells it spans,
// so that lookups succeed on every row of a merge. Ranges with an empty anchor are left as is.
func (g *Grid) ExpandMerges() {
	for _, m := range g.merges {
		anchor := g.Value(m.Start)
		if anchor == "" {
			continue
		}
		for r := m.Start.Row; r <= m.End.Row; r++ {
			for c := m.Start.Col; c <= m.End.Col; c++ {
				g.Set(Address{Row: r, Col: c}, anchor)
			}
		}
	}
}

// MergeContaining returns the merged range containing addr.
func (g *Grid) MergeContaining(addr Address) (Range, bool) {
	for _, m := range g.merges {
		if addr.Row >= m.Start.Row && addr.Row <= m.End.Row && addr.Col >= m.Start.Col && addr.Col <= m.End.Col {
			return m, true
		}
	}
	return Range{}, false
}

// ParseAddress parses A1 notation such as "B12".
func ParseAddress(s string) (Address, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	i := 0
	col := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		col = col*26 + int(s[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(s) {
		return Address{}, fmt.Errorf("invalid cell address %q", s)
	}
	row := 0
	for _, ch := range s[i:] {
		if ch < '0' || ch > '9' {
			return Address{}, fmt.Errorf("invalid cell address %q", s)
		}
		row = row*10 + int(ch-'0')
	}
	if row == 0 {
		return Address{}, fmt.Errorf("invalid cell address %q: rows start at 1", s)
	}
	return Address{Row: row - 1, Col: col - 1}, nil
}

// ParseRange parses a range such as "A3:A5".
func ParseRange(s string) (Range, error) {
	start, end, ok := strings.Cut(s, ":")
	if !ok {
		return Range{}, fmt.Errorf("invalid range %q", s)
	}
	from, err := ParseAddress(start)
	if err != nil {
		return Range{}, err
	}
	to, err := ParseAddress(end)
	if err != nil {
		return Range{}, err
	}
	if to.Row < from.Row || to.Col < from.Col {
		return Range{}, fmt.Errorf("invalid range %q: end before start", s)
	}
	return Range{Start: from, End: to}, nil
}

func columnName(col int) string {
	name := ""
	for col >= 0 {
		name = string(rune('A'+col%26)) + name
		col = col/26 - 1
	}
	return name
}

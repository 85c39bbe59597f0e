// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package version orders the dotted, mixed alphanumeric version strings used by
// firmware and driver packages and by build identifiers.
package version

import (
	"regexp"
	"strings"
)

// sandwich matches tokens like 12x5 that are split into numeric, alpha and numeric parts.
var sandwich = regexp.MustCompile(`^(\d+)(\D+)(\d+)$`)

// Compare returns -1, 0 or 1 when a is older than, equal to or newer than b.
//
// Both operands are split on '.' and tokens of the form <digits><non-digits><digits>
// are exploded into three sub-tokens. Numeric sub-tokens compare numerically,
// everything else compares as lowercase strings, and a numeric sub-token sorts
// before a non-numeric one. An operand that runs out of sub-tokens first is older.
func Compare(a, b string) int {
	ta, tb := tokenize(a), tokenize(b)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		if c := compareToken(ta[i], tb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ta) < len(tb):
		return -1
	case len(ta) > len(tb):
		return 1
	}
	return 0
}

// Less reports whether a is older than b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// IsNumeric reports whether s consists of decimal digits only.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func tokenize(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(v, ".") {
		if m := sandwich.FindStringSubmatch(tok); m != nil {
			out = append(out, m[1], strings.ToLower(m[2]), m[3])
			continue
		}
		out = append(out, strings.ToLower(tok))
	}
	return out
}

func compareToken(a, b string) int {
	an, bn := IsNumeric(a), IsNumeric(b)
	switch {
	case an && bn:
		return compareNumeric(a, b)
	case an:
		return -1
	case bn:
		return 1
	}
	return strings.Compare(a, b)
}

// compareNumeric compares digit strings of arbitrary length.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return strings.Compare(a, b)
}

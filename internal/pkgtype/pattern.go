// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package pkgtype

import (
	"bytes"
	"fmt"
	"regexp"
	"text/template"
)

// Captures holds the named groups of a pattern match.
type Captures map[string]string

// Pattern is a compiled, fully anchored regular expression with named groups.
type Pattern struct {
	re *regexp.Regexp
}

// CompilePattern compiles expr anchored at both ends.
func CompilePattern(expr string) (*Pattern, error) {
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return &Pattern{re: re}, nil
}

// String returns the pattern source.
func (p *Pattern) String() string {
	return p.re.String()
}

// Match matches s and returns the named captures.
func (p *Pattern) Match(s string) (Captures, bool) {
	m := p.re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	caps := Captures{}
	for i, name := range p.re.SubexpNames() {
		if name != "" {
			caps[name] = m[i]
		}
	}
	return caps, true
}

// Values is the data available to name and description templates.
type Values struct {
	Release      string
	Version      string
	SubVersion   string
	BootVersion  string
	ASIC         string
	Token        string
	Model        string
	Arch         string
	Flavor       string
	OSName       string
	OSSubVersion string
}

// Template renders file names and descriptions from Values.
type Template struct {
	src  string
	tmpl *template.Template
}

// CompileTemplate parses src. Referencing an unknown field fails at render time.
func CompileTemplate(name, src string) (*Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s failed: %w", name, err)
	}
	return &Template{src: src, tmpl: tmpl}, nil
}

// String returns the template source.
func (t *Template) String() string {
	return t.src
}

// Render executes the template with v.
func (t *Template) Render(v Values) (string, error) {
	var out bytes.Buffer
	if err := t.tmpl.Execute(&out, v); err != nil {
		return "", fmt.Errorf("executing template %s failed: %w", t.tmpl.Name(), err)
	}
	return out.String(), nil
}

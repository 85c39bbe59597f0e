// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package payload

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/ironcore-dev/bomcheck/internal/diag"
)

// DigestFunc computes the hex digest of a stream.
type DigestFunc func(r io.Reader) (string, error)

// Ledger records the digest of every verified, non-empty payload file.
type Ledger struct {
	root      string
	digest    DigestFunc
	report    *diag.Report
	checksums map[string]string
	checked   map[string]bool
}

// NewLedger returns a ledger for the tree at root.
func NewLedger(report *diag.Report, root string, digest DigestFunc) *Ledger {
	return &Ledger{
		root:      root,
		digest:    digest,
		report:    report,
		checksums: map[string]string{},
		checked:   map[string]bool{},
	}
}

// Checksums returns the recorded digests keyed by slash separated relative name.
func (l *Ledger) Checksums() map[string]string {
	return l.checksums
}

// Check verifies that rel exists, is readable and non-empty, and records its
// digest. It reports the problem and returns false otherwise. Each path is
// checked at most once.
func (l *Ledger) Check(rel string) bool {
	rel = filepath.ToSlash(filepath.Clean(rel))
	if done, ok := l.checked[rel]; ok {
		return done
	}
	ok := l.check(rel)
	l.checked[rel] = ok
	return ok
}

func (l *Ledger) check(rel string) bool {
	path := filepath.Join(l.root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		l.report.Errorf(CheckPayload, "missing %s", rel)
		return false
	case errors.Is(err, fs.ErrPermission):
		l.report.Errorf(CheckPayload, "permission denied on %s", rel)
		return false
	case err != nil:
		l.report.Errorf(CheckPayload, "cannot stat %s: %v", rel, err)
		return false
	case info.IsDir():
		l.report.Errorf(CheckPayload, "%s is a directory", rel)
		return false
	case info.Size() == 0:
		l.report.Errorf(CheckPayload, "%s is empty", rel)
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			l.report.Errorf(CheckPayload, "permission denied on %s", rel)
		} else {
			l.report.Errorf(CheckPayload, "cannot open %s: %v", rel, err)
		}
		return false
	}
	defer f.Close()
	sum, err := l.digest(f)
	if err != nil {
		l.report.Errorf(CheckPayload, "cannot hash %s: %v", rel, err)
		return false
	}
	l.checksums[rel] = sum
	l.report.Debugf(CheckPayload, "verified %s (%s)", rel, humanize.IBytes(uint64(info.Size())))
	return true
}

// Read returns the content of a file that passed Check.
func (l *Ledger) Read(rel string) ([]byte, bool) {
	if !l.Check(rel) {
		return nil, false
	}
	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(rel)))
	if err != nil {
		l.report.Errorf(CheckPayload, "cannot read %s: %v", rel, err)
		return nil, false
	}
	return data, true
}

// Exact reports files in dir that are not listed in expected. Missing files
// are left to Check.
func (l *Ledger) Exact(dir string, expected []string) {
	entries, err := os.ReadDir(filepath.Join(l.root, filepath.FromSlash(dir)))
	if err != nil {
		// A missing directory surfaces through the missing files.
		return
	}
	want := map[string]bool{}
	for _, e := range expected {
		want[e] = true
	}
	for _, e := range entries {
		if !want[e.Name()] {
			l.report.Errorf(CheckPayload, "unexpected %s/%s", dir, e.Name())
		}
	}
}

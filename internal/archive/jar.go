// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package archive gives the verifier access to package archives: jar member
// reads, payload extraction, per-run scratch directories and digests.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ErrMemberNotFound is returned when an archive lacks a required member.
var ErrMemberNotFound = errors.New("archive member not found")

// JarSuffix is the file name suffix of package archives.
const JarSuffix = ".jar"

// Jar is an open package archive.
type Jar struct {
	path string
	r    *zip.ReadCloser
}

// OpenJar opens the package archive at path.
func OpenJar(path string) (*Jar, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &Jar{path: path, r: r}, nil
}

// Close releases the archive.
func (j *Jar) Close() error {
	return j.r.Close()
}

// Path returns the archive path.
func (j *Jar) Path() string {
	return j.path
}

// Base returns the archive file name without directory and suffix.
func (j *Jar) Base() string {
	return strings.TrimSuffix(filepath.Base(j.path), JarSuffix)
}

// Names returns the member names in archive order.
func (j *Jar) Names() []string {
	names := make([]string, 0, len(j.r.File))
	for _, f := range j.r.File {
		names = append(names, f.Name)
	}
	return names
}

// Has reports whether the archive contains name.
func (j *Jar) Has(name string) bool {
	return j.file(name) != nil
}

// Size returns the uncompressed size of member name.
func (j *Jar) Size(name string) (uint64, error) {
	f := j.file(name)
	if f == nil {
		return 0, fmt.Errorf("%w: %s in %s", ErrMemberNotFound, name, filepath.Base(j.path))
	}
	return f.UncompressedSize64, nil
}

// Read returns the content of member name.
func (j *Jar) Read(name string) ([]byte, error) {
	f := j.file(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrMemberNotFound, name, filepath.Base(j.path))
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Extract writes member name to dir and returns the written path.
func (j *Jar) Extract(name, dir string) (string, error) {
	f := j.file(name)
	if f == nil {
		return "", fmt.Errorf("%w: %s in %s", ErrMemberNotFound, name, filepath.Base(j.path))
	}
	dst, err := safeJoin(dir, name)
	if err != nil {
		return "", err
	}
	if err := writeZipFile(f, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (j *Jar) file(name string) *zip.File {
	i := slices.IndexFunc(j.r.File, func(f *zip.File) bool { return f.Name == name })
	if i < 0 {
		return nil
	}
	return j.r.File[i]
}

// ExtractZip extracts every member of the zip archive at path into dir.
func ExtractZip(path, dir string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer r.Close()
	for _, f := range r.File {
		dst, err := safeJoin(dir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := writeZipFile(f, dst); err != nil {
			return err
		}
	}
	return nil
}

func writeZipFile(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return writeFile(dst, rc, f.Mode().Perm())
}

func writeFile(dst string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return out.Close()
}

// safeJoin joins name to dir and rejects names escaping dir.
func safeJoin(dir, name string) (string, error) {
	dst := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, dst)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("member %s escapes the extraction directory", name)
	}
	return dst, nil
}

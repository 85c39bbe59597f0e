// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package pldm extracts the tar framed PLDM descriptor and firmware image that
// are embedded in a self-extracting firmware archive, and reconciles the
// descriptor with the BOM.
package pldm

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
)

// ErrMarkerNotFound is returned when the buffer holds no PLDM marker.
var ErrMarkerNotFound = errors.New("PLDM marker not found")

const (
	sizeFieldOffset = 124
	sizeFieldLength = 12
)

// Layout holds the offsets computed while walking the embedded tar region.
type Layout struct {
	// HeaderOffset is the start of the tar header of the descriptor member.
	HeaderOffset int
	XMLStart     int
	XMLSize      int
	XMLEnd       int
	// XMLBlocks is the number of 512 byte blocks occupied by the descriptor.
	XMLBlocks   int
	ImageHeader int
	ImageSize   int
	ImageStart  int
	ImageEnd    int
}

// Extracted is the descriptor and image recovered from a buffer.
type Extracted struct {
	Layout Layout
	XML    []byte
	Image  []byte
}

// Blocks returns the number of tar blocks needed for size bytes.
func Blocks(size int) int {
	return (size + v1alpha1.TarBlockSize - 1) / v1alpha1.TarBlockSize
}

// ParseSize decodes a 12 byte octal tar size field. NUL and space padding is ignored.
func ParseSize(field []byte) (int, error) {
	s := strings.Trim(string(field), "\x00 ")
	if s == "" {
		return 0, errors.New("empty size field")
	}
	n, err := strconv.ParseUint(s, 8, 63)
	if err != nil {
		return 0, fmt.Errorf("invalid octal size %q: %w", s, err)
	}
	return int(n), nil
}

func sizeAt(buf []byte, header int) (int, error) {
	start := header + sizeFieldOffset
	end := start + sizeFieldLength
	if header < 0 || end > len(buf) {
		return 0, fmt.Errorf("size field at %d exceeds buffer of %d bytes", start, len(buf))
	}
	return ParseSize(buf[start:end])
}

// Locate computes the layout of the embedded region without copying data.
func Locate(buf []byte) (Layout, error) {
	var l Layout
	l.HeaderOffset = bytes.Index(buf, []byte(v1alpha1.PLDMMarker))
	if l.HeaderOffset < 0 {
		return l, ErrMarkerNotFound
	}

	var err error
	if l.XMLSize, err = sizeAt(buf, l.HeaderOffset); err != nil {
		return l, fmt.Errorf("descriptor header: %w", err)
	}
	l.XMLStart = l.HeaderOffset + v1alpha1.TarBlockSize
	l.XMLEnd = l.XMLStart + l.XMLSize
	l.XMLBlocks = Blocks(l.XMLSize)
	if l.XMLEnd < l.XMLStart || l.XMLEnd > len(buf) {
		return l, fmt.Errorf("descriptor ends at %d beyond buffer of %d bytes", l.XMLEnd, len(buf))
	}

	l.ImageHeader = l.XMLStart + l.XMLBlocks*v1alpha1.TarBlockSize
	if l.ImageSize, err = sizeAt(buf, l.ImageHeader); err != nil {
		return l, fmt.Errorf("image header: %w", err)
	}
	l.ImageStart = l.ImageHeader + v1alpha1.TarBlockSize
	l.ImageEnd = l.ImageStart + l.ImageSize
	if l.ImageEnd < l.ImageStart || l.ImageEnd > len(buf) {
		return l, fmt.Errorf("image ends at %d beyond buffer of %d bytes", l.ImageEnd, len(buf))
	}
	return l, nil
}

// Extract locates the embedded region and returns copies of the descriptor and image.
func Extract(buf []byte) (*Extracted, error) {
	l, err := Locate(buf)
	if err != nil {
		return nil, err
	}
	return &Extracted{
		Layout: l,
		XML:    bytes.Clone(buf[l.XMLStart:l.XMLEnd]),
		Image:  bytes.Clone(buf[l.ImageStart:l.ImageEnd]),
	}, nil
}

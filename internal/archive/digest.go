// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/ironcore-dev/bomcheck/internal/payload"
)

// Digest algorithm names.
const (
	DigestSHA256     = "sha256"
	DigestBLAKE2b256 = "blake2b-256"
)

// Digester returns the digest function of the named algorithm.
func Digester(name string) (payload.DigestFunc, error) {
	var newHash func() hash.Hash
	switch name {
	case DigestSHA256, "":
		newHash = sha256.New
	case DigestBLAKE2b256:
		newHash = func() hash.Hash {
			h, _ := blake2b.New256(nil)
			return h
		}
	default:
		return nil, fmt.Errorf("unknown digest algorithm %q", name)
	}
	return func(r io.Reader) (string, error) {
		h := newHash()
		if _, err := io.Copy(h, r); err != nil {
			return "", err
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	}, nil
}

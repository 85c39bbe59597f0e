// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package atomicfile

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Atomic writes", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should create parent directories and replace existing files", func() {
		path := filepath.Join(dir, "a", "b.json")
		Expect(Write(path, []byte("one"))).To(Succeed())
		Expect(Write(path, []byte("two"))).To(Succeed())
		Expect(os.ReadFile(path)).To(Equal([]byte("two")))

		entries, err := os.ReadDir(filepath.Dir(path))
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})

	It("should write indented JSON", func() {
		path := filepath.Join(dir, "v.json")
		Expect(WriteJSON(path, map[string]int{"errors": 2})).To(Succeed())
		Expect(os.ReadFile(path)).To(Equal([]byte("{\n  \"errors\": 2\n}\n")))
	})

	It("should copy files", func() {
		src := filepath.Join(dir, "src")
		Expect(os.WriteFile(src, []byte("data"), 0o644)).To(Succeed())
		Expect(Copy(src, filepath.Join(dir, "dst"))).To(Succeed())
		Expect(os.ReadFile(filepath.Join(dir, "dst"))).To(Equal([]byte("data")))
	})
})

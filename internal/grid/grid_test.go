// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package grid

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Address", func() {
	DescribeTable("parses A1 notation",
		func(ref string, row, col int) {
			addr, err := ParseAddress(ref)
			Expect(err).NotTo(HaveOccurred())
			Expect(addr).To(Equal(Address{Row: row, Col: col}))
			Expect(addr.String()).To(Equal(ref))
		},
		Entry("first cell", "A1", 0, 0),
		Entry("second column", "B12", 11, 1),
		Entry("double letter column", "AA3", 2, 26),
		Entry("AZ column", "AZ10", 9, 51),
	)

	It("rejects malformed addresses", func() {
		for _, ref := range []string{"", "12", "A", "A0", "1A"} {
			_, err := ParseAddress(ref)
			Expect(err).To(HaveOccurred(), ref)
		}
	})

	It("rejects inverted ranges", func() {
		_, err := ParseRange("A5:A3")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Grid", func() {
	It("expands merged cells to every spanned row", func() {
		g := New()
		g.Set(Address{Row: 3, Col: 0}, "Skyhawk")
		g.Set(Address{Row: 3, Col: 1}, "adapter-a")
		g.Set(Address{Row: 4, Col: 1}, "adapter-b")
		g.Set(Address{Row: 5, Col: 1}, "adapter-c")
		g.Merge(Range{Start: Address{Row: 3, Col: 0}, End: Address{Row: 5, Col: 0}})

		g.ExpandMerges()

		for row := 3; row <= 5; row++ {
			Expect(g.At(row, 0)).To(Equal("Skyhawk"))
		}
		m, ok := g.MergeContaining(Address{Row: 4, Col: 0})
		Expect(ok).To(BeTrue())
		Expect(m.String()).To(Equal("A4:A6"))
	})

	It("finds labels ignoring case", func() {
		g := New()
		g.Set(Address{Row: 2, Col: 4}, " Operating Systems ")
		addr, ok := g.Find("operating systems")
		Expect(ok).To(BeTrue())
		Expect(addr).To(Equal(Address{Row: 2, Col: 4}))
		_, ok = g.Find("Adapters")
		Expect(ok).To(BeFalse())
	})

	It("finds the first label in row major order on a sparse grid", func(ctx SpecContext) {
		g := New()
		far, err := ParseAddress("XFD1048576")
		Expect(err).NotTo(HaveOccurred())
		g.Set(far, "Adapters")
		g.Set(Address{Row: 7, Col: 0}, "adapters")
		g.Set(Address{Row: 3, Col: 9}, "ADAPTERS")
		g.Set(Address{Row: 3, Col: 2}, "Adapters")

		addr, ok := g.Find("Adapters")
		Expect(ok).To(BeTrue())
		Expect(addr).To(Equal(Address{Row: 3, Col: 2}))
		Expect(Address{Row: 3, Col: 2}.Before(Address{Row: 3, Col: 9})).To(BeTrue())
		Expect(Address{Row: 4, Col: 0}.Before(Address{Row: 3, Col: 9})).To(BeFalse())
	}, SpecTimeout(5*time.Second))

	It("tracks bounds and empty rows", func() {
		g := New()
		Expect(g.MaxRow()).To(Equal(-1))
		g.Set(Address{Row: 7, Col: 2}, "x")
		g.Set(Address{Row: 8, Col: 2}, "   ")
		Expect(g.MaxRow()).To(Equal(7))
		Expect(g.MaxCol()).To(Equal(2))
		Expect(g.RowEmpty(8, 0, 5)).To(BeTrue())
		Expect(g.RowEmpty(7, 0, 5)).To(BeFalse())
	})

	It("loads a YAML export", func() {
		path := filepath.Join(GinkgoT().TempDir(), "grid.yaml")
		Expect(os.WriteFile(path, []byte(`
cells:
  A1: Release Name
  B1: 18.2
  A4: Skyhawk
merges:
  - A4:A6
`), 0o644)).To(Succeed())

		g, err := LoadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.At(0, 1)).To(Equal("18.2"))
		g.ExpandMerges()
		Expect(g.At(5, 0)).To(Equal("Skyhawk"))
	})

	It("reports bad references but keeps the rest", func() {
		g, err := Parse([]byte("cells:\n  A1: ok\n  1A: bad\nmerges: [\"A1-A2\"]\n"))
		Expect(err).To(HaveOccurred())
		Expect(g.At(0, 0)).To(Equal("ok"))
	})
})

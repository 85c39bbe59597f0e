// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Compare", func() {
	DescribeTable("orders versions",
		func(a, b string, expected int) {
			Expect(Compare(a, b)).To(Equal(expected))
			Expect(Compare(b, a)).To(Equal(-expected))
		},
		Entry("numeric tokens compare numerically", "10.6.228.26", "10.6.228.9", 1),
		Entry("alpha tokens compare as strings", "A6", "A5", 1),
		Entry("case is ignored", "a6", "A6", 0),
		Entry("sandwich suffix x sorts after a", "1.12x5", "1.12a5", 1),
		Entry("sandwich numeric tail", "1.12a10", "1.12a9", 1),
		Entry("shorter operand is older", "1.2", "1.2.0", -1),
		Entry("leading zeros are ignored", "1.02", "1.2", 0),
		Entry("numeric sorts before alpha", "1.9", "1.beta", -1),
		Entry("long numbers", "1.123456789012345678901", "1.123456789012345678900", 1),
		Entry("empty is oldest", "", "0", -1),
		Entry("equal", "12.0.193.13", "12.0.193.13", 0),
	)

	It("is reflexive", func() {
		for _, v := range []string{"1", "10.2a3", "A5", "", "1.beta.2"} {
			Expect(Compare(v, v)).To(BeZero())
		}
	})

	It("is transitive over a mixed set", func() {
		versions := []string{"10", "9", "1a", "9a", "1.2", "1.2.0", "12x5", "12a5", "beta", "A5", "a6", "0.9"}
		for _, a := range versions {
			for _, b := range versions {
				for _, c := range versions {
					if Compare(a, b) <= 0 && Compare(b, c) <= 0 {
						Expect(Compare(a, c)).To(BeNumerically("<=", 0), "%s <= %s <= %s", a, b, c)
					}
				}
			}
		}
	})

	It("sorts build identifiers", func() {
		builds := []string{"110", "12", "9", "100"}
		slices.SortFunc(builds, Compare)
		Expect(builds).To(Equal([]string{"9", "12", "100", "110"}))
	})
})

var _ = Describe("IsNumeric", func() {
	It("accepts digits only", func() {
		Expect(IsNumeric("0123")).To(BeTrue())
		Expect(IsNumeric("")).To(BeFalse())
		Expect(IsNumeric("12a")).To(BeFalse())
	})
})

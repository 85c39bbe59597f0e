// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package bom

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/config"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/grid"
)

func loadGrid() *grid.Grid {
	g, err := grid.LoadFile("testdata/release.yaml")
	Expect(err).NotTo(HaveOccurred())
	return g
}

func set(g *grid.Grid, ref, value string) {
	addr, err := grid.ParseAddress(ref)
	Expect(err).NotTo(HaveOccurred())
	g.Set(addr, value)
}

var _ = Describe("Builder", func() {
	var (
		cfg     *config.Config
		builder *Builder
		report  *diag.Report
	)

	BeforeEach(func() {
		var err error
		cfg, err = config.Default()
		Expect(err).NotTo(HaveOccurred())
		builder = NewBuilder(GinkgoLogr, cfg)
		report = diag.NewReport(GinkgoLogr, "bom")
	})

	It("should build the release header", func() {
		bom, err := builder.Build(loadGrid(), report)
		Expect(err).NotTo(HaveOccurred())
		Expect(bom.Release).To(Equal("SP182"))
		Expect(bom.Type).To(Equal(v1alpha1.ReleaseType("SP")))
	})

	It("should parse the operating system section and skip bad rows", func() {
		bom, err := builder.Build(loadGrid(), report)
		Expect(err).NotTo(HaveOccurred())

		Expect(bom.OSList).To(HaveLen(6))
		Expect(bom.OSList[0]).To(Equal(v1alpha1.OperatingSystem{
			FullName:        "Windows Server 2016",
			Name:            "win2016",
			PackageSDKNames: []string{"Windows 2016"},
			SubVersion:      "0",
			Arch:            v1alpha1.ArchitectureX64,
			Kind:            v1alpha1.OSKindWindows,
			DriverDirName:   "W2K16",
		}))
		Expect(bom.OSList[1].Name).To(Equal("win2012r2"))
		Expect(bom.OSList[2].SubVersion).To(Equal("4"))
		Expect(bom.OSList[3].Name).To(Equal("sles12"))
		Expect(bom.OSList[3].Extras).To(Equal(v1alpha1.OSExtraKVM))
		Expect(bom.OSList[4].Arch).To(Equal(v1alpha1.ArchitectureX86))
		Expect(bom.OSList[5].Arch).To(Equal(v1alpha1.ArchitectureX64))
		Expect(bom.OSList[5].SubVersion).To(Equal("9"))

		errs := report.Filter(diag.SeverityError, CheckOperatingSystems)
		Expect(errs).To(HaveLen(2))
		Expect(errs[0].Message).To(ContainSubstring(`unknown operating system "Solaris 11"`))
		Expect(errs[1].Message).To(ContainSubstring(`no sub-version in "SLES 11 x64"`))
	})

	It("should parse alternating machine type blocks", func() {
		bom, err := builder.Build(loadGrid(), report)
		Expect(err).NotTo(HaveOccurred())
		Expect(bom.SystemList).To(Equal([]v1alpha1.MachineTypeItem{
			{ItemID: "1", SystemType: v1alpha1.SystemTypeRack, MachineTypes: []string{"7X02", "7X03"}},
			{ItemID: "2", SystemType: v1alpha1.SystemTypeRack, MachineTypes: []string{"7X04"}},
			{ItemID: "3", SystemType: v1alpha1.SystemTypeFlex, MachineTypes: []string{"7X21", "7X02"}},
			{ItemID: "4", SystemType: v1alpha1.SystemTypeBladeCenter, MachineTypes: []string{"8737"}},
		}))
		Expect(report.Filter(diag.SeverityError, CheckMachineTypes)).To(BeEmpty())
	})

	It("should only recognize a system type header after a blank row", func() {
		g := loadGrid()
		set(g, "D8", "Flex")
		bom, err := builder.Build(g, report)
		Expect(err).NotTo(HaveOccurred())
		errs := report.Filter(diag.SeverityError, CheckMachineTypes)
		// Neither D8 nor D9 follows a blank row, so both are read as items.
		Expect(errs).To(HaveLen(2))
		Expect(errs[0].Message).To(ContainSubstring("item Flex has no machine types"))
		Expect(bom.SystemList).To(HaveLen(4))
		Expect(bom.SystemList[2].ItemID).To(Equal("3"))
		Expect(bom.SystemList[2].SystemType).To(Equal(v1alpha1.SystemTypeRack))
	})

	It("should expand a merged ASIC cell to every row", func() {
		bom, err := builder.Build(loadGrid(), report)
		Expect(err).NotTo(HaveOccurred())

		Expect(bom.AdapterList).To(HaveLen(3))
		for _, a := range bom.AdapterList {
			Expect(a.ASIC).To(Equal("Skyhawk"))
			Expect(a.SystemType).To(Equal(v1alpha1.SystemTypeRack))
		}
	})

	It("should parse adapter fields", func() {
		bom, err := builder.Build(loadGrid(), report)
		Expect(err).NotTo(HaveOccurred())

		a := bom.AdapterList[0]
		Expect(a.CodeName).To(Equal("sky-rack"))
		Expect(a.MachineTypes).To(Equal([]string{"7X02", "7X03", "7X04"}))
		Expect(a.DriverFileTokens).To(Equal([]string{"oce14102"}))
		Expect(a.Agents).To(Equal([]v1alpha1.Agent{{ID: "E81010DF", Type: "13"}, {ID: "E81010DF", Type: "14"}}))
		Expect(a.PLDM).To(Equal(&v1alpha1.PLDMDescriptor{Vendor: "10DF", Device: "0720"}))
		Expect(bom.AdapterList[1].SupportsPLDM()).To(BeFalse())
	})

	It("should report rows with unknown items or missing anchors", func() {
		_, err := builder.Build(loadGrid(), report)
		Expect(err).NotTo(HaveOccurred())

		errs := report.Filter(diag.SeverityError, CheckAdapters)
		Expect(errs).To(HaveLen(2))
		Expect(errs[0].Message).To(ContainSubstring("item 9 is not in the machine type table"))
		Expect(errs[1].Message).To(ContainSubstring(`anchor "ENTRY:" not found`))
	})

	It("should reject disagreeing system types within a merged ASIC group", func() {
		g := loadGrid()
		set(g, "D22", "3")
		bom, err := builder.Build(g, report)
		Expect(err).NotTo(HaveOccurred())
		Expect(bom.AdapterList).To(HaveLen(2))
		Expect(report.Filter(diag.SeverityError, CheckAdapters)).To(ContainElement(
			HaveField("Message", ContainSubstring("adapter sky-rack8 is flex"))))
	})

	It("should derive applicable device IDs", func() {
		bom, err := builder.Build(loadGrid(), report)
		Expect(err).NotTo(HaveOccurred())
		Expect(bom.AppDIDList.FirmwareLabels(v1alpha1.OSKindLinux, "Skyhawk")).To(
			Equal([]string{"elx_Skybird_F", "elx_Skybird_I", "elx_Skybird_N"}))
		Expect(bom.AppDIDList.DriverLabels("win2016", v1alpha1.ProtocolCNA)).To(Equal([]string{"elx_Skybird_F"}))
		Expect(report.Filter(diag.SeverityError, CheckDeviceIDs)).To(BeEmpty())
	})

	It("should fail on a missing section", func() {
		g := loadGrid()
		set(g, "A18", "")
		_, err := builder.Build(g, report)
		Expect(err).To(MatchError(ErrMissingSection))
	})

	It("should fail on an unknown release type", func() {
		g := loadGrid()
		set(g, "B2", "BETA")
		_, err := builder.Build(g, report)
		Expect(err).To(MatchError(ContainSubstring(`release type "BETA"`)))
	})
})

var _ = Describe("Cell parsers", func() {
	It("should bind agent types to their entry", func() {
		agents, err := ParseAgents("ENTRY: e81010df TYPE 1: 13\nENTRY: E30010DF TYPE 1: 17 TYPE 2: 18")
		Expect(err).NotTo(HaveOccurred())
		Expect(agents).To(Equal([]v1alpha1.Agent{
			{ID: "E81010DF", Type: "13"},
			{ID: "E30010DF", Type: "17"},
			{ID: "E30010DF", Type: "18"},
		}))
	})

	It("should require TYPE 1", func() {
		_, err := ParseAgents("ENTRY: E81010DF TYPE 2: 14")
		Expect(err).To(MatchError(ContainSubstring(`"TYPE 1:"`)))
	})

	It("should keep anchor offsets when upper-casing changes byte lengths", func() {
		var agents []v1alpha1.Agent
		var err error
		Expect(func() { agents, err = ParseAgents("ɐɐɐɐɐɐɐɐ ENTRY:") }).NotTo(Panic())
		Expect(err).To(HaveOccurred())
		Expect(agents).To(BeEmpty())

		agents, err = ParseAgents("ɐɐɐɐ entry: E81010DF ɐɐ type 1: 13")
		Expect(err).NotTo(HaveOccurred())
		Expect(agents).To(Equal([]v1alpha1.Agent{{ID: "E81010DF", Type: "13"}}))

		var pldm *v1alpha1.PLDMDescriptor
		Expect(func() { pldm, err = ParsePLDM("ɐɐɐɐ vendor id: 10df ɐɐɐɐ device id: 0720") }).NotTo(Panic())
		Expect(err).NotTo(HaveOccurred())
		Expect(pldm).To(Equal(&v1alpha1.PLDMDescriptor{Vendor: "10DF", Device: "0720"}))
	})

	It("should parse PLDM descriptors", func() {
		Expect(ParsePLDM("")).To(BeNil())
		Expect(ParsePLDM("n/a")).To(BeNil())
		Expect(ParsePLDM("Vendor ID: 0x10df, Device ID: 0x0720")).To(
			Equal(&v1alpha1.PLDMDescriptor{Vendor: "10DF", Device: "0720"}))
		_, err := ParsePLDM("VENDOR ID: 10DF")
		Expect(err).To(MatchError(ContainSubstring(`"DEVICE ID:"`)))
	})

	It("should canonicalize release names", func() {
		Expect(CanonicalRelease("sp 18.2 (final)")).To(Equal("SP182FINAL"))
	})
})

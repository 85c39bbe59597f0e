// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package deviceid

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/config"
	"github.com/ironcore-dev/bomcheck/internal/pkgtype"
)

var _ = Describe("Deriver", func() {
	var (
		catalog  []config.DeviceCatalogEntry
		osList   []v1alpha1.OperatingSystem
		adapters []v1alpha1.Adapter
	)

	BeforeEach(func() {
		catalog = []config.DeviceCatalogEntry{
			{Name: "elx_Skybird_N", Value: `PCI\VEN_10DF&DEV_0720&SUBSYS_10DFE810`, Protocol: v1alpha1.ProtocolNIC},
			{Name: "elx_Skybird_F", Value: `PCI\VEN_10DF&DEV_0724&SUBSYS_10DFE810`, Protocol: v1alpha1.ProtocolFCoE},
			{Name: "elx_Lancer_F", Value: `PCI\VEN_10DF&DEV_E300&SUBSYS_10DFE300`, Protocol: v1alpha1.ProtocolFC},
			{Name: "elx_Other", Value: `PCI\VEN_10DF&DEV_0001&SUBSYS_10DF0001`, Protocol: v1alpha1.ProtocolNIC},
		}
		osList = []v1alpha1.OperatingSystem{
			{Name: "win2016", Kind: v1alpha1.OSKindWindows, Arch: v1alpha1.ArchitectureX64},
			{Name: "rhel7", Kind: v1alpha1.OSKindLinux, Arch: v1alpha1.ArchitectureX64},
		}
		adapters = []v1alpha1.Adapter{
			{CodeName: "a1", ASIC: "Skyhawk", Agents: []v1alpha1.Agent{{ID: "E81010DF", Type: "13"}}},
			{CodeName: "a2", ASIC: "Skyhawk", Agents: []v1alpha1.Agent{{ID: "e81010df", Type: "13"}}},
			{CodeName: "a3", ASIC: "Lancer", Agents: []v1alpha1.Agent{{ID: "E30010DF", Type: "17"}}},
		}
	})

	It("should swap the agent id halves", func() {
		Expect(SubsystemID("E81010DF")).To(Equal("10DFE810"))
		_, err := SubsystemID("E81010D")
		Expect(err).To(HaveOccurred())
	})

	It("should map FCoE to CNA on Windows and FC elsewhere", func() {
		Expect(DriverProtocol(v1alpha1.ProtocolFCoE, v1alpha1.OSKindWindows)).To(Equal(v1alpha1.ProtocolCNA))
		Expect(DriverProtocol(v1alpha1.ProtocolFCoE, v1alpha1.OSKindLinux)).To(Equal(v1alpha1.ProtocolFC))
		Expect(DriverProtocol(v1alpha1.ProtocolNIC, v1alpha1.OSKindWindows)).To(Equal(v1alpha1.ProtocolNIC))
	})

	It("should fill firmware and driver buckets", func() {
		ids := Derive(adapters, catalog, osList)

		Expect(ids.FirmwareLabels(v1alpha1.OSKindLinux, "Skyhawk")).To(Equal([]string{"elx_Skybird_F", "elx_Skybird_N"}))
		Expect(ids.FirmwareLabels(v1alpha1.OSKindWindows, "Lancer")).To(Equal([]string{"elx_Lancer_F"}))
		Expect(ids.FW).NotTo(HaveKey(v1alpha1.OSKindVMware))

		Expect(ids.DriverLabels("win2016", v1alpha1.ProtocolNIC)).To(Equal([]string{"elx_Skybird_N"}))
		Expect(ids.DriverLabels("win2016", v1alpha1.ProtocolCNA)).To(Equal([]string{"elx_Skybird_F"}))
		Expect(ids.DriverLabels("rhel7", v1alpha1.ProtocolFC)).To(ConsistOf("elx_Skybird_F", "elx_Lancer_F"))
		Expect(ids.DriverLabels("rhel7", v1alpha1.ProtocolCNA)).To(BeEmpty())
	})

	It("should not derive labels for unmatched subsystems", func() {
		ids := Derive(adapters, catalog, osList)
		for _, asics := range ids.FW {
			for _, labels := range asics {
				Expect(labels).NotTo(ContainElement("elx_Other"))
			}
		}
	})

	It("should be independent of adapter order", func() {
		forward := Derive(adapters, catalog, osList)
		reversed := Derive([]v1alpha1.Adapter{adapters[2], adapters[1], adapters[0]}, catalog, osList)
		Expect(reversed).To(Equal(forward))
	})

	It("should honour OS kind restrictions of catalog entries", func() {
		catalog[0].OSKinds = []v1alpha1.OSKind{v1alpha1.OSKindWindows}
		ids := Derive(adapters, catalog, osList)
		Expect(ids.FirmwareLabels(v1alpha1.OSKindLinux, "Skyhawk")).To(Equal([]string{"elx_Skybird_F"}))
		Expect(ids.FirmwareLabels(v1alpha1.OSKindWindows, "Skyhawk")).To(ContainElement("elx_Skybird_N"))
	})

	Describe("ExpectedLabels", func() {
		var bom *v1alpha1.ReleaseBOM

		BeforeEach(func() {
			bom = &v1alpha1.ReleaseBOM{OSList: osList, AdapterList: adapters}
			bom.AppDIDList = Derive(adapters, catalog, osList)
		})

		It("should return the firmware bucket", func() {
			t, err := pkgtype.Compile(v1alpha1.PackageTypeSpec{
				Name:            "fw",
				Kind:            v1alpha1.PackageKindFirmware,
				OSFamily:        v1alpha1.OSKindLinux,
				FileNamePattern: `fw\.jar`,
				ASICs:           []string{"Skyhawk"},
				Firmware:        &v1alpha1.FirmwareSpec{ImageName: "{{.Token}}.ufi"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ExpectedLabels(bom, t)).To(Equal([]string{"elx_Skybird_F", "elx_Skybird_N"}))
		})

		It("should fail for an empty driver bucket", func() {
			t, err := pkgtype.Compile(v1alpha1.PackageTypeSpec{
				Name:            "dd",
				Kind:            v1alpha1.PackageKindDriver,
				OSFamily:        v1alpha1.OSKindWindows,
				FileNamePattern: `dd\.jar`,
				ASICs:           []string{"Skyhawk"},
				WindowsDriver:   &v1alpha1.WindowsDriverSpec{Protocol: v1alpha1.ProtocolISCSI},
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = ExpectedLabels(bom, t)
			Expect(err).To(MatchError(ContainSubstring("(win2016, iscsi)")))
		})
	})
})

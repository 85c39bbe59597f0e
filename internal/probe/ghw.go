// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"fmt"

	"k8s.io/utils/ptr"

	"github.com/jaypipes/ghw"
)

// DeviceSource lists the installed PCI devices.
type DeviceSource interface {
	PCIDevices() ([]PCIDevice, error)
}

type ghwDeviceSource struct {
	netInfo *ghw.NetworkInfo
	pciInfo *ghw.PCIInfo
}

// NewDeviceSource reads the PCI and network topology of the local host.
func NewDeviceSource() (DeviceSource, error) {
	netInfo, err := ghw.Network()
	if err != nil {
		return nil, fmt.Errorf("error getting network info: %w", err)
	}

	pciInfo, err := ghw.PCI()
	if err != nil {
		return nil, fmt.Errorf("error getting PCI info: %w", err)
	}

	return &ghwDeviceSource{
		netInfo: netInfo,
		pciInfo: pciInfo,
	}, nil
}

func (s *ghwDeviceSource) PCIDevices() ([]PCIDevice, error) {
	if s.pciInfo == nil {
		return nil, fmt.Errorf("no PCI info")
	}
	devices := make([]PCIDevice, 0, len(s.pciInfo.Devices))
	for _, p := range s.pciInfo.Devices {
		d := PCIDevice{
			Address:    p.Address,
			Driver:     p.Driver,
			Interfaces: s.interfacesByPCIAddress(p.Address),
		}
		if p.Vendor != nil {
			d.Vendor = p.Vendor.Name
			d.VendorID = p.Vendor.ID
		}
		if p.Product != nil {
			d.Product = p.Product.Name
			d.ProductID = p.Product.ID
		}
		if p.Subsystem != nil {
			d.SubsystemVendorID = p.Subsystem.VendorID
			d.SubsystemID = p.Subsystem.ID
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func (s *ghwDeviceSource) interfacesByPCIAddress(address string) []string {
	if s.netInfo == nil {
		return nil
	}
	var names []string
	for _, nic := range s.netInfo.NICs {
		if ptr.Deref(nic.PCIAddress, "") == address {
			names = append(names, nic.Name)
		}
	}
	return names
}

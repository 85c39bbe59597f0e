// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"fmt"
	"strings"
)

// PCIDevice is an installed PCI function with its subsystem identity.
type PCIDevice struct {
	Address           string
	Vendor            string
	VendorID          string
	Product           string
	ProductID         string
	SubsystemVendorID string
	SubsystemID       string
	Driver            string
	// Interfaces are the network interfaces backed by the function.
	Interfaces []string
}

// Subsystem returns the eight hex digit subsystem vendor and device id in
// VVVVDDDD order, as used by device catalog hardware ids.
func (d PCIDevice) Subsystem() string {
	if d.SubsystemVendorID == "" || d.SubsystemID == "" {
		return ""
	}
	return strings.ToUpper(d.SubsystemVendorID + d.SubsystemID)
}

// HardwareID returns the PCI hardware id of the device.
func (d PCIDevice) HardwareID() string {
	return fmt.Sprintf(`PCI\VEN_%s&DEV_%s&SUBSYS_%s`,
		strings.ToUpper(d.VendorID), strings.ToUpper(d.ProductID), d.Subsystem())
}

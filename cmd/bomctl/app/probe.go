// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/ironcore-dev/bomcheck/internal/bom"
	"github.com/ironcore-dev/bomcheck/internal/probe"
)

var probeBOMPath string

func NewProbeCommand() *cobra.Command {
	p := &cobra.Command{
		Use:   "probe",
		Short: "Match the PCI devices of this host against a BOM snapshot",
		Args:  cobra.NoArgs,
		RunE:  runProbe,
	}
	p.Flags().StringVar(&probeBOMPath, "bom", "", "BOM snapshot to match against")
	_ = p.MarkFlagRequired("bom")
	return p
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, err := bom.Load(probeBOMPath)
	if err != nil {
		return err
	}
	source, err := probe.NewDeviceSource()
	if err != nil {
		return err
	}
	matches, err := probe.NewProber(ctrl.Log.WithName("probe"), source, cfg.DeviceCatalog).Probe(b)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		_, err := fmt.Fprintf(out, "No device of this host is part of release %s\n", b.Release)
		return err
	}
	for _, m := range matches {
		_, _ = fmt.Fprintf(out, "%s %s adapters=[%s] labels=[%s] interfaces=[%s]\n",
			m.Device.Address, m.Device.HardwareID(),
			strings.Join(m.Adapters, ","), strings.Join(m.Labels, ","), strings.Join(m.Device.Interfaces, ","))
	}
	return nil
}

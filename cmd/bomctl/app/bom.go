// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/yaml"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/bom"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/grid"
)

var snapshotDir string

func NewBOMCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "bom",
		Short: "Build and inspect BOM snapshots",
		Args:  cobra.NoArgs,
	}

	build := &cobra.Command{
		Use:   "build <grid.yaml>",
		Short: "Build a BOM snapshot from a cell grid export",
		Args:  cobra.ExactArgs(1),
		RunE:  runBOMBuild,
	}
	build.Flags().StringVar(&snapshotDir, "snapshot-dir", ".", "Directory receiving the BOM snapshot")

	show := &cobra.Command{
		Use:   "show <snapshot.json>",
		Short: "Summarize a BOM snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runBOMShow,
	}

	c.AddCommand(build, show)
	return c
}

func runBOMBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	g, err := grid.LoadFile(args[0])
	if err != nil {
		return err
	}
	log := ctrl.Log.WithName("bom")
	report := diag.NewReport(log, "bom")
	b, err := bom.NewBuilder(log, cfg).Build(g, report)
	if err != nil {
		return err
	}
	path, backup, err := bom.Save(snapshotDir, b, time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printDiagnostics(out, report)
	_, _ = fmt.Fprintf(out, "Wrote %s\n", path)
	if backup != "" {
		_, _ = fmt.Fprintf(out, "Backed up previous snapshot to %s\n", backup)
	}
	if n := report.Errors(); n > 0 {
		return fmt.Errorf("BOM %s has %d errors", b.Release, n)
	}
	return nil
}

// bomSummary is the printed form of a snapshot.
type bomSummary struct {
	Release          string                                    `json:"release"`
	Type             v1alpha1.ReleaseType                      `json:"type"`
	OperatingSystems []string                                  `json:"operatingSystems"`
	Systems          int                                       `json:"systems"`
	Adapters         []string                                  `json:"adapters"`
	Firmware         map[v1alpha1.OSKind]map[string][]string   `json:"firmwareDeviceIDs,omitempty"`
	Drivers          map[string]map[v1alpha1.Protocol][]string `json:"driverDeviceIDs,omitempty"`
}

func runBOMShow(cmd *cobra.Command, args []string) error {
	b, err := bom.Load(args[0])
	if err != nil {
		return err
	}
	s := bomSummary{
		Release:  b.Release,
		Type:     b.Type,
		Systems:  len(b.SystemList),
		Firmware: b.AppDIDList.FW,
		Drivers:  b.AppDIDList.DD,
	}
	for _, os := range b.OSList {
		s.OperatingSystems = append(s.OperatingSystems, fmt.Sprintf("%s.%s %s", os.Name, os.SubVersion, os.Arch))
	}
	for _, a := range b.AdapterList {
		s.Adapters = append(s.Adapters, fmt.Sprintf("%s (%s, %s)", a.CodeName, a.Model, a.ASIC))
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

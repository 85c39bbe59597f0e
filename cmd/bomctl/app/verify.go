// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/ironcore-dev/bomcheck/internal/archive"
	"github.com/ironcore-dev/bomcheck/internal/bom"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/engine"
)

var (
	bomPath         string
	archiveDir      string
	buildID         string
	historyPath     string
	saveHistory     bool
	scratchDir      string
	metricsTextfile string
)

func addVerifyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&bomPath, "bom", "", "BOM snapshot to verify against")
	cmd.Flags().StringVar(&buildID, "build", "", "Build identifier used for history checks")
	cmd.Flags().StringVar(&historyPath, "history", "", "Saved build history file")
	cmd.Flags().BoolVar(&saveHistory, "save", false, "Save the run into the build history")
	cmd.Flags().StringVar(&scratchDir, "scratch-dir", "", "Directory for temporary extraction. Defaults to the system temp directory")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write diagnostic counters to this file in Prometheus text format")
	_ = cmd.MarkFlagRequired("bom")
}

func NewVerifyCommand() *cobra.Command {
	v := &cobra.Command{
		Use:   "verify [archive.jar...]",
		Short: "Verify package archives against a BOM snapshot",
		RunE:  runVerify,
	}
	addVerifyFlags(v)
	v.Flags().StringVar(&archiveDir, "dir", "", "Verify every archive in this directory")
	return v
}

func runVerify(cmd *cobra.Command, args []string) error {
	jars := slices.Clone(args)
	if archiveDir != "" {
		entries, err := os.ReadDir(archiveDir)
		if err != nil {
			return fmt.Errorf("failed to read archive directory: %w", err)
		}
		for _, e := range entries {
			if e.Type().IsRegular() && strings.HasSuffix(e.Name(), archive.JarSuffix) {
				jars = append(jars, filepath.Join(archiveDir, e.Name()))
			}
		}
	}
	if len(jars) == 0 {
		return fmt.Errorf("no archives to verify")
	}
	return verify(cmd, jars)
}

func verify(cmd *cobra.Command, jars []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, err := bom.Load(bomPath)
	if err != nil {
		return err
	}
	metrics := diag.NewCollector()
	eng, err := engine.New(ctrl.Log.WithName("engine"), cfg, b, metrics)
	if err != nil {
		return err
	}
	res, err := eng.Run(cmd.Context(), jars, engine.RunOptions{
		Build:       buildID,
		HistoryPath: historyPath,
		Save:        saveHistory,
		ScratchDir:  scratchDir,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	names := make([]string, 0, len(res.Reports))
	for name := range res.Reports {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		printDiagnostics(out, res.Reports[name])
	}
	for _, name := range names {
		r := res.Reports[name]
		status := "verified"
		if name == engine.RunReport {
			status = "-"
		} else if _, ok := res.Aborted[name]; ok {
			status = "aborted"
		} else if _, ok := res.Contexts[name]; !ok {
			status = "skipped"
		}
		_, _ = fmt.Fprintf(out, "%-24s %-8s errors=%d warnings=%d\n", name, status, r.Errors(), r.Warnings())
	}
	if res.PreviousBuild != "" {
		_, _ = fmt.Fprintf(out, "Compared with build %s\n", res.PreviousBuild)
	}
	if res.Record != nil {
		_, _ = fmt.Fprintf(out, "Saved build %s (run %s)\n", res.Record.Build, res.Record.RunID)
	}

	if metricsTextfile != "" {
		if err := metrics.WriteTextfile(metricsTextfile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	if n := metrics.ErrorCount(); n > 0 {
		return fmt.Errorf("verification found %d errors", n)
	}
	return nil
}

// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"flag"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/ironcore-dev/bomcheck/internal/config"
	"github.com/ironcore-dev/bomcheck/internal/diag"
)

const Name string = "bomctl"

var (
	configPath string
	zapOpts    = zap.Options{Development: true}

	setupLog = ctrl.Log.WithName("setup")
)

func NewCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          Name,
		Short:        "Verify release packages against their bill of materials",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctrl.SetLogger(zap.New(zap.UseFlagOptions(&zapOpts), zap.WriteTo(cmd.ErrOrStderr())))
		},
	}
	goFlags := flag.NewFlagSet(Name, flag.ContinueOnError)
	zapOpts.BindFlags(goFlags)
	root.PersistentFlags().AddGoFlagSet(goFlags)
	root.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file. Defaults to the built-in configuration.")

	root.AddCommand(NewBOMCommand())
	root.AddCommand(NewVerifyCommand())
	root.AddCommand(NewWatchCommand())
	root.AddCommand(NewHistoryCommand())
	root.AddCommand(NewProbeCommand())
	root.AddCommand(NewVersionCommand())
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	setupLog.V(1).Info("Loaded configuration", "path", configPath, "packageTypes", len(cfg.PackageTypeList()))
	return cfg, nil
}

// printDiagnostics writes every warning and error of reports to w.
func printDiagnostics(w io.Writer, reports ...*diag.Report) {
	for _, r := range reports {
		for _, d := range r.Diagnostics() {
			if d.Severity >= diag.SeverityWarn {
				_, _ = fmt.Fprintln(w, d.String())
			}
		}
	}
}

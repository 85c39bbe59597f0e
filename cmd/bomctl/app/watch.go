// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"time"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/ironcore-dev/bomcheck/internal/trigger"
)

var (
	manifestName   string
	settleInterval time.Duration
	settleTimeout  time.Duration
)

func NewWatchCommand() *cobra.Command {
	w := &cobra.Command{
		Use:   "watch <archive-dir>",
		Short: "Wait for a complete trigger manifest and verify the archives it lists",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	addVerifyFlags(w)
	w.Flags().StringVar(&manifestName, "manifest", trigger.ManifestFileName, "Trigger manifest file name in the archive directory")
	w.Flags().DurationVar(&settleInterval, "settle-interval", time.Second, "Interval between checks for the listed archives")
	w.Flags().DurationVar(&settleTimeout, "settle-timeout", 5*time.Minute, "How long to wait for the listed archives")
	return w
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := ctrl.Log.WithName("watch")
	watcher := trigger.NewWatcher(log, args[0], manifestName)
	watcher.Interval = settleInterval
	watcher.Timeout = settleTimeout

	log.Info("Waiting for trigger manifest", "path", watcher.Path())
	m, err := watcher.Wait(cmd.Context())
	if err != nil {
		return err
	}
	log.Info("Verifying archives", "archives", m.JarFileNames, "notify", m.StatusEmails)
	return verify(cmd, m.Paths(args[0]))
}

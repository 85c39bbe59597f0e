// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironcore-dev/bomcheck/internal/version"
)

func NewVersionCommand() *cobra.Command {
	v := &cobra.Command{
		Use:   "version",
		Short: "Work with package version strings",
		Args:  cobra.NoArgs,
	}
	v.AddCommand(&cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Print whether a is older than, equal to or newer than b",
		Args:  cobra.ExactArgs(2),
		RunE:  runVersionCompare,
	})
	return v
}

func runVersionCompare(cmd *cobra.Command, args []string) error {
	relation := "equal to"
	switch c := version.Compare(args[0], args[1]); {
	case c < 0:
		relation = "older than"
	case c > 0:
		relation = "newer than"
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s is %s %s\n", args[0], relation, args[1])
	return err
}

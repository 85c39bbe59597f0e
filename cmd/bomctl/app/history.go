// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/history"
)

var historyFile string

func NewHistoryCommand() *cobra.Command {
	h := &cobra.Command{
		Use:   "history",
		Short: "Inspect the saved build history",
		Args:  cobra.NoArgs,
	}
	h.PersistentFlags().StringVar(&historyFile, "history", v1alpha1.HistoryFileName, "Saved build history file")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved builds from oldest to newest",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	del := &cobra.Command{
		Use:   "delete <build>",
		Short: "Delete a saved build",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDelete,
	}
	h.AddCommand(list, del)
	return h
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	saved, err := history.NewStore(historyFile).Load()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BUILD\tDATE\tERRORS\tPACKAGES")
	for _, b := range history.Builds(saved) {
		rec := saved[b]
		var packages []string
		for name, vctx := range rec.JarData {
			packages = append(packages, fmt.Sprintf("%s=%s-%s", name, vctx.Version, vctx.SubVersion))
		}
		slices.Sort(packages)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%v\n", b, rec.ReleaseDate.Format("2006-01-02"), rec.Errors, packages)
	}
	return w.Flush()
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	if err := history.NewStore(historyFile).Delete(args[0]); err != nil {
		return err
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted build %s\n", args[0])
	return err
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nerdneilsfield/imagegen-studio/internal/storage"
	"github.com/spf13/cobra"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the generation history",
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:          "list",
		Short:        "List history entries, most recent first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(root, cmd.OutOrStdout(), func(a *app) error {
				entries := a.store.History()
				if asJSON {
					return writeHistoryJSON(a.out, entries)
				}
				a.printHistory(entries)
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")

	clearCmd := &cobra.Command{
		Use:          "clear",
		Short:        "Remove every history entry",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(root, cmd.OutOrStdout(), func(a *app) error {
				return a.clearHistory()
			})
		},
	}

	cmd.AddCommand(listCmd, clearCmd)
	return cmd
}

func writeHistoryJSON(w io.Writer, entries []storage.HistoryEntry) error {
	if entries == nil {
		entries = []storage.HistoryEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func (a *app) printHistory(entries []storage.HistoryEntry) {
	if len(entries) == 0 {
		a.println(a.t("history_empty"))
		return
	}
	for i, e := range entries {
		fmt.Fprintf(a.out, "%3d  %s  %s  %s\n", i, e.CreatedAt, shortID(e.ID), e.Prompt)
	}
}

func (a *app) clearHistory() error {
	if err := a.store.Clear(); err != nil {
		return err
	}
	a.println(a.t("history_cleared"))
	return nil
}

// shortID keeps the tail of an id. UUIDv7 ids lead with the timestamp, so
// the head is shared by entries created close together.
func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

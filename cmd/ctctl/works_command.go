package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newWorksCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "works",
		Short: "List tracked works",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			works, err := a.Catalog.Works(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, works)
			}
			if len(works) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No works tracked")
				return nil
			}

			rows := make([][]string, 0, len(works))
			for _, w := range works {
				marks := make([]string, len(w.Bookmarks))
				for i, b := range w.Bookmarks {
					marks[i] = strconv.Itoa(b)
				}
				rows = append(rows, []string{
					w.ID, w.Title, w.Host.String(), w.Code,
					strconv.Itoa(w.CurrentChapter), strconv.Itoa(w.LatestChapter),
					strings.Join(marks, ","),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Host", "Code", "Read", "Latest", "Bookmarks"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

package main

import (
	"fmt"
	"strconv"

	"github.com/dgallion1/customtrans/internal/pipeline"
	"github.com/spf13/cobra"
)

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "update [work-id...]",
		Short: "Check works for new chapters",
		Long:  "Checks the given works, or every work when none is named, for new chapters.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}

			var results []pipeline.UpdateResult
			if len(args) == 0 {
				if results, err = a.Orchestrator.UpdateAll(cmd.Context()); err != nil {
					return err
				}
			} else {
				for _, id := range args {
					r, err := a.Orchestrator.UpdateWork(cmd.Context(), id)
					if err != nil {
						r.Error = err.Error()
					}
					results = append(results, r)
				}
			}

			if asJSON {
				return writeJSON(cmd, results)
			}
			failed := 0
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
				rows = append(rows, []string{r.WorkID, strconv.Itoa(r.Previous), strconv.Itoa(r.Latest), strconv.Itoa(r.New), r.Error})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Work", "Previous", "Latest", "New", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			if failed > 0 {
				return fmt.Errorf("%d of %d work(s) failed to update", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func (a *App) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the last regenerations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openDB()
			if err != nil {
				return err
			}
			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(a.out, "No regeneration recorded yet.")
				return nil
			}

			headers := []string{"Started", "Status", "Reference day", "Weeks", "Rows", "Carried", "Counted", "Dropped", "Error"}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.StartedAt.Local().Format("2006-01-02 15:04"),
					formatStatus(r.Status),
					r.Today.Format(time.DateOnly),
					strconv.Itoa(r.Weeks),
					strconv.Itoa(r.Rows),
					strconv.Itoa(r.Carried),
					strconv.Itoa(r.Credited),
					strconv.Itoa(r.Lost),
					r.Error,
				})
			}
			fmt.Fprintln(a.out, renderTable(headers, rows, nil))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of runs to show")
	return cmd
}

package ui

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/calendar"
)

func (a *App) countersCmd() *cobra.Command {
	var copyTSV bool

	cmd := &cobra.Command{
		Use:   "counters",
		Short: "Show how many past slots each person attended",
		Long: `Display the past slot counters of the registered people, per category,
supervised and self-service slots apart.

Counters are updated by 'agenda generate'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := a.schedule()
			if err != nil {
				return err
			}
			people, err := a.openRoster().ListPeople(ctx)
			if err != nil {
				return err
			}
			if len(people) == 0 {
				fmt.Fprintln(a.out, "No one registered yet.")
				return nil
			}

			store, err := a.counterStore()
			if err != nil {
				return err
			}
			counters, err := store.LoadCounters(ctx, people, s.CategoryNames())
			if err != nil {
				return err
			}

			headers, rows := counterTable(counters, s.CategoryNames())
			fmt.Fprintln(a.out, renderTable(headers, rows, nil))

			if copyTSV {
				if err := copyToClipboard(gridTSV(headers, rows)); err != nil {
					return err
				}
				fmt.Fprintln(a.out, formatMuted(fmt.Sprintf("Copied %d rows", len(rows))))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&copyTSV, "copy", "c", false, "Copy the counters to the clipboard")
	return cmd
}

// counterTable lays out one row per person and two columns per category.
func counterTable(c *calendar.Counters, categories []string) (headers []string, rows [][]string) {
	headers = []string{"Nom"}
	for _, cat := range categories {
		headers = append(headers,
			cat+" ("+calendar.Regular.Label()+")",
			cat+" ("+calendar.SelfService.Label()+")")
	}

	for _, p := range c.People() {
		row := []string{p.Name}
		for _, cat := range categories {
			t := p.Tally(cat)
			row = append(row, strconv.Itoa(t.PastRegular), strconv.Itoa(t.PastSelf))
		}
		rows = append(rows, row)
	}
	return headers, rows
}

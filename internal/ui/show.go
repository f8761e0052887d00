package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/regen"
)

func (a *App) showCmd() *cobra.Command {
	var (
		backup  bool
		copyTSV bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the calendar",
		Long: `Display the calendar as it is in the workbook.

Use --backup to display the copy saved before the last regeneration, and
--copy to put the grid on the clipboard as tab separated values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}

			s, err := a.schedule()
			if err != nil {
				return err
			}
			wb, err := a.openWorkbook()
			if err != nil {
				return err
			}

			var rows [][]string
			if backup {
				rows, err = wb.ReadBackup(cmd.Context())
			} else {
				rows, err = wb.ReadRows(cmd.Context(), regen.RegionFor(a.config.Grid, s))
			}
			if err != nil {
				return fmt.Errorf("reading calendar: %w", err)
			}
			rows = trimGrid(rows)

			if len(rows) == 0 {
				fmt.Fprintln(a.out, "The calendar is empty. Run 'agenda generate' first.")
				return nil
			}

			fmt.Fprintln(a.out, renderGrid(s, rows))

			if copyTSV {
				if err := copyToClipboard(gridTSV(gridHeaders(s.SlotNames()), rows)); err != nil {
					return err
				}
				fmt.Fprintln(a.out, formatMuted(fmt.Sprintf("Copied %d rows", len(rows))))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&backup, "backup", false, "Show the backup taken before the last regeneration")
	cmd.Flags().BoolVarP(&copyTSV, "copy", "c", false, "Copy the grid to the clipboard")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	return cmd
}

package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/regen"
)

func (a *App) restoreCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Put back the calendar saved before the last regeneration",
		Long: `Replace the calendar with the backup taken at the start of the last
regeneration. Counters are left untouched.

Example:
  agenda restore --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s, err := a.schedule()
			if err != nil {
				return err
			}
			wb, err := a.openWorkbook()
			if err != nil {
				return err
			}

			backup, err := wb.ReadBackup(ctx)
			if err != nil {
				return err
			}
			rows := trimGrid(backup)
			if len(rows) == 0 {
				return fmt.Errorf("no backup in sheet %q", a.config.Grid.SaveSheet)
			}

			if !yes && !a.promptYesNo(fmt.Sprintf("Replace the calendar with the %d saved rows?", len(rows))) {
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}

			region := regen.RegionFor(a.config.Grid, s)
			if err := wb.ClearRegion(ctx, region); err != nil {
				return err
			}
			if err := wb.WriteRows(ctx, region, rows); err != nil {
				return err
			}
			if err := wb.SetMarker(ctx, ""); err != nil {
				return err
			}
			if err := wb.Flush(ctx); err != nil {
				return err
			}

			a.logger.Info("calendar restored from backup", "rows", len(rows))
			fmt.Fprintf(a.out, "Restored %d rows from %s\n", len(rows), a.config.Grid.SaveSheet)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

package ui

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/roster"
)

func (a *App) peopleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "people",
		Short: "List the registered people",
		Long: `List the people who may book a slot.

The list is published in the workbook at every regeneration, or on demand
with 'agenda people publish'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			people, err := a.openRoster().ListPeople(cmd.Context())
			if err != nil {
				return err
			}
			if len(people) == 0 {
				fmt.Fprintln(a.out, "No one registered yet.")
				return nil
			}
			for _, p := range people {
				fmt.Fprintf(a.out, "  %s\n", p)
			}
			fmt.Fprintln(a.out, formatMuted(fmt.Sprintf("%d people", len(people))))
			return nil
		},
	}

	cmd.AddCommand(a.peopleAddCmd())
	cmd.AddCommand(a.peopleRemoveCmd())
	cmd.AddCommand(a.peopleImportCmd())
	cmd.AddCommand(a.peoplePublishCmd())
	return cmd
}

func (a *App) peopleAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME...",
		Short: "Register people",
		Long: `Register one or more people.

Example:
  agenda people add "Alice Martin" "Bob Durand"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := a.openRoster()
			for _, name := range args {
				err := r.Add(cmd.Context(), name)
				switch {
				case errors.Is(err, roster.ErrPersonExists):
					fmt.Fprintln(a.out, formatMuted(err.Error()))
				case err != nil:
					return err
				default:
					fmt.Fprintf(a.out, "Added %s\n", name)
				}
			}
			return nil
		},
	}
}

func (a *App) peopleRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Unregister a person",
		Long: `Unregister a person. Their counters are kept.

Example:
  agenda people remove "Alice Martin"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openRoster().Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed %s\n", args[0])
			return nil
		},
	}
}

func (a *App) peopleImportCmd() *cobra.Command {
	var charset string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Register the people listed in a spreadsheet",
		Long: `Register every name of the first column of the first sheet of an
.xls or .xlsx file. Names already registered are skipped.

Example:
  agenda people import inscriptions.xls`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePath(args[0])
			if err != nil {
				return err
			}

			names, err := roster.ReadFile(path, charset)
			if err != nil {
				return err
			}
			added, err := a.openRoster().Merge(cmd.Context(), names)
			if err != nil {
				return err
			}

			a.logger.Info("people imported", "file", path, "read", len(names), "added", added)
			fmt.Fprintf(a.out, "Imported %d new people from %s (%d read)\n", added, path, len(names))
			return nil
		},
	}

	cmd.Flags().StringVar(&charset, "charset", roster.XLSCharset, "Charset of .xls files")
	return cmd
}

func (a *App) peoplePublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Write the people list to the workbook",
		Args:  cobra.NoArgs,
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
			wb, err := a.openWorkbook()
			if err != nil {
				return err
			}

			if err := wb.PublishPeople(ctx, s.PeopleColumn(people)); err != nil {
				return err
			}
			if err := wb.Flush(ctx); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Published %d people to %s\n", len(people), a.config.Grid.PeopleSheet)
			return nil
		},
	}
}

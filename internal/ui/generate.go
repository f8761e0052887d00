package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/calendar"
	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/regen"
)

func (a *App) generateCmd() *cobra.Command {
	var (
		now     string
		weeks   int
		noKeep  bool
		dryRun  bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"regen"},
		Short:   "Regenerate the calendar",
		Long: `Rebuild the coming weeks of the calendar from the opening rules.

Names already written in a slot stay in the slot covering the same time.
Slots that went by are added to the counters of the people written in them.
If writing the new calendar fails, the previous one is put back.

Example:
  agenda generate
  agenda generate --dry-run --now "2025-02-01 10:00"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}

			opts := regen.Options{Weeks: weeks, NoKeep: noKeep, DryRun: dryRun}
			if now != "" {
				t, err := a.parseNow(now)
				if err != nil {
					return err
				}
				opts.Now = t
			}

			deps, err := a.regenDeps()
			if err != nil {
				return err
			}

			res, err := regen.Run(cmd.Context(), a.config, deps, opts)
			if res != nil {
				a.printResult(res, dryRun)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&now, "now", "", `Run as if it were this time ("YYYY-MM-DD" or "YYYY-MM-DD HH:MM")`)
	cmd.Flags().IntVarP(&weeks, "weeks", "w", 0, "Number of weeks to display (default from config)")
	cmd.Flags().BoolVar(&noKeep, "no-keep", false, "Do not carry the names of the previous calendar")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show the new calendar without writing it")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	return cmd
}

// regenDeps opens the stores of a regeneration.
func (a *App) regenDeps() (regen.Deps, error) {
	wb, err := a.openWorkbook()
	if err != nil {
		return regen.Deps{}, err
	}
	journal, err := a.openDB()
	if err != nil {
		return regen.Deps{}, err
	}
	counters, err := a.counterStore()
	if err != nil {
		return regen.Deps{}, err
	}

	return regen.Deps{
		Grid:     wb,
		People:   wb,
		Roster:   a.openRoster(),
		Counters: counters,
		Journal:  journal,
		Notifier: consoleNotifier{out: a.out},
		Logger:   a.logger,
	}, nil
}

// schedule parses the calendar rules at the current time.
func (a *App) schedule() (*calendar.Schedule, error) {
	return regen.NewSchedule(a.config, regen.Options{})
}

// parseNow reads the --now flag in the calendar time zone.
func (a *App) parseNow(s string) (time.Time, error) {
	loc, err := a.config.Location()
	if err != nil {
		return time.Time{}, err
	}
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, loc); err == nil {
		return t, nil
	}
	d, err := dateutil.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: %w", s, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc), nil
}

func (a *App) printResult(res *regen.Result, dryRun bool) {
	weeks := make([]string, len(res.Weeks))
	for i, w := range res.Weeks {
		weeks[i] = fmt.Sprintf("%d/%d", w.Week, w.Year)
	}

	if dryRun && len(res.Grid) > 0 {
		s, err := a.schedule()
		if err == nil {
			fmt.Fprintln(a.out, renderGrid(s, trimGrid(res.Grid)))
		}
	}

	fmt.Fprintf(a.out, "%s %s\n", formatHeader("Reference day:"), res.Today.Format("Mon 2 Jan 2006 15:04"))
	if len(weeks) > 0 {
		fmt.Fprintf(a.out, "%s %s\n", formatHeader("Weeks:"), strings.Join(weeks, ", "))
	}
	fmt.Fprintf(a.out, "Rows: %d / %d  |  Carried: %d  |  Closed: %d\n",
		len(res.Rows), res.Region.Capacity, res.Carried, res.Closed)
	if res.Credit.Slots > 0 || res.Credit.Unknown > 0 {
		fmt.Fprintf(a.out, "Counted: %d slots in %d past rows", res.Credit.Slots, res.Credit.Entries)
		if res.Credit.Unknown > 0 {
			fmt.Fprint(a.out, formatMuted(fmt.Sprintf(" (%d unknown names)", res.Credit.Unknown)))
		}
		fmt.Fprintln(a.out)
	}
	if res.Unparsed > 0 {
		fmt.Fprintln(a.out, formatWarn(fmt.Sprintf("Unreadable rows in the previous calendar: %d", res.Unparsed)))
	}
	if len(res.Lost) > 0 {
		fmt.Fprintln(a.out, formatWarn(fmt.Sprintf("Dropped slots with reservations: %d", len(res.Lost))))
	}
	if dryRun {
		fmt.Fprintln(a.out, formatMuted("Dry run, nothing written."))
	}
}

package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/calendar"
	"github.com/javiermolinar/agenda/internal/regen"
	"github.com/javiermolinar/agenda/internal/summary"
)

func (a *App) weekCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:     "week",
		Aliases: []string{"summary"},
		Short:   "Show how full each displayed week is",
		Long: `Count the booked, free and unavailable slots of every week of the
calendar, with the booked slots of each category and the busiest opening.`,
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
			rows, err := wb.ReadRows(cmd.Context(), regen.RegionFor(a.config.Grid, s))
			if err != nil {
				return fmt.Errorf("reading calendar: %w", err)
			}

			weeks := summary.SummarizeGrid(s, rows)
			if len(weeks) == 0 {
				fmt.Fprintln(a.out, "The calendar is empty. Run 'agenda generate' first.")
				return nil
			}

			for _, w := range weeks {
				a.printWeek(s, w)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	return cmd
}

func (a *App) printWeek(s *calendar.Schedule, w summary.WeekSummary) {
	st := w.Stats
	label := w.Label
	if label == "" {
		label = "Before the first week"
	}

	fmt.Fprintf(a.out, "\n  %s\n", formatHeader(label))
	fmt.Fprintln(a.out, strings.Repeat("─", 48))
	fmt.Fprintf(a.out, "  Openings: %d | Booked: %d | Free: %d | %s: %d\n",
		st.Openings, st.Booked, st.Free, s.Unavailable, st.Unavailable)
	fmt.Fprintf(a.out, "  Fill: %s\n", fillBar(st.Booked, st.Bookable(), 20))

	if st.Booked > 0 {
		fmt.Fprintf(a.out, "  By category: %s\n", categoryLine(s, st.PerCategory))
	}
	if day, ok := st.BusiestDay(); ok {
		fmt.Fprintf(a.out, "  Busiest: %s %s (%d)\n", day.Day, day.Hour, day.Booked)
	}
}

// fillBar draws the booked share of the bookable slots.
func fillBar(booked, total, width int) string {
	if total <= 0 {
		return "[" + strings.Repeat("░", width) + "] (0% booked)"
	}

	pct := (booked * 100) / total
	filled := (booked * width) / total

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s", formatOK(bar), formatMuted(fmt.Sprintf("(%d%% booked)", pct)))
}

// categoryLine lists the booked slots per category in configuration order.
func categoryLine(s *calendar.Schedule, perCategory map[string]int) string {
	names := s.CategoryNames()
	known := make(map[string]bool, len(names))
	parts := make([]string, 0, len(perCategory))
	for _, name := range names {
		known[name] = true
		if n := perCategory[name]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", name, n))
		}
	}

	var extra []string
	for name := range perCategory {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		parts = append(parts, fmt.Sprintf("%s %d", name, perCategory[name]))
	}
	return strings.Join(parts, ", ")
}

package ui

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/config"
)

func (a *App) configCmd() *cobra.Command {
	var noEdit bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.
Opening, closure and category tables are edited in the file itself.

Example:
  agenda config`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runConfigInteractive(!noEdit)
		},
	}

	cmd.Flags().BoolVar(&noEdit, "no-edit", false, "Only display the configuration")
	return cmd
}

func (a *App) runConfigInteractive(edit bool) error {
	configPath := a.configPath
	fmt.Fprintf(a.out, "Config file: %s\n\n", configPath)
	cfg := a.config

	// Check if file exists
	_, fileErr := os.Stat(configPath)
	isNew := os.IsNotExist(fileErr)

	if isNew {
		fmt.Fprintln(a.out, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(a.out, "Created %s\n\n", configPath)
	}

	// Display current config
	a.printConfig(cfg)

	// Ask if user wants to edit
	if !edit || !a.promptYesNo("\nWould you like to edit the configuration?") {
		return nil
	}

	// Interactive editing
	reader := a.input()

	cfg.Calendar.WeeksToDisplay = a.promptInt(reader, "Weeks to display", cfg.Calendar.WeeksToDisplay)
	cfg.Calendar.WeekEndDay = a.promptInt(reader, "Week end day (0-7)", cfg.Calendar.WeekEndDay)
	cfg.Calendar.Timezone = a.promptValue(reader, "Time zone (empty for local)", cfg.Calendar.Timezone)
	cfg.Grid.Workbook = a.promptValue(reader, "Workbook path", cfg.Grid.Workbook)
	cfg.Grid.Sheet = a.promptValue(reader, "Calendar sheet", cfg.Grid.Sheet)
	cfg.Grid.Capacity = a.promptInt(reader, "Calendar rows", cfg.Grid.Capacity)
	cfg.Storage.DBPath = a.promptValue(reader, "Database path", cfg.Storage.DBPath)
	cfg.Storage.RosterPath = a.promptValue(reader, "Roster path", cfg.Storage.RosterPath)
	cfg.Storage.Counters = a.promptValue(reader, "Counters storage (sqlite, workbook)", cfg.Storage.Counters)
	cfg.Log.Level = a.promptValue(reader, "Log level", cfg.Log.Level)

	// Validate before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Save
	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(a.out, "\nConfiguration saved!")
	return nil
}

func (a *App) printConfig(cfg *config.Config) {
	w := a.out
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[calendar]")
	fmt.Fprintf(w, "  weeks_to_display = %d\n", cfg.Calendar.WeeksToDisplay)
	fmt.Fprintf(w, "  week_end_day     = %d\n", cfg.Calendar.WeekEndDay)
	fmt.Fprintf(w, "  timezone         = %s\n", cfg.Calendar.Timezone)
	fmt.Fprintf(w, "  keep_data        = %t\n", cfg.Calendar.KeepData)
	fmt.Fprintf(w, "  update_past_days = %t\n", cfg.Calendar.UpdatePastDays)
	for _, cat := range cfg.Calendar.Categories {
		fmt.Fprintf(w, "  %-16s = %s\n", cat.Name, strings.Join(cat.Slots, ", "))
	}
	fmt.Fprintf(w, "  openings         = %d supervised, %d self-service\n", len(cfg.Calendar.Openings), len(cfg.Calendar.SelfOpenings))
	fmt.Fprintf(w, "  closures         = %d\n", len(cfg.Calendar.Closures))
	fmt.Fprintln(w, "\n[grid]")
	fmt.Fprintf(w, "  workbook         = %s\n", cfg.Grid.Workbook)
	fmt.Fprintf(w, "  sheet            = %s\n", cfg.Grid.Sheet)
	fmt.Fprintf(w, "  capacity         = %d\n", cfg.Grid.Capacity)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  db_path          = %s\n", cfg.Storage.DBPath)
	fmt.Fprintf(w, "  roster_path      = %s\n", cfg.Storage.RosterPath)
	fmt.Fprintf(w, "  counters         = %s\n", cfg.Storage.Counters)
	fmt.Fprintln(w, "\n[log]")
	fmt.Fprintf(w, "  level            = %s\n", cfg.Log.Level)
}

// input returns the shared reader of the standard input.
func (a *App) input() *bufio.Reader {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	return a.reader
}

func (a *App) promptYesNo(question string) bool {
	fmt.Fprintf(a.out, "%s [y/N]: ", question)
	input, _ := a.input().ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func (a *App) promptValue(reader *bufio.Reader, label, current string) string {
	if current == "" {
		fmt.Fprintf(a.out, "  %s: ", label)
	} else {
		fmt.Fprintf(a.out, "  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func (a *App) promptInt(reader *bufio.Reader, label string, current int) int {
	for {
		value := a.promptValue(reader, label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		fmt.Fprintf(a.out, "  Invalid number %q.\n", value)
	}
}

package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/agenda/internal/calendar"
	"github.com/javiermolinar/agenda/internal/config"
	"github.com/javiermolinar/agenda/internal/db"
	"github.com/javiermolinar/agenda/internal/logging"
	"github.com/javiermolinar/agenda/internal/roster"
	"github.com/javiermolinar/agenda/internal/workbook"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// DebugLogPath is where --debug writes the log.
const DebugLogPath = "agenda-debug.log"

// App holds the CLI application state.
type App struct {
	config     *config.Config
	configPath string
	root       *cobra.Command
	debug      bool // Enable debug logging

	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer

	logger  *slog.Logger
	logFile *os.File

	// Stores are opened on first use.
	wb     *workbook.Workbook
	store  *db.SQLite
	roster *roster.YAMLRoster
}

// NewApp creates a new CLI application. A nil cfg is loaded from --config.
func NewApp(cfg *config.Config) *App {
	a := &App{
		config: cfg,
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}

	a.root = &cobra.Command{
		Use:   "agenda",
		Short: "Weekly reservation calendar of a shared workshop",
		Long: `Agenda keeps the reservation calendar of a shared workshop up to date.

Each run rebuilds the coming weeks from the opening rules, keeps the names
already written in the slots and counts the slots that went by.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	// Add global flags
	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to "+DebugLogPath+")")
	a.root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultConfigPath(), "Config file")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.generateCmd())
	a.root.AddCommand(a.showCmd())
	a.root.AddCommand(a.peopleCmd())
	a.root.AddCommand(a.weekCmd())
	a.root.AddCommand(a.countersCmd())
	a.root.AddCommand(a.historyCmd())
	a.root.AddCommand(a.restoreCmd())

	return a
}

// setup loads the configuration and the logger before any command runs.
func (a *App) setup(cmd *cobra.Command) error {
	if a.config == nil || cmd.Flags().Changed("config") {
		cfg, err := config.LoadFrom(a.configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		a.config = cfg
	}

	level := a.config.Log.Level
	w := a.errOut
	if a.debug {
		f, err := os.Create(DebugLogPath)
		if err != nil {
			return fmt.Errorf("creating debug log: %w", err)
		}
		a.logFile = f
		w = f
		level = "debug"
	}

	logger, err := logging.New(level, w)
	if err != nil {
		return err
	}
	a.logger = logger
	cmd.SetContext(logging.ContextWithLogger(cmd.Context(), logger))
	return nil
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "agenda %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// Close releases the stores opened by the commands.
func (a *App) Close() error {
	var errs []error
	if a.wb != nil {
		errs = append(errs, a.wb.Close())
		a.wb = nil
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
		a.logFile = nil
	}
	return errors.Join(errs...)
}

func (a *App) openWorkbook() (*workbook.Workbook, error) {
	if a.wb != nil {
		return a.wb, nil
	}
	wb, err := workbook.Open(a.config.Grid)
	if err != nil {
		return nil, err
	}
	a.wb = wb
	return wb, nil
}

func (a *App) openDB() (*db.SQLite, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := db.New(a.config.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.store = store
	return store, nil
}

func (a *App) openRoster() *roster.YAMLRoster {
	if a.roster == nil {
		a.roster = roster.NewYAMLRoster(a.config.Storage.RosterPath)
	}
	return a.roster
}

// counterStore returns the configured counter backend.
func (a *App) counterStore() (calendar.CounterStore, error) {
	switch a.config.Storage.Counters {
	case config.CountersWorkbook:
		wb, err := a.openWorkbook()
		if err != nil {
			return nil, err
		}
		return wb.Counters(), nil
	default:
		return a.openDB()
	}
}

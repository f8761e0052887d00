// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Counter storage backends.
const (
	CountersSQLite   = "sqlite"
	CountersWorkbook = "workbook"
)

// Config holds the application configuration.
type Config struct {
	Calendar CalendarConfig `toml:"calendar"`
	Grid     GridConfig     `toml:"grid"`
	Storage  StorageConfig  `toml:"storage"`
	Log      LogConfig      `toml:"log"`
}

// CalendarConfig holds the opening rules and display parameters of the calendar.
type CalendarConfig struct {
	WeeksToDisplay   int              `toml:"weeks_to_display"`
	WeekEndDay       int              `toml:"week_end_day"` // 0..7, the calendar jumps 7-week_end_day days ahead
	FreeLabel        string           `toml:"free_label"`
	UnavailableLabel string           `toml:"unavailable_label"`
	Timezone         string           `toml:"timezone"` // IANA name, empty means local time
	KeepData         bool             `toml:"keep_data"`
	UpdatePastDays   bool             `toml:"update_past_days"`
	Categories       []CategoryConfig `toml:"categories"`
	Openings         []OpeningConfig  `toml:"openings"`
	SelfOpenings     []OpeningConfig  `toml:"self_openings"`
	Closures         []ClosureConfig  `toml:"closures"`
}

// CategoryConfig names a group of slot columns, e.g. the wheel throwers.
type CategoryConfig struct {
	Name  string   `toml:"name"`
	Slots []string `toml:"slots"`
}

// OpeningConfig is one row of an opening table.
type OpeningConfig struct {
	Day   string `toml:"day"`   // French weekday name, e.g. "Mardi"
	Begin string `toml:"begin"` // e.g. "9h", "13h30"
	End   string `toml:"end"`
	Color string `toml:"color,omitempty"`
}

// ClosureConfig is one row of the closed periods table.
type ClosureConfig struct {
	BeginDay  string `toml:"begin_day"` // "D[/M[/YY]]"
	BeginHour string `toml:"begin_hour,omitempty"`
	EndDay    string `toml:"end_day,omitempty"`
	EndHour   string `toml:"end_hour,omitempty"`
}

// GridConfig locates the calendar inside the workbook.
type GridConfig struct {
	Workbook     string `toml:"workbook"`
	Sheet        string `toml:"sheet"`
	SaveSheet    string `toml:"save_sheet"`
	PeopleSheet  string `toml:"people_sheet"`
	CounterSheet string `toml:"counter_sheet"`
	HeaderRow    int    `toml:"header_row"`
	FirstRow     int    `toml:"first_row"`
	Capacity     int    `toml:"capacity"`
	MarkerCell   string `toml:"marker_cell"`
}

// StorageConfig holds database and roster settings.
type StorageConfig struct {
	DBPath     string `toml:"db_path"`
	RosterPath string `toml:"roster_path"`
	Counters   string `toml:"counters"` // "sqlite" or "workbook"
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Calendar: CalendarConfig{
			WeeksToDisplay:   4,
			WeekEndDay:       5,
			FreeLabel:        "Libre",
			UnavailableLabel: "Indisponible",
			KeepData:         true,
			UpdatePastDays:   true,
			Categories: []CategoryConfig{
				{Name: "Tourneurs", Slots: []string{"Tour 1", "Tour 2", "Tour 3"}},
				{Name: "Modeleurs", Slots: []string{"Table 1", "Table 2"}},
				{Name: "Autres", Slots: []string{"Émaillage"}},
			},
			Openings: []OpeningConfig{
				{Day: "Mardi", Begin: "9h", End: "12h"},
				{Day: "Jeudi", Begin: "14h", End: "17h"},
			},
			SelfOpenings: []OpeningConfig{
				{Day: "Samedi", Begin: "10h", End: "13h"},
			},
		},
		Grid: GridConfig{
			Workbook:     defaultDataPath("agenda.xlsx"),
			Sheet:        "Calendrier",
			SaveSheet:    "SaveData",
			PeopleSheet:  "Inscrits",
			CounterSheet: "Compteurs",
			HeaderRow:    2,
			FirstRow:     3,
			Capacity:     120,
			MarkerCell:   "F1",
		},
		Storage: StorageConfig{
			DBPath:     defaultDataPath("agenda.db"),
			RosterPath: defaultDataPath("roster.yaml"),
			Counters:   CountersSQLite,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// defaultDataPath returns the default location of a data file.
func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".local", "share", "agenda", name)
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "agenda", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Grid.Workbook = expandPath(cfg.Grid.Workbook)
	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Storage.RosterPath = expandPath(cfg.Storage.RosterPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	// Rule tables given in the file replace the defaults instead of extending them.
	var tables struct {
		Calendar struct {
			Categories   []CategoryConfig `toml:"categories"`
			Openings     []OpeningConfig  `toml:"openings"`
			SelfOpenings []OpeningConfig  `toml:"self_openings"`
			Closures     []ClosureConfig  `toml:"closures"`
		} `toml:"calendar"`
	}
	if err := toml.Unmarshal(data, &tables); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	defaults := Default().Calendar
	cfg.Calendar.Categories = defaults.Categories
	if tables.Calendar.Categories != nil {
		cfg.Calendar.Categories = tables.Calendar.Categories
	}
	cfg.Calendar.Openings = defaults.Openings
	cfg.Calendar.SelfOpenings = defaults.SelfOpenings
	if tables.Calendar.Openings != nil || tables.Calendar.SelfOpenings != nil {
		cfg.Calendar.Openings = tables.Calendar.Openings
		cfg.Calendar.SelfOpenings = tables.Calendar.SelfOpenings
	}
	cfg.Calendar.Closures = tables.Calendar.Closures

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("AGENDA_WEEKS"); v != "" {
		weeks, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AGENDA_WEEKS: %w", err)
		}
		cfg.Calendar.WeeksToDisplay = weeks
	}
	if v := os.Getenv("AGENDA_TIMEZONE"); v != "" {
		cfg.Calendar.Timezone = v
	}

	if v := os.Getenv("AGENDA_WORKBOOK"); v != "" {
		cfg.Grid.Workbook = v
	}

	if v := os.Getenv("AGENDA_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("AGENDA_ROSTER_PATH"); v != "" {
		cfg.Storage.RosterPath = v
	}
	if v := os.Getenv("AGENDA_COUNTERS"); v != "" {
		cfg.Storage.Counters = v
	}

	if v := os.Getenv("AGENDA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
// Rule tables are only checked for shape here; their values are parsed by the calendar package.
func (c *Config) Validate() error {
	cal := c.Calendar
	if cal.WeeksToDisplay < 1 {
		return errors.New("weeks_to_display must be at least 1")
	}
	if cal.WeekEndDay < 0 || cal.WeekEndDay > 7 {
		return fmt.Errorf("week_end_day must be between 0 and 7, got %d", cal.WeekEndDay)
	}
	if cal.FreeLabel == "" {
		return errors.New("free_label must be set")
	}
	if cal.FreeLabel == cal.UnavailableLabel {
		return errors.New("free_label and unavailable_label must differ")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	slots := 0
	for _, cat := range cal.Categories {
		if cat.Name == "" {
			return errors.New("category name must be set")
		}
		slots += len(cat.Slots)
	}
	if slots == 0 {
		return errors.New("at least one slot must be configured")
	}

	for i, o := range append(append([]OpeningConfig{}, cal.Openings...), cal.SelfOpenings...) {
		if o.Day == "" || o.Begin == "" || o.End == "" {
			return fmt.Errorf("opening %d: day, begin and end must be set", i+1)
		}
	}
	for i, cl := range cal.Closures {
		if cl.BeginDay == "" {
			return fmt.Errorf("closure %d: begin_day must be set", i+1)
		}
	}

	if c.Grid.Workbook == "" {
		return errors.New("workbook must be set")
	}
	if c.Grid.Sheet == "" || c.Grid.SaveSheet == "" || c.Grid.PeopleSheet == "" {
		return errors.New("sheet, save_sheet and people_sheet must be set")
	}
	if c.Grid.Sheet == c.Grid.SaveSheet {
		return errors.New("sheet and save_sheet must differ")
	}
	if c.Grid.HeaderRow < 1 || c.Grid.FirstRow <= c.Grid.HeaderRow {
		return errors.New("first_row must be below header_row")
	}
	if c.Grid.Capacity < 1 {
		return errors.New("capacity must be at least 1")
	}

	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if c.Storage.RosterPath == "" {
		return errors.New("roster_path must be set")
	}
	switch c.Storage.Counters {
	case CountersSQLite:
	case CountersWorkbook:
		if c.Grid.CounterSheet == "" {
			return errors.New("counter_sheet must be set when counters are stored in the workbook")
		}
	default:
		return fmt.Errorf("invalid counters backend: %s", c.Storage.Counters)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	return nil
}

// Location returns the time zone the calendar is computed in.
func (c *Config) Location() (*time.Location, error) {
	if c.Calendar.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Calendar.Timezone, err)
	}
	return loc, nil
}

// SlotCount returns the number of slot columns across all categories.
func (c *Config) SlotCount() int {
	n := 0
	for _, cat := range c.Calendar.Categories {
		n += len(cat.Slots)
	}
	return n
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Package regen runs one regeneration of the calendar: read the current
// grid, build the new one in memory, then commit it or restore the previous
// grid.
package regen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javiermolinar/agenda/internal/calendar"
	"github.com/javiermolinar/agenda/internal/config"
	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/logging"
)

var (
	// ErrCapacityExceeded is returned when the generated grid does not fit
	// the configured region. Nothing has been written.
	ErrCapacityExceeded = calendar.ErrCapacityExceeded

	// ErrRestored is returned when the write phase failed and the previous
	// grid was put back.
	ErrRestored = errors.New("writing the calendar failed, previous calendar restored")

	// ErrRestoreFailed is returned when the previous grid could not be put back.
	ErrRestoreFailed = errors.New("restoring the previous calendar failed")
)

// Messages shown to the operators.
const (
	MsgStarted       = "Mise à jour démarrée, ne pas fermer la page."
	MsgDone          = "Mise à jour terminée !"
	MsgRestored      = "Erreur pendant l'insertion des valeurs, sauvegarde restaurée."
	MsgAborted       = "Calendrier non modifié."
	MarkerInProgress = "MISE À JOUR EN COURS, PATIENTEZ"
	MarkerError      = "Erreur, prévenir un responsable, ne rien toucher."
)

// Deps are the stores a run reads and writes. Grid and Roster are required.
type Deps struct {
	Grid     calendar.GridStore
	People   calendar.PeoplePublisher
	Roster   calendar.RosterStore
	Counters calendar.CounterStore
	Journal  calendar.Journal
	Notifier calendar.Notifier
	Logger   *slog.Logger
}

// Options adjust one run.
type Options struct {
	Now    time.Time // zero means time.Now()
	Weeks  int       // overrides weeks_to_display when > 0
	NoKeep bool      // ignore the previous grid
	DryRun bool      // build only, write nothing
}

// Result describes a run.
type Result struct {
	ID       string
	Status   string
	Today    time.Time
	Weeks    []dateutil.YearWeek
	Rows     []calendar.GridRow // generated rows, without padding
	Grid     [][]string         // rendered region, padded to capacity
	Region   calendar.Region
	Carried  int
	Closed   int
	Unparsed int
	Credit   calendar.Credit
	Lost     []calendar.Lost
}

// RegionFor returns the grid region of the configuration.
func RegionFor(cfg config.GridConfig, s *calendar.Schedule) calendar.Region {
	return calendar.Region{
		Sheet:     cfg.Sheet,
		HeaderRow: cfg.HeaderRow,
		FirstRow:  cfg.FirstRow,
		Capacity:  cfg.Capacity,
		Width:     s.Width(),
	}
}

// NewSchedule applies opts to the calendar configuration and parses it in
// the configured time zone.
func NewSchedule(cfg *config.Config, opts Options) (*calendar.Schedule, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(loc)

	cal := cfg.Calendar
	if opts.Weeks > 0 {
		cal.WeeksToDisplay = opts.Weeks
	}
	if opts.NoKeep {
		cal.KeepData = false
	}

	s, err := calendar.NewSchedule(cal, now)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar rules: %w", err)
	}
	return s, nil
}

type runner struct {
	deps     Deps
	logger   *slog.Logger
	schedule *calendar.Schedule
	region   calendar.Region
	result   *Result
	started  time.Time

	snapshot [][]string
	original *calendar.Counters // counters as loaded, nil when not updated
	updated  *calendar.Counters
	touched  bool // SaveCounters was called
}

// Run regenerates the calendar.
//
// The current grid is read once and backed up, the new grid and counters are
// built in memory, then written. If any write fails the previous grid and
// counters are written back and ErrRestored is returned.
func Run(ctx context.Context, cfg *config.Config, deps Deps, opts Options) (*Result, error) {
	if deps.Grid == nil || deps.Roster == nil {
		return nil, errors.New("grid and roster stores are required")
	}

	schedule, err := NewSchedule(cfg, opts)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	r := &runner{
		deps:     deps,
		schedule: schedule,
		region:   RegionFor(cfg.Grid, schedule),
		started:  time.Now(),
		result: &Result{
			ID:     uuid.NewString(),
			Status: calendar.RunAborted,
			Today:  schedule.Today,
		},
	}
	r.logger = logger.With("run", r.result.ID)
	r.result.Region = r.region

	r.logger.Info("regeneration started",
		"today", schedule.Today.Format(time.DateOnly),
		"weeks", schedule.WeeksToDisplay,
		"keep_data", schedule.KeepData,
		"dry_run", opts.DryRun,
	)
	if !opts.DryRun {
		r.info(MsgStarted)
	}

	if err := r.prepare(ctx, opts.DryRun); err != nil {
		return r.abort(ctx, err, opts.DryRun)
	}
	if err := r.build(); err != nil {
		return r.abort(ctx, err, opts.DryRun)
	}

	if opts.DryRun {
		r.logger.Info("dry run, nothing written", "rows", len(r.result.Rows))
		return r.result, nil
	}

	if err := r.commit(ctx); err != nil {
		r.logger.Error("write failed, restoring previous calendar", "err", err)
		if restoreErr := r.restore(ctx); restoreErr != nil {
			r.logger.Error("restore failed", "err", restoreErr)
			r.finish(ctx, calendar.RunRestored, err)
			r.fail(MsgRestored, restoreErr)
			return r.result, fmt.Errorf("%w: %v (write error: %v)", ErrRestoreFailed, restoreErr, err)
		}
		r.finish(ctx, calendar.RunRestored, err)
		r.fail(MsgRestored, err)
		return r.result, fmt.Errorf("%w: %v", ErrRestored, err)
	}

	r.finish(ctx, calendar.RunSucceeded, nil)
	r.info(MsgDone)
	return r.result, nil
}

// prepare sets the in-progress marker, refreshes the people list and takes
// the snapshot of the current grid.
func (r *runner) prepare(ctx context.Context, dryRun bool) error {
	if !dryRun {
		if err := r.deps.Grid.SetMarker(ctx, MarkerInProgress); err != nil {
			return fmt.Errorf("setting marker: %w", err)
		}
	}

	people, err := r.deps.Roster.ListPeople(ctx)
	if err != nil {
		return fmt.Errorf("listing people: %w", err)
	}
	if !dryRun && r.deps.People != nil {
		if err := r.deps.People.PublishPeople(ctx, r.schedule.PeopleColumn(people)); err != nil {
			return fmt.Errorf("publishing people: %w", err)
		}
	}

	r.snapshot, err = r.deps.Grid.ReadRows(ctx, r.region)
	if err != nil {
		return fmt.Errorf("reading calendar: %w", err)
	}
	if !dryRun {
		if err := r.deps.Grid.SaveBackup(ctx, r.snapshot); err != nil {
			return fmt.Errorf("saving backup: %w", err)
		}
	}

	if r.deps.Counters != nil && r.schedule.UpdatePastDays {
		r.original, err = r.deps.Counters.LoadCounters(ctx, people, r.schedule.CategoryNames())
		if err != nil {
			return fmt.Errorf("loading counters: %w", err)
		}
		r.updated = r.original.Clone()
	}
	return nil
}

// build computes the new grid and counters without touching any store.
func (r *runner) build() error {
	s := r.schedule

	// The previous grid is indexed even when it is not carried over: its past
	// entries still count.
	saved := calendar.IndexSaved(r.snapshot, s.Today)
	r.result.Unparsed = saved.Skipped
	if saved.Skipped > 0 {
		r.logger.Warn("saved rows skipped", "count", saved.Skipped)
	}

	run := calendar.NewRun(s, saved, r.updated, r.logger)
	rows := calendar.Generate(run)
	padded, err := calendar.Pad(rows, r.region.Capacity)
	if err != nil {
		return err
	}

	r.result.Weeks = run.Weeks()
	r.result.Rows = rows
	r.result.Grid = calendar.Render(padded, r.region.Width)
	r.result.Carried = run.Carried
	r.result.Closed = run.Skipped
	r.result.Credit = run.CreditPast(s.Today)

	if s.KeepData {
		r.result.Lost = saved.LostReservations(s, s.Today)
		for _, e := range r.result.Lost {
			msg := fmt.Sprintf("Créneau supprimé avec des inscrits : %s %s (%s)", e.Day, e.Hour, strings.Join(e.Dropped, ", "))
			r.logger.Warn("reservation dropped", "day", e.Day, "hour", e.Hour, "names", e.Dropped)
			if r.deps.Notifier != nil {
				r.deps.Notifier.Log(msg)
			}
		}
	}

	r.logger.Debug("calendar built",
		"rows", len(rows),
		"carried", run.Carried,
		"closed", run.Skipped,
		"credited", r.result.Credit.Slots,
		"unknown_names", r.result.Credit.Unknown,
	)
	return nil
}

// commit is the write phase. The grid is persisted before the counters.
func (r *runner) commit(ctx context.Context) error {
	g := r.deps.Grid
	if err := g.ClearRegion(ctx, r.region); err != nil {
		return fmt.Errorf("clearing calendar: %w", err)
	}
	if err := g.WriteHeader(ctx, r.region, r.schedule.SlotNames()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := g.WriteRows(ctx, r.region, r.result.Grid); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	if err := g.SetMarker(ctx, ""); err != nil {
		return fmt.Errorf("clearing marker: %w", err)
	}
	if err := g.Flush(ctx); err != nil {
		return fmt.Errorf("saving calendar: %w", err)
	}

	if r.updated == nil {
		return nil
	}
	r.touched = true
	if err := r.deps.Counters.SaveCounters(ctx, r.updated); err != nil {
		return fmt.Errorf("saving counters: %w", err)
	}
	if err := g.Flush(ctx); err != nil {
		return fmt.Errorf("saving counters: %w", err)
	}
	return nil
}

// restore writes the snapshot back verbatim, puts back the counters as they
// were loaded and sets the error marker.
func (r *runner) restore(ctx context.Context) error {
	// The run context may be the reason of the failure.
	ctx = context.WithoutCancel(ctx)

	g := r.deps.Grid
	var errs []error
	if err := g.ClearRegion(ctx, r.region); err != nil {
		errs = append(errs, fmt.Errorf("clearing calendar: %w", err))
	}
	if err := g.WriteRows(ctx, r.region, r.snapshot); err != nil {
		errs = append(errs, fmt.Errorf("writing snapshot: %w", err))
	}
	if r.touched {
		if err := r.deps.Counters.SaveCounters(ctx, r.original); err != nil {
			errs = append(errs, fmt.Errorf("restoring counters: %w", err))
		}
	}
	if err := g.SetMarker(ctx, MarkerError); err != nil {
		errs = append(errs, fmt.Errorf("setting marker: %w", err))
	}
	if err := g.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("saving: %w", err))
	}
	return errors.Join(errs...)
}

// abort ends a run that failed before any destructive write.
func (r *runner) abort(ctx context.Context, cause error, dryRun bool) (*Result, error) {
	r.logger.Error("regeneration aborted", "err", cause)
	if dryRun {
		return r.result, cause
	}

	ctx = context.WithoutCancel(ctx)
	if err := r.deps.Grid.SetMarker(ctx, ""); err != nil {
		r.logger.Warn("clearing marker failed", "err", err)
	} else if err := r.deps.Grid.Flush(ctx); err != nil {
		r.logger.Warn("saving after abort failed", "err", err)
	}

	r.finish(ctx, calendar.RunAborted, cause)
	r.fail(MsgAborted, cause)
	return r.result, cause
}

// finish records the run in the journal. Journal failures are only logged.
func (r *runner) finish(ctx context.Context, status string, cause error) {
	r.result.Status = status
	r.logger.Info("regeneration finished", "status", status, "duration", time.Since(r.started).Round(time.Millisecond))

	if r.deps.Journal == nil {
		return
	}
	rec := calendar.RunRecord{
		ID:         r.result.ID,
		StartedAt:  r.started,
		FinishedAt: time.Now(),
		Today:      r.schedule.Today,
		Weeks:      r.schedule.WeeksToDisplay,
		Rows:       len(r.result.Rows),
		Carried:    r.result.Carried,
		Credited:   r.result.Credit.Slots,
		Lost:       len(r.result.Lost),
		Status:     status,
	}
	if cause != nil {
		rec.Error = cause.Error()
	}
	if err := r.deps.Journal.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
		r.logger.Warn("recording run failed", "err", err)
	}
}

func (r *runner) info(msg string) {
	if r.deps.Notifier != nil {
		r.deps.Notifier.Info(msg)
	}
}

func (r *runner) fail(msg string, err error) {
	if r.deps.Notifier != nil {
		r.deps.Notifier.Err(msg, err)
	}
}

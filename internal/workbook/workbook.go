// Package workbook stores the calendar grid, its backup, the public people
// list and optionally the counters in an .xlsx workbook.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/javiermolinar/agenda/internal/calendar"
	"github.com/javiermolinar/agenda/internal/config"
)

var ErrRegionOverflow = errors.New("rows do not fit in the region")

// Workbook implements calendar.GridStore and calendar.PeoplePublisher.
// Changes stay in memory until Flush.
type Workbook struct {
	path   string
	layout config.GridConfig
	file   *excelize.File
	mu     sync.Mutex
}

// Open opens the workbook at cfg.Workbook, creating it when missing, and
// makes sure every configured sheet exists.
func Open(cfg config.GridConfig) (*Workbook, error) {
	var (
		f       *excelize.File
		err     error
		created bool
	)
	if _, statErr := os.Stat(cfg.Workbook); statErr == nil {
		f, err = excelize.OpenFile(cfg.Workbook)
		if err != nil {
			return nil, fmt.Errorf("opening workbook: %w", err)
		}
	} else if os.IsNotExist(statErr) {
		f = excelize.NewFile()
		created = true
	} else {
		return nil, fmt.Errorf("opening workbook: %w", statErr)
	}

	w := &Workbook{path: cfg.Workbook, layout: cfg, file: f}
	for _, name := range []string{cfg.Sheet, cfg.SaveSheet, cfg.PeopleSheet, cfg.CounterSheet} {
		if err := w.ensureSheet(name); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	// A new file comes with a default sheet nobody uses.
	if idx, err := f.GetSheetIndex("Sheet1"); created && err == nil && idx >= 0 && !w.isConfigured("Sheet1") {
		_ = f.DeleteSheet("Sheet1")
	}
	if idx, err := f.GetSheetIndex(cfg.Sheet); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	return w, nil
}

// Close releases the workbook without saving.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Path returns the workbook location.
func (w *Workbook) Path() string {
	return w.path
}

func (w *Workbook) isConfigured(name string) bool {
	l := w.layout
	return name == l.Sheet || name == l.SaveSheet || name == l.PeopleSheet || name == l.CounterSheet
}

func (w *Workbook) ensureSheet(name string) error {
	if name == "" {
		return nil
	}
	idx, err := w.file.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("looking up sheet %q: %w", name, err)
	}
	if idx >= 0 {
		return nil
	}
	if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %q: %w", name, err)
	}
	return nil
}

// clearSheet blanks every used cell of a sheet, keeping the sheet in place.
func (w *Workbook) clearSheet(name string) error {
	rows, err := w.file.GetRows(name)
	if err != nil {
		return fmt.Errorf("reading sheet %q: %w", name, err)
	}
	for i, row := range rows {
		if err := w.writeRow(name, i+1, make([]string, len(row))); err != nil {
			return err
		}
	}
	return nil
}

func cell(col, row int) string {
	ref, _ := excelize.CoordinatesToCellName(col, row)
	return ref
}

// filledWidth returns the number of cells of row up to its last non-empty one.
func filledWidth(row []string) int {
	for i := len(row) - 1; i >= 0; i-- {
		if row[i] != "" {
			return i + 1
		}
	}
	return 0
}

// usedWidth returns the width of the region rows as they are in the sheet:
// at least r.Width, more when a larger slot set left values further right.
func usedWidth(all [][]string, r calendar.Region) int {
	width := r.Width
	for i := 0; i < r.Capacity; i++ {
		if src := r.FirstRow - 1 + i; src < len(all) {
			width = max(width, filledWidth(all[src]))
		}
	}
	return width
}

// ReadRows returns the display values of the region. Rows are padded to the
// region width, or to the used width of the sheet when it is larger.
func (w *Workbook) ReadRows(ctx context.Context, r calendar.Region) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	all, err := w.file.GetRows(r.Sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", r.Sheet, err)
	}

	width := usedWidth(all, r)
	rows := make([][]string, r.Capacity)
	for i := range rows {
		row := make([]string, width)
		if src := r.FirstRow - 1 + i; src < len(all) {
			copy(row, all[src])
		}
		rows[i] = row
	}
	return rows, nil
}

// WriteRows writes rows at the top of the region.
func (w *Workbook) WriteRows(ctx context.Context, r calendar.Region, rows [][]string) error {
	if len(rows) > r.Capacity {
		return fmt.Errorf("%w: %d rows for %d", ErrRegionOverflow, len(rows), r.Capacity)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.writeRow(r.Sheet, r.FirstRow+i, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) writeRow(sheet string, rowNum int, values []string) error {
	for j, v := range values {
		if err := w.file.SetCellStr(sheet, cell(j+1, rowNum), v); err != nil {
			return fmt.Errorf("writing %s!%s: %w", sheet, cell(j+1, rowNum), err)
		}
	}
	return nil
}

// ClearRegion empties every cell of the region, including the cells left
// right of it by a larger slot set.
func (w *Workbook) ClearRegion(ctx context.Context, r calendar.Region) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	all, err := w.file.GetRows(r.Sheet)
	if err != nil {
		return fmt.Errorf("reading sheet %q: %w", r.Sheet, err)
	}
	blank := make([]string, usedWidth(all, r))

	for i := 0; i < r.Capacity; i++ {
		if err := w.writeRow(r.Sheet, r.FirstRow+i, blank); err != nil {
			return err
		}
	}
	return nil
}

// WriteHeader writes the slot names on the header row, after the three
// leading columns, and blanks the names of slots that no longer exist.
func (w *Workbook) WriteHeader(ctx context.Context, r calendar.Region, slotNames []string) error {
	values := make([]string, calendar.ColSlot, calendar.ColSlot+len(slotNames))
	values = append(values, slotNames...)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writeRow(r.Sheet, r.HeaderRow, values); err != nil {
		return err
	}
	if err := w.clearHeaderTail(r, len(values)); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if len(slotNames) > 0 {
		first := cell(calendar.ColSlot+1, r.HeaderRow)
		last := cell(calendar.ColSlot+len(slotNames), r.HeaderRow)
		if err := w.file.SetCellStyle(r.Sheet, first, last, style); err != nil {
			return fmt.Errorf("styling header: %w", err)
		}
	}
	return nil
}

// clearHeaderTail empties the header row from column from+1 to its last
// filled cell. The marker cell is left alone.
func (w *Workbook) clearHeaderTail(r calendar.Region, from int) error {
	all, err := w.file.GetRows(r.Sheet)
	if err != nil {
		return fmt.Errorf("reading sheet %q: %w", r.Sheet, err)
	}
	if r.HeaderRow-1 >= len(all) {
		return nil
	}

	for col := from + 1; col <= filledWidth(all[r.HeaderRow-1]); col++ {
		ref := cell(col, r.HeaderRow)
		if ref == w.layout.MarkerCell {
			continue
		}
		if err := w.file.SetCellStr(r.Sheet, ref, ""); err != nil {
			return fmt.Errorf("writing %s!%s: %w", r.Sheet, ref, err)
		}
	}
	return nil
}

// SaveBackup replaces the content of the save sheet with rows.
func (w *Workbook) SaveBackup(ctx context.Context, rows [][]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.clearSheet(w.layout.SaveSheet); err != nil {
		return err
	}
	for i, row := range rows {
		if err := w.writeRow(w.layout.SaveSheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

// ReadBackup returns the rows of the save sheet.
func (w *Workbook) ReadBackup(ctx context.Context) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.file.GetRows(w.layout.SaveSheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", w.layout.SaveSheet, err)
	}
	return rows, nil
}

// SetMarker writes text in the marker cell of the calendar sheet.
func (w *Workbook) SetMarker(ctx context.Context, text string) error {
	if w.layout.MarkerCell == "" {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.SetCellStr(w.layout.Sheet, w.layout.MarkerCell, text); err != nil {
		return fmt.Errorf("writing marker: %w", err)
	}
	return nil
}

// PublishPeople replaces the first column of the people sheet with values.
func (w *Workbook) PublishPeople(ctx context.Context, values []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sheet := w.layout.PeopleSheet
	if err := w.clearSheet(sheet); err != nil {
		return err
	}
	for i, v := range values {
		if err := w.file.SetCellStr(sheet, cell(1, i+1), v); err != nil {
			return fmt.Errorf("writing people list: %w", err)
		}
	}
	return nil
}

// Flush writes the workbook to disk through a temporary file so a crash never
// leaves a truncated workbook behind.
func (w *Workbook) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating workbook directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".agenda-*.xlsx")
	if err != nil {
		return fmt.Errorf("creating temporary workbook: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := w.file.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		return fmt.Errorf("replacing workbook: %w", err)
	}
	return nil
}

package workbook

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/javiermolinar/agenda/internal/calendar"
)

// Counter sheet layout: a title row with "Nom" then, per category, a column
// for supervised openings and one for self-service openings.
const (
	counterNameTitle = "Nom"
	selfSuffix       = " libre"
)

// CounterSheet implements calendar.CounterStore on the counter sheet of a
// workbook. Values are written as text and read back leniently.
type CounterSheet struct {
	wb         *Workbook
	categories []string
}

// Counters returns the counter store backed by this workbook.
func (w *Workbook) Counters() *CounterSheet {
	return &CounterSheet{wb: w}
}

type counterColumn struct {
	category string
	variant  calendar.Variant
}

func parseCounterTitle(title string) (counterColumn, bool) {
	title = strings.TrimSpace(title)
	if title == "" || strings.EqualFold(title, counterNameTitle) {
		return counterColumn{}, false
	}
	if cat, ok := strings.CutSuffix(title, selfSuffix); ok && cat != "" {
		return counterColumn{category: cat, variant: calendar.SelfService}, true
	}
	return counterColumn{category: title, variant: calendar.Regular}, true
}

// LoadCounters reads the counter sheet. People missing from the sheet start
// at zero, rows of people outside the list are ignored.
func (c *CounterSheet) LoadCounters(ctx context.Context, people []string, categories []string) (*calendar.Counters, error) {
	counters := calendar.NewCounters(people)
	for _, p := range counters.People() {
		for _, cat := range categories {
			p.Tally(cat)
		}
	}
	c.categories = append([]string(nil), categories...)

	w := c.wb
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.file.GetRows(w.layout.CounterSheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", w.layout.CounterSheet, err)
	}
	if len(rows) == 0 {
		return counters, nil
	}

	columns := make(map[int]counterColumn)
	for j, title := range rows[0] {
		if col, ok := parseCounterTitle(title); ok {
			columns[j] = col
		}
	}

	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		p := counters.Get(row[0])
		if p == nil {
			continue
		}
		for j, col := range columns {
			if j >= len(row) {
				continue
			}
			t := p.Tally(col.category)
			n := calendar.ParseCount(row[j])
			if col.variant == calendar.SelfService {
				t.PastSelf = n
			} else {
				t.PastRegular = n
			}
		}
	}

	return counters, nil
}

// SaveCounters rewrites the counter sheet. Categories known from the last
// load come first, in that order, followed by any other category.
func (c *CounterSheet) SaveCounters(ctx context.Context, counters *calendar.Counters) error {
	categories := c.columnOrder(counters)

	header := []string{counterNameTitle}
	for _, cat := range categories {
		header = append(header, cat, cat+selfSuffix)
	}

	w := c.wb
	w.mu.Lock()
	defer w.mu.Unlock()

	sheet := w.layout.CounterSheet
	if err := w.clearSheet(sheet); err != nil {
		return err
	}
	if err := w.writeRow(sheet, 1, header); err != nil {
		return err
	}

	for i, p := range counters.People() {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []string{p.Name}
		for _, cat := range categories {
			t, ok := p.PerCategory[cat]
			if !ok {
				row = append(row, "0", "0")
				continue
			}
			row = append(row, strconv.Itoa(t.PastRegular), strconv.Itoa(t.PastSelf))
		}
		if err := w.writeRow(sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (c *CounterSheet) columnOrder(counters *calendar.Counters) []string {
	seen := make(map[string]bool)
	order := make([]string, 0, len(c.categories))
	for _, cat := range c.categories {
		if !seen[cat] {
			seen[cat] = true
			order = append(order, cat)
		}
	}

	var extra []string
	for _, p := range counters.People() {
		for _, cat := range p.Categories() {
			if !seen[cat] {
				seen[cat] = true
				extra = append(extra, cat)
			}
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

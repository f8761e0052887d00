package regen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/javiermolinar/agenda/internal/calendar"
)

var errInjected = errors.New("injected failure")

// fakeGrid keeps the region in memory. failOn makes the nth call of a method
// fail; a failing WriteRows writes half of its rows first.
type fakeGrid struct {
	mu     sync.Mutex
	region [][]string
	header []string
	backup [][]string
	marker string
	failOn map[string]int
	calls  map[string]int
}

func newFakeGrid(capacity, width int, rows [][]string) *fakeGrid {
	g := &fakeGrid{failOn: map[string]int{}, calls: map[string]int{}}
	g.region = blank(capacity, width)
	for i, row := range rows {
		copy(g.region[i], row)
	}
	return g
}

func blank(capacity, width int) [][]string {
	rows := make([][]string, capacity)
	for i := range rows {
		rows[i] = make([]string, width)
	}
	return rows
}

func clone(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (g *fakeGrid) hit(method string) error {
	g.calls[method]++
	if n, ok := g.failOn[method]; ok && g.calls[method] == n {
		return fmt.Errorf("%s: %w", method, errInjected)
	}
	return nil
}

func (g *fakeGrid) snapshot() [][]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return clone(g.region)
}

func (g *fakeGrid) ReadRows(ctx context.Context, r calendar.Region) ([][]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("ReadRows"); err != nil {
		return nil, err
	}
	return clone(g.region), nil
}

func (g *fakeGrid) WriteRows(ctx context.Context, r calendar.Region, rows [][]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	err := g.hit("WriteRows")
	if err != nil {
		rows = rows[:len(rows)/2]
	}
	for i, row := range rows {
		g.region[i] = append([]string(nil), row...)
	}
	return err
}

func (g *fakeGrid) ClearRegion(ctx context.Context, r calendar.Region) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("ClearRegion"); err != nil {
		return err
	}
	g.region = blank(r.Capacity, r.Width)
	return nil
}

func (g *fakeGrid) WriteHeader(ctx context.Context, r calendar.Region, slotNames []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("WriteHeader"); err != nil {
		return err
	}
	g.header = append([]string(nil), slotNames...)
	return nil
}

func (g *fakeGrid) SaveBackup(ctx context.Context, rows [][]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("SaveBackup"); err != nil {
		return err
	}
	g.backup = clone(rows)
	return nil
}

func (g *fakeGrid) SetMarker(ctx context.Context, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.hit("SetMarker"); err != nil {
		return err
	}
	g.marker = text
	return nil
}

func (g *fakeGrid) Flush(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hit("Flush")
}

type fakePeople struct {
	values []string
	calls  int
}

func (p *fakePeople) PublishPeople(ctx context.Context, values []string) error {
	p.calls++
	p.values = append([]string(nil), values...)
	return nil
}

type fakeRoster []string

func (r fakeRoster) ListPeople(ctx context.Context) ([]string, error) {
	return append([]string(nil), r...), nil
}

// fakeCounters stores counters as plain values so tests can compare states.
type fakeCounters struct {
	stored map[string]calendar.Tally // "name/category"
	failOn int
	calls  int
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{stored: map[string]calendar.Tally{}}
}

func (f *fakeCounters) LoadCounters(ctx context.Context, people []string, categories []string) (*calendar.Counters, error) {
	c := calendar.NewCounters(people)
	for _, p := range c.People() {
		for _, cat := range categories {
			p.Tally(cat)
		}
	}
	for key, t := range f.stored {
		name, cat, _ := strings.Cut(key, "/")
		c.Set(name, cat, calendar.Regular, t.PastRegular)
		c.Set(name, cat, calendar.SelfService, t.PastSelf)
	}
	return c, nil
}

func (f *fakeCounters) SaveCounters(ctx context.Context, c *calendar.Counters) error {
	f.calls++
	if f.failOn == f.calls {
		return fmt.Errorf("SaveCounters: %w", errInjected)
	}
	stored := map[string]calendar.Tally{}
	for _, p := range c.People() {
		for _, cat := range p.Categories() {
			stored[p.Name+"/"+cat] = *p.PerCategory[cat]
		}
	}
	f.stored = stored
	return nil
}

func (f *fakeCounters) get(name, cat string) calendar.Tally {
	return f.stored[name+"/"+cat]
}

type fakeJournal struct {
	runs []calendar.RunRecord
}

func (j *fakeJournal) RecordRun(ctx context.Context, rec calendar.RunRecord) error {
	j.runs = append(j.runs, rec)
	return nil
}

func (j *fakeJournal) ListRuns(ctx context.Context, limit int) ([]calendar.RunRecord, error) {
	return j.runs, nil
}

type fakeNotifier struct {
	infos []string
	logs  []string
	errs  []string
}

func (n *fakeNotifier) Info(msg string)           { n.infos = append(n.infos, msg) }
func (n *fakeNotifier) Log(msg string)            { n.logs = append(n.logs, msg) }
func (n *fakeNotifier) Err(msg string, err error) { n.errs = append(n.errs, msg) }

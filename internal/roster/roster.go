// Package roster stores the registered people in a YAML file.
package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/javiermolinar/agenda/internal/calendar"
)

var (
	ErrEmptyName      = errors.New("name must not be empty")
	ErrPersonExists   = errors.New("person already registered")
	ErrPersonNotFound = errors.New("person not found")
)

// File is the on-disk layout of the roster.
type File struct {
	People []string `yaml:"people"`
}

// YAMLRoster implements calendar.RosterStore on a YAML file.
type YAMLRoster struct {
	path  string
	mutex sync.RWMutex
}

// NewYAMLRoster returns a roster stored at path. The file is created on the
// first write.
func NewYAMLRoster(path string) *YAMLRoster {
	return &YAMLRoster{path: path}
}

// Path returns the location of the roster file.
func (r *YAMLRoster) Path() string {
	return r.path
}

// ListPeople returns the registered names in file order. A missing file is an
// empty roster.
func (r *YAMLRoster) ListPeople(ctx context.Context) ([]string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.loadUnsafe()
}

// Add registers one person.
func (r *YAMLRoster) Add(ctx context.Context, name string) error {
	name = calendar.FormatName(name)
	if name == "" {
		return ErrEmptyName
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	people, err := r.loadUnsafe()
	if err != nil {
		return err
	}
	for _, p := range people {
		if p == name {
			return fmt.Errorf("%w: %s", ErrPersonExists, name)
		}
	}

	return r.saveUnsafe(append(people, name))
}

// Remove unregisters one person.
func (r *YAMLRoster) Remove(ctx context.Context, name string) error {
	name = calendar.FormatName(name)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	people, err := r.loadUnsafe()
	if err != nil {
		return err
	}
	for i, p := range people {
		if p == name {
			people = append(people[:i], people[i+1:]...)
			return r.saveUnsafe(people)
		}
	}

	return fmt.Errorf("%w: %s", ErrPersonNotFound, name)
}

// Merge registers every name not already present and returns how many were added.
func (r *YAMLRoster) Merge(ctx context.Context, names []string) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	people, err := r.loadUnsafe()
	if err != nil {
		return 0, err
	}

	known := make(map[string]bool, len(people))
	for _, p := range people {
		known[p] = true
	}

	added := 0
	for _, n := range names {
		n = calendar.FormatName(n)
		if n == "" || known[n] {
			continue
		}
		known[n] = true
		people = append(people, n)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	return added, r.saveUnsafe(people)
}

func (r *YAMLRoster) loadUnsafe() ([]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}

	people := make([]string, 0, len(f.People))
	for _, p := range f.People {
		if p = calendar.FormatName(p); p != "" {
			people = append(people, p)
		}
	}
	return people, nil
}

func (r *YAMLRoster) saveUnsafe(people []string) error {
	data, err := yaml.Marshal(File{People: people})
	if err != nil {
		return fmt.Errorf("encoding roster: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("creating roster directory: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("writing roster: %w", err)
	}

	return nil
}

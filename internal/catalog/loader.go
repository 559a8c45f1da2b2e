// Package catalog holds the read-only tutorial content: modules, their steps and their quizzes.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a module id is not part of the catalog.
var ErrNotFound = errors.New("module not found")

//go:embed content/*.yaml
var embedded embed.FS

// Catalog is the immutable set of modules, indexed by id.
type Catalog struct {
	modules map[int]Module
	ordered []Module
}

// Embedded loads the catalog that ships with the binary.
func Embedded() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "content")
	if err != nil {
		return nil, fmt.Errorf("opening embedded content: %w", err)
	}
	return Load(sub)
}

// LoadDir loads every module YAML file below rootDir.
func LoadDir(rootDir string) (*Catalog, error) {
	return Load(os.DirFS(rootDir))
}

// Load reads module YAML documents from fsys and validates the result.
func Load(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{modules: make(map[int]Module)}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		return c.loadModule(fsys, p)
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	slog.Info("catalog loaded", "modules", len(c.ordered))
	return c, nil
}

// New builds a catalog from in-memory modules, applying the same validation as Load.
func New(modules ...Module) (*Catalog, error) {
	c := &Catalog{modules: make(map[int]Module, len(modules))}
	for _, m := range modules {
		if _, dup := c.modules[m.ID]; dup {
			return nil, fmt.Errorf("duplicate module id %d", m.ID)
		}
		c.modules[m.ID] = m
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the module with the given id.
func (c *Catalog) Get(id int) (Module, error) {
	m, ok := c.modules[id]
	if !ok {
		return Module{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return m, nil
}

// All returns every module ordered by id.
func (c *Catalog) All() []Module {
	return append([]Module(nil), c.ordered...)
}

// Len returns the number of modules.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

func (c *Catalog) loadModule(fsys fs.FS, p string) error {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return err
	}

	var m Module
	if err := yaml.Unmarshal(data, &m); err != nil {
		slog.Warn("skipping invalid module YAML", "path", p, "error", err)
		return nil
	}

	if m.ID == 0 {
		return nil // Not a module file
	}
	if _, dup := c.modules[m.ID]; dup {
		return fmt.Errorf("duplicate module id %d in %s", m.ID, p)
	}

	c.modules[m.ID] = m
	return nil
}

func (c *Catalog) validate() error {
	c.ordered = make([]Module, 0, len(c.modules))
	for _, m := range c.modules {
		if err := validateModule(m); err != nil {
			return fmt.Errorf("module %d: %w", m.ID, err)
		}
		c.ordered = append(c.ordered, m)
	}
	sort.Slice(c.ordered, func(i, j int) bool {
		return c.ordered[i].ID < c.ordered[j].ID
	})

	// Unlocking walks ids in sequence, so a gap would strand every later module.
	for i, m := range c.ordered {
		if m.ID != i+1 {
			return fmt.Errorf("module ids must be contiguous from 1: found %d at position %d", m.ID, i+1)
		}
	}
	return nil
}

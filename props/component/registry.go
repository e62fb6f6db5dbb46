package component

import (
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/jacerider/neo-alchemist/internal/debug"
)

// Lookup finds components by ID.
type Lookup interface {
	Find(id string) (*Component, error)
}

// Registry holds component definitions. When two definitions share an ID,
// the one with the higher version wins.
type Registry struct {
	mu         sync.RWMutex
	components map[string]*Component
	fs         afero.Fs
	dir        string
	log        *slog.Logger
}

var _ Lookup = (*Registry)(nil)

// NewRegistry creates a registry holding the given components.
func NewRegistry(components ...*Component) *Registry {
	r := &Registry{components: make(map[string]*Component), log: debug.Component("component")}
	for _, c := range components {
		r.Register(c)
	}
	return r
}

// LoadDir creates a registry from every definition file below dir.
func LoadDir(fsys afero.Fs, dir string) (*Registry, error) {
	r := NewRegistry()
	r.fs, r.dir = fsys, dir
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds a component unless a higher version is already present.
// It reports whether the component was kept.
func (r *Registry) Register(c *Component) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return register(r.components, c, r.log)
}

func register(components map[string]*Component, c *Component, log *slog.Logger) bool {
	if existing, ok := components[c.ID]; ok && existing.Version != nil && c.Version != nil && existing.Version.GreaterThan(c.Version) {
		log.Debug("keeping newer component", "id", c.ID, "kept", existing.Version, "skipped", c.Version)
		return false
	}
	components[c.ID] = c
	return true
}

// Reload re-reads the directory the registry was loaded from. On error the
// previous definitions stay in place.
func (r *Registry) Reload() error {
	if r.fs == nil {
		return nil
	}
	loaded := make(map[string]*Component)
	err := afero.Walk(r.fs, r.dir, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(p, FileSuffix) {
			return nil
		}
		data, err := afero.ReadFile(r.fs, p)
		if err != nil {
			return err
		}
		c, err := Parse(data, IDFromPath(p))
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		c.Source = p
		register(loaded, c, r.log)
		return nil
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.components = loaded
	r.mu.Unlock()
	r.log.Debug("loaded components", "dir", r.dir, "count", len(loaded))
	return nil
}

// Dir returns the directory the registry was loaded from.
func (r *Registry) Dir() string { return r.dir }

func (r *Registry) Find(id string) (*Component, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c, nil
}

// IDs lists the registered components in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.components))
	for id := range r.components {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

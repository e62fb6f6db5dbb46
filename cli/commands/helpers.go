package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/jacerider/neo-alchemist/cli/internal/config"
	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/content/fieldtype"
	"github.com/jacerider/neo-alchemist/content/memory"
	"github.com/jacerider/neo-alchemist/content/sqlstore"
	"github.com/jacerider/neo-alchemist/internal/debug"
	"github.com/jacerider/neo-alchemist/props"
	"github.com/jacerider/neo-alchemist/props/component"
	"github.com/jacerider/neo-alchemist/props/propshape"
)

// workspace is everything a command needs, built from the configuration.
type workspace struct {
	engine     *props.Engine
	components *component.Registry
	loader     content.EntityLoader
	close      func() error
}

func (w *workspace) Close() error {
	if w.close == nil {
		return nil
	}
	return w.close()
}

func openWorkspace(ctx context.Context, cfg *config.Config) (*workspace, error) {
	components, err := loadComponents(cfg.ComponentsDir)
	if err != nil {
		return nil, err
	}

	definitions := propshape.NewDefinitions()
	if cfg.DefinitionsDir != "" {
		if err := definitions.LoadFS(config.AppFs, cfg.DefinitionsDir); err != nil {
			return nil, fmt.Errorf("failed to load definitions: %w", err)
		}
	}

	ws := &workspace{components: components}
	var catalog *fieldtype.Catalog
	var fields content.FieldDefinitionProvider
	switch cfg.ContentProvider {
	case "", "memory":
		store := memory.New(fieldtype.Builtin())
		if cfg.ContentFixture != "" {
			fixture, err := memory.LoadFixture(config.AppFs, cfg.ContentFixture)
			if err != nil {
				return nil, err
			}
			if err := store.Apply(fixture); err != nil {
				return nil, err
			}
		}
		catalog, fields, ws.loader = store.Catalog(), store, store
	default:
		store, err := sqlstore.Open(ctx, cfg.ContentProvider, cfg.ContentDSN, fieldtype.Builtin())
		if err != nil {
			return nil, err
		}
		ws.close = store.Close
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		if cfg.ContentFixture != "" {
			if err := seed(ctx, store, cfg.ContentFixture); err != nil {
				store.Close()
				return nil, err
			}
		}
		catalog, fields, ws.loader = store.Catalog(), store, store
	}

	ws.engine, err = props.New(props.Config{
		Components:  components,
		FieldTypes:  catalog,
		Fields:      fields,
		Definitions: definitions,
		CacheSize:   cfg.PlanCacheSize,
	})
	if err != nil {
		ws.Close()
		return nil, err
	}
	return ws, nil
}

// loadComponents loads the registry, starting empty when the directory
// does not exist yet.
func loadComponents(dir string) (*component.Registry, error) {
	if ok, _ := afero.DirExists(config.AppFs, dir); !ok {
		debug.Debug("components directory missing", "dir", dir)
		return component.NewRegistry(), nil
	}
	registry, err := component.LoadDir(config.AppFs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load components: %w", err)
	}
	return registry, nil
}

func seed(ctx context.Context, store *sqlstore.Store, path string) error {
	fixture, err := memory.LoadFixture(config.AppFs, path)
	if err != nil {
		return err
	}
	for _, f := range fixture.Fields {
		if err := store.DefineField(ctx, f.Definition()); err != nil {
			return err
		}
	}
	for _, e := range fixture.Entities {
		if err := store.Save(ctx, e.EntityType, e.BundleOrDefault(), e.ID, e.Values); err != nil {
			return err
		}
	}
	return nil
}

// loadEntity resolves a "<entity type>:<id>" reference. An empty reference
// yields a nil entity.
func loadEntity(loader content.EntityLoader, ref string) (content.Entity, error) {
	if ref == "" {
		return nil, nil
	}
	entityType, id, ok := strings.Cut(ref, ":")
	if !ok || entityType == "" || id == "" {
		return nil, fmt.Errorf("invalid entity reference %q, expected <type>:<id>", ref)
	}
	return loader.Load(entityType, id)
}

// readInput reads a file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := afero.ReadFile(config.AppFs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func decodeObject(data []byte, what string) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s must be a JSON object: %w", what, err)
	}
	return raw, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Package sqlstore keeps field definitions and entities in a SQL database.
// It supports sqlite, postgres and mysql; the caller registers the driver.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/content/fieldtype"
	"github.com/jacerider/neo-alchemist/internal/debug"
)

// Store reads and writes content through database/sql.
type Store struct {
	db       *sql.DB
	provider string
	catalog  *fieldtype.Catalog
	log      *slog.Logger
}

var (
	_ content.EntityLoader            = (*Store)(nil)
	_ content.FieldDefinitionProvider = (*Store)(nil)
)

// DriverName maps a provider name to its database/sql driver name.
func DriverName(provider string) (string, error) {
	switch provider {
	case "postgresql", "postgres":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", provider)
	}
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, provider, dsn string, catalog *fieldtype.Catalog) (*Store, error) {
	driver, err := DriverName(provider)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite3" {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", provider, err)
	}
	return New(db, provider, catalog), nil
}

// New wraps an open database. Items created by the store resolve entity
// references against the store itself.
func New(db *sql.DB, provider string, catalog *fieldtype.Catalog) *Store {
	s := &Store{db: db, provider: provider, log: debug.Component("sqlstore")}
	s.catalog = catalog.WithLoader(s)
	return s
}

func (s *Store) DB() *sql.DB { return s.db }

// Catalog returns the store-bound field type catalog.
func (s *Store) Catalog() *fieldtype.Catalog { return s.catalog }

func (s *Store) Close() error { return s.db.Close() }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS field_definitions (
		entity_type VARCHAR(128) NOT NULL,
		bundle VARCHAR(128) NOT NULL,
		name VARCHAR(128) NOT NULL,
		field_type VARCHAR(128) NOT NULL,
		label VARCHAR(255) NOT NULL,
		required BOOLEAN NOT NULL,
		storage_settings TEXT NOT NULL,
		instance_settings TEXT NOT NULL,
		PRIMARY KEY (entity_type, bundle, name)
	)`,
	`CREATE TABLE IF NOT EXISTS entities (
		entity_type VARCHAR(128) NOT NULL,
		id VARCHAR(128) NOT NULL,
		bundle VARCHAR(128) NOT NULL,
		PRIMARY KEY (entity_type, id)
	)`,
	`CREATE TABLE IF NOT EXISTS field_items (
		entity_type VARCHAR(128) NOT NULL,
		entity_id VARCHAR(128) NOT NULL,
		field VARCHAR(128) NOT NULL,
		delta INTEGER NOT NULL,
		item_values TEXT NOT NULL,
		PRIMARY KEY (entity_type, entity_id, field, delta)
	)`,
}

// Migrate creates the tables the store needs.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders for drivers using numbered ones.
func (s *Store) rebind(query string) string {
	if driver, _ := DriverName(s.provider); driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	_, err := tx.ExecContext(ctx, s.rebind(query), args...)
	return err
}

// DefineField adds or replaces a field on a bundle.
func (s *Store) DefineField(ctx context.Context, def content.FieldDefinition) error {
	if !s.catalog.Has(def.FieldType) {
		return fmt.Errorf("field %s: %w: %q", def.Name, fieldtype.ErrUnknownFieldType, def.FieldType)
	}
	storage, err := encodeSettings(def.StorageSettings)
	if err != nil {
		return err
	}
	instance, err := encodeSettings(def.InstanceSettings)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.exec(ctx, tx, `DELETE FROM field_definitions WHERE entity_type = ? AND bundle = ? AND name = ?`,
			def.EntityTypeID, def.Bundle, def.Name); err != nil {
			return err
		}
		return s.exec(ctx, tx, `INSERT INTO field_definitions
			(entity_type, bundle, name, field_type, label, required, storage_settings, instance_settings)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			def.EntityTypeID, def.Bundle, def.Name, def.FieldType, def.Label, def.Required, storage, instance)
	})
}

// FieldDefinitions implements content.FieldDefinitionProvider.
func (s *Store) FieldDefinitions(entityTypeID, bundle string) ([]content.FieldDefinition, error) {
	return s.FieldDefinitionsContext(context.Background(), entityTypeID, bundle)
}

// FieldDefinitionsContext lists a bundle's fields sorted by name.
func (s *Store) FieldDefinitionsContext(ctx context.Context, entityTypeID, bundle string) ([]content.FieldDefinition, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT name, field_type, label, required, storage_settings, instance_settings
		FROM field_definitions WHERE entity_type = ? AND bundle = ? ORDER BY name`), entityTypeID, bundle)
	if err != nil {
		return nil, fmt.Errorf("field definitions %s.%s: %w", entityTypeID, bundle, err)
	}
	defer rows.Close()

	var defs []content.FieldDefinition
	for rows.Next() {
		def := content.FieldDefinition{EntityTypeID: entityTypeID, Bundle: bundle}
		var storage, instance string
		if err := rows.Scan(&def.Name, &def.FieldType, &def.Label, &def.Required, &storage, &instance); err != nil {
			return nil, err
		}
		if def.StorageSettings, err = decodeSettings(storage); err != nil {
			return nil, fmt.Errorf("field %s storage settings: %w", def.Name, err)
		}
		if def.InstanceSettings, err = decodeSettings(instance); err != nil {
			return nil, fmt.Errorf("field %s instance settings: %w", def.Name, err)
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// Save stores an entity, replacing every item it had before. values maps
// field names to item values.
func (s *Store) Save(ctx context.Context, entityTypeID, bundle, id string, values map[string][]map[string]any) error {
	defs, err := s.FieldDefinitionsContext(ctx, entityTypeID, bundle)
	if err != nil {
		return err
	}
	known := make(map[string]content.FieldDefinition, len(defs))
	for _, def := range defs {
		known[def.Name] = def
	}
	names := make([]string, 0, len(values))
	for name := range values {
		def, ok := known[name]
		if !ok {
			return fmt.Errorf("%s.%s has no field %q", entityTypeID, bundle, name)
		}
		// Validate values before anything is written.
		for delta, v := range values[name] {
			item, err := s.catalog.CreateFieldItem(def.FieldType, def.StorageSettings, def.InstanceSettings)
			if err != nil {
				return err
			}
			if err := item.SetValues(v); err != nil {
				return fmt.Errorf("%s[%d]: %w", name, delta, err)
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.exec(ctx, tx, `DELETE FROM field_items WHERE entity_type = ? AND entity_id = ?`, entityTypeID, id); err != nil {
			return err
		}
		if err := s.exec(ctx, tx, `DELETE FROM entities WHERE entity_type = ? AND id = ?`, entityTypeID, id); err != nil {
			return err
		}
		if err := s.exec(ctx, tx, `INSERT INTO entities (entity_type, id, bundle) VALUES (?, ?, ?)`, entityTypeID, id, bundle); err != nil {
			return err
		}
		for _, name := range names {
			for delta, v := range values[name] {
				encoded, err := json.Marshal(v)
				if err != nil {
					return fmt.Errorf("%s[%d]: %w", name, delta, err)
				}
				if err := s.exec(ctx, tx, `INSERT INTO field_items (entity_type, entity_id, field, delta, item_values) VALUES (?, ?, ?, ?, ?)`,
					entityTypeID, id, name, delta, string(encoded)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s %s: %w", entityTypeID, id, err)
	}
	s.log.Debug("saved entity", "entity_type", entityTypeID, "id", id, "fields", len(names))
	return nil
}

// Load implements content.EntityLoader.
func (s *Store) Load(entityTypeID, id string) (content.Entity, error) {
	return s.LoadContext(context.Background(), entityTypeID, id)
}

// LoadContext loads an entity with all of its field items.
func (s *Store) LoadContext(ctx context.Context, entityTypeID, id string) (content.Entity, error) {
	var bundle string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT bundle FROM entities WHERE entity_type = ? AND id = ?`), entityTypeID, id).Scan(&bundle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s", content.ErrEntityNotFound, entityTypeID, id)
	}
	if err != nil {
		return nil, err
	}

	defs, err := s.FieldDefinitionsContext(ctx, entityTypeID, bundle)
	if err != nil {
		return nil, err
	}
	e := &Entity{entityType: entityTypeID, bundle: bundle, id: id, fields: make(map[string]*content.FieldItemList, len(defs))}
	byName := make(map[string]content.FieldDefinition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
		e.fields[def.Name] = &content.FieldItemList{Name: def.Name, FieldType: def.FieldType}
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT field, item_values FROM field_items
		WHERE entity_type = ? AND entity_id = ? ORDER BY field, delta`), entityTypeID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var field, encoded string
		if err := rows.Scan(&field, &encoded); err != nil {
			return nil, err
		}
		def, ok := byName[field]
		if !ok {
			s.log.Debug("skipping items of removed field", "entity_type", entityTypeID, "id", id, "field", field)
			continue
		}
		var values map[string]any
		if err := json.Unmarshal([]byte(encoded), &values); err != nil {
			return nil, fmt.Errorf("%s %s field %s: %w", entityTypeID, id, field, err)
		}
		item, err := s.catalog.CreateFieldItem(def.FieldType, def.StorageSettings, def.InstanceSettings)
		if err != nil {
			return nil, err
		}
		if err := item.SetValues(values); err != nil {
			return nil, fmt.Errorf("%s %s field %s: %w", entityTypeID, id, field, err)
		}
		e.fields[field].Items = append(e.fields[field].Items, item)
	}
	return e, rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func encodeSettings(settings map[string]any) (string, error) {
	if settings == nil {
		return "{}", nil
	}
	b, err := json.Marshal(settings)
	return string(b), err
}

func decodeSettings(s string) (map[string]any, error) {
	out := map[string]any{}
	if s == "" {
		return out, nil
	}
	return out, json.Unmarshal([]byte(s), &out)
}

// Entity is an entity loaded from the database. Loaded entities are never
// new.
type Entity struct {
	entityType string
	bundle     string
	id         string
	fields     map[string]*content.FieldItemList
}

var _ content.Entity = (*Entity)(nil)

func (e *Entity) EntityTypeID() string { return e.entityType }
func (e *Entity) Bundle() string       { return e.bundle }
func (e *Entity) ID() string           { return e.id }
func (e *Entity) IsNew() bool          { return false }

func (e *Entity) Field(name string) (*content.FieldItemList, bool) {
	l, ok := e.fields[name]
	return l, ok
}

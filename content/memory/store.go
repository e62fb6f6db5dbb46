// Package memory is an in-memory content store. It backs tests, previews and
// the CLI when no database is configured.
package memory

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/content/fieldtype"
)

// Store holds field definitions and entities.
type Store struct {
	mu       sync.RWMutex
	catalog  *fieldtype.Catalog
	fields   map[string][]content.FieldDefinition
	entities map[string]*Entity
	nextID   map[string]int
}

var (
	_ content.EntityLoader            = (*Store)(nil)
	_ content.FieldDefinitionProvider = (*Store)(nil)
)

// New creates a store. Items created by the store resolve entity references
// against the store itself.
func New(catalog *fieldtype.Catalog) *Store {
	s := &Store{
		fields:   map[string][]content.FieldDefinition{},
		entities: map[string]*Entity{},
		nextID:   map[string]int{},
	}
	s.catalog = catalog.WithLoader(s)
	return s
}

// Catalog returns the store-bound field type catalog.
func (s *Store) Catalog() *fieldtype.Catalog { return s.catalog }

func bundleKey(entityTypeID, bundle string) string { return entityTypeID + "." + bundle }
func entityKey(entityTypeID, id string) string     { return entityTypeID + ":" + id }

// DefineField adds a field to a bundle.
func (s *Store) DefineField(def content.FieldDefinition) error {
	if !s.catalog.Has(def.FieldType) {
		return fmt.Errorf("field %s: %w: %q", def.Name, fieldtype.ErrUnknownFieldType, def.FieldType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := bundleKey(def.EntityTypeID, def.Bundle)
	for i, existing := range s.fields[key] {
		if existing.Name == def.Name {
			s.fields[key][i] = def
			return nil
		}
	}
	s.fields[key] = append(s.fields[key], def)
	return nil
}

// FieldDefinitions lists a bundle's fields sorted by name.
func (s *Store) FieldDefinitions(entityTypeID, bundle string) ([]content.FieldDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	defs := append([]content.FieldDefinition(nil), s.fields[bundleKey(entityTypeID, bundle)]...)
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// Create builds an unsaved entity. values maps field names to item values.
func (s *Store) Create(entityTypeID, bundle string, values map[string][]map[string]any) (*Entity, error) {
	defs, _ := s.FieldDefinitions(entityTypeID, bundle)
	e := &Entity{
		entityType: entityTypeID,
		bundle:     bundle,
		isNew:      true,
		fields:     make(map[string]*content.FieldItemList, len(defs)),
	}
	byName := make(map[string]content.FieldDefinition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
		e.fields[def.Name] = &content.FieldItemList{Name: def.Name, FieldType: def.FieldType}
	}
	for name, items := range values {
		def, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%s.%s has no field %q", entityTypeID, bundle, name)
		}
		for delta, v := range items {
			item, err := s.catalog.CreateFieldItem(def.FieldType, def.StorageSettings, def.InstanceSettings)
			if err != nil {
				return nil, err
			}
			if err := item.SetValues(v); err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", name, delta, err)
			}
			e.fields[name].Items = append(e.fields[name].Items, item)
		}
	}
	return e, nil
}

// Save assigns an ID when needed and stores the entity.
func (s *Store) Save(e *Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.id == "" {
		s.nextID[e.entityType]++
		e.id = strconv.Itoa(s.nextID[e.entityType])
	} else if n, err := strconv.Atoi(e.id); err == nil && n > s.nextID[e.entityType] {
		s.nextID[e.entityType] = n
	}
	e.isNew = false
	s.entities[entityKey(e.entityType, e.id)] = e
	return nil
}

// Put creates and saves an entity with a fixed ID.
func (s *Store) Put(entityTypeID, bundle, id string, values map[string][]map[string]any) (*Entity, error) {
	e, err := s.Create(entityTypeID, bundle, values)
	if err != nil {
		return nil, err
	}
	e.id = id
	return e, s.Save(e)
}

// Load implements content.EntityLoader.
func (s *Store) Load(entityTypeID, id string) (content.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[entityKey(entityTypeID, id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", content.ErrEntityNotFound, entityTypeID, id)
	}
	return e, nil
}

// Entity is an in-memory entity.
type Entity struct {
	entityType string
	bundle     string
	id         string
	isNew      bool
	fields     map[string]*content.FieldItemList
}

var _ content.Entity = (*Entity)(nil)

func (e *Entity) EntityTypeID() string { return e.entityType }
func (e *Entity) Bundle() string       { return e.bundle }
func (e *Entity) ID() string           { return e.id }
func (e *Entity) IsNew() bool          { return e.isNew }

func (e *Entity) Field(name string) (*content.FieldItemList, bool) {
	l, ok := e.fields[name]
	return l, ok
}

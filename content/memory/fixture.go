package memory

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/jacerider/neo-alchemist/content"
)

// Fixture is a YAML description of field definitions and entities, used to
// seed stores for previews and tests.
type Fixture struct {
	Fields   []FixtureField  `yaml:"fields"`
	Entities []FixtureEntity `yaml:"entities"`
}

type FixtureField struct {
	EntityType string         `yaml:"entity_type"`
	Bundle     string         `yaml:"bundle"`
	Name       string         `yaml:"name"`
	Type       string         `yaml:"type"`
	Label      string         `yaml:"label"`
	Required   bool           `yaml:"required"`
	Storage    map[string]any `yaml:"storage"`
	Instance   map[string]any `yaml:"instance"`
}

// Definition converts the entry to a field definition. The bundle defaults
// to the entity type.
func (f FixtureField) Definition() content.FieldDefinition {
	bundle := f.Bundle
	if bundle == "" {
		bundle = f.EntityType
	}
	return content.FieldDefinition{
		EntityTypeID:     f.EntityType,
		Bundle:           bundle,
		Name:             f.Name,
		FieldType:        f.Type,
		Label:            f.Label,
		Required:         f.Required,
		StorageSettings:  f.Storage,
		InstanceSettings: f.Instance,
	}
}

type FixtureEntity struct {
	EntityType string                      `yaml:"entity_type"`
	Bundle     string                      `yaml:"bundle"`
	ID         string                      `yaml:"id"`
	Values     map[string][]map[string]any `yaml:"values"`
}

// BundleOrDefault returns the bundle, falling back to the entity type.
func (e FixtureEntity) BundleOrDefault() string {
	if e.Bundle == "" {
		return e.EntityType
	}
	return e.Bundle
}

func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	for i, e := range f.Entities {
		if e.EntityType == "" || e.ID == "" {
			return nil, fmt.Errorf("fixture: entity %d needs entity_type and id", i)
		}
	}
	return &f, nil
}

func LoadFixture(fsys afero.Fs, path string) (*Fixture, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	return ParseFixture(data)
}

// Apply defines the fixture's fields and saves its entities.
func (s *Store) Apply(f *Fixture) error {
	for _, field := range f.Fields {
		if err := s.DefineField(field.Definition()); err != nil {
			return err
		}
	}
	for _, e := range f.Entities {
		if _, err := s.Put(e.EntityType, e.BundleOrDefault(), e.ID, e.Values); err != nil {
			return fmt.Errorf("entity %s %s: %w", e.EntityType, e.ID, err)
		}
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"seedling/pkg/models"
)

// Model binds a model definition to a Store.
type Model struct {
	def   models.ModelDefinition
	store Store
}

// Identity returns the model name.
func (m *Model) Identity() string { return m.def.Identity }

// Associations returns the declared relations of the model.
func (m *Model) Associations() []models.Association { return m.def.Associations }

// FindOrCreate finds a record matching criteria or creates it from values.
func (m *Model) FindOrCreate(ctx context.Context, criteria, values models.Record) (models.Record, error) {
	return m.store.FindOrCreate(ctx, m.def.Identity, criteria, values)
}

// FindOne fetches a record by id and fills each populate alias with its linked records.
func (m *Model) FindOne(ctx context.Context, id string, populate ...string) (models.Record, error) {
	record, err := m.store.FindOne(ctx, m.def.Identity, id)
	if err != nil {
		return nil, err
	}
	for _, alias := range populate {
		if _, ok := m.def.Association(alias); !ok {
			return nil, fmt.Errorf("populate %s.%s: unknown association", m.def.Identity, alias)
		}
		linked, err := m.store.Linked(ctx, m.def.Identity, id, alias)
		if err != nil {
			return nil, fmt.Errorf("populate %s.%s: %w", m.def.Identity, alias, err)
		}
		record[alias] = linked
	}
	return record, nil
}

// AddToCollection links targetIDs to the record id under alias.
func (m *Model) AddToCollection(ctx context.Context, id, alias string, targetIDs []string) error {
	a, ok := m.def.Association(alias)
	if !ok || !a.IsCollection() {
		return fmt.Errorf("%s.%s is not a collection association", m.def.Identity, alias)
	}
	return m.store.AddToCollection(ctx, m.def.Identity, id, alias, targetIDs)
}

// Registry resolves model names to handles over a single Store.
type Registry struct {
	store  Store
	models map[string]*Model
}

// NewRegistry creates a registry for defs. Identities are matched case-insensitively.
func NewRegistry(store Store, defs ...models.ModelDefinition) *Registry {
	r := &Registry{store: store, models: map[string]*Model{}}
	for _, d := range defs {
		r.Register(d)
	}
	return r
}

// Register adds or replaces a model definition.
func (r *Registry) Register(def models.ModelDefinition) *Model {
	def.Identity = strings.ToLower(def.Identity)
	m := &Model{def: def, store: r.store}
	r.models[def.Identity] = m
	return m
}

// Lookup returns the handle registered under name.
func (r *Registry) Lookup(name string) (*Model, bool) {
	m, ok := r.models[strings.ToLower(name)]
	return m, ok
}

// Store returns the underlying store.
func (r *Registry) Store() Store { return r.store }

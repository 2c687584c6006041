package seed

import (
	"context"
	"fmt"

	"seedling/pkg/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ModelHandle is the store contract the seeder needs from a model.
type ModelHandle interface {
	Identity() string
	Associations() []models.Association
	FindOrCreate(ctx context.Context, criteria, values models.Record) (models.Record, error)
	FindOne(ctx context.Context, id string, populate ...string) (models.Record, error)
	AddToCollection(ctx context.Context, id, alias string, targetIDs []string) error
}

// Lookup resolves a model name to its handle.
type Lookup func(name string) (ModelHandle, bool)

// Descriptor is a collection field lifted out of a record, pending the
// creation of its parent.
type Descriptor struct {
	Alias string
	Model string
	Via   string
	Key   string
	Items []interface{}
}

// AssociationUnit resolves one Descriptor against an existing parent record.
type AssociationUnit func(ctx context.Context) (AssociationResult, error)

// Executor performs the find-or-create and linking work.
type Executor struct {
	lookup  Lookup
	logger  Logger
	limit   int
	metrics instruments
}

// NewExecutor creates an Executor. limit caps concurrent sub-units per association; 0 is unlimited.
func NewExecutor(lookup Lookup, logger Logger, limit int) *Executor {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Executor{lookup: lookup, logger: logger, limit: limit, metrics: newInstruments()}
}

// extractAssociations removes every declared collection field from record and
// returns them as descriptors. Single-valued relations are left in place.
func extractAssociations(model ModelHandle, record models.Record) []Descriptor {
	var out []Descriptor
	for _, a := range model.Associations() {
		if !a.IsCollection() {
			continue
		}
		value, ok := record[a.Alias]
		if !ok {
			continue
		}
		delete(record, a.Alias)
		if value == nil {
			continue
		}
		out = append(out, Descriptor{
			Alias: a.Alias,
			Model: a.Target(),
			Via:   a.Via,
			Key:   a.Key,
			Items: asItems(value),
		})
	}
	return out
}

func asItems(v interface{}) []interface{} {
	switch t := v.(type) {
	case []interface{}:
		return t
	case []string:
		items := make([]interface{}, 0, len(t))
		for _, s := range t {
			items = append(items, s)
		}
		return items
	case []models.Record:
		items := make([]interface{}, 0, len(t))
		for _, r := range t {
			items = append(items, r)
		}
		return items
	case []map[string]interface{}:
		items := make([]interface{}, 0, len(t))
		for _, r := range t {
			items = append(items, r)
		}
		return items
	default:
		return []interface{}{v}
	}
}

// FindOrCreate upserts record into model with its collection fields stripped,
// re-reads it with those aliases populated and returns one association unit
// per stripped field.
func (e *Executor) FindOrCreate(ctx context.Context, model ModelHandle, record models.Record) ([]AssociationUnit, error) {
	identity := model.Identity()
	pendingAssociations := extractAssociations(model, record)

	created, err := model.FindOrCreate(ctx, record, record)
	e.logger.Debug("seed", "model", identity, "data", summarize(record))
	if err != nil {
		e.logger.Error("find or create failed", "model", identity, "error", err)
		return nil, fmt.Errorf("find or create %s: %w", identity, err)
	}
	e.metrics.records.Add(ctx, 1, metric.WithAttributes(attribute.String("model", identity)))

	populate := make([]string, 0, len(pendingAssociations))
	for _, d := range pendingAssociations {
		populate = append(populate, d.Alias)
	}
	parent, err := model.FindOne(ctx, created.ID(), populate...)
	if err != nil {
		e.logger.Error("fetch seeded record failed", "model", identity, "id", created.ID(), "error", err)
		return nil, fmt.Errorf("fetch %s %s: %w", identity, created.ID(), err)
	}

	work := make([]AssociationUnit, 0, len(pendingAssociations))
	for _, d := range pendingAssociations {
		d := d
		work = append(work, func(ctx context.Context) (AssociationResult, error) {
			return e.ApplyAssociation(ctx, identity, model, parent, d)
		})
	}
	return work, nil
}

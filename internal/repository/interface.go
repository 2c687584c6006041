package repository

import (
	"context"
	"errors"

	"seedling/pkg/models"
)

// ErrNotFound is returned when a record or model does not exist.
var ErrNotFound = errors.New("not found")

// Store persists records of any model plus the collection links between them.
// Implementations must be safe for concurrent use.
type Store interface {
	// EnsureSchema creates the backing tables if they do not exist.
	EnsureSchema(ctx context.Context) error
	// FindOrCreate returns the first record of model containing criteria,
	// creating one from values when none matches. Containment follows jsonb @>:
	// arrays match as subsets, nested objects by their listed keys, and a null
	// criterion only matches a key holding null.
	FindOrCreate(ctx context.Context, model string, criteria, values models.Record) (models.Record, error)
	// FindOne returns a record by id.
	FindOne(ctx context.Context, model, id string) (models.Record, error)
	// Linked returns the records linked to id under alias, in link order.
	Linked(ctx context.Context, model, id, alias string) ([]models.Record, error)
	// AddToCollection links targetIDs to id under alias. Existing links are kept.
	AddToCollection(ctx context.Context, model, id, alias string, targetIDs []string) error
}

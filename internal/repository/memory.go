package repository

import (
	"context"
	"fmt"
	"sync"

	"seedling/pkg/models"

	"github.com/google/uuid"
)

type linkKey struct {
	model, id, alias string
}

// MemoryStore keeps records in process memory. It backs dry runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]models.Record
	links   map[linkKey][]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: map[string][]models.Record{},
		links:   map[linkKey][]string{},
	}
}

// EnsureSchema is a no-op for the memory store.
func (s *MemoryStore) EnsureSchema(ctx context.Context) error { return nil }

// FindOrCreate returns the first record of model containing criteria or stores values.
func (s *MemoryStore) FindOrCreate(ctx context.Context, model string, criteria, values models.Record) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want, err := normalize(criteria.Fields())
	if err != nil {
		return nil, err
	}
	fields, err := normalize(values.Fields())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records[model] {
		if contains(r, want) {
			return r.Clone(), nil
		}
	}
	fields[models.IDField] = uuid.New().String()
	s.records[model] = append(s.records[model], fields)
	return fields.Clone(), nil
}

// FindOne returns a record by id.
func (s *MemoryStore) FindOne(ctx context.Context, model, id string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.find(model, id)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", model, id, ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *MemoryStore) find(model, id string) (models.Record, bool) {
	for _, r := range s.records[model] {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

// Linked returns the ids linked under alias resolved to records of any model.
func (s *MemoryStore) Linked(ctx context.Context, model, id, alias string) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.links[linkKey{model, id, alias}]
	out := make([]models.Record, 0, len(ids))
	for _, target := range ids {
		for m := range s.records {
			if r, ok := s.find(m, target); ok {
				out = append(out, r.Clone())
				break
			}
		}
	}
	return out, nil
}

// AddToCollection links targetIDs to id under alias, skipping existing links.
func (s *MemoryStore) AddToCollection(ctx context.Context, model, id, alias string, targetIDs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.find(model, id); !ok {
		return fmt.Errorf("%s %s: %w", model, id, ErrNotFound)
	}
	key := linkKey{model, id, alias}
	existing := map[string]bool{}
	for _, t := range s.links[key] {
		existing[t] = true
	}
	for _, t := range targetIDs {
		if existing[t] {
			continue
		}
		existing[t] = true
		s.links[key] = append(s.links[key], t)
	}
	return nil
}

// Count returns the number of records stored for model.
func (s *MemoryStore) Count(model string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[model])
}

// All returns copies of every record stored for model.
func (s *MemoryStore) All(model string) []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, 0, len(s.records[model]))
	for _, r := range s.records[model] {
		out = append(out, r.Clone())
	}
	return out
}

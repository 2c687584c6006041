package seed

import (
	"context"
	"sync"
	"testing"
	"time"

	"seedling/internal/repository"
	"seedling/pkg/models"

	"github.com/stretchr/testify/mock"
)

// NoOpLogger for testing
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, args ...interface{}) {}
func (l *NoOpLogger) Info(msg string, args ...interface{})  {}
func (l *NoOpLogger) Warn(msg string, args ...interface{})  {}
func (l *NoOpLogger) Error(msg string, args ...interface{}) {}

var blogModels = []models.ModelDefinition{
	{Identity: "user"},
	{Identity: "post", Associations: []models.Association{
		{Alias: "tags", Type: models.AssociationCollection, Collection: "tag"},
		{Alias: "author", Type: models.AssociationModel, Model: "user"},
	}},
	{Identity: "tag"},
}

func registryLookup(reg *repository.Registry) Lookup {
	return func(name string) (ModelHandle, bool) {
		m, ok := reg.Lookup(name)
		if !ok {
			return nil, false
		}
		return m, true
	}
}

func newBlog(t *testing.T) (*repository.MemoryStore, *repository.Registry) {
	t.Helper()
	store := repository.NewMemoryStore()
	return store, repository.NewRegistry(store, blogModels...)
}

// callLog records store calls in the order they happen.
type callLog struct {
	mu     sync.Mutex
	events []string
}

func (l *callLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// recordingModel wraps a handle and logs every call. Base upserts sleep so an
// association racing ahead of them would show up in the log.
type recordingModel struct {
	ModelHandle
	log   *callLog
	delay time.Duration
	// values holds every payload passed to FindOrCreate.
	mu     sync.Mutex
	values []models.Record
}

func (m *recordingModel) FindOrCreate(ctx context.Context, criteria, values models.Record) (models.Record, error) {
	m.log.add("findOrCreate:" + m.Identity())
	m.mu.Lock()
	m.values = append(m.values, values.Clone())
	m.mu.Unlock()
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.ModelHandle.FindOrCreate(ctx, criteria, values)
}

func (m *recordingModel) FindOne(ctx context.Context, id string, populate ...string) (models.Record, error) {
	r, err := m.ModelHandle.FindOne(ctx, id, populate...)
	m.log.add("findOne:" + m.Identity())
	return r, err
}

func (m *recordingModel) AddToCollection(ctx context.Context, id, alias string, ids []string) error {
	m.log.add("addToCollection:" + m.Identity())
	return m.ModelHandle.AddToCollection(ctx, id, alias, ids)
}

func (m *recordingModel) seen() []models.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Record(nil), m.values...)
}

func recordingLookup(reg *repository.Registry, log *callLog, delays map[string]time.Duration) (Lookup, map[string]*recordingModel) {
	wrapped := map[string]*recordingModel{}
	for _, d := range blogModels {
		m, _ := reg.Lookup(d.Identity)
		wrapped[d.Identity] = &recordingModel{ModelHandle: m, log: log, delay: delays[d.Identity]}
	}
	return func(name string) (ModelHandle, bool) {
		m, ok := wrapped[name]
		if !ok {
			return nil, false
		}
		return m, true
	}, wrapped
}

// MockModel satisfies ModelHandle
type MockModel struct {
	mock.Mock
}

func (m *MockModel) Identity() string {
	return m.Called().String(0)
}

func (m *MockModel) Associations() []models.Association {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Association)
}

func (m *MockModel) FindOrCreate(ctx context.Context, criteria, values models.Record) (models.Record, error) {
	args := m.Called(ctx, criteria, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.Record), args.Error(1)
}

func (m *MockModel) FindOne(ctx context.Context, id string, populate ...string) (models.Record, error) {
	args := m.Called(ctx, id, populate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.Record), args.Error(1)
}

func (m *MockModel) AddToCollection(ctx context.Context, id, alias string, targetIDs []string) error {
	args := m.Called(ctx, id, alias, targetIDs)
	return args.Error(0)
}

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"seedling/internal/seed"
)

// ErrNotRun is returned by Last before any seeding run finished.
var ErrNotRun = errors.New("seeding has not run yet")

// SeedInfo describes one merged seed of the active environment.
type SeedInfo struct {
	Key     string `json:"key"`
	Model   string `json:"model"`
	Kind    string `json:"kind"`
	Records int    `json:"records"`
}

// Status is the outcome of the most recent run.
type Status struct {
	Result   *seed.Result `json:"result,omitempty"`
	Error    string       `json:"error,omitempty"`
	Finished time.Time    `json:"finished"`
}

// SeedService is a service for running and inspecting seeding.
type SeedService struct {
	seeder *seed.Seeder
	runMu  sync.Mutex

	mu       sync.Mutex
	ran      bool
	last     *seed.Result
	lastErr  error
	finished time.Time
}

// NewSeedService creates a new SeedService.
func NewSeedService(seeder *seed.Seeder) *SeedService {
	return &SeedService{seeder: seeder}
}

// Environment returns the environment being seeded.
func (s *SeedService) Environment() string {
	return s.seeder.Environment()
}

// Run seeds the environment. Runs are serialised; a run is idempotent.
func (s *SeedService) Run(ctx context.Context) (*seed.Result, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	result, err := s.seeder.Run(ctx)
	s.Record(result, err)
	return result, err
}

// Record stores the outcome of a run made outside the service, such as the
// startup hook.
func (s *SeedService) Record(result *seed.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(result, err)
}

func (s *SeedService) record(result *seed.Result, err error) {
	s.ran = true
	s.last = result
	s.lastErr = err
	s.finished = time.Now()
}

// Last reports the most recent run.
func (s *SeedService) Last() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ran {
		return Status{}, ErrNotRun
	}
	status := Status{Result: s.last, Finished: s.finished}
	if s.lastErr != nil {
		status.Error = s.lastErr.Error()
	}
	return status, nil
}

// List loads the seeds of the environment without running them.
func (s *SeedService) List(ctx context.Context) ([]SeedInfo, error) {
	loader := s.seeder.Loader()
	if loader == nil {
		return nil, errors.New("seeder has no loader")
	}
	seeds, err := loader.Load(ctx, s.seeder.Environment())
	if err != nil {
		return nil, err
	}

	infos := make([]SeedInfo, 0, len(seeds))
	for _, key := range seeds.Keys() {
		p := seeds[key]
		infos = append(infos, SeedInfo{
			Key:     key,
			Model:   seed.SeedKeyToModelName(key),
			Kind:    p.Kind().String(),
			Records: p.Len(),
		})
	}
	return infos, nil
}

package seed

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultEnvironment is seeded when no environment is given.
const DefaultEnvironment = "development"

// Result is reported once seeding finishes.
type Result struct {
	Environment string              `json:"environment"`
	Records     int                 `json:"records"`
	Data        []AssociationResult `json:"data"`
}

// Options configures a Seeder.
type Options struct {
	Environment string
	Loader      *Loader
	Lookup      Lookup
	Logger      Logger
	// Strict fails the run when a deferred seed cannot be produced.
	Strict bool
	// Concurrency caps units running at once within a phase; 0 is unlimited.
	Concurrency int
}

// Seeder runs the two seeding phases: base records, then associations.
type Seeder struct {
	environment string
	loader      *Loader
	builder     *Builder
	exec        *Executor
	logger      Logger
	limit       int
}

// New creates a Seeder.
func New(opts Options) *Seeder {
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	env := opts.Environment
	if env == "" {
		env = DefaultEnvironment
	}
	exec := NewExecutor(opts.Lookup, logger, opts.Concurrency)
	return &Seeder{
		environment: env,
		loader:      opts.Loader,
		builder:     NewBuilder(exec, logger, opts.Strict),
		exec:        exec,
		logger:      logger,
		limit:       opts.Concurrency,
	}
}

// Environment returns the environment the seeder loads.
func (s *Seeder) Environment() string { return s.environment }

// Loader returns the seed loader.
func (s *Seeder) Loader() *Loader { return s.loader }

// Run loads the seeds of the environment and seeds them.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	if s.loader == nil {
		return nil, fmt.Errorf("seeder has no loader")
	}
	ctx, span := tracer.Start(ctx, "seed.load", trace.WithAttributes(attribute.String("environment", s.environment)))
	s.logger.Debug("start seeding", "environment", s.environment)
	seeds, err := s.loader.Load(ctx, s.environment)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("load seeds: %w", err)
	}
	return s.Seed(ctx, seeds)
}

// Seed upserts every base record of seeds, waits for all of them, then
// resolves the collected associations.
func (s *Seeder) Seed(ctx context.Context, seeds Seeds) (*Result, error) {
	result := &Result{Environment: s.environment, Data: []AssociationResult{}}

	work, err := s.builder.Build(ctx, seeds)
	if err != nil {
		return nil, fmt.Errorf("build seed work: %w", err)
	}
	if len(work) == 0 {
		s.logger.Debug("nothing to seed", "environment", s.environment)
		return result, nil
	}

	associations, err := s.seedModels(ctx, work)
	if err != nil {
		return nil, err
	}
	result.Records = len(work)

	if len(associations) > 0 {
		s.logger.Debug("load associations", "count", len(associations))
		data, err := s.seedAssociations(ctx, associations)
		if err != nil {
			return nil, err
		}
		result.Data = data
	}

	s.logger.Info("complete seeding", "environment", s.environment, "records", result.Records, "associations", len(result.Data))
	return result, nil
}

func (s *Seeder) seedModels(ctx context.Context, work []Unit) ([]AssociationUnit, error) {
	ctx, span := tracer.Start(ctx, "seed.models", trace.WithAttributes(attribute.Int("units", len(work))))
	defer span.End()

	lists, err := runBatch(ctx, s.limit, work)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("seed models: %w", err)
	}
	var flat []AssociationUnit
	for _, l := range lists {
		flat = append(flat, l...)
	}
	return flat, nil
}

func (s *Seeder) seedAssociations(ctx context.Context, work []AssociationUnit) ([]AssociationResult, error) {
	ctx, span := tracer.Start(ctx, "seed.associations", trace.WithAttributes(attribute.Int("units", len(work))))
	defer span.End()

	data, err := runBatch(ctx, s.limit, work)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("seed associations: %w", err)
	}
	return data, nil
}

package seed

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// maxDeferredDepth bounds how many producers may chain into each other.
const maxDeferredDepth = 32

var (
	// ErrModelNotFound is returned by a unit whose model is not registered.
	ErrModelNotFound = errors.New("model not found")
	// ErrDeferredDepth is returned when producers keep yielding producers.
	ErrDeferredDepth = errors.New("deferred seed nested too deeply")
)

// Unit upserts one base record and returns the association work it deferred.
type Unit func(ctx context.Context) ([]AssociationUnit, error)

// Builder turns seed payloads into work units.
type Builder struct {
	exec   *Executor
	logger Logger
	strict bool
}

// NewBuilder creates a Builder. With strict set a failing producer fails the
// build instead of being logged and skipped.
func NewBuilder(exec *Executor, logger Logger, strict bool) *Builder {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Builder{exec: exec, logger: logger, strict: strict}
}

type pending struct {
	payload Payload
	depth   int
}

// Prepare appends one unit per record reachable from payload to work.
// Producers are evaluated in a loop until only records remain.
func (b *Builder) Prepare(ctx context.Context, work *[]Unit, modelName string, payload Payload) error {
	queue := []pending{{payload: payload}}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		switch next.payload.kind {
		case KindRecord:
			*work = append(*work, b.unit(modelName, next.payload))
		case KindSequence:
			items := make([]pending, 0, len(next.payload.items)+len(queue))
			for _, item := range next.payload.items {
				items = append(items, pending{payload: item, depth: next.depth})
			}
			queue = append(items, queue...)
		case KindDeferred:
			resolved, err := b.produce(ctx, next)
			if err != nil {
				if b.strict {
					b.logger.Error("seed producer failed", "model", modelName, "error", err)
					return fmt.Errorf("prepare %s: %w", modelName, err)
				}
				b.logger.Warn("seed producer failed, skipping", "model", modelName, "error", err)
				continue
			}
			queue = append([]pending{{payload: resolved, depth: next.depth + 1}}, queue...)
		default:
			b.logger.Error("invalid seed payload", "model", modelName)
		}
	}
	return nil
}

func (b *Builder) produce(ctx context.Context, p pending) (Payload, error) {
	if p.depth >= maxDeferredDepth {
		return Payload{}, ErrDeferredDepth
	}
	if p.payload.producer == nil {
		return Payload{}, errors.New("deferred seed without producer")
	}
	return p.payload.producer(ctx)
}

func (b *Builder) unit(modelName string, p Payload) Unit {
	record := p.record.Clone()
	return func(ctx context.Context) ([]AssociationUnit, error) {
		model, ok := b.exec.lookup(modelName)
		if !ok {
			b.logger.Error("model not found", "model", modelName)
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelName)
		}
		return b.exec.FindOrCreate(ctx, model, record.Clone())
	}
}

// Build prepares every seed. Producers of different seeds are evaluated
// concurrently; units are returned grouped by seed key in lexical order.
func (b *Builder) Build(ctx context.Context, seeds Seeds) ([]Unit, error) {
	keys := seeds.Keys()
	perSeed := make([][]Unit, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			var work []Unit
			if err := b.Prepare(gctx, &work, SeedKeyToModelName(key), seeds[key]); err != nil {
				return err
			}
			perSeed[i] = work
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var work []Unit
	for _, units := range perSeed {
		work = append(work, units...)
	}
	return work, nil
}

package seed

import (
	"context"
	"fmt"
	"sync"
)

// Barrier blocks until the subsystems seeding depends on are ready.
type Barrier interface {
	Wait(ctx context.Context) error
}

// BarrierFunc adapts a function to Barrier.
type BarrierFunc func(ctx context.Context) error

// Wait calls f.
func (f BarrierFunc) Wait(ctx context.Context) error { return f(ctx) }

// WaitAll returns a Barrier released once every channel is closed.
func WaitAll(ready ...<-chan struct{}) Barrier {
	return BarrierFunc(func(ctx context.Context) error {
		for _, ch := range ready {
			select {
			case <-ch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
}

// Hook runs seeding as part of a host's startup.
type Hook struct {
	active bool
	seeder *Seeder
	logger Logger
}

// NewHook creates a Hook. An inactive hook reports completion without seeding.
func NewHook(active bool, seeder *Seeder, logger Logger) *Hook {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Hook{active: active, seeder: seeder, logger: logger}
}

// Initialize waits on ready, seeds and calls done exactly once. It blocks
// until done has been called.
func (h *Hook) Initialize(ctx context.Context, ready Barrier, done func(*Result, error)) {
	var once sync.Once
	finish := func(r *Result, err error) {
		once.Do(func() { done(r, err) })
	}

	if !h.active {
		h.logger.Debug("seeding disabled")
		finish(nil, nil)
		return
	}
	if ready != nil {
		if err := ready.Wait(ctx); err != nil {
			finish(nil, fmt.Errorf("wait for startup: %w", err))
			return
		}
	}

	result, err := h.seeder.Run(ctx)
	if err != nil {
		h.logger.Error("seeding failed", "environment", h.seeder.Environment(), "error", err)
	}
	finish(result, err)
}

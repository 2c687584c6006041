package seed

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runBatch runs tasks concurrently and returns their results in task order.
// The first failure is returned at once: remaining tasks see a cancelled
// context and their results are discarded. limit <= 0 means no limit.
func runBatch[T any, F ~func(context.Context) (T, error)](ctx context.Context, limit int, tasks []F) ([]T, error) {
	results := make([]T, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	failed := make(chan error, 1)
	done := make(chan error, 1)

	go func() {
		for i, task := range tasks {
			i, task := i, task
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := task(gctx)
				if err != nil {
					select {
					case failed <- err:
					default:
					}
					return err
				}
				results[i] = res
				return nil
			})
		}
		done <- g.Wait()
	}()

	select {
	case err := <-failed:
		return nil, err
	case err := <-done:
		if err != nil {
			return nil, err
		}
		return results, nil
	}
}

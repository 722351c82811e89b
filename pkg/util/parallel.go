// Package util holds small concurrency helpers.
package util

import (
	"context"
	"sync"

	"go.uber.org/multierr"
)

// Parallel runs fn for every input on at most workerLimit goroutines and
// returns the combined errors. A failing item does not stop the others;
// cancelling ctx stops feeding new items.
func Parallel[T any](ctx context.Context, inputs []T, workerLimit int, fn func(context.Context, T) error) error {
	if len(inputs) == 0 {
		return nil
	}
	if workerLimit <= 0 {
		workerLimit = 1
	}

	tasks := make(chan T)
	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)

	for i := 0; i < min(workerLimit, len(inputs)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range tasks {
				if err := fn(ctx, item); err != nil {
					mu.Lock()
					errs = multierr.Append(errs, err)
					mu.Unlock()
				}
			}
		}()
	}

	var feedErr error
feed:
	for _, item := range inputs {
		if feedErr = ctx.Err(); feedErr != nil {
			break
		}
		select {
		case <-ctx.Done():
			feedErr = ctx.Err()
			break feed
		case tasks <- item:
		}
	}
	close(tasks)
	wg.Wait()

	return multierr.Append(errs, feedErr)
}

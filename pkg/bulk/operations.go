package bulk

import (
	"context"
	"sync"
)

// Operation is applied to one item of a batch
type Operation[T any] func(ctx context.Context, item T) error

// Result records the outcome of one item
type Result[T any] struct {
	Index int
	Item  T
	Error error
}

// Failed returns only the results that carry an error
func Failed[T any](results []Result[T]) []Result[T] {
	var failed []Result[T]
	for _, r := range results {
		if r.Error != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// ProcessConcurrent runs op over items with at most workers goroutines.
// Every item is attempted; one failure never stops the others. Results keep
// the input order. Items not yet started when ctx is done get ctx.Err().
func ProcessConcurrent[T any](ctx context.Context, items []T, workers int, op Operation[T]) []Result[T] {
	results := make([]Result[T], len(items))
	if len(items) == 0 {
		return results
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan int, len(items))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				var err error
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = ctxErr
				} else {
					err = op(ctx, items[idx])
				}
				results[idx] = Result[T]{
					Index: idx,
					Item:  items[idx],
					Error: err,
				}
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// ProcessSequential runs op over items one at a time, in order
func ProcessSequential[T any](ctx context.Context, items []T, op Operation[T]) []Result[T] {
	results := make([]Result[T], len(items))
	for i, item := range items {
		err := ctx.Err()
		if err == nil {
			err = op(ctx, item)
		}
		results[i] = Result[T]{Index: i, Item: item, Error: err}
	}
	return results
}

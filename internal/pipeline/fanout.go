package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Result struct {
	OwnerID uuid.UUID
	Changed bool
	Err     error
}

type ownerFunc func(ctx context.Context, id uuid.UUID) (changed bool, err error)

// fanOut calls fn for every id on at most workers goroutines. With rps > 0
// calls start no faster than rps per second across all workers. Results come
// in completion order; the channel is closed once every started call has
// returned. Ids not yet started when ctx is done are skipped.
func fanOut(ctx context.Context, ids []uuid.UUID, workers, rps int, fn ownerFunc) <-chan Result {
	if workers <= 0 {
		workers = 1
	}
	out := make(chan Result, len(ids))

	var pace <-chan time.Time
	var ticker *time.Ticker
	if rps > 0 {
		ticker = time.NewTicker(time.Second / time.Duration(rps))
		pace = ticker.C
	}

	go func() {
		defer close(out)
		if ticker != nil {
			defer ticker.Stop()
		}

		var g errgroup.Group
		g.SetLimit(workers)
		for _, id := range ids {
			if !wait(ctx, pace) {
				break
			}
			g.Go(func() error {
				changed, err := fn(ctx, id)
				out <- Result{OwnerID: id, Changed: changed, Err: err}
				return nil
			})
		}
		_ = g.Wait()
	}()
	return out
}

func wait(ctx context.Context, pace <-chan time.Time) bool {
	if pace == nil {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-pace:
		return true
	}
}

package casegen

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// GenerateBatch generates count cases with seeds opts.Seed, opts.Seed+1, ...
// on up to workers goroutines. Results are in seed order.
func GenerateBatch(ctx context.Context, opts GenerateOpts, count, workers int) ([]*Case, error) {
	if count <= 0 {
		return nil, nil
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}

	out := make([]*Case, count)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range count {
		o := opts
		o.Seed = opts.Seed + int64(i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := Generate(o)
			if err != nil {
				return fmt.Errorf("generate seed %d: %w", o.Seed, err)
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

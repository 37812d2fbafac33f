package sim

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/bucketsim/internal/dynamo"
)

// Sweep runs independent configurations in parallel and returns their
// trajectories in input order. Runs share no mutable state. ctx is checked
// before each run starts; a started run always finishes.
func Sweep(ctx context.Context, cfgs []Config) ([]*dynamo.Trajectory, error) {
	for i, c := range cfgs {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("config %d: %w", i, err)
		}
	}

	results := make([]*dynamo.Trajectory, len(cfgs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range cfgs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tr, err := Run(cfgs[i])
			if err != nil {
				return fmt.Errorf("config %d: %w", i, err)
			}
			results[i] = tr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

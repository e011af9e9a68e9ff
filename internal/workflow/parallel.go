package workflow

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunAll runs independent requests concurrently, at most
// Config.MaxParallel at a time. Results are returned in request order.
//
// Only invocation failures (tool missing, canceled, invalid request) stop
// the group; a build that exits non-zero is a normal result. When one
// request fails, the others are canceled and their slots stay nil.
func (e *Engine) RunAll(ctx context.Context, reqs []Request) ([]*OperationResult, error) {
	results := make([]*OperationResult, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config().MaxParallel())
	for i, req := range reqs {
		g.Go(func() error {
			res, err := e.Run(ctx, req)
			if err != nil {
				return fmt.Errorf("%s %s: %w", req.Operation, req.Project, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

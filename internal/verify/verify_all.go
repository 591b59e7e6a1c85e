package verify

import (
	"context"

	"golang.org/x/sync/errgroup"

	"componentforge/internal/diag"
)

// VerifyAll verifies paths concurrently, each with its own interpreter.
// Reports come back in the order of paths.
func (v *Verifier) VerifyAll(ctx context.Context, paths []string) []*diag.Report {
	workers := v.Workers
	if workers <= 0 {
		workers = 4
	}

	reports := make([]*diag.Report, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			reports[i] = v.Verify(gctx, path)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

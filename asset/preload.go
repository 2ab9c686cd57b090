// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package asset

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/sprite"
)

// LoadAll decodes every path using up to workers goroutines, or
// GOMAXPROCS when workers <= 0. Results keep the order of paths. The
// first error cancels outstanding decodes. done, if not nil, is called
// after each file and may be called concurrently.
func LoadAll(ctx context.Context, paths []string, workers int, done func(path string)) ([]*Pixels, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]*Pixels, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := DecodeFile(path)
			if err != nil {
				return err
			}
			out[i] = p
			if done != nil {
				done(path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sprite.Logger().Debug("asset: decoded", "files", len(paths), "workers", workers)
	return out, nil
}

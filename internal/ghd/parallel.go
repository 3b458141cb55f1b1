package ghd

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForEachPosition runs fn for every position index in [0, n) using at most
// workers goroutines. Positions are split into contiguous chunks; the first
// error aborts the remaining chunks.
func ForEachPosition(n, workers int, fn func(x int) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if n <= 1 || workers == 1 {
		for x := 0; x < n; x++ {
			if err := fn(x); err != nil {
				return err
			}
		}
		return nil
	}
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		start, end := start, min(start+chunk, n)
		g.Go(func() error {
			for x := start; x < end; x++ {
				if err := fn(x); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Package parallel fans per-cell grid work out over goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MinSlabs is the slab count below which work runs on the calling goroutine.
const MinSlabs = 4

var workers = runtime.GOMAXPROCS(0)

// SetWorkers overrides the worker count. n < 1 restores the default.
func SetWorkers(n int) {
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	workers = n
}

// Workers returns the current worker count.
func Workers() int { return workers }

// ForSlabs executes fn over [0, n) split into contiguous chunks, one per
// worker. Callers partition by the outer (z) axis so each chunk writes a
// disjoint set of cells. It returns after every chunk has finished.
func ForSlabs(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	w := workers
	if n < MinSlabs || w <= 1 {
		fn(0, n)
		return
	}
	if n < w {
		w = n
	}

	chunk := (n + w - 1) / w

	var g errgroup.Group
	g.SetLimit(w)
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		s, e := start, end
		g.Go(func() error {
			fn(s, e)
			return nil
		})
	}
	_ = g.Wait()
}

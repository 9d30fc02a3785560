// Package parallel splits CPU kernels over independent index ranges.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls how For spreads work over goroutines.
type Config struct {
	Enabled      bool // false runs every loop on the calling goroutine
	NumWorkers   int  // upper bound on concurrently running chunks
	MinChunkSize int  // indices per chunk are never fewer than this
}

// DefaultConfig uses one worker per CPU.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4,
	}
}

// Sequential returns a configuration that never spawns goroutines.
func Sequential() Config {
	return Config{NumWorkers: 1, MinChunkSize: 1}
}

// chunks returns the chunk length for n indices, or 0 when n is too small
// to be worth splitting.
func (c Config) chunks(n int) int {
	if !c.Enabled || c.NumWorkers <= 1 || n < 2*max(c.MinChunkSize, 1) {
		return 0
	}
	return max((n+c.NumWorkers-1)/c.NumWorkers, c.MinChunkSize, 1)
}

// For calls f(i) for every i in [0, n) exactly once, running contiguous
// chunks concurrently. f must only write state owned by index i.
func For(n int, f func(i int), cfg Config) {
	size := cfg.chunks(n)
	if size == 0 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(cfg.NumWorkers)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				f(i)
			}
			return nil
		})
	}
	_ = g.Wait() // chunks never fail
}

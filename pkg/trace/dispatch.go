package trace

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/lumen/pkg/log"
	"github.com/taigrr/lumen/pkg/math3d"
)

var logger = log.New("trace")

// Stats summarizes one Render call.
type Stats struct {
	Pixels  int
	Samples int
	Rays    int64
	Batches int
	Elapsed time.Duration
}

// RaysPerSecond returns the intersection query throughput.
func (s Stats) RaysPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Rays) / s.Elapsed.Seconds()
}

// Render runs Pixel for every index in [0, Width*Height) across a bounded
// set of goroutines, BatchSize consecutive pixels per task. Batches complete
// in no particular order. Cancelling ctx stops new batches from starting;
// pixels of unstarted batches are left untouched and ctx.Err() is returned.
func (k *Kernel) Render(ctx context.Context, seeds []uint32, pixels []math3d.Vec4) (Stats, error) {
	n := k.camera.Pixels()
	if len(seeds) != n {
		return Stats{}, fmt.Errorf("render %d pixels with %d seeds: %w", n, len(seeds), ErrSeedCount)
	}
	if len(pixels) != n {
		return Stats{}, fmt.Errorf("render %d pixels into %d slots: %w", n, len(pixels), ErrPixelCount)
	}

	workers := k.settings.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	batch := k.settings.BatchSize

	start := time.Now()
	var rays atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	batches := 0
	for lo := 0; lo < n; lo += batch {
		if gctx.Err() != nil {
			break
		}
		hi := min(lo+batch, n)
		batches++
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			local := 0
			for i := lo; i < hi; i++ {
				local += k.Pixel(i, seeds, pixels)
			}
			rays.Add(int64(local))
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	stats := Stats{
		Pixels:  n,
		Samples: n * int(k.camera.SamplesPerPixel),
		Rays:    rays.Load(),
		Batches: batches,
		Elapsed: time.Since(start),
	}
	if err != nil {
		return stats, fmt.Errorf("render: %w", err)
	}
	logger.Debugf("rendered %dx%d at %d spp in %s (%d batches on %d workers, %.0f rays/s)",
		k.camera.Width, k.camera.Height, k.camera.SamplesPerPixel, stats.Elapsed,
		batches, workers, stats.RaysPerSecond())
	return stats, nil
}

// NewSeeds returns n per-pixel seeds drawn from a PCG source seeded with
// seed, so the same seed reproduces the same image.
func NewSeeds(n int, seed uint64) []uint32 {
	src := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	seeds := make([]uint32, n)
	for i := range seeds {
		seeds[i] = src.Uint32()
	}
	return seeds
}

// SequentialSeeds returns the seeds 0..n-1, one per pixel index.
func SequentialSeeds(n int) []uint32 {
	seeds := make([]uint32, n)
	for i := range seeds {
		seeds[i] = uint32(i)
	}
	return seeds
}

// Package populate drives resources across chunks.
package populate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"terraincontrol.ai/internal/gen/resource"
	"terraincontrol.ai/internal/gen/rng"
	"terraincontrol.ai/internal/gen/terrain"
)

// Populator runs a world's resources, in declared order, against one chunk
// at a time. Each chunk gets its own random source derived from Seed and the
// chunk coordinates, so chunks may be populated concurrently.
type Populator struct {
	Seed      int64
	Resources []resource.Resource
	Logger    *zap.Logger
}

type ChunkStats struct {
	CX, CZ int
	// Writes counts SetBlock calls, including writes that spill into
	// neighbouring chunks.
	Writes      int
	PerResource []int
	Duration    time.Duration
}

type countingWorld struct {
	terrain.World
	writes int
}

func (w *countingWorld) SetBlock(x, y, z, id, data int) {
	w.writes++
	w.World.SetBlock(x, y, z, id, data)
}

func (p *Populator) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Populator) PopulateChunk(w terrain.World, cx, cz int) ChunkStats {
	start := time.Now()
	r := rng.ForChunk(p.Seed, cx, cz)
	cw := &countingWorld{World: w}
	stats := ChunkStats{CX: cx, CZ: cz, PerResource: make([]int, len(p.Resources))}
	for i, res := range p.Resources {
		before := cw.writes
		res.Process(cw, r, cx, cz)
		stats.PerResource[i] = cw.writes - before
	}
	stats.Writes = cw.writes
	stats.Duration = time.Since(start)
	p.logger().Debug("chunk populated",
		zap.Int("cx", cx), zap.Int("cz", cz),
		zap.Int("writes", stats.Writes),
		zap.Duration("took", stats.Duration))
	return stats
}

// Region is an inclusive rectangle of chunk coordinates.
type Region struct {
	MinCX, MinCZ int
	MaxCX, MaxCZ int
}

// ParseRegion reads "minCX,minCZ,maxCX,maxCZ".
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("region %q: want minCX,minCZ,maxCX,maxCZ", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = n
	}
	r := Region{MinCX: v[0], MinCZ: v[1], MaxCX: v[2], MaxCZ: v[3]}
	if r.MaxCX < r.MinCX || r.MaxCZ < r.MinCZ {
		return Region{}, fmt.Errorf("region %q: max must not be below min", s)
	}
	return r, nil
}

// Chunks lists the region's chunks, x-major.
func (r Region) Chunks() []terrain.ChunkKey {
	if r.MaxCX < r.MinCX || r.MaxCZ < r.MinCZ {
		return nil
	}
	out := make([]terrain.ChunkKey, 0, (r.MaxCX-r.MinCX+1)*(r.MaxCZ-r.MinCZ+1))
	for cx := r.MinCX; cx <= r.MaxCX; cx++ {
		for cz := r.MinCZ; cz <= r.MaxCZ; cz++ {
			out = append(out, terrain.ChunkKey{CX: cx, CZ: cz})
		}
	}
	return out
}

// PopulateRegion fans the region's chunks out to workers. fn, if set, is
// called once per finished chunk and never concurrently with itself.
// Cancelling ctx stops dispatch; chunks already handed to a worker finish.
//
// With more than one worker, chunks whose placements overlap may write in
// either order.
func (p *Populator) PopulateRegion(ctx context.Context, w terrain.World, region Region, workers int, fn func(ChunkStats)) error {
	if workers <= 0 {
		workers = 1
	}
	jobs := make(chan terrain.ChunkKey)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range jobs {
				st := p.PopulateChunk(w, k.CX, k.CZ)
				if fn != nil {
					mu.Lock()
					fn(st)
					mu.Unlock()
				}
			}
		}()
	}

	var err error
dispatch:
	for _, k := range region.Chunks() {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case jobs <- k:
		}
	}
	close(jobs)
	wg.Wait()
	return err
}

package populate

import (
	"errors"
	"fmt"
	"sync"

	"terraincontrol.ai/internal/gen/terrain"
)

var ErrOutOfRange = errors.New("chunk out of range")

// OnDemand populates chunks of one store as they are requested. Each chunk
// is populated at most once; later requests get the recorded stats back.
type OnDemand struct {
	Populator *Populator
	Store     *terrain.ChunkStore
	// Limit bounds |cx| and |cz|. Zero means unbounded.
	Limit int
	// OnChunk, if set, is called once for every chunk this OnDemand
	// populates.
	OnChunk func(ChunkStats)

	mu   sync.Mutex
	done map[terrain.ChunkKey]ChunkStats
	// inflight serializes concurrent requests for the same chunk.
	inflight map[terrain.ChunkKey]*sync.WaitGroup
}

// Chunk populates (cx, cz) if needed. cached reports whether it had already
// been populated.
func (d *OnDemand) Chunk(cx, cz int) (st ChunkStats, cached bool, err error) {
	if d.Limit > 0 && (abs(cx) > d.Limit || abs(cz) > d.Limit) {
		return ChunkStats{}, false, fmt.Errorf("%w: %d,%d beyond %d", ErrOutOfRange, cx, cz, d.Limit)
	}
	k := terrain.ChunkKey{CX: cx, CZ: cz}
	for {
		d.mu.Lock()
		if d.done == nil {
			d.done = map[terrain.ChunkKey]ChunkStats{}
			d.inflight = map[terrain.ChunkKey]*sync.WaitGroup{}
		}
		if st, ok := d.done[k]; ok {
			d.mu.Unlock()
			return st, true, nil
		}
		if wg, ok := d.inflight[k]; ok {
			d.mu.Unlock()
			wg.Wait()
			continue
		}
		wg := &sync.WaitGroup{}
		wg.Add(1)
		d.inflight[k] = wg
		d.mu.Unlock()

		st = d.Populator.PopulateChunk(d.Store, cx, cz)

		d.mu.Lock()
		d.done[k] = st
		delete(d.inflight, k)
		d.mu.Unlock()
		wg.Done()
		if d.OnChunk != nil {
			d.OnChunk(st)
		}
		return st, false, nil
	}
}

// Mark records a chunk populated elsewhere, such as by PopulateRegion on
// the same store, so that it is not populated again.
func (d *OnDemand) Mark(st ChunkStats) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done == nil {
		d.done = map[terrain.ChunkKey]ChunkStats{}
		d.inflight = map[terrain.ChunkKey]*sync.WaitGroup{}
	}
	d.done[terrain.ChunkKey{CX: st.CX, CZ: st.CZ}] = st
}

// Populated reports how many chunks have been populated so far.
func (d *OnDemand) Populated() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.done)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

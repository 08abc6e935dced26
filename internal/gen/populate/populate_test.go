package populate

import (
	"context"
	"errors"
	"testing"

	"terraincontrol.ai/internal/gen/engine"
	"terraincontrol.ai/internal/gen/resource"
	"terraincontrol.ai/internal/gen/terrain"
	"terraincontrol.ai/internal/gen/worldconfig"
)

func testPopulator(t *testing.T, seed int64, lines ...string) *Populator {
	t.Helper()
	e := engine.New()
	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	s, err := worldconfig.Compile(worldconfig.Config{Name: "pop", Height: 128, SeaLevel: 40, Resources: lines}, e)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return &Populator{Seed: seed, Resources: s.Resources}
}

func newWorld(seed int64) *terrain.ChunkStore {
	return terrain.NewChunkStore(terrain.NewHeightGen(seed, 40, nil), nil, 128)
}

func TestPopulateChunk_CountsPerResource(t *testing.T) {
	p := testPopulator(t, 11,
		"Ore(COAL_ORE,16,20,100,0,128,STONE)",
		"Ore(DIAMOND_ORE,7,1,100,0,16,SAND)",
	)
	st := p.PopulateChunk(newWorld(11), 0, 0)
	if len(st.PerResource) != 2 {
		t.Fatalf("expected per-resource counts")
	}
	if st.PerResource[0] == 0 {
		t.Fatalf("coal should have been placed")
	}
	if st.PerResource[1] != 0 {
		t.Fatalf("diamonds must only replace sand, and there is none below y 16")
	}
	if st.Writes != st.PerResource[0]+st.PerResource[1] {
		t.Fatalf("total %d does not match per-resource counts %v", st.Writes, st.PerResource)
	}
}

func TestPopulateChunk_DeterministicPerChunk(t *testing.T) {
	lines := []string{
		"Ore(IRON_ORE,8,20,100,0,64,STONE)",
		"Plant(YELLOW_FLOWER,4,100,30,60,GRASS)",
		"Tree(3,Tree,100)",
	}
	a, b := newWorld(3), newWorld(3)
	testPopulator(t, 3, lines...).PopulateChunk(a, 2, -1)
	testPopulator(t, 3, lines...).PopulateChunk(b, 2, -1)
	for _, k := range a.LoadedChunkKeys() {
		if a.ChunkDigest(k.CX, k.CZ) != b.ChunkDigest(k.CX, k.CZ) {
			t.Fatalf("chunk %v differs between identical runs", k)
		}
	}

	c := newWorld(3)
	testPopulator(t, 4, lines...).PopulateChunk(c, 2, -1)
	if a.ChunkDigest(2, -1) == c.ChunkDigest(2, -1) && a.ChunkDigest(3, 0) == c.ChunkDigest(3, 0) {
		t.Fatalf("a different seed should change the placements")
	}
}

func TestParseRegion(t *testing.T) {
	r, err := ParseRegion("-1, -2, 1, 0")
	if err != nil {
		t.Fatalf("ParseRegion: %v", err)
	}
	if got := len(r.Chunks()); got != 9 {
		t.Fatalf("expected 9 chunks, got %d", got)
	}
	if r.Chunks()[0] != (terrain.ChunkKey{CX: -1, CZ: -2}) {
		t.Fatalf("unexpected first chunk %v", r.Chunks()[0])
	}
	for _, bad := range []string{"", "1,2,3", "a,0,1,1", "2,0,1,1"} {
		if _, err := ParseRegion(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestPopulateRegion_VisitsEveryChunkOnce(t *testing.T) {
	p := testPopulator(t, 9, "Ore(COAL_ORE,16,20,100,0,128,STONE)")
	region := Region{MinCX: -2, MinCZ: -2, MaxCX: 1, MaxCZ: 1}
	seen := map[terrain.ChunkKey]int{}
	err := p.PopulateRegion(context.Background(), newWorld(9), region, 4, func(st ChunkStats) {
		seen[terrain.ChunkKey{CX: st.CX, CZ: st.CZ}]++
	})
	if err != nil {
		t.Fatalf("PopulateRegion: %v", err)
	}
	if len(seen) != 16 {
		t.Fatalf("expected 16 chunks, got %d", len(seen))
	}
	for k, n := range seen {
		if n != 1 {
			t.Fatalf("chunk %v populated %d times", k, n)
		}
	}
}

func TestPopulateRegion_StopsOnCancel(t *testing.T) {
	p := &Populator{Seed: 1, Resources: []resource.Resource{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := p.PopulateRegion(ctx, newWorld(1), Region{MaxCX: 9, MaxCZ: 9}, 2, func(ChunkStats) { calls++ })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("no chunk should be dispatched after cancel, got %d", calls)
	}
}

func TestOnDemand_PopulatesOnce(t *testing.T) {
	p := testPopulator(t, 21, "Ore(COAL_ORE,16,20,100,0,128,STONE)")
	var recorded []ChunkStats
	d := &OnDemand{Populator: p, Store: newWorld(21), Limit: 4, OnChunk: func(st ChunkStats) {
		recorded = append(recorded, st)
	}}

	first, cached, err := d.Chunk(1, -2)
	if err != nil || cached {
		t.Fatalf("first request: cached=%v err=%v", cached, err)
	}
	digest := d.Store.ChunkDigest(1, -2)
	again, cached, err := d.Chunk(1, -2)
	if err != nil || !cached {
		t.Fatalf("second request should be cached: %v", err)
	}
	if again.Writes != first.Writes || d.Store.ChunkDigest(1, -2) != digest {
		t.Fatalf("a cached request must not populate again")
	}
	if len(recorded) != 1 || d.Populated() != 1 {
		t.Fatalf("expected one recorded chunk, got %d", len(recorded))
	}

	d.Mark(ChunkStats{CX: 0, CZ: 0, Writes: 7})
	if st, cached, _ := d.Chunk(0, 0); !cached || st.Writes != 7 {
		t.Fatalf("a marked chunk should be served as cached, got %+v", st)
	}

	if _, _, err := d.Chunk(5, 0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

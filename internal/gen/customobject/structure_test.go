package customobject

import (
	"testing"

	"terraincontrol.ai/internal/gen/material"
	"terraincontrol.ai/internal/gen/rng"
	"terraincontrol.ai/internal/gen/terrain"
)

type flatGen struct {
	top     int
	surface int
}

func (g flatGen) GenerateChunk(ch *terrain.Chunk) {
	stone, _ := material.Default().Lookup("STONE")
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			for y := 0; y < g.top; y++ {
				ch.Set(x, y, z, terrain.Pack(stone, 0))
			}
			ch.Set(x, g.top, z, terrain.Pack(g.surface, 0))
		}
	}
}

// grassWorld is flat stone with a grass layer at y=top, so the first free
// y of every column is top+1.
func grassWorld(top int) *terrain.ChunkStore {
	grass, _ := material.Default().Lookup("GRASS")
	return terrain.NewChunkStore(flatGen{top: top, surface: grass}, nil, 128)
}

func mustID(t *testing.T, name string) int {
	t.Helper()
	id, ok := material.Default().Lookup(name)
	if !ok {
		t.Fatalf("unknown material %s", name)
	}
	return id
}

func slab(t *testing.T) *Structure {
	s := newStructure("slab")
	s.RandomRotation = false
	s.SpawnOn = []int{mustID(t, "GRASS")}
	cobble := material.Material{ID: mustID(t, "COBBLESTONE")}
	s.Blocks = []Block{{X: 0, Y: 0, Z: 0, Material: cobble}, {X: 1, Y: 0, Z: 0, Material: cobble}, {X: 0, Y: 1, Z: 0, Material: cobble}}
	return s
}

func TestStructure_SpawnChecks(t *testing.T) {
	w := grassWorld(16)
	s := slab(t)
	r := rng.NewJava(3)
	cobble := mustID(t, "COBBLESTONE")

	if !s.Spawn(w, r, 0, 17, 0) {
		t.Fatalf("expected spawn on flat grass")
	}
	if w.BlockID(1, 17, 0) != cobble || w.BlockID(0, 18, 0) != cobble {
		t.Fatalf("blocks not written")
	}
	if s.Spawn(w, r, 0, 17, 0) {
		t.Fatalf("collision with existing blocks must reject")
	}
	s.Dig = true
	if !s.Spawn(w, r, 0, 17, 0) {
		t.Fatalf("dig should ignore collisions")
	}
	s.Dig = false

	if s.Spawn(w, r, 4, 25, 4) {
		t.Fatalf("air below the origin must reject")
	}
	if !s.Spawn(w, r, 4, 17, 4) {
		t.Fatalf("expected spawn at 4,17,4")
	}

	w.SetBlock(8, 16, 8, mustID(t, "STATIONARY_WATER"), 0)
	s.SpawnOn = nil
	if s.Spawn(w, r, 8, 17, 8) {
		t.Fatalf("liquid base must reject without spawnWater")
	}
	s.SpawnWater = true
	if !s.Spawn(w, r, 8, 17, 8) {
		t.Fatalf("spawnWater should allow a liquid base")
	}

	w.SetBlock(10, 16, 10, mustID(t, "STATIONARY_LAVA"), 0)
	if s.Spawn(w, r, 10, 17, 10) {
		t.Fatalf("spawnWater must not allow a lava base")
	}
	s.SpawnLava = true
	if !s.Spawn(w, r, 10, 17, 10) {
		t.Fatalf("spawnLava should allow a lava base")
	}

	s.SpawnOn = []int{mustID(t, "SAND")}
	if s.Spawn(w, r, 12, 17, 12) {
		t.Fatalf("spawnOn mismatch must reject")
	}

	s.SpawnOn = nil
	w.SetBlock(21, 16, 20, 0, 0)
	if s.Spawn(w, r, 20, 17, 20) {
		t.Fatalf("missing foundation must reject")
	}
	s.NeedsFoundation = false
	if !s.Spawn(w, r, 20, 17, 20) {
		t.Fatalf("foundation check should be optional")
	}

	s.MinY, s.MaxY = 30, 40
	if s.Spawn(w, r, 30, 17, 30) {
		t.Fatalf("elevation bounds must reject")
	}
}

func TestStructure_RandomRotationStaysOnRing(t *testing.T) {
	cobble := mustID(t, "COBBLESTONE")
	seen := map[[2]int]bool{}
	for seed := int64(0); seed < 64; seed++ {
		w := grassWorld(16)
		s := newStructure("arm")
		s.Blocks = []Block{{X: 2, Y: 0, Z: 0, Material: material.Material{ID: cobble}}}
		if !s.Spawn(w, rng.NewJava(seed), 0, 17, 0) {
			t.Fatalf("seed %d: expected spawn", seed)
		}
		found := false
		for _, p := range [][2]int{{2, 0}, {0, -2}, {-2, 0}, {0, 2}} {
			if w.BlockID(p[0], 17, p[1]) == cobble {
				seen[p] = true
				found = true
			}
		}
		if !found {
			t.Fatalf("seed %d: block not at any quarter turn", seed)
		}
	}
	if len(seen) != 4 {
		t.Fatalf("expected all four rotations over 64 seeds, got %d", len(seen))
	}
}

func TestStructure_ProcessStaysInPopulationArea(t *testing.T) {
	w := grassWorld(16)
	s := slab(t)
	s.Blocks = s.Blocks[:1]
	s.Rarity = 100
	s.Frequency = 6
	s.Process(w, rng.NewJava(11), 2, -1)

	cobble := mustID(t, "COBBLESTONE")
	placed := 0
	for x := 0; x < 64; x++ {
		for z := -32; z < 32; z++ {
			if w.BlockID(x, 17, z) != cobble {
				continue
			}
			placed++
			if x < 40 || x >= 56 || z < -8 || z >= 8 {
				t.Fatalf("block at %d,%d outside the offset chunk area", x, z)
			}
		}
	}
	if placed == 0 {
		t.Fatalf("expected at least one placement")
	}

	// no roll of seed 11 is 0 within six attempts
	s.Rarity = 0
	w2 := grassWorld(16)
	s.Process(w2, rng.NewJava(11), 2, -1)
	if n := len(w2.LoadedChunkKeys()); n != 0 {
		t.Fatalf("rarity 0 must skip every nonzero roll, %d chunks loaded", n)
	}

	// the first roll of seed 18 is 0, which rarity 0 still accepts
	s.Frequency = 1
	w3 := grassWorld(16)
	s.Process(w3, rng.NewJava(18), 2, -1)
	if n := len(w3.LoadedChunkKeys()); n == 0 {
		t.Fatalf("a roll equal to the rarity must be accepted")
	}
}

func TestTrees(t *testing.T) {
	trees := BuiltinTrees(nil)
	logID, leaves, dirt := mustID(t, "LOG"), mustID(t, "LEAVES"), mustID(t, "DIRT")

	for i, tr := range trees {
		w := grassWorld(16)
		x, z := i*20, 0
		if !tr.SpawnAsTree(w, rng.NewJava(int64(i)), x, z) {
			t.Fatalf("%s: expected tree on grass", tr.Name())
		}
		if w.BlockID(x, 16, z) != dirt {
			t.Fatalf("%s: soil should turn to dirt", tr.Name())
		}
		top := 17
		for w.BlockID(x, top, z) == logID {
			top++
		}
		h := top - 17
		if h < tr.minHeight || h > tr.minHeight+tr.extraHeight {
			t.Fatalf("%s: trunk height %d out of range", tr.Name(), h)
		}
		if w.BlockID(x, top, z) != leaves {
			t.Fatalf("%s: expected leaves above the trunk", tr.Name())
		}
		if tr.SpawnAsTree(w, rng.NewJava(1), x, z) {
			t.Fatalf("%s: must not grow on leaves", tr.Name())
		}
	}

	stone := terrain.NewChunkStore(flatGen{top: 16, surface: mustID(t, "STONE")}, nil, 128)
	if trees[0].SpawnAsTree(stone, rng.NewJava(1), 0, 0) {
		t.Fatalf("trees need grass or dirt")
	}

	s := slab(t)
	if s.SpawnAsTree(grassWorld(16), rng.NewJava(1), 0, 0) {
		t.Fatalf("structures without the tree flag must not grow as trees")
	}
	s.Tree = true
	if !s.SpawnAsTree(grassWorld(16), rng.NewJava(1), 0, 0) {
		t.Fatalf("tree-flagged structures grow as trees")
	}
}

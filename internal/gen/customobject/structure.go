package customobject

import (
	"terraincontrol.ai/internal/gen/material"
	"terraincontrol.ai/internal/gen/rng"
	"terraincontrol.ai/internal/gen/terrain"
)

// Block is one block of a structure, relative to the origin.
type Block struct {
	X, Y, Z  int
	Material material.Material
}

// Structure is a file-backed object. Loaders fill it; it is immutable after
// Load returns.
type Structure struct {
	ObjectName string
	Blocks     []Block

	// SpawnOn restricts the block id under the origin. Empty means any
	// non-air block.
	SpawnOn []int
	// Rarity is the per-attempt acceptance percentage used by Process.
	Rarity int
	// Frequency is the number of attempts per chunk used by Process.
	Frequency int
	MinY      int
	MaxY      int

	Dig             bool
	NeedsFoundation bool
	RandomRotation  bool
	SpawnWater      bool
	SpawnLava       bool
	Tree            bool

	lava []int
}

func newStructure(name string) *Structure {
	return &Structure{
		ObjectName:      name,
		Rarity:          10,
		Frequency:       1,
		MinY:            0,
		MaxY:            terrain.WorldHeight,
		NeedsFoundation: true,
		RandomRotation:  true,
		lava:            lavaIDs(material.Default()),
	}
}

func lavaIDs(mats *material.Table) []int {
	var ids []int
	for _, name := range []string{"LAVA", "STATIONARY_LAVA"} {
		if id, ok := mats.Lookup(name); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Structure) Name() string           { return s.ObjectName }
func (s *Structure) CanSpawnAsObject() bool { return true }
func (s *Structure) CanSpawnAsTree() bool   { return s.Tree }

func rotate(x, z, quarter int) (int, int) {
	switch quarter & 3 {
	case 1:
		return z, -x
	case 2:
		return -x, -z
	case 3:
		return -z, x
	default:
		return x, z
	}
}

func (s *Structure) Spawn(w terrain.World, r rng.Random, x, y, z int) bool {
	if y < s.MinY || y > s.MaxY || y < 1 || y >= w.Height() {
		return false
	}
	quarter := 0
	if s.RandomRotation {
		quarter = r.Intn(4)
	}

	below := w.BlockID(x, y-1, z)
	if below == 0 {
		return false
	}
	if len(s.SpawnOn) > 0 && !containsID(s.SpawnOn, below) {
		return false
	}
	if w.IsLiquid(x, y-1, z) {
		if containsID(s.lava, below) {
			if !s.SpawnLava {
				return false
			}
		} else if !s.SpawnWater {
			return false
		}
	}

	for _, b := range s.Blocks {
		dx, dz := rotate(b.X, b.Z, quarter)
		bx, by, bz := x+dx, y+b.Y, z+dz
		if by < 0 || by >= w.Height() {
			return false
		}
		if !s.Dig && !w.IsEmpty(bx, by, bz) {
			return false
		}
		if s.NeedsFoundation && b.Y == 0 && w.IsEmpty(bx, by-1, bz) {
			return false
		}
	}
	for _, b := range s.Blocks {
		dx, dz := rotate(b.X, b.Z, quarter)
		w.SetBlock(x+dx, y+b.Y, z+dz, b.Material.ID, b.Material.Data)
	}
	return true
}

func (s *Structure) SpawnAsTree(w terrain.World, r rng.Random, x, z int) bool {
	if !s.Tree {
		return false
	}
	return s.Spawn(w, r, x, w.HighestSolidY(x, z), z)
}

func (s *Structure) Process(w terrain.World, r rng.Random, chunkX, chunkZ int) {
	for i := 0; i < s.Frequency; i++ {
		if r.Intn(100) > s.Rarity {
			continue
		}
		x := chunkX*16 + r.Intn(16) + 8
		z := chunkZ*16 + r.Intn(16) + 8
		s.Spawn(w, r, x, w.HighestSolidY(x, z), z)
	}
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

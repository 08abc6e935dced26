package customobject

import (
	"terraincontrol.ai/internal/gen/material"
	"terraincontrol.ai/internal/gen/rng"
	"terraincontrol.ai/internal/gen/terrain"
)

// UseWorldName is the sentinel that stands for the world's default object set.
const UseWorldName = "UseWorld"

// UseWorld is a placeholder until bound to a Context; unbound it places
// nothing.
type UseWorld struct{}

func (UseWorld) Name() string           { return UseWorldName }
func (UseWorld) CanSpawnAsObject() bool { return true }
func (UseWorld) CanSpawnAsTree() bool   { return false }

func (UseWorld) Spawn(terrain.World, rng.Random, int, int, int) bool { return false }
func (UseWorld) SpawnAsTree(terrain.World, rng.Random, int, int) bool { return false }
func (UseWorld) Process(terrain.World, rng.Random, int, int)          {}

func (UseWorld) Bind(ctx Context) CustomObject {
	return &worldObjects{ctx: ctx}
}

type worldObjects struct {
	UseWorld
	ctx Context
}

func (o *worldObjects) spawnable() []CustomObject {
	all := o.ctx.WorldObjects()
	out := make([]CustomObject, 0, len(all))
	for _, obj := range all {
		if obj.CanSpawnAsObject() {
			out = append(out, obj)
		}
	}
	return out
}

// Spawn places one object picked at random from the world's set.
func (o *worldObjects) Spawn(w terrain.World, r rng.Random, x, y, z int) bool {
	objs := o.spawnable()
	if len(objs) == 0 {
		return false
	}
	return objs[r.Intn(len(objs))].Spawn(w, r, x, y, z)
}

// Process lets every object in the world's set run its own chunk logic, in
// the set's order.
func (o *worldObjects) Process(w terrain.World, r rng.Random, chunkX, chunkZ int) {
	for _, obj := range o.spawnable() {
		obj.Process(w, r, chunkX, chunkZ)
	}
}

type treeShape int

const (
	shapeRound treeShape = iota
	shapeCone
)

// Tree is a procedural tree usable only through the Tree resource.
type Tree struct {
	name        string
	shape       treeShape
	log, leaves material.Material
	minHeight   int
	extraHeight int
	soil        []int
	dirt        int
}

func (t *Tree) Name() string           { return t.name }
func (t *Tree) CanSpawnAsObject() bool { return false }
func (t *Tree) CanSpawnAsTree() bool   { return true }

func (t *Tree) Process(terrain.World, rng.Random, int, int) {}

func (t *Tree) SpawnAsTree(w terrain.World, r rng.Random, x, z int) bool {
	return t.Spawn(w, r, x, w.HighestSolidY(x, z), z)
}

func (t *Tree) Spawn(w terrain.World, r rng.Random, x, y, z int) bool {
	if y < 1 || !containsID(t.soil, w.BlockID(x, y-1, z)) {
		return false
	}
	height := t.minHeight + r.Intn(t.extraHeight+1)
	if y+height+2 >= w.Height() {
		return false
	}
	for i := 0; i < height; i++ {
		if !w.IsEmpty(x, y+i, z) {
			return false
		}
	}

	leaf := func(lx, ly, lz int) {
		if w.IsEmpty(lx, ly, lz) {
			w.SetBlock(lx, ly, lz, t.leaves.ID, t.leaves.Data)
		}
	}
	top := y + height - 1
	switch t.shape {
	case shapeCone:
		for dy := 2; dy <= height; dy++ {
			radius := 2
			if dy > height-2 {
				radius = 0
			} else if dy > height-4 {
				radius = 1
			}
			for dx := -radius; dx <= radius; dx++ {
				for dz := -radius; dz <= radius; dz++ {
					if radius > 1 && abs(dx) == radius && abs(dz) == radius {
						continue
					}
					leaf(x+dx, y+dy, z+dz)
				}
			}
		}
	default:
		for dy := -1; dy <= 0; dy++ {
			for dx := -2; dx <= 2; dx++ {
				for dz := -2; dz <= 2; dz++ {
					if abs(dx) == 2 && abs(dz) == 2 {
						continue
					}
					leaf(x+dx, top+dy, z+dz)
				}
			}
		}
		for dy := 1; dy <= 2; dy++ {
			for dx := -1; dx <= 1; dx++ {
				for dz := -1; dz <= 1; dz++ {
					if dy == 2 && dx != 0 && dz != 0 {
						continue
					}
					leaf(x+dx, top+dy, z+dz)
				}
			}
		}
	}

	w.SetBlock(x, y-1, z, t.dirt, 0)
	for i := 0; i < height; i++ {
		w.SetBlock(x, y+i, z, t.log.ID, t.log.Data)
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// BuiltinTrees returns the procedural trees registered as special objects.
func BuiltinTrees(mats *material.Table) []*Tree {
	if mats == nil {
		mats = material.Default()
	}
	id := func(name string) int {
		v, _ := mats.Lookup(name)
		return v
	}
	soil := []int{id("GRASS"), id("DIRT")}
	log, leaves := id("LOG"), id("LEAVES")
	return []*Tree{
		{name: "Tree", shape: shapeRound, log: material.Material{ID: log}, leaves: material.Material{ID: leaves}, minHeight: 4, extraHeight: 2, soil: soil, dirt: id("DIRT")},
		{name: "BirchTree", shape: shapeRound, log: material.Material{ID: log, Data: 2}, leaves: material.Material{ID: leaves, Data: 2}, minHeight: 5, extraHeight: 2, soil: soil, dirt: id("DIRT")},
		{name: "TaigaTree", shape: shapeCone, log: material.Material{ID: log, Data: 1}, leaves: material.Material{ID: leaves, Data: 1}, minHeight: 6, extraHeight: 3, soil: soil, dirt: id("DIRT")},
	}
}

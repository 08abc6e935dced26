package resource

import (
	"strconv"

	"terraincontrol.ai/internal/gen/material"
	"terraincontrol.ai/internal/gen/rng"
	"terraincontrol.ai/internal/gen/terrain"
)

const AboveWaterName = "AboveWaterRes"

// AboveWater scatters a block on top of liquid, e.g. lily pads.
type AboveWater struct {
	Base
	Block material.Material

	mats *material.Table
}

func (a *AboveWater) Load(env Env, args []string) error {
	if err := AssureSize(3, args); err != nil {
		return err
	}
	mats := env.materials()
	block, err := ParseMaterial(mats, args[0])
	if err != nil {
		return err
	}
	freq, err := GetInt(args[1], 1, 100)
	if err != nil {
		return err
	}
	rarity, err := GetInt(args[2], 0, 100)
	if err != nil {
		return err
	}
	a.Block, a.Frequency, a.Rarity, a.mats = block, freq, rarity, mats
	return nil
}

// Spawn makes ten attempts around the column at the column's surface
// height. Offsets are the difference of two draws in [0,8), so they range
// over [-7,7] and favour zero. An attempt places only into an empty block
// sitting on liquid.
func (a *AboveWater) Spawn(w terrain.World, r rng.Random, x, z int) {
	y := w.HighestSolidY(x, z)
	for i := 0; i < 10; i++ {
		j := x + r.Intn(8) - r.Intn(8)
		m := z + r.Intn(8) - r.Intn(8)
		if !w.IsEmpty(j, y, m) || !w.IsLiquid(j, y-1, m) {
			continue
		}
		w.SetBlock(j, y, m, a.Block.ID, a.Block.Data)
	}
}

func (a *AboveWater) Process(w terrain.World, r rng.Random, chunkX, chunkZ int) {
	a.Scatter(w, r, chunkX, chunkZ, a.Spawn)
}

func (a *AboveWater) Type() Type   { return TypeDecoration }
func (a *AboveWater) Name() string { return AboveWaterName }

func (a *AboveWater) String() string {
	return Format(AboveWaterName, orDefault(a.mats).EncodeMaterial(a.Block), strconv.Itoa(a.Frequency), strconv.Itoa(a.Rarity))
}

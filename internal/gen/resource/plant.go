package resource

import (
	"strconv"

	"terraincontrol.ai/internal/gen/material"
	"terraincontrol.ai/internal/gen/rng"
	"terraincontrol.ai/internal/gen/terrain"
)

const PlantName = "Plant"

// Plant scatters a block into empty space directly above a source block,
// e.g. flowers on grass.
type Plant struct {
	Base
	Block       material.Material
	MinAltitude int
	MaxAltitude int
	Sources     []int

	mats *material.Table
}

func (p *Plant) Load(env Env, args []string) error {
	if err := AssureSize(6, args); err != nil {
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
	minY, err := GetInt(args[3], terrain.WorldDepth, terrain.WorldHeight)
	if err != nil {
		return err
	}
	maxY, err := GetInt(args[4], minY, terrain.WorldHeight)
	if err != nil {
		return err
	}
	sources, err := ParseMaterials(mats, args[5:])
	if err != nil {
		return err
	}
	p.Block, p.Frequency, p.Rarity = block, freq, rarity
	p.MinAltitude, p.MaxAltitude, p.Sources, p.mats = minY, maxY, sources, mats
	return nil
}

// Spawn makes 64 jittered attempts around a random altitude.
func (p *Plant) Spawn(w terrain.World, r rng.Random, x, z int) {
	y := numberInRange(r, p.MinAltitude, p.MaxAltitude)
	for i := 0; i < 64; i++ {
		j := x + r.Intn(8) - r.Intn(8)
		k := y + r.Intn(4) - r.Intn(4)
		m := z + r.Intn(8) - r.Intn(8)
		if !w.IsEmpty(j, k, m) || !contains(p.Sources, w.BlockID(j, k-1, m)) {
			continue
		}
		w.SetBlock(j, k, m, p.Block.ID, p.Block.Data)
	}
}

func (p *Plant) Process(w terrain.World, r rng.Random, chunkX, chunkZ int) {
	p.Scatter(w, r, chunkX, chunkZ, p.Spawn)
}

func (p *Plant) Type() Type   { return TypeDecoration }
func (p *Plant) Name() string { return PlantName }

func (p *Plant) String() string {
	mats := orDefault(p.mats)
	args := []string{
		mats.EncodeMaterial(p.Block),
		strconv.Itoa(p.Frequency),
		strconv.Itoa(p.Rarity),
		strconv.Itoa(p.MinAltitude),
		strconv.Itoa(p.MaxAltitude),
	}
	return Format(PlantName, append(args, encodeIDs(mats, p.Sources)...)...)
}

package terrain

import "terraincontrol.ai/internal/gen/material"

// HeightGen is a small value-noise base generator. It stands in for the
// host's terrain shaper so population can run outside a game server.
type HeightGen struct {
	Seed       int64
	SeaLevel   int
	BaseHeight int
	Amplitude  int

	air, stone, dirt, grass, sand, water, bedrock int
}

func NewHeightGen(seed int64, seaLevel int, mats *material.Table) *HeightGen {
	if mats == nil {
		mats = material.Default()
	}
	id := func(name string) int {
		v, _ := mats.Lookup(name)
		return v
	}
	return &HeightGen{
		Seed:       seed,
		SeaLevel:   seaLevel,
		BaseHeight: seaLevel,
		Amplitude:  12,
		air:        id("AIR"),
		stone:      id("STONE"),
		dirt:       id("DIRT"),
		grass:      id("GRASS"),
		sand:       id("SAND"),
		water:      id("STATIONARY_WATER"),
		bedrock:    id("BEDROCK"),
	}
}

func (g *HeightGen) corner(seed int64, gx, gz int) float64 {
	return float64(Hash2(seed, gx, gz)%1000) / 999.0
}

func (g *HeightGen) valueNoise(seed int64, x, z, grid int) float64 {
	gx, gz := floorDiv(x, grid), floorDiv(z, grid)
	fx := float64(mod(x, grid)) / float64(grid)
	fz := float64(mod(z, grid)) / float64(grid)
	// smoothstep
	fx = fx * fx * (3 - 2*fx)
	fz = fz * fz * (3 - 2*fz)
	a := g.corner(seed, gx, gz)
	b := g.corner(seed, gx+1, gz)
	c := g.corner(seed, gx, gz+1)
	d := g.corner(seed, gx+1, gz+1)
	top := a + (b-a)*fx
	bot := c + (d-c)*fx
	return top + (bot-top)*fz
}

// SurfaceHeight returns the y of the top terrain block in a column.
func (g *HeightGen) SurfaceHeight(x, z int) int {
	n := 0.75*g.valueNoise(g.Seed+11, x, z, 32) + 0.25*g.valueNoise(g.Seed+12, x, z, 8)
	return g.BaseHeight + int((n-0.5)*2*float64(g.Amplitude))
}

func (g *HeightGen) GenerateChunk(ch *Chunk) {
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			h := g.SurfaceHeight(ch.CX*16+x, ch.CZ*16+z)
			if h >= ch.Height {
				h = ch.Height - 1
			}
			top := g.grass
			if h <= g.SeaLevel+1 {
				top = g.sand
			}
			for y := 0; y < ch.Height; y++ {
				b := g.air
				switch {
				case y == 0:
					b = g.bedrock
				case y < h-3:
					b = g.stone
				case y < h:
					b = g.dirt
				case y == h:
					b = top
				case y <= g.SeaLevel:
					b = g.water
				}
				if b != g.air {
					ch.Blocks[ch.index(x, y, z)] = Pack(b, 0)
				}
			}
		}
	}
}

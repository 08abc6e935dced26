package resource

import (
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"

	"terraincontrol.ai/internal/gen/material"
	"terraincontrol.ai/internal/gen/rng"
	"terraincontrol.ai/internal/gen/terrain"
)

const OreName = "Ore"

// Ore places an elongated vein that only replaces source blocks.
type Ore struct {
	Base
	Block       material.Material
	Size        int
	MinAltitude int
	MaxAltitude int
	Sources     []int

	mats *material.Table
}

func (o *Ore) Load(env Env, args []string) error {
	if err := AssureSize(7, args); err != nil {
		return err
	}
	mats := env.materials()
	block, err := ParseMaterial(mats, args[0])
	if err != nil {
		return err
	}
	size, err := GetInt(args[1], 1, 128)
	if err != nil {
		return err
	}
	freq, err := GetInt(args[2], 1, 100)
	if err != nil {
		return err
	}
	rarity, err := GetInt(args[3], 0, 100)
	if err != nil {
		return err
	}
	minY, err := GetInt(args[4], terrain.WorldDepth, terrain.WorldHeight)
	if err != nil {
		return err
	}
	maxY, err := GetInt(args[5], minY, terrain.WorldHeight)
	if err != nil {
		return err
	}
	sources, err := ParseMaterials(mats, args[6:])
	if err != nil {
		return err
	}
	o.Block, o.Size, o.Frequency, o.Rarity = block, size, freq, rarity
	o.MinAltitude, o.MaxAltitude, o.Sources, o.mats = minY, maxY, sources, mats
	return nil
}

// Spawn draws the vein's altitude, then runs a line of Size+1 spheres
// between two endpoints mirrored around the column. Sphere radius swells
// toward the middle of the line.
func (o *Ore) Spawn(w terrain.World, r rng.Random, x, z int) {
	y := numberInRange(r, o.MinAltitude, o.MaxAltitude)
	size := float64(o.Size)
	angle := r.Float64() * math.Pi
	offset := mgl64.Vec2{math.Cos(angle), math.Sin(angle)}.Mul(size / 8)
	from := mgl64.Vec3{float64(x) + offset[0], float64(y + r.Intn(3) - 2), float64(z) + offset[1]}
	to := mgl64.Vec3{float64(x) - offset[0], float64(y + r.Intn(3) - 2), float64(z) - offset[1]}
	line := to.Sub(from)

	for i := 0.0; i <= size; i++ {
		center := from.Add(line.Mul(i / size))
		radius := ((math.Sin(i*math.Pi/size)+1)*r.Float64()*size/16 + 1) / 2
		o.fill(w, center, radius)
	}
}

func (o *Ore) fill(w terrain.World, c mgl64.Vec3, radius float64) {
	x0, x1 := int(math.Floor(c.X()-radius)), int(math.Floor(c.X()+radius))
	y0, y1 := int(math.Floor(c.Y()-radius)), int(math.Floor(c.Y()+radius))
	z0, z1 := int(math.Floor(c.Z()-radius)), int(math.Floor(c.Z()+radius))
	if y0 < 1 {
		y0 = 1
	}
	if y1 >= w.Height() {
		y1 = w.Height() - 1
	}
	for bx := x0; bx <= x1; bx++ {
		dx := (float64(bx) + 0.5 - c.X()) / radius
		for by := y0; by <= y1; by++ {
			dy := (float64(by) + 0.5 - c.Y()) / radius
			if dx*dx+dy*dy >= 1 {
				continue
			}
			for bz := z0; bz <= z1; bz++ {
				dz := (float64(bz) + 0.5 - c.Z()) / radius
				if dx*dx+dy*dy+dz*dz < 1 && contains(o.Sources, w.BlockID(bx, by, bz)) {
					w.SetBlock(bx, by, bz, o.Block.ID, o.Block.Data)
				}
			}
		}
	}
}

func (o *Ore) Process(w terrain.World, r rng.Random, chunkX, chunkZ int) {
	o.Scatter(w, r, chunkX, chunkZ, o.Spawn)
}

func (o *Ore) Type() Type   { return TypeOre }
func (o *Ore) Name() string { return OreName }

func (o *Ore) String() string {
	mats := orDefault(o.mats)
	args := []string{
		mats.EncodeMaterial(o.Block),
		strconv.Itoa(o.Size),
		strconv.Itoa(o.Frequency),
		strconv.Itoa(o.Rarity),
		strconv.Itoa(o.MinAltitude),
		strconv.Itoa(o.MaxAltitude),
	}
	return Format(OreName, append(args, encodeIDs(mats, o.Sources)...)...)
}

const UnderWaterOreName = "UnderWaterOre"

// UnderWaterOre replaces source blocks in a disc on the floor beneath
// liquid, like sand and clay patches in lakes.
type UnderWaterOre struct {
	Base
	Block   material.Material
	Size    int
	Sources []int

	mats *material.Table
}

func (u *UnderWaterOre) Load(env Env, args []string) error {
	if err := AssureSize(5, args); err != nil {
		return err
	}
	mats := env.materials()
	block, err := ParseMaterial(mats, args[0])
	if err != nil {
		return err
	}
	size, err := GetInt(args[1], 1, 8)
	if err != nil {
		return err
	}
	freq, err := GetInt(args[2], 1, 100)
	if err != nil {
		return err
	}
	rarity, err := GetInt(args[3], 0, 100)
	if err != nil {
		return err
	}
	sources, err := ParseMaterials(mats, args[4:])
	if err != nil {
		return err
	}
	u.Block, u.Size, u.Frequency, u.Rarity, u.Sources, u.mats = block, size, freq, rarity, sources, mats
	return nil
}

func (u *UnderWaterOre) Spawn(w terrain.World, r rng.Random, x, z int) {
	y := terrain.SolidHeight(w, x, z)
	if !w.IsLiquid(x, y, z) {
		return
	}
	radius := r.Intn(u.Size)
	for bx := x - radius; bx <= x+radius; bx++ {
		for bz := z - radius; bz <= z+radius; bz++ {
			dx, dz := bx-x, bz-z
			if dx*dx+dz*dz > radius*radius {
				continue
			}
			for by := y - 2; by <= y+2; by++ {
				if contains(u.Sources, w.BlockID(bx, by, bz)) {
					w.SetBlock(bx, by, bz, u.Block.ID, u.Block.Data)
				}
			}
		}
	}
}

func (u *UnderWaterOre) Process(w terrain.World, r rng.Random, chunkX, chunkZ int) {
	u.Scatter(w, r, chunkX, chunkZ, u.Spawn)
}

func (u *UnderWaterOre) Type() Type   { return TypeOre }
func (u *UnderWaterOre) Name() string { return UnderWaterOreName }

func (u *UnderWaterOre) String() string {
	mats := orDefault(u.mats)
	args := []string{
		mats.EncodeMaterial(u.Block),
		strconv.Itoa(u.Size),
		strconv.Itoa(u.Frequency),
		strconv.Itoa(u.Rarity),
	}
	return Format(UnderWaterOreName, append(args, encodeIDs(mats, u.Sources)...)...)
}

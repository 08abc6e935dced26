// Package resource implements configured placement rules. A resource is
// loaded from one configuration line such as Ore(IRON_ORE,8,20,100,0,64,STONE)
// and is then run once per chunk against the chunk's random source.
package resource

import (
	"errors"

	"terraincontrol.ai/internal/gen/customobject"
	"terraincontrol.ai/internal/gen/material"
	"terraincontrol.ai/internal/gen/rng"
	"terraincontrol.ai/internal/gen/terrain"
)

var (
	ErrInvalidArguments = errors.New("invalid resource arguments")
	ErrUnknownType      = errors.New("unknown resource type")
	ErrMalformedLine    = errors.New("malformed resource line")
)

// Type groups resources for ordering and validation by the world config.
type Type int

const (
	TypeOre Type = iota
	TypeDecoration
	TypeStructure
)

func (t Type) String() string {
	switch t {
	case TypeOre:
		return "ore"
	case TypeDecoration:
		return "decoration"
	case TypeStructure:
		return "structure"
	default:
		return "unknown"
	}
}

// Resource is one placement rule. Load is called once; afterwards the value
// is read-only and may be shared by concurrently populated chunks.
type Resource interface {
	Load(env Env, args []string) error
	// Spawn places exactly one instance at the column, ignoring frequency
	// and rarity.
	Spawn(w terrain.World, r rng.Random, x, z int)
	Process(w terrain.World, r rng.Random, chunkX, chunkZ int)
	Type() Type
	// String renders the canonical configuration line.
	String() string
	Name() string
}

// ObjectResolver turns object tokens into custom objects.
// *customobject.Manager implements it.
type ObjectResolver interface {
	GetObjectFromString(token string, ctx customobject.Context) customobject.CustomObject
}

// Env carries the registries a resource consults while loading.
type Env struct {
	Materials *material.Table
	Objects   ObjectResolver
	Context   customobject.Context
}

func (e Env) materials() *material.Table {
	return orDefault(e.Materials)
}

// SpawnFunc places one instance at a column.
type SpawnFunc func(w terrain.World, r rng.Random, x, z int)

// Base holds the frequency/rarity pair shared by most variants.
type Base struct {
	Frequency int
	Rarity    int
}

// Scatter runs Frequency attempts. Each attempt draws a roll in [0,100) and
// is skipped when the roll exceeds Rarity; an accepted attempt draws x then
// z inside the chunk, offset by 8, and calls spawn. Rejected attempts draw
// nothing more.
func (b Base) Scatter(w terrain.World, r rng.Random, chunkX, chunkZ int, spawn SpawnFunc) {
	for t := 0; t < b.Frequency; t++ {
		if r.Intn(100) > b.Rarity {
			continue
		}
		x := chunkX*16 + r.Intn(16) + 8
		z := chunkZ*16 + r.Intn(16) + 8
		spawn(w, r, x, z)
	}
}

// Builtins returns the factories for every resource type this package
// provides, keyed by type name.
func Builtins() map[string]Factory {
	return map[string]Factory{
		AboveWaterName:    func() Resource { return &AboveWater{} },
		OreName:           func() Resource { return &Ore{} },
		UnderWaterOreName: func() Resource { return &UnderWaterOre{} },
		PlantName:         func() Resource { return &Plant{} },
		TreeName:          func() Resource { return &Tree{} },
		CustomObjectName:  func() Resource { return &CustomObjects{} },
	}
}

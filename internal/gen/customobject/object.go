// Package customobject holds prefabricated structures ("objects") and the
// manager that resolves configuration tokens to them.
package customobject

import (
	"io"

	"terraincontrol.ai/internal/gen/rng"
	"terraincontrol.ai/internal/gen/terrain"
)

// CustomObject is a named structure. Objects are shared read-only between
// worlds and resources once loaded.
type CustomObject interface {
	Name() string

	// CanSpawnAsObject reports whether the object may be referenced directly
	// from a CustomObject resource or spawned by name.
	CanSpawnAsObject() bool
	// CanSpawnAsTree reports whether a Tree resource may use the object.
	CanSpawnAsTree() bool

	// Spawn places the object with its origin at x,y,z and reports whether
	// anything was placed.
	Spawn(w terrain.World, r rng.Random, x, y, z int) bool
	// SpawnAsTree places the object on the surface of column x,z.
	SpawnAsTree(w terrain.World, r rng.Random, x, z int) bool
	// Process places the object across a chunk using its own density rules.
	Process(w terrain.World, r rng.Random, chunkX, chunkZ int)
}

// Context is the per-world namespace objects are resolved in.
type Context interface {
	// Name keys the object cache; two contexts with the same name share it.
	Name() string
	// ObjectDirs is the search path, highest priority first.
	ObjectDirs() []string
	// WorldObjects is the world's default object set.
	WorldObjects() []CustomObject
}

// Binder is implemented by special objects whose behaviour depends on the
// world they are used in.
type Binder interface {
	Bind(ctx Context) CustomObject
}

// Loader parses one definition file. file is the base file name including
// its extensions.
type Loader interface {
	Load(file string, r io.Reader) (CustomObject, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(file string, r io.Reader) (CustomObject, error)

func (f LoaderFunc) Load(file string, r io.Reader) (CustomObject, error) {
	return f(file, r)
}

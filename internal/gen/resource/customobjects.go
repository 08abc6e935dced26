package resource

import (
	"fmt"

	"terraincontrol.ai/internal/gen/customobject"
	"terraincontrol.ai/internal/gen/rng"
	"terraincontrol.ai/internal/gen/terrain"
)

const CustomObjectName = "CustomObject"

// CustomObjects hands whole chunks to a list of custom objects. With no
// arguments it stands for the world's own object set.
type CustomObjects struct {
	Objects []customobject.CustomObject
	// Names are the tokens as written in the configuration.
	Names []string
}

// Load resolves every token or fails on the first that does not resolve to
// an object that can spawn as an object. On failure the receiver is left
// untouched.
func (c *CustomObjects) Load(env Env, args []string) error {
	if len(args) == 0 {
		args = []string{customobject.UseWorldName}
	}
	objects := make([]customobject.CustomObject, 0, len(args))
	for _, arg := range args {
		obj := resolve(env, arg)
		if obj == nil || !obj.CanSpawnAsObject() {
			return fmt.Errorf("%w: no custom object found with the name %s", ErrInvalidArguments, arg)
		}
		objects = append(objects, obj)
	}
	c.Objects = objects
	c.Names = append([]string(nil), args...)
	return nil
}

// Spawn does nothing; all placement happens in Process.
func (c *CustomObjects) Spawn(terrain.World, rng.Random, int, int) {}

// Process lets each object place itself across the chunk, in declared
// order, all sharing the chunk's random source.
func (c *CustomObjects) Process(w terrain.World, r rng.Random, chunkX, chunkZ int) {
	for _, obj := range c.Objects {
		obj.Process(w, r, chunkX, chunkZ)
	}
}

func (c *CustomObjects) Type() Type   { return TypeStructure }
func (c *CustomObjects) Name() string { return CustomObjectName }

func (c *CustomObjects) String() string {
	return Format(CustomObjectName, c.Names...)
}

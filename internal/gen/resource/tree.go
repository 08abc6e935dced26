package resource

import (
	"fmt"
	"strconv"

	"terraincontrol.ai/internal/gen/customobject"
	"terraincontrol.ai/internal/gen/rng"
	"terraincontrol.ai/internal/gen/terrain"
)

const TreeName = "Tree"

// Tree grows trees from a weighted list: Tree(Frequency,Type,Chance,...).
// Every attempt walks the list in order and stops at the first tree whose
// chance roll succeeds and that actually grows.
type Tree struct {
	Frequency int
	Trees     []customobject.CustomObject
	Names     []string
	Chances   []int
}

func (t *Tree) Load(env Env, args []string) error {
	if err := AssureSize(3, args); err != nil {
		return err
	}
	if (len(args)-1)%2 != 0 {
		return fmt.Errorf("%w: tree types and chances must come in pairs", ErrInvalidArguments)
	}
	freq, err := GetInt(args[0], 1, 100)
	if err != nil {
		return err
	}
	var (
		trees   []customobject.CustomObject
		names   []string
		chances []int
	)
	for i := 1; i < len(args); i += 2 {
		obj := resolve(env, args[i])
		if obj == nil || !obj.CanSpawnAsTree() {
			return fmt.Errorf("%w: no tree found with the name %q", ErrInvalidArguments, args[i])
		}
		chance, err := GetInt(args[i+1], 0, 100)
		if err != nil {
			return err
		}
		trees = append(trees, obj)
		names = append(names, args[i])
		chances = append(chances, chance)
	}
	t.Frequency, t.Trees, t.Names, t.Chances = freq, trees, names, chances
	return nil
}

func (t *Tree) Spawn(w terrain.World, r rng.Random, x, z int) {
	for i, tree := range t.Trees {
		if r.Intn(100) < t.Chances[i] && tree.SpawnAsTree(w, r, x, z) {
			return
		}
	}
}

// Process runs Frequency attempts; trees carry no rarity of their own, so
// an attempt draws only x then z.
func (t *Tree) Process(w terrain.World, r rng.Random, chunkX, chunkZ int) {
	for i := 0; i < t.Frequency; i++ {
		x := chunkX*16 + r.Intn(16) + 8
		z := chunkZ*16 + r.Intn(16) + 8
		t.Spawn(w, r, x, z)
	}
}

func (t *Tree) Type() Type   { return TypeDecoration }
func (t *Tree) Name() string { return TreeName }

func (t *Tree) String() string {
	args := []string{strconv.Itoa(t.Frequency)}
	for i, name := range t.Names {
		args = append(args, name, strconv.Itoa(t.Chances[i]))
	}
	return Format(TreeName, args...)
}

func resolve(env Env, token string) customobject.CustomObject {
	if env.Objects == nil {
		return nil
	}
	return env.Objects.GetObjectFromString(token, env.Context)
}

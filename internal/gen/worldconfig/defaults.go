package worldconfig

import "terraincontrol.ai/internal/gen/resource"

// DefaultResource is one entry of the default resource list.
type DefaultResource struct {
	Name string
	Args []any
}

// DefaultResources is used for worlds whose config has no resources list.
// Altitudes scale with the world height.
func DefaultResources(height int) []DefaultResource {
	return []DefaultResource{
		{resource.OreName, []any{"DIRT", 32, 20, 100, 0, height, "STONE"}},
		{resource.OreName, []any{"GRAVEL", 32, 10, 100, 0, height, "STONE"}},
		{resource.OreName, []any{"COAL_ORE", 16, 20, 100, 0, height, "STONE"}},
		{resource.OreName, []any{"IRON_ORE", 8, 20, 100, 0, height / 2, "STONE"}},
		{resource.OreName, []any{"GOLD_ORE", 8, 2, 100, 0, height / 4, "STONE"}},
		{resource.OreName, []any{"REDSTONE_ORE", 7, 8, 100, 0, height / 8, "STONE"}},
		{resource.OreName, []any{"DIAMOND_ORE", 7, 1, 100, 0, height / 8, "STONE"}},
		{resource.OreName, []any{"LAPIS_ORE", 7, 1, 100, 0, height / 4, "STONE"}},
		{resource.UnderWaterOreName, []any{"SAND", 7, 4, 100, "DIRT", "GRASS"}},
		{resource.UnderWaterOreName, []any{"CLAY", 4, 1, 100, "DIRT"}},
		{resource.CustomObjectName, nil},
		{resource.TreeName, []any{2, "BirchTree", 20, "Tree", 100}},
		{resource.PlantName, []any{"YELLOW_FLOWER", 2, 100, 0, height, "GRASS", "DIRT"}},
		{resource.PlantName, []any{"RED_ROSE", 1, 50, 0, height, "GRASS", "DIRT"}},
		{resource.PlantName, []any{"LONG_GRASS.1", 10, 100, 0, height, "GRASS"}},
		{resource.AboveWaterName, []any{"WATER_LILY", 1, 10}},
	}
}

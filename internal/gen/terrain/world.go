package terrain

const (
	// WorldHeight is the height the engine supports, not the height a
	// particular world is capped at.
	WorldHeight = 256
	// WorldDepth is the lowest y the engine supports.
	WorldDepth = 0
)

// World is the block-level view population runs against. Implementations
// synchronize their own writes; population never locks.
type World interface {
	// HighestSolidY returns the first y above the topmost non-air block in
	// the column. Liquids count as blocks.
	HighestSolidY(x, z int) int
	IsEmpty(x, y, z int) bool
	IsLiquid(x, y, z int) bool
	SetBlock(x, y, z, id, data int)

	// BlockID is only consulted by placements that replace specific
	// blocks (ore veins, plants on a source block).
	BlockID(x, y, z int) int
	Height() int
}

// SolidHeight walks down from the surface past liquids and returns the y of
// the first non-liquid, non-air block, plus one. Used for sea floor
// placements.
func SolidHeight(w World, x, z int) int {
	y := w.HighestSolidY(x, z)
	for y > 0 && (w.IsLiquid(x, y-1, z) || w.IsEmpty(x, y-1, z)) {
		y--
	}
	return y
}

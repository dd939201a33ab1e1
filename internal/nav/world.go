package nav

// WorldQuery is the read-only grid interface the pathfinder searches over.
// Implementations must be side-effect-free and consistent for the duration
// of a single FindPath call (the search assumes a static snapshot).
type WorldQuery interface {
	// IsSolid reports whether the cell at c is occupied by a solid block.
	IsSolid(c Coord) bool

	// GroundHeight returns the Y of the topmost solid cell in column (x, z).
	GroundHeight(x, z int32) int32
}

package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridWorld is a sparse test grid.
type gridWorld struct {
	solid map[Coord]bool
}

func newGridWorld() *gridWorld {
	return &gridWorld{solid: make(map[Coord]bool)}
}

func (g *gridWorld) set(c Coord) { g.solid[c] = true }

func (g *gridWorld) fill(min, max Coord) {
	for y := min.Y; y <= max.Y; y++ {
		for z := min.Z; z <= max.Z; z++ {
			for x := min.X; x <= max.X; x++ {
				g.set(Coord{X: x, Y: y, Z: z})
			}
		}
	}
}

func (g *gridWorld) IsSolid(c Coord) bool { return g.solid[c] }

func (g *gridWorld) GroundHeight(x, z int32) int32 {
	for y := int32(32); y >= -32; y-- {
		if g.solid[Coord{X: x, Y: y, Z: z}] {
			return y
		}
	}
	return -33
}

// flatWorld returns a grid with a solid floor at y=-1 spanning
// [-size, size] on both horizontal axes.
func flatWorld(size int32) *gridWorld {
	g := newGridWorld()
	g.fill(Coord{X: -size, Y: -1, Z: -size}, Coord{X: size, Y: -1, Z: size})
	return g
}

func TestFindPathFlatFloor(t *testing.T) {
	// Flat solid floor at y=-1, start (0,0,0), goal (10,0,0): the path is
	// 11 waypoints, all at y=0, with monotonically increasing x.
	g := flatWorld(16)

	res := FindPath(Request{Start: Coord{X: 0, Y: 0, Z: 0}, Goal: Coord{X: 10, Y: 0, Z: 0}}, g)
	require.Equal(t, StatusComplete, res.Status)
	require.Len(t, res.Waypoints, 11)

	for i, wp := range res.Waypoints {
		assert.Equal(t, int32(i), wp.X, "waypoint %d", i)
		assert.Equal(t, int32(0), wp.Y, "waypoint %d should stay on the floor", i)
		assert.Equal(t, int32(0), wp.Z, "waypoint %d", i)
	}
}

func TestFindPathSameCell(t *testing.T) {
	g := flatWorld(4)

	res := FindPath(Request{Start: Coord{X: 1, Y: 0, Z: 1}, Goal: Coord{X: 1, Y: 0, Z: 1}}, g)
	require.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, []Coord{{1, 0, 1}}, res.Waypoints)
}

func TestFindPathDeterminism(t *testing.T) {
	// Identical (start, goal, static world) inputs must yield an identical
	// waypoint sequence on every call.
	g := flatWorld(16)
	// Scatter pillars to force tie-breaking decisions.
	for _, c := range []Coord{{3, 0, 1}, {3, 1, 1}, {5, 0, -2}, {5, 1, -2}, {7, 0, 2}, {7, 1, 2}} {
		g.set(c)
	}

	req := Request{Start: Coord{X: -8, Y: 0, Z: -8}, Goal: Coord{X: 10, Y: 0, Z: 6}}
	first := FindPath(req, g)
	require.Equal(t, StatusComplete, first.Status)

	for i := 0; i < 10; i++ {
		again := FindPath(req, g)
		require.Equal(t, first.Status, again.Status)
		require.Equal(t, first.Waypoints, again.Waypoints)
	}
}

func TestFindPathNoCornerCutting(t *testing.T) {
	// A diagonal step must never pass between two solid corner columns.
	g := flatWorld(8)
	// Wall with a diagonal-only "gap": block (1,·,0) and (0,·,1) so a
	// diagonal from (0,0,0) to (1,0,1) would cut the corner.
	g.fill(Coord{X: 1, Y: 0, Z: 0}, Coord{X: 1, Y: 1, Z: 0})
	g.fill(Coord{X: 0, Y: 0, Z: 1}, Coord{X: 0, Y: 1, Z: 1})

	res := FindPath(Request{Start: Coord{X: 0, Y: 0, Z: 0}, Goal: Coord{X: 4, Y: 0, Z: 4}}, g)
	require.Equal(t, StatusComplete, res.Status)

	for i := 1; i < len(res.Waypoints); i++ {
		prev, cur := res.Waypoints[i-1], res.Waypoints[i]
		dx, dz := cur.X-prev.X, cur.Z-prev.Z
		if dx != 0 && dz != 0 {
			c1 := Coord{X: prev.X + dx, Y: prev.Y, Z: prev.Z}
			c2 := Coord{X: prev.X, Y: prev.Y, Z: prev.Z + dz}
			assert.False(t, g.IsSolid(c1) || g.IsSolid(c1.Above()),
				"diagonal step %v->%v cuts corner %v", prev, cur, c1)
			assert.False(t, g.IsSolid(c2) || g.IsSolid(c2.Above()),
				"diagonal step %v->%v cuts corner %v", prev, cur, c2)
		}
	}
}

func TestFindPathClimbsSingleStep(t *testing.T) {
	// A one-cell rise is walkable via a jump transition.
	g := flatWorld(8)
	// Raise the floor to y=0 for x >= 3: agent walks at y=1 there.
	g.fill(Coord{X: 3, Y: 0, Z: -8}, Coord{X: 8, Y: 0, Z: 8})

	res := FindPath(Request{Start: Coord{X: 0, Y: 0, Z: 0}, Goal: Coord{X: 6, Y: 1, Z: 0}}, g)
	require.Equal(t, StatusComplete, res.Status)

	last := res.Waypoints[len(res.Waypoints)-1]
	assert.Equal(t, Coord{X: 6, Y: 1, Z: 0}, last)

	for i := 1; i < len(res.Waypoints); i++ {
		dy := res.Waypoints[i].Y - res.Waypoints[i-1].Y
		assert.LessOrEqual(t, abs32(dy), int32(1),
			"vertical transition must be at most one cell per step")
	}
}

func TestFindPathRejectsTallWall(t *testing.T) {
	// A two-cell wall across the whole floor is impassable.
	g := flatWorld(6)
	g.fill(Coord{X: 3, Y: 0, Z: -6}, Coord{X: 3, Y: 1, Z: 6})

	res := FindPath(Request{Start: Coord{X: 0, Y: 0, Z: 0}, Goal: Coord{X: 6, Y: 0, Z: 0}}, g)
	require.Equal(t, StatusPartial, res.Status)

	// Partial progress still ends on our side of the wall.
	last := res.Waypoints[len(res.Waypoints)-1]
	assert.Less(t, last.X, int32(3))
	assert.Equal(t, Coord{X: 0, Y: 0, Z: 0}, res.Waypoints[0])
}

func TestFindPathRequiresHeadroom(t *testing.T) {
	// A one-cell slit (solid at head height) is not passable for a
	// two-cell-tall agent.
	g := flatWorld(6)
	g.fill(Coord{X: 3, Y: 1, Z: -6}, Coord{X: 3, Y: 2, Z: 6})

	res := FindPath(Request{Start: Coord{X: 0, Y: 0, Z: 0}, Goal: Coord{X: 6, Y: 0, Z: 0}}, g)
	require.Equal(t, StatusPartial, res.Status)
	last := res.Waypoints[len(res.Waypoints)-1]
	assert.Less(t, last.X, int32(3))
}

func TestFindPathNodeBudgetPartial(t *testing.T) {
	// With a tiny node budget the search returns the best partial path
	// toward the goal instead of nothing.
	g := flatWorld(32)

	res := FindPath(Request{Start: Coord{X: -20, Y: 0, Z: 0}, Goal: Coord{X: 20, Y: 0, Z: 0}, MaxNodes: 8}, g)
	require.Equal(t, StatusPartial, res.Status)
	require.NotEmpty(t, res.Waypoints)

	assert.Equal(t, Coord{X: -20, Y: 0, Z: 0}, res.Waypoints[0])
	last := res.Waypoints[len(res.Waypoints)-1]
	assert.Greater(t, last.X, int32(-20), "partial path should advance toward the goal")
	assert.LessOrEqual(t, res.Expanded, 8)
}

func TestFindPathUnreachableFromSealedStart(t *testing.T) {
	// Start boxed in on all sides: no progress possible at all.
	g := flatWorld(4)
	for _, d := range [][2]int32{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		g.fill(
			Coord{X: d[0], Y: 0, Z: d[1]},
			Coord{X: d[0], Y: 1, Z: d[1]},
		)
	}
	// Seal the diagonals too.
	for _, d := range [][2]int32{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}} {
		g.fill(
			Coord{X: d[0], Y: 0, Z: d[1]},
			Coord{X: d[0], Y: 1, Z: d[1]},
		)
	}

	res := FindPath(Request{Start: Coord{X: 0, Y: 0, Z: 0}, Goal: Coord{X: 3, Y: 0, Z: 0}}, g)
	assert.Equal(t, StatusUnreachable, res.Status)
	assert.Equal(t, []Coord{{0, 0, 0}}, res.Waypoints)
}

func TestFindPathAvoidMask(t *testing.T) {
	// Masked cells are treated as solid, forcing a detour.
	g := flatWorld(8)

	avoid := map[Coord]struct{}{
		{3, 0, 0}: {},
		{3, 1, 0}: {},
	}
	res := FindPath(Request{Start: Coord{X: 0, Y: 0, Z: 0}, Goal: Coord{X: 6, Y: 0, Z: 0}, Avoid: avoid}, g)
	require.Equal(t, StatusComplete, res.Status)

	for _, wp := range res.Waypoints {
		assert.NotEqual(t, Coord{X: 3, Y: 0, Z: 0}, wp, "path must route around masked cell")
	}
	// Detour can be no shorter than the straight 7-waypoint line.
	assert.GreaterOrEqual(t, len(res.Waypoints), 7)
}

func TestFindPathOptimalCostOnOpenFloor(t *testing.T) {
	// With no obstructions the path cost equals the octile heuristic.
	g := flatWorld(16)

	res := FindPath(Request{Start: Coord{X: 0, Y: 0, Z: 0}, Goal: Coord{X: 5, Y: 0, Z: 5}}, g)
	require.Equal(t, StatusComplete, res.Status)
	// Pure diagonal: 6 waypoints, 5 diagonal steps.
	assert.Len(t, res.Waypoints, 6)

	cost := 0.0
	for i := 1; i < len(res.Waypoints); i++ {
		prev, cur := res.Waypoints[i-1], res.Waypoints[i]
		if cur.X != prev.X && cur.Z != prev.Z {
			cost += CostDiagonal
		} else {
			cost += CostOrthogonal
		}
	}
	assert.InDelta(t, Octile(Coord{X: 0, Y: 0, Z: 0}, Coord{X: 5, Y: 0, Z: 5}), cost, 0.001)
}

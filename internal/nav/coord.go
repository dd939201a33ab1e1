package nav

import (
	"fmt"
	"math"
)

// Coord is a 3D integer coordinate in world-grid units.
// Y is the vertical axis. Value type, passed by value (immutable);
// equality and map hashing work on the exact triple.
type Coord struct {
	X, Y, Z int32
}

// Offset returns the coordinate shifted by (dx, dy, dz).
func (c Coord) Offset(dx, dy, dz int32) Coord {
	return Coord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

// Above returns the cell one unit up.
func (c Coord) Above() Coord {
	return Coord{X: c.X, Y: c.Y + 1, Z: c.Z}
}

// Below returns the cell one unit down.
func (c Coord) Below() Coord {
	return Coord{X: c.X, Y: c.Y - 1, Z: c.Z}
}

// Less orders coordinates lexicographically by (X, Y, Z).
// Used as the final A* tie-break so searches are deterministic.
func (c Coord) Less(o Coord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.Z < o.Z
}

// String returns "(x,y,z)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// HorizontalDistSq returns the squared distance in the XZ plane.
func (c Coord) HorizontalDistSq(o Coord) int64 {
	dx := int64(c.X - o.X)
	dz := int64(c.Z - o.Z)
	return dx*dx + dz*dz
}

// DistSq returns the squared 3D distance.
func (c Coord) DistSq(o Coord) int64 {
	dx := int64(c.X - o.X)
	dy := int64(c.Y - o.Y)
	dz := int64(c.Z - o.Z)
	return dx*dx + dy*dy + dz*dz
}

// Octile returns the 3D octile distance between two cells: octile movement
// in the XZ plane (orthogonal cost 1, diagonal cost √2) plus the vertical
// transition penalty per cell of elevation change. Admissible and consistent
// for the movement model in FindPath.
func Octile(a, b Coord) float64 {
	dx := abs32(a.X - b.X)
	dz := abs32(a.Z - b.Z)
	dy := abs32(a.Y - b.Y)

	hi, lo := dx, dz
	if lo > hi {
		hi, lo = lo, hi
	}
	return float64(hi-lo) + math.Sqrt2*float64(lo) + CostVertical*float64(dy)
}

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

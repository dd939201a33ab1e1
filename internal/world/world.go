// Package world provides an in-memory chunked voxel store implementing
// the grid query interface the pathfinder consumes, plus the
// destructible-barrier lookup and the target-structure scanner used as
// the goal oracle by the simulation host and tests.
package world

import (
	"sync"

	"github.com/HueByte/vshorde/internal/nav"
)

// BlockID identifies a block type.
type BlockID uint16

const (
	BlockAir BlockID = iota
	BlockDirt
	BlockStone
	BlockOakDoor
	BlockIronGate
	BlockBaseCore
)

// Solid reports whether the block occupies its cell.
func (b BlockID) Solid() bool {
	return b != BlockAir
}

// Destructible reports whether agents can break the block down.
func (b BlockID) Destructible() bool {
	return b == BlockOakDoor || b == BlockIronGate
}

// ChunkSize is the cube edge of one chunk in cells.
const ChunkSize = 16

type chunkKey struct {
	cx, cy, cz int32
}

type chunk struct {
	blocks [ChunkSize * ChunkSize * ChunkSize]BlockID
}

func chunkIndex(c nav.Coord) (chunkKey, int32) {
	cx, lx := floorDiv(c.X), mod(c.X)
	cy, ly := floorDiv(c.Y), mod(c.Y)
	cz, lz := floorDiv(c.Z), mod(c.Z)
	return chunkKey{cx, cy, cz}, (ly*ChunkSize+lz)*ChunkSize + lx
}

func floorDiv(v int32) int32 {
	if v < 0 {
		return (v - ChunkSize + 1) / ChunkSize
	}
	return v / ChunkSize
}

func mod(v int32) int32 {
	m := v % ChunkSize
	if m < 0 {
		m += ChunkSize
	}
	return m
}

// World is a sparse chunked block store. Thread-safe: guarded by a single
// RWMutex, which is enough for the simulation host's scale; the
// pathfinder only reads.
type World struct {
	mu     sync.RWMutex
	chunks map[chunkKey]*chunk

	// Vertical bounds of placed blocks, for ground-height scans.
	minY, maxY int32
	hasBlocks  bool
}

// New creates an empty world.
func New() *World {
	return &World{chunks: make(map[chunkKey]*chunk, 64)}
}

// SetBlock places a block, allocating the chunk lazily. Setting BlockAir
// clears the cell.
func (w *World) SetBlock(c nav.Coord, b BlockID) {
	key, idx := chunkIndex(c)

	w.mu.Lock()
	defer w.mu.Unlock()

	ch, ok := w.chunks[key]
	if !ok {
		if b == BlockAir {
			return
		}
		ch = &chunk{}
		w.chunks[key] = ch
	}
	ch.blocks[idx] = b

	if b != BlockAir {
		if !w.hasBlocks || c.Y < w.minY {
			w.minY = c.Y
		}
		if !w.hasBlocks || c.Y > w.maxY {
			w.maxY = c.Y
		}
		w.hasBlocks = true
	}
}

// FillBox fills the inclusive box [min, max] with a block type.
func (w *World) FillBox(min, max nav.Coord, b BlockID) {
	for y := min.Y; y <= max.Y; y++ {
		for z := min.Z; z <= max.Z; z++ {
			for x := min.X; x <= max.X; x++ {
				w.SetBlock(nav.Coord{X: x, Y: y, Z: z}, b)
			}
		}
	}
}

// BlockAt returns the block at c (BlockAir for unset cells).
func (w *World) BlockAt(c nav.Coord) BlockID {
	key, idx := chunkIndex(c)

	w.mu.RLock()
	defer w.mu.RUnlock()

	ch, ok := w.chunks[key]
	if !ok {
		return BlockAir
	}
	return ch.blocks[idx]
}

// IsSolid implements nav.WorldQuery.
func (w *World) IsSolid(c nav.Coord) bool {
	return w.BlockAt(c).Solid()
}

// GroundHeight implements nav.WorldQuery: the Y of the topmost solid cell
// in the column, scanning the known vertical extent top-down.
func (w *World) GroundHeight(x, z int32) int32 {
	w.mu.RLock()
	minY, maxY, any := w.minY, w.maxY, w.hasBlocks
	w.mu.RUnlock()
	if !any {
		return 0
	}

	for y := maxY; y >= minY; y-- {
		if w.IsSolid(nav.Coord{X: x, Y: y, Z: z}) {
			return y
		}
	}
	return minY - 1
}

// NavView returns the pathfinding view of the world: destructible
// barriers read as passable so routes go through doors, leaving the
// blocked-waypoint protocol to deal with the barrier when the agent
// reaches it.
func (w *World) NavView() *NavView {
	return &NavView{w: w}
}

// NavView adapts a World for path queries. See World.NavView.
type NavView struct {
	w *World
}

// IsSolid implements nav.WorldQuery over the pathing view.
func (v *NavView) IsSolid(c nav.Coord) bool {
	b := v.w.BlockAt(c)
	return b.Solid() && !b.Destructible()
}

// GroundHeight implements nav.WorldQuery: the topmost cell the view
// considers solid, so a door's top is not standable support.
func (v *NavView) GroundHeight(x, z int32) int32 {
	v.w.mu.RLock()
	minY, maxY, any := v.w.minY, v.w.maxY, v.w.hasBlocks
	v.w.mu.RUnlock()
	if !any {
		return 0
	}

	for y := maxY; y >= minY; y-- {
		if v.IsSolid(nav.Coord{X: x, Y: y, Z: z}) {
			return y
		}
	}
	return minY - 1
}

// BarrierAt resolves a cell occupied by a destructible block to the
// obstacle's base coordinate. A door spans two vertically stacked cells
// that share the lower cell as their obstacle identity.
func (w *World) BarrierAt(c nav.Coord) (nav.Coord, bool) {
	if !w.BlockAt(c).Destructible() {
		return nav.Coord{}, false
	}
	base := c
	for w.BlockAt(base.Below()).Destructible() {
		base = base.Below()
	}
	return base, true
}

// ClearBarrier removes all vertically stacked destructible blocks rooted
// at base. Called by the host when the arbiter reports destruction.
func (w *World) ClearBarrier(base nav.Coord) {
	for c := base; w.BlockAt(c).Destructible(); c = c.Above() {
		w.SetBlock(c, BlockAir)
	}
}

package main

import (
	"github.com/HueByte/vshorde/internal/config"
	"github.com/HueByte/vshorde/internal/nav"
	"github.com/HueByte/vshorde/internal/world"
)

// buildScenario constructs the demo siege: flat terrain, a walled keep
// with oak doors on two sides, and a base core in the center.
func buildScenario(cfg config.Config) (*world.World, *world.Scanner, []nav.Coord, []uint32) {
	w := world.New()
	k := cfg.Sim.KeepHalfSize
	margin := k + 16

	// Terrain: one layer of dirt under the walkable plane.
	w.FillBox(
		nav.Coord{X: -margin, Y: -1, Z: -margin},
		nav.Coord{X: margin, Y: -1, Z: margin},
		world.BlockDirt,
	)

	// Keep walls: two blocks tall around the perimeter.
	for _, y := range []int32{0, 1} {
		for v := -k; v <= k; v++ {
			w.SetBlock(nav.Coord{X: v, Y: y, Z: -k}, world.BlockStone)
			w.SetBlock(nav.Coord{X: v, Y: y, Z: k}, world.BlockStone)
			w.SetBlock(nav.Coord{X: -k, Y: y, Z: v}, world.BlockStone)
			w.SetBlock(nav.Coord{X: k, Y: y, Z: v}, world.BlockStone)
		}
	}

	// Doors: destructible gaps in the east and west walls.
	for _, y := range []int32{0, 1} {
		w.SetBlock(nav.Coord{X: k, Y: y, Z: 0}, world.BlockOakDoor)
		w.SetBlock(nav.Coord{X: -k, Y: y, Z: 0}, world.BlockOakDoor)
	}

	scanner := world.NewScanner(w, cfg.Horde.ScanRadius, cfg.Horde.AttackRange*4)
	coreID := scanner.AddCore(nav.Coord{X: 0, Y: 0, Z: 0})

	// Agents start on a ring outside the walls, spread across the four
	// sides.
	spawnDist := k + 8
	spawns := make([]nav.Coord, 0, cfg.Sim.Agents)
	for i := 0; i < cfg.Sim.Agents; i++ {
		side := int32(i % 4)
		off := int32(i/4)*2 - k/2
		var c nav.Coord
		switch side {
		case 0:
			c = nav.Coord{X: spawnDist, Y: 0, Z: off}
		case 1:
			c = nav.Coord{X: -spawnDist, Y: 0, Z: off}
		case 2:
			c = nav.Coord{X: off, Y: 0, Z: spawnDist}
		default:
			c = nav.Coord{X: off, Y: 0, Z: -spawnDist}
		}
		spawns = append(spawns, c)
	}

	return w, scanner, spawns, []uint32{coreID}
}

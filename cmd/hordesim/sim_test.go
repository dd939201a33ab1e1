package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HueByte/vshorde/internal/config"
	"github.com/HueByte/vshorde/internal/horde"
	"github.com/HueByte/vshorde/internal/nav"
	"github.com/HueByte/vshorde/internal/siege"
	"github.com/HueByte/vshorde/internal/world"
)

func TestBuildScenario(t *testing.T) {
	cfg := config.Default()
	cfg.Sim.Agents = 12

	w, scanner, spawns, cores := buildScenario(cfg)
	require.Len(t, cores, 1)
	require.Len(t, spawns, 12)
	assert.Equal(t, 1, scanner.CoreCount())

	k := cfg.Sim.KeepHalfSize

	// Doors sit in the east and west walls, two cells tall.
	for _, x := range []int32{k, -k} {
		for _, y := range []int32{0, 1} {
			assert.Equal(t, world.BlockOakDoor, w.BlockAt(nav.Coord{X: x, Y: y, Z: 0}))
		}
	}
	base, ok := w.BarrierAt(nav.Coord{X: k, Y: 1, Z: 0})
	require.True(t, ok)
	assert.Equal(t, nav.Coord{X: k, Y: 0, Z: 0}, base)

	// Core block placed at the center.
	assert.Equal(t, world.BlockBaseCore, w.BlockAt(nav.Coord{X: 0, Y: 0, Z: 0}))

	// Every spawn is outside the keep, standing on terrain.
	for _, spawn := range spawns {
		assert.True(t, spawn.X < -k || spawn.X > k || spawn.Z < -k || spawn.Z > k,
			"spawn %v must be outside the walls", spawn)
		assert.True(t, w.IsSolid(spawn.Below()), "spawn %v must have ground support", spawn)
		assert.False(t, w.IsSolid(spawn))
	}
}

func TestSiegeEndToEnd(t *testing.T) {
	// Full run of the demo siege on a synchronous clock: the horde must
	// breach a door and bring the core down within a bounded tick budget.
	cfg := config.Default()
	cfg.Sim.Agents = 8
	cfg.Horde.ObstacleMaxHitPoints = 400 // keeps the run short
	cfg.Normalize()

	w, scanner, spawns, cores := buildScenario(cfg)
	arbiter := siege.NewArbiter(cfg.Horde.ArbiterConfig(), nil)
	host := newSimHost(w, scanner, cfg.Horde.DamagePerAttack)
	host.arbiter = arbiter
	for _, id := range cores {
		host.registerCore(id)
	}

	manager := horde.NewTickManager(arbiter,
		cfg.Horde.SweepIntervalTicks, cfg.Horde.IdleEvictTicks, cfg.Horde.Parallelism)
	tuning := cfg.Horde.Tuning()
	for i, spawn := range spawns {
		agentID := uint32(i + 1)
		host.placeAgent(agentID, spawn)
		manager.Register(agentID, horde.NewDriver(agentID, tuning, horde.Deps{
			World:    w.NavView(),
			Arbiter:  arbiter,
			Goals:    scanner,
			Sink:     host,
			Barrier:  w.BarrierAt,
			Position: host.positionFunc(agentID),
		}))
	}

	const tickBudget = 20_000
	var tick int64
	for tick = 1; tick <= tickBudget; tick++ {
		manager.Tick(tick)
		if scanner.CoreCount() == 0 {
			break
		}
	}
	require.Zero(t, scanner.CoreCount(), "core should fall within %d ticks", tickBudget)
	t.Logf("core destroyed at tick %d", tick)

	// At least one door was breached on the way in.
	k := cfg.Sim.KeepHalfSize
	east := w.BlockAt(nav.Coord{X: k, Y: 0, Z: 0})
	west := w.BlockAt(nav.Coord{X: -k, Y: 0, Z: 0})
	assert.True(t, east == world.BlockAir || west == world.BlockAir,
		"a door must have been destroyed")

	moves, obstacleHits, targetHits := host.stats()
	assert.Positive(t, moves)
	assert.GreaterOrEqual(t, obstacleHits, int64(cfg.Horde.ObstacleMaxHitPoints/cfg.Horde.DamagePerAttack))
	assert.GreaterOrEqual(t, targetHits, int64(coreHitPoints/cfg.Horde.DamagePerAttack))
}

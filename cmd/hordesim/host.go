package main

import (
	"sync"

	"github.com/HueByte/vshorde/internal/horde"
	"github.com/HueByte/vshorde/internal/nav"
	"github.com/HueByte/vshorde/internal/siege"
	"github.com/HueByte/vshorde/internal/world"
)

// coreHitPoints is the host-side health pool of a base core.
const coreHitPoints = 500

// simHost translates driver intents into world effects: movement, obstacle
// damage through the arbiter, and target damage against base cores. It is
// the "engine" side of the intent sink contract. Safe for concurrent
// Submit calls from parallel agent batches.
type simHost struct {
	world   *world.World
	scanner *world.Scanner
	arbiter *siege.Arbiter
	damage  int32

	mu        sync.Mutex
	positions map[uint32]nav.Coord
	coreHP    map[uint32]int32

	moves        int64
	obstacleHits int64
	targetHits   int64
}

func newSimHost(w *world.World, scanner *world.Scanner, damage int32) *simHost {
	return &simHost{
		world:     w,
		scanner:   scanner,
		damage:    damage,
		positions: make(map[uint32]nav.Coord, 32),
		coreHP:    make(map[uint32]int32, 4),
	}
}

// placeAgent registers an agent's starting position.
func (h *simHost) placeAgent(agentID uint32, pos nav.Coord) {
	h.mu.Lock()
	h.positions[agentID] = pos
	h.mu.Unlock()
}

// registerCore tracks a core's health pool.
func (h *simHost) registerCore(id uint32) {
	h.mu.Lock()
	h.coreHP[id] = coreHitPoints
	h.mu.Unlock()
}

// positionFunc returns the position callback for one agent.
func (h *simHost) positionFunc(agentID uint32) horde.PositionFunc {
	return func() nav.Coord {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.positions[agentID]
	}
}

// Submit implements horde.IntentSink.
func (h *simHost) Submit(agentID uint32, tick int64, intent horde.Intent) {
	switch intent.Kind {
	case horde.IntentMove:
		h.mu.Lock()
		h.positions[agentID] = intent.MoveTo
		h.moves++
		h.mu.Unlock()

	case horde.IntentAttackObstacle:
		h.mu.Lock()
		h.obstacleHits++
		h.mu.Unlock()
		res := h.arbiter.ApplyDamage(intent.Obstacle, h.damage, tick)
		if res.JustDestroyed {
			if snap, ok := h.arbiter.State(intent.Obstacle); ok {
				h.world.ClearBarrier(snap.Pos)
			}
		}

	case horde.IntentAttackTarget:
		h.mu.Lock()
		h.targetHits++
		hp, ok := h.coreHP[intent.TargetID]
		if ok {
			hp -= h.damage
			if hp <= 0 {
				delete(h.coreHP, intent.TargetID)
			} else {
				h.coreHP[intent.TargetID] = hp
			}
		}
		h.mu.Unlock()
		if ok && hp <= 0 {
			h.scanner.RemoveCore(intent.TargetID)
		}
	}
}

// stats returns a snapshot of host counters.
func (h *simHost) stats() (moves, obstacleHits, targetHits int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.moves, h.obstacleHits, h.targetHits
}

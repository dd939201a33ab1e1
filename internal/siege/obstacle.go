// Package siege tracks destructible obstacles (doors, gates) and
// arbitrates destructive access to them across many agents. Each obstacle
// carries a hit-point pool and a bounded attacker set; the Arbiter is the
// only mutation path.
package siege

import (
	"fmt"
	"sync"

	"github.com/HueByte/vshorde/internal/nav"
)

// ID is a stable obstacle identifier derived from the obstacle's world
// coordinate.
type ID string

// IDForCoord derives the canonical obstacle ID for a world coordinate.
func IDForCoord(c nav.Coord) ID {
	return ID(fmt.Sprintf("%d:%d:%d", c.X, c.Y, c.Z))
}

// Obstacle is one destructible world object. All fields are mutated only
// under mu, held by the Arbiter's operations; unrelated obstacles never
// serialize against each other.
type Obstacle struct {
	mu sync.Mutex

	id  ID
	pos nav.Coord

	maxHitPoints int32
	hitPoints    int32
	destroyed    bool

	capacity  int
	attackers map[uint32]struct{}

	lastTouched int64
}

func newObstacle(id ID, pos nav.Coord, maxHP int32, capacity int, tick int64) *Obstacle {
	return &Obstacle{
		id:           id,
		pos:          pos,
		maxHitPoints: maxHP,
		hitPoints:    maxHP,
		capacity:     capacity,
		attackers:    make(map[uint32]struct{}, capacity),
		lastTouched:  tick,
	}
}

// Snapshot is a point-in-time copy of observable obstacle state.
type Snapshot struct {
	ID           ID
	Pos          nav.Coord
	HitPoints    int32
	MaxHitPoints int32
	Destroyed    bool
	Attackers    int
	Capacity     int
}

// snapshotLocked copies state; caller holds mu.
func (o *Obstacle) snapshotLocked() Snapshot {
	return Snapshot{
		ID:           o.id,
		Pos:          o.pos,
		HitPoints:    o.hitPoints,
		MaxHitPoints: o.maxHitPoints,
		Destroyed:    o.destroyed,
		Attackers:    len(o.attackers),
		Capacity:     o.capacity,
	}
}

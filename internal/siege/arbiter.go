package siege

import (
	"log/slog"
	"sync"

	"github.com/HueByte/vshorde/internal/journal"
	"github.com/HueByte/vshorde/internal/nav"
)

// Default obstacle pool parameters.
const (
	DefaultMaxHitPoints     int32 = 2000
	DefaultAttackerCapacity       = 3
)

// Admission is the outcome of a RequestAdmission call.
type Admission int32

const (
	// Admitted - the agent now holds attack rights on the obstacle.
	Admitted Admission = iota
	// DeniedAtCapacity - the attacker set is full; try again later or
	// reroute. Never an error, never blocking.
	DeniedAtCapacity
)

// String returns human-readable admission name.
func (a Admission) String() string {
	switch a {
	case Admitted:
		return "ADMITTED"
	case DeniedAtCapacity:
		return "DENIED_AT_CAPACITY"
	default:
		return "UNKNOWN"
	}
}

// DamageResult reports the effect of an ApplyDamage call.
type DamageResult struct {
	// Found is false for unknown obstacle IDs; the call was a no-op.
	Found bool
	// Remaining hit points after the hit, clamped at zero.
	Remaining int32
	// Destroyed is true once the pool hits zero. Reported exactly once
	// with JustDestroyed set; later calls still report Destroyed.
	Destroyed     bool
	JustDestroyed bool
}

// Config holds arbiter pool parameters, validated by the configuration
// layer before reaching the core.
type Config struct {
	MaxHitPoints     int32
	AttackerCapacity int
}

// DefaultConfig returns the stock door parameters.
func DefaultConfig() Config {
	return Config{
		MaxHitPoints:     DefaultMaxHitPoints,
		AttackerCapacity: DefaultAttackerCapacity,
	}
}

// Arbiter owns all tracked obstacles. The registry map is guarded by mu;
// each obstacle's state is guarded by its own mutex, so operations on
// different obstacles run concurrently. All methods are safe for
// concurrent use from agents processed in parallel batches.
type Arbiter struct {
	mu        sync.RWMutex
	obstacles map[ID]*Obstacle

	cfg  Config
	sink journal.Sink
}

// NewArbiter creates an arbiter. A nil sink disables diagnostics without
// changing behavior.
func NewArbiter(cfg Config, sink journal.Sink) *Arbiter {
	if sink == nil {
		sink = journal.NopSink{}
	}
	return &Arbiter{
		obstacles: make(map[ID]*Obstacle, 64),
		cfg:       cfg,
		sink:      sink,
	}
}

// get returns a live obstacle by ID.
func (a *Arbiter) get(id ID) (*Obstacle, bool) {
	a.mu.RLock()
	o, ok := a.obstacles[id]
	a.mu.RUnlock()
	return o, ok
}

// getOrCreate returns the obstacle for pos, creating it lazily on first
// contact.
func (a *Arbiter) getOrCreate(id ID, pos nav.Coord, tick int64) *Obstacle {
	if o, ok := a.get(id); ok {
		return o
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if o, ok := a.obstacles[id]; ok {
		return o
	}
	o := newObstacle(id, pos, a.cfg.MaxHitPoints, a.cfg.AttackerCapacity, tick)
	a.obstacles[id] = o
	slog.Debug("obstacle tracked", "obstacle", id, "hp", o.maxHitPoints, "capacity", o.capacity)
	return o
}

// RequestAdmission admits agentID as an attacker on the obstacle at pos
// if capacity allows. Repeated requests by an agent already admitted
// succeed without consuming an extra slot.
func (a *Arbiter) RequestAdmission(pos nav.Coord, agentID uint32, tick int64) Admission {
	id := IDForCoord(pos)
	o := a.getOrCreate(id, pos, tick)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.destroyed {
		// Destroyed entries linger until the next sweep; nothing left to
		// attack, treat as full.
		return DeniedAtCapacity
	}

	if _, held := o.attackers[agentID]; held {
		o.lastTouched = tick
		return Admitted
	}

	if len(o.attackers) >= o.capacity {
		a.sink.Record(journal.Event{
			Tick: tick, Agent: agentID, Kind: journal.KindAdmission,
			Obstacle: string(id), Detail: "denied_at_capacity",
		})
		return DeniedAtCapacity
	}

	o.attackers[agentID] = struct{}{}
	o.lastTouched = tick
	a.sink.Record(journal.Event{
		Tick: tick, Agent: agentID, Kind: journal.KindAdmission,
		Obstacle: string(id), Detail: "admitted", Value: int64(len(o.attackers)),
	})
	return Admitted
}

// ReleaseAdmission removes agentID from the attacker set. Idempotent:
// releasing an unknown obstacle or a non-attacker is a no-op.
func (a *Arbiter) ReleaseAdmission(id ID, agentID uint32) {
	o, ok := a.get(id)
	if !ok {
		return
	}
	o.mu.Lock()
	delete(o.attackers, agentID)
	o.mu.Unlock()
}

// HoldsAdmission reports whether agentID currently holds attack rights.
func (a *Arbiter) HoldsAdmission(id ID, agentID uint32) bool {
	o, ok := a.get(id)
	if !ok {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	_, held := o.attackers[agentID]
	return held
}

// ApplyDamage decrements the obstacle's hit points, clamping at zero.
// Destruction is reported exactly once; all attackers are released at that
// moment and the obstacle becomes eligible for sweep removal. Damage to an
// unknown or already-destroyed obstacle is a no-op.
func (a *Arbiter) ApplyDamage(id ID, amount int32, tick int64) DamageResult {
	o, ok := a.get(id)
	if !ok {
		return DamageResult{Found: false, Destroyed: true}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.destroyed {
		return DamageResult{Found: true, Remaining: 0, Destroyed: true}
	}
	if amount < 0 {
		amount = 0
	}

	o.hitPoints -= amount
	if o.hitPoints < 0 {
		o.hitPoints = 0
	}
	o.lastTouched = tick

	a.sink.Record(journal.Event{
		Tick: tick, Kind: journal.KindDamage,
		Obstacle: string(id), Value: int64(o.hitPoints),
	})

	if o.hitPoints > 0 {
		return DamageResult{Found: true, Remaining: o.hitPoints}
	}

	o.destroyed = true
	clear(o.attackers)
	a.sink.Record(journal.Event{
		Tick: tick, Kind: journal.KindDestroyed, Obstacle: string(id),
	})
	slog.Info("obstacle destroyed", "obstacle", id, "tick", tick)
	return DamageResult{Found: true, Remaining: 0, Destroyed: true, JustDestroyed: true}
}

// State returns a snapshot of the obstacle, or ok=false if untracked.
func (a *Arbiter) State(id ID) (Snapshot, bool) {
	o, ok := a.get(id)
	if !ok {
		return Snapshot{}, false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked(), true
}

// Count returns the number of tracked obstacles.
func (a *Arbiter) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.obstacles)
}

// Sweep removes destroyed obstacles and obstacles idle longer than
// idleThreshold ticks with no active attackers. Called on a housekeeping
// interval, not per agent tick. Removal replaces the map entry atomically;
// a concurrent holder of the old pointer sees consistent final state.
func (a *Arbiter) Sweep(tick int64, idleThreshold int64) int {
	a.mu.RLock()
	candidates := make([]ID, 0, 8)
	for id, o := range a.obstacles {
		o.mu.Lock()
		evict := o.destroyed ||
			(len(o.attackers) == 0 && idleThreshold > 0 && tick-o.lastTouched > idleThreshold)
		o.mu.Unlock()
		if evict {
			candidates = append(candidates, id)
		}
	}
	a.mu.RUnlock()

	if len(candidates) == 0 {
		return 0
	}

	removed := 0
	a.mu.Lock()
	for _, id := range candidates {
		o, ok := a.obstacles[id]
		if !ok {
			continue
		}
		// Re-check under the registry write lock: an agent may have been
		// admitted between the scan and now.
		o.mu.Lock()
		evict := o.destroyed || len(o.attackers) == 0
		o.mu.Unlock()
		if evict {
			delete(a.obstacles, id)
			removed++
		}
	}
	a.mu.Unlock()

	if removed > 0 {
		slog.Debug("obstacle sweep", "removed", removed, "tick", tick)
	}
	return removed
}

// Package horde drives hostile agents toward a target structure: each
// agent owns a Driver, a finite-state machine that consumes pathfinder
// output and obstacle-arbiter admission decisions and emits one movement
// or attack intent per cadence tick.
package horde

import (
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/HueByte/vshorde/internal/journal"
	"github.com/HueByte/vshorde/internal/nav"
	"github.com/HueByte/vshorde/internal/siege"
)

// Tuning holds driver thresholds. All values are supplied validated by the
// configuration layer; the core assumes sane inputs. Threshold ordering
// is an invariant (stall < recompute < abandon), the exact counts are not.
type Tuning struct {
	// UpdateCadence is the tick interval between driver evaluations.
	UpdateCadence int64
	// PathNodeBudget caps A* expansions per path request.
	PathNodeBudget int
	// AttackRange is the maximum distance (in cells) at which the goal
	// counts as reached and a target can be struck.
	AttackRange int32

	// StallTicks - cadence evaluations without positional progress before
	// the agent is considered stalled (logged only).
	StallTicks int
	// RecomputeTicks - stalled evaluations before a forced path recompute.
	RecomputeTicks int
	// AbandonTicks - stalled evaluations before the goal is abandoned.
	AbandonTicks int

	// AdmissionRetryLimit - consecutive admission denials before the agent
	// tries to reroute around the obstacle.
	AdmissionRetryLimit int
	// RerouteLimit - reroute attempts per episode before giving up.
	RerouteLimit int
	// PathFailureLimit - consecutive Unreachable results before giving up.
	PathFailureLimit int
}

// DefaultTuning returns the stock thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		UpdateCadence:       5,
		PathNodeBudget:      nav.DefaultMaxNodes,
		AttackRange:         2,
		StallTicks:          2,
		RecomputeTicks:      4,
		AbandonTicks:        10,
		AdmissionRetryLimit: 4,
		RerouteLimit:        3,
		PathFailureLimit:    3,
	}
}

// Deps are the driver's injected collaborators. Function and interface
// fields keep the core decoupled from the host's entity and block models.
type Deps struct {
	World    nav.WorldQuery
	Arbiter  *siege.Arbiter
	Goals    GoalProvider
	Sink     IntentSink
	Barrier  BarrierLookup
	Position PositionFunc
	Journal  journal.Sink
}

// Driver is the per-agent state machine. All navigation state is
// exclusively owned by the driver and only touched from Tick; the only
// cross-agent state it shares is the Arbiter's.
type Driver struct {
	agentID uint32
	tuning  Tuning
	stagger int64

	world    nav.WorldQuery
	arbiter  *siege.Arbiter
	goals    GoalProvider
	sink     IntentSink
	barrier  BarrierLookup
	position PositionFunc
	journal  journal.Sink

	running atomic.Bool
	state   atomic.Int32

	// Episode-scoped navigation state.
	episode            uuid.UUID
	goal               nav.Coord
	hasGoal            bool
	path               []nav.Coord
	cursor             int
	lastPos            nav.Coord
	hasLastPos         bool
	ticksSinceProgress int
	pathFailures       int
	denials            int
	reroutes           int
	avoid              map[nav.Coord]struct{}
	obstacleID         siege.ID
	hasObstacle        bool
}

// NewDriver creates a driver for one agent.
func NewDriver(agentID uint32, tuning Tuning, deps Deps) *Driver {
	if deps.Journal == nil {
		deps.Journal = journal.NopSink{}
	}
	if deps.Sink == nil {
		deps.Sink = nopIntentSink{}
	}
	d := &Driver{
		agentID:  agentID,
		tuning:   tuning,
		world:    deps.World,
		arbiter:  deps.Arbiter,
		goals:    deps.Goals,
		sink:     deps.Sink,
		barrier:  deps.Barrier,
		position: deps.Position,
		journal:  deps.Journal,
	}
	if tuning.UpdateCadence > 1 {
		// Spread agents across cadence ticks so a large horde does not
		// evaluate on the same host tick.
		d.stagger = int64(agentID) % tuning.UpdateCadence
	}
	return d
}

// AgentID returns the owning agent's identifier.
func (d *Driver) AgentID() uint32 { return d.agentID }

// State returns the current behavior state.
func (d *Driver) State() State { return State(d.state.Load()) }

// Episode returns the current episode identifier (zero UUID when idle).
func (d *Driver) Episode() uuid.UUID { return d.episode }

// Start activates the driver in StateIdle.
func (d *Driver) Start() {
	d.running.Store(true)
	d.state.Store(int32(StateIdle))

	if IsDebugEnabled() {
		slog.Debug("horde driver started", "agent", d.agentID)
	}
}

// Stop deactivates the driver, releasing any held admission.
func (d *Driver) Stop() {
	d.running.Store(false)
	d.releaseObstacle()
	d.resetEpisode()
	d.state.Store(int32(StateIdle))

	if IsDebugEnabled() {
		slog.Debug("horde driver stopped", "agent", d.agentID)
	}
}

// Tick evaluates the state machine. Invoked by the TickManager once per
// host tick; the driver only acts on its cadence ticks. Never blocks.
func (d *Driver) Tick(tick int64) {
	if !d.running.Load() {
		return
	}
	if d.tuning.UpdateCadence > 1 && (tick+d.stagger)%d.tuning.UpdateCadence != 0 {
		return
	}

	pos := d.position()

	switch d.State() {
	case StateIdle:
		d.thinkIdle(tick, pos)
	case StateNavigating:
		d.thinkNavigate(tick, pos)
	case StateAttackingObstacle:
		d.thinkAttackObstacle(tick, pos)
	case StateAttackingTarget:
		d.thinkAttackTarget(tick, pos)
	}
}

// thinkIdle waits for the goal oracle to produce an objective.
func (d *Driver) thinkIdle(tick int64, pos nav.Coord) {
	goal, ok := d.goals.Goal(d.agentID, pos)
	if !ok {
		d.sink.Submit(d.agentID, tick, Intent{Kind: IntentIdle})
		return
	}

	d.episode = uuid.New()
	d.goal = goal
	d.hasGoal = true
	d.journal.Record(journal.Event{
		Tick: tick, Agent: d.agentID, Episode: d.episode,
		Kind: journal.KindEpisodeStart, Detail: goal.String(),
	})
	d.setState(tick, StateNavigating)
	d.sink.Submit(d.agentID, tick, Intent{Kind: IntentIdle})
}

// thinkNavigate follows the current path, requesting admission when a
// tracked obstacle blocks the next waypoint.
func (d *Driver) thinkNavigate(tick int64, pos nav.Coord) {
	if !d.hasGoal {
		d.toIdle(tick, "goal invalidated")
		return
	}
	goal, ok := d.goals.Goal(d.agentID, pos)
	if !ok {
		d.toIdle(tick, "goal lost")
		return
	}
	if goal != d.goal {
		// Goal moved; current path is stale.
		d.goal = goal
		d.path = nil
	}

	// Terminal objective: goal in range with a live, visible target.
	rangeSq := int64(d.tuning.AttackRange) * int64(d.tuning.AttackRange)
	if pos.DistSq(d.goal) <= rangeSq {
		if targetID, visible := d.goals.VisibleTarget(pos); visible {
			d.setState(tick, StateAttackingTarget)
			d.sink.Submit(d.agentID, tick, Intent{Kind: IntentAttackTarget, TargetID: targetID})
			return
		}
		d.toIdle(tick, "objective complete")
		return
	}

	if !d.trackProgress(tick, pos) {
		return // abandoned
	}

	if len(d.path) == 0 || d.cursor >= len(d.path) {
		if !d.computePath(tick, pos) {
			d.sink.Submit(d.agentID, tick, Intent{Kind: IntentIdle})
			return
		}
	}

	// Advance past waypoints already reached.
	for d.cursor < len(d.path) && d.path[d.cursor] == pos {
		d.cursor++
	}
	if d.cursor >= len(d.path) {
		// Path consumed without reaching the goal (partial result);
		// recompute on the next cadence tick.
		d.path = nil
		d.sink.Submit(d.agentID, tick, Intent{Kind: IntentIdle})
		return
	}

	next := d.path[d.cursor]

	// A destructible obstacle across the next waypoint forces the siege
	// admission protocol.
	if basePos, blocked := d.blockingObstacle(next); blocked {
		d.handleBlockedWaypoint(tick, basePos)
		return
	}

	// Non-destructible change under our feet: the snapshot the path was
	// computed on is stale.
	if d.world.IsSolid(next) || d.world.IsSolid(next.Above()) {
		d.path = nil
		d.sink.Submit(d.agentID, tick, Intent{Kind: IntentIdle})
		return
	}

	d.sink.Submit(d.agentID, tick, Intent{Kind: IntentMove, MoveTo: next})
}

// thinkAttackObstacle strikes the held obstacle until it reports
// destroyed or admission is lost.
func (d *Driver) thinkAttackObstacle(tick int64, pos nav.Coord) {
	if !d.hasObstacle {
		d.setState(tick, StateNavigating)
		return
	}

	snap, tracked := d.arbiter.State(d.obstacleID)
	if !tracked || snap.Destroyed {
		// Path is clear now; replan through the opening.
		d.releaseObstacle()
		d.path = nil
		d.resetProgress()
		d.setState(tick, StateNavigating)
		d.sink.Submit(d.agentID, tick, Intent{Kind: IntentIdle})
		return
	}

	if !d.arbiter.HoldsAdmission(d.obstacleID, d.agentID) {
		// Capacity was reassigned elsewhere; fall back to navigation and
		// re-request on the next pass.
		d.hasObstacle = false
		d.path = nil
		d.setState(tick, StateNavigating)
		d.sink.Submit(d.agentID, tick, Intent{Kind: IntentIdle})
		return
	}

	d.sink.Submit(d.agentID, tick, Intent{Kind: IntentAttackObstacle, Obstacle: d.obstacleID})
}

// thinkAttackTarget strikes the live target while it stays visible.
func (d *Driver) thinkAttackTarget(tick int64, pos nav.Coord) {
	targetID, visible := d.goals.VisibleTarget(pos)
	if !visible {
		d.toIdle(tick, "target lost")
		return
	}
	d.sink.Submit(d.agentID, tick, Intent{Kind: IntentAttackTarget, TargetID: targetID})
}

// trackProgress updates the stall counter and applies the recompute and
// abandon thresholds. Returns false when the episode was abandoned.
func (d *Driver) trackProgress(tick int64, pos nav.Coord) bool {
	if d.hasLastPos && pos == d.lastPos {
		d.ticksSinceProgress++
	} else {
		d.ticksSinceProgress = 0
	}
	d.lastPos = pos
	d.hasLastPos = true

	if d.ticksSinceProgress >= d.tuning.AbandonTicks {
		d.toIdle(tick, "stuck")
		return false
	}
	if d.ticksSinceProgress >= d.tuning.RecomputeTicks {
		d.path = nil
	} else if d.ticksSinceProgress == d.tuning.StallTicks && IsDebugEnabled() {
		slog.Debug("agent stalled", "agent", d.agentID, "pos", pos)
	}
	return true
}

// computePath runs a bounded search toward the goal. Returns false when
// no usable path came back this tick.
func (d *Driver) computePath(tick int64, pos nav.Coord) bool {
	res := nav.FindPath(nav.Request{
		Start:    pos,
		Goal:     d.goal,
		MaxNodes: d.tuning.PathNodeBudget,
		Avoid:    d.avoid,
	}, d.world)

	d.journal.Record(journal.Event{
		Tick: tick, Agent: d.agentID, Episode: d.episode,
		Kind: journal.KindPathResult, Detail: res.Status.String(),
		Value: int64(len(res.Waypoints)),
	})

	if res.Status == nav.StatusUnreachable {
		if len(d.avoid) > 0 {
			// Give previously masked routes another chance before counting
			// the failure; an obstacle we routed around may be gone.
			d.avoid = nil
			return false
		}
		d.pathFailures++
		if d.pathFailures >= d.tuning.PathFailureLimit {
			d.toIdle(tick, "unreachable")
		}
		return false
	}

	d.pathFailures = 0
	d.path = res.Waypoints
	d.cursor = 0
	return true
}

// blockingObstacle reports the destructible obstacle occupying the cell
// or the cell above it (doors are two cells tall).
func (d *Driver) blockingObstacle(c nav.Coord) (nav.Coord, bool) {
	if d.barrier == nil {
		return nav.Coord{}, false
	}
	if base, ok := d.barrier(c); ok {
		return base, true
	}
	return d.barrier(c.Above())
}

// handleBlockedWaypoint runs the admission protocol against the obstacle
// at basePos.
func (d *Driver) handleBlockedWaypoint(tick int64, basePos nav.Coord) {
	switch d.arbiter.RequestAdmission(basePos, d.agentID, tick) {
	case siege.Admitted:
		d.obstacleID = siege.IDForCoord(basePos)
		d.hasObstacle = true
		d.denials = 0
		d.resetProgress()
		d.setState(tick, StateAttackingObstacle)
		d.sink.Submit(d.agentID, tick, Intent{Kind: IntentAttackObstacle, Obstacle: d.obstacleID})

	case siege.DeniedAtCapacity:
		d.denials++
		if d.denials > d.tuning.AdmissionRetryLimit {
			d.denials = 0
			d.reroutes++
			if d.reroutes > d.tuning.RerouteLimit {
				d.toIdle(tick, "admission exhausted")
				return
			}
			// Mask the obstacle's cells and look for a way around it.
			if d.avoid == nil {
				d.avoid = make(map[nav.Coord]struct{}, 4)
			}
			d.avoid[basePos] = struct{}{}
			d.avoid[basePos.Above()] = struct{}{}
			d.path = nil
		}
		d.sink.Submit(d.agentID, tick, Intent{Kind: IntentIdle})
	}
}

// setState transitions the state machine, journaling the change.
func (d *Driver) setState(tick int64, next State) {
	prev := State(d.state.Swap(int32(next)))
	if prev == next {
		return
	}

	d.journal.Record(journal.Event{
		Tick: tick, Agent: d.agentID, Episode: d.episode,
		Kind: journal.KindStateChange, State: next.String(), Detail: prev.String(),
	})
	if IsDebugEnabled() {
		slog.Debug("horde driver state changed",
			"agent", d.agentID, "from", prev, "to", next)
	}
}

// toIdle abandons the episode and returns control to default behavior.
func (d *Driver) toIdle(tick int64, reason string) {
	d.releaseObstacle()
	d.journal.Record(journal.Event{
		Tick: tick, Agent: d.agentID, Episode: d.episode,
		Kind: journal.KindEpisodeEnd, Detail: reason,
	})
	d.resetEpisode()
	d.setState(tick, StateIdle)
	d.sink.Submit(d.agentID, tick, Intent{Kind: IntentIdle})
}

// releaseObstacle drops any held admission. Idempotent.
func (d *Driver) releaseObstacle() {
	if !d.hasObstacle {
		return
	}
	d.arbiter.ReleaseAdmission(d.obstacleID, d.agentID)
	d.hasObstacle = false
	d.obstacleID = ""
}

// resetProgress clears stall accounting after a real state change.
func (d *Driver) resetProgress() {
	d.ticksSinceProgress = 0
	d.hasLastPos = false
}

// resetEpisode clears all episode-scoped navigation state.
func (d *Driver) resetEpisode() {
	d.episode = uuid.UUID{}
	d.hasGoal = false
	d.path = nil
	d.cursor = 0
	d.resetProgress()
	d.pathFailures = 0
	d.denials = 0
	d.reroutes = 0
	d.avoid = nil
}

// nopIntentSink discards intents; used when the host installs no sink.
type nopIntentSink struct{}

func (nopIntentSink) Submit(uint32, int64, Intent) {}

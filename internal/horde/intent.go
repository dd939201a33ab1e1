package horde

import (
	"github.com/HueByte/vshorde/internal/nav"
	"github.com/HueByte/vshorde/internal/siege"
)

// IntentKind classifies the single action an agent emits per cadence tick.
type IntentKind int32

const (
	// IntentIdle - no action this tick.
	IntentIdle IntentKind = iota
	// IntentMove - walk toward MoveTo.
	IntentMove
	// IntentAttackObstacle - strike the obstacle identified by Obstacle.
	IntentAttackObstacle
	// IntentAttackTarget - strike the live target identified by TargetID.
	IntentAttackTarget
)

// String returns human-readable intent name.
func (k IntentKind) String() string {
	switch k {
	case IntentIdle:
		return "IDLE"
	case IntentMove:
		return "MOVE"
	case IntentAttackObstacle:
		return "ATTACK_OBSTACLE"
	case IntentAttackTarget:
		return "ATTACK_TARGET"
	default:
		return "UNKNOWN"
	}
}

// Intent is the driver's output for one cadence tick. The host translates
// intents into actual entity motion, animation, and damage.
type Intent struct {
	Kind     IntentKind
	MoveTo   nav.Coord
	Obstacle siege.ID
	TargetID uint32
}

// IntentSink receives one intent per agent per cadence tick.
type IntentSink interface {
	Submit(agentID uint32, tick int64, intent Intent)
}

// GoalProvider supplies the objective oracle: a target structure
// coordinate for an agent at a given position, and a live-target
// visibility check. Implemented externally by structure-detection and
// line-of-sight logic.
type GoalProvider interface {
	// Goal returns the current objective coordinate for the agent, or
	// ok=false when no objective exists.
	Goal(agentID uint32, from nav.Coord) (nav.Coord, bool)

	// VisibleTarget returns a live target in range and line of sight of
	// from, or ok=false.
	VisibleTarget(from nav.Coord) (targetID uint32, ok bool)
}

// BarrierLookup resolves a cell to the base coordinate of the destructible
// obstacle occupying it, if any. Injected to avoid coupling the driver to
// the world's block model.
type BarrierLookup func(c nav.Coord) (nav.Coord, bool)

// PositionFunc reports the agent's current grid position.
type PositionFunc func() nav.Coord

package horde

// State represents the agent driver's behavior state.
type State int32

const (
	// StateIdle - no active objective; default behavior owns the agent.
	StateIdle State = iota
	// StateNavigating - following a computed path toward the goal.
	StateNavigating
	// StateAttackingObstacle - holding admission and striking an obstacle
	// blocking the path.
	StateAttackingObstacle
	// StateAttackingTarget - goal reached, striking the live target.
	StateAttackingTarget
)

// String returns human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateNavigating:
		return "NAVIGATING"
	case StateAttackingObstacle:
		return "ATTACKING_OBSTACLE"
	case StateAttackingTarget:
		return "ATTACKING_TARGET"
	default:
		return "UNKNOWN"
	}
}

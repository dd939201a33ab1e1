package nav

// Movement costs for the grid search.
const (
	// CostOrthogonal is the cost of a straight horizontal step.
	CostOrthogonal = 1.0
	// CostDiagonal is the cost of a diagonal horizontal step.
	CostDiagonal = 1.4142135623730951 // √2
	// CostVertical is the extra penalty for a step that changes elevation,
	// biasing the search toward flat paths.
	CostVertical = 0.5

	// ClearanceHeight is the number of vertically stacked non-solid cells an
	// agent needs to occupy a cell (foot + head).
	ClearanceHeight = 2

	// DefaultMaxNodes bounds A* expansions when a request does not set its
	// own budget, keeping per-call cost finite and predictable.
	DefaultMaxNodes = 4096
)

// Status classifies the outcome of a path search.
type Status int32

const (
	// StatusComplete - the returned path ends at the requested goal.
	StatusComplete Status = iota
	// StatusPartial - the search ran out of budget or options; the path ends
	// at the expanded node closest to the goal by heuristic.
	StatusPartial
	// StatusUnreachable - no progress from the start cell was possible.
	StatusUnreachable
)

// String returns human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "COMPLETE"
	case StatusPartial:
		return "PARTIAL"
	case StatusUnreachable:
		return "UNREACHABLE"
	default:
		return "UNKNOWN"
	}
}

// Request describes a single path computation. Created per search,
// consumed and discarded.
type Request struct {
	Start Coord
	Goal  Coord

	// MaxNodes caps A* node expansions. Zero means DefaultMaxNodes.
	MaxNodes int

	// Avoid marks cells the search must treat as solid, used to reroute
	// around obstacles the agent chose not to break through.
	Avoid map[Coord]struct{}
}

// Result is an immutable path search outcome. Waypoints[0] is the start;
// the last waypoint is the goal (StatusComplete) or the closest reachable
// node (StatusPartial). A Result is replaced wholesale on recompute, never
// mutated in place.
type Result struct {
	Status    Status
	Waypoints []Coord
	Expanded  int
}

// Reached reports whether the path ends at the requested goal.
func (r Result) Reached() bool {
	return r.Status == StatusComplete
}

package nav

import (
	"container/heap"
)

// horizontal neighbor directions in fixed expansion order: the four
// cardinals first, then the diagonals with the cardinal indices guarding
// them against corner cutting.
type direction struct {
	dx, dz   int32
	diagonal bool
	adj1     int // index of first guarding cardinal (diagonals only)
	adj2     int // index of second guarding cardinal
}

var directions = [8]direction{
	{dx: 0, dz: -1},                                  // 0: north
	{dx: 1, dz: 0},                                   // 1: east
	{dx: 0, dz: 1},                                   // 2: south
	{dx: -1, dz: 0},                                  // 3: west
	{dx: 1, dz: -1, diagonal: true, adj1: 0, adj2: 1}, // NE
	{dx: 1, dz: 1, diagonal: true, adj1: 1, adj2: 2},  // SE
	{dx: -1, dz: 1, diagonal: true, adj1: 2, adj2: 3}, // SW
	{dx: -1, dz: -1, diagonal: true, adj1: 3, adj2: 0}, // NW
}

// vertical offsets per horizontal step: same level, one-cell jump up,
// one-cell step down. Transitions are symmetric and never exceed one cell.
var verticalOffsets = [3]int32{0, 1, -1}

// FindPath runs bounded 3D A* from req.Start to req.Goal over w.
//
// The search space is the 26-connected grid restricted to single-cell
// vertical transitions. A cell is admissible when the foot and head cells
// are non-solid and the cell under the foot is solid (no floating paths).
// Diagonal steps are rejected when either adjacent orthogonal corner is
// blocked. Identical inputs always produce an identical path: the open
// list orders by f-cost, then lower g-cost, then lexicographic coordinate.
//
// An unreachable goal is not an error: the result carries the best partial
// path to the expanded node closest to the goal by heuristic, or
// StatusUnreachable when no progress from the start was possible.
func FindPath(req Request, w WorldQuery) Result {
	maxNodes := req.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}

	if req.Start == req.Goal {
		return Result{Status: StatusComplete, Waypoints: []Coord{req.Start}}
	}

	s := &search{
		world: w,
		avoid: req.Avoid,
		goal:  req.Goal,
		gBest: make(map[Coord]float64, 256),
		closed: make(map[Coord]struct{}, 256),
	}

	start := &pathNode{pos: req.Start, hCost: Octile(req.Start, req.Goal)}
	start.fCost = start.hCost
	heap.Init(&s.open)
	heap.Push(&s.open, start)
	s.gBest[req.Start] = 0

	best := start
	expanded := 0

	for s.open.Len() > 0 && expanded < maxNodes {
		current := heap.Pop(&s.open).(*pathNode)
		if _, seen := s.closed[current.pos]; seen {
			continue
		}
		s.closed[current.pos] = struct{}{}
		expanded++

		if current.pos == req.Goal {
			return Result{
				Status:    StatusComplete,
				Waypoints: reconstruct(current),
				Expanded:  expanded,
			}
		}

		if closerToGoal(current, best) {
			best = current
		}

		s.expand(current)
	}

	// Open set drained or node budget exceeded: hand back partial progress
	// toward the closest expanded node so the agent can still advance.
	if best.pos == req.Start {
		return Result{Status: StatusUnreachable, Waypoints: []Coord{req.Start}, Expanded: expanded}
	}
	return Result{Status: StatusPartial, Waypoints: reconstruct(best), Expanded: expanded}
}

// search holds the per-call A* state.
type search struct {
	world  WorldQuery
	avoid  map[Coord]struct{}
	goal   Coord
	open   nodeHeap
	gBest  map[Coord]float64
	closed map[Coord]struct{}
}

// expand pushes admissible neighbors of current onto the open list.
func (s *search) expand(current *pathNode) {
	// Corner guard: passability of the four cardinal columns at the current
	// elevation, indexed like the directions table.
	var cardinalOpen [4]bool
	for i := 0; i < 4; i++ {
		d := directions[i]
		cardinalOpen[i] = s.columnClear(current.pos.Offset(d.dx, 0, d.dz))
	}

	for _, d := range directions {
		if d.diagonal && (!cardinalOpen[d.adj1] || !cardinalOpen[d.adj2]) {
			// Cutting through a solid corner is never allowed.
			continue
		}

		for _, dy := range verticalOffsets {
			next := current.pos.Offset(d.dx, dy, d.dz)
			if _, seen := s.closed[next]; seen {
				continue
			}
			if !s.standable(next) {
				continue
			}

			step := CostOrthogonal
			if d.diagonal {
				step = CostDiagonal
			}
			if dy != 0 {
				step += CostVertical
			}

			g := current.gCost + step
			if prev, ok := s.gBest[next]; ok && prev <= g {
				continue
			}
			s.gBest[next] = g

			node := &pathNode{
				pos:    next,
				parent: current,
				gCost:  g,
				hCost:  Octile(next, s.goal),
			}
			node.fCost = node.gCost + node.hCost
			heap.Push(&s.open, node)
		}
	}
}

// solid reports whether c blocks movement, including rerouting masks.
func (s *search) solid(c Coord) bool {
	if _, masked := s.avoid[c]; masked {
		return true
	}
	return s.world.IsSolid(c)
}

// columnClear reports whether an agent body fits at c (foot + head free).
func (s *search) columnClear(c Coord) bool {
	return !s.solid(c) && !s.solid(c.Above())
}

// standable reports whether c is a valid path cell: two cells of clearance
// and solid support under the foot.
func (s *search) standable(c Coord) bool {
	return s.columnClear(c) && s.solid(c.Below())
}

// closerToGoal orders partial-path candidates: lower heuristic first, then
// lower g-cost, then lexicographic position for determinism.
func closerToGoal(a, b *pathNode) bool {
	if a.hCost != b.hCost {
		return a.hCost < b.hCost
	}
	if a.gCost != b.gCost {
		return a.gCost < b.gCost
	}
	return a.pos.Less(b.pos)
}

// reconstruct walks parent links back to the start and reverses.
func reconstruct(n *pathNode) []Coord {
	count := 0
	for p := n; p != nil; p = p.parent {
		count++
	}
	path := make([]Coord, count)
	i := count - 1
	for p := n; p != nil; p = p.parent {
		path[i] = p.pos
		i--
	}
	return path
}

// pathNode is a node in the A* search graph.
type pathNode struct {
	pos    Coord
	parent *pathNode
	gCost  float64 // actual cost from start
	hCost  float64 // heuristic cost to goal
	fCost  float64 // gCost + hCost
	index  int     // heap index
}

// nodeHeap implements container/heap for the A* open list. Ordering is
// total: f-cost, then smaller g-cost (favors nodes closer to the start
// among equals), then lexicographic coordinate, so repeated searches over
// the same snapshot pop nodes in the same order.
type nodeHeap []*pathNode

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].fCost != h[j].fCost {
		return h[i].fCost < h[j].fCost
	}
	if h[i].gCost != h[j].gCost {
		return h[i].gCost < h[j].gCost
	}
	return h[i].pos.Less(h[j].pos)
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }

func (h *nodeHeap) Push(x any) { n := x.(*pathNode); n.index = len(*h); *h = append(*h, n) }

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil // GC
	node.index = -1
	*h = old[:n-1]
	return node
}

package world

import (
	"sync"

	"github.com/HueByte/vshorde/internal/nav"
)

// Scanner is the goal oracle: it knows where base cores are and answers
// goal and target-visibility queries for agent drivers. The core treats
// it as opaque; the heuristics behind core placement live with the host.
type Scanner struct {
	world *World

	mu     sync.RWMutex
	cores  map[uint32]nav.Coord
	nextID uint32

	// scanRadius bounds how far an agent can sense a base core; zero
	// means unlimited.
	scanRadius int32
	// targetRange bounds live-target visibility.
	targetRange int32
}

// NewScanner creates a scanner over w.
func NewScanner(w *World, scanRadius, targetRange int32) *Scanner {
	return &Scanner{
		world:       w,
		cores:       make(map[uint32]nav.Coord, 4),
		nextID:      1000,
		scanRadius:  scanRadius,
		targetRange: targetRange,
	}
}

// AddCore places a base-core block and registers it as a live target.
// Returns the target's identifier.
func (s *Scanner) AddCore(c nav.Coord) uint32 {
	s.world.SetBlock(c, BlockBaseCore)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.cores[id] = c
	return id
}

// RemoveCore unregisters a destroyed core and clears its block.
func (s *Scanner) RemoveCore(id uint32) {
	s.mu.Lock()
	c, ok := s.cores[id]
	delete(s.cores, id)
	s.mu.Unlock()

	if ok {
		s.world.SetBlock(c, BlockAir)
	}
}

// CoreCount returns the number of live cores.
func (s *Scanner) CoreCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cores)
}

// Goal implements horde.GoalProvider: the nearest live core within scan
// radius of from. Ties break on the lower core ID for determinism.
func (s *Scanner) Goal(_ uint32, from nav.Coord) (nav.Coord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best     nav.Coord
		bestID   uint32
		bestDist int64 = -1
	)
	radiusSq := int64(s.scanRadius) * int64(s.scanRadius)

	for id, c := range s.cores {
		d := from.DistSq(c)
		if s.scanRadius > 0 && d > radiusSq {
			continue
		}
		if bestDist < 0 || d < bestDist || (d == bestDist && id < bestID) {
			best, bestID, bestDist = c, id, d
		}
	}
	if bestDist < 0 {
		return nav.Coord{}, false
	}
	return best, true
}

// VisibleTarget implements horde.GoalProvider: a live core within target
// range and line of sight of from.
func (s *Scanner) VisibleTarget(from nav.Coord) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rangeSq := int64(s.targetRange) * int64(s.targetRange)
	var (
		bestID   uint32
		bestDist int64 = -1
	)

	for id, c := range s.cores {
		d := from.DistSq(c)
		if s.targetRange > 0 && d > rangeSq {
			continue
		}
		if !nav.LineOfSight(s.world, from, c) {
			continue
		}
		if bestDist < 0 || d < bestDist || (d == bestDist && id < bestID) {
			bestID, bestDist = id, d
		}
	}
	if bestDist < 0 {
		return 0, false
	}
	return bestID, true
}

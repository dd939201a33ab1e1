package siege

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HueByte/vshorde/internal/nav"
)

func testArbiter() *Arbiter {
	return NewArbiter(DefaultConfig(), nil)
}

func TestRequestAdmissionCapacityBound(t *testing.T) {
	a := testArbiter()
	pos := nav.Coord{X: 5, Y: 0, Z: 0}

	// Capacity 3: the first three agents are admitted.
	assert.Equal(t, Admitted, a.RequestAdmission(pos, 1, 10))
	assert.Equal(t, Admitted, a.RequestAdmission(pos, 2, 10))
	assert.Equal(t, Admitted, a.RequestAdmission(pos, 3, 10))

	// The 4th is always denied while the set is full.
	assert.Equal(t, DeniedAtCapacity, a.RequestAdmission(pos, 4, 11))
	assert.Equal(t, DeniedAtCapacity, a.RequestAdmission(pos, 4, 12))

	// Releasing one slot lets the 4th in.
	a.ReleaseAdmission(IDForCoord(pos), 2)
	assert.Equal(t, Admitted, a.RequestAdmission(pos, 4, 13))
}

func TestRequestAdmissionReentrant(t *testing.T) {
	a := testArbiter()
	pos := nav.Coord{X: 1, Y: 0, Z: 1}

	assert.Equal(t, Admitted, a.RequestAdmission(pos, 7, 1))
	// Re-requesting does not consume another slot.
	assert.Equal(t, Admitted, a.RequestAdmission(pos, 7, 2))

	snap, ok := a.State(IDForCoord(pos))
	require.True(t, ok)
	assert.Equal(t, 1, snap.Attackers)
}

func TestReleaseAdmissionIdempotent(t *testing.T) {
	a := testArbiter()
	pos := nav.Coord{X: 2, Y: 0, Z: 2}
	id := IDForCoord(pos)

	// Releasing an untracked obstacle is a no-op.
	a.ReleaseAdmission(id, 1)

	require.Equal(t, Admitted, a.RequestAdmission(pos, 1, 1))
	a.ReleaseAdmission(id, 1)
	a.ReleaseAdmission(id, 1)
	a.ReleaseAdmission(id, 99)

	snap, ok := a.State(id)
	require.True(t, ok)
	assert.Equal(t, 0, snap.Attackers)
	assert.False(t, a.HoldsAdmission(id, 1))
}

func TestAdmissionBoundUnderConcurrency(t *testing.T) {
	// At every instant the number of admitted agents must not exceed
	// capacity, no matter how many agents hammer the arbiter in parallel.
	a := testArbiter()
	pos := nav.Coord{X: 0, Y: 0, Z: 9}
	id := IDForCoord(pos)

	const agents = 32
	var admitted atomic.Int32
	var maxSeen atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < agents; i++ {
		wg.Add(1)
		go func(agentID uint32) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if a.RequestAdmission(pos, agentID, 1) == Admitted {
					now := admitted.Add(1)
					for {
						prev := maxSeen.Load()
						if now <= prev || maxSeen.CompareAndSwap(prev, now) {
							break
						}
					}
					admitted.Add(-1)
					a.ReleaseAdmission(id, agentID)
				}
			}
		}(uint32(i + 1))
	}
	wg.Wait()

	assert.LessOrEqual(t, maxSeen.Load(), int32(DefaultAttackerCapacity))
	assert.Positive(t, maxSeen.Load())
}

func TestApplyDamageMonotonic(t *testing.T) {
	// 2000 HP with repeated 50-damage hits: destroyed after exactly 40
	// applications, hit points never increasing in between.
	a := testArbiter()
	pos := nav.Coord{X: 3, Y: 0, Z: 3}
	id := IDForCoord(pos)
	require.Equal(t, Admitted, a.RequestAdmission(pos, 1, 0))

	prev := int32(2000)
	for hit := 1; hit <= 40; hit++ {
		res := a.ApplyDamage(id, 50, int64(hit))
		require.True(t, res.Found)
		assert.LessOrEqual(t, res.Remaining, prev, "hit points must never increase")
		prev = res.Remaining

		if hit < 40 {
			assert.False(t, res.Destroyed, "hit %d must not destroy", hit)
		} else {
			assert.True(t, res.Destroyed, "hit 40 must destroy")
			assert.True(t, res.JustDestroyed)
			assert.Equal(t, int32(0), res.Remaining)
		}
	}
}

func TestApplyDamageDestroyedExactlyOnce(t *testing.T) {
	a := NewArbiter(Config{MaxHitPoints: 100, AttackerCapacity: 3}, nil)
	pos := nav.Coord{X: 4, Y: 0, Z: 4}
	id := IDForCoord(pos)
	require.Equal(t, Admitted, a.RequestAdmission(pos, 1, 0))

	res := a.ApplyDamage(id, 250, 1)
	assert.True(t, res.Destroyed)
	assert.True(t, res.JustDestroyed)

	// Later damage is a no-op that still reports destroyed.
	res = a.ApplyDamage(id, 50, 2)
	assert.True(t, res.Destroyed)
	assert.False(t, res.JustDestroyed)
	assert.Equal(t, int32(0), res.Remaining)
}

func TestApplyDamageReleasesAttackersOnDestruction(t *testing.T) {
	a := NewArbiter(Config{MaxHitPoints: 100, AttackerCapacity: 3}, nil)
	pos := nav.Coord{X: 5, Y: 0, Z: 5}
	id := IDForCoord(pos)

	require.Equal(t, Admitted, a.RequestAdmission(pos, 1, 0))
	require.Equal(t, Admitted, a.RequestAdmission(pos, 2, 0))

	res := a.ApplyDamage(id, 100, 1)
	require.True(t, res.Destroyed)

	assert.False(t, a.HoldsAdmission(id, 1))
	assert.False(t, a.HoldsAdmission(id, 2))
}

func TestApplyDamageUnknownObstacle(t *testing.T) {
	a := testArbiter()

	res := a.ApplyDamage(ID("9:9:9"), 50, 1)
	assert.False(t, res.Found)
	assert.True(t, res.Destroyed)
}

func TestThreeAttackersDestroyDoor(t *testing.T) {
	// Obstacle with 100 HP, agents hitting for 50: destroyed after 2
	// cumulative hits; a 4th concurrent admission request is denied while
	// the first three hold slots.
	a := NewArbiter(Config{MaxHitPoints: 100, AttackerCapacity: 3}, nil)
	pos := nav.Coord{X: 5, Y: 0, Z: 0}
	id := IDForCoord(pos)

	require.Equal(t, Admitted, a.RequestAdmission(pos, 1, 0))
	require.Equal(t, Admitted, a.RequestAdmission(pos, 2, 0))
	require.Equal(t, Admitted, a.RequestAdmission(pos, 3, 0))
	require.Equal(t, DeniedAtCapacity, a.RequestAdmission(pos, 4, 0))

	res := a.ApplyDamage(id, 50, 1)
	require.False(t, res.Destroyed)
	assert.Equal(t, int32(50), res.Remaining)

	res = a.ApplyDamage(id, 50, 1)
	assert.True(t, res.Destroyed)
}

func TestSweepRemovesDestroyed(t *testing.T) {
	a := NewArbiter(Config{MaxHitPoints: 100, AttackerCapacity: 3}, nil)
	pos := nav.Coord{X: 6, Y: 0, Z: 6}
	id := IDForCoord(pos)

	require.Equal(t, Admitted, a.RequestAdmission(pos, 1, 0))
	a.ApplyDamage(id, 100, 1)
	require.Equal(t, 1, a.Count())

	removed := a.Sweep(2, 0)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, a.Count())

	_, ok := a.State(id)
	assert.False(t, ok)
}

func TestSweepEvictsIdleObstacles(t *testing.T) {
	a := testArbiter()
	pos := nav.Coord{X: 7, Y: 0, Z: 7}
	id := IDForCoord(pos)

	require.Equal(t, Admitted, a.RequestAdmission(pos, 1, 100))

	// Active attacker: never evicted, no matter how stale.
	assert.Equal(t, 0, a.Sweep(10_000, 500))

	a.ReleaseAdmission(id, 1)

	// Released but not yet idle long enough.
	assert.Equal(t, 0, a.Sweep(550, 500))
	// Past the idle threshold.
	assert.Equal(t, 1, a.Sweep(601, 500))
	assert.Equal(t, 0, a.Count())
}

func TestSweepZeroThresholdKeepsLiveObstacles(t *testing.T) {
	// idleThreshold 0 disables idle eviction; only destroyed obstacles go.
	a := testArbiter()
	require.Equal(t, Admitted, a.RequestAdmission(nav.Coord{X: 8, Y: 0, Z: 8}, 1, 0))
	a.ReleaseAdmission(IDForCoord(nav.Coord{X: 8, Y: 0, Z: 8}), 1)

	assert.Equal(t, 0, a.Sweep(1_000_000, 0))
	assert.Equal(t, 1, a.Count())
}

func TestIDForCoord(t *testing.T) {
	assert.Equal(t, ID("5:0:-3"), IDForCoord(nav.Coord{X: 5, Y: 0, Z: -3}))
	assert.Equal(t, IDForCoord(nav.Coord{X: 1, Y: 2, Z: 3}), IDForCoord(nav.Coord{X: 1, Y: 2, Z: 3}))
	assert.NotEqual(t, IDForCoord(nav.Coord{X: 1, Y: 2, Z: 3}), IDForCoord(nav.Coord{X: 3, Y: 2, Z: 1}))
}

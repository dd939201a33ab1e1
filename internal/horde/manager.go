package horde

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HueByte/vshorde/internal/siege"
)

// Controller is the per-agent driver interface the TickManager schedules.
type Controller interface {
	// Start activates the controller.
	Start()

	// Stop deactivates the controller.
	Stop()

	// State returns the current behavior state.
	State() State

	// Tick evaluates the controller for the given host tick.
	Tick(tick int64)
}

// TickManager fans host ticks out to all registered drivers and runs
// arbiter housekeeping. The host invokes Tick once per engine tick from
// its update thread; with Parallelism > 1 drivers are evaluated in
// parallel batches, which the Arbiter's contract is built to survive.
type TickManager struct {
	controllers     sync.Map // agentID (uint32) -> Controller
	controllerCount atomic.Int32

	arbiter       *siege.Arbiter
	sweepInterval int64
	idleEvict     int64
	parallelism   int

	stopCh chan struct{}
}

// NewTickManager creates a manager. sweepInterval and idleEvict are in
// host ticks; parallelism <= 1 means sequential evaluation.
func NewTickManager(arbiter *siege.Arbiter, sweepInterval, idleEvict int64, parallelism int) *TickManager {
	if sweepInterval <= 0 {
		sweepInterval = 100
	}
	return &TickManager{
		arbiter:       arbiter,
		sweepInterval: sweepInterval,
		idleEvict:     idleEvict,
		parallelism:   parallelism,
		stopCh:        make(chan struct{}),
	}
}

// Register registers a driver for an agent and starts it.
func (m *TickManager) Register(agentID uint32, controller Controller) {
	m.controllers.Store(agentID, controller)
	m.controllerCount.Add(1)
	controller.Start()

	slog.Debug("horde controller registered", "agent", agentID)
}

// Unregister stops and removes the driver for an agent. Called when the
// agent dies, despawns, or reverts to default behavior.
func (m *TickManager) Unregister(agentID uint32) {
	value, ok := m.controllers.LoadAndDelete(agentID)
	if !ok {
		return
	}
	m.controllerCount.Add(-1)

	value.(Controller).Stop()
	slog.Debug("horde controller unregistered", "agent", agentID)
}

// Tick is the core's per-tick entry point. Non-blocking beyond the bounded
// work of each driver's evaluation.
func (m *TickManager) Tick(tick int64) {
	if m.parallelism > 1 {
		m.tickParallel(tick)
	} else {
		m.controllers.Range(func(_, value any) bool {
			value.(Controller).Tick(tick)
			return true
		})
	}

	if m.arbiter != nil && tick%m.sweepInterval == 0 {
		m.arbiter.Sweep(tick, m.idleEvict)
	}
}

// tickParallel evaluates drivers in bounded parallel batches. Each driver
// exclusively owns its navigation state; the only shared state is the
// Arbiter's, which is safe under concurrent invocation.
func (m *TickManager) tickParallel(tick int64) {
	var g errgroup.Group
	g.SetLimit(m.parallelism)

	m.controllers.Range(func(_, value any) bool {
		controller := value.(Controller)
		g.Go(func() error {
			controller.Tick(tick)
			return nil
		})
		return true
	})

	_ = g.Wait() // drivers never return errors
}

// Run drives ticks from an internal clock until ctx is canceled. Hosts
// with their own engine loop call Tick directly instead.
func (m *TickManager) Run(ctx context.Context, tickInterval time.Duration) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	slog.Info("horde tick manager started", "interval", tickInterval, "parallelism", m.parallelism)

	var tick int64
	for {
		select {
		case <-ctx.Done():
			slog.Info("horde tick manager stopping")
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("horde tick manager stopped")
			return nil

		case <-ticker.C:
			tick++
			m.Tick(tick)
		}
	}
}

// Stop terminates a Run loop.
func (m *TickManager) Stop() {
	close(m.stopCh)
}

// Count returns the number of registered controllers (O(1) cached count).
func (m *TickManager) Count() int {
	return int(m.controllerCount.Load())
}

// GetController returns the controller for an agent.
func (m *TickManager) GetController(agentID uint32) (Controller, error) {
	value, ok := m.controllers.Load(agentID)
	if !ok {
		return nil, fmt.Errorf("controller not found for agent %d", agentID)
	}
	return value.(Controller), nil
}

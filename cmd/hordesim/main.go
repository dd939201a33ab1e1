// Command hordesim runs the horde siege AI against a synthetic keep: a
// walled base with destructible doors and a core, stormed by a pack of
// agents driven by the navigation and siege-coordination core.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HueByte/vshorde/internal/config"
	"github.com/HueByte/vshorde/internal/diag"
	"github.com/HueByte/vshorde/internal/horde"
	"github.com/HueByte/vshorde/internal/journal"
	"github.com/HueByte/vshorde/internal/siege"
)

const defaultConfigPath = "config/hordesim.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil && err != context.Canceled {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configPath := flag.String("config", defaultConfigPath, "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	horde.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("hordesim starting",
		"log_level", cfg.LogLevel,
		"agents", cfg.Sim.Agents,
		"tick_rate_hz", cfg.Sim.TickRateHz)

	g, ctx := errgroup.WithContext(ctx)

	// Diagnostics sinks: all optional, none required for core behavior.
	sinks := make([]journal.Sink, 0, 3)
	if logLevel == slog.LevelDebug {
		sinks = append(sinks, journal.SlogSink{})
	}

	var observer *diag.Server
	if cfg.Observer.Enabled {
		observer = diag.NewServer()
		sinks = append(sinks, observer)
		g.Go(func() error {
			return observer.ListenAndServe(ctx, cfg.Observer.Bind)
		})
	}

	if cfg.Journal.Enabled {
		if err := journal.RunMigrations(ctx, cfg.Journal.DSN); err != nil {
			return fmt.Errorf("journal migrations: %w", err)
		}
		pg, err := journal.NewPgJournal(ctx, cfg.Journal.DSN)
		if err != nil {
			return fmt.Errorf("connecting journal: %w", err)
		}
		defer pg.Close()
		sinks = append(sinks, pg)
		g.Go(func() error {
			err := pg.Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		})
		slog.Info("event journal enabled")
	}
	sink := journal.Multi(sinks...)

	// Scenario world and collaborators.
	w, scanner, spawns, cores := buildScenario(cfg)
	arbiter := siege.NewArbiter(cfg.Horde.ArbiterConfig(), sink)
	host := newSimHost(w, scanner, cfg.Horde.DamagePerAttack)
	host.arbiter = arbiter
	for _, id := range cores {
		host.registerCore(id)
	}

	manager := horde.NewTickManager(arbiter,
		cfg.Horde.SweepIntervalTicks, cfg.Horde.IdleEvictTicks, cfg.Horde.Parallelism)

	tuning := cfg.Horde.Tuning()
	for i, spawn := range spawns {
		agentID := uint32(i + 1)
		host.placeAgent(agentID, spawn)
		driver := horde.NewDriver(agentID, tuning, horde.Deps{
			World:    w.NavView(),
			Arbiter:  arbiter,
			Goals:    scanner,
			Sink:     host,
			Barrier:  w.BarrierAt,
			Position: host.positionFunc(agentID),
			Journal:  sink,
		})
		manager.Register(agentID, driver)
	}
	slog.Info("horde assembled", "agents", manager.Count(), "cores", scanner.CoreCount())

	g.Go(func() error {
		return tickLoop(ctx, cfg, manager, scanner, host)
	})

	err = g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

// tickLoop drives the core at the configured rate until the objective is
// destroyed, the tick budget runs out, or shutdown is requested.
func tickLoop(ctx context.Context, cfg config.Config, manager *horde.TickManager, scanner interface{ CoreCount() int }, host *simHost) error {
	interval := time.Second / time.Duration(cfg.Sim.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var tick int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			tick++
			manager.Tick(tick)

			if tick%cfg.Sim.ReportEvery == 0 {
				moves, obstacleHits, targetHits := host.stats()
				slog.Info("siege progress",
					"tick", tick,
					"cores_alive", scanner.CoreCount(),
					"moves", moves,
					"obstacle_hits", obstacleHits,
					"target_hits", targetHits)
			}

			if scanner.CoreCount() == 0 {
				slog.Info("objective destroyed, siege complete", "tick", tick)
				return nil
			}
			if cfg.Sim.MaxTicks > 0 && tick >= cfg.Sim.MaxTicks {
				slog.Info("tick budget exhausted", "tick", tick)
				return nil
			}
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// pgBufferSize bounds the in-memory event queue. When full, events are
	// dropped so the tick loop never stalls on the database.
	pgBufferSize = 4096

	// pgFlushInterval is how often buffered events are written out.
	pgFlushInterval = 2 * time.Second

	// pgBatchMax caps rows per INSERT.
	pgBatchMax = 256
)

// PgJournal persists events to PostgreSQL via a pgx pool. Record is
// non-blocking; a background writer started by Run flushes batches.
type PgJournal struct {
	pool    *pgxpool.Pool
	events  chan Event
	dropped atomic.Int64
}

// NewPgJournal connects to PostgreSQL and returns a journal handle.
func NewPgJournal(ctx context.Context, dsn string) (*PgJournal, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to journal database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging journal database: %w", err)
	}
	return &PgJournal{
		pool:   pool,
		events: make(chan Event, pgBufferSize),
	}, nil
}

// Close closes the underlying connection pool.
func (j *PgJournal) Close() {
	j.pool.Close()
}

// Record implements Sink. Never blocks: drops the event when the buffer
// is full.
func (j *PgJournal) Record(ev Event) {
	select {
	case j.events <- ev:
	default:
		j.dropped.Add(1)
	}
}

// Run consumes the event buffer and writes batches until ctx is canceled.
func (j *PgJournal) Run(ctx context.Context) error {
	ticker := time.NewTicker(pgFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, pgBatchMax)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := j.insertWith(ctx, batch); err != nil {
			slog.Warn("journal flush failed", "events", len(batch), "err", err)
		}
		batch = batch[:0]
	}

	slog.Info("journal writer started")
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if len(batch) > 0 {
				if err := j.insertWith(flushCtx, batch); err != nil {
					slog.Warn("journal final flush failed", "err", err)
				}
			}
			cancel()
			if n := j.dropped.Load(); n > 0 {
				slog.Warn("journal dropped events under backpressure", "count", n)
			}
			slog.Info("journal writer stopped")
			return ctx.Err()

		case ev := <-j.events:
			batch = append(batch, ev)
			if len(batch) >= pgBatchMax {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

func (j *PgJournal) insertWith(ctx context.Context, events []Event) error {
	rows := make([][]any, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []any{
			ev.Tick, int64(ev.Agent), ev.Episode, string(ev.Kind),
			ev.State, ev.Obstacle, ev.Detail, ev.Value, time.Now(),
		})
	}

	tx, err := j.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning journal tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO horde_events
			   (tick, agent_id, episode, kind, state, obstacle, detail, value, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			row...,
		); err != nil {
			return fmt.Errorf("inserting journal event: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing journal tx: %w", err)
	}
	return nil
}

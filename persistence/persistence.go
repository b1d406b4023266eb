// Package persistence is the pgx-backed durable store for the
// simulation's two write-paths: analytics events (spec.md §6's event
// stream) and savegames (spec.md §6's "scheduler heap, queue contents,
// parking occupancy, person/trip state, and RNG state form a
// self-contained savegame"). Grounded on
// KhalidEchchahid-transit-app/backend's pgxpool.Pool wiring
// (internal/repository/line_repo.go: a repository struct wrapping a
// *pgxpool.Pool, one method per query, context-first signatures).
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/opencity-sim/simcore/analytics"
	"github.com/opencity-sim/simcore/sim"
)

var log = logrus.WithField("module", "persistence")

// Store wraps a connection pool and implements both analytics.Sink and
// the savegame read/write path. One Store is shared across a run.
type Store struct {
	pool *pgxpool.Pool
}

// Open parses dsn and establishes a pool, pinging it once so a
// misconfigured connection string fails fast at startup rather than on
// the first query (mirrors the teacher's main.go pool.Ping check).
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("persistence: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("persistence: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("persistence: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

// Migrate creates the analytics_events and savegames tables if absent.
// The core ships no migration tool of its own (spec.md §6: a library,
// not a service); a caller wanting a real migration chain should point
// one at these same two statements.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS analytics_events (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			sim_time DOUBLE PRECISION NOT NULL,
			trip_id BIGINT,
			person_id BIGINT,
			mode TEXT,
			duration DOUBLE PRECISION,
			reason TEXT,
			intersection_id BIGINT,
			agent TEXT,
			parking_spot BIGINT,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS analytics_events_run_idx ON analytics_events (run_id, sim_time);

		CREATE TABLE IF NOT EXISTS savegames (
			run_id TEXT NOT NULL,
			sim_time DOUBLE PRECISION NOT NULL,
			state JSONB NOT NULL,
			saved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (run_id, sim_time)
		);
	`)
	if err != nil {
		return fmt.Errorf("persistence: migrate: %w", err)
	}
	return nil
}

// EventSink adapts a Store to analytics.Sink, tagging every row with a
// run id so several runs can share one database.
type EventSink struct {
	store *Store
	runID string
	ctx   context.Context
}

func (s *Store) EventSink(ctx context.Context, runID string) *EventSink {
	return &EventSink{store: s, runID: runID, ctx: ctx}
}

// Emit inserts one row per event. Per spec.md §5's synchronous-emit
// contract the write happens on the caller's goroutine; callers running
// a long simulation should wrap this in a batching analytics.Sink if
// insert latency becomes the bottleneck (none of the scenarios in
// spec.md §8 need one).
func (e *EventSink) Emit(ev analytics.Event) {
	_, err := e.store.pool.Exec(e.ctx, `
		INSERT INTO analytics_events
			(run_id, kind, sim_time, trip_id, person_id, mode, duration, reason, intersection_id, agent, parking_spot)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		e.runID, ev.Kind.String(), float64(ev.Time),
		ev.TripID, ev.PersonID, ev.Mode,
		float64(ev.Duration), string(ev.Reason),
		ev.IntersectionID, agentString(ev.Agent), ev.ParkingSpot,
	)
	if err != nil {
		log.WithError(err).Warn("persistence: dropped analytics event")
	}
}

func agentString(a analytics.AgentKind) string {
	if a == analytics.AgentPedestrian {
		return "pedestrian"
	}
	return "vehicle"
}

// SaveSnapshot serializes a sim.Snapshot as JSONB under (runID, time).
func (s *Store) SaveSnapshot(ctx context.Context, runID string, snap sim.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("persistence: encode snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO savegames (run_id, sim_time, state)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_id, sim_time) DO UPDATE SET state = EXCLUDED.state, saved_at = now()
	`, runID, float64(snap.Now), body)
	if err != nil {
		return fmt.Errorf("persistence: save snapshot: %w", err)
	}
	return nil
}

// LoadLatestSnapshot fetches the most recent savegame for runID, or
// ok=false if none exists yet.
func (s *Store) LoadLatestSnapshot(ctx context.Context, runID string) (sim.Snapshot, bool, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `
		SELECT state FROM savegames
		WHERE run_id = $1
		ORDER BY sim_time DESC
		LIMIT 1
	`, runID).Scan(&body)
	if err != nil {
		if IsNoRows(err) {
			return sim.Snapshot{}, false, nil
		}
		return sim.Snapshot{}, false, fmt.Errorf("persistence: load snapshot: %w", err)
	}
	var snap sim.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return sim.Snapshot{}, false, fmt.Errorf("persistence: decode snapshot: %w", err)
	}
	return snap, true, nil
}

// IsNoRows reports whether err is pgx's no-rows sentinel, named the
// same way the teacher's repository package exports it.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

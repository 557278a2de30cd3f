package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"robot-explorer/api/internal/explore"
)

// Postgres keeps the snapshot as a single jsonb row and mirrors every
// positive detection into the detections table for operators.
type Postgres struct{ DB *sql.DB }

// OpenPostgres connects through the pgx stdlib driver and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	if err := MigrateUp(db, "postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{DB: db}, nil
}

func (r *Postgres) Load(ctx context.Context) (explore.Snapshot, error) {
	var raw []byte
	err := r.DB.QueryRowContext(ctx, `select snapshot from exploration_snapshot where id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return explore.Snapshot{}, explore.ErrNoSnapshot
	}
	if err != nil {
		return explore.Snapshot{}, err
	}
	var s explore.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return explore.Snapshot{}, fmt.Errorf("%w: %v", explore.ErrCorruptSnapshot, err)
	}
	return s, nil
}

func (r *Postgres) Save(ctx context.Context, s explore.Snapshot) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
insert into exploration_snapshot (id, snapshot, updated_at)
values (1, $1, now())
on conflict (id) do update set
  snapshot   = excluded.snapshot,
  updated_at = now()`
	if _, err := tx.ExecContext(ctx, q, raw); err != nil {
		return err
	}

	if err := syncDetections(ctx, tx, s); err != nil {
		return err
	}
	return tx.Commit()
}

// detectionsSQL rewrites the detections table to match the snapshot's
// sightings. Cells that were re-imaged without a person drop out; re-imaged
// positives carry the latest image and time.
func detectionsSQL(s explore.Snapshot) (stmts []string, args [][]any) {
	stmts = append(stmts, `delete from detections`)
	args = append(args, nil)
	for _, e := range explore.Sightings(s.Visited) {
		stmts = append(stmts, `
insert into detections (x, y, image_path, observed_at)
values ($1, $2, $3, $4)
on conflict (x, y) do update set
  image_path  = excluded.image_path,
  observed_at = excluded.observed_at`)
		args = append(args, []any{e.Position.X, e.Position.Y, e.ImageRef, e.ObservedAt})
	}
	return stmts, args
}

func syncDetections(ctx context.Context, tx *sql.Tx, s explore.Snapshot) error {
	stmts, args := detectionsSQL(s)
	for i, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, args[i]...); err != nil {
			return fmt.Errorf("store: sync detections: %w", err)
		}
	}
	return nil
}

// Detections reads the mirrored sightings, oldest first.
func (r *Postgres) Detections(ctx context.Context) ([]explore.VisitedEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
select x, y, image_path, observed_at
from detections
order by observed_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]explore.VisitedEntry, 0)
	for rows.Next() {
		e := explore.VisitedEntry{HumanDetected: true}
		if err := rows.Scan(&e.Position.X, &e.Position.Y, &e.ImageRef, &e.ObservedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Postgres) Ping(ctx context.Context) error { return r.DB.PingContext(ctx) }

func (r *Postgres) Close() error { return r.DB.Close() }

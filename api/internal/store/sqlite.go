package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"

	"robot-explorer/api/internal/explore"
)

// cborMode keeps timestamps at full precision in the snapshot blob.
var cborMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// SQLite stores the snapshot as a CBOR blob in a single-row table.
type SQLite struct{ DB *sql.DB }

// OpenSQLite opens (or creates) the database at path and migrates it.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// one writer; also keeps a :memory: database alive across calls
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: sqlite pragma: %w", err)
	}
	if err := MigrateUp(db, "sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{DB: db}, nil
}

func (r *SQLite) Load(ctx context.Context) (explore.Snapshot, error) {
	var raw []byte
	err := r.DB.QueryRowContext(ctx, `SELECT snapshot FROM exploration_snapshot WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return explore.Snapshot{}, explore.ErrNoSnapshot
	}
	if err != nil {
		return explore.Snapshot{}, err
	}
	var s explore.Snapshot
	if err := cbor.Unmarshal(raw, &s); err != nil {
		return explore.Snapshot{}, fmt.Errorf("%w: %v", explore.ErrCorruptSnapshot, err)
	}
	return s, nil
}

func (r *SQLite) Save(ctx context.Context, s explore.Snapshot) error {
	raw, err := cborMode.Marshal(s)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO exploration_snapshot (id, snapshot, updated_at)
VALUES (1, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  snapshot   = excluded.snapshot,
  updated_at = excluded.updated_at`
	_, err = r.DB.ExecContext(ctx, q, raw, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (r *SQLite) Ping(ctx context.Context) error { return r.DB.PingContext(ctx) }

func (r *SQLite) Close() error { return r.DB.Close() }

/*
Package sqlite provides a SQLite-backed implementation of the local stores.

PURPOSE:
  The station backend owns shifts. This store only keeps what the service
  needs between requests: drafts of suspended shifts being edited, and a
  log of the reconciliation figures computed when a shift closed.

INTERFACES IMPLEMENTED:
  shift.DraftStore: Draft save/load/list/delete/purge
  shift.RunLog:     Append-only close log

KEY TABLES:
  drafts: One row per draft, payload is the shift wire JSON
  runs:   One row per successful close, never updated

INDEXES:
  - idx_drafts_station_updated: ListDrafts (most recent first)
  - idx_drafts_updated:         PurgeDraftsBefore
  - idx_runs_station_closed:    ListRuns

MONEY:
  Decimal columns are stored as TEXT and parsed back with
  decimal.NewFromString so no precision is lost.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers do not block
  the single writer.

USAGE:
  store, err := sqlite.New("./data/fuel.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - shift/store.go: Interface definitions
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/fuel-station/shift"
)

// timeLayout is fixed width so TEXT columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements shift.DraftStore and shift.RunLog using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

var (
	_ shift.DraftStore = (*Store)(nil)
	_ shift.RunLog     = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetClock replaces the clock used to stamp drafts.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Drafts of suspended shifts
	CREATE TABLE IF NOT EXISTS drafts (
		id TEXT PRIMARY KEY,
		station_id TEXT NOT NULL,
		shift_id TEXT NOT NULL DEFAULT '',
		label TEXT NOT NULL DEFAULT '',
		payload BLOB NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_drafts_station_updated
		ON drafts(station_id, updated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_drafts_updated
		ON drafts(updated_at);

	-- Close log (append-only)
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		shift_id TEXT NOT NULL,
		station_id TEXT NOT NULL,
		cash_remaining TEXT NOT NULL,
		total_other_distributed TEXT NOT NULL,
		main_ledger_amount TEXT NOT NULL,
		collected_amount TEXT,
		variance TEXT,
		balanced BOOLEAN NOT NULL,
		closed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_station_closed
		ON runs(station_id, closed_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DRAFTS
// =============================================================================

// SaveDraft inserts or replaces a draft. CreatedAt is kept on replace.
func (s *Store) SaveDraft(ctx context.Context, d shift.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC().Format(timeLayout)
	created := now
	if !d.CreatedAt.IsZero() {
		created = d.CreatedAt.UTC().Format(timeLayout)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, station_id, shift_id, label, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			station_id = excluded.station_id,
			shift_id = excluded.shift_id,
			label = excluded.label,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, d.ID, string(d.StationID), string(d.ShiftID), d.Label, d.Payload, created, now)
	if err != nil {
		return fmt.Errorf("failed to save draft %s: %w", d.ID, err)
	}
	return nil
}

// GetDraft returns shift.ErrDraftNotFound when the ID is unknown.
func (s *Store) GetDraft(ctx context.Context, id string) (shift.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, station_id, shift_id, label, payload, created_at, updated_at
		FROM drafts WHERE id = ?
	`, id)
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return shift.Draft{}, fmt.Errorf("%w: %s", shift.ErrDraftNotFound, id)
	}
	if err != nil {
		return shift.Draft{}, fmt.Errorf("failed to get draft %s: %w", id, err)
	}
	return d, nil
}

// ListDrafts returns a station's drafts, most recently updated first.
func (s *Store) ListDrafts(ctx context.Context, station shift.StationID) ([]shift.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, station_id, shift_id, label, payload, created_at, updated_at
		FROM drafts WHERE station_id = ?
		ORDER BY updated_at DESC, id
	`, string(station))
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []shift.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// DeleteDraft removes a draft. Deleting an unknown ID returns
// shift.ErrDraftNotFound.
func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", shift.ErrDraftNotFound, id)
	}
	return nil
}

// PurgeDraftsBefore deletes drafts not updated since cutoff.
func (s *Store) PurgeDraftsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE updated_at < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to purge drafts: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(row scanner) (shift.Draft, error) {
	var (
		d                    shift.Draft
		station, shiftID     string
		createdAt, updatedAt string
	)
	if err := row.Scan(&d.ID, &station, &shiftID, &d.Label, &d.Payload, &createdAt, &updatedAt); err != nil {
		return shift.Draft{}, err
	}
	d.StationID = shift.StationID(station)
	d.ShiftID = shift.ShiftID(shiftID)
	d.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	d.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return d, nil
}

// =============================================================================
// RUN LOG
// =============================================================================

// RecordRun appends a close run. Runs are never updated.
func (s *Store) RecordRun(ctx context.Context, r shift.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, shift_id, station_id, cash_remaining, total_other_distributed,
			main_ledger_amount, collected_amount, variance, balanced, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, string(r.ShiftID), string(r.StationID),
		r.CashRemaining.String(), r.TotalOtherDistributed.String(), r.MainLedgerAmount.String(),
		nullDecimal(r.CollectedAmount), nullDecimal(r.Variance),
		r.Balanced, r.ClosedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record run for shift %s: %w", r.ShiftID, err)
	}
	return nil
}

// ListRuns returns a station's runs, most recent first.
func (s *Store) ListRuns(ctx context.Context, station shift.StationID) ([]shift.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shift_id, station_id, cash_remaining, total_other_distributed,
			main_ledger_amount, collected_amount, variance, balanced, closed_at
		FROM runs WHERE station_id = ?
		ORDER BY closed_at DESC, id
	`, string(station))
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []shift.Run
	for rows.Next() {
		var (
			r                            shift.Run
			shiftID, stationID, closedAt string
			cash, other, main            string
			collected, variance          sql.NullString
		)
		if err := rows.Scan(&r.ID, &shiftID, &stationID, &cash, &other, &main,
			&collected, &variance, &r.Balanced, &closedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.ShiftID = shift.ShiftID(shiftID)
		r.StationID = shift.StationID(stationID)
		r.ClosedAt, _ = time.Parse(timeLayout, closedAt)
		if r.CashRemaining, err = decimal.NewFromString(cash); err != nil {
			return nil, fmt.Errorf("run %s: cash_remaining: %w", r.ID, err)
		}
		if r.TotalOtherDistributed, err = decimal.NewFromString(other); err != nil {
			return nil, fmt.Errorf("run %s: total_other_distributed: %w", r.ID, err)
		}
		if r.MainLedgerAmount, err = decimal.NewFromString(main); err != nil {
			return nil, fmt.Errorf("run %s: main_ledger_amount: %w", r.ID, err)
		}
		if r.CollectedAmount, err = parseNullDecimal(collected); err != nil {
			return nil, fmt.Errorf("run %s: collected_amount: %w", r.ID, err)
		}
		if r.Variance, err = parseNullDecimal(variance); err != nil {
			return nil, fmt.Errorf("run %s: variance: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

/*
store.go - Persistence interfaces for drafts and close runs

PURPOSE:
  The backend is the system of record for shifts. Locally we only keep:
  - Drafts: a suspended shift being edited, saved between form visits
  - Runs: the reconciliation figures computed each time a shift closed

KEY INTERFACES:
  DraftStore: save/load/list/delete drafts, purge idle drafts
  RunLog:     append-only log of close runs

IMPLEMENTATIONS:
  - store/sqlite: SQLite (file or :memory:)
  - store/memory: in-memory, for tests and the CLI

Draft payloads are opaque bytes (the factory wire format), so the store
never needs to follow changes to the shift schema.
*/
package shift

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Draft is a locally saved suspended shift.
type Draft struct {
	ID        string
	StationID StationID
	ShiftID   ShiftID // Empty until the shift exists on the backend
	Label     string
	Payload   []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

type DraftStore interface {
	// SaveDraft inserts or replaces a draft by ID and bumps UpdatedAt.
	SaveDraft(ctx context.Context, d Draft) error

	// GetDraft returns ErrDraftNotFound when the ID is unknown.
	GetDraft(ctx context.Context, id string) (Draft, error)

	// ListDrafts returns a station's drafts, most recently updated first.
	ListDrafts(ctx context.Context, station StationID) ([]Draft, error)

	DeleteDraft(ctx context.Context, id string) error

	// PurgeDraftsBefore deletes drafts not updated since cutoff.
	PurgeDraftsBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Run records the figures of one successful close.
type Run struct {
	ID                    string
	ShiftID               ShiftID
	StationID             StationID
	CashRemaining         decimal.Decimal
	TotalOtherDistributed decimal.Decimal
	MainLedgerAmount      decimal.Decimal
	CollectedAmount       *decimal.Decimal
	Variance              *decimal.Decimal
	Balanced              bool
	ClosedAt              time.Time
}

// RunFromReconciliation builds a Run for a closed shift.
func RunFromReconciliation(id string, s SalesShift, rec Reconciliation, at time.Time) Run {
	return Run{
		ID:                    id,
		ShiftID:               s.ID,
		StationID:             s.StationID,
		CashRemaining:         rec.CashRemaining,
		TotalOtherDistributed: rec.TotalOtherDistributed,
		MainLedgerAmount:      rec.MainLedgerAmount,
		CollectedAmount:       rec.CollectedAmount,
		Variance:              rec.Variance,
		Balanced:              rec.Balanced,
		ClosedAt:              at,
	}
}

// RunLog is append-only.
type RunLog interface {
	RecordRun(ctx context.Context, r Run) error
	ListRuns(ctx context.Context, station StationID) ([]Run, error)
}

// Package memory provides in-memory implementations of shift.DraftStore
// and shift.RunLog.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/fuel-station/shift"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu     sync.RWMutex
	drafts map[string]shift.Draft
	runs   []shift.Run
	now    func() time.Time
}

var (
	_ shift.DraftStore = (*Store)(nil)
	_ shift.RunLog     = (*Store)(nil)
)

func New() *Store {
	return &Store{
		drafts: make(map[string]shift.Draft),
		now:    time.Now,
	}
}

// SetClock replaces the clock used to stamp drafts.
func (m *Store) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SaveDraft inserts or replaces a draft. CreatedAt is kept on replace.
func (m *Store) SaveDraft(_ context.Context, d shift.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	if existing, ok := m.drafts[d.ID]; ok {
		d.CreatedAt = existing.CreatedAt
	} else if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	d.Payload = append([]byte(nil), d.Payload...)
	m.drafts[d.ID] = d
	return nil
}

func (m *Store) GetDraft(_ context.Context, id string) (shift.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.drafts[id]
	if !ok {
		return shift.Draft{}, fmt.Errorf("%w: %s", shift.ErrDraftNotFound, id)
	}
	return d, nil
}

// ListDrafts returns a station's drafts, most recently updated first.
func (m *Store) ListDrafts(_ context.Context, station shift.StationID) ([]shift.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []shift.Draft
	for _, d := range m.drafts {
		if d.StationID == station {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Store) DeleteDraft(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.drafts[id]; !ok {
		return fmt.Errorf("%w: %s", shift.ErrDraftNotFound, id)
	}
	delete(m.drafts, id)
	return nil
}

func (m *Store) PurgeDraftsBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, d := range m.drafts {
		if d.UpdatedAt.Before(cutoff) {
			delete(m.drafts, id)
			n++
		}
	}
	return n, nil
}

// RecordRun appends a close run.
func (m *Store) RecordRun(_ context.Context, r shift.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

// ListRuns returns a station's runs, most recent first.
func (m *Store) ListRuns(_ context.Context, station shift.StationID) ([]shift.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []shift.Run
	for _, r := range m.runs {
		if r.StationID == station {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ClosedAt.After(out[j].ClosedAt)
	})
	return out, nil
}

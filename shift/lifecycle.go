package shift

import (
	"time"
)

// NewShift creates a suspended shift for a station team.
func NewShift(id ShiftID, station StationID, team TeamID, start time.Time) SalesShift {
	return SalesShift{
		ID:         id,
		StationID:  station,
		TeamID:     team,
		ShiftStart: start,
		Status:     StatusSuspended,
	}
}

// Close validates the shift and, when every rule passes, marks it closed
// and stamps ClosedAt. On failure the shift is left untouched.
func Close(s *SalesShift, cat Catalog, opts CloseOptions, now time.Time) (Reconciliation, error) {
	rec, err := ValidateForClose(*s, cat, opts)
	if err != nil {
		return rec, err
	}
	s.Status = StatusClosed
	closedAt := now.UTC()
	s.ClosedAt = &closedAt
	return rec, nil
}

// Reopen returns a closed shift to the suspended state for correction.
func Reopen(s *SalesShift) {
	s.Status = StatusSuspended
	s.ClosedAt = nil
}

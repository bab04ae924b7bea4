/*
scheduler.go - Idle draft sweeper

PURPOSE:
  Periodically deletes locally saved drafts that have not been touched
  for longer than the draft TTL. Drafts are abandoned form state, so
  nothing else ever removes them.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Sweeps once immediately on start
  - A failed sweep is logged and retried on the next tick

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - TTL: Idle time after which a draft is deleted (DRAFT_TTL)
  - Enabled: Whether the sweeper is active (default: true when TTL > 0)

USAGE:
  sweeper := NewDraftSweeper(store, 30*24*time.Hour, logger)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - shift/store.go: DraftStore.PurgeDraftsBefore
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/fuel-station/shift"
)

// DraftSweeper purges idle drafts on a ticker.
type DraftSweeper struct {
	Store         shift.DraftStore
	TTL           time.Duration
	CheckInterval time.Duration
	Enabled       bool

	log    zerolog.Logger
	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewDraftSweeper creates a sweeper. A zero TTL disables it.
func NewDraftSweeper(store shift.DraftStore, ttl time.Duration, logger zerolog.Logger) *DraftSweeper {
	return &DraftSweeper{
		Store:         store,
		TTL:           ttl,
		CheckInterval: 1 * time.Hour,
		Enabled:       ttl > 0,
		log:           logger.With().Str("component", "draft_sweeper").Logger(),
		now:           time.Now,
	}
}

// Start begins the sweeper.
func (ds *DraftSweeper) Start() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if !ds.Enabled {
		ds.log.Info().Msg("disabled, not starting")
		return
	}
	if ds.ticker != nil {
		return
	}

	ds.ticker = time.NewTicker(ds.CheckInterval)
	ds.stop = make(chan struct{})
	ds.wg.Add(1)

	go ds.run()

	ds.log.Info().Dur("interval", ds.CheckInterval).Dur("ttl", ds.TTL).Msg("started")
}

// Stop stops the sweeper and waits for a running sweep to finish.
func (ds *DraftSweeper) Stop() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.ticker != nil {
		ds.ticker.Stop()
		close(ds.stop)
		ds.wg.Wait()
		ds.ticker = nil
		ds.log.Info().Msg("stopped")
	}
}

func (ds *DraftSweeper) run() {
	defer ds.wg.Done()

	// Run immediately on start
	ds.RunNow(context.Background())

	for {
		select {
		case <-ds.ticker.C:
			ds.RunNow(context.Background())
		case <-ds.stop:
			return
		}
	}
}

// RunNow purges drafts idle longer than TTL and returns how many went.
func (ds *DraftSweeper) RunNow(ctx context.Context) int {
	cutoff := ds.now().Add(-ds.TTL)
	n, err := ds.Store.PurgeDraftsBefore(ctx, cutoff)
	if err != nil {
		ds.log.Error().Err(err).Msg("failed to purge drafts")
		return 0
	}
	if n > 0 {
		ds.log.Info().Int("purged", n).Time("cutoff", cutoff).Msg("purged idle drafts")
	}
	return n
}

// NextRunTime returns when the next scheduled sweep will occur.
func (ds *DraftSweeper) NextRunTime() time.Time {
	return ds.now().Add(ds.CheckInterval)
}

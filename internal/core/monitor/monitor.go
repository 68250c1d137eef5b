// Package monitor wires the feed components into one monitoring session per
// robot: a bootstrap that loads passes and backfills their record window,
// then a polling loop that keeps the loaded set fresh.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/feed"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/passes"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/records"
)

const (
	// DefaultPollInterval paces the poll loop when none is configured.
	DefaultPollInterval = 5 * time.Second

	// DefaultPassLimit caps how many recent passes a session loads.
	DefaultPassLimit = 50
)

// Config carries the per-session knobs.
type Config struct {
	RobotID      string
	Filter       records.Filter
	PassLimit    int
	PageSize     int
	PollLimit    int
	PollInterval time.Duration
}

// Stats is a snapshot of the session counters.
type Stats struct {
	Bootstrapped    bool
	PassCount       int
	BackfillRecords int
	BackfillStop    feed.StopReason
	Polls           int
	SkippedPolls    int
	PollErrors      int
	MergedRecords   int
	LastPollAt      time.Time
	LastMergeAt     time.Time
}

// Monitor owns the loaded record set for one robot and keeps it fresh.
type Monitor struct {
	cfg    Config
	store  records.Store
	source passes.Source

	set        *feed.Set
	backfiller *feed.Backfiller
	poller     *feed.Poller

	mu     sync.Mutex
	passes []passes.Pass
	stats  Stats
}

// New builds a monitor for one robot session. Zero config fields fall back
// to package defaults.
func New(store records.Store, source passes.Source, cfg Config) *Monitor {
	if cfg.PassLimit <= 0 {
		cfg.PassLimit = DefaultPassLimit
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = feed.DefaultPageSize
	}
	if cfg.PollLimit <= 0 {
		cfg.PollLimit = feed.DefaultPollLimit
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	set := feed.NewSet()
	return &Monitor{
		cfg:        cfg,
		store:      store,
		source:     source,
		set:        set,
		backfiller: feed.NewBackfiller(store, cfg.Filter, cfg.PageSize),
		poller:     feed.NewPoller(store, cfg.Filter, set, cfg.PollLimit),
	}
}

// Bootstrap loads the recent passes, backfills records back to the earliest
// pass start, and seeds the set. Nothing is committed to the set unless the
// whole bootstrap succeeds, so a failed bootstrap can simply be retried.
func (m *Monitor) Bootstrap(ctx context.Context) error {
	loaded, err := m.source.Passes(ctx, m.cfg.RobotID, m.cfg.PassLimit)
	if err != nil {
		return fmt.Errorf("load passes: %w", err)
	}

	var (
		recs []records.Record
		stop feed.StopReason
	)
	if floor, ok := passes.EarliestStart(loaded); ok {
		recs, stop, err = m.backfiller.Run(ctx, floor)
		if err != nil {
			return err
		}
	} else {
		// No passes yet, so no window to anchor. Seed from a single
		// top-of-feed page so the session still shows arrivals.
		page, err := m.store.Query(ctx, m.cfg.Filter, m.cfg.PollLimit, records.Descending, "")
		if err != nil {
			return fmt.Errorf("seed query: %w", err)
		}
		recs = page.Records
		stop = feed.ReasonHistoryExhausted
	}

	if err := m.set.Init(recs); err != nil {
		return err
	}

	m.mu.Lock()
	m.passes = loaded
	m.stats.Bootstrapped = true
	m.stats.PassCount = len(loaded)
	m.stats.BackfillRecords = len(recs)
	m.stats.BackfillStop = stop
	m.mu.Unlock()

	log.Info().
		Str("robot_id", m.cfg.RobotID).
		Int("passes", len(loaded)).
		Int("records", len(recs)).
		Stringer("stop", stop).
		Msg("session bootstrapped")
	return nil
}

// Poll runs one poll cycle and returns the newly merged records. A cycle
// that overlaps an in-flight one returns feed.ErrPollInFlight and is
// counted as skipped.
func (m *Monitor) Poll(ctx context.Context) ([]records.Record, error) {
	fresh, err := m.poller.Poll(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if errors.Is(err, feed.ErrPollInFlight) {
		m.stats.SkippedPolls++
		return nil, err
	}
	m.stats.Polls++
	m.stats.LastPollAt = time.Now()
	if err != nil {
		m.stats.PollErrors++
		return nil, err
	}
	if len(fresh) > 0 {
		m.stats.MergedRecords += len(fresh)
		m.stats.LastMergeAt = m.stats.LastPollAt
	}
	return fresh, nil
}

// Run polls on the configured interval until ctx is canceled. Bootstrap
// must have succeeded first. Cancellation is the normal way to stop the
// loop and returns nil.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.set.Initialized() {
		return feed.ErrNotInitialized
	}

	log.Info().
		Str("robot_id", m.cfg.RobotID).
		Dur("interval", m.cfg.PollInterval).
		Msg("poll loop started")

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("poll loop stopped")
			return nil
		case <-ticker.C:
			fresh, err := m.Poll(ctx)
			switch {
			case errors.Is(err, feed.ErrPollInFlight):
				log.Debug().Msg("previous poll still in flight, tick skipped")
			case err != nil:
				log.Warn().Err(err).Msg("poll failed")
			case len(fresh) > 0:
				log.Info().
					Int("new", len(fresh)).
					Int("loaded", m.set.Len()).
					Msg("new records merged")
			}
		}
	}
}

// RefreshPasses reloads the pass list without touching the record set.
func (m *Monitor) RefreshPasses(ctx context.Context) ([]passes.Pass, error) {
	loaded, err := m.source.Passes(ctx, m.cfg.RobotID, m.cfg.PassLimit)
	if err != nil {
		return nil, fmt.Errorf("load passes: %w", err)
	}
	m.mu.Lock()
	m.passes = make([]passes.Pass, len(loaded))
	copy(m.passes, loaded)
	m.stats.PassCount = len(loaded)
	m.mu.Unlock()
	return loaded, nil
}

// Records returns the loaded records in display order, most recent first.
func (m *Monitor) Records() []records.Record {
	return m.set.Records()
}

// Passes returns the passes loaded for this session, most recent first.
func (m *Monitor) Passes() []passes.Pass {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]passes.Pass, len(m.passes))
	copy(out, m.passes)
	return out
}

// Pass looks up a loaded pass by id.
func (m *Monitor) Pass(id string) (passes.Pass, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.passes {
		if p.ID == id {
			return p, true
		}
	}
	return passes.Pass{}, false
}

// Stats returns a snapshot of the session counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

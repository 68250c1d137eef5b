package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/records"
)

// DefaultPageSize is the backfill page size when none is configured.
const DefaultPageSize = 50

// StopReason explains why a backfill stopped walking history. It is
// meaningful only when Run returns a nil error.
type StopReason int

const (
	// ReasonBoundaryCrossed means a page reached captures strictly older
	// than the window floor, so every record at or after the floor is in
	// hand.
	ReasonBoundaryCrossed StopReason = iota

	// ReasonHistoryExhausted means the store ran out of records before the
	// floor was reached. The window is covered as far as stored history
	// goes; for a young robot this is the normal outcome, not a failure.
	ReasonHistoryExhausted
)

func (r StopReason) String() string {
	switch r {
	case ReasonBoundaryCrossed:
		return "boundary crossed"
	case ReasonHistoryExhausted:
		return "history exhausted"
	}
	return "unknown"
}

// Backfiller walks record history backward, one page at a time, until the
// window floor is covered or history runs out.
type Backfiller struct {
	store    records.Store
	filter   records.Filter
	pageSize int
}

// NewBackfiller returns a Backfiller over store scoped by filter. A
// non-positive pageSize falls back to DefaultPageSize.
func NewBackfiller(store records.Store, filter records.Filter, pageSize int) *Backfiller {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Backfiller{store: store, filter: filter, pageSize: pageSize}
}

// Run pages backward from the most recent capture, accumulating records
// until the window floor is covered. Pages arrive most recent first, so the
// walk stops at the first page whose oldest capture lies strictly before
// floor; that boundary page is kept whole, its below-floor records included.
// An empty page or an absent cursor ends the walk with ReasonHistoryExhausted.
// A store failure aborts the whole run: no partial result is returned.
func (b *Backfiller) Run(ctx context.Context, floor time.Time) ([]records.Record, StopReason, error) {
	var (
		out    []records.Record
		cursor string
		pages  int
	)
	for {
		page, err := b.store.Query(ctx, b.filter, b.pageSize, records.Descending, cursor)
		if err != nil {
			return nil, 0, fmt.Errorf("backfill page %d: %w", pages+1, err)
		}
		pages++
		if len(page.Records) == 0 {
			log.Debug().Int("pages", pages).Int("records", len(out)).Msg("backfill hit empty page")
			return out, ReasonHistoryExhausted, nil
		}

		out = append(out, page.Records...)
		oldest := oldestCapture(page.Records)
		log.Debug().
			Int("page", pages).
			Int("count", len(page.Records)).
			Time("oldest", oldest).
			Msg("backfill page loaded")

		if oldest.Before(floor) {
			return out, ReasonBoundaryCrossed, nil
		}
		if page.NextCursor == "" {
			return out, ReasonHistoryExhausted, nil
		}
		cursor = page.NextCursor
	}
}

func oldestCapture(recs []records.Record) time.Time {
	oldest := recs[0].CapturedAt
	for _, r := range recs[1:] {
		if r.CapturedAt.Before(oldest) {
			oldest = r.CapturedAt
		}
	}
	return oldest
}

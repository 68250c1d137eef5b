package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/records"
)

// DefaultPollLimit is the poll fetch size when none is configured.
const DefaultPollLimit = 100

// ErrPollInFlight reports a poll attempted while another is still running.
// The attempt makes no store call; the caller waits for the next tick.
var ErrPollInFlight = errors.New("poll already in flight")

// Poller fetches the newest records and folds them into the set. At most one
// poll runs at a time; overlapping calls fail fast with ErrPollInFlight.
type Poller struct {
	store  records.Store
	filter records.Filter
	set    *Set
	limit  int
	mu     sync.Mutex
}

// NewPoller returns a Poller feeding set from store scoped by filter. A
// non-positive limit falls back to DefaultPollLimit.
func NewPoller(store records.Store, filter records.Filter, set *Set, limit int) *Poller {
	if limit <= 0 {
		limit = DefaultPollLimit
	}
	return &Poller{store: store, filter: filter, set: set, limit: limit}
}

// Poll fetches the newest records, no cursor, and merges them into the set.
// It returns the records that were new to the set, newest first. On a store
// failure nothing is merged and the set is left exactly as it was.
func (p *Poller) Poll(ctx context.Context) ([]records.Record, error) {
	if !p.mu.TryLock() {
		return nil, ErrPollInFlight
	}
	defer p.mu.Unlock()

	page, err := p.store.Query(ctx, p.filter, p.limit, records.Descending, "")
	if err != nil {
		return nil, fmt.Errorf("poll query: %w", err)
	}
	fresh, err := p.set.Merge(page.Records)
	if err != nil {
		return nil, err
	}
	if len(fresh) > 0 {
		log.Debug().
			Int("new", len(fresh)).
			Int("loaded", p.set.Len()).
			Msg("poll merged records")
	}
	return fresh, nil
}

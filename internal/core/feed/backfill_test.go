package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/records"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/store/storetest"
)

func TestBackfillStopsAtBoundaryPage(t *testing.T) {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	floor := base.Add(-25 * time.Minute)

	// Page two reaches below the floor; page three must never be fetched.
	pages := [][]records.Record{
		{storetest.Rec("r6", base), storetest.Rec("r5", base.Add(-10*time.Minute))},
		{storetest.Rec("r4", base.Add(-20*time.Minute)), storetest.Rec("r3", base.Add(-30*time.Minute))},
		{storetest.Rec("r2", base.Add(-40*time.Minute)), storetest.Rec("r1", base.Add(-50*time.Minute))},
	}
	store := &storetest.Store{QueryFn: storetest.PagedQuery(pages)}

	got, reason, err := NewBackfiller(store, records.Filter{}, 2).Run(context.Background(), floor)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if reason != ReasonBoundaryCrossed {
		t.Errorf("reason = %v, want %v", reason, ReasonBoundaryCrossed)
	}
	if calls := len(store.QueryCalls()); calls != 2 {
		t.Errorf("store queried %d times, want 2", calls)
	}

	// The boundary page is kept whole: r3 sits below the floor but stays.
	want := []string{"r6", "r5", "r4", "r3"}
	if ids := recordIDs(got); !sameIDs(ids, want) {
		t.Errorf("Run() records = %v, want %v", ids, want)
	}
}

func TestBackfillBoundaryNotCrossedByEqualStamp(t *testing.T) {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	// Oldest capture equals the floor exactly. That does not prove the
	// window is covered, so the walk continues to the next page.
	pages := [][]records.Record{
		{storetest.Rec("r3", base), storetest.Rec("r2", base.Add(-10*time.Minute))},
		{storetest.Rec("r1", base.Add(-20 * time.Minute))},
	}
	store := &storetest.Store{QueryFn: storetest.PagedQuery(pages)}

	got, reason, err := NewBackfiller(store, records.Filter{}, 2).Run(context.Background(), base.Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if calls := len(store.QueryCalls()); calls != 2 {
		t.Errorf("store queried %d times, want 2", calls)
	}
	if reason != ReasonBoundaryCrossed {
		t.Errorf("reason = %v, want %v", reason, ReasonBoundaryCrossed)
	}
	if ids := recordIDs(got); !sameIDs(ids, []string{"r3", "r2", "r1"}) {
		t.Errorf("Run() records = %v", ids)
	}
}

func TestBackfillEmptyStoreTerminates(t *testing.T) {
	store := &storetest.Store{QueryFn: storetest.PagedQuery(nil)}

	got, reason, err := NewBackfiller(store, records.Filter{}, 50).Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if reason != ReasonHistoryExhausted {
		t.Errorf("reason = %v, want %v", reason, ReasonHistoryExhausted)
	}
	if len(got) != 0 {
		t.Errorf("Run() returned %d records from an empty store", len(got))
	}
	if calls := len(store.QueryCalls()); calls != 1 {
		t.Errorf("store queried %d times, want 1", calls)
	}
}

func TestBackfillExhaustsShortHistory(t *testing.T) {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	// History ends (no next cursor) before the floor is reached. Everything
	// stored comes back, flagged as a partial window.
	pages := [][]records.Record{
		{storetest.Rec("r2", base), storetest.Rec("r1", base.Add(-10*time.Minute))},
	}
	store := &storetest.Store{QueryFn: storetest.PagedQuery(pages)}

	got, reason, err := NewBackfiller(store, records.Filter{}, 2).Run(context.Background(), base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if reason != ReasonHistoryExhausted {
		t.Errorf("reason = %v, want %v", reason, ReasonHistoryExhausted)
	}
	if ids := recordIDs(got); !sameIDs(ids, []string{"r2", "r1"}) {
		t.Errorf("Run() records = %v, want [r2 r1]", ids)
	}
}

func TestBackfillDistantFloorWalksAllPages(t *testing.T) {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	pages := [][]records.Record{
		{storetest.Rec("r4", base), storetest.Rec("r3", base.Add(-time.Minute))},
		{storetest.Rec("r2", base.Add(-2 * time.Minute)), storetest.Rec("r1", base.Add(-3 * time.Minute))},
	}
	store := &storetest.Store{QueryFn: storetest.PagedQuery(pages)}

	got, reason, err := NewBackfiller(store, records.Filter{}, 2).Run(context.Background(), base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if reason != ReasonHistoryExhausted {
		t.Errorf("reason = %v, want %v", reason, ReasonHistoryExhausted)
	}
	if len(got) != 4 {
		t.Errorf("Run() returned %d records, want all 4", len(got))
	}
	if calls := len(store.QueryCalls()); calls != 2 {
		t.Errorf("store queried %d times, want 2", calls)
	}
}

func TestBackfillStoreErrorAbortsWholeRun(t *testing.T) {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	paged := storetest.PagedQuery([][]records.Record{
		{storetest.Rec("r2", base)},
		{storetest.Rec("r1", base.Add(-time.Minute))},
	})
	store := &storetest.Store{}
	store.QueryFn = func(ctx context.Context, f records.Filter, limit int, order records.Order, cursor string) (records.Page, error) {
		if cursor != "" {
			return records.Page{}, records.Unavailable("query", errors.New("connection reset"))
		}
		return paged(ctx, f, limit, order, cursor)
	}

	got, _, err := NewBackfiller(store, records.Filter{}, 1).Run(context.Background(), base.Add(-time.Hour))
	if err == nil {
		t.Fatal("Run() error = nil, want store failure")
	}
	if !errors.Is(err, records.ErrStoreUnavailable) {
		t.Errorf("Run() error = %v, want ErrStoreUnavailable", err)
	}
	if got != nil {
		t.Errorf("Run() returned partial records %v on failure", recordIDs(got))
	}
}

func TestBackfillPassesFilterAndPageSizeThrough(t *testing.T) {
	filter := records.Filter{RobotID: "robot-7", MimeTypes: []string{"video/mp4"}}
	store := &storetest.Store{QueryFn: storetest.PagedQuery(nil)}

	_, _, err := NewBackfiller(store, filter, 25).Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	calls := store.QueryCalls()
	if len(calls) != 1 {
		t.Fatalf("store queried %d times, want 1", len(calls))
	}
	call := calls[0]
	if call.Filter.RobotID != "robot-7" {
		t.Errorf("query filter robot = %q, want robot-7", call.Filter.RobotID)
	}
	if call.Limit != 25 {
		t.Errorf("query limit = %d, want 25", call.Limit)
	}
	if call.Order != records.Descending {
		t.Errorf("query order = %v, want descending", call.Order)
	}
	if call.Cursor != "" {
		t.Errorf("first query cursor = %q, want empty", call.Cursor)
	}
}

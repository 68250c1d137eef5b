package notes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/records"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/store/storetest"
	"github.com/nicksanford/sanding-monitoring-web-app/pkg/notewire"
)

var noteBase = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func encodedNote(t *testing.T, passID, text string, createdAt time.Time) []byte {
	t.Helper()
	payload, err := notewire.Encode(notewire.Note{
		PassID:    passID,
		Text:      text,
		CreatedAt: createdAt,
		CreatedBy: CreatedBy,
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return payload
}

func noteRecord(id string, capturedAt time.Time) records.Record {
	return records.Record{
		ID:            id,
		FileName:      id + FileExtension,
		MimeType:      "application/json",
		CapturedAt:    capturedAt,
		ComponentName: ComponentName,
	}
}

func fixtureStore(recs []records.Record, payloads map[string][]byte) *storetest.Store {
	return &storetest.Store{
		QueryFn:    storetest.PagedQuery([][]records.Record{recs}),
		PayloadsFn: storetest.FixedPayloads(payloads),
	}
}

func TestSaveWritesRoutedNote(t *testing.T) {
	store := &storetest.Store{
		WriteFn: func(context.Context, []byte, records.Routing) (string, error) {
			return "rec-1", nil
		},
	}
	s := NewStore(store, "robot-7")
	stamp := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return stamp }

	note, err := s.Save(context.Background(), "pass-1", "belt squeal near the edge", "part-abc")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if note.PassID != "pass-1" || note.Text != "belt squeal near the edge" {
		t.Errorf("Save() note = %+v", note)
	}
	if !note.CreatedAt.Equal(stamp) {
		t.Errorf("CreatedAt = %v, want %v", note.CreatedAt, stamp)
	}
	if note.CreatedBy != CreatedBy {
		t.Errorf("CreatedBy = %q, want %q", note.CreatedBy, CreatedBy)
	}

	writes := store.WriteCalls()
	if len(writes) != 1 {
		t.Fatalf("store saw %d writes, want 1", len(writes))
	}
	routing := writes[0].Routing
	if routing.PartID != "part-abc" {
		t.Errorf("routing part = %q, want part-abc", routing.PartID)
	}
	if routing.ComponentName != ComponentName {
		t.Errorf("routing component = %q, want the note marker", routing.ComponentName)
	}
	if routing.Method != Method {
		t.Errorf("routing method = %q, want %q", routing.Method, Method)
	}
	if routing.FileExtension != FileExtension {
		t.Errorf("routing extension = %q, want %q", routing.FileExtension, FileExtension)
	}

	decoded, err := notewire.Decode(writes[0].Payload)
	if err != nil {
		t.Fatalf("written payload does not decode: %v", err)
	}
	if decoded.Text != note.Text || !decoded.CreatedAt.Equal(stamp) {
		t.Errorf("written payload = %+v, want the saved note", decoded)
	}
}

func TestSaveEmptyTextSupersedes(t *testing.T) {
	store := &storetest.Store{}
	s := NewStore(store, "robot-7")

	note, err := s.Save(context.Background(), "pass-1", "", "part-abc")
	if err != nil {
		t.Fatalf("Save(empty text) error = %v", err)
	}
	if note.Text != "" {
		t.Errorf("note text = %q, want empty", note.Text)
	}
	if writes := store.WriteCalls(); len(writes) != 1 {
		t.Fatalf("store saw %d writes, want 1", len(writes))
	}
}

func TestSaveFailsFastWithoutRouting(t *testing.T) {
	tests := []struct {
		name   string
		passID string
		partID string
	}{
		{name: "missing part id", passID: "pass-1", partID: ""},
		{name: "missing pass id", passID: "", partID: "part-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &storetest.Store{}
			s := NewStore(store, "robot-7")

			_, err := s.Save(context.Background(), tt.passID, "text", tt.partID)
			if !errors.Is(err, records.ErrInvalidArgument) {
				t.Errorf("Save() error = %v, want ErrInvalidArgument", err)
			}
			calls := len(store.WriteCalls()) + len(store.QueryCalls()) + len(store.PayloadCalls())
			if calls != 0 {
				t.Errorf("store saw %d calls, want none before validation", calls)
			}
		})
	}
}

func TestFetchOneReturnsPassNotesNewestFirst(t *testing.T) {
	// Arrival order deliberately scrambled; the creation stamp decides.
	recs := []records.Record{
		noteRecord("n1", noteBase.Add(time.Minute)),
		noteRecord("n3", noteBase.Add(3*time.Minute)),
		noteRecord("n2", noteBase.Add(2*time.Minute)),
	}
	payloads := map[string][]byte{
		"n1": encodedNote(t, "pass-1", "first look", noteBase.Add(time.Minute)),
		"n2": encodedNote(t, "pass-2", "other pass", noteBase.Add(2*time.Minute)),
		"n3": encodedNote(t, "pass-1", "second look", noteBase.Add(3*time.Minute)),
	}
	store := fixtureStore(recs, payloads)
	s := NewStore(store, "robot-7")

	got, err := s.FetchOne(context.Background(), "pass-1")
	if err != nil {
		t.Fatalf("FetchOne() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FetchOne() returned %d notes, want 2", len(got))
	}
	if got[0].Text != "second look" || got[1].Text != "first look" {
		t.Errorf("FetchOne() order = [%q %q], want newest first", got[0].Text, got[1].Text)
	}

	calls := store.QueryCalls()
	if len(calls) != 1 {
		t.Fatalf("store queried %d times, want 1", len(calls))
	}
	if calls[0].Filter.ComponentName != ComponentName {
		t.Errorf("query filter component = %q, want the note marker", calls[0].Filter.ComponentName)
	}
	if calls[0].Filter.RobotID != "robot-7" {
		t.Errorf("query filter robot = %q, want robot-7", calls[0].Filter.RobotID)
	}
}

func TestFetchOneSkipsCorruptPayloads(t *testing.T) {
	recs := []records.Record{
		noteRecord("good-2", noteBase.Add(2*time.Minute)),
		noteRecord("corrupt", noteBase.Add(time.Minute)),
		noteRecord("good-1", noteBase),
	}
	payloads := map[string][]byte{
		"good-2":  encodedNote(t, "pass-1", "later", noteBase.Add(2*time.Minute)),
		"corrupt": []byte("{truncated"),
		"good-1":  encodedNote(t, "pass-1", "earlier", noteBase),
	}
	s := NewStore(fixtureStore(recs, payloads), "robot-7")

	got, err := s.FetchOne(context.Background(), "pass-1")
	if err != nil {
		t.Fatalf("FetchOne() error = %v, one corrupt payload must not fail the batch", err)
	}
	if len(got) != 2 {
		t.Errorf("FetchOne() returned %d notes, want the 2 that decode", len(got))
	}
}

func TestFetchManyReturnsEveryRequestedKey(t *testing.T) {
	recs := []records.Record{noteRecord("n1", noteBase)}
	payloads := map[string][]byte{"n1": encodedNote(t, "p1", "only note", noteBase)}
	s := NewStore(fixtureStore(recs, payloads), "robot-7")

	got, err := s.FetchMany(context.Background(), []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("FetchMany() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FetchMany() returned %d keys, want 2", len(got))
	}
	if notes := got["p1"]; len(notes) != 1 || notes[0].Text != "only note" {
		t.Errorf(`got["p1"] = %+v, want the saved note`, notes)
	}
	notes, present := got["p2"]
	if !present {
		t.Fatal(`got["p2"] missing; every requested key must appear`)
	}
	if notes == nil || len(notes) != 0 {
		t.Errorf(`got["p2"] = %v, want an empty sequence`, notes)
	}
}

func TestFetchManyDropsUnrequestedPasses(t *testing.T) {
	recs := []records.Record{
		noteRecord("n1", noteBase),
		noteRecord("n2", noteBase.Add(time.Minute)),
	}
	payloads := map[string][]byte{
		"n1": encodedNote(t, "p1", "wanted", noteBase),
		"n2": encodedNote(t, "p2", "not asked for", noteBase.Add(time.Minute)),
	}
	s := NewStore(fixtureStore(recs, payloads), "robot-7")

	got, err := s.FetchMany(context.Background(), []string{"p1"})
	if err != nil {
		t.Fatalf("FetchMany() error = %v", err)
	}
	if _, leaked := got["p2"]; leaked {
		t.Error("FetchMany() leaked a pass that was not requested")
	}
}

func TestFetchManyEmptyRequest(t *testing.T) {
	store := &storetest.Store{}
	s := NewStore(store, "robot-7")

	got, err := s.FetchMany(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchMany() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("FetchMany(nil) = %v, want empty mapping", got)
	}
	if calls := len(store.QueryCalls()); calls != 0 {
		t.Errorf("store queried %d times for an empty request, want 0", calls)
	}
}

func TestFetchStoreErrorsAbortTheBatch(t *testing.T) {
	t.Run("query failure", func(t *testing.T) {
		store := &storetest.Store{}
		store.QueryFn = func(context.Context, records.Filter, int, records.Order, string) (records.Page, error) {
			return records.Page{}, records.Unavailable("query", errors.New("dns failure"))
		}
		s := NewStore(store, "robot-7")

		if _, err := s.FetchOne(context.Background(), "p1"); !errors.Is(err, records.ErrStoreUnavailable) {
			t.Errorf("FetchOne() error = %v, want ErrStoreUnavailable", err)
		}
	})

	t.Run("payload failure", func(t *testing.T) {
		store := &storetest.Store{
			QueryFn: storetest.PagedQuery([][]records.Record{{noteRecord("n1", noteBase)}}),
		}
		store.PayloadsFn = func(context.Context, []string) (map[string][]byte, error) {
			return nil, records.Unavailable("payloads", errors.New("stream reset"))
		}
		s := NewStore(store, "robot-7")

		if _, err := s.FetchMany(context.Background(), []string{"p1"}); !errors.Is(err, records.ErrStoreUnavailable) {
			t.Errorf("FetchMany() error = %v, want ErrStoreUnavailable", err)
		}
	})
}

func TestPayloadFanoutResolvesLikeSequential(t *testing.T) {
	// Enough records to spread across several payload chunks.
	const total = 60
	recs := make([]records.Record, 0, total)
	payloads := make(map[string][]byte, total)
	for i := total - 1; i >= 0; i-- {
		id := fmt.Sprintf("n%02d", i)
		stamp := noteBase.Add(time.Duration(i) * time.Minute)
		recs = append(recs, noteRecord(id, stamp))
		payloads[id] = encodedNote(t, "p1", fmt.Sprintf("note %02d", i), stamp)
	}
	store := fixtureStore(recs, payloads)
	s := NewStore(store, "robot-7")

	got, err := s.FetchOne(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FetchOne() error = %v", err)
	}
	if len(got) != total {
		t.Fatalf("FetchOne() returned %d notes, want %d", len(got), total)
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Fatalf("notes out of order at %d: %v after %v", i, got[i].CreatedAt, got[i-1].CreatedAt)
		}
	}
	if calls := store.PayloadCalls(); len(calls) < 2 {
		t.Errorf("payload resolution used %d calls, want a chunked fan-out", len(calls))
	}
}

func TestPayloadFanoutPartialFailureFailsWhole(t *testing.T) {
	const total = 60
	recs := make([]records.Record, 0, total)
	good := make(map[string][]byte, total)
	for i := 0; i < total; i++ {
		id := fmt.Sprintf("n%02d", i)
		recs = append(recs, noteRecord(id, noteBase.Add(time.Duration(i)*time.Minute)))
		good[id] = encodedNote(t, "p1", "fine", noteBase)
	}
	store := &storetest.Store{QueryFn: storetest.PagedQuery([][]records.Record{recs})}
	resolve := storetest.FixedPayloads(good)
	store.PayloadsFn = func(ctx context.Context, ids []string) (map[string][]byte, error) {
		for _, id := range ids {
			if id == "n40" {
				return nil, records.Unavailable("payloads", errors.New("shard offline"))
			}
		}
		return resolve(ctx, ids)
	}
	s := NewStore(store, "robot-7")

	// One failing chunk fails the fetch as a whole, exactly as a
	// sequential resolution would have.
	_, err := s.FetchOne(context.Background(), "p1")
	if !errors.Is(err, records.ErrStoreUnavailable) {
		t.Errorf("FetchOne() error = %v, want ErrStoreUnavailable", err)
	}
}

// liveStore accumulates writes and serves them back through queries,
// imitating the record store's read-after-write behavior.
type liveStore struct {
	mu       sync.Mutex
	seq      int
	recs     []records.Record
	payloads map[string][]byte
}

func newLiveStore() *liveStore {
	return &liveStore{payloads: make(map[string][]byte)}
}

func (l *liveStore) Query(_ context.Context, _ records.Filter, limit int, _ records.Order, _ string) (records.Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]records.Record, len(l.recs))
	copy(out, l.recs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CapturedAt.After(out[j].CapturedAt) })
	if limit < len(out) {
		out = out[:limit]
	}
	return records.Page{Records: out}, nil
}

func (l *liveStore) Payloads(_ context.Context, ids []string) (map[string][]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string][]byte, len(ids))
	for _, id := range ids {
		payload, found := l.payloads[id]
		if !found {
			return nil, fmt.Errorf("payload %s: %w", id, records.ErrNotFound)
		}
		out[id] = payload
	}
	return out, nil
}

func (l *liveStore) Write(_ context.Context, payload []byte, routing records.Routing) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	id := fmt.Sprintf("rec-%03d", l.seq)
	l.recs = append(l.recs, records.Record{
		ID:            id,
		FileName:      id + routing.FileExtension,
		MimeType:      "application/json",
		CapturedAt:    routing.ReceivedAt,
		ComponentName: routing.ComponentName,
	})
	l.payloads[id] = append([]byte{}, payload...)
	return id, nil
}

func TestSaveThenFetchReflectsLatestWrite(t *testing.T) {
	live := newLiveStore()
	s := NewStore(live, "robot-7")
	current := noteBase
	s.now = func() time.Time {
		current = current.Add(time.Minute)
		return current
	}

	ctx := context.Background()
	if _, err := s.Save(ctx, "p1", "first draft", "part-abc"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := s.Save(ctx, "p1", "final word", "part-abc"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	all, err := s.FetchOne(ctx, "p1")
	if err != nil {
		t.Fatalf("FetchOne() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("FetchOne() returned %d notes, want both saves", len(all))
	}
	if all[0].Text != "final word" {
		t.Errorf("newest note = %q, want %q", all[0].Text, "final word")
	}

	effective, ok, err := s.Effective(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("Effective() ok = %v, err = %v", ok, err)
	}
	if effective.Text != "final word" {
		t.Errorf("Effective() text = %q, want %q", effective.Text, "final word")
	}
}

func TestEffectiveUnderClockSkew(t *testing.T) {
	live := newLiveStore()
	s := NewStore(live, "robot-7")

	// A writer with a fast clock saved first; one with a slow clock saved
	// afterward. The stamp governs, so the first save stays effective.
	stamps := []time.Time{noteBase.Add(time.Hour), noteBase}
	texts := []string{"stamped later, written first", "stamped earlier, written second"}
	for i := range stamps {
		s.now = func() time.Time { return stamps[i] }
		if _, err := s.Save(context.Background(), "p1", texts[i], "part-abc"); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	effective, ok, err := s.Effective(context.Background(), "p1")
	if err != nil || !ok {
		t.Fatalf("Effective() ok = %v, err = %v", ok, err)
	}
	if effective.Text != texts[0] {
		t.Errorf("Effective() text = %q, want the later-stamped note", effective.Text)
	}
}

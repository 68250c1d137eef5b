// Package notes stores and aggregates operator notes as append-only record
// payloads keyed by pass id. A note is never edited in place: each save
// writes a new record, and the newest creation stamp governs what a pass's
// note currently says.
package notes

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/records"
	"github.com/nicksanford/sanding-monitoring-web-app/pkg/notewire"
)

// Routing constants for note records. Fetches filter on ComponentName; the
// rest describe the write sink.
const (
	ComponentType = "monitor"
	ComponentName = "sanding-notes"
	Method        = "SaveNote"
	FileExtension = ".json"

	// CreatedBy is the fixed author tag stamped on every note this system
	// writes.
	CreatedBy = "sanding-monitor"
)

const (
	fetchOneLimit  = 200
	fetchManyLimit = 1000

	payloadChunkSize = 25
	payloadWorkers   = 4
)

var (
	// ErrMissingPartID reports a save with no routing part id. A note
	// cannot be addressed to a physical sink without one.
	ErrMissingPartID = fmt.Errorf("%w: missing part id", records.ErrInvalidArgument)

	// ErrMissingPassID reports a save with no pass to attach the note to.
	ErrMissingPassID = fmt.Errorf("%w: missing pass id", records.ErrInvalidArgument)
)

// Store reads and writes notes through the record store. It keeps no note
// cache: every fetch reflects a live query.
type Store struct {
	store   records.Store
	robotID string

	now        func() time.Time
	fetchLimit int
	batchLimit int
}

// NewStore returns a note store over one robot's records.
func NewStore(store records.Store, robotID string) *Store {
	return &Store{
		store:      store,
		robotID:    robotID,
		now:        time.Now,
		fetchLimit: fetchOneLimit,
		batchLimit: fetchManyLimit,
	}
}

// Save appends a new note for passID, stamped with the wall clock at call
// time, and routes it to the robot part identified by partID. An empty text
// is a valid save: it supersedes earlier text for display while destroying
// nothing. A missing partID fails before any store call.
func (s *Store) Save(ctx context.Context, passID, text, partID string) (notewire.Note, error) {
	if partID == "" {
		return notewire.Note{}, ErrMissingPartID
	}
	if passID == "" {
		return notewire.Note{}, ErrMissingPassID
	}

	note := notewire.Note{
		PassID:    passID,
		Text:      text,
		CreatedAt: s.now(),
		CreatedBy: CreatedBy,
	}
	payload, err := notewire.Encode(note)
	if err != nil {
		return notewire.Note{}, fmt.Errorf("encode note: %w", err)
	}

	recordID, err := s.store.Write(ctx, payload, records.Routing{
		PartID:        partID,
		ComponentType: ComponentType,
		ComponentName: ComponentName,
		Method:        Method,
		FileExtension: FileExtension,
		RequestedAt:   note.CreatedAt,
		ReceivedAt:    note.CreatedAt,
		Tags:          []string{"note"},
	})
	if err != nil {
		return notewire.Note{}, fmt.Errorf("write note: %w", err)
	}

	log.Debug().
		Str("pass_id", passID).
		Str("record_id", recordID).
		Bool("empty", text == "").
		Msg("note saved")
	return note, nil
}

// FetchOne returns every note recorded for passID, newest first. Callers
// wanting only the effective value pick the first entry, or use Effective.
func (s *Store) FetchOne(ctx context.Context, passID string) ([]notewire.Note, error) {
	all, err := s.fetchDecoded(ctx, s.fetchLimit)
	if err != nil {
		return nil, err
	}
	var out []notewire.Note
	for _, n := range all {
		if n.PassID == passID {
			out = append(out, n)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// FetchMany returns the notes for every requested pass id from one query.
// Every requested id is a key in the result; ids with no notes map to an
// empty sequence. Notes for passes that were not asked about are dropped.
func (s *Store) FetchMany(ctx context.Context, passIDs []string) (map[string][]notewire.Note, error) {
	out := make(map[string][]notewire.Note, len(passIDs))
	for _, id := range passIDs {
		out[id] = []notewire.Note{}
	}
	if len(passIDs) == 0 {
		return out, nil
	}

	all, err := s.fetchDecoded(ctx, s.batchLimit)
	if err != nil {
		return nil, err
	}
	for _, n := range all {
		bucket, wanted := out[n.PassID]
		if !wanted {
			continue
		}
		out[n.PassID] = append(bucket, n)
	}
	for id := range out {
		sortNewestFirst(out[id])
	}
	return out, nil
}

// Effective returns the governing note for passID: the one with the newest
// creation stamp. ok is false when the pass has no notes at all.
func (s *Store) Effective(ctx context.Context, passID string) (notewire.Note, bool, error) {
	all, err := s.FetchOne(ctx, passID)
	if err != nil {
		return notewire.Note{}, false, err
	}
	n, ok := notewire.Latest(all)
	return n, ok, nil
}

// fetchDecoded queries up to limit note records and decodes their payloads.
// A payload that fails to decode is logged and dropped without disturbing
// the rest of the batch; a store failure fails the whole fetch.
func (s *Store) fetchDecoded(ctx context.Context, limit int) ([]notewire.Note, error) {
	filter := records.Filter{RobotID: s.robotID, ComponentName: ComponentName}
	page, err := s.store.Query(ctx, filter, limit, records.Descending, "")
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	if len(page.Records) == 0 {
		return nil, nil
	}

	ids := make([]string, len(page.Records))
	for i, r := range page.Records {
		ids[i] = r.ID
	}
	payloads, err := s.payloads(ctx, ids)
	if err != nil {
		return nil, err
	}

	notes := make([]notewire.Note, 0, len(page.Records))
	for _, r := range page.Records {
		note, err := notewire.Decode(payloads[r.ID])
		if err != nil {
			log.Warn().
				Str("record_id", r.ID).
				Err(err).
				Msg("skipping undecodable note payload")
			continue
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// payloads resolves record payloads in bounded-concurrency chunks. Results
// are keyed by record id, so reassembly never depends on completion order.
// Any chunk failure fails the resolution as a whole.
func (s *Store) payloads(ctx context.Context, ids []string) (map[string][]byte, error) {
	chunks := chunkIDs(ids, payloadChunkSize)
	results := make([]map[string][]byte, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(payloadWorkers)
	for i, chunk := range chunks {
		g.Go(func() error {
			m, err := s.store.Payloads(gctx, chunk)
			if err != nil {
				return fmt.Errorf("fetch note payloads: %w", err)
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string][]byte, len(ids))
	for _, m := range results {
		for id, payload := range m {
			merged[id] = payload
		}
	}
	return merged, nil
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

func sortNewestFirst(notes []notewire.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
}

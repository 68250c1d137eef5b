// Package storetest provides hand-rolled fakes for the record store and
// pass source boundaries, with per-call scripting and call recording.
package storetest

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/passes"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/records"
)

// QueryCall records one Query invocation.
type QueryCall struct {
	Filter records.Filter
	Limit  int
	Order  records.Order
	Cursor string
}

// WriteCall records one Write invocation.
type WriteCall struct {
	Payload []byte
	Routing records.Routing
}

// Store is a scriptable records.Store. Set the Fn fields to script behavior;
// unset functions return zero values. Every call is recorded.
type Store struct {
	QueryFn    func(ctx context.Context, filter records.Filter, limit int, order records.Order, cursor string) (records.Page, error)
	PayloadsFn func(ctx context.Context, ids []string) (map[string][]byte, error)
	WriteFn    func(ctx context.Context, payload []byte, routing records.Routing) (string, error)

	mu           sync.Mutex
	queryCalls   []QueryCall
	payloadCalls [][]string
	writeCalls   []WriteCall
}

func (s *Store) Query(ctx context.Context, filter records.Filter, limit int, order records.Order, cursor string) (records.Page, error) {
	s.mu.Lock()
	s.queryCalls = append(s.queryCalls, QueryCall{Filter: filter, Limit: limit, Order: order, Cursor: cursor})
	s.mu.Unlock()
	if s.QueryFn == nil {
		return records.Page{}, nil
	}
	return s.QueryFn(ctx, filter, limit, order, cursor)
}

func (s *Store) Payloads(ctx context.Context, ids []string) (map[string][]byte, error) {
	s.mu.Lock()
	s.payloadCalls = append(s.payloadCalls, append([]string{}, ids...))
	s.mu.Unlock()
	if s.PayloadsFn == nil {
		return map[string][]byte{}, nil
	}
	return s.PayloadsFn(ctx, ids)
}

func (s *Store) Write(ctx context.Context, payload []byte, routing records.Routing) (string, error) {
	s.mu.Lock()
	s.writeCalls = append(s.writeCalls, WriteCall{Payload: append([]byte{}, payload...), Routing: routing})
	s.mu.Unlock()
	if s.WriteFn == nil {
		return "", nil
	}
	return s.WriteFn(ctx, payload, routing)
}

// QueryCalls returns the recorded Query invocations in order.
func (s *Store) QueryCalls() []QueryCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]QueryCall{}, s.queryCalls...)
}

// PayloadCalls returns the id lists passed to Payloads, in call order.
func (s *Store) PayloadCalls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string{}, s.payloadCalls...)
}

// WriteCalls returns the recorded Write invocations in order.
func (s *Store) WriteCalls() []WriteCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]WriteCall{}, s.writeCalls...)
}

// PagedQuery builds a QueryFn that serves pages in sequence using numeric
// cursors, ignoring filter and limit. The final page carries no next cursor.
func PagedQuery(pages [][]records.Record) func(context.Context, records.Filter, int, records.Order, string) (records.Page, error) {
	return func(_ context.Context, _ records.Filter, _ int, _ records.Order, cursor string) (records.Page, error) {
		idx := 0
		if cursor != "" {
			n, err := strconv.Atoi(cursor)
			if err != nil {
				return records.Page{}, fmt.Errorf("unexpected cursor %q", cursor)
			}
			idx = n
		}
		if idx >= len(pages) {
			return records.Page{}, nil
		}
		page := records.Page{Records: pages[idx]}
		if idx+1 < len(pages) {
			page.NextCursor = strconv.Itoa(idx + 1)
		}
		return page, nil
	}
}

// FixedPayloads builds a PayloadsFn serving from a static map. Unknown ids
// fail with records.ErrNotFound.
func FixedPayloads(byID map[string][]byte) func(context.Context, []string) (map[string][]byte, error) {
	return func(_ context.Context, ids []string) (map[string][]byte, error) {
		out := make(map[string][]byte, len(ids))
		for _, id := range ids {
			payload, found := byID[id]
			if !found {
				return nil, fmt.Errorf("payload %s: %w", id, records.ErrNotFound)
			}
			out[id] = payload
		}
		return out, nil
	}
}

// PassSource is a scriptable passes.Source.
type PassSource struct {
	PassesFn func(ctx context.Context, robotID string, limit int) ([]passes.Pass, error)
}

func (s *PassSource) Passes(ctx context.Context, robotID string, limit int) ([]passes.Pass, error) {
	if s.PassesFn == nil {
		return nil, nil
	}
	return s.PassesFn(ctx, robotID, limit)
}

// Rec builds a minimal video record for tests.
func Rec(id string, capturedAt time.Time) records.Record {
	return records.Record{
		ID:         id,
		FileName:   id + ".mp4",
		MimeType:   "video/mp4",
		CapturedAt: capturedAt,
	}
}

package records

import "context"

// Order is a sort direction over capture time.
type Order int

const (
	// Descending returns the most recently captured records first.
	Descending Order = iota
	// Ascending returns the oldest records first.
	Ascending
)

func (o Order) String() string {
	if o == Ascending {
		return "ascending"
	}
	return "descending"
}

// Store is the boundary to the record store. Cursors are opaque tokens that
// callers round-trip unchanged. Implementations do not retry; retry policy
// belongs to whoever holds the Store.
type Store interface {
	// Query returns up to limit records matching filter in the given order,
	// resuming after cursor when cursor is non-empty.
	Query(ctx context.Context, filter Filter, limit int, order Order, cursor string) (Page, error)

	// Payloads resolves the binary payloads for the given record ids. The
	// result maps id to payload and covers every requested id, or the call
	// fails as a whole.
	Payloads(ctx context.Context, ids []string) (map[string][]byte, error)

	// Write stores payload under the given routing metadata and returns the
	// new record's id.
	Write(ctx context.Context, payload []byte, routing Routing) (string, error)
}

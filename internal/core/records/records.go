// Package records defines the capture record model and the boundary to the
// record store that holds them.
package records

import (
	"strings"
	"time"
)

// Record is a single binary capture landed in the record store by the
// robot's data agent: a pass video, a snapshot, or any other file.
type Record struct {
	ID            string
	FileName      string
	MimeType      string
	Size          int64
	CapturedAt    time.Time
	ComponentName string
	Method        string
}

// IsVideo reports whether the record's MIME type marks it as video content.
func (r Record) IsVideo() bool {
	return strings.HasPrefix(r.MimeType, "video/")
}

// Filter narrows a query to one robot's captures. Empty fields are not
// applied.
type Filter struct {
	RobotID       string
	ComponentName string
	MimeTypes     []string
}

// Page is one page of query results. An empty NextCursor means the store
// holds no further records for the query.
type Page struct {
	Records    []Record
	NextCursor string
}

// Routing carries the sink metadata for a record write: which robot part the
// payload files under and how it is categorized for later queries.
type Routing struct {
	PartID        string
	ComponentType string
	ComponentName string
	Method        string
	FileExtension string
	RequestedAt   time.Time
	ReceivedAt    time.Time
	Tags          []string
}

// Package notewire encodes and decodes operator notes in the JSON payload
// format stored in the record store: one UTF-8 object per note carrying the
// fields pass_id, note_text, created_at, and created_by.
package notewire

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPayload marks a payload that cannot be decoded as a note.
// Callers skip the offending record rather than fail the batch it arrived in.
var ErrInvalidPayload = errors.New("invalid note payload")

// Note is one operator note attached to a sanding pass. Notes are append
// only: an edit writes a new Note and the latest CreatedAt stamp governs.
type Note struct {
	PassID    string
	Text      string
	CreatedAt time.Time
	CreatedBy string
}

type wireNote struct {
	PassID    string `json:"pass_id"`
	Text      string `json:"note_text"`
	CreatedAt string `json:"created_at"`
	CreatedBy string `json:"created_by"`
}

// Encode renders n as its JSON payload. CreatedAt is written as RFC 3339
// normalized to UTC. An empty Text is a valid note (it supersedes earlier
// text with nothing); an empty PassID is not.
func Encode(n Note) ([]byte, error) {
	if n.PassID == "" {
		return nil, fmt.Errorf("%w: missing pass_id", ErrInvalidPayload)
	}
	data, err := json.Marshal(wireNote{
		PassID:    n.PassID,
		Text:      n.Text,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
		CreatedBy: n.CreatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("encode note: %w", err)
	}
	return data, nil
}

// Decode parses a single note payload. Unknown fields are ignored so current
// readers keep working if the format grows new fields. A payload that is not
// a JSON object, lacks pass_id, or carries an unparseable created_at fails
// with ErrInvalidPayload.
func Decode(payload []byte) (Note, error) {
	var w wireNote
	if err := json.Unmarshal(payload, &w); err != nil {
		return Note{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if w.PassID == "" {
		return Note{}, fmt.Errorf("%w: missing pass_id", ErrInvalidPayload)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return Note{}, fmt.Errorf("%w: bad created_at %q", ErrInvalidPayload, w.CreatedAt)
	}
	return Note{
		PassID:    w.PassID,
		Text:      w.Text,
		CreatedAt: createdAt,
		CreatedBy: w.CreatedBy,
	}, nil
}

// Latest returns the governing note among notes: the one with the greatest
// CreatedAt stamp, regardless of slice order. Arrival order never matters;
// only the stamp does. ok is false when notes is empty.
func Latest(notes []Note) (latest Note, ok bool) {
	if len(notes) == 0 {
		return Note{}, false
	}
	latest = notes[0]
	for _, n := range notes[1:] {
		if n.CreatedAt.After(latest.CreatedAt) {
			latest = n
		}
	}
	return latest, true
}

package sqlitestore

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Cursors encode the keyset position (captured_at, id) of the last row of a
// page. Callers treat them as opaque strings.

func encodeCursor(nanos int64, id string) string {
	raw := strconv.FormatInt(nanos, 10) + "|" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (int64, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, "", fmt.Errorf("decode cursor: %w", err)
	}
	pos, id, found := strings.Cut(string(raw), "|")
	if !found {
		return 0, "", fmt.Errorf("decode cursor: missing separator")
	}
	nanos, err := strconv.ParseInt(pos, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("decode cursor: %w", err)
	}
	return nanos, id, nil
}

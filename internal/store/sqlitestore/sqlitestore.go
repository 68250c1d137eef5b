// Package sqlitestore backs the record store and pass source boundaries
// with a local sqlite database, for development and offline review of a
// robot's captures. It serves one robot per database: the robot id used in
// query filters and the part id used to route writes address the same
// column.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/passes"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/records"
)

// Store is a sqlite-backed record store and pass source.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn, path: path}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		robot_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		captured_at INTEGER NOT NULL,
		component_name TEXT NOT NULL DEFAULT '',
		method TEXT NOT NULL DEFAULT '',
		payload BLOB
	);

	CREATE INDEX IF NOT EXISTS idx_records_captured
		ON records(robot_id, captured_at DESC, id DESC);

	CREATE INDEX IF NOT EXISTS idx_records_component
		ON records(robot_id, component_name);

	CREATE TABLE IF NOT EXISTS passes (
		id TEXT PRIMARY KEY,
		robot_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		document TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_passes_started
		ON passes(robot_id, started_at DESC);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Query returns a page of capture rows matching filter, keyset-paginated on
// (captured_at, id). The returned cursor is opaque to callers and only
// present while more rows exist.
func (s *Store) Query(ctx context.Context, filter records.Filter, limit int, order records.Order, cursor string) (records.Page, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		where []string
		args  []any
	)
	if filter.RobotID != "" {
		where = append(where, "robot_id = ?")
		args = append(args, filter.RobotID)
	}
	if filter.ComponentName != "" {
		where = append(where, "component_name = ?")
		args = append(args, filter.ComponentName)
	}
	if len(filter.MimeTypes) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.MimeTypes)), ",")
		where = append(where, "mime_type IN ("+placeholders+")")
		for _, m := range filter.MimeTypes {
			args = append(args, m)
		}
	}

	cmp, dir := "<", "DESC"
	if order == records.Ascending {
		cmp, dir = ">", "ASC"
	}
	if cursor != "" {
		nanos, id, err := decodeCursor(cursor)
		if err != nil {
			return records.Page{}, fmt.Errorf("%w: malformed cursor", records.ErrInvalidArgument)
		}
		where = append(where, fmt.Sprintf("(captured_at %s ? OR (captured_at = ? AND id %s ?))", cmp, cmp))
		args = append(args, nanos, nanos, id)
	}

	query := "SELECT id, robot_id, file_name, mime_type, size, captured_at, component_name, method FROM records"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY captured_at %s, id %s LIMIT ?", dir, dir)
	// Fetch one extra row to learn whether a next page exists.
	args = append(args, limit+1)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return records.Page{}, records.Unavailable("query", err)
	}
	defer rows.Close()

	var recs []records.Record
	for rows.Next() {
		var (
			r     records.Record
			robot string
			nanos int64
		)
		if err := rows.Scan(&r.ID, &robot, &r.FileName, &r.MimeType, &r.Size, &nanos, &r.ComponentName, &r.Method); err != nil {
			return records.Page{}, records.Unavailable("query", err)
		}
		r.CapturedAt = time.Unix(0, nanos).UTC()
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return records.Page{}, records.Unavailable("query", err)
	}

	page := records.Page{Records: recs}
	if len(recs) > limit {
		page.Records = recs[:limit]
		last := page.Records[limit-1]
		page.NextCursor = encodeCursor(last.CapturedAt.UnixNano(), last.ID)
	}
	return page, nil
}

// Payloads resolves payload bytes for the given record ids. Every requested
// id must exist; an unknown id fails the call with records.ErrNotFound.
func (s *Store) Payloads(ctx context.Context, ids []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.conn.QueryContext(ctx, "SELECT id, payload FROM records WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, records.Unavailable("payloads", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, records.Unavailable("payloads", err)
		}
		out[id] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, records.Unavailable("payloads", err)
	}

	for _, id := range ids {
		if _, found := out[id]; !found {
			return nil, fmt.Errorf("payload %s: %w", id, records.ErrNotFound)
		}
	}
	return out, nil
}

// Write stores payload as a new record under the given routing metadata and
// returns the generated record id.
func (s *Store) Write(ctx context.Context, payload []byte, routing records.Routing) (string, error) {
	if routing.PartID == "" {
		return "", fmt.Errorf("%w: missing part id", records.ErrInvalidArgument)
	}

	receivedAt := routing.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	id := uuid.NewString()
	fileName := fmt.Sprintf("%s-%s%s", routing.ComponentName, receivedAt.UTC().Format("20060102-150405.000"), routing.FileExtension)

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO records (id, robot_id, file_name, mime_type, size, captured_at, component_name, method, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, routing.PartID, fileName, mimeForExtension(routing.FileExtension), len(payload),
		receivedAt.UnixNano(), routing.ComponentName, routing.Method, payload,
	)
	if err != nil {
		return "", records.Unavailable("write", err)
	}
	return id, nil
}

// Passes returns the robot's most recent pass documents, newest first. A
// row whose document no longer parses is logged and skipped.
func (s *Store) Passes(ctx context.Context, robotID string, limit int) ([]passes.Pass, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.conn.QueryContext(ctx,
		"SELECT document FROM passes WHERE robot_id = ? ORDER BY started_at DESC LIMIT ?",
		robotID, limit,
	)
	if err != nil {
		return nil, records.Unavailable("passes", err)
	}
	defer rows.Close()

	var out []passes.Pass
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, records.Unavailable("passes", err)
		}
		var p passes.Pass
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			log.Warn().Err(err).Msg("skipping unreadable pass document")
			continue
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, records.Unavailable("passes", err)
	}
	return out, nil
}

// AddRecord inserts a capture row directly. The seeder and tests use it to
// stand in for the robot's data agent.
func (s *Store) AddRecord(ctx context.Context, robotID string, rec records.Record, payload []byte) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO records (id, robot_id, file_name, mime_type, size, captured_at, component_name, method, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, robotID, rec.FileName, rec.MimeType, rec.Size,
		rec.CapturedAt.UnixNano(), rec.ComponentName, rec.Method, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// AddPass inserts a pass reading document.
func (s *Store) AddPass(ctx context.Context, robotID string, p passes.Pass) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode pass document: %w", err)
	}
	_, err = s.conn.ExecContext(ctx,
		"INSERT INTO passes (id, robot_id, started_at, document) VALUES (?, ?, ?, ?)",
		p.ID, robotID, p.Start.UnixNano(), string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pass: %w", err)
	}
	return nil
}

func mimeForExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".json":
		return "application/json"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

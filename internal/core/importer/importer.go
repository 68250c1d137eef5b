// Package importer loads pass documents exported by the robot into the
// local record store. It accepts a JSON array of documents or JSONL with
// one document per line.
package importer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/passes"
)

// maxLineBytes bounds a single JSONL document; step lists are small.
const maxLineBytes = 1 << 20

// dedupeLimit caps how much history is loaded to detect re-imports.
const dedupeLimit = 10000

// Store is the slice of the record store the importer writes through.
type Store interface {
	Passes(ctx context.Context, robotID string, limit int) ([]passes.Pass, error)
	AddPass(ctx context.Context, robotID string, p passes.Pass) error
}

// Result counts what one import run did.
type Result struct {
	Imported int
	Skipped  int // already present
	Invalid  int // documents that failed to parse or validate
}

type Importer struct {
	store Store
}

func New(store Store) *Importer {
	return &Importer{store: store}
}

// ImportFile reads pass documents from path and inserts the ones not
// already in the store. Broken documents are skipped and logged, not
// fatal.
func (i *Importer) ImportFile(ctx context.Context, path, robotID string) (Result, error) {
	var result Result

	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("failed to read %s: %w", path, err)
	}

	docs, invalid := parseDocuments(data)
	result.Invalid = invalid

	existing, err := i.store.Passes(ctx, robotID, dedupeLimit)
	if err != nil {
		return result, fmt.Errorf("failed to load existing passes: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.ID] = true
	}

	for _, p := range docs {
		if err := validate(p); err != nil {
			log.Warn().Str("pass_id", p.ID).Err(err).Msg("skipping invalid pass document")
			result.Invalid++
			continue
		}
		if seen[p.ID] {
			result.Skipped++
			continue
		}
		if err := i.store.AddPass(ctx, robotID, p); err != nil {
			return result, fmt.Errorf("failed to import pass %s: %w", p.ID, err)
		}
		seen[p.ID] = true
		result.Imported++
	}

	log.Info().
		Str("path", path).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("invalid", result.Invalid).
		Msg("pass import finished")
	return result, nil
}

// parseDocuments accepts either a JSON array or JSONL. Unparseable lines
// count as invalid instead of failing the batch.
func parseDocuments(data []byte) ([]passes.Pass, int) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var docs []passes.Pass
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			log.Warn().Err(err).Msg("failed to parse pass document array")
			return nil, 1
		}
		return docs, 0
	}

	var (
		docs    []passes.Pass
		invalid int
	)
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var p passes.Pass
		if err := json.Unmarshal(line, &p); err != nil {
			log.Warn().Err(err).Msg("skipping unparseable pass document line")
			invalid++
			continue
		}
		docs = append(docs, p)
	}
	return docs, invalid
}

func validate(p passes.Pass) error {
	if p.ID == "" {
		return fmt.Errorf("missing pass id")
	}
	if p.Start.IsZero() {
		return fmt.Errorf("missing start time")
	}
	if p.End.Before(p.Start) {
		return fmt.Errorf("end precedes start")
	}
	return nil
}

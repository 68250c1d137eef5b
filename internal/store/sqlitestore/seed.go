package sqlitestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/passes"
)

// Seed populates the store with a demo history for robotID: sanding passes
// with stepped videos and a few snapshots, spread over the last passCount
// hours. Everything lands in one transaction. Ids are deterministic, so a
// database can only be seeded once; start from a fresh file to reseed.
func (s *Store) Seed(ctx context.Context, robotID string, passCount int) error {
	if passCount <= 0 {
		passCount = 6
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stepNames := []string{"approach", "rough", "finish", "retract"}
	firstStart := time.Now().UTC().Add(-time.Duration(passCount) * time.Hour).Truncate(time.Minute)

	captures := 0
	for i := 0; i < passCount; i++ {
		p := passes.Pass{
			ID:      fmt.Sprintf("pass-%03d", i+1),
			Start:   firstStart.Add(time.Duration(i) * time.Hour),
			Success: (i+1)%4 != 0,
		}
		cursor := p.Start
		for _, name := range stepNames {
			step := passes.Step{
				Name:  name,
				Start: cursor,
				End:   cursor.Add(time.Duration(2+len(name)%3) * time.Minute),
			}
			p.Steps = append(p.Steps, step)
			cursor = step.End
		}
		p.End = cursor
		if !p.Success {
			p.ErrString = "belt stall during finish step"
		}

		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode pass document: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO passes (id, robot_id, started_at, document) VALUES (?, ?, ?, ?)",
			p.ID, robotID, p.Start.UnixNano(), string(doc),
		); err != nil {
			return fmt.Errorf("failed to seed pass %s: %w", p.ID, err)
		}

		// One clip per step, captured mid-step.
		for _, step := range p.Steps {
			capturedAt := step.Start.Add(step.End.Sub(step.Start) / 2)
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO records (id, robot_id, file_name, mime_type, size, captured_at, component_name, method, payload)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
				uuid.NewString(), robotID,
				fmt.Sprintf("%s-%s.mp4", p.ID, step.Name), "video/mp4",
				int64(12+captures%9)<<20, capturedAt.UnixNano(),
				"sander-cam", "CaptureVideo",
			); err != nil {
				return fmt.Errorf("failed to seed video for %s: %w", p.ID, err)
			}
			captures++
		}

		// A still of the finished surface after every other pass.
		if i%2 == 1 {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO records (id, robot_id, file_name, mime_type, size, captured_at, component_name, method, payload)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
				uuid.NewString(), robotID,
				fmt.Sprintf("%s-surface.jpg", p.ID), "image/jpeg",
				int64(2+captures%3)<<20, p.End.Add(30*time.Second).UnixNano(),
				"sander-cam", "ReadImage",
			); err != nil {
				return fmt.Errorf("failed to seed snapshot for %s: %w", p.ID, err)
			}
			captures++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}

	log.Info().
		Str("robot_id", robotID).
		Int("passes", passCount).
		Int("captures", captures).
		Msg("seeded demo history")
	return nil
}

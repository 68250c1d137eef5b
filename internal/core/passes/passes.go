// Package passes models sanding pass runs and the tabular boundary that
// serves their per-pass reading documents.
package passes

import (
	"context"
	"time"
)

// Step is one phase of a sanding pass, bounded by its own start and end.
type Step struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Pass is one recorded sanding run, decoded from the robot's pass reading
// documents. ErrString is empty for successful runs.
type Pass struct {
	ID        string    `json:"pass_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Success   bool      `json:"success"`
	ErrString string    `json:"err_string,omitempty"`
	Steps     []Step    `json:"steps"`
}

// Duration is the wall-clock span of the pass.
func (p Pass) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Source reads recent pass documents for a robot, most recent first. The
// documents are written by the robot control code; this side only reads.
type Source interface {
	Passes(ctx context.Context, robotID string, limit int) ([]Pass, error)
}

// EarliestStart returns the smallest Start among passes. ok is false when
// passes is empty and there is no boundary to backfill toward.
func EarliestStart(passes []Pass) (time.Time, bool) {
	if len(passes) == 0 {
		return time.Time{}, false
	}
	earliest := passes[0].Start
	for _, p := range passes[1:] {
		if p.Start.Before(earliest) {
			earliest = p.Start
		}
	}
	return earliest, true
}

// Package correlate matches pass steps to the videos captured while they
// ran. Matching is recomputed from the loaded records on demand; nothing is
// indexed or cached.
package correlate

import (
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/passes"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/records"
)

// StepVideos pairs one pass step with the videos captured during it.
type StepVideos struct {
	Step   passes.Step
	Videos []records.Record
}

// VideosForStep returns the video records captured within the step's span.
// Both endpoints count: a capture stamped exactly at the step's start or end
// belongs to the step. Non-video records never match.
func VideosForStep(step passes.Step, recs []records.Record) []records.Record {
	var out []records.Record
	for _, r := range recs {
		if !r.IsVideo() {
			continue
		}
		if r.CapturedAt.Before(step.Start) || r.CapturedAt.After(step.End) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ForPass groups the loaded records under the pass's steps, in step order.
// Steps with no matching videos still appear, with an empty video list.
func ForPass(p passes.Pass, recs []records.Record) []StepVideos {
	out := make([]StepVideos, 0, len(p.Steps))
	for _, step := range p.Steps {
		out = append(out, StepVideos{Step: step, Videos: VideosForStep(step, recs)})
	}
	return out
}

// VideoCount sums the matched videos across steps.
func VideoCount(stepVideos []StepVideos) int {
	total := 0
	for _, sv := range stepVideos {
		total += len(sv.Videos)
	}
	return total
}

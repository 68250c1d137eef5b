// Package report renders a sanding pass, its correlated step videos, and
// its notes as a markdown document.
package report

import (
	"fmt"
	"time"

	"github.com/cbroglie/mustache"
	"github.com/dustin/go-humanize"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/correlate"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/passes"
	"github.com/nicksanford/sanding-monitoring-web-app/pkg/notewire"
)

const timeLayout = "2006-01-02 15:04:05 MST"

const passTemplate = `# Sanding pass {{pass_id}}

- Started: {{started}}
- Finished: {{finished}} ({{duration}})
- Outcome: {{#success}}success{{/success}}{{#failed}}FAILED{{/failed}}{{#has_err}} ({{err_string}}){{/has_err}}

## Steps

{{#steps}}
### {{name}} ({{span}})

{{#videos}}
- {{file_name}} ({{size}}, captured {{captured}})
{{/videos}}
{{^videos}}
- no video captured
{{/videos}}

{{/steps}}
## Note

{{#has_note}}{{note_text}} ({{note_by}}, {{note_at}}){{/has_note}}{{#note_cleared}}(cleared){{/note_cleared}}{{#no_note}}none{{/no_note}}

{{#has_history}}
## History

{{#history}}
- {{created_at}} {{created_by}}: {{text}}
{{/history}}
{{/has_history}}`

// Render produces the markdown report for one pass. Notes are expected
// newest first, the way the note store returns them.
func Render(p passes.Pass, stepVideos []correlate.StepVideos, notes []notewire.Note) (string, error) {
	steps := make([]map[string]interface{}, 0, len(stepVideos))
	for _, sv := range stepVideos {
		videos := make([]map[string]interface{}, 0, len(sv.Videos))
		for _, v := range sv.Videos {
			videos = append(videos, map[string]interface{}{
				"file_name": v.FileName,
				"size":      humanize.Bytes(uint64(v.Size)),
				"captured":  v.CapturedAt.UTC().Format(timeLayout),
			})
		}
		steps = append(steps, map[string]interface{}{
			"name":   sv.Step.Name,
			"span":   fmt.Sprintf("%s to %s", sv.Step.Start.UTC().Format(timeLayout), sv.Step.End.UTC().Format(timeLayout)),
			"videos": videos,
		})
	}

	history := make([]map[string]interface{}, 0, len(notes))
	for _, n := range notes {
		text := n.Text
		if text == "" {
			text = "(cleared)"
		}
		history = append(history, map[string]interface{}{
			"created_at": n.CreatedAt.UTC().Format(timeLayout),
			"created_by": n.CreatedBy,
			"text":       text,
		})
	}

	latest, hasLatest := notewire.Latest(notes)

	data := map[string]interface{}{
		"pass_id":      p.ID,
		"started":      p.Start.UTC().Format(timeLayout),
		"finished":     p.End.UTC().Format(timeLayout),
		"duration":     p.Duration().Round(time.Second).String(),
		"success":      p.Success,
		"failed":       !p.Success,
		"has_err":      p.ErrString != "",
		"err_string":   p.ErrString,
		"steps":        steps,
		"has_note":     hasLatest && latest.Text != "",
		"note_cleared": hasLatest && latest.Text == "",
		"no_note":      !hasLatest,
		"note_text":    latest.Text,
		"note_by":      latest.CreatedBy,
		"note_at":      latest.CreatedAt.UTC().Format(timeLayout),
		"has_history":  len(notes) > 0,
		"history":      history,
	}

	out, err := mustache.Render(passTemplate, data)
	if err != nil {
		return "", fmt.Errorf("failed to render pass report: %w", err)
	}
	return out, nil
}

package report

import (
	"strings"
	"testing"
	"time"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/correlate"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/passes"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/records"
	"github.com/nicksanford/sanding-monitoring-web-app/pkg/notewire"
)

var reportBase = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func reportPass() passes.Pass {
	return passes.Pass{
		ID:      "pass-001",
		Start:   reportBase,
		End:     reportBase.Add(10 * time.Minute),
		Success: true,
		Steps: []passes.Step{
			{Name: "rough", Start: reportBase, End: reportBase.Add(5 * time.Minute)},
			{Name: "finish", Start: reportBase.Add(5 * time.Minute), End: reportBase.Add(10 * time.Minute)},
		},
	}
}

func TestRenderPassWithVideosAndNote(t *testing.T) {
	p := reportPass()
	stepVideos := []correlate.StepVideos{
		{
			Step: p.Steps[0],
			Videos: []records.Record{
				{ID: "r1", FileName: "rough-cam.mp4", MimeType: "video/mp4", Size: 12 << 20, CapturedAt: reportBase.Add(2 * time.Minute)},
			},
		},
		{Step: p.Steps[1], Videos: []records.Record{}},
	}
	notes := []notewire.Note{
		{PassID: "pass-001", Text: "edge chatter on the left rail", CreatedAt: reportBase.Add(time.Hour), CreatedBy: "sanding-monitor"},
	}

	out, err := Render(p, stepVideos, notes)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	for _, want := range []string{
		"# Sanding pass pass-001",
		"Outcome: success",
		"### rough",
		"rough-cam.mp4",
		"### finish",
		"no video captured",
		"edge chatter on the left rail",
		"## History",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderFailedPassShowsError(t *testing.T) {
	p := reportPass()
	p.Success = false
	p.ErrString = "belt stall during finish step"

	out, err := Render(p, nil, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "FAILED") {
		t.Errorf("report does not mark the failure:\n%s", out)
	}
	if !strings.Contains(out, "belt stall during finish step") {
		t.Errorf("report does not carry the error string:\n%s", out)
	}
}

func TestRenderWithoutNotes(t *testing.T) {
	out, err := Render(reportPass(), nil, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "none") {
		t.Errorf("report does not say there is no note:\n%s", out)
	}
	if strings.Contains(out, "## History") {
		t.Errorf("report lists history with no notes:\n%s", out)
	}
}

func TestRenderClearedNote(t *testing.T) {
	notes := []notewire.Note{
		{PassID: "pass-001", Text: "", CreatedAt: reportBase.Add(2 * time.Hour), CreatedBy: "sanding-monitor"},
		{PassID: "pass-001", Text: "first impression", CreatedAt: reportBase.Add(time.Hour), CreatedBy: "sanding-monitor"},
	}

	out, err := Render(reportPass(), nil, notes)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "(cleared)") {
		t.Errorf("cleared note not surfaced:\n%s", out)
	}
	if !strings.Contains(out, "first impression") {
		t.Errorf("history lost the earlier note:\n%s", out)
	}
}

package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/passes"
)

type fakeStore struct {
	passes []passes.Pass
}

func (f *fakeStore) Passes(ctx context.Context, robotID string, limit int) ([]passes.Pass, error) {
	return append([]passes.Pass(nil), f.passes...), nil
}

func (f *fakeStore) AddPass(ctx context.Context, robotID string, p passes.Pass) error {
	f.passes = append(f.passes, p)
	return nil
}

func writeImportFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "passes.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	return path
}

func TestImportFileArray(t *testing.T) {
	path := writeImportFile(t, `[
		{"pass_id":"pass-001","start":"2025-03-14T10:00:00Z","end":"2025-03-14T10:05:00Z","success":true,
		 "steps":[{"name":"rough","start":"2025-03-14T10:00:00Z","end":"2025-03-14T10:05:00Z"}]},
		{"pass_id":"pass-002","start":"2025-03-14T11:00:00Z","end":"2025-03-14T11:05:00Z","success":false,"err_string":"belt stall"}
	]`)

	store := &fakeStore{}
	result, err := New(store).ImportFile(context.Background(), path, "sander-01")
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if result.Imported != 2 || result.Skipped != 0 || result.Invalid != 0 {
		t.Errorf("result = %+v, want 2 imported", result)
	}
	if len(store.passes) != 2 {
		t.Fatalf("store has %d passes, want 2", len(store.passes))
	}
	if store.passes[0].ID != "pass-001" || len(store.passes[0].Steps) != 1 {
		t.Errorf("first pass = %+v, want pass-001 with one step", store.passes[0])
	}
	if store.passes[1].ErrString != "belt stall" {
		t.Errorf("ErrString = %q, want %q", store.passes[1].ErrString, "belt stall")
	}
}

func TestImportFileJSONL(t *testing.T) {
	path := writeImportFile(t, `
{"pass_id":"pass-001","start":"2025-03-14T10:00:00Z","end":"2025-03-14T10:05:00Z","success":true}

{"pass_id":"pass-002","start":"2025-03-14T11:00:00Z","end":"2025-03-14T11:05:00Z","success":true}
`)

	store := &fakeStore{}
	result, err := New(store).ImportFile(context.Background(), path, "sander-01")
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("Imported = %d, want 2", result.Imported)
	}
}

func TestImportFileSkipsExisting(t *testing.T) {
	path := writeImportFile(t, `[
		{"pass_id":"pass-001","start":"2025-03-14T10:00:00Z","end":"2025-03-14T10:05:00Z","success":true},
		{"pass_id":"pass-002","start":"2025-03-14T11:00:00Z","end":"2025-03-14T11:05:00Z","success":true}
	]`)

	store := &fakeStore{passes: []passes.Pass{{
		ID:    "pass-001",
		Start: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 14, 10, 5, 0, 0, time.UTC),
	}}}

	result, err := New(store).ImportFile(context.Background(), path, "sander-01")
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 1 imported 1 skipped", result)
	}

	// A second run of the same file imports nothing new.
	again, err := New(store).ImportFile(context.Background(), path, "sander-01")
	if err != nil {
		t.Fatalf("ImportFile() second run error = %v", err)
	}
	if again.Imported != 0 || again.Skipped != 2 {
		t.Errorf("second run = %+v, want everything skipped", again)
	}
}

func TestImportFileIsolatesBrokenDocuments(t *testing.T) {
	path := writeImportFile(t, `
{"pass_id":"pass-001","start":"2025-03-14T10:00:00Z","end":"2025-03-14T10:05:00Z","success":true}
{not json at all
{"pass_id":"","start":"2025-03-14T12:00:00Z","end":"2025-03-14T12:05:00Z"}
{"pass_id":"pass-003","start":"2025-03-14T13:00:00Z","end":"2025-03-14T12:00:00Z"}
{"pass_id":"pass-004","start":"2025-03-14T14:00:00Z","end":"2025-03-14T14:05:00Z","success":true}
`)

	store := &fakeStore{}
	result, err := New(store).ImportFile(context.Background(), path, "sander-01")
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	// Bad line, empty id, and end-before-start are each invalid.
	if result.Imported != 2 || result.Invalid != 3 {
		t.Errorf("result = %+v, want 2 imported 3 invalid", result)
	}
}

func TestImportFileMissing(t *testing.T) {
	store := &fakeStore{}
	if _, err := New(store).ImportFile(context.Background(), filepath.Join(t.TempDir(), "absent.json"), "sander-01"); err == nil {
		t.Error("ImportFile() accepted a missing file")
	}
}

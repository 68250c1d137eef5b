package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/config"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/correlate"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/feed"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/monitor"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/notes"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/store/sqlitestore"
	"github.com/nicksanford/sanding-monitoring-web-app/pkg/notewire"
)

const stampLayout = "2006-01-02 15:04:05"

// ListPassesArgs defines arguments for the list_passes tool
type ListPassesArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Max passes to return (default: 20)"`
}

// GetPassArgs defines arguments for the get_pass tool
type GetPassArgs struct {
	PassID string `json:"pass_id" jsonschema:"description=Pass ID to retrieve,required"`
}

// ListNotesArgs defines arguments for the list_notes tool
type ListNotesArgs struct {
	PassID string `json:"pass_id" jsonschema:"description=Pass ID whose notes to list,required"`
}

// SaveNoteArgs defines arguments for the save_note tool
type SaveNoteArgs struct {
	PassID string `json:"pass_id" jsonschema:"description=Pass ID to attach the note to,required"`
	Text   string `json:"text,omitempty" jsonschema:"description=Note text; empty clears the note"`
}

// PassSummary represents a pass in the list view
type PassSummary struct {
	PassID     string `json:"pass_id"`
	Started    string `json:"started"`
	Finished   string `json:"finished"`
	Success    bool   `json:"success"`
	ErrString  string `json:"err_string,omitempty"`
	StepCount  int    `json:"step_count"`
	VideoCount int    `json:"video_count"`
	Note       string `json:"note,omitempty"`
}

// PassDetail represents a pass with per-step videos and note history
type PassDetail struct {
	PassID    string       `json:"pass_id"`
	Started   string       `json:"started"`
	Finished  string       `json:"finished"`
	Success   bool         `json:"success"`
	ErrString string       `json:"err_string,omitempty"`
	Steps     []StepDetail `json:"steps"`
	Notes     []NoteDetail `json:"notes"`
}

// StepDetail represents one step and the video captured during it
type StepDetail struct {
	Name   string        `json:"name"`
	Start  string        `json:"start"`
	End    string        `json:"end"`
	Videos []VideoDetail `json:"videos"`
}

// VideoDetail represents one correlated video record
type VideoDetail struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	CapturedAt string `json:"captured_at"`
}

// NoteDetail represents one note revision
type NoteDetail struct {
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	CreatedBy string `json:"created_by"`
}

type deps struct {
	monitor *monitor.Monitor
	notes   *notes.Store
	partID  string
}

// refresh brings the feed and pass list up to date before a tool answers.
func (d *deps) refresh(ctx context.Context) error {
	if _, err := d.monitor.Poll(ctx); err != nil && !errors.Is(err, feed.ErrPollInFlight) {
		return err
	}
	if _, err := d.monitor.RefreshPasses(ctx); err != nil {
		return err
	}
	return nil
}

// StartServer starts the MCP server on stdio
func StartServer(cfg *config.Config) error {
	store, err := sqlitestore.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close record store")
		}
	}()

	m := monitor.New(store, store, monitor.Config{
		RobotID:   cfg.RobotID,
		Filter:    cfg.CaptureFilter(),
		PassLimit: cfg.PassLimit,
		PageSize:  cfg.PageSize,
		PollLimit: cfg.PollLimit,
	})
	if err := m.Bootstrap(context.Background()); err != nil {
		return fmt.Errorf("failed to bootstrap monitor: %w", err)
	}

	d := &deps{
		monitor: m,
		notes:   notes.NewStore(store, cfg.RobotID),
		partID:  cfg.PartID,
	}

	s := server.NewMCPServer(
		"sandmon",
		"1.0.0",
	)

	listTool := mcp.NewTool("list_passes",
		mcp.WithDescription("List recent sanding passes with their outcome, per-step video counts, and current note"),
		mcp.WithNumber("limit",
			mcp.Description("Max passes to return (default: 20)")),
	)
	s.AddTool(listTool, makeListPassesHandler(d))

	getTool := mcp.NewTool("get_pass",
		mcp.WithDescription("Retrieve one sanding pass: its steps, the video captured during each step, and the full note history"),
		mcp.WithString("pass_id",
			mcp.Required(),
			mcp.Description("Pass ID to retrieve")),
	)
	s.AddTool(getTool, makeGetPassHandler(d))

	notesTool := mcp.NewTool("list_notes",
		mcp.WithDescription("List the note history for a sanding pass, newest first"),
		mcp.WithString("pass_id",
			mcp.Required(),
			mcp.Description("Pass ID whose notes to list")),
	)
	s.AddTool(notesTool, makeListNotesHandler(d))

	saveTool := mcp.NewTool("save_note",
		mcp.WithDescription("Save a note for a sanding pass. Saving empty text clears the note; history is kept either way."),
		mcp.WithString("pass_id",
			mcp.Required(),
			mcp.Description("Pass ID to attach the note to")),
		mcp.WithString("text",
			mcp.Description("Note text; empty clears the note")),
	)
	s.AddTool(saveTool, makeSaveNoteHandler(d))

	return server.ServeStdio(s)
}

func makeListPassesHandler(d *deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := d.refresh(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("refresh failed: %v", err)), nil
		}

		var args ListPassesArgs
		argsBytes, _ := json.Marshal(request.Params.Arguments)
		if err := json.Unmarshal(argsBytes, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		limit := args.Limit
		if limit == 0 {
			limit = 20
		}

		loaded := d.monitor.Passes()
		if len(loaded) > limit {
			loaded = loaded[:limit]
		}

		ids := make([]string, 0, len(loaded))
		for _, p := range loaded {
			ids = append(ids, p.ID)
		}
		notesByPass, err := d.notes.FetchMany(ctx, ids)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch notes: %v", err)), nil
		}

		recs := d.monitor.Records()
		var results []PassSummary
		for _, p := range loaded {
			summary := PassSummary{
				PassID:     p.ID,
				Started:    p.Start.UTC().Format(stampLayout),
				Finished:   p.End.UTC().Format(stampLayout),
				Success:    p.Success,
				ErrString:  p.ErrString,
				StepCount:  len(p.Steps),
				VideoCount: correlate.VideoCount(correlate.ForPass(p, recs)),
			}
			if latest, ok := notewire.Latest(notesByPass[p.ID]); ok {
				summary.Note = latest.Text
			}
			results = append(results, summary)
		}

		resultJSON, err := json.Marshal(map[string]interface{}{
			"passes": results,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

func makeGetPassHandler(d *deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := d.refresh(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("refresh failed: %v", err)), nil
		}

		var args GetPassArgs
		argsBytes, _ := json.Marshal(request.Params.Arguments)
		if err := json.Unmarshal(argsBytes, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		p, ok := d.monitor.Pass(args.PassID)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("pass %s not found", args.PassID)), nil
		}

		history, err := d.notes.FetchOne(ctx, args.PassID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch notes: %v", err)), nil
		}

		detail := PassDetail{
			PassID:    p.ID,
			Started:   p.Start.UTC().Format(stampLayout),
			Finished:  p.End.UTC().Format(stampLayout),
			Success:   p.Success,
			ErrString: p.ErrString,
			Steps:     []StepDetail{},
			Notes:     noteDetails(history),
		}
		for _, sv := range correlate.ForPass(p, d.monitor.Records()) {
			step := StepDetail{
				Name:   sv.Step.Name,
				Start:  sv.Step.Start.UTC().Format(stampLayout),
				End:    sv.Step.End.UTC().Format(stampLayout),
				Videos: []VideoDetail{},
			}
			for _, v := range sv.Videos {
				step.Videos = append(step.Videos, VideoDetail{
					ID:         v.ID,
					FileName:   v.FileName,
					MimeType:   v.MimeType,
					Size:       v.Size,
					CapturedAt: v.CapturedAt.UTC().Format(stampLayout),
				})
			}
			detail.Steps = append(detail.Steps, step)
		}

		resultJSON, err := json.Marshal(detail)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}

		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

func makeListNotesHandler(d *deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ListNotesArgs
		argsBytes, _ := json.Marshal(request.Params.Arguments)
		if err := json.Unmarshal(argsBytes, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		history, err := d.notes.FetchOne(ctx, args.PassID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch notes: %v", err)), nil
		}

		resultJSON, err := json.Marshal(map[string]interface{}{
			"pass_id": args.PassID,
			"notes":   noteDetails(history),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

func makeSaveNoteHandler(d *deps) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SaveNoteArgs
		argsBytes, _ := json.Marshal(request.Params.Arguments)
		if err := json.Unmarshal(argsBytes, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		note, err := d.notes.Save(ctx, args.PassID, args.Text, d.partID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to save note: %v", err)), nil
		}

		resultJSON, err := json.Marshal(map[string]interface{}{
			"pass_id":    note.PassID,
			"text":       note.Text,
			"created_at": note.CreatedAt.UTC().Format(time.RFC3339),
			"created_by": note.CreatedBy,
			"cleared":    note.Text == "",
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}

		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

func noteDetails(history []notewire.Note) []NoteDetail {
	out := make([]NoteDetail, 0, len(history))
	for _, n := range history {
		out = append(out, NoteDetail{
			Text:      n.Text,
			CreatedAt: n.CreatedAt.UTC().Format(stampLayout),
			CreatedBy: n.CreatedBy,
		})
	}
	return out
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/correlate"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/monitor"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/notes"
	"github.com/nicksanford/sanding-monitoring-web-app/pkg/notewire"
)

var (
	passesLimit int
	passesSince string
)

var passesCmd = &cobra.Command{
	Use:   "passes",
	Short: "List recent sanding passes",
	Long: `List recent sanding passes in reverse chronological order.

Shows the pass window, outcome, per-step video counts, and the current note.

Examples:
  sandmon passes
  sandmon passes --limit 10
  sandmon passes --since yesterday
  sandmon passes --since 2025-03-01`,
	RunE: runPasses,
}

func init() {
	rootCmd.AddCommand(passesCmd)
	passesCmd.Flags().IntVar(&passesLimit, "limit", 20, "Maximum number of passes to display")
	passesCmd.Flags().StringVar(&passesSince, "since", "", "Only passes started after this time (natural language or ISO date)")
}

func runPasses(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	var since time.Time
	if passesSince != "" {
		parsed := parseSince(passesSince)
		if parsed == nil {
			return fmt.Errorf("failed to parse --since value %q", passesSince)
		}
		since = *parsed
	}

	m := monitor.New(store, store, monitor.Config{
		RobotID:   cfg.RobotID,
		Filter:    cfg.CaptureFilter(),
		PassLimit: cfg.PassLimit,
		PageSize:  cfg.PageSize,
		PollLimit: cfg.PollLimit,
	})
	if err := m.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to load pass history: %w", err)
	}

	loaded := m.Passes()
	if !since.IsZero() {
		kept := loaded[:0]
		for _, p := range loaded {
			if !p.Start.Before(since) {
				kept = append(kept, p)
			}
		}
		loaded = kept
	}
	if len(loaded) > passesLimit {
		loaded = loaded[:passesLimit]
	}

	if len(loaded) == 0 {
		if passesSince != "" {
			fmt.Printf("No passes started since %s\n", passesSince)
		} else {
			fmt.Println("No passes found. Run 'sandmon seed' to create a demo store.")
		}
		return nil
	}

	passIDs := make([]string, 0, len(loaded))
	for _, p := range loaded {
		passIDs = append(passIDs, p.ID)
	}
	noteStore := notes.NewStore(store, cfg.RobotID)
	notesByPass, err := noteStore.FetchMany(ctx, passIDs)
	if err != nil {
		return fmt.Errorf("failed to fetch notes: %w", err)
	}

	recs := m.Records()
	fmt.Printf("Showing %d pass(es) for robot %s\n\n", len(loaded), cfg.RobotID)
	for i, p := range loaded {
		outcome := "success"
		if !p.Success {
			outcome = "FAILED"
			if p.ErrString != "" {
				outcome += " (" + p.ErrString + ")"
			}
		}

		stepNames := make([]string, 0, len(p.Steps))
		for _, s := range p.Steps {
			stepNames = append(stepNames, s.Name)
		}

		fmt.Printf("[%d] %s  %s\n", i+1, p.ID, outcome)
		fmt.Printf("    Started: %s\n", humanize.Time(p.Start))
		fmt.Printf("    Window:  %s (%s)\n", formatWindow(p.Start, p.End), p.Duration().Round(time.Second))
		if len(stepNames) > 0 {
			fmt.Printf("    Steps:   %s\n", strings.Join(stepNames, ", "))
		}
		fmt.Printf("    Videos:  %d\n", correlate.VideoCount(correlate.ForPass(p, recs)))
		if latest, ok := notewire.Latest(notesByPass[p.ID]); ok && latest.Text != "" {
			fmt.Printf("    Note:    %s\n", latest.Text)
		}
		fmt.Println()
	}

	return nil
}

func formatWindow(start, end time.Time) string {
	const layout = "Jan 2 15:04:05"
	if start.Local().Format("2006-01-02") == end.Local().Format("2006-01-02") {
		return start.Local().Format(layout) + " to " + end.Local().Format("15:04:05")
	}
	return start.Local().Format(layout) + " to " + end.Local().Format(layout)
}

// parseSince turns natural language ("yesterday", "2 hours ago") or a
// plain date into a time.
func parseSince(s string) *time.Time {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(s, time.Now())
	if err == nil && result != nil {
		return &result.Time
	}

	formats := []string{
		"2006-01-02",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006/01/02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return &t
		}
	}

	return nil
}

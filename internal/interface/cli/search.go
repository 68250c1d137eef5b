package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/monitor"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/notes"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search notes across passes",
	Long: `Search the notes of recent passes for a case-insensitive substring.

Examples:
  sandmon search belt
  sandmon search "edge chatter"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

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
	passIDs := make([]string, 0, len(loaded))
	for _, p := range loaded {
		passIDs = append(passIDs, p.ID)
	}

	matches, err := search.Notes(ctx, notes.NewStore(store, cfg.RobotID), passIDs, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(matches) == 0 {
		fmt.Printf("No notes mention %q\n", query)
		return nil
	}

	fmt.Printf("%d match(es) for %q:\n\n", len(matches), query)
	for i, match := range matches {
		marker := "history"
		if match.Current {
			marker = "current"
		}
		fmt.Printf("[%d] %s (%s)\n", i+1, match.PassID, marker)
		fmt.Printf("    %s\n", match.Note.Text)
		fmt.Printf("    %s (%s)\n", match.Note.CreatedAt.Local().Format("Jan 2 15:04:05"), humanize.Time(match.Note.CreatedAt))
		fmt.Println()
	}
	return nil
}

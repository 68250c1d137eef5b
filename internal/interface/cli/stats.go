package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/monitor"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/notes"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/records"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store and monitor statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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
	stats := m.Stats()

	noteCount := 0
	notePage, err := store.Query(ctx, records.Filter{
		RobotID:       cfg.RobotID,
		ComponentName: notes.ComponentName,
	}, 1000, records.Descending, "")
	if err == nil {
		noteCount = len(notePage.Records)
	}

	fmt.Printf("Robot:           %s\n", cfg.RobotID)
	fmt.Printf("Passes:          %d\n", stats.PassCount)
	fmt.Printf("Captures loaded: %d (backfill stopped: %s)\n", stats.BackfillRecords, stats.BackfillStop)
	fmt.Printf("Note records:    %d\n", noteCount)
	fmt.Println()

	fileInfo, err := os.Stat(store.Path())
	if err != nil {
		return fmt.Errorf("failed to stat store file: %w", err)
	}
	fmt.Printf("Store Location: %s\n", store.Path())
	fmt.Printf("Store Size:     %s\n", humanize.Bytes(uint64(fileInfo.Size())))

	return nil
}

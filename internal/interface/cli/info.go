package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/correlate"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/monitor"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/notes"
)

var infoCmd = &cobra.Command{
	Use:   "info <pass-id>",
	Short: "Show one pass in detail",
	Long: `Show a single sanding pass: its window, outcome, the video captured
during each step, and the full note history.

Examples:
  sandmon info pass-003`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	passID := args[0]

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

	p, ok := m.Pass(passID)
	if !ok {
		return fmt.Errorf("pass %s not found", passID)
	}

	outcome := "success"
	if !p.Success {
		outcome = "FAILED"
	}
	fmt.Printf("Pass:    %s\n", p.ID)
	fmt.Printf("Window:  %s (%s)\n", formatWindow(p.Start, p.End), p.Duration().Round(time.Second))
	fmt.Printf("Outcome: %s\n", outcome)
	if p.ErrString != "" {
		fmt.Printf("Error:   %s\n", p.ErrString)
	}
	fmt.Println()

	for _, sv := range correlate.ForPass(p, m.Records()) {
		fmt.Printf("Step %s (%s)\n", sv.Step.Name, formatWindow(sv.Step.Start, sv.Step.End))
		if len(sv.Videos) == 0 {
			fmt.Println("    no video captured")
		}
		for _, v := range sv.Videos {
			fmt.Printf("    %s  %s  captured %s\n", v.FileName, humanize.Bytes(uint64(v.Size)), humanize.Time(v.CapturedAt))
		}
	}
	fmt.Println()

	noteStore := notes.NewStore(store, cfg.RobotID)
	history, err := noteStore.FetchOne(ctx, passID)
	if err != nil {
		return fmt.Errorf("failed to fetch notes: %w", err)
	}
	if len(history) == 0 {
		fmt.Println("No notes.")
		return nil
	}
	fmt.Printf("Notes (%d):\n", len(history))
	for _, n := range history {
		text := n.Text
		if text == "" {
			text = "(cleared)"
		}
		fmt.Printf("    %s  %s: %s\n", n.CreatedAt.Local().Format("Jan 2 15:04:05"), n.CreatedBy, text)
	}

	return nil
}

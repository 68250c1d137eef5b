package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/correlate"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/monitor"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/notes"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/report"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <pass-id>",
	Short: "Export a pass report to markdown",
	Long: `Export a sanding pass to a markdown report: window, outcome, per-step
videos, and the note history.

By default exports to the current directory as <pass-id>.md.
Use --output to specify a custom path.

Examples:
  sandmon export pass-003
  sandmon export pass-003 --output ~/reports/pass-003.md
  sandmon export pass-003 -o report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: <pass-id>.md in current directory)")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	outputPath := exportOutput
	if outputPath == "" {
		outputPath = filepath.Join(cwd, passID+".md")
	} else if !filepath.IsAbs(outputPath) {
		outputPath = filepath.Join(cwd, outputPath)
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

	p, ok := m.Pass(passID)
	if !ok {
		return fmt.Errorf("pass %s not found", passID)
	}

	noteStore := notes.NewStore(store, cfg.RobotID)
	history, err := noteStore.FetchOne(ctx, passID)
	if err != nil {
		return fmt.Errorf("failed to fetch notes: %w", err)
	}

	out, err := report.Render(p, correlate.ForPass(p, m.Records()), history)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Printf("Exported pass report to: %s\n", outputPath)
	return nil
}

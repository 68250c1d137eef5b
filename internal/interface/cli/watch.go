package cli

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/monitor"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/notes"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/interface/tui"
)

var watchLogFile string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Launch the interactive pass monitor",
	Long:  "Launch an interactive terminal UI that follows sanding passes, their step videos, and notes as they land",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "Write logs to a file instead of discarding them")
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	// Logs would tear up the alternate screen, so they go to a file or nowhere.
	if watchLogFile != "" {
		f, err := os.OpenFile(watchLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		log.Logger = zerolog.New(f).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(io.Discard)
	}

	m := monitor.New(store, store, monitor.Config{
		RobotID:      cfg.RobotID,
		Filter:       cfg.CaptureFilter(),
		PassLimit:    cfg.PassLimit,
		PageSize:     cfg.PageSize,
		PollLimit:    cfg.PollLimit,
		PollInterval: cfg.PollInterval,
	})
	noteStore := notes.NewStore(store, cfg.RobotID)

	model := tui.New(m, noteStore, cfg.PartID, cfg.PollInterval)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

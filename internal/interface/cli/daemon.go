package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/monitor"
)

var daemonPassRefresh time.Duration

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the monitor headless in the foreground",
	Long: `Run the monitor without a UI: bootstrap the capture feed, then keep
polling for new records and refreshing the pass list until interrupted.

Useful under a process supervisor, or to keep a store warm for other
sandmon commands.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().DurationVar(&daemonPassRefresh, "pass-refresh", 30*time.Second, "How often to reload the pass list")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
		RobotID:      cfg.RobotID,
		Filter:       cfg.CaptureFilter(),
		PassLimit:    cfg.PassLimit,
		PageSize:     cfg.PageSize,
		PollLimit:    cfg.PollLimit,
		PollInterval: cfg.PollInterval,
	})
	if err := m.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap monitor: %w", err)
	}

	stats := m.Stats()
	log.Info().
		Str("robot", cfg.RobotID).
		Int("passes", stats.PassCount).
		Int("records", stats.BackfillRecords).
		Dur("poll_interval", cfg.PollInterval).
		Msg("daemon started")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.Run(ctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(daemonPassRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := m.RefreshPasses(ctx); err != nil {
					log.Warn().Err(err).Msg("pass refresh failed")
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("daemon stopped: %w", err)
	}

	log.Info().Msg("daemon stopped")
	return nil
}

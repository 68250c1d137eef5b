package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/config"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/store/sqlitestore"
)

var (
	configPath  string
	storePath   string
	robotID     string
	logLevel    string
	versionInfo string
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sandmon",
	Short: "Sanding run monitor",
	Long: `sandmon - watch robotic sanding passes, their step videos, and operator notes

Correlates captured video with the steps of each sanding pass and keeps
per-pass notes, all against a local record store.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level %q: %w", logLevel, err)
		}
		zerolog.SetGlobalLevel(lvl)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to the TUI if no subcommand specified
		return watchCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/sandmon/config.toml)")
	rootCmd.PersistentFlags().StringVar(&storePath, "db", "", "Record store path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&robotID, "robot", "", "Robot ID to monitor (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
}

// loadConfig resolves the effective config: file, then flag overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if robotID != "" {
		// A part id that was only following the robot id keeps following it.
		if cfg.PartID == cfg.RobotID {
			cfg.PartID = robotID
		}
		cfg.RobotID = robotID
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*sqlitestore.Store, error) {
	store, err := sqlitestore.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}
	return store, nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import pass documents from a file",
	Long: `Import pass documents exported by the robot into the local store.

Accepts a JSON array of pass documents or JSONL with one document per
line. Passes already in the store are skipped, so re-importing the same
file is safe.

Examples:
  sandmon import passes.json
  sandmon import runs/2025-03-14.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
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

	result, err := importer.New(store).ImportFile(ctx, args[0], cfg.RobotID)
	if err != nil {
		return err
	}

	fmt.Printf("Imported: %d\n", result.Imported)
	fmt.Printf("Skipped:  %d (already present)\n", result.Skipped)
	if result.Invalid > 0 {
		fmt.Printf("Invalid:  %d (see logs)\n", result.Invalid)
	}
	return nil
}

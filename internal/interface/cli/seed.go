package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/notes"
)

var seedPasses int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the store with demo sanding history",
	Long: `Populate the record store with demo passes, step videos, snapshots,
and a few notes, so the monitor has something to show.

Seeding uses fixed pass ids, so it wants a fresh store file.

Examples:
  sandmon seed
  sandmon seed --passes 10 --db /tmp/demo.db`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().IntVar(&seedPasses, "passes", 6, "Number of demo passes to create")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	if err := store.Seed(ctx, cfg.RobotID, seedPasses); err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}

	// A couple of notes so the notes views have history to show.
	noteStore := notes.NewStore(store, cfg.RobotID)
	demoNotes := []struct {
		pass int
		text string
	}{
		{1, "surface came out clean, keep these feed rates"},
		{4, "belt squeal near the end of the finish step"},
		{4, "swapped the belt, noise gone on the next pass"},
	}
	saved := 0
	for _, n := range demoNotes {
		if n.pass > seedPasses {
			continue
		}
		passID := fmt.Sprintf("pass-%03d", n.pass)
		if _, err := noteStore.Save(ctx, passID, n.text, cfg.PartID); err != nil {
			return fmt.Errorf("failed to seed note for %s: %w", passID, err)
		}
		saved++
	}

	fmt.Printf("Seeded %d pass(es) and %d note(s) for robot %s\n", seedPasses, saved, cfg.RobotID)
	fmt.Printf("Store: %s\n", cfg.StorePath)
	fmt.Println()
	fmt.Println("Run 'sandmon' to watch, or 'sandmon passes' to list.")
	return nil
}

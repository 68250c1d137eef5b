package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/notes"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Read and write per-pass notes",
	Long: `Read and write the operator notes attached to a sanding pass.

Every save is a new record; the newest one wins. Clearing writes an
empty note rather than deleting history.`,
}

var notesListCmd = &cobra.Command{
	Use:   "list <pass-id>",
	Short: "Show the note history for a pass",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotesList,
}

var notesSetCmd = &cobra.Command{
	Use:   "set <pass-id> <text>",
	Short: "Save a note for a pass",
	Long: `Save a note for a pass. All words after the pass id become the note text.

Examples:
  sandmon notes set pass-003 edge chatter on the left rail`,
	Args: cobra.MinimumNArgs(2),
	RunE: runNotesSet,
}

var notesClearCmd = &cobra.Command{
	Use:   "clear <pass-id>",
	Short: "Clear the note for a pass",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotesClear,
}

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesSetCmd)
	notesCmd.AddCommand(notesClearCmd)
}

func runNotesList(cmd *cobra.Command, args []string) error {
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

	noteStore := notes.NewStore(store, cfg.RobotID)
	history, err := noteStore.FetchOne(ctx, passID)
	if err != nil {
		return fmt.Errorf("failed to fetch notes: %w", err)
	}

	if len(history) == 0 {
		fmt.Printf("No notes for %s\n", passID)
		return nil
	}

	fmt.Printf("%d note(s) for %s, newest first:\n\n", len(history), passID)
	for i, n := range history {
		text := n.Text
		if text == "" {
			text = "(cleared)"
		}
		fmt.Printf("[%d] %s\n", i+1, text)
		fmt.Printf("    By:   %s\n", n.CreatedBy)
		fmt.Printf("    When: %s (%s)\n", n.CreatedAt.Local().Format("Jan 2 15:04:05"), humanize.Time(n.CreatedAt))
		fmt.Println()
	}
	return nil
}

func runNotesSet(cmd *cobra.Command, args []string) error {
	return saveNote(cmd, args[0], strings.Join(args[1:], " "))
}

func runNotesClear(cmd *cobra.Command, args []string) error {
	return saveNote(cmd, args[0], "")
}

func saveNote(cmd *cobra.Command, passID, text string) error {
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

	noteStore := notes.NewStore(store, cfg.RobotID)
	note, err := noteStore.Save(ctx, passID, text, cfg.PartID)
	if err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}

	if note.Text == "" {
		fmt.Printf("Cleared note for %s\n", passID)
	} else {
		fmt.Printf("Saved note for %s: %s\n", passID, note.Text)
	}
	return nil
}

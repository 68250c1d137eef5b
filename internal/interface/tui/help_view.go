package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = listView
	return m, nil
}

func (m Model) viewHelp() string {
	help := `
Sanding Run Monitor - Help
══════════════════════════

PASS LIST
─────────
  ↑/↓, j/k     Navigate passes
  Enter        View pass details
  n            Edit the note for the selected pass
  r            Poll for new captures now
  /            Filter passes
  ?            Show this help
  q            Quit

PASS DETAIL
───────────
  j/k          Scroll line by line
  d/u          Scroll half page
  g/G          Jump to top/bottom
  n            Edit the note for this pass
  y            Copy the markdown report to the clipboard
  esc          Back to pass list
  q            Back to pass list

NOTE EDITOR
───────────
  Type         Edit the note text
  Enter        Save (empty text clears the note)
  esc          Cancel

The feed polls on its own; new captures appear as they land.

Press any key to return to the pass list
`

	return helpStyle.Render(help)
}

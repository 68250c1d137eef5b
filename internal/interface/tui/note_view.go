package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) openNoteEditor(passID, current string) (tea.Model, tea.Cmd) {
	ti := textinput.New()
	ti.Placeholder = "note text (save empty to clear)"
	ti.SetValue(current)
	ti.CursorEnd()
	ti.Focus()
	ti.Width = m.width - 4
	m.noteInput = ti
	m.editingPassID = passID
	m.mode = noteEditView
	return m, textinput.Blink
}

func (m Model) updateNoteEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.current != nil && m.current.pass.ID == m.editingPassID {
			m.mode = detailView
		} else {
			m.mode = listView
		}
		return m, nil

	case "enter":
		passID := m.editingPassID
		text := m.noteInput.Value()
		m.flash = "saving note"
		return m, saveNote(m.notes, passID, text, m.partID)
	}

	var cmd tea.Cmd
	m.noteInput, cmd = m.noteInput.Update(msg)
	return m, cmd
}

func (m Model) viewNoteEdit() string {
	title := titleStyle.Render("Note for " + m.editingPassID)
	help := helpStyle.Render("enter: save | esc: cancel")
	return title + "\n\n" + m.noteInput.View() + "\n\n" + help
}

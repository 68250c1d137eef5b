package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/passes"
)

type passListItem struct {
	pass       passes.Pass
	videoCount int
	note       string
}

func (i passListItem) FilterValue() string {
	return i.pass.ID + " " + i.note
}

func (i passListItem) Title() string {
	outcome := "ok"
	if !i.pass.Success {
		outcome = "FAILED"
	}
	return fmt.Sprintf("%s  [%s]", i.pass.ID, outcome)
}

func (i passListItem) Description() string {
	parts := []string{
		humanize.Time(i.pass.Start),
		fmt.Sprintf("%d steps", len(i.pass.Steps)),
		fmt.Sprintf("%d videos", i.videoCount),
	}
	if i.note != "" {
		parts = append(parts, "note: "+firstLine(i.note, 40))
	}
	return strings.Join(parts, " | ")
}

// Custom delegate so failed passes stand out in the list.
type passDelegate struct {
	list.DefaultDelegate
}

func (d passDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(passListItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	title := p.Title()
	desc := p.Description()

	switch {
	case index == m.Index():
		title = selectedItemStyle.Render(title)
		desc = selectedItemStyle.Faint(true).Render(desc)
	case !p.pass.Success:
		title = failedItemStyle.Render(title)
		desc = itemStyle.Render(desc)
	default:
		title = itemStyle.Render(title)
		desc = itemStyle.Render(desc)
	}

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

func createPassList(items []list.Item, width, height int) list.Model {
	delegate := passDelegate{DefaultDelegate: list.NewDefaultDelegate()}

	l := list.New(items, delegate, width, height-2)
	l.Title = ""
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(true)

	return l
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the filter prompt is open, every key belongs to the list.
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "enter":
		if selected, ok := m.list.SelectedItem().(passListItem); ok {
			return m, loadDetail(m.monitor, m.notes, selected.pass.ID)
		}
		return m, nil

	case "n":
		if selected, ok := m.list.SelectedItem().(passListItem); ok {
			return m.openNoteEditor(selected.pass.ID, selected.note)
		}
		return m, nil

	case "r":
		m.flash = "refreshing"
		return m, tea.Batch(pollOnce(m.monitor), refreshPasses(m.monitor, m.notes))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) viewList() string {
	return m.list.View() + "\n" + m.statusBar()
}

func (m Model) statusBar() string {
	stats := m.monitor.Stats()
	captures := stats.BackfillRecords + stats.MergedRecords
	left := fmt.Sprintf("%d passes | %d captures", stats.PassCount, captures)
	if !stats.LastPollAt.IsZero() {
		left += " | polled " + humanize.Time(stats.LastPollAt)
	}
	line := statusStyle.Render(left)
	if m.flash != "" {
		line += "  " + flashStyle.Render(m.flash)
	}
	return line + "  " + helpStyle.Render("enter: detail | n: note | r: refresh | ?: help | q: quit")
}

func firstLine(s string, maxLen int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func formatStamp(t time.Time) string {
	return t.Local().Format("Jan 2 15:04:05")
}

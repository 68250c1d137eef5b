package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/correlate"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/monitor"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/notes"
	"github.com/nicksanford/sanding-monitoring-web-app/pkg/notewire"
)

type viewMode int

const (
	listView viewMode = iota
	detailView
	noteEditView
	helpView
)

// Refresh the pass list every few polls; captures move faster than passes.
const passRefreshEvery = 6

type Model struct {
	monitor   *monitor.Monitor
	notes     *notes.Store
	partID    string
	pollEvery time.Duration

	mode      viewMode
	list      list.Model
	viewport  viewport.Model
	noteInput textinput.Model
	width     int
	height    int
	err       error

	ready         bool
	ticks         int
	flash         string
	notesByPass   map[string][]notewire.Note
	current       *passDetail
	editingPassID string
}

func New(m *monitor.Monitor, ns *notes.Store, partID string, pollEvery time.Duration) Model {
	if pollEvery <= 0 {
		pollEvery = monitor.DefaultPollInterval
	}
	return Model{
		monitor:     m,
		notes:       ns,
		partID:      partID,
		pollEvery:   pollEvery,
		mode:        listView,
		notesByPass: map[string][]notewire.Note{},
	}
}

func (m Model) Init() tea.Cmd {
	return bootstrap(m.monitor, m.notes)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.ready {
			m.list.SetSize(msg.Width, msg.Height-2)
		}
		if m.current != nil {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 2
			m.viewport.SetContent(renderPassDetail(*m.current, msg.Width))
		}
		return m, nil

	case tea.KeyMsg:
		// The note editor owns every key except esc and enter.
		if m.mode == noteEditView {
			return m.updateNoteEdit(msg)
		}
		// Let the list's filter input swallow keys while active.
		if m.mode == listView && m.ready && m.list.FilterState() == list.Filtering {
			return m.updateList(msg)
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.mode == listView {
				return m, tea.Quit
			}
			m.mode = listView
			return m, nil
		case "?":
			if m.mode != helpView {
				m.mode = helpView
				return m, nil
			}
		}

		switch m.mode {
		case listView:
			return m.updateList(msg)
		case detailView:
			return m.updateDetail(msg)
		case helpView:
			return m.updateHelp(msg)
		}

	case bootstrappedMsg:
		m.ready = true
		m.err = nil
		m.notesByPass = msg.notesByPass
		m.list = createPassList(m.buildItems(), m.width, m.height)
		return m, tick(m.pollEvery)

	case tickMsg:
		m.ticks++
		cmds := []tea.Cmd{pollOnce(m.monitor), tick(m.pollEvery)}
		if m.ticks%passRefreshEvery == 0 {
			cmds = append(cmds, refreshPasses(m.monitor, m.notes))
		}
		return m, tea.Batch(cmds...)

	case polledMsg:
		if msg.err != nil {
			m.flash = "poll failed: " + msg.err.Error()
			return m, nil
		}
		if msg.fresh > 0 {
			m.flash = pluralize(msg.fresh, "new capture")
			m.refreshItems()
			if m.mode == detailView && m.current != nil {
				return m, loadDetail(m.monitor, m.notes, m.current.pass.ID)
			}
		}
		return m, nil

	case passesRefreshedMsg:
		m.notesByPass = msg.notesByPass
		m.refreshItems()
		return m, nil

	case detailLoadedMsg:
		m.current = &msg.detail
		m.viewport = createDetailViewport(msg.detail, m.width, m.height)
		if m.mode != noteEditView {
			m.mode = detailView
		}
		return m, nil

	case noteSavedMsg:
		m.notesByPass[msg.passID] = append([]notewire.Note{msg.note}, m.notesByPass[msg.passID]...)
		m.refreshItems()
		if msg.note.Text == "" {
			m.flash = "note cleared"
		} else {
			m.flash = "note saved"
		}
		m.mode = detailView
		return m, loadDetail(m.monitor, m.notes, msg.passID)

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n\nPress q to quit"
	}
	if !m.ready {
		return statusStyle.Render("Loading pass history...")
	}

	switch m.mode {
	case listView:
		return m.viewList()
	case detailView:
		return m.viewDetail()
	case noteEditView:
		return m.viewNoteEdit()
	case helpView:
		return m.viewHelp()
	}

	return ""
}

// refreshItems rebuilds the list items from the monitor's current state,
// keeping the cursor where it was.
func (m *Model) refreshItems() {
	if !m.ready {
		return
	}
	selected := m.list.Index()
	m.list.SetItems(m.buildItems())
	if selected < len(m.list.Items()) {
		m.list.Select(selected)
	}
}

func (m *Model) buildItems() []list.Item {
	loaded := m.monitor.Passes()
	recs := m.monitor.Records()
	items := make([]list.Item, 0, len(loaded))
	for _, p := range loaded {
		item := passListItem{pass: p}
		item.videoCount = correlate.VideoCount(correlate.ForPass(p, recs))
		if latest, ok := notewire.Latest(m.notesByPass[p.ID]); ok && latest.Text != "" {
			item.note = latest.Text
		}
		items = append(items, item)
	}
	return items
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

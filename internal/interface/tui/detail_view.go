package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/report"
	"github.com/nicksanford/sanding-monitoring-web-app/pkg/notewire"
)

func createDetailViewport(detail passDetail, width, height int) viewport.Model {
	vp := viewport.New(width, height-2)
	vp.SetContent(renderPassDetail(detail, width))
	return vp
}

func renderPassDetail(detail passDetail, width int) string {
	var b strings.Builder
	p := detail.pass

	b.WriteString(titleStyle.Render("Pass: "+p.ID) + "\n")
	if p.Success {
		b.WriteString(successStyle.Render("success"))
	} else {
		b.WriteString(failureStyle.Render("FAILED"))
		if p.ErrString != "" {
			b.WriteString(" " + p.ErrString)
		}
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Window: %s to %s (%s)\n",
		formatStamp(p.Start), formatStamp(p.End), p.Duration().Round(time.Second)))
	b.WriteString(strings.Repeat("─", width) + "\n\n")

	for _, sv := range detail.steps {
		b.WriteString(stepStyle.Render("▸ "+sv.Step.Name) + " ")
		b.WriteString(timestampStyle.Render(fmt.Sprintf("%s to %s", formatStamp(sv.Step.Start), formatStamp(sv.Step.End))))
		b.WriteString("\n")
		if len(sv.Videos) == 0 {
			b.WriteString("  no video captured\n")
		}
		for _, v := range sv.Videos {
			b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
				v.FileName, humanize.Bytes(uint64(v.Size)), humanize.Time(v.CapturedAt)))
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("─", width) + "\n\n")
	if len(detail.history) == 0 {
		b.WriteString("No notes. Press n to add one.\n")
	} else {
		b.WriteString(titleStyle.Render("Notes") + "\n\n")
		wrapWidth := width - 6
		if wrapWidth < 40 {
			wrapWidth = 40
		}
		for _, n := range detail.history {
			text := n.Text
			if text == "" {
				text = "(cleared)"
			}
			b.WriteString(timestampStyle.Render(formatStamp(n.CreatedAt)+" "+n.CreatedBy) + "\n")
			b.WriteString(noteStyle.Render(wordwrap.String(text, wrapWidth)))
			b.WriteString("\n\n")
		}
	}

	return b.String()
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = listView
		return m, nil

	case "g":
		m.viewport.GotoTop()
		return m, nil

	case "G":
		m.viewport.GotoBottom()
		return m, nil

	case "d":
		m.viewport.HalfViewDown()
		return m, nil

	case "u":
		m.viewport.HalfViewUp()
		return m, nil

	case "n":
		if m.current == nil {
			return m, nil
		}
		note := ""
		if latest, ok := notewire.Latest(m.current.history); ok {
			note = latest.Text
		}
		return m.openNoteEditor(m.current.pass.ID, note)

	case "y":
		if m.current == nil {
			return m, nil
		}
		out, err := report.Render(m.current.pass, m.current.steps, m.current.history)
		if err != nil {
			m.flash = "copy failed: " + err.Error()
			return m, nil
		}
		if err := clipboard.WriteAll(out); err != nil {
			m.flash = "copy failed: " + err.Error()
			return m, nil
		}
		m.flash = "report copied to clipboard"
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) viewDetail() string {
	help := helpStyle.Render("j/k: scroll | d/u: half page | n: edit note | y: copy report | esc: back")
	line := help
	if m.flash != "" {
		line = flashStyle.Render(m.flash) + "  " + help
	}
	return m.viewport.View() + "\n" + line
}

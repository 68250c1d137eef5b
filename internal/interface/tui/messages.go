package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/correlate"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/feed"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/monitor"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/notes"
	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/passes"
	"github.com/nicksanford/sanding-monitoring-web-app/pkg/notewire"
)

type errMsg struct {
	err error
}

type bootstrappedMsg struct {
	notesByPass map[string][]notewire.Note
}

type tickMsg time.Time

type polledMsg struct {
	fresh   int
	skipped bool
	err     error
}

type passesRefreshedMsg struct {
	notesByPass map[string][]notewire.Note
}

type detailLoadedMsg struct {
	detail passDetail
}

type noteSavedMsg struct {
	passID string
	note   notewire.Note
}

type passDetail struct {
	pass    passes.Pass
	steps   []correlate.StepVideos
	history []notewire.Note
}

func bootstrap(m *monitor.Monitor, ns *notes.Store) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.Bootstrap(ctx); err != nil && !errors.Is(err, feed.ErrAlreadyInitialized) {
			return errMsg{err}
		}
		byPass, err := fetchNotesForPasses(ctx, ns, m.Passes())
		if err != nil {
			return errMsg{err}
		}
		return bootstrappedMsg{notesByPass: byPass}
	}
}

func tick(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func pollOnce(m *monitor.Monitor) tea.Cmd {
	return func() tea.Msg {
		fresh, err := m.Poll(context.Background())
		if err != nil {
			if errors.Is(err, feed.ErrPollInFlight) {
				return polledMsg{skipped: true}
			}
			return polledMsg{err: err}
		}
		return polledMsg{fresh: len(fresh)}
	}
}

func refreshPasses(m *monitor.Monitor, ns *notes.Store) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		loaded, err := m.RefreshPasses(ctx)
		if err != nil {
			return errMsg{err}
		}
		byPass, err := fetchNotesForPasses(ctx, ns, loaded)
		if err != nil {
			return errMsg{err}
		}
		return passesRefreshedMsg{notesByPass: byPass}
	}
}

func loadDetail(m *monitor.Monitor, ns *notes.Store, passID string) tea.Cmd {
	return func() tea.Msg {
		p, ok := m.Pass(passID)
		if !ok {
			return errMsg{errors.New("pass " + passID + " not found")}
		}
		history, err := ns.FetchOne(context.Background(), passID)
		if err != nil {
			return errMsg{err}
		}
		return detailLoadedMsg{detail: passDetail{
			pass:    p,
			steps:   correlate.ForPass(p, m.Records()),
			history: history,
		}}
	}
}

func saveNote(ns *notes.Store, passID, text, partID string) tea.Cmd {
	return func() tea.Msg {
		note, err := ns.Save(context.Background(), passID, text, partID)
		if err != nil {
			return errMsg{err}
		}
		return noteSavedMsg{passID: passID, note: note}
	}
}

func fetchNotesForPasses(ctx context.Context, ns *notes.Store, loaded []passes.Pass) (map[string][]notewire.Note, error) {
	ids := make([]string, 0, len(loaded))
	for _, p := range loaded {
		ids = append(ids, p.ID)
	}
	return ns.FetchMany(ctx, ids)
}

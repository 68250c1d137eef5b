// Package search finds passes by what their notes say.
package search

import (
	"context"
	"strings"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/notes"
	"github.com/nicksanford/sanding-monitoring-web-app/pkg/notewire"
)

// Match is one note that mentioned the query.
type Match struct {
	PassID  string
	Note    notewire.Note
	Current bool // the note is the pass's effective note, not history
}

// Notes scans the notes of the given passes for a case-insensitive
// substring match. Matches come back in the order the pass ids were
// given, newest note first within a pass.
func Notes(ctx context.Context, ns *notes.Store, passIDs []string, query string) ([]Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	needle := strings.ToLower(query)

	byPass, err := ns.FetchMany(ctx, passIDs)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, passID := range passIDs {
		history := byPass[passID]
		latest, hasLatest := notewire.Latest(history)
		for _, n := range history {
			if !strings.Contains(strings.ToLower(n.Text), needle) {
				continue
			}
			matches = append(matches, Match{
				PassID:  passID,
				Note:    n,
				Current: hasLatest && n.CreatedAt.Equal(latest.CreatedAt) && n.Text == latest.Text,
			})
		}
	}
	return matches, nil
}

package tui

import "github.com/charmbracelet/lipgloss"

// Global styles used across views
var (
	// List view styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedItemStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				Foreground(lipgloss.Color("170")).
				Bold(true)

	failedItemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("203"))

	// Detail view styles
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("green")).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("cyan")).
			Bold(true)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("yellow"))

	// Status bar styles
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246"))

	flashStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("120")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)

	// Help view styles
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

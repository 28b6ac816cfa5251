package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Overlay box
	BaseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	LockedBorderStyle = BaseStyle.
				BorderForeground(lipgloss.Color("236"))

	DraggingBorderStyle = BaseStyle.
				BorderForeground(lipgloss.Color("36"))

	// Data styles
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	// Shown while the counter source is failing
	StaleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	AlertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Detail panel
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Underline(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "up":
		return SuccessStyle
	case "down", "dormant", "lowerlayerdown":
		return WarningStyle
	default:
		return MutedStyle
	}
}

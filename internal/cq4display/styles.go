// Package cq4display renders parsed excerpts and schema information for
// the CLI, adapted from the teacher's color palette and box styling.
package cq4display

import "github.com/charmbracelet/lipgloss"

var (
	InfoColor     = lipgloss.Color("#4682B4")
	GoodColor     = lipgloss.Color("#228B22")
	WarningColor  = lipgloss.Color("#FF8800")
	CriticalColor = lipgloss.Color("#CC3333")
	TextColor     = lipgloss.Color("#CCCCCC")
	MutedColor    = lipgloss.Color("#888888")
	BorderColor   = lipgloss.Color("#666666")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	KeyStyle = lipgloss.NewStyle().Foreground(InfoColor)

	MutedStyle = lipgloss.NewStyle().Foreground(MutedColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(CriticalColor).
			Bold(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	MetadataStyle = lipgloss.NewStyle().Foreground(WarningColor)
)

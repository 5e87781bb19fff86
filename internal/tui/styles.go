package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/sendpair/internal/ui"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor).
			Bold(true).
			Padding(1, 2, 0)

	rowStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	selectedStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(ui.SuccessColor).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Width(26)

	valueStyle = lipgloss.NewStyle().
			Foreground(ui.TextColor)

	okStyle = lipgloss.NewStyle().
		Foreground(ui.SuccessColor).
		PaddingLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(ui.ErrorColor).
			Bold(true).
			PaddingLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor).
			Padding(1, 2, 0)
)

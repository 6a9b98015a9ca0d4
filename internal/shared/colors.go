// Package shared provides shared styling for all addons-analyzer commands.
package shared

import (
	"github.com/charmbracelet/lipgloss"
)

// Standard color definitions (Catppuccin Mocha).
var (
	Red    = lipgloss.Color("#f38ba8")
	Green  = lipgloss.Color("#a6e3a1")
	Yellow = lipgloss.Color("#f9e2af")
	Blue   = lipgloss.Color("#89dceb")
	Cyan   = lipgloss.Color("#94e2d5")
	Mauve  = lipgloss.Color("#cba6f7")
	Text   = lipgloss.Color("#cdd6f4")
	Subtle = lipgloss.Color("#6c7086")
)

// Styles for common output.
var (
	ErrorStyle   = lipgloss.NewStyle().Foreground(Red)
	SuccessStyle = lipgloss.NewStyle().Foreground(Green)
	WarningStyle = lipgloss.NewStyle().Foreground(Yellow)
	InfoStyle    = lipgloss.NewStyle().Foreground(Blue)
	DebugStyle   = lipgloss.NewStyle().Foreground(Cyan)
)

// Styles for report tables.
var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(Mauve)
	CellStyle   = lipgloss.NewStyle().Foreground(Text)
	TotalStyle  = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	MutedStyle  = lipgloss.NewStyle().Foreground(Subtle)
)
